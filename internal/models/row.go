/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Feed identifies the source file a RawRow was parsed from
type Feed string

const (
	FeedTxns         Feed = "txns"
	FeedTokens       Feed = "tokens"
	FeedNFTs         Feed = "nfts"
	FeedInternalTxns Feed = "internal_txns"
	FeedLedgers      Feed = "ledgers"
	FeedTrades       Feed = "trades"
	FeedExchange     Feed = "exchange"
)

var ErrMissingColumn = errors.New("column not present in row")

// Fields is the immutable header and values of one parsed line
type Fields struct {
	header []string
	values []string
}

func NewFields(header, values []string) Fields {
	h := make([]string, len(header))
	copy(h, header)
	v := make([]string, len(header))
	copy(v, values)
	return Fields{header: h, values: v}
}

// Get returns the value of the named column, or "" if absent
func (f Fields) Get(name string) string {
	if i := f.Index(name); i >= 0 {
		return f.values[i]
	}
	return ""
}

// Lookup is Get with an explicit error for a missing column
func (f Fields) Lookup(name string) (string, error) {
	i := f.Index(name)
	if i < 0 {
		return "", fmt.Errorf("%w: %s", ErrMissingColumn, name)
	}
	return f.values[i], nil
}

// Index returns the column position of name, or -1
func (f Fields) Index(name string) int {
	for i, h := range f.header {
		if h == name {
			return i
		}
	}
	return -1
}

func (f Fields) Header() []string {
	out := make([]string, len(f.header))
	copy(out, f.header)
	return out
}

func (f Fields) Len() int { return len(f.header) }

type fieldsJSON struct {
	Header []string `json:"header"`
	Values []string `json:"values"`
}

func (f Fields) MarshalJSON() ([]byte, error) {
	return json.Marshal(fieldsJSON{Header: f.header, Values: f.values})
}

func (f *Fields) UnmarshalJSON(data []byte) error {
	var raw fieldsJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw.Values) > len(raw.Header) {
		return fmt.Errorf("fields have %d values for %d columns", len(raw.Values), len(raw.Header))
	}
	*f = NewFields(raw.Header, raw.Values)
	return nil
}

// RawRow wraps one adapter-parsed line and the record it currently carries.
// A nil Record means the leg has been deleted.
type RawRow struct {
	Id        string    `json:"id"`
	Feed      Feed      `json:"feed"`
	Owner     string    `json:"owner"`
	LineNum   int       `json:"line_num"`
	Fields    Fields    `json:"fields"`
	Timestamp time.Time `json:"timestamp"`
	Record    *Record   `json:"record,omitempty"`
	Consumed  bool      `json:"consumed,omitempty"`
	Synthetic bool      `json:"synthetic,omitempty"`
	Failure   error     `json:"-"`
}

func NewRawRow(feed Feed, owner string, lineNum int, fields Fields, record *Record) *RawRow {
	row := &RawRow{
		Id:      uuid.New().String(),
		Feed:    feed,
		Owner:   owner,
		LineNum: lineNum,
		Fields:  fields,
		Record:  record,
	}
	if record != nil {
		row.Timestamp = record.Timestamp
	}
	return row
}

// Live reports whether the row still carries a record
func (r *RawRow) Live() bool { return r.Record != nil }

func (r *RawRow) Delete() { r.Record = nil }

func (r *RawRow) Fail(err error) { r.Failure = err }

// Derive returns a synthetic sibling row sharing the source fields
func (r *RawRow) Derive(record *Record) *RawRow {
	return &RawRow{
		Id:        uuid.New().String(),
		Feed:      r.Feed,
		Owner:     r.Owner,
		LineNum:   r.LineNum,
		Fields:    r.Fields,
		Timestamp: r.Timestamp,
		Record:    record,
		Consumed:  r.Consumed,
		Synthetic: true,
	}
}

func (r *RawRow) String() string {
	rec := "<deleted>"
	if r.Record != nil {
		rec = r.Record.String()
	}
	return fmt.Sprintf("%s:%d %s", r.Feed, r.LineNum, rec)
}

// UnexpectedContentError pinpoints the cell of a row that could not be reconciled
type UnexpectedContentError struct {
	Feed   Feed
	Column int
	Name   string
	Value  string
}

func (e *UnexpectedContentError) Error() string {
	return fmt.Sprintf("unexpected %s content in column %d (%s): %q", e.Feed, e.Column, e.Name, e.Value)
}

// NewUnexpectedContentError builds the failure for column name of row
func NewUnexpectedContentError(row *RawRow, name string) *UnexpectedContentError {
	return &UnexpectedContentError{
		Feed:   row.Feed,
		Column: row.Fields.Index(name),
		Name:   name,
		Value:  row.Fields.Get(name),
	}
}
