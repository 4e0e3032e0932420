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
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the economic event type of a Record
type Kind string

const (
	KindDeposit      Kind = "Deposit"
	KindWithdrawal   Kind = "Withdrawal"
	KindTrade        Kind = "Trade"
	KindSpend        Kind = "Spend"
	KindIncome       Kind = "Income"
	KindStaking      Kind = "Staking"
	KindAirdrop      Kind = "Airdrop"
	KindDividend     Kind = "Dividend"
	KindInterest     Kind = "Interest"
	KindGiftReceived Kind = "Gift-Received"
)

var (
	ErrNoLegs          = errors.New("record has neither buy nor sell leg")
	ErrTradeMissingLeg = errors.New("trade requires both buy and sell legs")
	ErrKindMissingLeg  = errors.New("record lacks the leg its kind requires")
	ErrNegativeAmount  = errors.New("quantity cannot be negative")
	ErrUnknownKind     = errors.New("unknown record kind")
)

var knownKinds = map[Kind]bool{
	KindDeposit: true, KindWithdrawal: true, KindTrade: true, KindSpend: true,
	KindIncome: true, KindStaking: true, KindAirdrop: true, KindDividend: true,
	KindInterest: true, KindGiftReceived: true,
}

// Leg is one side of a Record
type Leg struct {
	Asset    string           `json:"asset" yaml:"asset"`
	Quantity decimal.Decimal  `json:"quantity" yaml:"quantity"`
	Value    *decimal.Decimal `json:"value,omitempty" yaml:"value,omitempty"`
}

// Fee is the cost attached to a Record
type Fee struct {
	Asset    string          `json:"asset" yaml:"asset"`
	Quantity decimal.Decimal `json:"quantity" yaml:"quantity"`
}

// Record is one economic event
type Record struct {
	Kind      Kind      `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Buy       *Leg      `json:"buy,omitempty"`
	Sell      *Leg      `json:"sell,omitempty"`
	Fee       *Fee      `json:"fee,omitempty"`
	Wallet    string    `json:"wallet"`
	Note      string    `json:"note,omitempty"`
}

func (r *Record) Validate() error {
	if !knownKinds[r.Kind] {
		return fmt.Errorf("%w: %q", ErrUnknownKind, r.Kind)
	}
	if r.Buy == nil && r.Sell == nil {
		return ErrNoLegs
	}
	if err := r.CheckLegs(); err != nil {
		return err
	}
	if r.Buy != nil && r.Buy.Quantity.IsNegative() {
		return fmt.Errorf("buy %s: %w", r.Buy.Asset, ErrNegativeAmount)
	}
	if r.Sell != nil && r.Sell.Quantity.IsNegative() {
		return fmt.Errorf("sell %s: %w", r.Sell.Asset, ErrNegativeAmount)
	}
	if r.Fee != nil && r.Fee.Quantity.IsNegative() {
		return fmt.Errorf("fee %s: %w", r.Fee.Asset, ErrNegativeAmount)
	}
	return nil
}

// CheckLegs verifies that deposits carry a buy leg, withdrawals a sell leg
// and trades both
func (r *Record) CheckLegs() error {
	switch r.Kind {
	case KindDeposit:
		if r.Buy == nil {
			return fmt.Errorf("%w: %s without buy", ErrKindMissingLeg, r.Kind)
		}
	case KindWithdrawal:
		if r.Sell == nil {
			return fmt.Errorf("%w: %s without sell", ErrKindMissingLeg, r.Kind)
		}
	case KindTrade:
		if r.Buy == nil || r.Sell == nil {
			return ErrTradeMissingLeg
		}
	}
	return nil
}

// HasFee reports whether a non-nil fee is attached, zero quantities included
func (r *Record) HasFee() bool {
	return r.Fee != nil
}

func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	if r.Buy != nil {
		buy := *r.Buy
		out.Buy = &buy
	}
	if r.Sell != nil {
		sell := *r.Sell
		out.Sell = &sell
	}
	if r.Fee != nil {
		fee := *r.Fee
		out.Fee = &fee
	}
	return &out
}

func (r *Record) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s", r.Kind)
	if r.Buy != nil {
		fmt.Fprintf(&b, " buy=%s %s", r.Buy.Quantity.String(), r.Buy.Asset)
	}
	if r.Sell != nil {
		fmt.Fprintf(&b, " sell=%s %s", r.Sell.Quantity.String(), r.Sell.Asset)
	}
	if r.Fee != nil {
		fmt.Fprintf(&b, " fee=%s %s", r.Fee.Quantity.String(), r.Fee.Asset)
	}
	fmt.Fprintf(&b, " wallet=%q", r.Wallet)
	if r.Note != "" {
		fmt.Fprintf(&b, " note=%q", r.Note)
	}
	return b.String()
}

// NewLeg is a shorthand used by adapters and tests
func NewLeg(asset string, quantity decimal.Decimal) *Leg {
	return &Leg{Asset: asset, Quantity: quantity}
}
