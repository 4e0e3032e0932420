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

package merge

import (
	"fmt"
	"strings"

	"wallet-reconcile-go/internal/models"
)

// RewardMatch selects which addresses are tried against the reward and airdrop tables
type RewardMatch int

const (
	// MatchSenderOnly checks the sender of the leg
	MatchSenderOnly RewardMatch = iota
	// MatchSenderOrRecipient also checks the receiving address of the group's primary row
	MatchSenderOrRecipient
)

// SplitPolicy selects how a single trade side is divided across the opposite legs
type SplitPolicy int

const (
	// SplitEven gives every leg total/n
	SplitEven SplitPolicy = iota
	// SplitProportional weights each leg by its own quantity
	SplitProportional
)

// Venue describes the column layout and merge rules of one explorer export
type Venue struct {
	Name           string
	TxIdColumn     string
	FromColumn     string
	ToColumn       string
	ContractColumn string
	StatusColumn   string
	MethodColumn   string
	RewardMatch    RewardMatch
	Split          SplitPolicy
	// KeepLegNotes leaves an existing leg note in place when the fee is split onto it
	KeepLegNotes bool
	Consolidate  map[models.Feed]bool
}

func Etherscan() Venue {
	return Venue{
		Name:           "etherscan",
		TxIdColumn:     "Txhash",
		FromColumn:     "From",
		ToColumn:       "To",
		ContractColumn: "ContractAddress",
		StatusColumn:   "Status",
		MethodColumn:   "Method",
		RewardMatch:    MatchSenderOrRecipient,
		Split:          SplitEven,
		KeepLegNotes:   true,
		Consolidate:    defaultConsolidate(),
	}
}

func Blockscout() Venue {
	return Venue{
		Name:           "blockscout",
		TxIdColumn:     "TxHash",
		FromColumn:     "FromAddress",
		ToColumn:       "ToAddress",
		ContractColumn: "TokenContractAddress",
		StatusColumn:   "Status",
		MethodColumn:   "Method",
		RewardMatch:    MatchSenderOrRecipient,
		Split:          SplitEven,
		KeepLegNotes:   false,
		Consolidate:    defaultConsolidate(),
	}
}

func defaultConsolidate() map[models.Feed]bool {
	return map[models.Feed]bool{
		models.FeedTxns:         true,
		models.FeedInternalTxns: true,
	}
}

// VenueByName returns the preset for name
func VenueByName(name string) (Venue, error) {
	switch strings.ToLower(name) {
	case "etherscan", "":
		return Etherscan(), nil
	case "blockscout":
		return Blockscout(), nil
	default:
		return Venue{}, fmt.Errorf("unknown venue %q", name)
	}
}

// WithTokenConsolidation also nets legs from the token and NFT feeds
func (v Venue) WithTokenConsolidation() Venue {
	feeds := make(map[models.Feed]bool, len(v.Consolidate)+2)
	for f, ok := range v.Consolidate {
		feeds[f] = ok
	}
	feeds[models.FeedTokens] = true
	feeds[models.FeedNFTs] = true
	v.Consolidate = feeds
	return v
}

func (v Venue) from(row *models.RawRow) string     { return row.Fields.Get(v.FromColumn) }
func (v Venue) to(row *models.RawRow) string       { return row.Fields.Get(v.ToColumn) }
func (v Venue) contract(row *models.RawRow) string { return row.Fields.Get(v.ContractColumn) }

// note builds the annotation written onto merged legs from the primary row
func (v Venue) note(primary *models.RawRow) string {
	status := primary.Fields.Get(v.StatusColumn)
	method := primary.Fields.Get(v.MethodColumn)
	if status != "" {
		label := "Cancelled"
		if status == "Error(1)" {
			label = "Failure"
		}
		if method != "" {
			return fmt.Sprintf("%s(%s)", label, method)
		}
		return "Failure"
	}
	if method != "" {
		return method
	}
	if primary.Record != nil {
		return primary.Record.Note
	}
	return ""
}
