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
	"github.com/shopspring/decimal"
)

// AssetTotal represents the audited total of one asset across all wallets
type AssetTotal struct {
	Asset   string          `json:"asset"`
	Balance decimal.Decimal `json:"balance"`
}

// DiscrepancyRecord represents a pool mismatch in a run summary
type DiscrepancyRecord struct {
	Asset      string           `json:"asset"`
	Audit      decimal.Decimal  `json:"audit"`
	Pool       *decimal.Decimal `json:"pool,omitempty"`
	Difference decimal.Decimal  `json:"difference"`
	Missing    bool             `json:"missing,omitempty"`
}

// RunSummary represents the result of one reconciliation pass
type RunSummary struct {
	RunId         string              `json:"run_id"`
	Passed        bool                `json:"passed"`
	Records       int                 `json:"records"`
	Failures      []RowFailure        `json:"failures,omitempty"`
	Warnings      int                 `json:"warnings"`
	Totals        []AssetTotal        `json:"totals"`
	Discrepancies []DiscrepancyRecord `json:"discrepancies,omitempty"`
	Exported      int                 `json:"exported,omitempty"`
}
