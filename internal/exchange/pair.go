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

package exchange

import (
	"errors"
	"fmt"

	"wallet-reconcile-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	noteRemainder  = "remainder"
	noteFeeOnly    = "fee only"
	noteConversion = "conversion"
)

var ErrPairSideMissing = errors.New("paired ledger row lacks the opposite trade side")

// PairConfig names the columns and staking rules of a two-feed venue
type PairConfig struct {
	Venue         string
	RefIdColumn   string
	TxIdColumn    string
	LedgersColumn string
	StakingWallet string
	// Conversions maps a staked asset deposited on the staking wallet to the asset it was staked from
	Conversions map[string]string
}

func Kraken() PairConfig {
	return PairConfig{
		Venue:         "kraken",
		RefIdColumn:   "refid",
		TxIdColumn:    "txid",
		LedgersColumn: "ledgers",
		StakingWallet: "Kraken:Staking",
		Conversions:   map[string]string{"ETH2": "ETH"},
	}
}

// PairMatcher joins the two ledger rows of each trade and folds in the trade log
type PairMatcher struct {
	cfg PairConfig
}

func NewPairMatcher(cfg PairConfig) *PairMatcher {
	return &PairMatcher{cfg: cfg}
}

type PairResult struct {
	Ledgers     []*models.RawRow
	Trades      []*models.RawRow
	Matched     int
	Remainders  int
	FeeOnly     int
	Conversions int
	Failures    []*models.RawRow
}

// Rows returns the ledger rows followed by the trade-log rows
func (r *PairResult) Rows() []*models.RawRow {
	out := make([]*models.RawRow, 0, len(r.Ledgers)+len(r.Trades))
	out = append(out, r.Ledgers...)
	return append(out, r.Trades...)
}

// Match pairs every unconsumed Trade row of ledgers. Ledger trade rows arrive
// carrying one side only; the pair supplies the other.
func (m *PairMatcher) Match(ledgers, trades []*models.RawRow) (*PairResult, error) {
	result := &PairResult{Trades: trades}

	for i, row := range ledgers {
		if !row.Live() || row.Consumed || row.Record.Kind != models.KindTrade {
			continue
		}
		row.Consumed = true
		refid := row.Fields.Get(m.cfg.RefIdColumn)

		pair := m.findPair(ledgers, i, refid)

		tradeRow := m.findTradeRow(trades, refid)
		if tradeRow != nil {
			zap.L().Debug("Found matching trade for ledger",
				zap.String("trade", tradeRow.Fields.Get(m.cfg.TxIdColumn)),
				zap.String("ledger", row.Fields.Get(m.cfg.TxIdColumn)))
			tradeRow.Consumed = true
		}

		if pair == nil {
			if tradeRow != nil && tradeRow.Live() &&
				tradeRow.Fields.Get(m.cfg.LedgersColumn) == row.Fields.Get(m.cfg.TxIdColumn) {
				row.Record = tradeRow.Record.Clone()
				row.Record.Note = noteRemainder
				result.Remainders++
				continue
			}
			zap.L().Warn("Merge failure for refid",
				zap.String("venue", m.cfg.Venue),
				zap.String("refid", refid))
			row.Fail(models.NewUnexpectedContentError(row, m.cfg.RefIdColumn))
			continue
		}

		if err := m.join(row, pair, result); err != nil {
			return nil, fmt.Errorf("%s refid %s: %w", m.cfg.Venue, refid, err)
		}
		result.Matched++
	}

	for _, row := range trades {
		if row.Consumed {
			row.Delete()
		}
	}

	result.Ledgers = m.addConversions(ledgers, result)

	for _, row := range result.Ledgers {
		if row.Failure != nil {
			result.Failures = append(result.Failures, row)
		}
	}

	zap.L().Info("Pair matching complete",
		zap.String("venue", m.cfg.Venue),
		zap.Int("matched", result.Matched),
		zap.Int("remainders", result.Remainders),
		zap.Int("fee_only", result.FeeOnly),
		zap.Int("conversions", result.Conversions),
		zap.Int("failures", len(result.Failures)))

	return result, nil
}

// join copies the missing side of row from pair and settles the fees
func (m *PairMatcher) join(row, pair *models.RawRow, result *PairResult) error {
	rec, other := row.Record, pair.Record
	if rec.Buy != nil {
		if other.Sell == nil {
			return ErrPairSideMissing
		}
		sell := *other.Sell
		rec.Sell = &sell
	} else {
		if other.Buy == nil {
			return ErrPairSideMissing
		}
		buy := *other.Buy
		rec.Buy = &buy
	}

	keepPair := false
	if other.Fee != nil && other.Fee.Quantity.IsPositive() {
		if rec.Fee != nil && rec.Fee.Quantity.IsPositive() {
			zap.L().Warn("Multiple fees",
				zap.String("refid", row.Fields.Get(m.cfg.RefIdColumn)),
				zap.String("fee", rec.Fee.Quantity.String()+" "+rec.Fee.Asset),
				zap.String("pair_fee", other.Fee.Quantity.String()+" "+other.Fee.Asset))

			other.Kind = models.KindTrade
			other.Buy = models.NewLeg(rec.Buy.Asset, decimal.Zero)
			other.Sell = models.NewLeg(rec.Sell.Asset, decimal.Zero)
			other.Note = noteFeeOnly
			keepPair = true
			result.FeeOnly++
		} else {
			fee := *other.Fee
			rec.Fee = &fee
		}
	}

	zap.L().Debug("Found match",
		zap.Int("line", row.LineNum),
		zap.Int("pair_line", pair.LineNum))

	pair.Consumed = true
	if !keepPair {
		pair.Delete()
	}
	return nil
}

// findPair looks for the counterpart of ledgers[cursor]. The counterpart is
// almost always the next row, so that is tried first before a full scan.
func (m *PairMatcher) findPair(ledgers []*models.RawRow, cursor int, refid string) *models.RawRow {
	if next := cursor + 1; next < len(ledgers) && m.isPair(ledgers[next], ledgers[cursor], refid) {
		return ledgers[next]
	}
	for _, candidate := range ledgers {
		if m.isPair(candidate, ledgers[cursor], refid) {
			return candidate
		}
	}
	return nil
}

func (m *PairMatcher) isPair(candidate, row *models.RawRow, refid string) bool {
	return candidate != row &&
		!candidate.Consumed &&
		candidate.Live() &&
		candidate.Fields.Get(m.cfg.RefIdColumn) == refid
}

func (m *PairMatcher) findTradeRow(trades []*models.RawRow, refid string) *models.RawRow {
	for _, row := range trades {
		if !row.Consumed && row.Fields.Get(m.cfg.TxIdColumn) == refid {
			return row
		}
	}
	return nil
}

// addConversions rewrites staked-asset deposits on the staking wallet to the base asset
// and follows each with a virtual trade into the staked asset.
func (m *PairMatcher) addConversions(ledgers []*models.RawRow, result *PairResult) []*models.RawRow {
	out := make([]*models.RawRow, 0, len(ledgers))
	for _, row := range ledgers {
		out = append(out, row)
		if row.Consumed || !row.Live() {
			continue
		}
		rec := row.Record
		if rec.Wallet != m.cfg.StakingWallet || rec.Kind != models.KindDeposit || rec.Buy == nil {
			continue
		}
		base, ok := m.cfg.Conversions[rec.Buy.Asset]
		if !ok {
			continue
		}

		staked := rec.Buy.Asset
		rec.Buy.Asset = base
		trade := &models.Record{
			Kind:      models.KindTrade,
			Timestamp: rec.Timestamp,
			Buy:       models.NewLeg(staked, rec.Buy.Quantity),
			Sell:      models.NewLeg(base, rec.Buy.Quantity),
			Wallet:    rec.Wallet,
			Note:      noteConversion,
		}
		out = append(out, row.Derive(trade))
		result.Conversions++
	}
	return out
}
