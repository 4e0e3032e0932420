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

package audit

import (
	"wallet-reconcile-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const noteRebase = "Rebase"

// FiatChecker reports whether an asset is a fiat currency
type FiatChecker interface {
	IsFiat(asset string) bool
}

// Ledger replays a finalized record stream into per-wallet balances
type Ledger struct {
	rebase map[string]bool
	fiat   FiatChecker
}

func NewLedger(rebaseAssets []string, fiat FiatChecker) *Ledger {
	rebase := make(map[string]bool, len(rebaseAssets))
	for _, a := range rebaseAssets {
		rebase[a] = true
	}
	return &Ledger{rebase: rebase, fiat: fiat}
}

// Report is the outcome of one replay. Precedes maps each inserted rebase to the
// record it was placed in front of.
type Report struct {
	State         *State
	Records       []*models.Record
	Rebases       []*models.Record
	Precedes      map[*models.Record]*models.Record
	Warnings      []models.BalanceWarning
	Discrepancies []models.Discrepancy
	fiat          FiatChecker
}

// Replay applies records in order. Buys add, sells and fees subtract. A rebase
// asset going negative gets an Income record inserted just before the event that
// drove it negative and its balance reset to zero.
func (l *Ledger) Replay(records []*models.Record) *Report {
	report := &Report{
		State:    NewState(),
		Precedes: make(map[*models.Record]*models.Record),
		fiat:     l.fiat,
	}
	q := newReplayQueue(records)

	for ; q.more(); q.advance() {
		rec := q.current()
		if rec == nil {
			continue
		}

		if rec.Buy != nil {
			bal := report.State.apply(rec.Wallet, rec.Buy.Asset, rec.Buy.Quantity)
			zap.L().Debug("Audit add",
				zap.String("wallet", rec.Wallet),
				zap.String("asset", rec.Buy.Asset),
				zap.String("quantity", rec.Buy.Quantity.String()),
				zap.String("balance", bal.String()))
		}
		if rec.Sell != nil {
			l.subtract(report, q, rec, rec.Sell.Asset, rec.Sell.Quantity)
		}
		if rec.Fee != nil {
			l.subtract(report, q, rec, rec.Fee.Asset, rec.Fee.Quantity)
		}
	}

	report.Records = q.records()
	return report
}

func (l *Ledger) subtract(report *Report, q *replayQueue, rec *models.Record, asset string, qty decimal.Decimal) {
	bal := report.State.apply(rec.Wallet, asset, qty.Neg())
	zap.L().Debug("Audit subtract",
		zap.String("wallet", rec.Wallet),
		zap.String("asset", asset),
		zap.String("quantity", qty.String()),
		zap.String("balance", bal.String()))

	if !bal.IsNegative() {
		return
	}

	if l.rebase[asset] {
		missing := bal.Neg()
		rebase := &models.Record{
			Kind:      models.KindIncome,
			Timestamp: rec.Timestamp,
			Buy:       models.NewLeg(asset, missing),
			Wallet:    rec.Wallet,
			Note:      noteRebase,
		}
		q.insertBeforeCurrent(rebase)
		report.State.apply(rec.Wallet, asset, missing)
		report.Rebases = append(report.Rebases, rebase)
		report.Precedes[rebase] = rec

		zap.L().Debug("Audit rebase",
			zap.String("wallet", rec.Wallet),
			zap.String("asset", asset),
			zap.String("quantity", missing.String()))
		return
	}

	if l.fiat != nil && l.fiat.IsFiat(asset) {
		return
	}

	zap.L().Warn("Balance is negative",
		zap.String("wallet", rec.Wallet),
		zap.String("asset", asset),
		zap.String("balance", bal.String()))
	report.Warnings = append(report.Warnings, models.BalanceWarning{
		Wallet:    rec.Wallet,
		Asset:     asset,
		Balance:   bal,
		Timestamp: rec.Timestamp,
	})
}

// ComparePools checks every non-fiat audited total against the holdings pool.
// Discrepancies are collected on the report rather than returned as errors.
func (r *Report) ComparePools(holdings map[string]decimal.Decimal) bool {
	passed := true
	r.Discrepancies = nil

	for _, asset := range r.State.AssetNames() {
		if r.fiat != nil && r.fiat.IsFiat(asset) {
			continue
		}
		total := r.State.Total(asset)

		pool, ok := holdings[asset]
		if !ok {
			zap.L().Debug("Check pool missing", zap.String("asset", asset))
			r.Discrepancies = append(r.Discrepancies, models.Discrepancy{Asset: asset, Audit: total})
			passed = false
			continue
		}
		if total.Equal(pool) {
			zap.L().Debug("Check pool ok", zap.String("asset", asset))
			continue
		}

		p := pool
		d := models.Discrepancy{Asset: asset, Audit: total, Pool: &p}
		zap.L().Debug("Check pool mismatch",
			zap.String("asset", asset),
			zap.String("difference", d.Difference().String()))
		r.Discrepancies = append(r.Discrepancies, d)
		passed = false
	}
	return passed
}

// Balances flattens the final state, wallets sorted case-insensitively
func (r *Report) Balances() []models.WalletBalance {
	var out []models.WalletBalance
	for _, wallet := range r.State.WalletNames() {
		for _, asset := range sortedKeys(r.State.Wallets[wallet]) {
			out = append(out, models.WalletBalance{
				Wallet:  wallet,
				Asset:   asset,
				Balance: r.State.Wallets[wallet][asset],
			})
		}
	}
	return out
}

// LogBalances writes the final balances by wallet and by asset at debug level
func (r *Report) LogBalances() {
	for _, b := range r.Balances() {
		zap.L().Debug("Final balance by wallet",
			zap.String("wallet", b.Wallet),
			zap.String("asset", b.Asset),
			zap.String("balance", b.Balance.String()))
	}
	for _, asset := range r.State.AssetNames() {
		zap.L().Debug("Final balance by asset",
			zap.String("asset", asset),
			zap.String("balance", r.State.Total(asset).String()))
	}
}
