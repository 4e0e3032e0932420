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
	"errors"
	"fmt"

	"wallet-reconcile-go/internal/models"

	"go.uber.org/zap"
)

var (
	ErrMultipleFeeLegs = errors.New("more than one leg carries a fee")
	ErrNoRows          = errors.New("no rows to merge")
)

// Engine merges the rows of one explorer export into economic events
type Engine struct {
	venue Venue
	known *models.KnownAddresses
}

func NewEngine(venue Venue, known *models.KnownAddresses) *Engine {
	if known == nil {
		known = models.NewKnownAddresses(nil, nil)
	}
	return &Engine{venue: venue, known: known}
}

// Result is the mutated row sequence with synthetic rows placed after their source
type Result struct {
	Rows     []*models.RawRow
	Groups   int
	Merged   int
	Failures []*models.RawRow
}

// Merge classifies every group in rows. Rows are mutated in place; per-group
// failures are attached to rows and collected, invariant violations abort.
func (e *Engine) Merge(rows []*models.RawRow) (*Result, error) {
	if len(rows) == 0 {
		return nil, ErrNoRows
	}

	groups, err := GroupRows(e.venue, rows)
	if err != nil {
		return nil, err
	}

	result := &Result{Groups: len(groups)}
	inserted := make(map[*models.RawRow][]*models.RawRow)

	for _, g := range groups {
		merged, synthetic, err := e.mergeGroup(g)
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", g.Key, err)
		}
		if merged {
			result.Merged++
		}
		for _, s := range synthetic {
			inserted[s.source] = append(inserted[s.source], s.row)
		}
	}

	result.Rows = make([]*models.RawRow, 0, len(rows))
	for _, row := range rows {
		result.Rows = append(result.Rows, row)
		result.Rows = append(result.Rows, inserted[row]...)
		if row.Failure != nil {
			result.Failures = append(result.Failures, row)
		}
	}

	zap.L().Info("Merge complete",
		zap.String("venue", e.venue.Name),
		zap.Int("rows", len(result.Rows)),
		zap.Int("groups", result.Groups),
		zap.Int("merged", result.Merged),
		zap.Int("failures", len(result.Failures)))

	return result, nil
}

type syntheticRow struct {
	source *models.RawRow
	row    *models.RawRow
}

func (e *Engine) mergeGroup(g *Group) (bool, []syntheticRow, error) {
	primary := g.Primary()
	if primary == nil {
		e.handleOrphans(g)
		return false, nil, nil
	}

	note := e.venue.note(primary)
	before := g.snapshot()

	Consolidate(e.venue, g)
	if !g.hasTransfers() {
		return false, nil, nil
	}
	for _, row := range g.Rows {
		row.Consumed = true
	}

	c, err := e.partition(g)
	if err != nil {
		return false, nil, err
	}

	zap.L().Debug("Classifying group",
		zap.String("key", g.Key.String()),
		zap.Int("ins", len(c.ins)),
		zap.Int("outs", len(c.outs)),
		zap.Bool("fee", c.fee != nil))

	if len(c.outs) == 0 {
		c.ins = e.reclassifyRewards(c.ins, primary)
	}

	var synthetic []syntheticRow
	switch {
	case len(c.ins) == 1 && len(c.outs) > 0:
		if err := e.multiSell(c, note); err != nil {
			return false, nil, err
		}
	case len(c.outs) == 1 && len(c.ins) > 0:
		if err := e.multiBuy(c, note); err != nil {
			return false, nil, err
		}
	case len(c.ins) == 0 && c.fee != nil && len(c.outs) > 0:
		synthetic = e.enterStaking(c.outs, primary)
	case len(c.outs) == 0 && c.fee != nil && len(c.ins) > 0:
		synthetic = e.exitStaking(c.ins, primary)
	case len(c.ins) > 1 && len(c.outs) > 1:
		g.restore(before)
		e.failGroup(g, primary)
		return false, nil, nil
	}

	if err := e.splitFee(g, c.fee, note); err != nil {
		return false, nil, err
	}
	return true, synthetic, nil
}

// classified holds the live legs of a consolidated group
type classified struct {
	ins  []*models.RawRow
	outs []*models.RawRow
	fee  *models.RawRow
}

func (e *Engine) partition(g *Group) (*classified, error) {
	c := &classified{}
	for _, row := range g.Live() {
		if err := row.Record.CheckLegs(); err != nil {
			return nil, fmt.Errorf("%s row %d: %w", row.Feed, row.LineNum, err)
		}
		if row.Record.HasFee() {
			if c.fee != nil {
				return nil, fmt.Errorf("%w: %s row %d and %s row %d",
					ErrMultipleFeeLegs, c.fee.Feed, c.fee.LineNum, row.Feed, row.LineNum)
			}
			c.fee = row
		}
		switch row.Record.Kind {
		case models.KindDeposit:
			c.ins = append(c.ins, row)
		case models.KindWithdrawal:
			c.outs = append(c.outs, row)
		}
	}
	return c, nil
}

// failGroup marks every row with the same failure pointing at the primary row's tx id
func (e *Engine) failGroup(g *Group, primary *models.RawRow) {
	zap.L().Warn("Merge failure for transaction",
		zap.String("venue", e.venue.Name),
		zap.String(e.venue.TxIdColumn, g.Key.TxId),
		zap.Int("rows", len(g.Rows)))

	for _, row := range g.Rows {
		row.Fail(models.NewUnexpectedContentError(primary, e.venue.TxIdColumn))
	}
}

// handleOrphans checks token deposits that arrived without a parent transaction
func (e *Engine) handleOrphans(g *Group) {
	for _, row := range g.Live() {
		if row.Feed == models.FeedTxns || row.Feed == models.FeedInternalTxns {
			continue
		}
		if row.Record.Kind != models.KindDeposit || row.Record.Buy == nil {
			continue
		}
		if e.known.IsAirdrop(e.venue.from(row), e.venue.contract(row)) {
			row.Record.Kind = models.KindAirdrop
			zap.L().Debug("Orphan deposit reclassified as airdrop",
				zap.String("asset", row.Record.Buy.Asset),
				zap.String("quantity", row.Record.Buy.Quantity.String()))
		}
	}
}
