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
package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wallet-reconcile-go/internal/audit"
	"wallet-reconcile-go/internal/exchange"
	"wallet-reconcile-go/internal/merge"
	"wallet-reconcile-go/internal/models"
	"wallet-reconcile-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrNoRows = errors.New("no rows to reconcile")

// RunRequest is the input of one reconciliation pass.
// A nil Holdings skips the pool comparison.
type RunRequest struct {
	Venue    string
	Rows     []*models.RawRow
	Holdings map[string]decimal.Decimal
}

// RunResult carries the summary together with the mutated rows and the audit report
type RunResult struct {
	Summary *models.RunSummary
	Rows    []*models.RawRow
	Report  *audit.Report
}

// Run reconciles the rows of one venue, replays the finalized records and compares
// them with the holdings pool. The run is stored and exported when a store or sink is set.
func (s *ReconcileService) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	if len(req.Rows) == 0 {
		return nil, ErrNoRows
	}

	rc := &models.RunContext{
		RunId:     uuid.New().String(),
		Venue:     strings.ToLower(req.Venue),
		StartedAt: time.Now().UTC(),
	}
	ctx = models.WithRunContext(ctx, rc)

	zap.L().Info("Starting reconciliation",
		zap.String("run_id", rc.RunId),
		zap.String("venue", rc.Venue),
		zap.Int("rows", len(req.Rows)))

	rows, err := s.reconcileRows(rc.Venue, req.Rows)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records, sources := finalize(rows)

	report := audit.NewLedger(s.opts.RebaseAssets, s.opts.Fiat).Replay(records)
	report.LogBalances()

	rows = spliceRebases(rows, report, sources)

	passed := true
	if req.Holdings != nil {
		passed = report.ComparePools(req.Holdings)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var failures []models.RowFailure
	for _, row := range rows {
		if row.Failure != nil {
			failures = append(failures, models.NewRowFailure(row))
		}
	}

	summary := buildSummary(rc.RunId, passed, report, failures)

	if s.store != nil {
		err := s.store.SaveRun(ctx, store.SaveRunParams{
			Run: models.AuditRun{
				Id:           rc.RunId,
				Venue:        rc.Venue,
				Passed:       passed,
				RecordCount:  len(report.Records),
				FailureCount: len(failures),
				WarningCount: len(report.Warnings),
				CreatedAt:    rc.StartedAt,
			},
			Balances:      report.Balances(),
			Discrepancies: report.Discrepancies,
			Failures:      failures,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to save run: %w", err)
		}
	}

	if s.sink != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		exported, err := s.sink.ExportRecords(ctx, exportRecords(report.Records, sources))
		if err != nil {
			return nil, fmt.Errorf("failed to export records: %w", err)
		}
		summary.Exported = exported
	}

	zap.L().Info("Reconciliation complete",
		zap.String("run_id", rc.RunId),
		zap.Bool("passed", passed),
		zap.Int("records", summary.Records),
		zap.Int("failures", len(failures)),
		zap.Int("warnings", summary.Warnings),
		zap.Int("discrepancies", len(summary.Discrepancies)))

	return &RunResult{Summary: summary, Rows: rows, Report: report}, nil
}

func (s *ReconcileService) reconcileRows(venue string, rows []*models.RawRow) ([]*models.RawRow, error) {
	switch venue {
	case "kraken":
		var ledgers, trades, other []*models.RawRow
		for _, row := range rows {
			switch row.Feed {
			case models.FeedLedgers:
				ledgers = append(ledgers, row)
			case models.FeedTrades:
				trades = append(trades, row)
			default:
				other = append(other, row)
			}
		}
		result, err := exchange.NewPairMatcher(exchange.Kraken()).Match(ledgers, trades)
		if err != nil {
			return nil, err
		}
		return append(result.Rows(), other...), nil

	case "revolut":
		result, err := exchange.NewGroupMatcher(exchange.Revolut(), s.opts.Fiat).Match(rows)
		if err != nil {
			return nil, err
		}
		return result.Rows, nil

	default:
		v, err := merge.VenueByName(venue)
		if err != nil {
			return nil, err
		}
		if s.opts.ConsolidateTokens {
			v = v.WithTokenConsolidation()
		}
		if s.opts.ProportionalSplit {
			v.Split = merge.SplitProportional
		}
		result, err := merge.NewEngine(v, s.opts.Known).Merge(rows)
		if err != nil {
			return nil, err
		}
		return result.Rows, nil
	}
}

// finalize collects the live records in row order. A record that fails validation
// fails its row and stays out of the audit.
func finalize(rows []*models.RawRow) ([]*models.Record, map[*models.Record]*models.RawRow) {
	var records []*models.Record
	sources := make(map[*models.Record]*models.RawRow)
	for _, row := range rows {
		if !row.Live() {
			continue
		}
		if err := row.Record.Validate(); err != nil {
			zap.L().Warn("Invalid record", zap.String("row", row.String()), zap.Error(err))
			if row.Failure == nil {
				row.Fail(err)
			}
			continue
		}
		records = append(records, row.Record)
		sources[row.Record] = row
	}
	return records, sources
}

// spliceRebases places a derived row for every audit rebase directly in front of
// the row whose record it precedes. The derived row id is built from the source
// row id so it stays the same across reruns of the same rows.
func spliceRebases(rows []*models.RawRow, report *audit.Report, sources map[*models.Record]*models.RawRow) []*models.RawRow {
	if len(report.Rebases) == 0 {
		return rows
	}

	before := make(map[*models.RawRow][]*models.RawRow)
	for _, rebase := range report.Rebases {
		src, ok := sources[report.Precedes[rebase]]
		if !ok {
			continue
		}
		derived := src.Derive(rebase)
		derived.Id = rebaseRowId(src.Id, len(before[src]))
		before[src] = append(before[src], derived)
		sources[rebase] = derived
	}

	out := make([]*models.RawRow, 0, len(rows)+len(report.Rebases))
	for _, row := range rows {
		out = append(out, before[row]...)
		out = append(out, row)
	}
	return out
}

func rebaseRowId(sourceId string, n int) string {
	if n == 0 {
		return sourceId + ":rebase"
	}
	return fmt.Sprintf("%s:rebase:%d", sourceId, n+1)
}

// exportRecords keys each record by the id of the row carrying it
func exportRecords(records []*models.Record, sources map[*models.Record]*models.RawRow) []store.ExportRecord {
	out := make([]store.ExportRecord, 0, len(records))
	for _, rec := range records {
		row, ok := sources[rec]
		if !ok {
			zap.L().Warn("Record without a source row", zap.String("record", rec.String()))
			continue
		}
		out = append(out, store.ExportRecord{Reference: row.Id, Record: rec})
	}
	return out
}

func buildSummary(runId string, passed bool, report *audit.Report, failures []models.RowFailure) *models.RunSummary {
	summary := &models.RunSummary{
		RunId:    runId,
		Passed:   passed,
		Records:  len(report.Records),
		Failures: failures,
		Warnings: len(report.Warnings),
	}
	for _, asset := range report.State.AssetNames() {
		summary.Totals = append(summary.Totals, models.AssetTotal{
			Asset:   asset,
			Balance: report.State.Total(asset),
		})
	}
	for _, d := range report.Discrepancies {
		summary.Discrepancies = append(summary.Discrepancies, models.DiscrepancyRecord{
			Asset:      d.Asset,
			Audit:      d.Audit,
			Pool:       d.Pool,
			Difference: d.Difference(),
			Missing:    d.Missing(),
		})
	}
	return summary
}
