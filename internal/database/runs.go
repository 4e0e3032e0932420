package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"wallet-reconcile-go/internal/models"
	"wallet-reconcile-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SaveRun atomically stores a run together with its balances, discrepancies and failures
func (s *Service) SaveRun(ctx context.Context, params store.SaveRunParams) error {
	run := params.Run
	if run.Id == "" {
		return fmt.Errorf("run id cannot be empty")
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	zap.L().Info("Saving audit run",
		zap.String("run_id", run.Id),
		zap.String("venue", run.Venue),
		zap.Bool("passed", run.Passed),
		zap.Int("balances", len(params.Balances)),
		zap.Int("discrepancies", len(params.Discrepancies)),
		zap.Int("failures", len(params.Failures)))

	var existingId string
	err := s.db.QueryRowContext(ctx, queryCheckDuplicateRun, run.Id).Scan(&existingId)
	if err == nil {
		zap.L().Warn("Duplicate audit run detected, skipping", zap.String("run_id", run.Id))
		return fmt.Errorf("%w: %s already exists", store.ErrDuplicateRun, run.Id)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to check for duplicate run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, queryInsertRun,
		run.Id, run.Venue, run.Passed, run.RecordCount, run.FailureCount, run.WarningCount, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for _, b := range params.Balances {
		_, err := tx.ExecContext(ctx, queryInsertBalance,
			uuid.New().String(), run.Id, b.Wallet, b.Asset, b.Balance.String())
		if err != nil {
			return fmt.Errorf("failed to insert balance %s:%s: %w", b.Wallet, b.Asset, err)
		}
	}

	for _, d := range params.Discrepancies {
		var pool sql.NullString
		if d.Pool != nil {
			pool = sql.NullString{String: d.Pool.String(), Valid: true}
		}
		_, err := tx.ExecContext(ctx, queryInsertDiscrepancy,
			uuid.New().String(), run.Id, d.Asset, d.Audit.String(), pool)
		if err != nil {
			return fmt.Errorf("failed to insert discrepancy %s: %w", d.Asset, err)
		}
	}

	for _, f := range params.Failures {
		_, err := tx.ExecContext(ctx, queryInsertFailure,
			uuid.New().String(), run.Id, f.RowId, string(f.Feed), f.LineNum, f.Column, f.Name, f.Value, f.Message)
		if err != nil {
			return fmt.Errorf("failed to insert failure for row %s: %w", f.RowId, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Audit run saved successfully", zap.String("run_id", run.Id))
	return nil
}

func (s *Service) GetRun(ctx context.Context, runId string) (*models.AuditRun, error) {
	var run models.AuditRun
	err := s.db.QueryRowContext(ctx, queryGetRun, runId).Scan(
		&run.Id, &run.Venue, &run.Passed, &run.RecordCount, &run.FailureCount, &run.WarningCount, &run.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrRunNotFound, runId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// ListRuns returns runs newest first
func (s *Service) ListRuns(ctx context.Context, limit, offset int) ([]models.AuditRun, error) {
	zap.L().Debug("Listing audit runs", zap.Int("limit", limit), zap.Int("offset", offset))

	rows, err := s.db.QueryContext(ctx, queryListRuns, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var runs []models.AuditRun
	for rows.Next() {
		var run models.AuditRun
		if err := rows.Scan(&run.Id, &run.Venue, &run.Passed, &run.RecordCount,
			&run.FailureCount, &run.WarningCount, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		zap.L().Error("Error during run row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating run rows: %w", err)
	}
	return runs, nil
}

func (s *Service) GetRunFailures(ctx context.Context, runId string) ([]models.RowFailure, error) {
	rows, err := s.db.QueryContext(ctx, queryGetRunFailures, runId)
	if err != nil {
		return nil, fmt.Errorf("failed to get failures: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var failures []models.RowFailure
	for rows.Next() {
		var f models.RowFailure
		var feed string
		var name, value sql.NullString
		if err := rows.Scan(&f.RowId, &feed, &f.LineNum, &f.Column, &name, &value, &f.Message); err != nil {
			return nil, fmt.Errorf("failed to scan failure: %w", err)
		}
		f.Feed = models.Feed(feed)
		f.Name = name.String
		f.Value = value.String
		failures = append(failures, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating failure rows: %w", err)
	}
	return failures, nil
}
