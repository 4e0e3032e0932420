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
package database

import (
	"context"
	"database/sql"
	"fmt"

	"wallet-reconcile-go/internal/models"
	"wallet-reconcile-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Compile-time check: *Service must satisfy store.ReportStore.
var _ store.ReportStore = (*Service)(nil)

type Service struct {
	db *sql.DB
}

func NewService(ctx context.Context, cfg models.DatabaseConfig) (*Service, error) {
	// Validate configuration
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns < 0 {
		return nil, fmt.Errorf("max idle connections cannot be negative, got %d", cfg.MaxIdleConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}

	zap.L().Info("Opening SQLite database", zap.String("file", cfg.Path))
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000")
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	service := &Service{db: db}
	if err := service.initSchema(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}

	zap.L().Info("Database service initialized successfully")
	return service, nil
}

func (s *Service) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close database connection", zap.Error(err))
	}
}

func (s *Service) initSchema(ctx context.Context) error {
	schema := `
	-- One row per reconciliation pass
	CREATE TABLE IF NOT EXISTS audit_runs (
		id TEXT PRIMARY KEY,
		venue TEXT NOT NULL,
		passed BOOLEAN NOT NULL,
		record_count INTEGER NOT NULL DEFAULT 0,
		failure_count INTEGER NOT NULL DEFAULT 0,
		warning_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audit_runs_created_at ON audit_runs(created_at);

	-- Final balances, decimals kept as text to preserve precision
	CREATE TABLE IF NOT EXISTS audit_balances (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL REFERENCES audit_runs(id) ON DELETE CASCADE,
		wallet TEXT NOT NULL,
		asset TEXT NOT NULL,
		balance TEXT NOT NULL,
		UNIQUE(run_id, wallet, asset)
	);

	CREATE INDEX IF NOT EXISTS idx_audit_balances_run_id ON audit_balances(run_id);

	CREATE TABLE IF NOT EXISTS audit_discrepancies (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL REFERENCES audit_runs(id) ON DELETE CASCADE,
		asset TEXT NOT NULL,
		audit_balance TEXT NOT NULL,
		pool_balance TEXT,
		UNIQUE(run_id, asset)
	);

	CREATE INDEX IF NOT EXISTS idx_audit_discrepancies_run_id ON audit_discrepancies(run_id);

	CREATE TABLE IF NOT EXISTS row_failures (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL REFERENCES audit_runs(id) ON DELETE CASCADE,
		row_id TEXT NOT NULL,
		feed TEXT NOT NULL,
		line_num INTEGER NOT NULL,
		column_index INTEGER NOT NULL DEFAULT -1,
		column_name TEXT,
		value TEXT,
		message TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_row_failures_run_id ON row_failures(run_id);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}
