package database

import (
	"context"
	"database/sql"
	"fmt"

	"wallet-reconcile-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GetRunBalances returns the final wallet balances stored for a run
func (s *Service) GetRunBalances(ctx context.Context, runId string) ([]models.WalletBalance, error) {
	zap.L().Debug("Getting run balances", zap.String("run_id", runId))

	rows, err := s.db.QueryContext(ctx, queryGetRunBalances, runId)
	if err != nil {
		return nil, fmt.Errorf("failed to get balances: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var balances []models.WalletBalance
	for rows.Next() {
		var b models.WalletBalance
		var balanceStr string
		if err := rows.Scan(&b.Wallet, &b.Asset, &balanceStr); err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}
		b.Balance, err = decimal.NewFromString(balanceStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse balance '%s': %w", balanceStr, err)
		}
		balances = append(balances, b)
	}

	if err := rows.Err(); err != nil {
		zap.L().Error("Error during balance row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating balance rows: %w", err)
	}
	return balances, nil
}

// GetRunDiscrepancies returns the pool mismatches stored for a run
func (s *Service) GetRunDiscrepancies(ctx context.Context, runId string) ([]models.Discrepancy, error) {
	rows, err := s.db.QueryContext(ctx, queryGetRunDiscrepancies, runId)
	if err != nil {
		return nil, fmt.Errorf("failed to get discrepancies: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var out []models.Discrepancy
	for rows.Next() {
		var d models.Discrepancy
		var auditStr string
		var poolStr sql.NullString
		if err := rows.Scan(&d.Asset, &auditStr, &poolStr); err != nil {
			return nil, fmt.Errorf("failed to scan discrepancy: %w", err)
		}
		d.Audit, err = decimal.NewFromString(auditStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse audit balance '%s': %w", auditStr, err)
		}
		if poolStr.Valid {
			pool, err := decimal.NewFromString(poolStr.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse pool balance '%s': %w", poolStr.String, err)
			}
			d.Pool = &pool
		}
		out = append(out, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating discrepancy rows: %w", err)
	}
	return out, nil
}
