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
	"fmt"

	"wallet-reconcile-go/internal/models"

	"go.uber.org/zap"
)

// RunReport is a stored run with everything it recorded
type RunReport struct {
	Run           *models.AuditRun
	Balances      []models.WalletBalance
	Discrepancies []models.Discrepancy
	Failures      []models.RowFailure
}

// ListRuns returns stored runs newest first
func (s *ReconcileService) ListRuns(ctx context.Context, limit, offset int) ([]models.AuditRun, error) {
	if s.store == nil {
		return nil, fmt.Errorf("no report store configured")
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	runs, err := s.store.ListRuns(ctx, limit, offset)
	if err != nil {
		zap.L().Error("Failed to list runs", zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve runs: %w", err)
	}
	return runs, nil
}

// GetRunReport loads a stored run with its balances, discrepancies and failures
func (s *ReconcileService) GetRunReport(ctx context.Context, runId string) (*RunReport, error) {
	if s.store == nil {
		return nil, fmt.Errorf("no report store configured")
	}
	if runId == "" {
		return nil, fmt.Errorf("run_id is required")
	}

	run, err := s.store.GetRun(ctx, runId)
	if err != nil {
		return nil, err
	}

	balances, err := s.store.GetRunBalances(ctx, runId)
	if err != nil {
		zap.L().Error("Failed to get run balances", zap.String("run_id", runId), zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve balances: %w", err)
	}

	discrepancies, err := s.store.GetRunDiscrepancies(ctx, runId)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve discrepancies: %w", err)
	}

	failures, err := s.store.GetRunFailures(ctx, runId)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve failures: %w", err)
	}

	return &RunReport{
		Run:           run,
		Balances:      balances,
		Discrepancies: discrepancies,
		Failures:      failures,
	}, nil
}
