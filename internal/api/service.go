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

	"wallet-reconcile-go/internal/audit"
	"wallet-reconcile-go/internal/models"
	"wallet-reconcile-go/internal/store"
)

// Options holds the reference data and merge switches for a reconciliation pass
type Options struct {
	Known             *models.KnownAddresses
	RebaseAssets      []string
	Fiat              audit.FiatChecker
	ConsolidateTokens bool
	ProportionalSplit bool
}

// ReconcileService runs reconciliation passes and, when configured, stores and exports them
type ReconcileService struct {
	opts  Options
	store store.ReportStore
	sink  store.RecordSink
}

// NewReconcileService builds the service. reports and sink may be nil.
func NewReconcileService(opts Options, reports store.ReportStore, sink store.RecordSink) *ReconcileService {
	return &ReconcileService{
		opts:  opts,
		store: reports,
		sink:  sink,
	}
}

func (s *ReconcileService) HealthCheck(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	_, err := s.store.ListRuns(ctx, 1, 0)
	if err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}
