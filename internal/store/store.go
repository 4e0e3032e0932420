package store

import (
	"context"
	"errors"

	"wallet-reconcile-go/internal/models"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrDuplicateRun    = errors.New("duplicate audit run")
	ErrRunNotFound     = errors.New("audit run not found")
	ErrDuplicateRecord = errors.New("duplicate record")
)

// SaveRunParams carries everything a single reconciliation pass produced.
type SaveRunParams struct {
	Run           models.AuditRun
	Balances      []models.WalletBalance
	Discrepancies []models.Discrepancy
	Failures      []models.RowFailure
}

// ExportRecord is one finalized record ready to be posted to an external ledger.
// Reference must be stable across reruns so posting stays idempotent.
type ExportRecord struct {
	Reference string
	Record    *models.Record
}

// ReportStore persists audit runs and their outcome.
type ReportStore interface {
	SaveRun(ctx context.Context, params SaveRunParams) error
	GetRun(ctx context.Context, runId string) (*models.AuditRun, error)
	ListRuns(ctx context.Context, limit, offset int) ([]models.AuditRun, error)
	GetRunBalances(ctx context.Context, runId string) ([]models.WalletBalance, error)
	GetRunDiscrepancies(ctx context.Context, runId string) ([]models.Discrepancy, error)
	GetRunFailures(ctx context.Context, runId string) ([]models.RowFailure, error)

	Close()
}

// RecordSink receives finalized records, e.g. a double-entry ledger backend.
type RecordSink interface {
	// ExportRecords posts records and returns how many were newly written.
	// Records already present under the same reference are skipped.
	ExportRecords(ctx context.Context, records []ExportRecord) (int, error)
}
