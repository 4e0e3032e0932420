package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// AuditRun is one stored reconciliation pass
type AuditRun struct {
	Id           string    `db:"id"`
	Venue        string    `db:"venue"`
	Passed       bool      `db:"passed"`
	RecordCount  int       `db:"record_count"`
	FailureCount int       `db:"failure_count"`
	WarningCount int       `db:"warning_count"`
	CreatedAt    time.Time `db:"created_at"`
}

// WalletBalance is the final audited balance of one asset in one wallet
type WalletBalance struct {
	Wallet  string          `db:"wallet"`
	Asset   string          `db:"asset"`
	Balance decimal.Decimal `db:"balance"`
}

// Discrepancy is a pool comparison failure for one asset.
// Pool is nil when the holdings pool has no entry for the asset.
type Discrepancy struct {
	Asset string           `db:"asset"`
	Audit decimal.Decimal  `db:"audit_balance"`
	Pool  *decimal.Decimal `db:"pool_balance"`
}

func (d Discrepancy) Missing() bool { return d.Pool == nil }

// Difference is the audited total minus the pool quantity
func (d Discrepancy) Difference() decimal.Decimal {
	if d.Pool == nil {
		return d.Audit
	}
	return d.Audit.Sub(*d.Pool)
}

// BalanceWarning records a non-fiat balance that went negative during replay
type BalanceWarning struct {
	Wallet    string
	Asset     string
	Balance   decimal.Decimal
	Timestamp time.Time
}

// RowFailure is the stored form of a row that could not be reconciled
type RowFailure struct {
	RowId   string `db:"row_id" json:"row_id"`
	Feed    Feed   `db:"feed" json:"feed"`
	LineNum int    `db:"line_num" json:"line_num"`
	Column  int    `db:"column_index" json:"column"`
	Name    string `db:"column_name" json:"name,omitempty"`
	Value   string `db:"value" json:"value,omitempty"`
	Message string `db:"message" json:"message"`
}

// NewRowFailure flattens the failure attached to row
func NewRowFailure(row *RawRow) RowFailure {
	f := RowFailure{RowId: row.Id, Feed: row.Feed, LineNum: row.LineNum, Column: -1}
	if row.Failure == nil {
		return f
	}
	f.Message = row.Failure.Error()
	var uce *UnexpectedContentError
	if errors.As(row.Failure, &uce) {
		f.Column = uce.Column
		f.Name = uce.Name
		f.Value = uce.Value
	}
	return f
}
