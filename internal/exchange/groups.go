package exchange

import (
	"fmt"
	"time"

	"wallet-reconcile-go/internal/models"

	"go.uber.org/zap"
)

// FiatChecker reports whether an asset is a fiat currency
type FiatChecker interface {
	IsFiat(asset string) bool
}

// GroupConfig describes a venue whose app exchanges are reported as two
// independent rows sharing a timestamp and description.
type GroupConfig struct {
	Venue        string
	TypeColumn   string
	ExchangeType string
	NoteColumn   string
}

func Revolut() GroupConfig {
	return GroupConfig{
		Venue:        "revolut",
		TypeColumn:   "Type",
		ExchangeType: "EXCHANGE",
		NoteColumn:   "Description",
	}
}

type GroupMatcher struct {
	cfg  GroupConfig
	fiat FiatChecker
}

type noFiat struct{}

func (noFiat) IsFiat(string) bool { return false }

// NewGroupMatcher builds a matcher. A nil fiat checker treats every asset as crypto.
func NewGroupMatcher(cfg GroupConfig, fiat FiatChecker) *GroupMatcher {
	if fiat == nil {
		fiat = noFiat{}
	}
	return &GroupMatcher{cfg: cfg, fiat: fiat}
}

type GroupResult struct {
	Rows      []*models.RawRow
	Trades    int
	Transfers int
	Dropped   int
	Failures  []*models.RawRow
}

// Match turns each deposit/withdrawal pair of an exchange group into one Trade.
// A bad group fails its own rows and matching carries on with the next.
func (m *GroupMatcher) Match(rows []*models.RawRow) (*GroupResult, error) {
	result := &GroupResult{Rows: rows}

	var order []string
	groups := make(map[string][]*models.RawRow)
	for _, row := range rows {
		if !row.Live() || row.Consumed || row.Fields.Get(m.cfg.TypeColumn) != m.cfg.ExchangeType {
			continue
		}
		id := fmt.Sprintf("[%s] %s", row.Timestamp.UTC().Format(time.RFC3339), row.Record.Note)
		if _, ok := groups[id]; !ok {
			order = append(order, id)
		}
		groups[id] = append(groups[id], row)
	}

	for _, id := range order {
		m.matchGroup(id, groups[id], result)
	}

	for _, row := range rows {
		if row.Failure != nil {
			result.Failures = append(result.Failures, row)
		}
	}

	zap.L().Info("Exchange group matching complete",
		zap.String("venue", m.cfg.Venue),
		zap.Int("groups", len(order)),
		zap.Int("trades", result.Trades),
		zap.Int("transfers", result.Transfers),
		zap.Int("dropped", result.Dropped),
		zap.Int("failures", len(result.Failures)))

	return result, nil
}

func (m *GroupMatcher) matchGroup(id string, rows []*models.RawRow, result *GroupResult) {
	if len(rows) == 1 {
		rec := rows[0].Record
		if (rec.Buy != nil && m.fiat.IsFiat(rec.Buy.Asset)) || (rec.Sell != nil && m.fiat.IsFiat(rec.Sell.Asset)) {
			rows[0].Delete()
			result.Dropped++
			return
		}
		m.fail(id, "just one record", rows)
		return
	}
	if len(rows) > 2 {
		m.fail(id, "more than two records", rows)
		return
	}

	deposit, withdrawal := rows[0], rows[1]
	if deposit.Record.Kind == models.KindWithdrawal && withdrawal.Record.Kind == models.KindDeposit {
		deposit, withdrawal = withdrawal, deposit
	}
	if deposit.Record.Kind != models.KindDeposit || withdrawal.Record.Kind != models.KindWithdrawal ||
		deposit.Record.Buy == nil || withdrawal.Record.Sell == nil {
		m.fail(id, "expected one deposit and one withdrawal", rows)
		return
	}

	buy, sell := deposit.Record.Buy, withdrawal.Record.Sell
	for _, row := range rows {
		row.Consumed = true
	}

	if m.fiat.IsFiat(buy.Asset) && m.fiat.IsFiat(sell.Asset) {
		deposit.Delete()
		withdrawal.Delete()
		result.Dropped += 2
		return
	}
	if buy.Asset == sell.Asset {
		result.Transfers++
		return
	}

	rec := deposit.Record
	rec.Kind = models.KindTrade
	s := *sell
	rec.Sell = &s
	if fee := withdrawal.Record.Fee; fee != nil && fee.Quantity.IsPositive() {
		if rec.Fee == nil {
			rec.Fee = &models.Fee{Asset: fee.Asset, Quantity: fee.Quantity}
		} else {
			rec.Fee = &models.Fee{Asset: fee.Asset, Quantity: rec.Fee.Quantity.Add(fee.Quantity)}
		}
	}
	withdrawal.Delete()
	result.Trades++
}

func (m *GroupMatcher) fail(id, reason string, rows []*models.RawRow) {
	zap.L().Warn("Merge failure for exchange group",
		zap.String("venue", m.cfg.Venue),
		zap.String("group", id),
		zap.String("reason", reason))
	for _, row := range rows {
		row.Fail(models.NewUnexpectedContentError(row, m.cfg.NoteColumn))
	}
}
