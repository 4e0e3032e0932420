package merge

import (
	"fmt"

	"wallet-reconcile-go/internal/allocation"
	"wallet-reconcile-go/internal/models"

	"go.uber.org/zap"
)

// splitFee moves the fee of feeRow evenly onto every other live leg of the group.
// Without other legs the fee stays where it is.
func (e *Engine) splitFee(g *Group, feeRow *models.RawRow, note string) error {
	if feeRow == nil || !feeRow.Live() {
		return nil
	}

	var targets []*models.RawRow
	for _, row := range g.Live() {
		if row != feeRow {
			targets = append(targets, row)
		}
	}
	if len(targets) == 0 {
		return nil
	}

	fee := *feeRow.Record.Fee
	shares, err := allocation.Split(fee.Quantity, len(targets))
	if err != nil {
		return fmt.Errorf("split fee %s: %w", fee.Asset, err)
	}

	for i, row := range targets {
		row.Record.Fee = &models.Fee{Asset: fee.Asset, Quantity: shares[i]}
		if !e.venue.KeepLegNotes || row.Record.Note == "" {
			row.Record.Note = note
		}
	}

	if feeRow.Record.Kind == models.KindSpend {
		feeRow.Delete()
	} else {
		feeRow.Record.Fee = nil
	}

	zap.L().Debug("Split fees",
		zap.String("key", g.Key.String()),
		zap.String("fee_asset", fee.Asset),
		zap.String("fee_quantity", fee.Quantity.String()),
		zap.Int("legs", len(targets)))
	return nil
}
