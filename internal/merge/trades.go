package merge

import (
	"fmt"

	"wallet-reconcile-go/internal/allocation"
	"wallet-reconcile-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// multiSell spreads the single buy across every sell leg, turning each into a Trade
func (e *Engine) multiSell(c *classified, note string) error {
	in := c.ins[0]
	buy := *in.Record.Buy

	c.outs = dropEmpty(c.outs, c.fee, func(r *models.Record) *models.Leg { return r.Sell })
	if len(c.outs) == 0 {
		return nil
	}

	shares, err := e.shares(buy.Quantity, c.outs, func(r *models.Record) *models.Leg { return r.Sell })
	if err != nil {
		return fmt.Errorf("split buy %s: %w", buy.Asset, err)
	}

	zap.L().Debug("Trade sell(s)",
		zap.String("buy_asset", buy.Asset),
		zap.String("buy_quantity", buy.Quantity.String()),
		zap.Int("legs", len(c.outs)))

	for i, out := range c.outs {
		out.Record.Kind = models.KindTrade
		out.Record.Buy = models.NewLeg(buy.Asset, shares[i])
		out.Record.Note = note
	}

	if in == c.fee {
		in.Record.Kind = models.KindSpend
		in.Record.Buy = nil
		in.Record.Sell = models.NewLeg(buy.Asset, decimal.Zero)
	} else {
		in.Delete()
	}
	return nil
}

// multiBuy spreads the single sell across every buy leg, turning each into a Trade
func (e *Engine) multiBuy(c *classified, note string) error {
	out := c.outs[0]
	sell := *out.Record.Sell

	c.ins = dropEmpty(c.ins, c.fee, func(r *models.Record) *models.Leg { return r.Buy })
	if len(c.ins) == 0 {
		return nil
	}

	shares, err := e.shares(sell.Quantity, c.ins, func(r *models.Record) *models.Leg { return r.Buy })
	if err != nil {
		return fmt.Errorf("split sell %s: %w", sell.Asset, err)
	}

	zap.L().Debug("Trade buy(s)",
		zap.String("sell_asset", sell.Asset),
		zap.String("sell_quantity", sell.Quantity.String()),
		zap.Int("legs", len(c.ins)))

	for i, in := range c.ins {
		in.Record.Kind = models.KindTrade
		in.Record.Sell = models.NewLeg(sell.Asset, shares[i])
		in.Record.Note = note
	}

	if out == c.fee {
		out.Record.Kind = models.KindSpend
		out.Record.Sell = models.NewLeg(sell.Asset, decimal.Zero)
	} else {
		out.Delete()
	}
	return nil
}

// dropEmpty removes legs whose quantity is zero and returns the rest.
// The fee leg is kept as a zero Spend so its fee can still be split.
func dropEmpty(rows []*models.RawRow, feeRow *models.RawRow, leg func(*models.Record) *models.Leg) []*models.RawRow {
	var kept []*models.RawRow
	for _, row := range rows {
		if l := leg(row.Record); l == nil || l.Quantity.IsZero() {
			if row == feeRow && l != nil {
				asset := l.Asset
				row.Record.Kind = models.KindSpend
				row.Record.Buy = nil
				row.Record.Sell = models.NewLeg(asset, decimal.Zero)
				continue
			}
			row.Delete()
			continue
		}
		kept = append(kept, row)
	}
	return kept
}

func (e *Engine) shares(total decimal.Decimal, rows []*models.RawRow, leg func(*models.Record) *models.Leg) ([]decimal.Decimal, error) {
	if e.venue.Split == SplitProportional {
		weights := make([]decimal.Decimal, len(rows))
		for i, row := range rows {
			weights[i] = leg(row.Record).Quantity
		}
		return allocation.SplitWeighted(total, weights)
	}
	return allocation.Split(total, len(rows))
}
