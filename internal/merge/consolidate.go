package merge

import (
	"wallet-reconcile-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// movement returns the asset and signed quantity a transfer-like record moves
func movement(r *models.Record) (string, decimal.Decimal, bool) {
	switch r.Kind {
	case models.KindDeposit:
		if r.Buy != nil {
			return r.Buy.Asset, r.Buy.Quantity, true
		}
	case models.KindWithdrawal, models.KindSpend:
		if r.Sell != nil {
			return r.Sell.Asset, r.Sell.Quantity.Neg(), true
		}
	}
	return "", decimal.Zero, false
}

// Consolidate nets same-asset transfer legs from the venue's consolidatable feeds
// into one surviving leg per asset.
func Consolidate(venue Venue, g *Group) {
	var assets []string
	contributors := make(map[string][]*models.RawRow)

	for _, row := range g.Rows {
		if !row.Live() || !venue.Consolidate[row.Feed] {
			continue
		}
		asset, _, ok := movement(row.Record)
		if !ok {
			continue
		}
		if _, seen := contributors[asset]; !seen {
			assets = append(assets, asset)
		}
		contributors[asset] = append(contributors[asset], row)
	}

	for _, asset := range assets {
		rows := contributors[asset]
		if len(rows) < 2 {
			continue
		}
		netLegs(g, asset, rows)
	}
}

func netLegs(g *Group, asset string, rows []*models.RawRow) {
	net := decimal.Zero
	survivor := rows[0]
	for _, row := range rows {
		_, qty, _ := movement(row.Record)
		net = net.Add(qty)
		if row.Record.HasFee() && !survivor.Record.HasFee() {
			survivor = row
		}
	}

	for _, row := range rows {
		if row != survivor {
			row.Delete()
		}
	}

	rec := survivor.Record
	rec.Buy, rec.Sell = nil, nil
	switch {
	case net.IsPositive():
		rec.Kind = models.KindDeposit
		rec.Buy = models.NewLeg(asset, net)
	case net.IsNegative():
		rec.Kind = models.KindWithdrawal
		rec.Sell = models.NewLeg(asset, net.Neg())
	case rec.HasFee():
		rec.Kind = models.KindSpend
		rec.Sell = models.NewLeg(asset, decimal.Zero)
	default:
		survivor.Delete()
	}

	zap.L().Debug("Consolidated legs",
		zap.String("key", g.Key.String()),
		zap.String("asset", asset),
		zap.Int("legs", len(rows)),
		zap.String("net", net.String()))
}
