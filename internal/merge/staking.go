package merge

import (
	"wallet-reconcile-go/internal/models"

	"go.uber.org/zap"
)

const (
	noteEnterStaking = "Enter Staking"
	noteExitStaking  = "Exit Staking"
)

// StakingWallet names the virtual sub-wallet holding staked funds
func StakingWallet(wallet string) string {
	return wallet + ":Staking"
}

// enterStaking mirrors each withdrawal to a staking contract with a deposit on the staking wallet
func (e *Engine) enterStaking(outs []*models.RawRow, primary *models.RawRow) []syntheticRow {
	viaPrimary := e.known.IsStakingContract(e.venue.to(primary))

	var synthetic []syntheticRow
	for _, out := range outs {
		if !viaPrimary && !e.known.IsStakingContract(e.venue.to(out)) {
			continue
		}
		sell := out.Record.Sell
		rec := &models.Record{
			Kind:      models.KindDeposit,
			Timestamp: out.Record.Timestamp,
			Buy:       &models.Leg{Asset: sell.Asset, Quantity: sell.Quantity, Value: sell.Value},
			Wallet:    StakingWallet(out.Record.Wallet),
			Note:      noteEnterStaking,
		}
		synthetic = append(synthetic, syntheticRow{source: out, row: out.Derive(rec)})

		zap.L().Debug("Enter staking",
			zap.String("asset", sell.Asset),
			zap.String("quantity", sell.Quantity.String()),
			zap.String("wallet", rec.Wallet))
	}
	return synthetic
}

// exitStaking mirrors each deposit from a staking contract with a withdrawal from the staking wallet
func (e *Engine) exitStaking(ins []*models.RawRow, primary *models.RawRow) []syntheticRow {
	viaPrimary := e.known.IsStakingContract(e.venue.to(primary))

	var synthetic []syntheticRow
	for _, in := range ins {
		if !viaPrimary && !e.known.IsStakingContract(e.venue.from(in)) {
			continue
		}
		buy := in.Record.Buy
		rec := &models.Record{
			Kind:      models.KindWithdrawal,
			Timestamp: in.Record.Timestamp,
			Sell:      &models.Leg{Asset: buy.Asset, Quantity: buy.Quantity, Value: buy.Value},
			Wallet:    StakingWallet(in.Record.Wallet),
			Note:      noteExitStaking,
		}
		synthetic = append(synthetic, syntheticRow{source: in, row: in.Derive(rec)})

		zap.L().Debug("Exit staking",
			zap.String("asset", buy.Asset),
			zap.String("quantity", buy.Quantity.String()),
			zap.String("wallet", rec.Wallet))
	}
	return synthetic
}
