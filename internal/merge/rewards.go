package merge

import (
	"wallet-reconcile-go/internal/models"

	"go.uber.org/zap"
)

const noteStakingRewards = "Staking Rewards"

// reclassifyRewards turns matching deposits into Staking or Airdrop events and
// returns the deposits left for trade classification. Staking is checked first.
func (e *Engine) reclassifyRewards(ins []*models.RawRow, primary *models.RawRow) []*models.RawRow {
	recipient := ""
	if e.venue.RewardMatch == MatchSenderOrRecipient && primary != nil {
		recipient = e.venue.to(primary)
	}

	var remaining []*models.RawRow
	for _, in := range ins {
		sender := e.venue.from(in)
		contract := e.venue.contract(in)

		switch {
		case e.known.IsStakingReward(sender, contract) || e.known.IsStakingReward(recipient, contract):
			in.Record.Kind = models.KindStaking
			in.Record.Note = noteStakingRewards
			zap.L().Debug("Staking reward",
				zap.String("asset", in.Record.Buy.Asset),
				zap.String("quantity", in.Record.Buy.Quantity.String()))
		case e.known.IsAirdrop(sender, contract) || e.known.IsAirdrop(recipient, contract):
			in.Record.Kind = models.KindAirdrop
			zap.L().Debug("Airdrop",
				zap.String("asset", in.Record.Buy.Asset),
				zap.String("quantity", in.Record.Buy.Quantity.String()))
		default:
			remaining = append(remaining, in)
		}
	}
	return remaining
}
