package formance

import (
	"context"
	"fmt"
	"strings"

	"wallet-reconcile-go/internal/models"
	"wallet-reconcile-go/internal/store"

	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ---------------------------------------------------------------------------
// Numscript fragments. A record becomes one ledger transaction with up to
// three postings: buy from @world, sell to @world and fee to @fees.
// Wallets may go negative, matching the audit replay.
// ---------------------------------------------------------------------------

const numscriptBuy = `
send [$buy_asset $buy_amount] (
  source = @world
  destination = $wallet
)
`

const numscriptSell = `
send [$sell_asset $sell_amount] (
  source = $wallet allowing unbounded overdraft
  destination = @world
)
`

const numscriptFee = `
send [$fee_asset $fee_amount] (
  source = $wallet allowing unbounded overdraft
  destination = @fees
)
`

const numscriptMeta = `
set_tx_meta("kind", $kind)
set_tx_meta("note", $note)
set_tx_meta("run_id", $run_id)
set_tx_meta("venue", $venue)
`

type posting struct {
	prefix string
	asset  string
	qty    decimal.Decimal
	script string
}

// ledgerUnits converts a quantity to the smallest unit of the asset, truncating extra digits
func ledgerUnits(asset string, qty decimal.Decimal) string {
	return qty.Shift(int32(precisionFor(ledgerSymbol(asset)))).BigInt().String()
}

// buildScript renders the Numscript and variables for rec.
// ok is false when every leg rounds to zero units.
func buildScript(rec *models.Record, rc *models.RunContext) (string, map[string]string, bool) {
	var postings []posting
	if rec.Buy != nil {
		postings = append(postings, posting{"buy", rec.Buy.Asset, rec.Buy.Quantity, numscriptBuy})
	}
	if rec.Sell != nil {
		postings = append(postings, posting{"sell", rec.Sell.Asset, rec.Sell.Quantity, numscriptSell})
	}
	if rec.Fee != nil {
		postings = append(postings, posting{"fee", rec.Fee.Asset, rec.Fee.Quantity, numscriptFee})
	}

	vars := map[string]string{
		"wallet": walletAccount(rec.Wallet),
		"kind":   string(rec.Kind),
		"note":   rec.Note,
		"run_id": "",
		"venue":  "",
	}
	if rc != nil {
		vars["run_id"] = rc.RunId
		vars["venue"] = rc.Venue
	}

	var decl, body strings.Builder
	decl.WriteString("vars {\n  account $wallet\n  string $kind\n  string $note\n  string $run_id\n  string $venue\n")
	for _, p := range postings {
		units := ledgerUnits(p.asset, p.qty)
		if units == "0" {
			continue
		}
		fmt.Fprintf(&decl, "  asset $%s_asset\n  number $%s_amount\n", p.prefix, p.prefix)
		vars[p.prefix+"_asset"] = formanceAsset(p.asset)
		vars[p.prefix+"_amount"] = units
		body.WriteString(p.script)
	}
	decl.WriteString("}\n")

	if body.Len() == 0 {
		return "", nil, false
	}
	return decl.String() + body.String() + numscriptMeta, vars, true
}

// ExportRecords posts each record as one ledger transaction keyed by its reference.
// A reference the ledger already holds is treated as already exported.
func (s *Service) ExportRecords(ctx context.Context, records []store.ExportRecord) (int, error) {
	if err := checkReferences(records); err != nil {
		return 0, err
	}

	rc := models.GetRunContext(ctx)
	exported := 0

	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return exported, err
		}

		plain, vars, ok := buildScript(r.Record, rc)
		if !ok {
			zap.L().Debug("Skipping record with no ledger movement", zap.String("reference", r.Reference))
			continue
		}

		postTx := shared.V2PostTransaction{
			Reference: strPtr(r.Reference),
			Script: &shared.V2PostTransactionScript{
				Plain: plain,
				Vars:  vars,
			},
		}
		if !r.Record.Timestamp.IsZero() {
			ts := r.Record.Timestamp
			postTx.Timestamp = &ts
		}

		_, err := s.client.Ledger.V2.CreateTransaction(ctx, operations.V2CreateTransactionRequest{
			Ledger:            s.ledger,
			V2PostTransaction: postTx,
		})
		if err != nil {
			if isConflictError(err) {
				zap.L().Debug("Record already exported", zap.String("reference", r.Reference))
				continue
			}
			return exported, fmt.Errorf("error exporting record %s: %w", r.Reference, err)
		}
		exported++
	}

	zap.L().Info("Records exported to Formance",
		zap.String("ledger", s.ledger),
		zap.Int("exported", exported),
		zap.Int("total", len(records)))
	return exported, nil
}

// checkReferences rejects a batch that reuses a reference; the ledger would keep only the first
func checkReferences(records []store.ExportRecord) error {
	seen := make(map[string]bool, len(records))
	for i, r := range records {
		if r.Reference == "" {
			return fmt.Errorf("record %d has no reference", i)
		}
		if seen[r.Reference] {
			return fmt.Errorf("%w: reference %s", store.ErrDuplicateRecord, r.Reference)
		}
		seen[r.Reference] = true
	}
	return nil
}
