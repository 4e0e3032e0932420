package formance

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"wallet-reconcile-go/internal/models"

	v3 "github.com/formancehq/formance-sdk-go/v3"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GetWalletBalances returns all non-zero balances the ledger holds for a wallet.
func (s *Service) GetWalletBalances(ctx context.Context, wallet string) ([]models.WalletBalance, error) {
	addr := walletAccount(wallet)
	zap.L().Debug("Getting wallet balances from Formance", zap.String("account", addr))

	vols, err := s.getAccountVolumes(ctx, addr)
	if err != nil {
		return nil, err
	}

	var balances []models.WalletBalance
	for fAsset, vol := range vols {
		bal := volumeBalance(map[string]shared.V2Volume{fAsset: vol}, fAsset)
		if bal == nil || bal.Sign() == 0 {
			continue
		}
		symbol := assetSymbol(fAsset)
		balances = append(balances, models.WalletBalance{
			Wallet:  wallet,
			Asset:   symbol,
			Balance: bigIntToDecimal(bal, fAsset),
		})
	}
	sort.Slice(balances, func(i, j int) bool { return balances[i].Asset < balances[j].Asset })
	return balances, nil
}

// ---------- helpers ----------

// getAccountVolumes fetches volumes for a single account via GetAccount (clean GET).
func (s *Service) getAccountVolumes(ctx context.Context, address string) (map[string]shared.V2Volume, error) {
	resp, err := s.client.Ledger.V2.GetAccount(ctx, operations.V2GetAccountRequest{
		Ledger:  s.ledger,
		Address: address,
		Expand:  v3.Pointer("volumes"),
	})
	if err != nil {
		zap.L().Warn("Failed to get account volumes", zap.String("address", address), zap.Error(err))
		return nil, fmt.Errorf("failed to get account %s: %w", address, err)
	}
	return resp.V2AccountResponse.Data.Volumes, nil
}

// volumeBalance extracts the balance for a specific asset from volumes.
func volumeBalance(vols map[string]shared.V2Volume, fAsset string) *big.Int {
	vol, ok := vols[fAsset]
	if !ok {
		return nil
	}
	if vol.Balance != nil {
		return vol.Balance
	}
	if vol.Input == nil {
		return nil
	}
	result := new(big.Int).Set(vol.Input)
	if vol.Output != nil {
		result.Sub(result, vol.Output)
	}
	return result
}

// bigIntToDecimal converts a *big.Int in smallest-unit to a human-readable decimal.
// The precision comes from the "/N" suffix, falling back to the configured precision.
func bigIntToDecimal(raw *big.Int, fAsset string) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	p := precisionFor(assetSymbol(fAsset))
	if i := strings.IndexByte(fAsset, '/'); i >= 0 {
		if v, err := strconv.Atoi(fAsset[i+1:]); err == nil {
			p = v
		}
	}
	return decimal.NewFromBigInt(raw, -int32(p))
}

// assetSymbol extracts the symbol from a Formance asset like "USDC/6".
func assetSymbol(fAsset string) string {
	for i, c := range fAsset {
		if c == '/' {
			return fAsset[:i]
		}
	}
	return fAsset
}
