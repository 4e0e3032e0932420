package formance

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"wallet-reconcile-go/internal/models"
	"wallet-reconcile-go/internal/store"

	v3 "github.com/formancehq/formance-sdk-go/v3"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/sdkerrors"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"go.uber.org/zap"
)

// Compile-time check: *Service must satisfy store.RecordSink.
var _ store.RecordSink = (*Service)(nil)

const defaultPrecision = 18

// assetPrecision maps asset symbols to the decimal precision used on the ledger.
var assetPrecision = map[string]int{
	"GBP":  2,
	"USD":  2,
	"EUR":  2,
	"USDC": 6,
	"USDT": 6,
	"BTC":  8,
	"ETH":  18,
	"SOL":  9,
}

// Service posts finalized records to a Formance Stack ledger.
type Service struct {
	client *v3.Formance
	ledger string
}

// NewService connects to the stack and creates the ledger if it doesn't already exist.
func NewService(ctx context.Context, cfg models.FormanceConfig) (*Service, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("formance config requires StackURL, ClientID, and ClientSecret")
	}
	if cfg.LedgerName == "" {
		cfg.LedgerName = "wallet-reconcile"
	}

	zap.L().Info("Connecting to Formance Stack",
		zap.String("stack_url", cfg.StackURL),
		zap.String("ledger", cfg.LedgerName))

	client := v3.New(
		v3.WithServerURL(cfg.StackURL),
		v3.WithSecurity(shared.Security{
			ClientID:     v3.Pointer(cfg.ClientID),
			ClientSecret: v3.Pointer(cfg.ClientSecret),
		}),
	)

	svc := &Service{client: client, ledger: cfg.LedgerName}

	if err := svc.ensureLedger(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure ledger exists: %w", err)
	}

	zap.L().Info("Formance service initialized", zap.String("ledger", cfg.LedgerName))
	return svc, nil
}

func (s *Service) ensureLedger(ctx context.Context) error {
	_, err := s.client.Ledger.V2.CreateLedger(ctx, operations.V2CreateLedgerRequest{
		Ledger: s.ledger,
		V2CreateLedgerRequest: shared.V2CreateLedgerRequest{
			Metadata: map[string]string{
				"application": "wallet-reconcile",
			},
		},
	})
	if err != nil {
		var apiErr *sdkerrors.V2ErrorResponse
		if errors.As(err, &apiErr) && apiErr.ErrorCode == shared.V2ErrorsEnumLedgerAlreadyExists {
			zap.L().Info("Ledger already exists", zap.String("ledger", s.ledger))
			return nil
		}
		return err
	}
	zap.L().Info("Ledger created", zap.String("ledger", s.ledger))
	return nil
}

// Close is a no-op (HTTP client needs no teardown).
func (s *Service) Close() {}

// ---------- helpers ----------

// ledgerSymbol upper-cases an asset and drops characters the ledger rejects.
// Symbols must start with a letter.
func ledgerSymbol(asset string) string {
	var b strings.Builder
	for _, c := range strings.ToUpper(asset) {
		if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			b.WriteRune(c)
		}
	}
	sym := b.String()
	if sym == "" || sym[0] < 'A' || sym[0] > 'Z' {
		sym = "X" + sym
	}
	if len(sym) > 17 {
		sym = sym[:17]
	}
	return sym
}

// formanceAsset returns the Formance UMN notation, e.g. "USDC/6".
func formanceAsset(asset string) string {
	sym := ledgerSymbol(asset)
	return fmt.Sprintf("%s/%d", sym, precisionFor(sym))
}

func precisionFor(symbol string) int {
	if p, ok := assetPrecision[symbol]; ok {
		return p
	}
	return defaultPrecision
}

// walletAccount maps a wallet name to a ledger account under wallets:.
// Colons in the name become segment separators.
func walletAccount(wallet string) string {
	parts := strings.Split(strings.ToLower(wallet), ":")
	segs := make([]string, 0, len(parts)+1)
	segs = append(segs, "wallets")
	for _, p := range parts {
		seg := strings.Map(func(c rune) rune {
			if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' || c == '-' {
				return c
			}
			return '_'
		}, strings.TrimSpace(p))
		if seg == "" {
			seg = "_"
		}
		segs = append(segs, seg)
	}
	return strings.Join(segs, ":")
}

// isConflictError checks whether a Formance SDK error is a CONFLICT (duplicate reference).
func isConflictError(err error) bool {
	var apiErr *sdkerrors.V2ErrorResponse
	return errors.As(err, &apiErr) && apiErr.ErrorCode == shared.V2ErrorsEnumConflict
}

func strPtr(s string) *string { return &s }
