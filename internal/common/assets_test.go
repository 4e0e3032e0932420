package common

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadKnownAddresses(t *testing.T) {
	path := writeFile(t, "known.yaml", `
staking:
  "0x00000000219AB540356cBB839Cbe05303d7705Fa": []
  "0xPool":
    - "0xRewardToken"
airdrops:
  "0x090D4613473dEE047c3f2706764f49E0821D256e":
    - "0x1f9840a85d5aF5bf1D1762F925BDADdC4201F984"
`)

	known, err := LoadKnownAddresses(path)
	if err != nil {
		t.Fatalf("LoadKnownAddresses failed: %v", err)
	}
	if !known.IsStakingContract("0x00000000219ab540356cbb839cbe05303d7705fa") {
		t.Error("Expected staking contract match regardless of case")
	}
	if !known.IsStakingReward("0xpool", "0xrewardtoken") {
		t.Error("Expected staking reward match")
	}
	if !known.IsAirdrop("0x090d4613473dee047c3f2706764f49e0821d256e", "0x1f9840a85d5af5bf1d1762f925bdaddc4201f984") {
		t.Error("Expected airdrop match")
	}
	if known.IsAirdrop("0x090d4613473dee047c3f2706764f49e0821d256e", "0xrewardtoken") {
		t.Error("Expected airdrop to match only listed contracts")
	}
}

func TestLoadKnownAddresses_EmptyEntry(t *testing.T) {
	path := writeFile(t, "known.yaml", "staking:\n  \"0xpool\":\n    - \"\"\n")
	if _, err := LoadKnownAddresses(path); err == nil {
		t.Fatal("Expected error for empty address")
	}
}

func TestLoadKnownAddresses_MissingFile(t *testing.T) {
	_, err := LoadKnownAddresses(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Expected not-exist error, got %v", err)
	}
}

func TestLoadAuditConfig(t *testing.T) {
	path := writeFile(t, "audit.yaml", "rebase_assets: [AMPL]\nfiat: [GBP, EUR]\n")

	cfg, err := LoadAuditConfig(path)
	if err != nil {
		t.Fatalf("LoadAuditConfig failed: %v", err)
	}
	if len(cfg.RebaseAssets) != 1 || cfg.RebaseAssets[0] != "AMPL" {
		t.Errorf("Unexpected rebase assets %v", cfg.RebaseAssets)
	}
	if len(cfg.Fiat) != 2 {
		t.Errorf("Expected 2 fiat codes, got %v", cfg.Fiat)
	}
}

func TestLoadHoldings(t *testing.T) {
	path := writeFile(t, "holdings.yaml", `
holdings:
  UNI: 50
  ETH: "1.000000000000000001"
`)

	holdings, err := LoadHoldings(path)
	if err != nil {
		t.Fatalf("LoadHoldings failed: %v", err)
	}
	if !holdings["UNI"].Equal(decimal.NewFromInt(50)) {
		t.Errorf("Expected UNI 50, got %s", holdings["UNI"])
	}
	if holdings["ETH"].String() != "1.000000000000000001" {
		t.Errorf("Expected full precision ETH, got %s", holdings["ETH"])
	}
}

func TestLoadHoldings_Invalid(t *testing.T) {
	path := writeFile(t, "holdings.yaml", "holdings:\n  UNI: lots\n")
	if _, err := LoadHoldings(path); err == nil {
		t.Fatal("Expected error for invalid quantity")
	}
}

func TestFiatList(t *testing.T) {
	tests := []struct {
		name  string
		codes []string
		asset string
		want  bool
	}{
		{"configured", []string{"gbp"}, "GBP", true},
		{"configured excludes others", []string{"GBP"}, "USD", false},
		{"iso fallback", nil, "EUR", true},
		{"iso fallback lower case", nil, "gbp", true},
		{"crypto", nil, "UNI", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewFiatList(tt.codes).IsFiat(tt.asset); got != tt.want {
				t.Errorf("Expected IsFiat(%s)=%v, got %v", tt.asset, tt.want, got)
			}
		})
	}
}

func TestIsIgnorableSyncError(t *testing.T) {
	if !isIgnorableSyncError(errors.New("sync /dev/stdout: inappropriate ioctl for device")) {
		t.Error("Expected stdout sync error to be ignorable")
	}
	if isIgnorableSyncError(errors.New("disk full")) {
		t.Error("Expected other errors to be reported")
	}
}
