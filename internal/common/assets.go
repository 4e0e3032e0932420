package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"wallet-reconcile-go/internal/models"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

// KnownAddressesConfig is the YAML shape of the staking and airdrop tables.
// Each entry maps a pool or sender address to the token contracts it pays out.
type KnownAddressesConfig struct {
	Staking  map[string][]string `yaml:"staking"`
	Airdrops map[string][]string `yaml:"airdrops"`
}

// AuditConfig lists the assets the audit treats specially
type AuditConfig struct {
	RebaseAssets []string `yaml:"rebase_assets"`
	Fiat         []string `yaml:"fiat"`
}

type HoldingsConfig struct {
	Holdings map[string]string `yaml:"holdings"`
}

// FiatList reports fiat assets. An empty list falls back to the ISO 4217 table.
type FiatList struct {
	codes map[string]bool
}

func NewFiatList(codes []string) *FiatList {
	f := &FiatList{codes: make(map[string]bool, len(codes))}
	for _, c := range codes {
		f.codes[strings.ToUpper(strings.TrimSpace(c))] = true
	}
	return f
}

func (f *FiatList) IsFiat(asset string) bool {
	code := strings.ToUpper(asset)
	if f != nil && len(f.codes) > 0 {
		return f.codes[code]
	}
	return money.GetCurrency(code) != nil
}

func readConfigFile(file string) ([]byte, error) {
	var path string
	if filepath.IsAbs(file) {
		path = file
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		path = filepath.Join(wd, file)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", file, err)
	}
	return data, nil
}

func LoadKnownAddresses(file string) (*models.KnownAddresses, error) {
	data, err := readConfigFile(file)
	if err != nil {
		return nil, err
	}

	var config KnownAddressesConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", file, err)
	}

	for pool, contracts := range config.Staking {
		for i, c := range contracts {
			if strings.TrimSpace(c) == "" {
				return nil, fmt.Errorf("staking contract %d for %s is empty", i, pool)
			}
		}
	}
	for sender, contracts := range config.Airdrops {
		if len(contracts) == 0 {
			return nil, fmt.Errorf("airdrop sender %s lists no contracts", sender)
		}
		for i, c := range contracts {
			if strings.TrimSpace(c) == "" {
				return nil, fmt.Errorf("airdrop contract %d for %s is empty", i, sender)
			}
		}
	}

	return models.NewKnownAddresses(config.Staking, config.Airdrops), nil
}

func LoadAuditConfig(file string) (*AuditConfig, error) {
	data, err := readConfigFile(file)
	if err != nil {
		return nil, err
	}

	var config AuditConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", file, err)
	}

	for i, asset := range config.RebaseAssets {
		if asset == "" {
			return nil, fmt.Errorf("rebase asset at index %d is empty", i)
		}
	}
	return &config, nil
}

// LoadHoldings reads the externally computed pool of holdings per asset.
// Quantities are kept as strings in the file so no precision is lost.
func LoadHoldings(file string) (map[string]decimal.Decimal, error) {
	data, err := readConfigFile(file)
	if err != nil {
		return nil, err
	}

	var config HoldingsConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", file, err)
	}

	holdings := make(map[string]decimal.Decimal, len(config.Holdings))
	for asset, raw := range config.Holdings {
		qty, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid quantity %q for %s: %w", raw, asset, err)
		}
		holdings[asset] = qty
	}
	return holdings, nil
}
