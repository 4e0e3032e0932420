package audit

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// State is the running balance of every asset per wallet plus the total per asset.
// It belongs to a single replay.
type State struct {
	Wallets map[string]map[string]decimal.Decimal
	Totals  map[string]decimal.Decimal
}

func NewState() *State {
	return &State{
		Wallets: make(map[string]map[string]decimal.Decimal),
		Totals:  make(map[string]decimal.Decimal),
	}
}

func (s *State) Balance(wallet, asset string) decimal.Decimal {
	return s.Wallets[wallet][asset]
}

func (s *State) Total(asset string) decimal.Decimal {
	return s.Totals[asset]
}

// apply adds delta to the wallet and asset total and returns the new wallet balance
func (s *State) apply(wallet, asset string, delta decimal.Decimal) decimal.Decimal {
	assets, ok := s.Wallets[wallet]
	if !ok {
		assets = make(map[string]decimal.Decimal)
		s.Wallets[wallet] = assets
	}
	assets[asset] = assets[asset].Add(delta)
	s.Totals[asset] = s.Totals[asset].Add(delta)
	return assets[asset]
}

// WalletNames returns wallets sorted case-insensitively
func (s *State) WalletNames() []string {
	names := make([]string, 0, len(s.Wallets))
	for w := range s.Wallets {
		names = append(names, w)
	}
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
	return names
}

func (s *State) AssetNames() []string {
	return sortedKeys(s.Totals)
}

func sortedKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
