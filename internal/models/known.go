package models

import "strings"

// AddressSet is a set of lower-cased contract addresses
type AddressSet map[string]struct{}

func (s AddressSet) Contains(address string) bool {
	_, ok := s[strings.ToLower(address)]
	return ok
}

// KnownAddresses maps staking pools and airdrop senders to the asset contracts they pay out.
// A pool with an empty set is still a staking contract, it just pays no separate reward token.
type KnownAddresses struct {
	Staking  map[string]AddressSet
	Airdrops map[string]AddressSet
}

func NewKnownAddresses(staking, airdrops map[string][]string) *KnownAddresses {
	return &KnownAddresses{
		Staking:  toAddressTable(staking),
		Airdrops: toAddressTable(airdrops),
	}
}

func toAddressTable(in map[string][]string) map[string]AddressSet {
	out := make(map[string]AddressSet, len(in))
	for contract, assets := range in {
		set := make(AddressSet, len(assets))
		for _, a := range assets {
			set[strings.ToLower(strings.TrimSpace(a))] = struct{}{}
		}
		out[strings.ToLower(strings.TrimSpace(contract))] = set
	}
	return out
}

func (k *KnownAddresses) IsStakingContract(address string) bool {
	if k == nil || address == "" {
		return false
	}
	_, ok := k.Staking[strings.ToLower(address)]
	return ok
}

func (k *KnownAddresses) IsStakingReward(counterparty, asset string) bool {
	if k == nil {
		return false
	}
	return lookup(k.Staking, counterparty, asset)
}

func (k *KnownAddresses) IsAirdrop(counterparty, asset string) bool {
	if k == nil {
		return false
	}
	return lookup(k.Airdrops, counterparty, asset)
}

func lookup(table map[string]AddressSet, counterparty, asset string) bool {
	if counterparty == "" || asset == "" {
		return false
	}
	set, ok := table[strings.ToLower(counterparty)]
	return ok && set.Contains(asset)
}
