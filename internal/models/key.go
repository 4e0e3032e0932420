package models

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// WalletAddrLen is the number of address characters kept in a wallet suffix
const WalletAddrLen = 10

var ErrMalformedKey = errors.New("malformed correlation key")

// CorrelationKey identifies the rows of one real-world transaction for one wallet
type CorrelationKey struct {
	Wallet string
	TxId   string
}

func (k CorrelationKey) String() string {
	return k.Wallet + "/" + k.TxId
}

// WalletSuffix normalizes an address into the wallet part of a CorrelationKey
func WalletSuffix(address string) string {
	s := strings.ToLower(strings.TrimSpace(address))
	if len(s) > WalletAddrLen {
		s = s[:WalletAddrLen]
	}
	return s
}

// NewCorrelationKey returns ok=false when txId is empty, so the row stands alone.
func NewCorrelationKey(owner, txId string) (CorrelationKey, bool, error) {
	if txId == "" {
		return CorrelationKey{}, false, nil
	}
	for _, r := range txId {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return CorrelationKey{}, false, fmt.Errorf("%w: tx id %q", ErrMalformedKey, txId)
		}
	}
	return CorrelationKey{Wallet: WalletSuffix(owner), TxId: strings.ToLower(txId)}, true, nil
}
