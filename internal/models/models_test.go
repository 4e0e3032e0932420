package models

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestWalletSuffix(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"0xABCDEF0123456789", "0xabcdef01"},
		{"  0xAbC  ", "0xabc"},
		{"0x12345678", "0x12345678"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := WalletSuffix(tt.input); got != tt.want {
			t.Errorf("WalletSuffix(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNewCorrelationKey(t *testing.T) {
	key, ok, err := NewCorrelationKey("0xABCDEF0123456789", "0xDEAD")
	if err != nil || !ok {
		t.Fatalf("Expected usable key, got ok=%v err=%v", ok, err)
	}
	if key.Wallet != "0xabcdef01" || key.TxId != "0xdead" {
		t.Errorf("Unexpected key %s", key)
	}

	_, ok, err = NewCorrelationKey("0xabc", "")
	if err != nil || ok {
		t.Errorf("Expected empty tx id to yield no key, got ok=%v err=%v", ok, err)
	}

	_, _, err = NewCorrelationKey("0xabc", "0xde ad")
	if !errors.Is(err, ErrMalformedKey) {
		t.Errorf("Expected ErrMalformedKey, got %v", err)
	}
}

func TestRecordValidate(t *testing.T) {
	one := decimal.NewFromInt(1)
	tests := []struct {
		name    string
		record  Record
		wantErr error
	}{
		{"deposit", Record{Kind: KindDeposit, Buy: NewLeg("ETH", one)}, nil},
		{"no legs", Record{Kind: KindDeposit}, ErrNoLegs},
		{"trade missing sell", Record{Kind: KindTrade, Buy: NewLeg("ETH", one)}, ErrTradeMissingLeg},
		{"deposit without buy", Record{Kind: KindDeposit, Sell: NewLeg("ETH", one)}, ErrKindMissingLeg},
		{"withdrawal without sell", Record{Kind: KindWithdrawal, Buy: NewLeg("ETH", one)}, ErrKindMissingLeg},
		{"negative", Record{Kind: KindWithdrawal, Sell: NewLeg("ETH", one.Neg())}, ErrNegativeAmount},
		{"unknown kind", Record{Kind: "Loan", Buy: NewLeg("ETH", one)}, ErrUnknownKind},
	}
	for _, tt := range tests {
		err := tt.record.Validate()
		if tt.wantErr == nil && err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
		}
		if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.wantErr, err)
		}
	}
}

func TestRecordCloneIsDeep(t *testing.T) {
	orig := &Record{
		Kind: KindTrade,
		Buy:  NewLeg("ETH", decimal.NewFromInt(1)),
		Sell: NewLeg("USDC", decimal.NewFromInt(2000)),
		Fee:  &Fee{Asset: "ETH", Quantity: decimal.RequireFromString("0.01")},
	}
	clone := orig.Clone()
	clone.Buy.Quantity = decimal.NewFromInt(5)
	clone.Fee = nil

	if !orig.Buy.Quantity.Equal(decimal.NewFromInt(1)) {
		t.Errorf("Expected original buy untouched, got %s", orig.Buy.Quantity)
	}
	if orig.Fee == nil {
		t.Error("Expected original fee untouched")
	}
}

func TestFieldsAccessors(t *testing.T) {
	header := []string{"Txhash", "From", "To"}
	values := []string{"0x1", "0xa", "0xb"}
	f := NewFields(header, values)
	values[0] = "changed"

	if f.Get("Txhash") != "0x1" {
		t.Errorf("Expected fields to be copied, got %s", f.Get("Txhash"))
	}
	if f.Index("To") != 2 {
		t.Errorf("Expected index 2, got %d", f.Index("To"))
	}
	if _, err := f.Lookup("Value"); !errors.Is(err, ErrMissingColumn) {
		t.Errorf("Expected ErrMissingColumn, got %v", err)
	}

	data, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var back Fields
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if back.Get("From") != "0xa" || back.Len() != 3 {
		t.Errorf("Unexpected fields after decode: %v", back.Header())
	}
}

func TestRowFailureFromUnexpectedContent(t *testing.T) {
	row := NewRawRow(FeedTokens, "0xabc", 4, NewFields([]string{"Txhash"}, []string{"0xfeed"}), nil)
	row.Fail(NewUnexpectedContentError(row, "Txhash"))

	f := NewRowFailure(row)
	if f.Column != 0 || f.Name != "Txhash" || f.Value != "0xfeed" || f.Feed != FeedTokens {
		t.Errorf("Unexpected failure %+v", f)
	}
	if f.Message == "" {
		t.Error("Expected failure message")
	}
}

func TestDeriveMarksSynthetic(t *testing.T) {
	row := NewRawRow(FeedTxns, "0xabc", 1, Fields{}, &Record{Kind: KindDeposit, Timestamp: time.Unix(0, 0)})
	derived := row.Derive(&Record{Kind: KindWithdrawal})
	if !derived.Synthetic || derived.Id == row.Id {
		t.Errorf("Expected a new synthetic row, got %+v", derived)
	}
}

func TestKnownAddressesLookups(t *testing.T) {
	k := NewKnownAddresses(
		map[string][]string{"0xPOOL": {"0xRWD"}, "0xEMPTY": {}},
		map[string][]string{"0xDROP": {"0xTOKEN"}},
	)
	if !k.IsStakingReward("0xpool", "0xrwd") {
		t.Error("Expected staking reward match ignoring case")
	}
	if k.IsStakingReward("0xempty", "0xrwd") {
		t.Error("Expected no reward for pool without reward tokens")
	}
	if !k.IsStakingContract("0xEmpty") {
		t.Error("Expected pool without reward tokens to still be a staking contract")
	}
	if !k.IsAirdrop("0xdrop", "0xtoken") || k.IsAirdrop("0xpool", "0xrwd") {
		t.Error("Unexpected airdrop lookup result")
	}

	var none *KnownAddresses
	if none.IsAirdrop("0xdrop", "0xtoken") {
		t.Error("Expected nil table to match nothing")
	}
}

func TestRunContext(t *testing.T) {
	ctx := WithRunContext(context.Background(), &RunContext{RunId: "run-1"})
	if rc := GetRunContext(ctx); rc == nil || rc.RunId != "run-1" {
		t.Errorf("Expected run-1, got %+v", rc)
	}
	if GetRunContext(context.Background()) != nil {
		t.Error("Expected nil run context")
	}
}
