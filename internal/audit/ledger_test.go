package audit

import (
	"testing"
	"time"

	"wallet-reconcile-go/internal/models"

	"github.com/shopspring/decimal"
)

type fiatSet map[string]bool

func (f fiatSet) IsFiat(asset string) bool { return f[asset] }

var (
	testFiat = fiatSet{"GBP": true}
	ts       = time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func buyRec(wallet, asset, qty string) *models.Record {
	return &models.Record{Kind: models.KindDeposit, Timestamp: ts, Buy: models.NewLeg(asset, d(qty)), Wallet: wallet}
}

func sellRec(wallet, asset, qty string) *models.Record {
	return &models.Record{Kind: models.KindWithdrawal, Timestamp: ts, Sell: models.NewLeg(asset, d(qty)), Wallet: wallet}
}

func TestReplayBalanceLaw(t *testing.T) {
	trade := &models.Record{Kind: models.KindTrade, Timestamp: ts, Wallet: "A",
		Buy:  models.NewLeg("ETH", d("2")),
		Sell: models.NewLeg("GBP", d("3000")),
		Fee:  &models.Fee{Asset: "ETH", Quantity: d("0.01")}}
	records := []*models.Record{
		buyRec("A", "GBP", "5000"),
		trade,
		sellRec("A", "ETH", "0.5"),
		buyRec("B", "ETH", "0.5"),
	}

	report := NewLedger(nil, testFiat).Replay(records)

	tests := []struct {
		wallet, asset, want string
	}{
		{"A", "GBP", "2000"},
		{"A", "ETH", "1.49"},
		{"B", "ETH", "0.5"},
	}
	for _, tt := range tests {
		if got := report.State.Balance(tt.wallet, tt.asset); !got.Equal(d(tt.want)) {
			t.Errorf("Expected %s:%s=%s, got %s", tt.wallet, tt.asset, tt.want, got)
		}
	}
	if !report.State.Total("ETH").Equal(d("1.99")) {
		t.Errorf("Expected ETH total 1.99, got %s", report.State.Total("ETH"))
	}
	if len(report.Warnings) != 0 || len(report.Rebases) != 0 {
		t.Errorf("Expected a clean replay, got %d warnings and %d rebases", len(report.Warnings), len(report.Rebases))
	}
}

func TestReplayRebaseInsertedBeforeSell(t *testing.T) {
	sell := sellRec("A", "AMPL", "5")
	records := []*models.Record{buyRec("A", "ETH", "1"), sell}

	report := NewLedger([]string{"AMPL"}, testFiat).Replay(records)

	if len(report.Records) != 3 {
		t.Fatalf("Expected rebase record inserted, got %d records", len(report.Records))
	}
	rebase := report.Records[1]
	if rebase.Kind != models.KindIncome || rebase.Note != "Rebase" || rebase.Wallet != "A" {
		t.Errorf("Unexpected rebase record %s", rebase)
	}
	if !rebase.Buy.Quantity.Equal(d("5")) || rebase.Buy.Asset != "AMPL" {
		t.Errorf("Expected +5 AMPL, got %s", rebase)
	}
	if report.Records[2] != sell {
		t.Error("Expected the sell to follow its rebase")
	}
	if report.Precedes[rebase] != sell {
		t.Error("Expected the rebase to be mapped to the sell it precedes")
	}
	if !report.State.Balance("A", "AMPL").IsZero() {
		t.Errorf("Expected AMPL balance 0, got %s", report.State.Balance("A", "AMPL"))
	}
	if len(report.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %d", len(report.Warnings))
	}
	if len(records) != 2 {
		t.Error("Expected the caller's slice to be left alone")
	}
}

func TestReplayRebaseOnlyCoversShortfall(t *testing.T) {
	records := []*models.Record{
		buyRec("A", "AMPL", "3"),
		sellRec("A", "AMPL", "5"),
		sellRec("A", "AMPL", "1"),
	}

	report := NewLedger([]string{"AMPL"}, testFiat).Replay(records)

	if len(report.Rebases) != 2 {
		t.Fatalf("Expected 2 rebases, got %d", len(report.Rebases))
	}
	if !report.Rebases[0].Buy.Quantity.Equal(d("2")) || !report.Rebases[1].Buy.Quantity.Equal(d("1")) {
		t.Errorf("Expected rebases of 2 and 1, got %s and %s", report.Rebases[0].Buy.Quantity, report.Rebases[1].Buy.Quantity)
	}
	if len(report.Records) != 5 || report.Records[1] != report.Rebases[0] || report.Records[3] != report.Rebases[1] {
		t.Error("Expected each rebase directly before the sell it covers")
	}
	if !report.State.Total("AMPL").IsZero() {
		t.Errorf("Expected AMPL total 0, got %s", report.State.Total("AMPL"))
	}
}

func TestReplayNegativeWarnings(t *testing.T) {
	records := []*models.Record{
		sellRec("A", "BTC", "1"),
		sellRec("A", "GBP", "100"),
	}

	report := NewLedger(nil, testFiat).Replay(records)

	if len(report.Warnings) != 1 {
		t.Fatalf("Expected 1 warning, got %d", len(report.Warnings))
	}
	w := report.Warnings[0]
	if w.Asset != "BTC" || w.Wallet != "A" || !w.Balance.Equal(d("-1")) {
		t.Errorf("Unexpected warning %+v", w)
	}
	if !report.State.Balance("A", "BTC").Equal(d("-1")) {
		t.Error("Expected warning not to alter the replay")
	}
}

func TestComparePools(t *testing.T) {
	records := []*models.Record{
		buyRec("A", "UNI", "48"),
		buyRec("A", "BTC", "1"),
		buyRec("A", "DOGE", "10"),
		buyRec("A", "GBP", "10"),
	}
	report := NewLedger(nil, testFiat).Replay(records)

	passed := report.ComparePools(map[string]decimal.Decimal{
		"UNI": d("50"),
		"BTC": d("1"),
	})

	if passed {
		t.Fatal("Expected comparison to fail")
	}
	if len(report.Discrepancies) != 2 {
		t.Fatalf("Expected 2 discrepancies, got %d", len(report.Discrepancies))
	}
	doge, uni := report.Discrepancies[0], report.Discrepancies[1]
	if doge.Asset != "DOGE" || !doge.Missing() {
		t.Errorf("Expected DOGE missing, got %+v", doge)
	}
	if uni.Asset != "UNI" || uni.Missing() || !uni.Difference().Equal(d("-2")) {
		t.Errorf("Expected UNI difference -2, got %s", uni.Difference())
	}
}

func TestComparePoolsPasses(t *testing.T) {
	report := NewLedger(nil, testFiat).Replay([]*models.Record{buyRec("A", "ETH", "1"), buyRec("B", "GBP", "1")})
	if !report.ComparePools(map[string]decimal.Decimal{"ETH": d("1.000")}) {
		t.Errorf("Expected pass, got %+v", report.Discrepancies)
	}
}

func TestBalancesSorted(t *testing.T) {
	report := NewLedger(nil, testFiat).Replay([]*models.Record{
		buyRec("b", "ETH", "1"),
		buyRec("A", "ETH", "1"),
		buyRec("A", "BTC", "1"),
	})
	got := report.Balances()
	if len(got) != 3 {
		t.Fatalf("Expected 3 balances, got %d", len(got))
	}
	if got[0].Wallet != "A" || got[0].Asset != "BTC" || got[2].Wallet != "b" {
		t.Errorf("Unexpected order %+v", got)
	}
}

func TestReplayQueueInsert(t *testing.T) {
	a, b, c := buyRec("A", "X", "1"), buyRec("A", "Y", "1"), buyRec("A", "Z", "1")
	q := newReplayQueue([]*models.Record{a, b})
	q.advance()
	q.insertBeforeCurrent(c)
	if q.current() != b {
		t.Fatal("Expected cursor to stay on the current record")
	}
	got := q.records()
	if len(got) != 3 || got[0] != a || got[1] != c || got[2] != b {
		t.Errorf("Unexpected queue order")
	}
}
