package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"wallet-reconcile-go/internal/models"
	"wallet-reconcile-go/internal/store"

	"github.com/shopspring/decimal"
)

type fiatSet map[string]bool

func (f fiatSet) IsFiat(asset string) bool { return f[asset] }

type fakeStore struct {
	saved []store.SaveRunParams
}

func (f *fakeStore) SaveRun(_ context.Context, params store.SaveRunParams) error {
	f.saved = append(f.saved, params)
	return nil
}

func (f *fakeStore) GetRun(_ context.Context, runId string) (*models.AuditRun, error) {
	for _, p := range f.saved {
		if p.Run.Id == runId {
			run := p.Run
			return &run, nil
		}
	}
	return nil, store.ErrRunNotFound
}

func (f *fakeStore) ListRuns(_ context.Context, limit, offset int) ([]models.AuditRun, error) {
	var runs []models.AuditRun
	for _, p := range f.saved {
		runs = append(runs, p.Run)
	}
	return runs, nil
}

func (f *fakeStore) GetRunBalances(_ context.Context, runId string) ([]models.WalletBalance, error) {
	return f.saved[0].Balances, nil
}

func (f *fakeStore) GetRunDiscrepancies(_ context.Context, runId string) ([]models.Discrepancy, error) {
	return f.saved[0].Discrepancies, nil
}

func (f *fakeStore) GetRunFailures(_ context.Context, runId string) ([]models.RowFailure, error) {
	return f.saved[0].Failures, nil
}

func (f *fakeStore) Close() {}

type fakeSink struct {
	records []store.ExportRecord
}

func (f *fakeSink) ExportRecords(_ context.Context, records []store.ExportRecord) (int, error) {
	f.records = append(f.records, records...)
	return len(records), nil
}

var (
	ts     = time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)
	header = []string{"Txhash", "From", "To", "ContractAddress", "Status", "Method"}
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func explorerRow(feed models.Feed, line int, tx string, rec *models.Record) *models.RawRow {
	fields := models.NewFields(header, []string{tx, "", "", "", "", ""})
	return models.NewRawRow(feed, "0xowner00000000", line, fields, rec)
}

func swapRows() []*models.RawRow {
	return []*models.RawRow{
		explorerRow(models.FeedTxns, 1, "0x1",
			&models.Record{Kind: models.KindDeposit, Timestamp: ts, Buy: models.NewLeg("ETH", d("5")), Wallet: "W"}),
		explorerRow(models.FeedTxns, 2, "0x2",
			&models.Record{Kind: models.KindWithdrawal, Timestamp: ts, Sell: models.NewLeg("ETH", d("1")),
				Fee: &models.Fee{Asset: "ETH", Quantity: d("0.01")}, Wallet: "W"}),
		explorerRow(models.FeedTokens, 1, "0x2",
			&models.Record{Kind: models.KindDeposit, Timestamp: ts, Buy: models.NewLeg("UNI", d("3000")), Wallet: "W"}),
	}
}

func TestRunExplorerVenue(t *testing.T) {
	reports, sink := &fakeStore{}, &fakeSink{}
	svc := NewReconcileService(Options{Fiat: fiatSet{"GBP": true}}, reports, sink)

	rows := swapRows()
	result, err := svc.Run(context.Background(), RunRequest{
		Venue:    "etherscan",
		Rows:     rows,
		Holdings: map[string]decimal.Decimal{"ETH": d("3.99"), "UNI": d("3000")},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	summary := result.Summary
	if !summary.Passed {
		t.Fatalf("Expected run to pass, got discrepancies %+v", summary.Discrepancies)
	}
	if !result.Report.State.Total("ETH").Equal(d("3.99")) {
		t.Errorf("Expected ETH total 3.99, got %s", result.Report.State.Total("ETH"))
	}
	if len(summary.Totals) != 2 || summary.Totals[0].Asset != "ETH" {
		t.Errorf("Unexpected totals %+v", summary.Totals)
	}

	if len(reports.saved) != 1 {
		t.Fatalf("Expected run to be saved once, got %d", len(reports.saved))
	}
	saved := reports.saved[0]
	if saved.Run.Id != summary.RunId || saved.Run.Venue != "etherscan" || !saved.Run.Passed {
		t.Errorf("Unexpected saved run %+v", saved.Run)
	}

	if summary.Exported != len(result.Report.Records) || len(sink.records) != summary.Exported {
		t.Errorf("Expected every record exported, got %d of %d", summary.Exported, len(result.Report.Records))
	}
	ids := make(map[string]bool)
	for _, row := range result.Rows {
		ids[row.Id] = true
	}
	for _, r := range sink.records {
		if !ids[r.Reference] {
			t.Errorf("Expected export reference %s to be a row id", r.Reference)
		}
	}
}

func amplSellRow() *models.RawRow {
	row := explorerRow(models.FeedTxns, 1, "0xa",
		&models.Record{Kind: models.KindWithdrawal, Timestamp: ts, Sell: models.NewLeg("AMPL", d("5")), Wallet: "W"})
	row.Id = "row-ampl-1"
	return row
}

func TestRunSplicesRebaseRows(t *testing.T) {
	sell := amplSellRow()
	svc := NewReconcileService(Options{RebaseAssets: []string{"AMPL"}}, nil, nil)

	result, err := svc.Run(context.Background(), RunRequest{Venue: "etherscan", Rows: []*models.RawRow{sell}})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("Expected rebase row in output, got %d rows", len(result.Rows))
	}
	income := result.Rows[0]
	if income.Record == nil || income.Record.Kind != models.KindIncome || income.Record.Note != "Rebase" {
		t.Fatalf("Expected Income rebase row first, got %s", income)
	}
	if !income.Record.Buy.Quantity.Equal(d("5")) || income.Record.Buy.Asset != "AMPL" {
		t.Errorf("Expected +5 AMPL, got %s", income.Record)
	}
	if !income.Synthetic || income.Id != "row-ampl-1:rebase" {
		t.Errorf("Expected synthetic row keyed by its source, got id %s", income.Id)
	}
	if result.Rows[1] != sell {
		t.Error("Expected the sell row directly after its rebase")
	}
}

func TestRunRebaseReferenceStableAcrossRuns(t *testing.T) {
	svc := NewReconcileService(Options{RebaseAssets: []string{"AMPL"}}, nil, nil)

	var refs [][]string
	for i := 0; i < 2; i++ {
		sink := &fakeSink{}
		svc.sink = sink
		if _, err := svc.Run(context.Background(), RunRequest{Venue: "etherscan", Rows: []*models.RawRow{amplSellRow()}}); err != nil {
			t.Fatalf("Run %d failed: %v", i, err)
		}
		var run []string
		for _, r := range sink.records {
			run = append(run, r.Reference)
		}
		refs = append(refs, run)
	}

	want := []string{"row-ampl-1:rebase", "row-ampl-1"}
	for i, run := range refs {
		if len(run) != len(want) {
			t.Fatalf("Run %d: expected %d references, got %v", i, len(want), run)
		}
		for j := range want {
			if run[j] != want[j] {
				t.Errorf("Run %d: expected reference %s, got %s", i, want[j], run[j])
			}
		}
	}
}

func TestRunReportsDiscrepancy(t *testing.T) {
	svc := NewReconcileService(Options{Fiat: fiatSet{"GBP": true}}, nil, nil)

	result, err := svc.Run(context.Background(), RunRequest{
		Venue:    "etherscan",
		Rows:     swapRows(),
		Holdings: map[string]decimal.Decimal{"ETH": d("3.99"), "UNI": d("3001")},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Summary.Passed {
		t.Fatal("Expected run to fail")
	}
	if len(result.Summary.Discrepancies) != 1 {
		t.Fatalf("Expected 1 discrepancy, got %d", len(result.Summary.Discrepancies))
	}
	got := result.Summary.Discrepancies[0]
	if got.Asset != "UNI" || !got.Difference.Equal(d("-1")) {
		t.Errorf("Expected UNI difference -1, got %+v", got)
	}
}

func TestRunKrakenPairs(t *testing.T) {
	ledgerHeader := []string{"txid", "refid"}
	ledger := func(line int, txid string, rec *models.Record) *models.RawRow {
		return models.NewRawRow(models.FeedLedgers, "kraken", line, models.NewFields(ledgerHeader, []string{txid, "R1"}), rec)
	}
	rows := []*models.RawRow{
		ledger(1, "L1", &models.Record{Kind: models.KindTrade, Timestamp: ts, Buy: models.NewLeg("BTC", d("1")), Wallet: "Kraken"}),
		ledger(2, "L2", &models.Record{Kind: models.KindTrade, Timestamp: ts, Sell: models.NewLeg("USD", d("30000")), Wallet: "Kraken"}),
	}

	svc := NewReconcileService(Options{Fiat: fiatSet{"USD": true}}, nil, nil)
	result, err := svc.Run(context.Background(), RunRequest{
		Venue:    "Kraken",
		Rows:     rows,
		Holdings: map[string]decimal.Decimal{"BTC": d("1")},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !result.Summary.Passed || result.Summary.Records != 1 {
		t.Errorf("Expected one passing trade, got %+v", result.Summary)
	}
	if result.Summary.Warnings != 0 {
		t.Errorf("Expected fiat going negative not to warn, got %d", result.Summary.Warnings)
	}
}

func TestRunInvalidRecordFailsRow(t *testing.T) {
	bad := explorerRow(models.FeedTokens, 2, "",
		&models.Record{Kind: "Bogus", Timestamp: ts, Buy: models.NewLeg("ABC", d("1")), Wallet: "W"})
	rows := append(swapRows(), bad)

	svc := NewReconcileService(Options{}, nil, nil)
	result, err := svc.Run(context.Background(), RunRequest{Venue: "etherscan", Rows: rows})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Summary.Failures) != 1 || result.Summary.Failures[0].RowId != bad.Id {
		t.Fatalf("Expected the invalid row to fail, got %+v", result.Summary.Failures)
	}
	if !errors.Is(bad.Failure, models.ErrUnknownKind) {
		t.Errorf("Expected ErrUnknownKind, got %v", bad.Failure)
	}
	if result.Report.State.Total("ABC").IsPositive() {
		t.Error("Expected the invalid record to stay out of the audit")
	}
	if !result.Summary.Passed {
		t.Error("Expected pool comparison to be skipped without holdings")
	}
}

func TestRunErrors(t *testing.T) {
	svc := NewReconcileService(Options{}, nil, nil)

	if _, err := svc.Run(context.Background(), RunRequest{Venue: "etherscan"}); !errors.Is(err, ErrNoRows) {
		t.Errorf("Expected ErrNoRows, got %v", err)
	}
	if _, err := svc.Run(context.Background(), RunRequest{Venue: "nowhere", Rows: swapRows()}); err == nil {
		t.Error("Expected error for unknown venue")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.Run(ctx, RunRequest{Venue: "etherscan", Rows: swapRows()}); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestGetRunReport(t *testing.T) {
	reports := &fakeStore{}
	svc := NewReconcileService(Options{}, reports, nil)

	result, err := svc.Run(context.Background(), RunRequest{Venue: "etherscan", Rows: swapRows()})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	report, err := svc.GetRunReport(context.Background(), result.Summary.RunId)
	if err != nil {
		t.Fatalf("GetRunReport failed: %v", err)
	}
	if report.Run.Id != result.Summary.RunId || len(report.Balances) != 2 {
		t.Errorf("Unexpected report %+v", report)
	}

	if _, err := svc.GetRunReport(context.Background(), "missing"); !errors.Is(err, store.ErrRunNotFound) {
		t.Errorf("Expected ErrRunNotFound, got %v", err)
	}
	if err := svc.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck failed: %v", err)
	}
}
