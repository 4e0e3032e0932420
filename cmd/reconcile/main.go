/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"wallet-reconcile-go/internal/api"
	"wallet-reconcile-go/internal/common"
	"wallet-reconcile-go/internal/config"
	"wallet-reconcile-go/internal/models"
	"wallet-reconcile-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func printSummary(summary *models.RunSummary) {
	common.PrintHeader("RECONCILIATION SUMMARY", common.DefaultWidth)
	fmt.Printf("Run:      %s\n", summary.RunId)
	fmt.Printf("Records:  %d\n", summary.Records)
	fmt.Printf("Warnings: %d\n", summary.Warnings)
	if summary.Exported > 0 {
		fmt.Printf("Exported: %d\n", summary.Exported)
	}
	common.PrintBoxSeparator(78)
	for i, total := range summary.Totals {
		fmt.Printf("%s %-15s: %30s\n", common.BoxPrefix(i == len(summary.Totals)-1), total.Asset, total.Balance.String())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	rowsFlag := flag.String("rows", "", "JSON lines file of raw rows (required)")
	holdingsFlag := flag.String("holdings", "", "YAML holdings pool to compare against (optional)")
	venueFlag := flag.String("venue", "", "Venue preset, overrides VENUE (etherscan, blockscout, kraken, revolut)")
	outFlag := flag.String("out", "", "Write the reconciled rows as JSON lines to this file (optional)")
	dryRunFlag := flag.Bool("dry-run", false, "Do not store the run or export records")
	flag.Parse()

	if *rowsFlag == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	venue := cfg.Reconcile.Venue
	if *venueFlag != "" {
		venue = *venueFlag
	}

	known, err := common.LoadKnownAddresses(cfg.Reconcile.KnownAddressesFile)
	if err != nil {
		logger.Fatal("Failed to load known addresses", zap.Error(err))
	}
	auditCfg, err := common.LoadAuditConfig(cfg.Reconcile.AuditFile)
	if err != nil {
		logger.Fatal("Failed to load audit config", zap.Error(err))
	}

	var holdings map[string]decimal.Decimal
	if *holdingsFlag != "" {
		holdings, err = common.LoadHoldings(*holdingsFlag)
		if err != nil {
			logger.Fatal("Failed to load holdings", zap.Error(err))
		}
	}

	rows, err := common.LoadRows(*rowsFlag)
	if err != nil {
		logger.Fatal("Failed to load rows", zap.Error(err))
	}
	logger.Info("Loaded rows", zap.String("file", *rowsFlag), zap.Int("count", len(rows)))

	var reports store.ReportStore
	var sink store.RecordSink
	if !*dryRunFlag {
		services, err := common.InitializeServices(ctx, cfg)
		if err != nil {
			logger.Fatal("Failed to initialize services", zap.Error(err))
		}
		defer services.Close()
		reports = services.DbService
		if services.Ledger != nil {
			sink = services.Ledger
		}
	}

	svc := api.NewReconcileService(api.Options{
		Known:             known,
		RebaseAssets:      auditCfg.RebaseAssets,
		Fiat:              common.NewFiatList(auditCfg.Fiat),
		ConsolidateTokens: cfg.Reconcile.ConsolidateTokens,
		ProportionalSplit: cfg.Reconcile.ProportionalSplit,
	}, reports, sink)

	result, err := svc.Run(ctx, api.RunRequest{
		Venue:    venue,
		Rows:     rows,
		Holdings: holdings,
	})
	if err != nil {
		logger.Fatal("Reconciliation failed", zap.Error(err))
	}

	if *outFlag != "" {
		f, err := os.Create(*outFlag)
		if err != nil {
			logger.Fatal("Failed to create output file", zap.Error(err))
		}
		if err := common.WriteRows(f, result.Rows); err != nil {
			logger.Fatal("Failed to write rows", zap.Error(err))
		}
		if err := f.Close(); err != nil {
			logger.Fatal("Failed to close output file", zap.Error(err))
		}
	}

	printSummary(result.Summary)
	common.PrintRowFailures(result.Summary.Failures)
	common.PrintFailures(result.Report.Discrepancies)

	if result.Summary.Passed {
		common.PrintFooter("AUDIT PASSED", common.DefaultWidth)
		return
	}
	common.PrintFooter("AUDIT FAILED", common.DefaultWidth)
	loggerCleanup()
	os.Exit(1)
}
