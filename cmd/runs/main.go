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

	"wallet-reconcile-go/internal/api"
	"wallet-reconcile-go/internal/common"
	"wallet-reconcile-go/internal/config"
	"wallet-reconcile-go/internal/formance"
	"wallet-reconcile-go/internal/models"

	"go.uber.org/zap"
)

func formatRunId(id string) string {
	if len(id) > 8 {
		return id[:8] + "..."
	}
	return id
}

func status(passed bool) string {
	if passed {
		return "PASSED"
	}
	return "FAILED"
}

func printRun(run models.AuditRun, isLast bool) {
	fmt.Printf("%s %-11s %-11s %-6s records: %6d, failures: %4d, warnings: %4d (%s)\n",
		common.BoxPrefix(isLast),
		formatRunId(run.Id),
		run.Venue,
		status(run.Passed),
		run.RecordCount,
		run.FailureCount,
		run.WarningCount,
		run.CreatedAt.Format("2006-01-02 15:04:05"))
}

func printBalances(balances []models.WalletBalance) {
	wallet := ""
	for i, b := range balances {
		if b.Wallet != wallet {
			wallet = b.Wallet
			fmt.Printf("\n┌─ Wallet: %s\n", wallet)
			common.PrintBoxSeparator(78)
		}
		isLast := i == len(balances)-1 || balances[i+1].Wallet != wallet
		fmt.Printf("%s %-15s: %30s\n", common.BoxPrefix(isLast), b.Asset, b.Balance.String())
	}
}

func showRun(ctx context.Context, svc *api.ReconcileService, runId string, logger *zap.Logger) {
	report, err := svc.GetRunReport(ctx, runId)
	if err != nil {
		logger.Fatal("Failed to load run", zap.String("run_id", runId), zap.Error(err))
	}

	common.PrintHeader(fmt.Sprintf("AUDIT RUN %s", report.Run.Id), common.DefaultWidth)
	printRun(*report.Run, true)
	printBalances(report.Balances)
	common.PrintRowFailures(report.Failures)
	common.PrintFailures(report.Discrepancies)
}

func showLedgerWallet(ctx context.Context, cfg *models.Config, wallet string, logger *zap.Logger) {
	ledger, err := formance.NewService(ctx, cfg.Formance)
	if err != nil {
		logger.Fatal("Failed to connect to Formance", zap.Error(err))
	}
	defer ledger.Close()

	balances, err := ledger.GetWalletBalances(ctx, wallet)
	if err != nil {
		logger.Fatal("Failed to get ledger balances", zap.String("wallet", wallet), zap.Error(err))
	}
	common.PrintHeader("LEDGER BALANCES", common.DefaultWidth)
	printBalances(balances)
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	runFlag := flag.String("run", "", "Show balances, failures and discrepancies of one run (optional)")
	limitFlag := flag.Int("limit", 20, "Number of runs to list")
	walletFlag := flag.String("wallet", "", "Show the exported ledger balances of a wallet (requires FORMANCE_* settings)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	if *walletFlag != "" {
		showLedgerWallet(ctx, cfg, *walletFlag, logger)
		return
	}

	logger.Info("Connecting to database", zap.String("path", cfg.Database.Path))
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	svc := api.NewReconcileService(api.Options{}, dbService, nil)

	if *runFlag != "" {
		showRun(ctx, svc, *runFlag, logger)
		return
	}

	runs, err := svc.ListRuns(ctx, *limitFlag, 0)
	if err != nil {
		logger.Fatal("Failed to list runs", zap.Error(err))
	}

	common.PrintHeader("AUDIT RUN HISTORY", common.WideWidth)
	passed := 0
	for i, run := range runs {
		printRun(run, i == len(runs)-1)
		if run.Passed {
			passed++
		}
	}
	common.PrintFooter(fmt.Sprintf("SUMMARY: %d runs listed, %d passed", len(runs), passed), common.WideWidth)

	logger.Info("Run query completed", zap.Int("runs", len(runs)), zap.Int("passed", passed))
}
