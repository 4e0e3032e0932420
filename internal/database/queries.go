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
package database

const (
	// Run queries
	queryCheckDuplicateRun = `
		SELECT id FROM audit_runs WHERE id = ?`

	queryInsertRun = `
		INSERT INTO audit_runs (id, venue, passed, record_count, failure_count, warning_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	queryGetRun = `
		SELECT id, venue, passed, record_count, failure_count, warning_count, created_at
		FROM audit_runs
		WHERE id = ?`

	queryListRuns = `
		SELECT id, venue, passed, record_count, failure_count, warning_count, created_at
		FROM audit_runs
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`

	// Balance queries
	queryInsertBalance = `
		INSERT INTO audit_balances (id, run_id, wallet, asset, balance)
		VALUES (?, ?, ?, ?, ?)`

	queryGetRunBalances = `
		SELECT wallet, asset, balance
		FROM audit_balances
		WHERE run_id = ?
		ORDER BY LOWER(wallet), wallet, asset`

	// Discrepancy queries
	queryInsertDiscrepancy = `
		INSERT INTO audit_discrepancies (id, run_id, asset, audit_balance, pool_balance)
		VALUES (?, ?, ?, ?, ?)`

	queryGetRunDiscrepancies = `
		SELECT asset, audit_balance, pool_balance
		FROM audit_discrepancies
		WHERE run_id = ?
		ORDER BY asset`

	// Failure queries
	queryInsertFailure = `
		INSERT INTO row_failures (id, run_id, row_id, feed, line_num, column_index, column_name, value, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetRunFailures = `
		SELECT row_id, feed, line_num, column_index, column_name, value, message
		FROM row_failures
		WHERE run_id = ?
		ORDER BY feed, line_num`
)
