package models

import "time"

// Config represents the application configuration
type Config struct {
	Database  DatabaseConfig
	Formance  FormanceConfig
	Reconcile ReconcileConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// FormanceConfig holds Formance Stack connection settings for exporting records
type FormanceConfig struct {
	StackURL     string
	ClientID     string
	ClientSecret string
	LedgerName   string
}

// Enabled reports whether enough settings are present to export
func (c FormanceConfig) Enabled() bool {
	return c.StackURL != "" && c.ClientID != "" && c.ClientSecret != ""
}

// ReconcileConfig holds the input files and merge options for one run
type ReconcileConfig struct {
	KnownAddressesFile string
	AuditFile          string
	Venue              string
	ConsolidateTokens  bool
	ProportionalSplit  bool
}
