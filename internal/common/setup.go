package common

import (
	"context"
	"log"
	"os"
	"strings"

	"wallet-reconcile-go/internal/database"
	"wallet-reconcile-go/internal/formance"
	"wallet-reconcile-go/internal/models"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can also be set via shell export, docker, etc.
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

type Services struct {
	DbService *database.Service
	// Ledger is nil when Formance export is not configured
	Ledger *formance.Service
}

// InitializeLogger installs a production logger, or a development one when LOG_LEVEL=debug
func InitializeLogger() (*zap.Logger, func()) {
	var logger *zap.Logger
	var err error
	if strings.EqualFold(os.Getenv("LOG_LEVEL"), "debug") {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	services := &Services{DbService: dbService}
	if !cfg.Formance.Enabled() {
		zap.L().Info("Formance export disabled (FORMANCE_STACK_URL, FORMANCE_CLIENT_ID or FORMANCE_CLIENT_SECRET not set)")
		return services, nil
	}

	ledger, err := formance.NewService(ctx, cfg.Formance)
	if err != nil {
		dbService.Close()
		return nil, err
	}
	services.Ledger = ledger
	return services, nil
}

// InitializeDatabaseOnly initializes just the database service without the ledger export
// Useful for read-only operations like listing runs
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	return dbService, nil
}

func (cs *Services) Close() {
	if cs.DbService != nil {
		cs.DbService.Close()
	}
	if cs.Ledger != nil {
		cs.Ledger.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
