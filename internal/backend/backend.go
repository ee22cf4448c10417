// Package backend opens the ledger selected by LEDGER_BACKEND.
package backend

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/LytheanSem/emotionwork-sub001/internal/config"
	"github.com/LytheanSem/emotionwork-sub001/internal/database"
	"github.com/LytheanSem/emotionwork-sub001/internal/ledger"
	"github.com/LytheanSem/emotionwork-sub001/internal/repository"
	"github.com/LytheanSem/emotionwork-sub001/internal/sheets"
)

// RetryPolicy builds the write retry policy from configuration.
func RetryPolicy(cfg config.Config) ledger.RetryPolicy {
	return ledger.RetryPolicy{
		Attempts:  cfg.WriteRetryAttempts,
		BaseDelay: cfg.WriteRetryBase,
		MaxDelay:  cfg.WriteRetryMax,
	}
}

// Open returns the configured ledger and a function releasing its
// resources.
func Open(ctx context.Context, cfg config.Config, log *zap.Logger) (ledger.Ledger, func(), error) {
	switch cfg.LedgerBackend {
	case config.BackendSheets:
		store, err := sheets.New(ctx, sheets.Config{
			SpreadsheetID:   cfg.SheetsSpreadsheetID,
			SheetName:       cfg.SheetsSheetName,
			CredentialsFile: cfg.SheetsCredentialsFile,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open sheets store: %w", err)
		}
		if err := store.EnsureHeader(ctx); err != nil {
			return nil, nil, fmt.Errorf("ensure sheet header: %w", err)
		}
		log.Info("ledger backend ready", zap.String("backend", cfg.LedgerBackend), zap.String("sheet", cfg.SheetsSheetName))
		return ledger.NewSheetLedger(store, RetryPolicy(cfg), log), func() {}, nil

	case config.BackendMySQL:
		db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			return nil, nil, fmt.Errorf("open mysql: %w", err)
		}
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		log.Info("ledger backend ready", zap.String("backend", cfg.LedgerBackend), zap.String("db", cfg.DBName))
		return repository.NewBookingRepo(db, log), func() { _ = db.Close() }, nil

	case config.BackendMemory:
		log.Warn("using in-memory ledger; bookings are lost on restart")
		return ledger.NewSheetLedger(ledger.NewMemoryRowStore(), ledger.NoRetry, log), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown ledger backend %q", cfg.LedgerBackend)
}
