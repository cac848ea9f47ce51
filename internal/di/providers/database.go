package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/anisearchapp/anisearch-bot/internal/config"
	"github.com/anisearchapp/anisearch-bot/internal/logger"
	"github.com/anisearchapp/anisearch-bot/internal/store"
	"github.com/anisearchapp/anisearch-bot/internal/store/postgres"
	"github.com/anisearchapp/anisearch-bot/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	store.UserStore
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the user store selected by DATABASE_URL and applies
// migrations.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	storeLog := log.Component("store")

	if cfg.Database.IsPostgres() {
		db, err := postgres.Open(ctx, cfg.Database.URL, storeLog)
		if err != nil {
			return nil, err
		}
		log.WithField("backend", "postgres").Info("Database initialized")
		return &StoreHandle{UserStore: db}, nil
	}

	path := cfg.Database.SQLitePath()
	db, err := sqlite.Open(ctx, path, storeLog)
	if err != nil {
		return nil, err
	}
	log.WithField("backend", "sqlite").Info("Database initialized", "path", path)
	return &StoreHandle{UserStore: db}, nil
}
