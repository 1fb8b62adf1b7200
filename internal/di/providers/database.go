package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/gutenbae/gutenbae-server/internal/config"
	"github.com/gutenbae/gutenbae-server/internal/logger"
	"github.com/gutenbae/gutenbae-server/internal/sse"
	"github.com/gutenbae/gutenbae-server/internal/store"
	"github.com/gutenbae/gutenbae-server/internal/store/sqlite"
)

// HubHandle wraps the broadcast hub with its context for lifecycle management.
type HubHandle struct {
	*sse.Hub
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *HubHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Hub.Shutdown(ctx)
	h.cancel()
	return err
}

// ProvideHub provides the server-sent events broadcast hub.
func ProvideHub(i do.Injector) (*HubHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	hub := sse.NewHub(log.Logger)

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Start(ctx)

	log.Info("Broadcast hub started")

	return &HubHandle{
		Hub:    hub,
		cancel: cancel,
	}, nil
}

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the database store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	db, err := sqlite.Open(cfg.Data.DatabasePath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", cfg.Data.DatabasePath)

	return &StoreHandle{Store: db}, nil
}
