package providers

import (
	"context"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/gutenbae/gutenbae-server/internal/api"
	"github.com/gutenbae/gutenbae-server/internal/config"
	"github.com/gutenbae/gutenbae-server/internal/logger"
	"github.com/gutenbae/gutenbae-server/internal/ratelimit"
	"github.com/gutenbae/gutenbae-server/internal/service"
	"github.com/gutenbae/gutenbae-server/internal/sse"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	authLimiter *ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	h.authLimiter.Stop()
	return err
}

// ProvideHTTPServer provides the HTTP server and starts it in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	hubHandle := do.MustInvoke[*HubHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	authService := do.MustInvoke[*service.AuthService](i)
	reviewService := do.MustInvoke[*service.ReviewService](i)
	userService := do.MustInvoke[*service.UserService](i)

	sseHandler := sse.NewHandler(hubHandle.Hub, log.Logger)
	authLimiter := ratelimit.New(cfg.Auth.LoginRPS, cfg.Auth.LoginBurst)

	handler := api.NewServer(authService, reviewService, userService,
		sseHandler, authLimiter, cfg.CORS.AllowedOrigins, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr)

	return &HTTPServerHandle{Server: srv, authLimiter: authLimiter}, nil
}
