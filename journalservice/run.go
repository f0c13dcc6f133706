// Package journalservice is the composition root for the journal backend.
package journalservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/solace-journal/solace-server/internal/api"
	"github.com/solace-journal/solace-server/internal/api/recovery"
	"github.com/solace-journal/solace-server/internal/config"
	"github.com/solace-journal/solace-server/internal/factory"
	"github.com/solace-journal/solace-server/internal/health"
	"github.com/solace-journal/solace-server/internal/history"
	"github.com/solace-journal/solace-server/internal/identity"
	"github.com/solace-journal/solace-server/internal/journal"
	"github.com/solace-journal/solace-server/internal/kv"
	"github.com/solace-journal/solace-server/internal/logger"
	"github.com/solace-journal/solace-server/internal/persona"
	"github.com/solace-journal/solace-server/internal/reset"
)

// Run starts the journal service HTTP server and blocks until shutdown or error.
func Run() error {
	log := logger.New("journal-service")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	log.Info().
		Str("kv_driver", cfg.KVDriver).
		Int("http_port", cfg.HTTPPort).
		Msg("Journal service starting")

	// Cancellable root context bound to SIGINT/SIGTERM
	ctx, stop := newServerContext()
	defer stop()

	store, err := factory.NewKV(cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Key-value store unavailable")
		return err
	}

	router := buildRouter(store, cfg, log)

	svcHealth := startHealthCheckers(ctx, cfg, log, store)
	if err := waitUntilHealthy(ctx, cfg, svcHealth); err != nil {
		log.Error().Stack().Err(err).Msg("startup health check failed")
		return err
	}

	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

// buildRouter wires HTTP routes to handlers. All four stores share the one
// key-value client for the lifetime of the process.
func buildRouter(store kv.KV, cfg *config.Config, log zerolog.Logger) *mux.Router {
	root := mux.NewRouter()
	root.Use(recovery.Middleware)

	resolver := identity.NewResolver(store, log)
	historyStore := history.NewStore(store)
	journalStore := journal.NewStore(store)
	personaStore := persona.NewStore(store)
	orch := reset.NewOrchestrator(personaStore, resolver, historyStore, journalStore, cfg.DefaultUserID, log)

	// Identity
	identityHandler := api.NewIdentityHandler(resolver)
	root.HandleFunc("/api/identity/resolve", identityHandler.Resolve).Methods("POST")

	// Conversation history
	historyHandler := api.NewHistoryHandler(historyStore)
	root.HandleFunc("/api/users/{userId}/history", historyHandler.List).Methods("GET")
	root.HandleFunc("/api/users/{userId}/history", historyHandler.Append).Methods("POST")
	root.HandleFunc("/api/users/{userId}/history", historyHandler.Clear).Methods("DELETE")

	// Journal
	journalHandler := api.NewJournalHandler(journalStore)
	root.HandleFunc("/api/users/{userId}/journal", journalHandler.Overview).Methods("GET")
	root.HandleFunc("/api/users/{userId}/journal/dates", journalHandler.ListDates).Methods("GET")
	root.HandleFunc("/api/users/{userId}/journal/{date:[0-9]{4}-[0-9]{2}-[0-9]{2}}", journalHandler.GetEntry).Methods("GET")
	root.HandleFunc("/api/users/{userId}/journal/{date:[0-9]{4}-[0-9]{2}-[0-9]{2}}", journalHandler.UpsertEntry).Methods("POST")

	// Persona
	personaHandler := api.NewPersonaHandler(personaStore)
	root.HandleFunc("/api/persona", personaHandler.Get).Methods("GET")
	root.HandleFunc("/api/persona", personaHandler.Put).Methods("PUT")
	root.HandleFunc("/api/persona", personaHandler.Delete).Methods("DELETE")

	// Reset
	resetHandler := api.NewResetHandler(orch)
	root.HandleFunc("/api/reset", resetHandler.Reset).Methods("POST")

	// Health
	healthHandler := api.NewHealthHandler()
	root.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")

	return root
}

// startHealthCheckers starts the kv checker and the service-level aggregator.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, store kv.KV) *health.ServiceHealthChecker {
	probeTimeout := time.Duration(cfg.HealthProbeTimeoutSeconds) * time.Second
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second

	kvChecker := kv.NewHealthChecker(store, log, probeTimeout)
	go kvChecker.Start(ctx, interval)

	svcHealth := health.NewServiceHealthChecker(log, kvChecker)
	go svcHealth.Start(ctx, interval)
	api.BindServiceHealth(svcHealth.IsHealthy)
	return svcHealth
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// calculateStartupHealthTimeout returns the startup health timeout in seconds,
// calculated as interval*2 with a minimum of 60 seconds.
func calculateStartupHealthTimeout(healthIntervalSeconds int) int {
	timeout := healthIntervalSeconds * 2
	if timeout < 60 {
		return 60
	}
	return timeout
}

// waitUntilHealthy blocks until service health is healthy or the startup window expires.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, svcHealth *health.ServiceHealthChecker) error {
	timeoutSeconds := calculateStartupHealthTimeout(cfg.HealthIntervalSeconds)
	deadline := time.Now().Add(time.Duration(timeoutSeconds) * time.Second)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if svcHealth.IsHealthy() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("startup aborted: dependencies not healthy within %d seconds", timeoutSeconds)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// newServerContext returns a cancellable context that is cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
