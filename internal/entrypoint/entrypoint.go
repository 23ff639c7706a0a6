package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mrlokans/symptomchecker/internal/config"
	"github.com/mrlokans/symptomchecker/internal/database"
	http_controllers "github.com/mrlokans/symptomchecker/internal/http"
	"github.com/mrlokans/symptomchecker/internal/logging"
	"github.com/mrlokans/symptomchecker/internal/notify"
	"github.com/mrlokans/symptomchecker/internal/provider"
	"github.com/mrlokans/symptomchecker/internal/router"
	"github.com/mrlokans/symptomchecker/internal/schema"
)

// App holds the wired core components.
type App struct {
	Database *database.Manager
	Router   *router.Router
	Hub      *notify.Hub
	Provider *provider.Provider
}

// Build wires the database manager, router, hub and provider for the
// built-in entities. The database is not opened until first use.
func Build(cfg *config.Config, log zerolog.Logger) (*App, error) {
	entities := schema.All()

	db, err := database.NewManager(cfg.Database.Path, entities, database.Options{
		Logger:     log,
		LogQueries: cfg.Database.LogQueries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	r, err := router.ForEntities(cfg.Content.Authority, entities...)
	if err != nil {
		return nil, fmt.Errorf("failed to build router: %w", err)
	}

	hub := notify.NewHub()
	p, err := provider.New(db, r, hub, entities, log)
	if err != nil {
		return nil, err
	}

	return &App{Database: db, Router: r, Hub: hub, Provider: p}, nil
}

func (a *App) Close() error {
	return a.Database.Close()
}

func Serve(handler *gin.Engine, cfg *config.Config, log zerolog.Logger) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	// Shutdown cancels request contexts so open change feeds return.
	baseCtx, stopRequests := context.WithCancel(context.Background())
	defer stopRequests()

	srv := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:     handler,
		BaseContext: func(net.Listener) context.Context { return baseCtx },
	}
	srv.RegisterOnShutdown(stopRequests)

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// kill (no param) sends SIGTERM, kill -2 is SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-quit:
	}
	log.Info().Dur("timeout", timeout).Msg("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Info().Msg("Server exiting")
	return nil
}

func Run(cfg *config.Config, version string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	log.Info().Str("version", version).Msg("Starting symptomchecker")

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	app, err := Build(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database")
		}
	}()

	// Fail at startup rather than on the first request if the file is unusable.
	if err := app.Database.Ping(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	handler := http_controllers.NewRouter(http_controllers.RouterConfig{
		Provider:  app.Provider,
		Database:  app.Database,
		Authority: app.Router.Authority(),
		Version:   version,
		Logger:    log,
	})

	return Serve(handler, cfg, log)
}
