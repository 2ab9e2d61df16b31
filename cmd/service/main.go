package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gitlab.com/dirk.krummacker/contacts-app/internal/config"
	"gitlab.com/dirk.krummacker/contacts-app/internal/logger"
	"gitlab.com/dirk.krummacker/contacts-app/internal/model"
	"gitlab.com/dirk.krummacker/contacts-app/internal/store"
	"gitlab.com/dirk.krummacker/contacts-app/internal/web"
	"golang.org/x/sync/errgroup"
)

// Usage example on the command line:
// > PORT=8080 DBFILE=contacts.db GIN_MODE=release GIN_LOGGING=OFF go run ./cmd/service
// > PORT=8080 DBDRIVER=mysql DBHOST=localhost DBUSER=dirk DBPWD=bullo92 go run ./cmd/service
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	bootstrap, err := logger.New(os.Getenv("LOG_MODE"))
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	cfg, err := config.Load(bootstrap)
	bootstrap.Sync()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	db, err := store.Open(cfg)
	if err != nil {
		return err
	}
	if err := store.Migrate(ctx, db); err != nil {
		db.Close()
		return err
	}
	contacts, err := store.NewSQLStore(db)
	if err != nil {
		db.Close()
		return err
	}
	defer contacts.Close()

	if cfg.Seed {
		seed, err := loadSeed(cfg.SeedFile)
		if err != nil {
			return err
		}
		added, err := store.Seed(ctx, contacts, seed)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		log.Info("Seeded contacts", "added", added, "file", cfg.SeedFile)
	}

	router := web.SetupHttpRouter(contacts, log, web.Options{
		HTTPLogging: cfg.HTTPLogging,
		CORSOrigins: cfg.CORSOrigins,
	})
	return serve(ctx, cfg, log, router)
}

// loadSeed reads the seed contacts from path, or returns the built-in ones if path is empty.
func loadSeed(path string) ([]model.Contact, error) {
	if path == "" {
		return store.DefaultSeed()
	}
	f, err := os.Open(path) // nosemgrep
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return store.LoadSeed(f)
}

// serve runs the HTTP server until ctx is cancelled, then gives open requests the configured
// time to finish.
func serve(ctx context.Context, cfg config.Config, log *logger.Logger, router *gin.Engine) error {
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Listening", "addr", srv.Addr, "driver", cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down", "timeout", cfg.ShutdownTimeout.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
