package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/google/uuid"

	"github.com/danielhkuo/yearbook-vote/catalog"
	"github.com/danielhkuo/yearbook-vote/cliparse"
	"github.com/danielhkuo/yearbook-vote/db"
	"github.com/danielhkuo/yearbook-vote/feed"
	"github.com/danielhkuo/yearbook-vote/identity"
	"github.com/danielhkuo/yearbook-vote/middleware"
	"github.com/danielhkuo/yearbook-vote/models"
	"github.com/danielhkuo/yearbook-vote/reveal"
	"github.com/danielhkuo/yearbook-vote/router"
)

func main() {
	var err error

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	// Connect to the database
	dbConn, err := db.Open(cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.SeedFile != "" {
		if err := applySeed(ctx, dbConn, cfg); err != nil {
			slog.Error("seeding failed", "error", err, "file", cfg.SeedFile)
			os.Exit(1)
		}
	}

	hub := feed.NewHub()
	if cfg.DatabaseType == cliparse.DatabasePostgres {
		listener := feed.NewListener(cfg.DatabaseURL, hub)
		go listener.Run(ctx)
	}

	// Create router
	mux := router.NewRouter(dbConn, cfg, hub)

	// Create server
	server := http.Server{
		Handler: middleware.CORS(mux),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		cancel()
		server.Close()
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}

// applySeed loads the seed file and inserts whatever is missing. An existing
// reveal time is kept so a restart never undoes an admin change.
func applySeed(ctx context.Context, conn *sql.DB, cfg cliparse.Config) error {
	seed, err := catalog.LoadSeedFile(cfg.SeedFile)
	if err != nil {
		return err
	}

	result, err := catalog.New(conn).Seed(ctx, seed)
	if err != nil {
		return err
	}

	users := identity.NewService(conn)
	created := 0
	for _, u := range seed.Users {
		ok, err := users.CreateUser(ctx, models.User{
			ID:          uuid.NewString(),
			Username:    u.Username,
			DisplayName: u.DisplayName,
			Role:        u.Role,
		}, u.Password)
		if err != nil {
			return err
		}
		if ok {
			created++
		}
	}

	if seed.RevealAt != "" {
		store := reveal.NewStore(conn)
		_, err := store.Get(ctx)
		switch {
		case errors.Is(err, reveal.ErrNotConfigured):
			openAt, err := reveal.ParseRevealTime(seed.RevealAt, cfg.Location())
			if err != nil {
				return err
			}
			if _, err := store.Set(ctx, openAt); err != nil {
				return err
			}
			slog.Info("reveal time seeded", "summary_open_at", openAt)
		case err != nil:
			return err
		}
	}

	slog.Info("seed applied",
		"categories", result.Categories,
		"candidates", result.Candidates,
		"users", created,
	)
	return nil
}
