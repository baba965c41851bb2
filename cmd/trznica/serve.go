package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/erazemk/trznica/internal/api"
	"github.com/erazemk/trznica/internal/auth"
	"github.com/erazemk/trznica/internal/config"
	"github.com/erazemk/trznica/internal/confirm"
	"github.com/erazemk/trznica/internal/db"
	"github.com/erazemk/trznica/internal/market"
	"github.com/erazemk/trznica/internal/mirror"
	"github.com/erazemk/trznica/internal/model"
	"github.com/erazemk/trznica/internal/session"
	"github.com/erazemk/trznica/internal/store"
	"github.com/erazemk/trznica/internal/web"
)

// adminStudentID is the login of the account created on first run.
const adminStudentID = "00000000000"

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		Long: `Run the web server. On first run the database is created and an admin
account with a generated password is printed.

Examples:
  trznica serve -c trznica.yaml
  trznica serve --db market.sqlite3 --addr :9000`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	cmd.Flags().StringVarP(&listenAddr, "addr", "a", "", "listen address (overrides config)")
	rootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	closeLog := setupLogger(cfg.Log)
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := seedAdmin(ctx, database, cfg.AdminUser); err != nil {
		return err
	}

	secret, err := store.SessionSecret(ctx, database)
	if err != nil {
		return fmt.Errorf("loading session secret: %w", err)
	}
	sessions := &session.Manager{
		Secret:  secret,
		TTL:     cfg.Session.TTL,
		Revoker: store.SQLRevoker{DB: database},
		Users:   store.SQLUsers{DB: database},
	}
	if cfg.Session.RedisAddr != "" {
		redis := session.NewRedisRevoker(cfg.Session.RedisAddr)
		defer redis.Close()
		if err := redis.Ping(ctx); err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		sessions.Revoker = redis
		slog.Info("revoked sessions kept in redis", "addr", cfg.Session.RedisAddr)
	}

	svc := market.NewService(database, nil)
	if cfg.Mirror.URL != "" {
		svc.Mirror = newMirrorClient(cfg)
		slog.Info("pushing listings to mirror", "url", cfg.Mirror.URL)
	}

	var mirrorDB *sql.DB
	if cfg.Mirror.Serve {
		mirrorDB, err = openMirrorDB(ctx, cfg, database)
		if err != nil {
			return err
		}
		if mirrorDB != database {
			defer mirrorDB.Close()
		}
	}

	loc, _ := cfg.Location()
	site := config.NewLiveSite(cfg.Site)

	apiRouter := api.NewRouter(api.Deps{
		DB:          database,
		Sessions:    sessions,
		Market:      svc,
		Location:    loc,
		MirrorDB:    mirrorDB,
		MirrorToken: cfg.Mirror.Token,
	})
	webRouter, err := web.NewRouter(web.Deps{
		DB:       database,
		Market:   svc,
		Sessions: sessions,
		Site:     site,
		Images:   cfg.Images,
		Confirm:  confirm.NewTracker(cfg.ConfirmWindow),
		Location: loc,
	})
	if err != nil {
		return fmt.Errorf("setting up web router: %w", err)
	}

	// Combine: API routes take priority, web routes handle the rest.
	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("/", webRouter)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.LoggingMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server started", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
		return nil
	})
	if configPath != "" {
		g.Go(func() error {
			return config.Watch(gctx, configPath, site)
		})
	}

	err = g.Wait()
	slog.Info("server stopped, closing database")
	return err
}

// openDB opens and migrates the main database.
func openDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	database, err := db.Open(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(ctx, database, db.DialectSQLite); err != nil {
		database.Close()
		return nil, err
	}
	slog.Info("database ready", "path", cfg.DB)
	return database, nil
}

// openMirrorDB returns the database behind the mirror endpoint: the main
// database for sqlite, or a separate MySQL server.
func openMirrorDB(ctx context.Context, cfg *config.Config, main *sql.DB) (*sql.DB, error) {
	if cfg.Mirror.Driver != db.DialectMySQL {
		return main, nil
	}
	mdb, err := db.OpenMySQL(ctx, cfg.Mirror.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, mdb, db.DialectMySQL); err != nil {
		mdb.Close()
		return nil, err
	}
	slog.Info("mirror database ready", "driver", cfg.Mirror.Driver)
	return mdb, nil
}

func newMirrorClient(cfg *config.Config) *mirror.Client {
	return mirror.New(&http.Client{Timeout: 15 * time.Second}, cfg.Mirror.URL, cfg.Mirror.Token)
}

// seedAdmin creates the first administrator when there are no users yet and
// prints its generated password.
func seedAdmin(ctx context.Context, database *sql.DB, name string) error {
	n, err := store.CountUsers(ctx, database)
	if err != nil {
		return fmt.Errorf("counting users: %w", err)
	}
	if n > 0 {
		return nil
	}

	password, err := auth.GeneratePassword(16)
	if err != nil {
		return fmt.Errorf("generating password: %w", err)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	if _, err := store.CreateUser(ctx, database, model.User{
		StudentID: adminStudentID, Name: name, PasswordHash: hash, Role: model.RoleAdmin,
	}); err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	fmt.Fprintln(os.Stdout, "Admin account created:")
	fmt.Fprintf(os.Stdout, "  Student ID: %s\n", adminStudentID)
	fmt.Fprintf(os.Stdout, "  Password:   %s\n", password)
	fmt.Fprintln(os.Stdout)
	fmt.Fprintln(os.Stdout, "Save this password, it cannot be recovered.")
	fmt.Fprintln(os.Stdout, "The admin can change it after logging in.")
	return nil
}
