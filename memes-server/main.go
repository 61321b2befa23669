package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"memeshare/internal/api"
	"memeshare/internal/db"
	"memeshare/internal/logging"
	"memeshare/internal/serverconfig"
)

const serverVersion = "0.1.0-dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) > 0 {
		switch args[0] {
		case "import":
			return runImport(args[1:])
		case "export":
			return runExport(args[1:])
		case "seed":
			return runSeed(args[1:])
		}
	}
	return runServe(args)
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("memes-server", flag.ContinueOnError)
	configPath := fs.String("config", os.Getenv("MEMESHARE_CONFIG"), "path to YAML config file")
	addr := fs.String("addr", "", "listen address (overrides config)")
	dbPath := fs.String("db", "", "path to SQLite database (overrides config)")
	noSeed := fs.Bool("no-seed", false, "do not load the demo catalog into an empty database")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := serverconfig.Load(*configPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogJSON)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	database, err := openDatabase(cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx := context.Background()
	if err := prepare(ctx, database, cfg, !*noSeed, logger); err != nil {
		return err
	}

	handler, err := api.NewRouter(database, cfg, logger, serverVersion)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      0,
		IdleTimeout:       60 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("memes-server listening",
		zap.String("addr", server.Addr),
		zap.String("db", cfg.DBPath),
		zap.String("version", serverVersion))
	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	<-shutdownDone
	return nil
}

// prepare brings the database up to date and settles the token secret. A
// generated secret is stored on first start and reused after that.
func prepare(ctx context.Context, database *sql.DB, cfg *serverconfig.Config, seed bool, logger *zap.Logger) error {
	if cfg.EphemeralSecret {
		secret, err := db.EnsureSetting(ctx, database, db.SettingTokenSecret, cfg.JWTSecret)
		if err != nil {
			return fmt.Errorf("token secret: %w", err)
		}
		cfg.JWTSecret = secret
		cfg.EphemeralSecret = false
		logger.Info("using token secret stored in database")
	}
	if !seed {
		return nil
	}
	seeded, err := db.SeedDemo(ctx, database)
	if err != nil {
		return fmt.Errorf("seed demo catalog: %w", err)
	}
	if seeded {
		logger.Info("demo catalog loaded")
	}
	return nil
}

func openDatabase(path string) (*sql.DB, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.ApplyMigrations(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return database, nil
}

func runImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fromPath := fs.String("from", "", "path to YAML or JSON fixture file")
	dbPath := fs.String("db", "./memeshare.db", "path to SQLite database")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *fromPath == "" {
		return errors.New("missing --from")
	}

	database, err := openDatabase(*dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.ImportFromPath(context.Background(), database, *fromPath); err != nil {
		return err
	}
	fmt.Printf("import complete from %s into %s\n", *fromPath, *dbPath)
	return nil
}

func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	outPath := fs.String("out", "", "write the fixture here instead of stdout")
	dbPath := fs.String("db", "./memeshare.db", "path to SQLite database")
	if err := fs.Parse(args); err != nil {
		return err
	}

	database, err := openDatabase(*dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	fixture, err := db.ExportFixture(context.Background(), database)
	if err != nil {
		return err
	}
	b, err := yaml.Marshal(fixture)
	if err != nil {
		return err
	}
	if *outPath == "" {
		_, err = os.Stdout.Write(b)
		return err
	}
	return os.WriteFile(*outPath, b, 0o644)
}

func runSeed(args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	dbPath := fs.String("db", "./memeshare.db", "path to SQLite database")
	if err := fs.Parse(args); err != nil {
		return err
	}

	database, err := openDatabase(*dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	seeded, err := db.SeedDemo(context.Background(), database)
	if err != nil {
		return err
	}
	if !seeded {
		fmt.Println("demo catalog already loaded")
		return nil
	}
	fmt.Println("demo catalog loaded")
	return nil
}
