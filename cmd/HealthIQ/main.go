package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/devang-458/HealthIQ/internal/api"
	"github.com/devang-458/HealthIQ/internal/cache"
	"github.com/devang-458/HealthIQ/internal/store"
	"github.com/devang-458/HealthIQ/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for HealthIQ state data
	DefaultStateDir = "/var/lib/healthiq"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "healthiq.db"
)

func main() {
	// Initialize structured logger
	initializeLogger()

	// Load environment configuration
	config := loadEnvironmentConfig()

	// Parse command line flags
	flags := parseCommandLineFlags(config)

	st, err := openStore(flags)
	if err != nil {
		slog.Error("Failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	srv := api.NewServer(st, buildAPIOptions(flags)...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("Bootstrapping HealthIQ")
	if err := srv.Run(ctx); err != nil {
		slog.Error("HealthIQ failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("HealthIQ exited successfully")
}

// Config holds environment configuration
type Config struct {
	DatabaseURL string
	StateDir    string
	APIAddr     string
	JWTSecret   string
	RefreshCron string
	SnapshotTTL time.Duration
	DBMaxOpen   int
}

// Flags holds command line flag values
type Flags struct {
	stateDir    *string
	dbDSN       *string
	apiAddr     *string
	jwtSecret   *string
	refreshCron *string
	snapshotTTL *time.Duration
	dbMaxOpen   *int
}

// initializeLogger sets up structured logging with debug level
func initializeLogger() {
	opts := &slog.HandlerOptions{Level: slog.LevelDebug}
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if util.ParseBoolEnv("LOG_JSON", false) {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		StateDir:    os.Getenv("HEALTHIQ_STATE_DIR"),
		APIAddr:     os.Getenv("API_ADDR"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		RefreshCron: os.Getenv("REFRESH_SCHEDULE"),
		SnapshotTTL: util.ParseDurationEnv("SNAPSHOT_TTL", cache.DefaultTTL),
		DBMaxOpen:   util.ParseIntEnv("DB_MAX_OPEN_CONNS", 0),
	}

	// Set default state directory if not specified
	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No HEALTHIQ_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}

	// If no database URL is provided, default to SQLite in the state directory
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"HEALTHIQ_STATE_DIR", config.StateDir,
		"API_ADDR", config.APIAddr,
		"JWT_SECRET_SET", config.JWTSecret != "",
		"REFRESH_SCHEDULE", config.RefreshCron,
		"SNAPSHOT_TTL", config.SnapshotTTL,
		"DB_MAX_OPEN_CONNS", config.DBMaxOpen)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:    flag.String("state-dir", config.StateDir, "state directory for HealthIQ data (overrides $HEALTHIQ_STATE_DIR)"),
		dbDSN:       flag.String("db-dsn", config.DatabaseURL, "database DSN, PostgreSQL URL or SQLite path (overrides $DATABASE_URL)"),
		apiAddr:     flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		jwtSecret:   flag.String("jwt-secret", config.JWTSecret, "session token signing secret (overrides $JWT_SECRET)"),
		refreshCron: flag.String("refresh-cron", config.RefreshCron, "cron schedule for the assessment refresh job (overrides $REFRESH_SCHEDULE)"),
		snapshotTTL: flag.Duration("snapshot-ttl", config.SnapshotTTL, "snapshot cache lifetime (overrides $SNAPSHOT_TTL)"),
		dbMaxOpen:   flag.Int("db-max-open-conns", config.DBMaxOpen, "database connection pool cap, 0 for the backend default (overrides $DB_MAX_OPEN_CONNS)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"apiAddr", *flags.apiAddr,
		"jwtSecretSet", *flags.jwtSecret != "",
		"refreshCron", *flags.refreshCron,
		"snapshotTTL", *flags.snapshotTTL,
		"dbMaxOpen", *flags.dbMaxOpen)

	// Keep the SQLite default in step with an overridden state directory
	if *flags.dbDSN == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated dbDSN based on state directory", "new_state_dir", *flags.stateDir)
	}

	return flags
}

// openStore selects and opens a storage backend from the DSN.
func openStore(flags Flags) (store.Store, error) {
	if *flags.dbDSN == "" {
		slog.Debug("No database DSN provided, using in-memory store")
		return store.NewInMemoryStore(), nil
	}
	if store.DetectDSNType(*flags.dbDSN) == "postgres" {
		slog.Debug("Detected PostgreSQL DSN, opening PostgreSQL store", "dsn_set", true)
		st, err := store.NewPostgresStore(store.WithDSN(*flags.dbDSN), store.WithMaxOpenConns(*flags.dbMaxOpen))
		if err != nil {
			return nil, err
		}
		return st, nil
	}
	slog.Debug("Detected SQLite DSN, opening SQLite store", "db_path", *flags.dbDSN)
	st, err := store.NewSQLiteStore(store.WithDSN(*flags.dbDSN), store.WithMaxOpenConns(*flags.dbMaxOpen))
	if err != nil {
		return nil, err
	}
	return st, nil
}

// buildAPIOptions constructs API server configuration options
func buildAPIOptions(flags Flags) []api.Option {
	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	if *flags.jwtSecret != "" {
		apiOpts = append(apiOpts, api.WithJWTSecret(*flags.jwtSecret))
	}
	if *flags.refreshCron != "" {
		apiOpts = append(apiOpts, api.WithRefreshCron(*flags.refreshCron))
	}
	if *flags.snapshotTTL > 0 {
		apiOpts = append(apiOpts, api.WithSnapshotTTL(*flags.snapshotTTL))
	}
	return apiOpts
}
