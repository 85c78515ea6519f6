package app

import (
	"context"
	"fmt"
	"syscall"
	"time"

	"github.com/andy/fuellog/internal/backup"
	"github.com/andy/fuellog/internal/config"
	"github.com/andy/fuellog/internal/crypto"
	"github.com/andy/fuellog/internal/db"
	"github.com/andy/fuellog/internal/logging"
	"github.com/andy/fuellog/internal/repository"
	"github.com/andy/fuellog/internal/service"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

// App is the dependency injection container for all application components
type App struct {
	Config *config.Config
	DB     *db.DB
	Log    *logrus.Logger

	// Repositories
	EntryRepo   repository.FuelEntryRepository
	HistoryRepo repository.HistoryRepository

	// Services
	FuelService   service.FuelService
	StatsService  service.StatsService
	BackupService *backup.Service
}

// New creates a new App instance, initializing all dependencies
// It handles:
// 1. Loading .env and config
// 2. Getting encryption key from keyring
// 3. Opening database
// 4. Running migrations
// 5. Creating repositories
// 6. Creating services
func New(ctx context.Context) (*App, error) {
	path := config.DefaultConfigPath()

	// .env may carry FUELLOG_DB_KEY or FUELLOG_LOG_LEVEL, so it goes first
	if err := config.LoadEnv(path); err != nil {
		return nil, err
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return NewWithConfig(ctx, cfg)
}

// NewWithConfig creates an App with a provided config (useful for testing)
func NewWithConfig(ctx context.Context, cfg *config.Config) (*App, error) {
	log, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to configure logging: %w", err)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	password, err := loadKey(crypto.NewKeyring())
	if err != nil {
		return nil, err
	}

	return newApp(ctx, cfg, log, password)
}

// NewWithKey skips the keyring and opens the database with password
func NewWithKey(ctx context.Context, cfg *config.Config, log *logrus.Logger, password string) (*App, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}
	return newApp(ctx, cfg, log, password)
}

func newApp(ctx context.Context, cfg *config.Config, log *logrus.Logger, password string) (*App, error) {
	database, err := db.Open(cfg.Database.Path, password)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMigrationLogger(log.WithField("component", "migrations"))
	if err := database.RunMigrations(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	entryRepo := repository.NewEntryRepo(database)
	historyRepo := repository.NewHistoryRepo(database)

	fuelService := service.NewFuelService(entryRepo, historyRepo, log)

	return &App{
		Config:        cfg,
		DB:            database,
		Log:           log,
		EntryRepo:     entryRepo,
		HistoryRepo:   historyRepo,
		FuelService:   fuelService,
		StatsService:  service.NewStatsService(fuelService),
		BackupService: backup.NewService(fuelService, log),
	}, nil
}

// loadKey fetches the database key, asking for a new one on first run
func loadKey(keyring crypto.Keyring) (string, error) {
	password, err := keyring.GetKey()
	if err == nil {
		return password, nil
	}

	// No key exists, prompt user to set one
	fmt.Println("Setting up database encryption for the first time...")
	password, err = promptForPassword()
	if err != nil {
		return "", fmt.Errorf("failed to set password: %w", err)
	}

	if err := keyring.SetKey(password); err != nil {
		return "", fmt.Errorf("failed to store encryption key: %w", err)
	}
	return password, nil
}

// Close cleanly shuts down the application
func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}

// promptForPassword prompts user for a new database password (first run)
// This should be called when keyring has no stored key
func promptForPassword() (string, error) {
	fmt.Println()
	fmt.Println("Your refuelling log will be encrypted with a password.")
	fmt.Println("This password will be stored securely in your system keyring.")
	fmt.Println()
	fmt.Print("Enter a password for database encryption: ")

	// Read password securely (no echo)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	if len(password) == 0 {
		return "", fmt.Errorf("password cannot be empty")
	}

	fmt.Print("Confirm password: ")
	confirm, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read confirmation: %w", err)
	}

	if string(password) != string(confirm) {
		return "", fmt.Errorf("passwords do not match")
	}

	fmt.Println()
	fmt.Println("✓ Database encryption configured successfully")
	fmt.Println()

	return string(password), nil
}

// DefaultBackupPath is where `export` writes when no path is given
func (a *App) DefaultBackupPath() string {
	return backup.DefaultBackupPath(a.Config.Backup.Dir, a.Config.Backup.FilenamePrefix, time.Now())
}

// SaveConfig saves the current configuration to disk
func (a *App) SaveConfig() error {
	return a.Config.Save(config.DefaultConfigPath())
}
