// Mizan Core - Masjid Management Platform
//
// This is the main entry point for the Mizan Core application.
// Mizan Core is the backend for multi-tenant masjid operations:
//   - MizanTV digital signage fleet (registration, heartbeats, slides)
//   - Donation tracking and event calendars per masjid
//   - Kiosk product catalogues
//   - Real-time dashboard updates over WebSocket
//
// For architecture details, see: docs/architecture/system-overview.md
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/XolifyDev/mizan-core/migrations"

	"github.com/XolifyDev/mizan-core/internal/api"
	"github.com/XolifyDev/mizan-core/internal/auth"
	"github.com/XolifyDev/mizan-core/internal/content"
	"github.com/XolifyDev/mizan-core/internal/device"
	"github.com/XolifyDev/mizan-core/internal/donation"
	"github.com/XolifyDev/mizan-core/internal/event"
	"github.com/XolifyDev/mizan-core/internal/infrastructure/config"
	"github.com/XolifyDev/mizan-core/internal/infrastructure/database"
	"github.com/XolifyDev/mizan-core/internal/infrastructure/influxdb"
	"github.com/XolifyDev/mizan-core/internal/infrastructure/logging"
	"github.com/XolifyDev/mizan-core/internal/infrastructure/mqtt"
	"github.com/XolifyDev/mizan-core/internal/masjid"
	"github.com/XolifyDev/mizan-core/internal/product"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Mizan Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Initialise device registry
	deviceRepo := device.NewSQLiteRepository(db.DB)
	deviceRegistry := device.NewRegistry(deviceRepo)
	deviceRegistry.SetLogger(log)

	if refreshErr := deviceRegistry.RefreshCache(ctx); refreshErr != nil {
		return fmt.Errorf("loading device registry: %w", refreshErr)
	}
	log.Info("device registry initialised", "devices", deviceRegistry.GetDeviceCount())

	// Domain repositories
	masjidRepo := masjid.NewSQLiteRepository(db.DB)
	contentRepo := content.NewSQLiteRepository(db.DB)
	donationRepo := donation.NewSQLiteRepository(db.DB)
	eventRepo := event.NewSQLiteRepository(db.DB)
	productRepo := product.NewSQLiteRepository(db.DB)
	historyRepo := device.NewSQLiteStatusHistoryRepository(db.DB)
	userRepo := auth.NewUserRepository(db.DB)
	tokenRepo := auth.NewTokenRepository(db.DB)

	// Seed the initial owner account on first boot. The generated
	// password is logged and must be changed immediately.
	if _, seedErr := auth.SeedOwner(ctx, userRepo, log.Logger); seedErr != nil {
		return fmt.Errorf("seeding owner account: %w", seedErr)
	}

	// Connect to MQTT broker (optional heartbeat ingest channel)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(discErr error) {
			log.Warn("MQTT disconnected", "error", discErr)
		})
	} else {
		log.Info("MQTT disabled, heartbeats ingest over HTTP only")
	}

	// Connect to InfluxDB (optional fleet telemetry)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(writeErr error) {
			log.Error("InfluxDB write error", "error", writeErr)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Start the API server
	apiServer, err := api.New(api.Deps{
		Config:        cfg.API,
		WS:            cfg.WebSocket,
		Security:      cfg.Security,
		Signage:       cfg.Signage,
		Logger:        log,
		Registry:      deviceRegistry,
		StatusHistory: historyRepo,
		Masjids:       masjidRepo,
		Content:       contentRepo,
		Donations:     donationRepo,
		Events:        eventRepo,
		Products:      productRepo,
		Users:         userRepo,
		Tokens:        tokenRepo,
		MQTT:          mqttClient,
		TSDB:          influxClient,
		Version:       version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := apiServer.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started",
		"address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
		"tls", cfg.API.TLS.Enabled,
	)

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, apiServer, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. API server (stops accepting requests first)
	// 2. InfluxDB (if enabled)
	// 3. MQTT (if enabled)
	// 4. Database

	log.Info("Mizan Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses MIZAN_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("MIZAN_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
// MQTT and InfluxDB clients may be nil when those channels are disabled.
func healthCheck(ctx context.Context, db *database.DB, apiServer *api.Server, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := apiServer.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
