package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/XolifyDev/mizan-core/internal/auth"
	"github.com/XolifyDev/mizan-core/internal/content"
	"github.com/XolifyDev/mizan-core/internal/device"
	"github.com/XolifyDev/mizan-core/internal/donation"
	"github.com/XolifyDev/mizan-core/internal/event"
	"github.com/XolifyDev/mizan-core/internal/infrastructure/config"
	"github.com/XolifyDev/mizan-core/internal/infrastructure/influxdb"
	"github.com/XolifyDev/mizan-core/internal/infrastructure/logging"
	"github.com/XolifyDev/mizan-core/internal/infrastructure/mqtt"
	"github.com/XolifyDev/mizan-core/internal/masjid"
	"github.com/XolifyDev/mizan-core/internal/product"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Security config.SecurityConfig
	Signage  config.SignageConfig
	Logger   *logging.Logger

	Registry      *device.Registry
	StatusHistory device.StatusHistoryRepository

	Masjids   masjid.Repository
	Content   content.Repository
	Donations donation.Repository
	Events    event.Repository
	Products  product.Repository
	Users     auth.UserRepository
	Tokens    auth.TokenRepository

	MQTT *mqtt.Client     // optional: heartbeat ingest + command publish
	TSDB *influxdb.Client // optional: fleet telemetry

	ExternalHub *Hub // If set, the server uses this hub instead of creating its own
	Version     string
}

// Server is the HTTP API server for Mizan Core.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg     config.APIConfig
	wsCfg   config.WebSocketConfig
	secCfg  config.SecurityConfig
	sigCfg  config.SignageConfig
	logger  *logging.Logger
	version string

	registry      *device.Registry
	statusHistory device.StatusHistoryRepository
	masjidRepo    masjid.Repository
	contentRepo   content.Repository
	donationRepo  donation.Repository
	eventRepo     event.Repository
	productRepo   product.Repository
	userRepo      auth.UserRepository
	tokenRepo     auth.TokenRepository
	resolver      *content.Resolver

	mqtt *mqtt.Client
	tsdb *influxdb.Client

	server      *http.Server
	hub         *Hub
	externalHub bool               // true if hub was injected externally
	cancel      context.CancelFunc // cancels background goroutines on Close()
	startTime   time.Time
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("device registry is required")
	}
	if deps.Masjids == nil || deps.Content == nil {
		return nil, fmt.Errorf("masjid and content repositories are required")
	}
	if deps.Users == nil || deps.Tokens == nil {
		return nil, fmt.Errorf("user and token repositories are required")
	}
	// MQTT and InfluxDB are optional; HTTP heartbeats and WebSocket relay
	// still function without them.

	s := &Server{
		cfg:           deps.Config,
		wsCfg:         deps.WS,
		secCfg:        deps.Security,
		sigCfg:        deps.Signage,
		logger:        deps.Logger,
		registry:      deps.Registry,
		statusHistory: deps.StatusHistory,
		masjidRepo:    deps.Masjids,
		contentRepo:   deps.Content,
		donationRepo:  deps.Donations,
		eventRepo:     deps.Events,
		productRepo:   deps.Products,
		userRepo:      deps.Users,
		tokenRepo:     deps.Tokens,
		mqtt:          deps.MQTT,
		tsdb:          deps.TSDB,
		version:       deps.Version,
		startTime:     time.Now(),
	}

	s.resolver = content.NewResolver(deps.Content, device.ConfigDefaults{
		SlideDuration: deps.Signage.DefaultSlideDuration,
		Theme:         deps.Signage.DefaultTheme,
	}, deps.Signage.SlideLimit)

	// Use externally-provided hub if available (needed when another
	// component also broadcasts through it).
	if deps.ExternalHub != nil {
		s.hub = deps.ExternalHub
		s.externalHub = true
	}

	return s, nil
}

// Start begins listening for HTTP connections.
//
// It sets up the router, starts the WebSocket hub, subscribes to the MQTT
// heartbeat topics for ingest and WebSocket relay, and launches the HTTP
// listener in a background goroutine. The server can be stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	// Create internal context so Close() can stop background goroutines
	// independently of the parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	// Create WebSocket hub (unless one was injected externally)
	if s.hub == nil {
		s.hub = NewHub(s.wsCfg, s.logger)
		go s.hub.Run(srvCtx)
	}

	// Start periodic ticket cleanup to prevent memory leaks
	go s.cleanTicketsLoop(srvCtx)

	// Subscribe to device heartbeats published over MQTT
	if err := s.subscribeHeartbeats(); err != nil {
		s.logger.Warn("failed to subscribe to MQTT heartbeats", "error", err)
	}

	// Build router
	router := s.buildRouter()

	// Create HTTP server
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	// Start listening in background
	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	// Cancel background goroutines (hub, ticket cleanup)
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// configDefaults returns the server-side display config fallbacks from
// the signage section of the application config.
func (s *Server) configDefaults() device.ConfigDefaults {
	return device.ConfigDefaults{
		SlideDuration: s.sigCfg.DefaultSlideDuration,
		Theme:         s.sigCfg.DefaultTheme,
	}
}

// HealthCheck verifies the API server is running and responsive.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
