// Package server implements the receiver REST API: the sync endpoint
// devices push payloads to and the query endpoints reporting tools
// read from.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/healthbridge/healthbridge/internal/database"
	"github.com/healthbridge/healthbridge/internal/log"
	"github.com/healthbridge/healthbridge/pkg/config"
)

// Controller represents the receiver API controller
type Controller struct {
	ctx            context.Context
	wg             *sync.WaitGroup
	configProvider config.ConfigProvider
	serverConfig   config.ServerData
	Server         http.Server
	DB             *database.Client
	logger         *zap.SugaredLogger
	handlers       *Handlers
}

// NewController creates a new receiver API controller and connects its
// database
func NewController(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, sc config.ServerData, logger *zap.SugaredLogger) (*Controller, error) {
	ctrl := &Controller{
		ctx:            ctx,
		wg:             wg,
		configProvider: configProvider,
		serverConfig:   sc,
		logger:         logger,
	}

	if ctrl.serverConfig.Port == 0 {
		logger.Info("server port not specified; defaulting to 8099")
		ctrl.serverConfig.Port = 8099
	}

	if ctrl.serverConfig.ListenAddr == "" {
		logger.Info("server listen-addr not provided; defaulting to 0.0.0.0 (all interfaces)")
		ctrl.serverConfig.ListenAddr = "0.0.0.0"
	}

	if ctrl.serverConfig.APIKey == "" {
		return nil, fmt.Errorf("server requires an api-key; refusing to start unauthenticated")
	}

	if sc.Database == nil || sc.Database.ConnectionString == "" {
		return nil, fmt.Errorf("server requires a database connection string")
	}

	ctrl.DB = database.NewClient(sc.Database.ConnectionString, logger)
	if err := ctrl.DB.Connect(); err != nil {
		return nil, fmt.Errorf("receiver could not connect to database: %v", err)
	}

	ctrl.handlers = NewHandlers(ctrl.DB, logger)

	router := ctrl.setupRouter()
	ctrl.Server.Addr = fmt.Sprintf("%v:%v", ctrl.serverConfig.ListenAddr, ctrl.serverConfig.Port)
	ctrl.Server.Handler = router

	return ctrl, nil
}

// StartController starts the receiver API server
func (c *Controller) StartController() error {
	log.Info("Starting receiver API controller...")
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		c.logger.Infof("Receiver API server starting on %s", c.Server.Addr)

		var err error
		if c.serverConfig.Cert != "" && c.serverConfig.Key != "" {
			c.logger.Info("Starting receiver API server with TLS")
			err = c.Server.ListenAndServeTLS(c.serverConfig.Cert, c.serverConfig.Key)
		} else {
			c.logger.Info("Starting receiver API server without TLS")
			err = c.Server.ListenAndServe()
		}

		if err != http.ErrServerClosed {
			log.Errorf("Receiver API server error: %v", err)
		}
	}()

	go func() {
		<-c.ctx.Done()
		log.Info("Shutting down the receiver API server...")
		c.Server.Shutdown(context.Background())
		c.DB.Close()
	}()

	return nil
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()

	// Apply middleware
	router.Use(c.loggingMiddleware)

	// Health check (no auth required)
	router.HandleFunc("/api/health/ping", c.handlers.Ping).Methods("GET")

	// API routes (with authentication)
	api := router.PathPrefix("/api").Subrouter()
	api.Use(c.authMiddleware)

	// Sync endpoint (devices push here)
	api.HandleFunc("/health/sync", c.handlers.SyncHealthData).Methods("POST")

	// Query endpoints (agent and report tooling read from here)
	api.HandleFunc("/health/summary", c.handlers.GetSummary).Methods("GET")
	api.HandleFunc("/health/latest", c.handlers.GetLatest).Methods("GET")
	api.HandleFunc("/health/workouts", c.handlers.ListWorkouts).Methods("GET")
	api.HandleFunc("/health/mood", c.handlers.ListMood).Methods("GET")
	api.HandleFunc("/health/sleep", c.handlers.ListSleep).Methods("GET")

	return router
}

// loggingMiddleware logs all requests
func (c *Controller) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		c.logger.Infof("%s %s %s %v", r.Method, r.RequestURI, r.RemoteAddr, time.Since(start))
	})
}

// authMiddleware validates the X-API-Key header
func (c *Controller) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != c.serverConfig.APIKey {
			c.logger.Debugf("Auth failed for %s", r.URL.Path)
			http.Error(w, "Invalid API key", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
