/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the leave engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env and environment (config package), then apply flags
  2. Build the logger and message catalog
  3. Initialize SQLite store
  4. Seed the leave type catalog, bootstrap HR, roll recurring holidays
  5. Configure HTTP router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS (override the environment):
  -port    HTTP server port (PORT, default: 8080)
  -db      SQLite database path (DATABASE_PATH, default: leave.db)
           Use ":memory:" for in-memory database

ENVIRONMENT:
  LOG_LEVEL, LOG_FORMAT, DEFAULT_LOCALE, CORS_ORIGINS, UPLOAD_DIR,
  LEAVE_TYPES_FILE, BOOTSTRAP_HR_ID, BOOTSTRAP_HR_NAME.
  See config/config.go for defaults.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Settings
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/warp/leave-engine/api"
	"github.com/warp/leave-engine/config"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/i18n"
	"github.com/warp/leave-engine/store/sqlite"
	"github.com/warp/leave-engine/timeoff"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	// Flags
	port := flag.Int("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DatabasePath, "SQLite database path")
	flag.Parse()
	cfg.Port = *port
	cfg.DatabasePath = *dbPath

	log := config.NewLogger(cfg)
	i18n.Init(cfg.DefaultLocale)

	// Initialize store
	store, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	defer store.Close()

	// Initialize handler
	handler := api.NewHandler(store, log)
	handler.Reset = store.Reset
	handler.Uploads = &api.AttachmentDir{Root: cfg.UploadDir}
	handler.Service.Attachments = handler.Uploads
	handler.Service.Notifier = timeoff.LogNotifier{Log: log}

	if err := prepare(context.Background(), cfg, handler, log); err != nil {
		log.WithError(err).Fatal("failed to prepare database")
	}

	// Create router
	router := api.NewRouter(handler, cfg.CORSOrigins...)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.WithFields(logrus.Fields{"port": cfg.Port, "db": cfg.DatabasePath}).Info("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}

	log.Info("server stopped")
}

// prepare seeds the catalog and the first HR account, then moves stale
// recurring holidays to their next occurrence.
func prepare(ctx context.Context, cfg *config.Config, h *api.Handler, log logrus.FieldLogger) error {
	extra := timeoff.PresetTypes()
	if cfg.LeaveTypesFile != "" {
		types, err := h.Factory.LoadCatalogFile(cfg.LeaveTypesFile)
		if err != nil {
			return err
		}
		extra = append(extra, types...)
	}
	if _, err := h.Service.EnsureCatalog(ctx, extra); err != nil {
		return err
	}

	now := time.Now()
	if cfg.BootstrapHRID != "" {
		_, err := h.Service.BootstrapHR(ctx, timeoff.Employee{
			ID:       generic.EntityID(cfg.BootstrapHRID),
			FullName: cfg.BootstrapHRName,
			HireDate: generic.DateOf(now),
		})
		if err != nil {
			return err
		}
	}

	moved, err := h.Calendar.RollForwardRecurring(ctx, generic.DateOf(now))
	if err != nil {
		return err
	}
	log.WithField("holidays_moved", moved).Debug("calendar ready")
	return nil
}
