package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/frahmantamala/employee-records/api"
	"github.com/frahmantamala/employee-records/internal"
	"github.com/frahmantamala/employee-records/internal/core/events"
	"github.com/frahmantamala/employee-records/internal/employee"
	employeeRepo "github.com/frahmantamala/employee-records/internal/employee/postgres"
	"github.com/frahmantamala/employee-records/internal/metrics"
	"github.com/frahmantamala/employee-records/internal/transport"
	"github.com/frahmantamala/employee-records/internal/transport/rest"
	"github.com/frahmantamala/employee-records/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	Gorm     *gorm.DB
	Router   *chi.Mux
	EventBus *events.EventBus
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	setupRoutes(deps)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr, "driver", deps.Config.Database.Driver)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), deps.Config.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", logger.Err(err))
		}
		// let audit handlers started by in-flight requests finish
		deps.EventBus.Wait()
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("Database close error", logger.Err(err))
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", logger.Err(err))
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) {
	cfg := deps.Config

	var m *metrics.Metrics
	if cfg.Observability.Metrics.Enabled {
		m = deps.Metrics
	}

	repo := employeeRepo.NewEmployeeRepository(deps.Gorm, deps.Metrics, cfg.Database.QueryTimeout)
	service := employee.NewService(repo, deps.EventBus, deps.Metrics, deps.Logger)
	handler := employee.NewHandler(transport.NewBaseHandler(deps.Logger), service)

	rest.RegisterAllRoutes(deps.Router, rest.RouterConfig{
		Health:          rest.NewHealthHandler(deps.DB.DB, cfg.Database.Driver),
		EmployeeHandler: handler,
		Metrics:         m,
		MetricsPath:     cfg.Observability.Metrics.Path,
		AllowedOrigins:  cfg.Server.Origins(),
		Logger:          deps.Logger,
	})
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.LoggerWrapper()

	if _, err := api.Load(context.Background()); err != nil {
		return nil, err
	}

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gdb, err := openGorm(db, config.Database, lg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	if config.Database.AutoMigrate {
		if err := employeeRepo.AutoMigrate(gdb); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to auto-migrate: %w", err)
		}
		lg.Info("employees table migrated")
	}

	m := metrics.NewMetrics()

	bus := events.NewEventBus(lg)
	employee.NewAuditSubscriber(lg, m).Register(bus)

	return &Dependencies{
		Config:   config,
		Logger:   lg,
		DB:       db,
		Gorm:     gdb,
		Router:   chi.NewRouter(),
		EventBus: bus,
		Metrics:  m,
	}, nil
}

// initDB opens and verifies the connection pool for the configured driver
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	driver := cfg.SQLDriverName()

	dbConn, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", cfg.Driver, err)
	}

	maxOpen := cfg.MaxOpenConns
	if cfg.Driver == internal.DriverSQLite && strings.Contains(cfg.GetDSN(), ":memory:") {
		// every connection to :memory: is a separate database
		maxOpen = 1
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle > maxOpen {
		maxIdle = maxOpen
	}

	dbConn.SetMaxOpenConns(maxOpen)
	dbConn.SetMaxIdleConns(maxIdle)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// openGorm layers gorm over the existing pool so both share one set of connections
func openGorm(db *sqlx.DB, cfg internal.DatabaseConfig, lg *slog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case internal.DriverSQLite:
		dialector = &sqlite.Dialector{Conn: db.DB}
	default:
		dialector = postgres.New(postgres.Config{Conn: db.DB})
	}

	gdb, err := gorm.Open(dialector, employeeRepo.GormConfig(lg))
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}
	return gdb, nil
}
