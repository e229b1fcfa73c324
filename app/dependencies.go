package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/upb/structured-logger/config"
	"github.com/upb/structured-logger/internal/observability"
	"github.com/upb/structured-logger/middleware"
	"github.com/upb/structured-logger/repositories"
	"github.com/upb/structured-logger/repositories/memory"
	"github.com/upb/structured-logger/repositories/postgres"
	redisrepo "github.com/upb/structured-logger/repositories/redis"
	"github.com/upb/structured-logger/services/datachange"
	"github.com/upb/structured-logger/services/employees"
	"github.com/upb/structured-logger/services/handler"
	"github.com/upb/structured-logger/services/redaction"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// employeeSensitiveFields are always redacted from employee change records
var employeeSensitiveFields = []string{"ssn", "salary"}

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config   *config.Config
	Logger   *zap.Logger
	Registry *prometheus.Registry
	Metrics  *observability.Metrics
	DB       *postgres.DB    // set with the postgres transport
	Redis    *goredis.Client // set with the redis transport

	// Structured records
	Transport         handler.Transport
	Causers           *middleware.CauserMiddleware
	StructuredLogging *middleware.StructuredLogging

	// Employees
	EmployeeRedaction *redaction.Policy
	Employees         repositories.EmployeeRepository
	EmployeeService   *employees.Service

	closers []func() error
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	deps.initMetrics()

	if err := deps.initTransport(ctx); err != nil {
		_ = deps.Close(ctx)
		return nil, fmt.Errorf("failed to initialize transport: %w", err)
	}

	if err := deps.initMiddleware(); err != nil {
		_ = deps.Close(ctx)
		return nil, fmt.Errorf("failed to initialize middleware: %w", err)
	}

	deps.initEmployees()

	logger.Info("all dependencies initialized successfully",
		zap.String("transport", cfg.Handler.Transport))
	return deps, nil
}

// initMetrics registers the collectors on a registry owned by the dependencies
func (d *Dependencies) initMetrics() {
	d.Registry = prometheus.NewRegistry()
	d.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	d.Metrics = observability.NewMetrics(d.Registry)
}

// initTransport opens the configured record transport
func (d *Dependencies) initTransport(ctx context.Context) error {
	cfg := d.Config

	switch cfg.Handler.Transport {
	case config.TransportPostgres:
		db, err := postgres.NewDB(cfg.Database, d.Logger)
		if err != nil {
			return err
		}
		d.DB = db
		d.closers = append(d.closers, db.Close)

		if cfg.Database.InitSchema {
			if err := db.InitSchema(ctx); err != nil {
				return err
			}
		}
		d.Transport = postgres.NewRecordRepository(db, d.Logger)
		d.Employees = postgres.NewEmployeeRepository(db, d.Logger)

	case config.TransportRedis:
		client, err := redisrepo.NewClient(cfg.Redis)
		if err != nil {
			return err
		}
		d.Redis = client
		d.closers = append(d.closers, client.Close)
		d.Transport = redisrepo.NewRecordList(client, cfg.Redis.ListKey, d.Logger)

	default:
		stream, err := d.openStream(cfg.Handler.StreamTarget)
		if err != nil {
			return err
		}
		d.Transport = stream
		return nil
	}

	if cfg.Handler.MirrorStream {
		stream, err := d.openStream(cfg.Handler.StreamTarget)
		if err != nil {
			return err
		}
		d.Transport = handler.NewMultiTransport(d.Transport, stream)
	}
	return nil
}

// openStream opens stdout, stderr or a file as a JSON lines transport
func (d *Dependencies) openStream(target string) (*handler.StreamTransport, error) {
	switch target {
	case "stdout":
		// Terminals and pipes reject fsync, so Sync is hidden
		return handler.NewStreamTransport(zapcore.AddSync(struct{ io.Writer }{os.Stdout})), nil
	case "stderr":
		return handler.NewStreamTransport(zapcore.AddSync(struct{ io.Writer }{os.Stderr})), nil
	}

	sink, closeSink, err := zap.Open(target)
	if err != nil {
		return nil, fmt.Errorf("failed to open stream target %q: %w", target, err)
	}
	d.closers = append(d.closers, func() error {
		closeSink()
		return nil
	})
	return handler.NewStreamTransport(sink), nil
}

func (d *Dependencies) initMiddleware() error {
	cfg := d.Config

	level, err := observability.ParseLevel(cfg.Handler.Level)
	if err != nil {
		return err
	}

	d.Causers = middleware.NewCauserMiddleware(cfg.Auth.JWTSecret, cfg.Auth.DefaultCauserType, d.Logger)
	d.StructuredLogging = middleware.NewStructuredLogging(d.Transport, d.Logger, d.Metrics, middleware.StructuredLoggingConfig{
		Level:            level,
		TraceHeader:      cfg.Handler.TraceHeader,
		Environment:      cfg.Environment,
		Service:          cfg.Logging.Service,
		BookkeepingField: cfg.DataChange.BookkeepingField,
		FlushTimeout:     cfg.Handler.FlushTimeout,
	})
	return nil
}

func (d *Dependencies) initEmployees() {
	if d.Employees == nil {
		d.Employees = memory.NewEmployeeRepository()
	}
	d.EmployeeRedaction = redaction.NewPolicy(
		redaction.WithAlways(employeeSensitiveFields...),
		redaction.WithNever(d.Config.DataChange.NeverRedact...),
	)
	d.EmployeeService = employees.NewService(d.Employees, d.EmployeeRedaction, RequestLoggingScope, d.Logger)
}

// RequestLoggingScope returns the data change service and batch stored in ctx by
// the structured logging middleware
func RequestLoggingScope(ctx context.Context) (*datachange.Service, datachange.Sink) {
	changes := middleware.GetDataChangesFromContext(ctx)
	batch := middleware.GetBatchFromContext(ctx)
	if batch == nil {
		return changes, nil
	}
	return changes, batch
}

// SQLDB returns the database pool, or nil without the postgres transport
func (d *Dependencies) SQLDB() *sql.DB {
	if d.DB == nil {
		return nil
	}
	return d.DB.DB
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil

	// Sync logger
	_ = d.Logger.Sync()

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
