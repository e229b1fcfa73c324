package middleware

import (
	"context"
	"net"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/upb/structured-logger/internal/observability"
	"github.com/upb/structured-logger/models"
	"github.com/upb/structured-logger/services/datachange"
	"github.com/upb/structured-logger/services/formatter"
	"github.com/upb/structured-logger/services/handler"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// StructuredLoggingConfig configures StructuredLogging
type StructuredLoggingConfig struct {
	Level            zapcore.Level
	TraceHeader      string
	Environment      string
	Service          string
	BookkeepingField string
	FlushTimeout     time.Duration
}

// StructuredLogging gives every request its own batch handler and data change
// service, and flushes the batch once the response is known
type StructuredLogging struct {
	transport handler.Transport
	logger    *zap.Logger
	metrics   *observability.Metrics
	cfg       StructuredLoggingConfig
}

// NewStructuredLogging creates a new StructuredLogging middleware
func NewStructuredLogging(transport handler.Transport, logger *zap.Logger, metrics *observability.Metrics, cfg StructuredLoggingConfig) *StructuredLogging {
	if cfg.TraceHeader == "" {
		cfg.TraceHeader = "X-Trace-Id"
	}
	if cfg.FlushTimeout <= 0 {
		cfg.FlushTimeout = 5 * time.Second
	}
	return &StructuredLogging{
		transport: transport,
		logger:    logger,
		metrics:   metrics,
		cfg:       cfg,
	}
}

// Handler wraps next. Records logged while serving the request are written
// when it returns, including when it panics.
func (m *StructuredLogging) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		processID := newProcessID(r.Context())
		traceID := r.Header.Get(m.cfg.TraceHeader)

		batch := handler.New(m.transport, m.logger,
			handler.WithLevel(m.cfg.Level),
			handler.WithMetrics(m.metrics))
		changes := datachange.NewService(batch, m.logger,
			datachange.WithBookkeepingField(m.cfg.BookkeepingField),
			datachange.WithMetrics(m.metrics))

		ctx := WithBatch(r.Context(), batch)
		ctx = WithDataChanges(ctx, changes)
		ctx = WithProcessID(ctx, processID)
		r = r.WithContext(ctx)

		if traceID != "" {
			w.Header().Set(m.cfg.TraceHeader, traceID)
		} else {
			w.Header().Set(m.cfg.TraceHeader, processID)
		}

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			p := recover()
			if p != nil {
				status = http.StatusInternalServerError
			}

			pc := models.ProcessContext{ProcessID: processID}.
				WithRequest(models.RequestInfo{
					Method:        r.Method,
					URL:           fullURL(r),
					RemoteAddress: remoteAddress(r),
					TraceID:       traceID,
				}).
				WithResponse(status).
				WithProcessStart(start).
				WithEnvironment(m.cfg.Environment, m.cfg.Service)
			if causer := GetCauserFromContext(ctx); causer != nil {
				pc = pc.WithCauser(causer.ID, causer.Type, causer.Impersonator)
			}

			batch.SetFormatter(formatter.New(pc))

			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cfg.FlushTimeout)
			defer cancel()
			if err := batch.Close(flushCtx); err != nil {
				m.logger.Error("failed to flush structured records",
					zap.String("process_id", pc.TraceID()),
					zap.Error(err))
			}

			if p != nil {
				panic(p)
			}
		}()

		next.ServeHTTP(ww, r)
	})
}

// newProcessID uses the trace id of an active span, so records line up with traces
func newProcessID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return uuid.NewString()
}

func fullURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

func remoteAddress(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
