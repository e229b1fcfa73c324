package handler

import (
	"context"
	"sync"
	"time"

	"github.com/upb/structured-logger/internal/observability"
	"github.com/upb/structured-logger/models"
	"github.com/upb/structured-logger/services"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Formatter converts the buffered raw records at close time
type Formatter interface {
	FormatBatch(raws []models.RawRecord) ([]models.StructuredRecord, error)
}

// Batch buffers the raw records of one process and writes them, formatted,
// when the process ends. It is safe for concurrent use.
type Batch struct {
	transport Transport
	logger    *zap.Logger
	metrics   *observability.Metrics
	level     zapcore.Level
	now       func() time.Time

	mu        sync.Mutex
	formatter Formatter
	records   []models.RawRecord
	closed    bool
}

// Option configures a Batch
type Option func(*Batch)

// WithLevel sets the minimum level of accepted records
func WithLevel(level zapcore.Level) Option {
	return func(b *Batch) {
		b.level = level
	}
}

// WithFormatter sets the formatter used on Close
func WithFormatter(f Formatter) Option {
	return func(b *Batch) {
		b.formatter = f
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(m *observability.Metrics) Option {
	return func(b *Batch) {
		b.metrics = m
	}
}

// WithClock sets the clock used to stamp records without a datetime
func WithClock(now func() time.Time) Option {
	return func(b *Batch) {
		b.now = now
	}
}

// New creates a Batch writing to transport
func New(transport Transport, logger *zap.Logger, opts ...Option) *Batch {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Batch{
		transport: transport,
		logger:    logger,
		level:     zapcore.DebugLevel,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Handle buffers rec. It reports false when the record is below the level
// threshold or the batch is already closed.
func (b *Batch) Handle(rec models.RawRecord) bool {
	if rec.Level < b.level {
		return false
	}
	if rec.Datetime.IsZero() {
		rec.Datetime = b.now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}
	b.records = append(b.records, rec)
	b.metrics.IncBuffered()
	return true
}

// HandleBatch buffers every record and returns how many were accepted
func (b *Batch) HandleBatch(recs []models.RawRecord) int {
	accepted := 0
	for _, rec := range recs {
		if b.Handle(rec) {
			accepted++
		}
	}
	return accepted
}

// Log implements datachange.Sink
func (b *Batch) Log(level zapcore.Level, message string, context map[string]any) {
	b.Handle(models.RawRecord{
		Message: message,
		Level:   level,
		Context: context,
	})
}

// SetFormatter sets the formatter used on Close. The process context is often
// only complete at the end of the process, so it can be set late.
func (b *Batch) SetFormatter(f Formatter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.formatter = f
}

// Len returns the number of buffered records
func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.records)
}

// Drop discards the buffered records
func (b *Batch) Drop() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(b.records)
	b.records = nil
	if n > 0 {
		b.logger.Debug("dropped buffered records", zap.Int("count", n))
	}
	return n
}

// Close formats the buffered records and writes them to the transport.
// The buffer is emptied whatever the outcome, and later calls do nothing.
func (b *Batch) Close(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	records := b.records
	formatter := b.formatter
	b.records = nil
	b.mu.Unlock()

	if len(records) == 0 {
		return nil
	}

	start := time.Now()
	defer func() {
		b.metrics.ObserveFlush(time.Since(start))
	}()

	if formatter == nil {
		b.metrics.IncFlushFailure()
		b.logger.Error("dropping records of batch without formatter", zap.Int("count", len(records)))
		return services.ErrNoFormatter
	}

	structured, err := formatter.FormatBatch(records)
	if err != nil {
		b.metrics.IncFlushFailure()
		b.logger.Error("failed to format records", zap.Int("count", len(records)), zap.Error(err))
		return err
	}

	name := transportName(b.transport)
	if err := b.transport.Write(ctx, structured); err != nil {
		b.metrics.IncFlushFailure()
		b.logger.Error("failed to write records",
			zap.String("transport", name),
			zap.Int("count", len(structured)),
			zap.Error(err))
		return services.WrapTransport(name, err)
	}

	b.metrics.AddFlushed(name, len(structured))
	b.logger.Debug("flushed records",
		zap.String("transport", name),
		zap.Int("count", len(structured)))
	return nil
}
