package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/upb/structured-logger/models"
	"go.uber.org/zap/zapcore"
)

// Transport delivers formatted records
type Transport interface {
	Write(ctx context.Context, records []models.StructuredRecord) error
}

// Named is implemented by transports that report a name for metrics and logs
type Named interface {
	Name() string
}

func transportName(t Transport) string {
	if n, ok := t.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", t)
}

// StreamTransport writes records as JSON lines
type StreamTransport struct {
	out zapcore.WriteSyncer
}

// NewStreamTransport creates a StreamTransport writing to out
func NewStreamTransport(out zapcore.WriteSyncer) *StreamTransport {
	return &StreamTransport{out: out}
}

// Name implements Named
func (t *StreamTransport) Name() string {
	return "stream"
}

// Write encodes every record on its own line, writes the batch at once and syncs
func (t *StreamTransport) Write(ctx context.Context, records []models.StructuredRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("failed to encode record: %w", err)
		}
	}

	if _, err := t.out.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write records: %w", err)
	}
	return t.out.Sync()
}

// MultiTransport writes every batch to each of its transports
type MultiTransport struct {
	transports []Transport
}

// NewMultiTransport creates a MultiTransport
func NewMultiTransport(transports ...Transport) *MultiTransport {
	return &MultiTransport{transports: transports}
}

// Name implements Named
func (t *MultiTransport) Name() string {
	return "multi"
}

// Write writes to all transports, even after a failure, and returns the first error
func (t *MultiTransport) Write(ctx context.Context, records []models.StructuredRecord) error {
	var firstErr error
	for _, tr := range t.transports {
		if err := tr.Write(ctx, records); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%s: %w", transportName(tr), err)
		}
	}
	return firstErr
}
