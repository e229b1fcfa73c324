package middleware

import (
	"context"
	"sync"

	"github.com/upb/structured-logger/models"
)

// recordingTransport keeps every written record
type recordingTransport struct {
	mu      sync.Mutex
	records []models.StructuredRecord
	err     error
}

func (t *recordingTransport) Write(ctx context.Context, records []models.StructuredRecord) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return t.err
	}
	t.records = append(t.records, records...)
	return nil
}

func (t *recordingTransport) Records() []models.StructuredRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]models.StructuredRecord(nil), t.records...)
}
