package middleware

import (
	"context"

	"github.com/upb/structured-logger/services/datachange"
	"github.com/upb/structured-logger/services/handler"
)

// Context key type to avoid collisions
type contextKey string

const (
	// BatchKey is the context key for the per-request batch handler
	BatchKey contextKey = "structured_log_batch"

	// DataChangesKey is the context key for the per-request data change service
	DataChangesKey contextKey = "data_changes"

	// CauserKey is the context key for the identity that caused the request
	CauserKey contextKey = "causer"

	// ProcessIDKey is the context key for the process id of the request
	ProcessIDKey contextKey = "process_id"
)

// Causer identifies who caused the records of a request, and who impersonated them
type Causer struct {
	ID           string
	Type         string
	Impersonator string
}

// GetBatchFromContext retrieves the batch handler from context
func GetBatchFromContext(ctx context.Context) *handler.Batch {
	if val := ctx.Value(BatchKey); val != nil {
		if batch, ok := val.(*handler.Batch); ok {
			return batch
		}
	}
	return nil
}

// WithBatch adds a batch handler to the context
func WithBatch(ctx context.Context, batch *handler.Batch) context.Context {
	return context.WithValue(ctx, BatchKey, batch)
}

// GetDataChangesFromContext retrieves the data change service from context
func GetDataChangesFromContext(ctx context.Context) *datachange.Service {
	if val := ctx.Value(DataChangesKey); val != nil {
		if svc, ok := val.(*datachange.Service); ok {
			return svc
		}
	}
	return nil
}

// WithDataChanges adds a data change service to the context
func WithDataChanges(ctx context.Context, svc *datachange.Service) context.Context {
	return context.WithValue(ctx, DataChangesKey, svc)
}

// GetCauserFromContext retrieves the causer from context
func GetCauserFromContext(ctx context.Context) *Causer {
	if val := ctx.Value(CauserKey); val != nil {
		if causer, ok := val.(*Causer); ok {
			return causer
		}
	}
	return nil
}

// WithCauser adds a causer to the context
func WithCauser(ctx context.Context, causer *Causer) context.Context {
	return context.WithValue(ctx, CauserKey, causer)
}

// GetProcessIDFromContext retrieves the process id from context
func GetProcessIDFromContext(ctx context.Context) string {
	if val := ctx.Value(ProcessIDKey); val != nil {
		if processID, ok := val.(string); ok {
			return processID
		}
	}
	return ""
}

// WithProcessID adds a process id to the context
func WithProcessID(ctx context.Context, processID string) context.Context {
	return context.WithValue(ctx, ProcessIDKey, processID)
}
