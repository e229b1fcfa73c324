package repositories

import (
	"context"

	"github.com/upb/structured-logger/models"
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// RecordRepository persists structured records.
// It satisfies handler.Transport so a batch handler can write to it directly.
type RecordRepository interface {
	// Write inserts a batch of records atomically
	Write(ctx context.Context, records []models.StructuredRecord) error

	// ListByProcessID returns the records of one process in insertion order
	ListByProcessID(ctx context.Context, processID string) ([]models.StructuredRecord, error)
}

// EmployeeRepository stores employees
type EmployeeRepository interface {
	// Create inserts an employee and assigns its ID
	Create(ctx context.Context, employee *models.Employee) error

	// GetByID returns an employee, or nil when it does not exist
	GetByID(ctx context.Context, id int64) (*models.Employee, error)

	// GetByEmail returns an employee, or nil when it does not exist
	GetByEmail(ctx context.Context, email string) (*models.Employee, error)

	// List returns employees ordered by ID
	List(ctx context.Context, limit, offset int) ([]*models.Employee, error)

	// Update replaces every column of an existing employee
	Update(ctx context.Context, employee *models.Employee) error

	// Delete removes an employee
	Delete(ctx context.Context, id int64) error
}
