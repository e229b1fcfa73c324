package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/upb/structured-logger/models"
	"github.com/upb/structured-logger/repositories"
	"go.uber.org/zap"
)

const employeeColumns = `id, name, email, title, ssn, salary, created_at, updated_at`

// EmployeeRepository implements the repositories.EmployeeRepository interface
type EmployeeRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *DB, logger *zap.Logger) repositories.EmployeeRepository {
	return &EmployeeRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new employee
func (r *EmployeeRepository) Create(ctx context.Context, employee *models.Employee) error {
	query := `
		INSERT INTO employees (name, email, title, ssn, salary, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	executor := GetExecutor(ctx, r.db)
	err := executor.QueryRowContext(ctx, query,
		employee.Name,
		employee.Email,
		employee.Title,
		employee.SSN,
		employee.Salary,
		employee.CreatedAt,
		employee.UpdatedAt,
	).Scan(&employee.ID)
	if err != nil {
		return fmt.Errorf("failed to create employee: %w", err)
	}

	r.logger.Debug("employee created", zap.Int64("id", employee.ID))
	return nil
}

// GetByID retrieves an employee by ID
func (r *EmployeeRepository) GetByID(ctx context.Context, id int64) (*models.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetByEmail retrieves an employee by email
func (r *EmployeeRepository) GetByEmail(ctx context.Context, email string) (*models.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE email = $1`
	return r.getOne(ctx, query, email)
}

func (r *EmployeeRepository) getOne(ctx context.Context, query string, arg any) (*models.Employee, error) {
	executor := GetExecutor(ctx, r.db)
	employee, err := scanEmployee(executor.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return employee, nil
}

// List retrieves employees ordered by ID
func (r *EmployeeRepository) List(ctx context.Context, limit, offset int) ([]*models.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees ORDER BY id LIMIT $1 OFFSET $2`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	employees := []*models.Employee{}
	for rows.Next() {
		employee, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, employee)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating employee rows: %w", err)
	}

	return employees, nil
}

// Update updates an employee
func (r *EmployeeRepository) Update(ctx context.Context, employee *models.Employee) error {
	query := `
		UPDATE employees
		SET name = $2,
		    email = $3,
		    title = $4,
		    ssn = $5,
		    salary = $6,
		    updated_at = $7
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		employee.ID,
		employee.Name,
		employee.Email,
		employee.Title,
		employee.SSN,
		employee.Salary,
		employee.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update employee: %w", err)
	}

	return requireOneRow(result, employee.ID)
}

// Delete deletes an employee
func (r *EmployeeRepository) Delete(ctx context.Context, id int64) error {
	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete employee: %w", err)
	}

	return requireOneRow(result, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (*models.Employee, error) {
	employee := &models.Employee{}
	err := row.Scan(
		&employee.ID,
		&employee.Name,
		&employee.Email,
		&employee.Title,
		&employee.SSN,
		&employee.Salary,
		&employee.CreatedAt,
		&employee.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return employee, nil
}

func requireOneRow(result sql.Result, id int64) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("employee not found: %d", id)
	}
	return nil
}
