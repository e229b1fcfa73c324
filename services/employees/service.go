package employees

import (
	"context"
	"fmt"
	"time"

	"github.com/upb/structured-logger/models"
	"github.com/upb/structured-logger/repositories"
	"github.com/upb/structured-logger/services"
	"github.com/upb/structured-logger/services/datachange"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Action record messages
const (
	MessageEmployeeHired      = "Employee Hired"
	MessageEmployeeTerminated = "Employee Terminated"
)

// HireInput is the payload for hiring an employee
type HireInput struct {
	Name   string `json:"name" validate:"required,min=1,max=255"`
	Email  string `json:"email" validate:"required,email"`
	Title  string `json:"title" validate:"max=255"`
	SSN    string `json:"ssn" validate:"omitempty,max=32"`
	Salary int64  `json:"salary" validate:"gte=0"`
}

// UpdateInput is the payload for updating an employee. Nil fields are left unchanged.
type UpdateInput struct {
	Name   *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Email  *string `json:"email,omitempty" validate:"omitempty,email"`
	Title  *string `json:"title,omitempty" validate:"omitempty,max=255"`
	SSN    *string `json:"ssn,omitempty" validate:"omitempty,max=32"`
	Salary *int64  `json:"salary,omitempty" validate:"omitempty,gte=0"`
}

// LoggingScope resolves the data change service and the action sink of the
// process serving ctx. Either may be nil, in which case nothing is logged.
type LoggingScope func(ctx context.Context) (*datachange.Service, datachange.Sink)

// Service manages employees and logs every change to them
type Service struct {
	repo     repositories.EmployeeRepository
	redactor models.RedactionSource
	scope    LoggingScope
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a new employee service
func NewService(repo repositories.EmployeeRepository, redactor models.RedactionSource, scope LoggingScope, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		redactor: redactor,
		scope:    scope,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Hire creates an employee
func (s *Service) Hire(ctx context.Context, input HireInput) (*models.Employee, error) {
	existing, err := s.repo.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("hire employee: %w", err)
	}
	if existing != nil {
		return nil, services.NewConflictError("an employee with this email already exists").
			WithDetail("email", input.Email)
	}

	employee := models.NewEmployee(input.Name, input.Email, input.Title, input.SSN, input.Salary, s.now())
	if err := s.repo.Create(ctx, employee); err != nil {
		return nil, fmt.Errorf("hire employee: %w", err)
	}

	changes, actions := s.resolve(ctx)
	if changes != nil {
		if err := changes.RecordCreated(employee.Snapshot(s.redactor)); err != nil {
			s.logger.Warn("failed to record employee creation", zap.Error(err))
		}
	}
	if actions != nil {
		actions.Log(zapcore.InfoLevel, MessageEmployeeHired, actionContext("hire", employee.ID))
	}

	return employee, nil
}

// Get returns an employee
func (s *Service) Get(ctx context.Context, id int64) (*models.Employee, error) {
	employee, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get employee: %w", err)
	}
	if employee == nil {
		return nil, services.NewNotFoundError("employee", id)
	}
	return employee, nil
}

// List returns a page of employees
func (s *Service) List(ctx context.Context, limit, offset int) ([]*models.Employee, error) {
	employees, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	return employees, nil
}

// Update applies input to an employee. The update timestamp is always bumped,
// so a request that changes nothing else is stored but not logged.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (*models.Employee, error) {
	employee, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Email != nil && *input.Email != employee.Email {
		other, err := s.repo.GetByEmail(ctx, *input.Email)
		if err != nil {
			return nil, fmt.Errorf("update employee: %w", err)
		}
		if other != nil {
			return nil, services.NewConflictError("an employee with this email already exists").
				WithDetail("email", *input.Email)
		}
	}

	snapshot := employee.Snapshot(s.redactor)

	if input.Name != nil {
		employee.Name = *input.Name
	}
	if input.Email != nil {
		employee.Email = *input.Email
	}
	if input.Title != nil {
		employee.Title = *input.Title
	}
	if input.SSN != nil {
		employee.SSN = *input.SSN
	}
	if input.Salary != nil {
		employee.Salary = *input.Salary
	}
	employee.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, employee); err != nil {
		return nil, fmt.Errorf("update employee: %w", err)
	}

	employee.Attributes().Each(func(key string, value any) {
		snapshot.Apply(key, value)
	})

	if changes, _ := s.resolve(ctx); changes != nil {
		if err := changes.RecordUpdated(snapshot); err != nil {
			s.logger.Warn("failed to record employee update", zap.Error(err))
		}
	}

	return employee, nil
}

// Terminate deletes an employee
func (s *Service) Terminate(ctx context.Context, id int64) error {
	employee, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("terminate employee: %w", err)
	}

	changes, actions := s.resolve(ctx)
	if changes != nil {
		if err := changes.RecordDeleted(employee.Snapshot(s.redactor)); err != nil {
			s.logger.Warn("failed to record employee deletion", zap.Error(err))
		}
	}
	if actions != nil {
		actions.Log(zapcore.InfoLevel, MessageEmployeeTerminated, actionContext("terminate", id))
	}

	return nil
}

func (s *Service) resolve(ctx context.Context) (*datachange.Service, datachange.Sink) {
	if s.scope == nil {
		return nil, nil
	}
	return s.scope(ctx)
}

func actionContext(name string, employeeID int64) map[string]any {
	return map[string]any{
		string(models.CategoryAction): map[string]any{
			"name":        name,
			"employee_id": employeeID,
		},
	}
}
