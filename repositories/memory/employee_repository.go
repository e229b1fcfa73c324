// Package memory holds in-process repository implementations used when no
// database is configured.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/upb/structured-logger/models"
	"github.com/upb/structured-logger/repositories"
)

// EmployeeRepository is an in-memory repositories.EmployeeRepository.
// Stored employees are copied in and out so callers never share state.
type EmployeeRepository struct {
	mu        sync.RWMutex
	nextID    int64
	employees map[int64]models.Employee
}

// NewEmployeeRepository creates an empty in-memory employee repository
func NewEmployeeRepository() repositories.EmployeeRepository {
	return &EmployeeRepository{employees: make(map[int64]models.Employee)}
}

func (r *EmployeeRepository) Create(_ context.Context, employee *models.Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.employees {
		if existing.Email == employee.Email {
			return fmt.Errorf("failed to create employee: email %q already exists", employee.Email)
		}
	}

	r.nextID++
	employee.ID = r.nextID
	r.employees[employee.ID] = *employee
	return nil
}

func (r *EmployeeRepository) GetByID(_ context.Context, id int64) (*models.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	employee, ok := r.employees[id]
	if !ok {
		return nil, nil
	}
	return &employee, nil
}

func (r *EmployeeRepository) GetByEmail(_ context.Context, email string) (*models.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, employee := range r.employees {
		if employee.Email == email {
			found := employee
			return &found, nil
		}
	}
	return nil, nil
}

func (r *EmployeeRepository) List(_ context.Context, limit, offset int) ([]*models.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]int64, 0, len(r.employees))
	for id := range r.employees {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	employees := []*models.Employee{}
	for i := offset; i < len(ids) && (limit <= 0 || len(employees) < limit); i++ {
		employee := r.employees[ids[i]]
		employees = append(employees, &employee)
	}
	return employees, nil
}

func (r *EmployeeRepository) Update(_ context.Context, employee *models.Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.employees[employee.ID]; !ok {
		return fmt.Errorf("employee not found: %d", employee.ID)
	}
	r.employees[employee.ID] = *employee
	return nil
}

func (r *EmployeeRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.employees[id]; !ok {
		return fmt.Errorf("employee not found: %d", id)
	}
	delete(r.employees, id)
	return nil
}
