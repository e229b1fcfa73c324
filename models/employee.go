package models

import "time"

// EmployeeDataType is the data_type of employee change records
const EmployeeDataType = "employee"

// Employee is the demo entity whose lifecycle is data change logged
type Employee struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Title     string    `json:"title" db:"title"`
	SSN       string    `json:"-" db:"ssn"`
	Salary    int64     `json:"salary" db:"salary"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Employee model
func (Employee) TableName() string {
	return "employees"
}

// NewEmployee creates a new Employee stamped with the given time
func NewEmployee(name, email, title, ssn string, salary int64, now time.Time) *Employee {
	return &Employee{
		Name:      name,
		Email:     email,
		Title:     title,
		SSN:       ssn,
		Salary:    salary,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Attributes returns the loggable state of the employee in column order
func (e *Employee) Attributes() *Attributes {
	return NewAttributes(
		Attr("id", e.ID),
		Attr("name", e.Name),
		Attr("email", e.Email),
		Attr("title", e.Title),
		Attr("ssn", e.SSN),
		Attr("salary", e.Salary),
		Attr("created_at", e.CreatedAt),
		Attr("updated_at", e.UpdatedAt),
	)
}

// Snapshot returns a Snapshot of the employee's current state
func (e *Employee) Snapshot(redactor RedactionSource) *Snapshot {
	return NewSnapshot(e.ID, EmployeeDataType, e.Attributes()).WithRedactor(redactor)
}
