package models

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	dErrors "staffgate/pkg/domain-errors"
)

// Employee is a directory entry as the upstream API reports it. Entries are
// created upstream and never mutated locally.
type Employee struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Salary int       `json:"salary"`
	Age    int       `json:"age"`
	Title  string    `json:"title"`
	Email  string    `json:"email"`
}

const (
	MinAge = 16
	MaxAge = 75
)

// CreateEmployeeInput is a request to create a directory entry.
type CreateEmployeeInput struct {
	Name   string `json:"name" validate:"required,notblank"`
	Salary int    `json:"salary" validate:"required,gt=0"`
	Age    int    `json:"age" validate:"required,min=16,max=75"`
	Title  string `json:"title" validate:"required,notblank"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func inputValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	})
	return validate
}

// Validate checks the input against the directory's business rules. Failures
// carry CodeInvalidInput.
func (in *CreateEmployeeInput) Validate() error {
	if in == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "request body is required")
	}
	err := inputValidator().Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid employee input")
	}
	return dErrors.New(dErrors.CodeInvalidInput, describe(fieldErrs[0]))
}

func describe(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch {
	case field == "age" && fe.Tag() == "min":
		return "employee age must be at least 16 years old"
	case field == "age" && fe.Tag() == "max":
		return "employee age must not exceed 75 years old"
	case fe.Tag() == "gt":
		return field + " must be positive"
	default:
		return field + " is required"
	}
}

// Snapshot is the full directory as of one upstream fetch. A published
// snapshot is never modified; a different view means a new fetch.
type Snapshot struct {
	Employees []Employee
	FetchedAt time.Time
}

// NewSnapshot copies employees so later changes to the caller's slice do not
// leak into the published view.
func NewSnapshot(employees []Employee, fetchedAt time.Time) *Snapshot {
	owned := make([]Employee, len(employees))
	copy(owned, employees)
	return &Snapshot{Employees: owned, FetchedAt: fetchedAt}
}

// Len returns the number of employees in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Employees)
}

// FindByID linearly scans the snapshot for id.
func (s *Snapshot) FindByID(id uuid.UUID) (Employee, bool) {
	if s == nil {
		return Employee{}, false
	}
	for _, e := range s.Employees {
		if e.ID == id {
			return e, true
		}
	}
	return Employee{}, false
}
