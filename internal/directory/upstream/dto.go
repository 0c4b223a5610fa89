package upstream

import (
	"encoding/json"

	"github.com/google/uuid"

	"staffgate/internal/directory/models"
)

// envelope is the upstream response wrapper: {"data": ..., "status": "..."}.
type envelope struct {
	Data   json.RawMessage `json:"data"`
	Status string          `json:"status"`
}

// hasData reports whether the payload is present and not JSON null.
func (e envelope) hasData() bool {
	return len(e.Data) > 0 && string(e.Data) != "null"
}

type employeeDTO struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"employee_name"`
	Salary int       `json:"employee_salary"`
	Age    int       `json:"employee_age"`
	Title  string    `json:"employee_title"`
	Email  string    `json:"employee_email"`
}

func (d employeeDTO) toEmployee() models.Employee {
	return models.Employee{
		ID:     d.ID,
		Name:   d.Name,
		Salary: d.Salary,
		Age:    d.Age,
		Title:  d.Title,
		Email:  d.Email,
	}
}

type deleteRequest struct {
	Name string `json:"name"`
}
