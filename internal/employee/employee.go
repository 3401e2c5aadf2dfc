package employee

import (
	"errors"
	"strconv"
	"strings"
	"time"

	employeeDatamodel "github.com/frahmantamala/employee-records/internal/core/datamodel/employee"
)

// Departments is the fixed set an employee can belong to.
var Departments = []string{
	"IT",
	"HR",
	"Finance",
	"Marketing",
	"Operations",
	"Sales",
	"Research",
}

// Domain errors returned by the record store.
var (
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrDuplicateEmail   = errors.New("employee email already exists")
)

type Employee struct {
	ID         int64     `json:"id"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Department string    `json:"department"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// NewEmployee builds an unsaved employee. The store assigns ID and timestamps.
func NewEmployee(dto *CreateEmployeeDTO) *Employee {
	return &Employee{
		FirstName:  dto.FirstName,
		LastName:   dto.LastName,
		Email:      dto.Email,
		Phone:      dto.Phone,
		Department: dto.Department,
	}
}

// ApplyUpdate copies the supplied fields onto e and reports which ones changed.
func (e *Employee) ApplyUpdate(dto *UpdateEmployeeDTO) []string {
	var changed []string

	set := func(field string, dst *string, src *string) {
		if src == nil || *dst == *src {
			return
		}
		*dst = *src
		changed = append(changed, field)
	}

	set("firstName", &e.FirstName, dto.FirstName)
	set("lastName", &e.LastName, dto.LastName)
	set("email", &e.Email, dto.Email)
	set("phone", &e.Phone, dto.Phone)
	set("department", &e.Department, dto.Department)

	return changed
}

// FullName joins first and last name.
func (e *Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// Matches reports whether term occurs, case-insensitively, in any field of e.
// An empty term matches everything.
func (e *Employee) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}

	values := []string{
		strconv.FormatInt(e.ID, 10),
		e.FirstName,
		e.LastName,
		e.Email,
		e.Phone,
		e.Department,
	}
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), term) {
			return true
		}
	}
	return false
}

func ToDataModel(e *Employee) *employeeDatamodel.Employee {
	return &employeeDatamodel.Employee{
		ID:         e.ID,
		FirstName:  e.FirstName,
		LastName:   e.LastName,
		Email:      e.Email,
		Phone:      e.Phone,
		Department: e.Department,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

func FromDataModel(e *employeeDatamodel.Employee) *Employee {
	return &Employee{
		ID:         e.ID,
		FirstName:  e.FirstName,
		LastName:   e.LastName,
		Email:      e.Email,
		Phone:      e.Phone,
		Department: e.Department,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}
