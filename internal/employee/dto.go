package employee

import (
	"strings"

	errors "github.com/frahmantamala/employee-records/internal"
	"github.com/frahmantamala/employee-records/internal/core/common/validation"
)

const (
	maxNameLength  = 100
	maxEmailLength = 255
	maxPhoneLength = 30
)

// CreateEmployeeDTO represents the request payload for creating an employee.
// id, createdAt and updatedAt are owned by the store and never read from input.
type CreateEmployeeDTO struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Department string `json:"department"`
}

// Normalize trims surrounding whitespace from every field.
func (dto *CreateEmployeeDTO) Normalize() {
	dto.FirstName = strings.TrimSpace(dto.FirstName)
	dto.LastName = strings.TrimSpace(dto.LastName)
	dto.Email = strings.TrimSpace(dto.Email)
	dto.Phone = strings.TrimSpace(dto.Phone)
	dto.Department = strings.TrimSpace(dto.Department)
}

// Validate checks every field is present and well formed.
func (dto CreateEmployeeDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("firstName", dto.FirstName).Required().Printable().MaxLength(maxNameLength)
	v.Field("lastName", dto.LastName).Required().Printable().MaxLength(maxNameLength)
	v.Field("email", dto.Email).Required().Printable().MaxLength(maxEmailLength).Email()
	v.Field("phone", dto.Phone).Required().Printable().MaxLength(maxPhoneLength).Phone()
	v.Field("department", dto.Department).Required().Printable().OneOf(Departments, errors.ErrCodeInvalidDepartment)

	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// UpdateEmployeeDTO represents a partial update. A nil field keeps its stored value.
type UpdateEmployeeDTO struct {
	FirstName  *string `json:"firstName,omitempty"`
	LastName   *string `json:"lastName,omitempty"`
	Email      *string `json:"email,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	Department *string `json:"department,omitempty"`
}

func (dto *UpdateEmployeeDTO) Normalize() {
	for _, f := range []*string{dto.FirstName, dto.LastName, dto.Email, dto.Phone, dto.Department} {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
}

// Validate checks only the supplied fields. A supplied field must still be non-empty.
func (dto UpdateEmployeeDTO) Validate() error {
	v := validation.NewValidator()
	if dto.FirstName != nil {
		v.Field("firstName", *dto.FirstName).Required().Printable().MaxLength(maxNameLength)
	}
	if dto.LastName != nil {
		v.Field("lastName", *dto.LastName).Required().Printable().MaxLength(maxNameLength)
	}
	if dto.Email != nil {
		v.Field("email", *dto.Email).Required().Printable().MaxLength(maxEmailLength).Email()
	}
	if dto.Phone != nil {
		v.Field("phone", *dto.Phone).Required().Printable().MaxLength(maxPhoneLength).Phone()
	}
	if dto.Department != nil {
		v.Field("department", *dto.Department).Required().Printable().OneOf(Departments, errors.ErrCodeInvalidDepartment)
	}

	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}
