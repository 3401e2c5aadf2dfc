package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/frahmantamala/employee-records/internal"
	"github.com/frahmantamala/employee-records/internal/employee"
)

type FormState string

const (
	FormIdle       FormState = "idle"
	FormSubmitting FormState = "submitting"
	FormSuccess    FormState = "success"
	FormError      FormState = "error"
)

var ErrFormBusy = errors.New("form is already submitting")

// FormValues are the editable employee fields.
type FormValues struct {
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	Department string
}

// Form holds create or edit input and walks idle -> submitting -> success|error -> idle.
// A failed submit keeps the values. A successful create clears them.
type Form struct {
	Values FormValues

	editID      int64
	state       FormState
	message     string
	fieldErrors map[string]string
	result      *employee.Employee
}

// NewCreateForm returns an empty form that creates a new employee on submit.
func NewCreateForm() *Form {
	return &Form{state: FormIdle}
}

// NewEditForm returns a form prefilled from e that updates it on submit.
func NewEditForm(e *employee.Employee) *Form {
	return &Form{
		editID: e.ID,
		state:  FormIdle,
		Values: FormValues{
			FirstName:  e.FirstName,
			LastName:   e.LastName,
			Email:      e.Email,
			Phone:      e.Phone,
			Department: e.Department,
		},
	}
}

func (f *Form) State() FormState { return f.state }

// Message is the last error or success message.
func (f *Form) Message() string { return f.message }

// FieldErrors maps field name to message from the last failed validation.
func (f *Form) FieldErrors() map[string]string { return f.fieldErrors }

// Result is the employee returned by the last successful submit.
func (f *Form) Result() *employee.Employee { return f.result }

func (f *Form) IsEdit() bool { return f.editID != 0 }

// Reset returns a finished form to idle, keeping its values.
func (f *Form) Reset() {
	if f.state == FormSubmitting {
		return
	}
	f.state = FormIdle
	f.message = ""
	f.fieldErrors = nil
}

func (f *Form) dto() *employee.CreateEmployeeDTO {
	dto := &employee.CreateEmployeeDTO{
		FirstName:  f.Values.FirstName,
		LastName:   f.Values.LastName,
		Email:      f.Values.Email,
		Phone:      f.Values.Phone,
		Department: f.Values.Department,
	}
	dto.Normalize()
	return dto
}

// Validate applies the shared record rules locally. The server revalidates.
func (f *Form) Validate() error {
	err := f.dto().Validate()
	f.fieldErrors = fieldErrors(err)
	return err
}

// Submit validates and, if valid, creates or updates through dir. Validation
// failures never reach the server.
func (f *Form) Submit(ctx context.Context, dir *Directory) error {
	if f.state == FormSubmitting {
		return ErrFormBusy
	}

	f.state = FormSubmitting
	f.message = ""
	f.fieldErrors = nil

	if err := f.Validate(); err != nil {
		return f.fail(err)
	}

	dto := f.dto()
	var (
		saved *employee.Employee
		err   error
	)
	if f.IsEdit() {
		saved, err = dir.Update(ctx, f.editID, &employee.UpdateEmployeeDTO{
			FirstName:  &dto.FirstName,
			LastName:   &dto.LastName,
			Email:      &dto.Email,
			Phone:      &dto.Phone,
			Department: &dto.Department,
		})
	} else {
		saved, err = dir.Create(ctx, dto)
	}
	if err != nil && saved == nil {
		return f.fail(err)
	}

	f.result = saved
	f.state = FormSuccess
	if f.IsEdit() {
		f.message = fmt.Sprintf("Employee %s updated", saved.FullName())
	} else {
		f.message = fmt.Sprintf("Employee %s created", saved.FullName())
		f.Values = FormValues{}
	}
	// the mutation succeeded; a failed refetch only leaves the cache stale
	if err != nil {
		dir.Invalidate()
	}
	return nil
}

func (f *Form) fail(err error) error {
	f.state = FormError
	f.message = errorMessage(err)
	if apiErr, ok := AsAPIError(err); ok && apiErr.IsConflict() {
		f.fieldErrors = map[string]string{"email": apiErr.Message}
	}
	return err
}

func errorMessage(err error) string {
	if apiErr, ok := AsAPIError(err); ok {
		return apiErr.Message
	}
	if appErr, ok := internal.IsAppError(err); ok {
		return appErr.GetDetailedMessage()
	}
	return err.Error()
}

func fieldErrors(err error) map[string]string {
	appErr, ok := internal.IsAppError(err)
	if !ok {
		return nil
	}
	details, ok := appErr.Details.(internal.ValidationErrors)
	if !ok || len(details.Errors) == 0 {
		return nil
	}
	out := make(map[string]string, len(details.Errors))
	for _, fe := range details.Errors {
		out[fe.Field] = fe.Message
	}
	return out
}
