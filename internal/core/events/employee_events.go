package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeEmployeeCreated = "employee.created"
	EventTypeEmployeeUpdated = "employee.updated"
	EventTypeEmployeeDeleted = "employee.deleted"
)

type EmployeeEvent struct {
	BaseEvent
	EmployeeID    int64    `json:"employee_id"`
	Department    string   `json:"department,omitempty"`
	ChangedFields []string `json:"changed_fields,omitempty"`
}

func newEmployeeEvent(eventType string, employeeID int64, department string, changed []string) *EmployeeEvent {
	data := map[string]interface{}{
		"employee_id": employeeID,
	}
	if department != "" {
		data["department"] = department
	}
	if len(changed) > 0 {
		data["changed_fields"] = changed
	}

	return &EmployeeEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data:      data,
		},
		EmployeeID:    employeeID,
		Department:    department,
		ChangedFields: changed,
	}
}

func NewEmployeeCreatedEvent(employeeID int64, department string) *EmployeeEvent {
	return newEmployeeEvent(EventTypeEmployeeCreated, employeeID, department, nil)
}

func NewEmployeeUpdatedEvent(employeeID int64, department string, changedFields []string) *EmployeeEvent {
	return newEmployeeEvent(EventTypeEmployeeUpdated, employeeID, department, changedFields)
}

func NewEmployeeDeletedEvent(employeeID int64) *EmployeeEvent {
	return newEmployeeEvent(EventTypeEmployeeDeleted, employeeID, "", nil)
}
