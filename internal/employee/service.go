package employee

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/employee-records/internal"
	employeeDatamodel "github.com/frahmantamala/employee-records/internal/core/datamodel/employee"
	"github.com/frahmantamala/employee-records/internal/core/events"
	"github.com/frahmantamala/employee-records/internal/metrics"
)

// RepositoryAPI is the record store. Reads return nil, nil when no row matches.
type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]*employeeDatamodel.Employee, error)
	GetByID(ctx context.Context, id int64) (*employeeDatamodel.Employee, error)
	GetByEmail(ctx context.Context, email string) (*employeeDatamodel.Employee, error)
	Create(ctx context.Context, employee *employeeDatamodel.Employee) error
	Update(ctx context.Context, employee *employeeDatamodel.Employee) error
	Delete(ctx context.Context, id int64) error
}

const (
	opList   = "list"
	opGet    = "get"
	opCreate = "create"
	opUpdate = "update"
	opDelete = "delete"
)

type Service struct {
	repo      RepositoryAPI
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewService wires the employee service. publisher and m may be nil.
func NewService(repo RepositoryAPI, publisher events.Publisher, m *metrics.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

func (s *Service) ListEmployees(ctx context.Context) ([]*Employee, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to list employees", "error", err)
		s.metrics.RecordOperation(opList, "error")
		return nil, internal.NewInternalError("Error al obtener los empleados", err)
	}

	employees := make([]*Employee, 0, len(rows))
	for _, row := range rows {
		employees = append(employees, FromDataModel(row))
	}

	s.metrics.RecordOperation(opList, "success")
	s.logger.Debug("listed employees", "count", len(employees))
	return employees, nil
}

func (s *Service) GetEmployee(ctx context.Context, id int64) (*Employee, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to get employee", "error", err, "employee_id", id)
		s.metrics.RecordOperation(opGet, "error")
		return nil, internal.NewInternalError("Error al obtener el empleado", err)
	}
	if row == nil {
		s.metrics.RecordOperation(opGet, "not_found")
		return nil, internal.ErrEmployeeNotFound
	}

	s.metrics.RecordOperation(opGet, "success")
	return FromDataModel(row), nil
}

func (s *Service) CreateEmployee(ctx context.Context, dto *CreateEmployeeDTO) (*Employee, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		s.logger.Debug("employee validation failed", "error", err)
		s.metrics.RecordOperation(opCreate, "invalid")
		return nil, err
	}

	if err := s.ensureEmailAvailable(ctx, opCreate, dto.Email, 0); err != nil {
		return nil, err
	}

	row := ToDataModel(NewEmployee(dto))
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, s.writeError(opCreate, "Error al crear el empleado", err, "email", dto.Email)
	}

	created := FromDataModel(row)
	s.metrics.RecordOperation(opCreate, "success")
	s.publish(ctx, events.NewEmployeeCreatedEvent(created.ID, created.Department))
	s.logger.Info("employee created", "employee_id", created.ID, "department", created.Department)

	return created, nil
}

// UpdateEmployee applies a partial update. Only fields present in dto change.
func (s *Service) UpdateEmployee(ctx context.Context, id int64, dto *UpdateEmployeeDTO) (*Employee, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		s.logger.Debug("employee validation failed", "error", err, "employee_id", id)
		s.metrics.RecordOperation(opUpdate, "invalid")
		return nil, err
	}

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to load employee for update", "error", err, "employee_id", id)
		s.metrics.RecordOperation(opUpdate, "error")
		return nil, internal.NewInternalError("Error al actualizar el empleado", err)
	}
	if row == nil {
		s.metrics.RecordOperation(opUpdate, "not_found")
		return nil, internal.ErrEmployeeNotFound
	}

	current := FromDataModel(row)
	changed := current.ApplyUpdate(dto)

	if dto.Email != nil {
		if err := s.ensureEmailAvailable(ctx, opUpdate, current.Email, id); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, ToDataModel(current)); err != nil {
		return nil, s.writeError(opUpdate, "Error al actualizar el empleado", err, "employee_id", id)
	}

	// reload so the response carries the timestamps the store actually wrote
	row, err = s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to reload employee after update", "error", err, "employee_id", id)
		s.metrics.RecordOperation(opUpdate, "error")
		return nil, internal.NewInternalError("Error al actualizar el empleado", err)
	}
	if row == nil {
		s.metrics.RecordOperation(opUpdate, "not_found")
		return nil, internal.ErrEmployeeNotFound
	}

	updated := FromDataModel(row)
	s.metrics.RecordOperation(opUpdate, "success")
	s.publish(ctx, events.NewEmployeeUpdatedEvent(updated.ID, updated.Department, changed))
	s.logger.Info("employee updated", "employee_id", updated.ID, "changed_fields", changed)

	return updated, nil
}

func (s *Service) DeleteEmployee(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.writeError(opDelete, "Error al eliminar el empleado", err, "employee_id", id)
	}

	s.metrics.RecordOperation(opDelete, "success")
	s.publish(ctx, events.NewEmployeeDeletedEvent(id))
	s.logger.Info("employee deleted", "employee_id", id)
	return nil
}

// ensureEmailAvailable rejects an email already held by another employee. The
// unique index still decides races between concurrent writers.
func (s *Service) ensureEmailAvailable(ctx context.Context, op, email string, ownerID int64) error {
	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		s.metrics.RecordOperation(op, "error")
		s.logger.Error("failed to check employee email", "error", err)
		return internal.NewInternalError("Error al guardar el empleado", err)
	}
	if existing != nil && existing.ID != ownerID {
		s.metrics.RecordOperation(op, "conflict")
		return internal.ErrDuplicateEmail
	}
	return nil
}

// writeError classifies a store write failure into the matching AppError.
func (s *Service) writeError(op, message string, err error, attrs ...any) error {
	switch {
	case errors.Is(err, ErrDuplicateEmail):
		s.metrics.RecordOperation(op, "conflict")
		s.logger.Debug("duplicate employee email", attrs...)
		return internal.ErrDuplicateEmail.WithCause(err)
	case errors.Is(err, ErrEmployeeNotFound):
		s.metrics.RecordOperation(op, "not_found")
		return internal.ErrEmployeeNotFound
	default:
		s.metrics.RecordOperation(op, "error")
		s.logger.Error("employee store write failed", append([]any{"operation", op, "error", err}, attrs...)...)
		return internal.NewInternalError(message, err)
	}
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish employee event", "event_type", event.EventType(), "error", err)
	}
}
