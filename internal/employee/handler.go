package employee

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/frahmantamala/employee-records/internal"
	"github.com/frahmantamala/employee-records/internal/transport"
	"github.com/go-chi/chi"
)

// maxBodyBytes caps a create or update payload.
const maxBodyBytes = 1 << 20

type ServiceAPI interface {
	ListEmployees(ctx context.Context) ([]*Employee, error)
	GetEmployee(ctx context.Context, id int64) (*Employee, error)
	CreateEmployee(ctx context.Context, dto *CreateEmployeeDTO) (*Employee, error)
	UpdateEmployee(ctx context.Context, id int64, dto *UpdateEmployeeDTO) (*Employee, error)
	DeleteEmployee(ctx context.Context, id int64) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

// Routes mounts the employee collection on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.ListEmployees)
	r.Post("/", h.CreateEmployee)
	r.Get("/{id}", h.GetEmployee)
	r.Put("/{id}", h.UpdateEmployee)
	r.Delete("/{id}", h.DeleteEmployee)
}

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Service.ListEmployees(r.Context())
	if err != nil {
		h.RequestLogger(r).Error("ListEmployees: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, employees)
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := h.employeeID(w, r)
	if !ok {
		return
	}

	employee, err := h.Service.GetEmployee(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, employee)
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var dto CreateEmployeeDTO
	if !h.decode(w, r, &dto) {
		return
	}

	employee, err := h.Service.CreateEmployee(r.Context(), &dto)
	if err != nil {
		h.RequestLogger(r).Warn("CreateEmployee: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.RequestLogger(r).Info("CreateEmployee: employee created successfully",
		"employee_id", employee.ID,
		"department", employee.Department)

	h.WriteJSON(w, http.StatusCreated, employee)
}

func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := h.employeeID(w, r)
	if !ok {
		return
	}

	var dto UpdateEmployeeDTO
	if !h.decode(w, r, &dto) {
		return
	}

	employee, err := h.Service.UpdateEmployee(r.Context(), id, &dto)
	if err != nil {
		h.RequestLogger(r).Warn("UpdateEmployee: service error", "error", err, "employee_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, employee)
}

func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := h.employeeID(w, r)
	if !ok {
		return
	}

	if err := h.Service.DeleteEmployee(r.Context(), id); err != nil {
		h.RequestLogger(r).Warn("DeleteEmployee: service error", "error", err, "employee_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteNoContent(w)
}

// employeeID parses the {id} path segment. Only positive integers are accepted.
func (h *Handler) employeeID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		h.RequestLogger(r).Debug("invalid employee ID", "id", idStr)
		h.WriteAppError(w, internal.ErrInvalidEmployeeID)
		return 0, false
	}
	return id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	err := dec.Decode(dst)
	if err == nil {
		// the body must hold exactly one JSON value
		if extra := dec.Decode(&struct{}{}); extra != io.EOF {
			err = errors.New("unexpected data after JSON body")
		}
	}
	if err != nil {
		h.RequestLogger(r).Debug("invalid request body", "error", err)
		h.WriteAppError(w, internal.ErrInvalidRequestBody)
		return false
	}
	return true
}
