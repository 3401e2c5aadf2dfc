package employee_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/frahmantamala/employee-records/internal"
	employeeDatamodel "github.com/frahmantamala/employee-records/internal/core/datamodel/employee"
	"github.com/frahmantamala/employee-records/internal/core/events"
	"github.com/frahmantamala/employee-records/internal/employee"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// MockRepository implements employee.RepositoryAPI in memory
type MockRepository struct {
	employees  map[int64]*employeeDatamodel.Employee
	nextID     int64
	clock      time.Time
	shouldFail bool
	failError  error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		employees: make(map[int64]*employeeDatamodel.Employee),
		nextID:    1,
		clock:     time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (m *MockRepository) now() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *MockRepository) GetAll(ctx context.Context) ([]*employeeDatamodel.Employee, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	var result []*employeeDatamodel.Employee
	for _, e := range m.employees {
		c := *e
		result = append(result, &c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MockRepository) GetByID(ctx context.Context, id int64) (*employeeDatamodel.Employee, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	e, ok := m.employees[id]
	if !ok {
		return nil, nil
	}
	c := *e
	return &c, nil
}

func (m *MockRepository) GetByEmail(ctx context.Context, email string) (*employeeDatamodel.Employee, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	for _, e := range m.employees {
		if e.Email == email {
			c := *e
			return &c, nil
		}
	}
	return nil, nil
}

func (m *MockRepository) Create(ctx context.Context, e *employeeDatamodel.Employee) error {
	if m.shouldFail {
		return m.failError
	}
	for _, existing := range m.employees {
		if existing.Email == e.Email {
			return employee.ErrDuplicateEmail
		}
	}
	now := m.now()
	e.ID = m.nextID
	e.CreatedAt = now
	e.UpdatedAt = now
	m.nextID++
	c := *e
	m.employees[e.ID] = &c
	return nil
}

func (m *MockRepository) Update(ctx context.Context, e *employeeDatamodel.Employee) error {
	if m.shouldFail {
		return m.failError
	}
	existing, ok := m.employees[e.ID]
	if !ok {
		return employee.ErrEmployeeNotFound
	}
	for id, other := range m.employees {
		if id != e.ID && other.Email == e.Email {
			return employee.ErrDuplicateEmail
		}
	}
	existing.FirstName = e.FirstName
	existing.LastName = e.LastName
	existing.Email = e.Email
	existing.Phone = e.Phone
	existing.Department = e.Department
	existing.UpdatedAt = m.now()
	return nil
}

func (m *MockRepository) Delete(ctx context.Context, id int64) error {
	if m.shouldFail {
		return m.failError
	}
	if _, ok := m.employees[id]; !ok {
		return employee.ErrEmployeeNotFound
	}
	delete(m.employees, id)
	return nil
}

// Helper methods for testing
func (m *MockRepository) SetShouldFail(shouldFail bool, err error) {
	m.shouldFail = shouldFail
	m.failError = err
}

func (m *MockRepository) Count() int {
	return len(m.employees)
}

// RecordingPublisher captures published events
type RecordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *RecordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *RecordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.events))
	for i, e := range p.events {
		types[i] = e.EventType()
	}
	return types
}

func validCreateDTO() *employee.CreateEmployeeDTO {
	return &employee.CreateEmployeeDTO{
		FirstName:  "Ana",
		LastName:   "Ruiz",
		Email:      "ana@x.com",
		Phone:      "555-1234",
		Department: "IT",
	}
}

func strPtr(s string) *string { return &s }

var _ = Describe("Employee Service", func() {
	var (
		ctx       context.Context
		mockRepo  *MockRepository
		publisher *RecordingPublisher
		service   *employee.Service
		logger    *slog.Logger
	)

	BeforeEach(func() {
		ctx = context.Background()
		mockRepo = NewMockRepository()
		publisher = &RecordingPublisher{}
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = employee.NewService(mockRepo, publisher, nil, logger)
	})

	Describe("CreateEmployee", func() {
		It("should assign an id and equal timestamps", func() {
			created, err := service.CreateEmployee(ctx, validCreateDTO())
			Expect(err).NotTo(HaveOccurred())
			Expect(created.ID).To(Equal(int64(1)))
			Expect(created.FirstName).To(Equal("Ana"))
			Expect(created.CreatedAt).To(Equal(created.UpdatedAt))
			Expect(publisher.Types()).To(Equal([]string{events.EventTypeEmployeeCreated}))
		})

		It("should trim surrounding whitespace", func() {
			dto := validCreateDTO()
			dto.FirstName = "  Ana  "
			dto.Email = " ana@x.com "

			created, err := service.CreateEmployee(ctx, dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(created.FirstName).To(Equal("Ana"))
			Expect(created.Email).To(Equal("ana@x.com"))
		})

		Context("when fields are missing", func() {
			It("should return a validation error listing every missing field", func() {
				_, err := service.CreateEmployee(ctx, &employee.CreateEmployeeDTO{})
				Expect(err).To(HaveOccurred())

				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
				Expect(appErr.StatusCode).To(Equal(400))

				details := appErr.Details.(internal.ValidationErrors)
				fields := make([]string, 0, len(details.Errors))
				for _, fe := range details.Errors {
					fields = append(fields, fe.Field)
				}
				Expect(fields).To(ConsistOf("firstName", "lastName", "email", "phone", "department"))
				Expect(mockRepo.Count()).To(Equal(0))
			})
		})

		Context("when the email is malformed", func() {
			It("should reject it before touching the store", func() {
				dto := validCreateDTO()
				dto.Email = "not-an-email"

				_, err := service.CreateEmployee(ctx, dto)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(Equal("Please enter a valid email address"))
				Expect(mockRepo.Count()).To(Equal(0))
			})
		})

		Context("when the department is unknown", func() {
			It("should return a validation error", func() {
				dto := validCreateDTO()
				dto.Department = "Legal"

				_, err := service.CreateEmployee(ctx, dto)
				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Details.(internal.ValidationErrors).Errors[0].Code).To(Equal(string(internal.ErrCodeInvalidDepartment)))
			})
		})

		DescribeTable("rejecting values the store cannot hold",
			func(mutate func(*employee.CreateEmployeeDTO), field string, code internal.ErrorCode) {
				dto := validCreateDTO()
				mutate(dto)

				_, err := service.CreateEmployee(ctx, dto)
				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.StatusCode).To(Equal(400))

				details := appErr.Details.(internal.ValidationErrors)
				Expect(details.Errors).To(HaveLen(1))
				Expect(details.Errors[0].Field).To(Equal(field))
				Expect(details.Errors[0].Code).To(Equal(string(code)))
				Expect(mockRepo.Count()).To(Equal(0))
			},
			Entry("phone longer than 30 characters",
				func(d *employee.CreateEmployeeDTO) { d.Phone = "+1" + strings.Repeat("2", 28) + "3" },
				"phone", internal.ErrCodeFieldTooLong),
			Entry("phone with a line break",
				func(d *employee.CreateEmployeeDTO) { d.Phone = "555\n1234" },
				"phone", internal.ErrCodeInvalidCharacters),
			Entry("phone with a tab",
				func(d *employee.CreateEmployeeDTO) { d.Phone = "555\t1234" },
				"phone", internal.ErrCodeInvalidCharacters),
			Entry("name that is only a NUL byte",
				func(d *employee.CreateEmployeeDTO) { d.FirstName = "\x00" },
				"firstName", internal.ErrCodeInvalidCharacters),
			Entry("email with a control character",
				func(d *employee.CreateEmployeeDTO) { d.Email = "ana\x07@x.com" },
				"email", internal.ErrCodeInvalidCharacters),
		)

		Context("when the email already exists", func() {
			BeforeEach(func() {
				_, err := service.CreateEmployee(ctx, validCreateDTO())
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return a conflict and leave the store unchanged", func() {
				dto := validCreateDTO()
				dto.FirstName = "Other"

				_, err := service.CreateEmployee(ctx, dto)
				Expect(errors.Is(err, internal.ErrDuplicateEmail)).To(BeTrue())
				appErr, _ := internal.IsAppError(err)
				Expect(appErr.StatusCode).To(Equal(409))
				Expect(mockRepo.Count()).To(Equal(1))
			})
		})

		Context("when the repository fails", func() {
			BeforeEach(func() {
				mockRepo.SetShouldFail(true, errors.New("database error"))
			})

			It("should return an internal error", func() {
				_, err := service.CreateEmployee(ctx, validCreateDTO())
				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.StatusCode).To(Equal(500))
				Expect(err.Error()).To(ContainSubstring("database error"))
				Expect(publisher.Types()).To(BeEmpty())
			})
		})
	})

	Describe("ListEmployees", func() {
		It("should return an empty, non-nil slice for an empty store", func() {
			list, err := service.ListEmployees(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).NotTo(BeNil())
			Expect(list).To(BeEmpty())
		})

		It("should return N-M records after N creates and M deletes", func() {
			for _, email := range []string{"a@x.com", "b@x.com", "c@x.com", "d@x.com"} {
				dto := validCreateDTO()
				dto.Email = email
				_, err := service.CreateEmployee(ctx, dto)
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(service.DeleteEmployee(ctx, 2)).To(Succeed())
			Expect(service.DeleteEmployee(ctx, 4)).To(Succeed())

			list, err := service.ListEmployees(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(2))
			Expect(list[0].ID).To(Equal(int64(1)))
			Expect(list[1].ID).To(Equal(int64(3)))
		})

		It("should wrap repository failures", func() {
			mockRepo.SetShouldFail(true, errors.New("connection error"))
			list, err := service.ListEmployees(ctx)
			Expect(err).To(HaveOccurred())
			Expect(list).To(BeNil())
		})
	})

	Describe("GetEmployee", func() {
		It("should return the stored employee", func() {
			created, err := service.CreateEmployee(ctx, validCreateDTO())
			Expect(err).NotTo(HaveOccurred())

			found, err := service.GetEmployee(ctx, created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(Equal(created))
		})

		It("should return not found for an unknown id", func() {
			_, err := service.GetEmployee(ctx, 999)
			Expect(errors.Is(err, internal.ErrEmployeeNotFound)).To(BeTrue())
			Expect(err.Error()).To(Equal("Empleado no encontrado"))
		})
	})

	Describe("UpdateEmployee", func() {
		var created *employee.Employee

		BeforeEach(func() {
			var err error
			created, err = service.CreateEmployee(ctx, validCreateDTO())
			Expect(err).NotTo(HaveOccurred())
		})

		It("should change only the supplied fields", func() {
			updated, err := service.UpdateEmployee(ctx, created.ID, &employee.UpdateEmployeeDTO{Department: strPtr("HR")})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.ID).To(Equal(created.ID))
			Expect(updated.Department).To(Equal("HR"))
			Expect(updated.FirstName).To(Equal(created.FirstName))
			Expect(updated.Email).To(Equal(created.Email))
			Expect(updated.CreatedAt).To(Equal(created.CreatedAt))
			Expect(updated.UpdatedAt).To(BeTemporally(">", created.UpdatedAt))
			Expect(publisher.Types()).To(Equal([]string{events.EventTypeEmployeeCreated, events.EventTypeEmployeeUpdated}))
		})

		It("should still refresh updatedAt for an empty update", func() {
			updated, err := service.UpdateEmployee(ctx, created.ID, &employee.UpdateEmployeeDTO{})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.UpdatedAt).To(BeTemporally(">", created.UpdatedAt))
		})

		It("should reject a supplied empty field", func() {
			_, err := service.UpdateEmployee(ctx, created.ID, &employee.UpdateEmployeeDTO{FirstName: strPtr("   ")})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
		})

		It("should reject a supplied phone with control characters", func() {
			_, err := service.UpdateEmployee(ctx, created.ID, &employee.UpdateEmployeeDTO{Phone: strPtr("555\r\n1234")})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
			Expect(appErr.Details.(internal.ValidationErrors).Errors[0].Code).To(Equal(string(internal.ErrCodeInvalidCharacters)))
		})

		It("should allow keeping its own email", func() {
			_, err := service.UpdateEmployee(ctx, created.ID, &employee.UpdateEmployeeDTO{Email: strPtr("ana@x.com")})
			Expect(err).NotTo(HaveOccurred())
		})

		It("should reject an email held by another employee", func() {
			dto := validCreateDTO()
			dto.Email = "other@x.com"
			other, err := service.CreateEmployee(ctx, dto)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.UpdateEmployee(ctx, other.ID, &employee.UpdateEmployeeDTO{Email: strPtr("ana@x.com")})
			Expect(errors.Is(err, internal.ErrDuplicateEmail)).To(BeTrue())

			stored, err := service.GetEmployee(ctx, other.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Email).To(Equal("other@x.com"))
		})

		It("should return not found for an unknown id", func() {
			_, err := service.UpdateEmployee(ctx, 999, &employee.UpdateEmployeeDTO{Department: strPtr("HR")})
			Expect(errors.Is(err, internal.ErrEmployeeNotFound)).To(BeTrue())
			Expect(mockRepo.Count()).To(Equal(1))
		})
	})

	Describe("DeleteEmployee", func() {
		It("should remove the employee", func() {
			created, err := service.CreateEmployee(ctx, validCreateDTO())
			Expect(err).NotTo(HaveOccurred())

			Expect(service.DeleteEmployee(ctx, created.ID)).To(Succeed())

			_, err = service.GetEmployee(ctx, created.ID)
			Expect(errors.Is(err, internal.ErrEmployeeNotFound)).To(BeTrue())
			Expect(publisher.Types()).To(ContainElement(events.EventTypeEmployeeDeleted))
		})

		It("should return not found for an unknown id", func() {
			err := service.DeleteEmployee(ctx, 42)
			Expect(errors.Is(err, internal.ErrEmployeeNotFound)).To(BeTrue())
		})
	})

	Context("without a publisher", func() {
		It("should still create employees", func() {
			service = employee.NewService(mockRepo, nil, nil, logger)
			_, err := service.CreateEmployee(ctx, validCreateDTO())
			Expect(err).NotTo(HaveOccurred())
		})
	})
})
