package employee_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"time"

	"github.com/frahmantamala/employee-records/internal/employee"
	employeePostgres "github.com/frahmantamala/employee-records/internal/employee/postgres"
	"github.com/frahmantamala/employee-records/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type errorBody struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details struct {
		Errors []struct {
			Field string `json:"field"`
			Code  string `json:"code"`
		} `json:"errors"`
	} `json:"details"`
}

var _ = Describe("Employee Handler Integration", func() {
	var (
		db      *gorm.DB
		router  chi.Router
		slogger *slog.Logger
	)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	decodeEmployee := func(w *httptest.ResponseRecorder) employee.Employee {
		var e employee.Employee
		Expect(json.NewDecoder(w.Body).Decode(&e)).To(Succeed())
		return e
	}

	decodeError := func(w *httptest.ResponseRecorder) errorBody {
		var e errorBody
		Expect(json.NewDecoder(w.Body).Decode(&e)).To(Succeed())
		return e
	}

	countRows := func() int64 {
		var n int64
		Expect(db.Table("employees").Count(&n).Error).To(Succeed())
		return n
	}

	BeforeEach(func() {
		var err error
		slogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		cfg := employeePostgres.GormConfig(nil)
		cfg.NowFunc = func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		}

		db, err = gorm.Open(sqlite.Open(":memory:"), cfg)
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		DeferCleanup(sqlDB.Close)

		Expect(employeePostgres.AutoMigrate(db)).To(Succeed())

		repo := employeePostgres.NewEmployeeRepository(db, nil, time.Second)
		service := employee.NewService(repo, nil, nil, slogger)
		handler := employee.NewHandler(&transport.BaseHandler{Logger: slogger}, service)

		mux := chi.NewRouter()
		mux.Route("/api/employees", handler.Routes)
		router = mux
	})

	Describe("POST /api/employees", func() {
		It("should create an employee with equal timestamps", func() {
			w := do(http.MethodPost, "/api/employees",
				`{"firstName":"Ana","lastName":"Ruiz","email":"ana@x.com","phone":"555-1234","department":"IT"}`)

			Expect(w.Code).To(Equal(http.StatusCreated))
			Expect(w.Header().Get("Content-Type")).To(ContainSubstring("application/json"))

			created := decodeEmployee(w)
			Expect(created.ID).To(Equal(int64(1)))
			Expect(created.FirstName).To(Equal("Ana"))
			Expect(created.CreatedAt.IsZero()).To(BeFalse())
			Expect(created.CreatedAt.Equal(created.UpdatedAt)).To(BeTrue())
		})

		It("should ignore client supplied id and timestamps", func() {
			w := do(http.MethodPost, "/api/employees",
				`{"id":77,"createdAt":"2000-01-01T00:00:00Z","firstName":"Ana","lastName":"Ruiz","email":"ana@x.com","phone":"555-1234","department":"IT"}`)

			Expect(w.Code).To(Equal(http.StatusCreated))
			created := decodeEmployee(w)
			Expect(created.ID).To(Equal(int64(1)))
			Expect(created.CreatedAt.Year()).To(Equal(2024))
		})

		It("should reject a missing field with 400", func() {
			w := do(http.MethodPost, "/api/employees",
				`{"firstName":"Ana","email":"ana@x.com","phone":"555-1234","department":"IT"}`)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			body := decodeError(w)
			Expect(body.Type).To(Equal("VALIDATION_ERROR"))
			Expect(body.Message).To(Equal("lastName is required"))
			Expect(body.Details.Errors).To(HaveLen(1))
			Expect(body.Details.Errors[0].Field).To(Equal("lastName"))
			Expect(countRows()).To(BeZero())
		})

		It("should reject a malformed body with 400", func() {
			w := do(http.MethodPost, "/api/employees", `{"firstName":`)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(decodeError(w).Message).To(Equal("invalid request body"))
		})

		It("should reject trailing data after the JSON object", func() {
			w := do(http.MethodPost, "/api/employees",
				`{"firstName":"Ana","lastName":"Ruiz","email":"ana@x.com","phone":"555-1234","department":"IT"} trailing`)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(decodeError(w).Message).To(Equal("invalid request body"))
			Expect(countRows()).To(BeZero())
		})

		It("should accept a trailing newline", func() {
			w := do(http.MethodPost, "/api/employees",
				"{\"firstName\":\"Ana\",\"lastName\":\"Ruiz\",\"email\":\"ana@x.com\",\"phone\":\"555-1234\",\"department\":\"IT\"}\n")

			Expect(w.Code).To(Equal(http.StatusCreated))
		})

		It("should reject control characters with 400 instead of storing them", func() {
			w := do(http.MethodPost, "/api/employees",
				`{"firstName":"\u0000","lastName":"Ruiz","email":"ana@x.com","phone":"555\n1234","department":"IT"}`)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			body := decodeError(w)
			Expect(body.Details.Errors).To(HaveLen(2))
			Expect(body.Details.Errors[0].Field).To(Equal("firstName"))
			Expect(body.Details.Errors[0].Code).To(Equal("INVALID_CHARACTERS"))
			Expect(body.Details.Errors[1].Field).To(Equal("phone"))
			Expect(body.Details.Errors[1].Code).To(Equal("INVALID_CHARACTERS"))
			Expect(countRows()).To(BeZero())
		})

		It("should reject a duplicate email with 409 and keep the row count", func() {
			payload := `{"firstName":"Ana","lastName":"Ruiz","email":"ana@x.com","phone":"555-1234","department":"IT"}`
			Expect(do(http.MethodPost, "/api/employees", payload).Code).To(Equal(http.StatusCreated))

			w := do(http.MethodPost, "/api/employees", payload)
			Expect(w.Code).To(Equal(http.StatusConflict))
			Expect(decodeError(w).Code).To(Equal("DUPLICATE_EMAIL"))
			Expect(countRows()).To(Equal(int64(1)))
		})
	})

	Describe("GET /api/employees", func() {
		It("should return an empty JSON array for an empty table", func() {
			w := do(http.MethodGet, "/api/employees", "")

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(strings.TrimSpace(w.Body.String())).To(Equal("[]"))
		})

		It("should list employees ordered by id", func() {
			for _, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
				body, _ := json.Marshal(map[string]string{
					"firstName": "A", "lastName": "B", "email": email, "phone": "555-1234", "department": "Sales",
				})
				Expect(do(http.MethodPost, "/api/employees", string(body)).Code).To(Equal(http.StatusCreated))
			}
			Expect(do(http.MethodDelete, "/api/employees/2", "").Code).To(Equal(http.StatusNoContent))

			w := do(http.MethodGet, "/api/employees", "")
			Expect(w.Code).To(Equal(http.StatusOK))

			var list []employee.Employee
			Expect(json.NewDecoder(w.Body).Decode(&list)).To(Succeed())
			Expect(list).To(HaveLen(2))
			Expect(list[0].Email).To(Equal("a@x.com"))
			Expect(list[1].Email).To(Equal("c@x.com"))
		})
	})

	Describe("GET /api/employees/{id}", func() {
		It("should return 404 with the not-found message", func() {
			w := do(http.MethodGet, "/api/employees/999", "")

			Expect(w.Code).To(Equal(http.StatusNotFound))
			body := decodeError(w)
			Expect(body.Message).To(Equal("Empleado no encontrado"))
			Expect(body.Type).To(Equal("NOT_FOUND"))
		})

		DescribeTable("should reject an invalid id with 400",
			func(id string) {
				w := do(http.MethodGet, "/api/employees/"+id, "")
				Expect(w.Code).To(Equal(http.StatusBadRequest))
				Expect(decodeError(w).Message).To(Equal("invalid employee ID"))
			},
			Entry("non numeric", "abc"),
			Entry("zero", "0"),
			Entry("negative", "-4"),
		)
	})

	Describe("PUT /api/employees/{id}", func() {
		var created employee.Employee

		BeforeEach(func() {
			w := do(http.MethodPost, "/api/employees",
				`{"firstName":"Ana","lastName":"Ruiz","email":"ana@x.com","phone":"555-1234","department":"IT"}`)
			Expect(w.Code).To(Equal(http.StatusCreated))
			created = decodeEmployee(w)
		})

		It("should apply a partial update and advance updatedAt", func() {
			w := do(http.MethodPut, "/api/employees/1", `{"department":"HR"}`)

			Expect(w.Code).To(Equal(http.StatusOK))
			updated := decodeEmployee(w)
			Expect(updated.ID).To(Equal(created.ID))
			Expect(updated.Department).To(Equal("HR"))
			Expect(updated.FirstName).To(Equal("Ana"))
			Expect(updated.CreatedAt.Equal(created.CreatedAt)).To(BeTrue())
			Expect(updated.UpdatedAt).To(BeTemporally(">", updated.CreatedAt))
		})

		It("should return 404 for an unknown id and leave the store unchanged", func() {
			w := do(http.MethodPut, "/api/employees/999", `{"department":"HR"}`)

			Expect(w.Code).To(Equal(http.StatusNotFound))
			Expect(countRows()).To(Equal(int64(1)))

			stored := do(http.MethodGet, "/api/employees/1", "")
			Expect(decodeEmployee(stored).Department).To(Equal("IT"))
		})

		It("should reject an invalid phone with 400", func() {
			w := do(http.MethodPut, "/api/employees/1", `{"phone":"call me"}`)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			body := decodeError(w)
			Expect(body.Message).To(Equal("Please enter a valid phone number"))
			Expect(body.Details.Errors[0].Code).To(Equal("INVALID_PHONE"))
		})

		It("should reject an email held by another employee with 409", func() {
			Expect(do(http.MethodPost, "/api/employees",
				`{"firstName":"Bo","lastName":"Li","email":"bo@x.com","phone":"555-9876","department":"HR"}`).Code).
				To(Equal(http.StatusCreated))

			w := do(http.MethodPut, "/api/employees/2", `{"email":"ana@x.com"}`)
			Expect(w.Code).To(Equal(http.StatusConflict))
		})
	})

	Describe("DELETE /api/employees/{id}", func() {
		It("should delete and then report not found", func() {
			Expect(do(http.MethodPost, "/api/employees",
				`{"firstName":"Ana","lastName":"Ruiz","email":"ana@x.com","phone":"555-1234","department":"IT"}`).Code).
				To(Equal(http.StatusCreated))

			w := do(http.MethodDelete, "/api/employees/1", "")
			Expect(w.Code).To(Equal(http.StatusNoContent))
			Expect(w.Body.Len()).To(BeZero())

			Expect(do(http.MethodGet, "/api/employees/1", "").Code).To(Equal(http.StatusNotFound))
			Expect(do(http.MethodDelete, "/api/employees/1", "").Code).To(Equal(http.StatusNotFound))
		})
	})

	It("should cap the request body size", func() {
		huge := bytes.Repeat([]byte("a"), 2<<20)
		body := `{"firstName":"` + string(huge) + `"}`
		w := do(http.MethodPost, "/api/employees", body)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})
})
