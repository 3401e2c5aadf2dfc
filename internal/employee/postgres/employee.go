package postgres

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/employee-records/internal"
	employeeDatamodel "github.com/frahmantamala/employee-records/internal/core/datamodel/employee"
	"github.com/frahmantamala/employee-records/internal/employee"
	"github.com/frahmantamala/employee-records/internal/metrics"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// uniqueViolation is the postgres SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// updatableColumns are the columns a partial update may write. id and created_at never change.
var updatableColumns = []string{"first_name", "last_name", "email", "phone", "department", "updated_at"}

// EmployeeRepository implements employee.RepositoryAPI using GORM
type EmployeeRepository struct {
	db           *gorm.DB
	metrics      *metrics.Metrics
	queryTimeout time.Duration
}

// NewEmployeeRepository creates a new employee repository. m may be nil.
func NewEmployeeRepository(db *gorm.DB, m *metrics.Metrics, queryTimeout time.Duration) employee.RepositoryAPI {
	return &EmployeeRepository{db: db, metrics: m, queryTimeout: queryTimeout}
}

// GormConfig is the gorm configuration the record store expects: translated
// dialect errors and UTC timestamps at the microsecond precision postgres keeps.
func GormConfig(logger *slog.Logger) *gorm.Config {
	cfg := &gorm.Config{
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC().Truncate(time.Microsecond)
		},
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	}
	if logger != nil && logger.Enabled(context.Background(), slog.LevelDebug) {
		cfg.Logger = gormlogger.NewSlogLogger(logger, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Info,
			IgnoreRecordNotFoundError: true,
		})
	}
	return cfg
}

// AutoMigrate creates or updates the employees table from the data model.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&employeeDatamodel.Employee{})
}

func (r *EmployeeRepository) conn(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := internal.WithTimeout(ctx, r.queryTimeout)
	return r.db.WithContext(ctx), cancel
}

// GetAll returns every employee ordered by id
func (r *EmployeeRepository) GetAll(ctx context.Context) ([]*employeeDatamodel.Employee, error) {
	defer r.metrics.ObserveQuery("list_employees", time.Now())
	db, cancel := r.conn(ctx)
	defer cancel()

	var employees []*employeeDatamodel.Employee
	err := db.Order("id ASC").Find(&employees).Error
	return employees, err
}

// GetByID retrieves an employee by its ID
func (r *EmployeeRepository) GetByID(ctx context.Context, id int64) (*employeeDatamodel.Employee, error) {
	defer r.metrics.ObserveQuery("get_employee", time.Now())
	db, cancel := r.conn(ctx)
	defer cancel()

	var emp employeeDatamodel.Employee
	err := db.Where("id = ?", id).First(&emp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &emp, nil
}

// GetByEmail retrieves an employee by exact email
func (r *EmployeeRepository) GetByEmail(ctx context.Context, email string) (*employeeDatamodel.Employee, error) {
	defer r.metrics.ObserveQuery("get_employee_by_email", time.Now())
	db, cancel := r.conn(ctx)
	defer cancel()

	var emp employeeDatamodel.Employee
	err := db.Where("email = ?", email).First(&emp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &emp, nil
}

// Create inserts a new employee. ID, CreatedAt and UpdatedAt are filled in by the store.
func (r *EmployeeRepository) Create(ctx context.Context, emp *employeeDatamodel.Employee) error {
	defer r.metrics.ObserveQuery("create_employee", time.Now())
	db, cancel := r.conn(ctx)
	defer cancel()

	emp.ID = 0
	emp.CreatedAt = time.Time{}
	emp.UpdatedAt = time.Time{}

	if err := db.Create(emp).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// Update writes the mutable columns of an existing employee and bumps updated_at.
func (r *EmployeeRepository) Update(ctx context.Context, emp *employeeDatamodel.Employee) error {
	defer r.metrics.ObserveQuery("update_employee", time.Now())
	db, cancel := r.conn(ctx)
	defer cancel()

	result := db.Model(&employeeDatamodel.Employee{ID: emp.ID}).
		Select(updatableColumns).
		Updates(&employeeDatamodel.Employee{
			FirstName:  emp.FirstName,
			LastName:   emp.LastName,
			Email:      emp.Email,
			Phone:      emp.Phone,
			Department: emp.Department,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

// Delete removes an employee row permanently
func (r *EmployeeRepository) Delete(ctx context.Context, id int64) error {
	defer r.metrics.ObserveQuery("delete_employee", time.Now())
	db, cancel := r.conn(ctx)
	defer cancel()

	result := db.Delete(&employeeDatamodel.Employee{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

func translateError(err error) error {
	if isUniqueViolation(err) {
		return errors.Join(employee.ErrDuplicateEmail, err)
	}
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
