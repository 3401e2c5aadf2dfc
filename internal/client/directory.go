package client

import (
	"context"
	"sync"

	"github.com/frahmantamala/employee-records/internal/employee"
)

// API is the subset of Client the directory and form drive.
type API interface {
	ListEmployees(ctx context.Context) ([]*employee.Employee, error)
	GetEmployee(ctx context.Context, id int64) (*employee.Employee, error)
	CreateEmployee(ctx context.Context, dto *employee.CreateEmployeeDTO) (*employee.Employee, error)
	UpdateEmployee(ctx context.Context, id int64, dto *employee.UpdateEmployeeDTO) (*employee.Employee, error)
	DeleteEmployee(ctx context.Context, id int64) error
}

// Directory caches the employee list. Every successful mutation invalidates the
// cache and refetches before returning, so Records reflects the server state.
type Directory struct {
	api API

	mu      sync.Mutex
	records []*employee.Employee
	stale   bool
}

func NewDirectory(api API) *Directory {
	return &Directory{api: api, stale: true}
}

// Records returns the cached list, fetching it first when stale. The returned
// slice is a copy.
func (d *Directory) Records(ctx context.Context) ([]*employee.Employee, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stale {
		if err := d.refreshLocked(ctx); err != nil {
			return nil, err
		}
	}
	return append([]*employee.Employee(nil), d.records...), nil
}

// Invalidate marks the cache stale; the next Records call refetches.
func (d *Directory) Invalidate() {
	d.mu.Lock()
	d.stale = true
	d.mu.Unlock()
}

// Search filters the cached records by a case-insensitive substring over every
// field. It never asks the server to filter.
func (d *Directory) Search(ctx context.Context, term string) ([]*employee.Employee, error) {
	records, err := d.Records(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]*employee.Employee, 0, len(records))
	for _, e := range records {
		if e.Matches(term) {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

func (d *Directory) Get(ctx context.Context, id int64) (*employee.Employee, error) {
	return d.api.GetEmployee(ctx, id)
}

func (d *Directory) Create(ctx context.Context, dto *employee.CreateEmployeeDTO) (*employee.Employee, error) {
	created, err := d.api.CreateEmployee(ctx, dto)
	if err != nil {
		return nil, err
	}
	return created, d.reload(ctx)
}

func (d *Directory) Update(ctx context.Context, id int64, dto *employee.UpdateEmployeeDTO) (*employee.Employee, error) {
	updated, err := d.api.UpdateEmployee(ctx, id, dto)
	if err != nil {
		return nil, err
	}
	return updated, d.reload(ctx)
}

func (d *Directory) Delete(ctx context.Context, id int64) error {
	if err := d.api.DeleteEmployee(ctx, id); err != nil {
		return err
	}
	return d.reload(ctx)
}

func (d *Directory) reload(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stale = true
	return d.refreshLocked(ctx)
}

func (d *Directory) refreshLocked(ctx context.Context) error {
	records, err := d.api.ListEmployees(ctx)
	if err != nil {
		return err
	}
	d.records = records
	d.stale = false
	return nil
}
