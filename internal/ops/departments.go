package ops

import (
	"context"
	"fmt"

	sheetdb "github.com/ideamans/go-sheetdb"
)

// ListDepartments returns every department ordered by name.
func (s *Service) ListDepartments(ctx context.Context, c Caller) ([]*sheetdb.Record, error) {
	return s.departments.List(ctx, &sheetdb.ListOptions{Sort: byName})
}

// CreateDepartment adds a department with a unique name.
func (s *Service) CreateDepartment(ctx context.Context, c Caller, values map[string]interface{}) (*sheetdb.Record, error) {
	if err := s.requirePrivileged(c); err != nil {
		return nil, err
	}
	v := input(values)
	if err := s.departments.Validate(v); err != nil {
		return nil, err
	}
	if name, ok := v["name"].(string); ok {
		if err := s.checkDepartmentFree(ctx, name, 0); err != nil {
			return nil, err
		}
	}
	return s.departments.Create(ctx, v)
}

// UpdateDepartment renames a department or changes its head.
func (s *Service) UpdateDepartment(ctx context.Context, c Caller, id int64, patch map[string]interface{}) (*sheetdb.Record, error) {
	if err := s.requirePrivileged(c); err != nil {
		return nil, err
	}
	v := input(patch)
	if err := s.departments.ValidatePatch(v); err != nil {
		return nil, err
	}
	if name, ok := v["name"].(string); ok {
		if err := s.checkDepartmentFree(ctx, name, id); err != nil {
			return nil, err
		}
	}
	return s.departments.Update(ctx, id, v)
}

// DeleteDepartment removes a department.
func (s *Service) DeleteDepartment(ctx context.Context, c Caller, id int64) error {
	if err := s.requirePrivileged(c); err != nil {
		return err
	}
	return s.departments.Delete(ctx, id)
}

func (s *Service) checkDepartmentFree(ctx context.Context, name string, self int64) error {
	if name == "" {
		return nil
	}
	taken, err := s.departments.List(ctx, &sheetdb.ListOptions{
		Filter: func(r *sheetdb.Record) bool {
			return r.ID() != self && sameName(r.GetAsString("name", ""), name)
		},
	})
	if err != nil {
		return err
	}
	if len(taken) > 0 {
		return fmt.Errorf("%w: department %q already exists", sheetdb.ErrConflict, name)
	}
	return nil
}
