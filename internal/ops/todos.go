package ops

import (
	"context"
	"fmt"

	sheetdb "github.com/ideamans/go-sheetdb"
)

// TodoFilter narrows ListTodos the same way DelegationFilter does.
type TodoFilter struct {
	Status    string
	Category  string
	Important *bool
}

// ListTodos returns the caller's own to-dos, newest first.
func (s *Service) ListTodos(ctx context.Context, c Caller, f TodoFilter) ([]*sheetdb.Record, error) {
	var conds []sheetdb.Condition
	if f.Status != "" {
		conds = append(conds, sheetdb.Where("status", sheetdb.OpEqual, f.Status))
	}
	if f.Category != "" {
		conds = append(conds, sheetdb.Where("category", sheetdb.OpEqual, f.Category))
	}
	return s.todos.List(ctx, &sheetdb.ListOptions{
		Query: sheetdb.Query{Conditions: conds},
		Filter: func(r *sheetdb.Record) bool {
			if !ownedBy(r, c) {
				return false
			}
			return f.Important == nil || r.GetAsBool("important", false) == *f.Important
		},
		Sort: newestFirst,
	})
}

// CreateTodo adds a to-do owned by the caller.
func (s *Service) CreateTodo(ctx context.Context, c Caller, values map[string]interface{}) (*sheetdb.Record, error) {
	v := input(values)
	v["user_id"] = c.UserID
	withDefaults(v, map[string]interface{}{
		"status":   StatusPending,
		"category": CategoryInbox,
	})
	return s.todos.Create(ctx, v)
}

func (s *Service) ownTodo(ctx context.Context, c Caller, id int64) (*sheetdb.Record, error) {
	rec, err := get(ctx, s.todos, id)
	if err != nil {
		return nil, err
	}
	if !ownedBy(rec, c) {
		return nil, fmt.Errorf("%w: todo %d", ErrForbidden, id)
	}
	return rec, nil
}

// UpdateTodo merges patch into one of the caller's to-dos.
func (s *Service) UpdateTodo(ctx context.Context, c Caller, id int64, patch map[string]interface{}) (*sheetdb.Record, error) {
	v := input(patch)
	strip(v, "user_id")
	if err := s.todos.ValidatePatch(v); err != nil {
		return nil, err
	}
	current, err := s.ownTodo(ctx, c, id)
	if err != nil {
		return nil, err
	}
	if status, ok := v["status"].(string); ok {
		if err := checkTransition(current.GetAsString("status", StatusPending), status); err != nil {
			return nil, invalid(TableTodos, err)
		}
	}
	return s.todos.Update(ctx, id, v)
}

// DeleteTodo removes one of the caller's to-dos.
func (s *Service) DeleteTodo(ctx context.Context, c Caller, id int64) error {
	if _, err := s.ownTodo(ctx, c, id); err != nil {
		return err
	}
	return s.todos.Delete(ctx, id)
}
