package ops

import (
	"context"
	"fmt"
	"strings"

	sheetdb "github.com/ideamans/go-sheetdb"
)

// DefaultUserRole is given to users created without a role.
const DefaultUserRole = "member"

var byName = []sheetdb.SortKey{{Column: "name", Kind: sheetdb.SortText}}

// ListUsers returns every user ordered by name.
func (s *Service) ListUsers(ctx context.Context, c Caller) ([]*sheetdb.Record, error) {
	return s.users.List(ctx, &sheetdb.ListOptions{Sort: byName})
}

// GetUser returns one user.
func (s *Service) GetUser(ctx context.Context, c Caller, id int64) (*sheetdb.Record, error) {
	return get(ctx, s.users, id)
}

// CreateUser adds a user. Emails are unique regardless of case.
func (s *Service) CreateUser(ctx context.Context, c Caller, values map[string]interface{}) (*sheetdb.Record, error) {
	if err := s.requirePrivileged(c); err != nil {
		return nil, err
	}

	v := input(values)
	withDefaults(v, map[string]interface{}{
		"role":      DefaultUserRole,
		"is_active": true,
	})
	if email, ok := v["email"].(string); ok {
		v["email"] = strings.ToLower(email)
	}
	if err := s.users.Validate(v); err != nil {
		return nil, err
	}
	if email, ok := v["email"].(string); ok {
		if err := s.checkEmailFree(ctx, email, 0); err != nil {
			return nil, err
		}
	}
	return s.users.Create(ctx, v)
}

// UpdateUser merges patch into a user.
func (s *Service) UpdateUser(ctx context.Context, c Caller, id int64, patch map[string]interface{}) (*sheetdb.Record, error) {
	if err := s.requirePrivileged(c); err != nil {
		return nil, err
	}

	v := input(patch)
	if email, ok := v["email"].(string); ok {
		v["email"] = strings.ToLower(email)
	}
	if err := s.users.ValidatePatch(v); err != nil {
		return nil, err
	}
	if email, ok := v["email"].(string); ok {
		if err := s.checkEmailFree(ctx, email, id); err != nil {
			return nil, err
		}
	}
	return s.users.Update(ctx, id, v)
}

// DeleteUser removes a user.
func (s *Service) DeleteUser(ctx context.Context, c Caller, id int64) error {
	if err := s.requirePrivileged(c); err != nil {
		return err
	}
	return s.users.Delete(ctx, id)
}

// checkEmailFree fails with ErrConflict when another user than self
// already has email.
func (s *Service) checkEmailFree(ctx context.Context, email string, self int64) error {
	if email == "" {
		return nil
	}
	taken, err := s.users.List(ctx, &sheetdb.ListOptions{
		Filter: func(r *sheetdb.Record) bool {
			return r.ID() != self && strings.EqualFold(r.GetAsString("email", ""), email)
		},
	})
	if err != nil {
		return err
	}
	if len(taken) > 0 {
		return fmt.Errorf("%w: email %q is already used by user %d", sheetdb.ErrConflict, email, taken[0].ID())
	}
	return nil
}

// findUserByName returns the first user called name, or nil.
func (s *Service) findUserByName(ctx context.Context, name string) (*sheetdb.Record, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}
	found, err := s.users.List(ctx, &sheetdb.ListOptions{
		Filter: func(r *sheetdb.Record) bool {
			return sameName(r.GetAsString("name", ""), name)
		},
	})
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return found[0], nil
}
