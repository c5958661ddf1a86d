package ops

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	sheetdb "github.com/ideamans/go-sheetdb"
)

// DelegationFilter narrows ListDelegations. Each set field filters on its
// own; zero values do not filter.
type DelegationFilter struct {
	Status     string
	Category   string
	AssignedTo string
	Important  *bool
}

// newestFirst orders by creation time and breaks ties by id.
var newestFirst = []sheetdb.SortKey{
	sheetdb.NewestFirst,
	{Column: sheetdb.ColumnID, Desc: true, Kind: sheetdb.SortNumber},
}

// canSeeDelegation: privileged callers see everything, others only what
// was assigned to or by them.
func (s *Service) canSeeDelegation(c Caller, r *sheetdb.Record) bool {
	return s.IsPrivileged(c) ||
		sameName(r.GetAsString("assigned_to", ""), c.Name) ||
		sameName(r.GetAsString("assigned_by", ""), c.Name)
}

// ListDelegations returns the delegations visible to c, newest first.
func (s *Service) ListDelegations(ctx context.Context, c Caller, f DelegationFilter) ([]*sheetdb.Record, error) {
	var conds []sheetdb.Condition
	if f.Status != "" {
		conds = append(conds, sheetdb.Where("status", sheetdb.OpEqual, f.Status))
	}
	if f.Category != "" {
		conds = append(conds, sheetdb.Where("category", sheetdb.OpEqual, f.Category))
	}
	if f.AssignedTo != "" {
		conds = append(conds, sheetdb.Where("assigned_to", sheetdb.OpEqual, f.AssignedTo))
	}

	return s.delegations.List(ctx, &sheetdb.ListOptions{
		Query: sheetdb.Query{Conditions: conds},
		Filter: func(r *sheetdb.Record) bool {
			if !s.canSeeDelegation(c, r) {
				return false
			}
			return f.Important == nil || r.GetAsBool("important", false) == *f.Important
		},
		Sort: newestFirst,
	})
}

// GetDelegation returns one delegation the caller can see.
func (s *Service) GetDelegation(ctx context.Context, c Caller, id int64) (*sheetdb.Record, error) {
	rec, err := get(ctx, s.delegations, id)
	if err != nil {
		return nil, err
	}
	if !s.canSeeDelegation(c, rec) {
		return nil, fmt.Errorf("%w: delegation %d", ErrForbidden, id)
	}
	return rec, nil
}

// CreateDelegation assigns work on behalf of c. The assignee is notified
// when a user with that name exists.
func (s *Service) CreateDelegation(ctx context.Context, c Caller, values map[string]interface{}) (*sheetdb.Record, error) {
	v := input(values)
	strip(v, "assigned_by", sheetdb.ColumnGroupID)
	v["assigned_by"] = c.Name
	withDefaults(v, map[string]interface{}{
		"status":   StatusPending,
		"category": CategoryInbox,
		"priority": PriorityNormal,
	})

	rec, err := s.delegations.Create(ctx, v)
	if err != nil {
		return nil, err
	}

	s.appendHistory(ctx, rec.ID(), ActionCreated, "", rec.GetAsString("status", ""), c, "")
	s.notifyAssignee(ctx, rec)
	return rec, nil
}

// UpdateDelegation merges patch into a delegation the caller is involved
// in. Status changes are checked and recorded in the history.
func (s *Service) UpdateDelegation(ctx context.Context, c Caller, id int64, patch map[string]interface{}) (*sheetdb.Record, error) {
	v := input(patch)
	strip(v, "assigned_by", sheetdb.ColumnGroupID)
	if err := s.delegations.ValidatePatch(v); err != nil {
		return nil, err
	}

	current, err := s.GetDelegation(ctx, c, id)
	if err != nil {
		return nil, err
	}

	oldStatus := current.GetAsString("status", StatusPending)
	newStatus, statusChanged := v["status"].(string)
	statusChanged = statusChanged && newStatus != oldStatus
	if statusChanged {
		if err := checkTransition(oldStatus, newStatus); err != nil {
			return nil, invalid(TableDelegations, err)
		}
	}

	rec, err := s.delegations.Update(ctx, id, v)
	if err != nil {
		return nil, err
	}

	if statusChanged {
		s.appendHistory(ctx, id, ActionStatusChanged, oldStatus, newStatus, c, "")
	}
	if assignee, ok := v["assigned_to"].(string); ok && !sameName(assignee, current.GetAsString("assigned_to", "")) {
		s.notifyAssignee(ctx, rec)
	}
	return rec, nil
}

// TrashDelegation moves a delegation to the trash category.
func (s *Service) TrashDelegation(ctx context.Context, c Caller, id int64) (*sheetdb.Record, error) {
	return s.UpdateDelegation(ctx, c, id, map[string]interface{}{"category": CategoryTrash})
}

// RestoreDelegation moves a delegation back to the inbox.
func (s *Service) RestoreDelegation(ctx context.Context, c Caller, id int64) (*sheetdb.Record, error) {
	return s.UpdateDelegation(ctx, c, id, map[string]interface{}{"category": CategoryInbox})
}

// SetDelegationImportant sets the important flag.
func (s *Service) SetDelegationImportant(ctx context.Context, c Caller, id int64, important bool) (*sheetdb.Record, error) {
	return s.UpdateDelegation(ctx, c, id, map[string]interface{}{"important": important})
}

// DeleteDelegation removes a delegation together with its remarks and
// history. Only privileged callers and the assigner may delete.
func (s *Service) DeleteDelegation(ctx context.Context, c Caller, id int64) error {
	current, err := get(ctx, s.delegations, id)
	if err != nil {
		return err
	}
	if !s.IsPrivileged(c) && !sameName(current.GetAsString("assigned_by", ""), c.Name) {
		return fmt.Errorf("%w: delegation %d", ErrForbidden, id)
	}

	if err := s.delegations.Delete(ctx, id); err != nil {
		return err
	}

	belongs := func(r *sheetdb.Record) bool {
		return r.GetAsInt64("delegation_id", 0) == id
	}
	for _, t := range []*sheetdb.Table{s.remarks, s.history} {
		if _, err := t.DeleteWhere(ctx, belongs); err != nil {
			s.log.Warn("failed to delete dependent rows",
				zap.String("table", t.Name()), zap.Int64("delegation_id", id), zap.Error(err))
		}
	}
	return nil
}

// notifyAssignee tells the assignee about rec. Failures are logged and
// never fail the calling operation.
func (s *Service) notifyAssignee(ctx context.Context, rec *sheetdb.Record) {
	name := rec.GetAsString("assigned_to", "")
	user, err := s.findUserByName(ctx, name)
	if err != nil {
		s.log.Warn("failed to look up assignee", zap.String("name", name), zap.Error(err))
		return
	}
	if user == nil {
		return
	}

	_, err = s.Notify(ctx, Notification{
		UserID:  idString(user.ID()),
		Title:   "New delegation",
		Message: rec.GetAsString("title", ""),
		Type:    "delegation",
		Link:    fmt.Sprintf("/delegations/%d", rec.ID()),
	})
	if err != nil {
		s.log.Warn("failed to notify assignee", zap.Int64("delegation_id", rec.ID()), zap.Error(err))
	}
}
