package ops

import (
	"context"

	"go.uber.org/zap"

	sheetdb "github.com/ideamans/go-sheetdb"
)

var oldestFirst = []sheetdb.SortKey{
	{Column: sheetdb.ColumnCreatedAt, Kind: sheetdb.SortTime},
	{Column: sheetdb.ColumnID, Kind: sheetdb.SortNumber},
}

func byDelegation(id int64) sheetdb.Query {
	return sheetdb.Query{Conditions: []sheetdb.Condition{
		sheetdb.Where("delegation_id", sheetdb.OpEqual, id),
	}}
}

// AddRemark comments on a delegation the caller can see.
func (s *Service) AddRemark(ctx context.Context, c Caller, delegationID int64, remark string) (*sheetdb.Record, error) {
	values := map[string]interface{}{
		"delegation_id": delegationID,
		"user_id":       c.UserID,
		"user_name":     c.Name,
		"remark":        remark,
	}
	if err := s.remarks.Validate(values); err != nil {
		return nil, err
	}
	if _, err := s.GetDelegation(ctx, c, delegationID); err != nil {
		return nil, err
	}
	return s.remarks.Create(ctx, values)
}

// ListRemarks returns the remarks of a delegation, oldest first.
func (s *Service) ListRemarks(ctx context.Context, c Caller, delegationID int64) ([]*sheetdb.Record, error) {
	if _, err := s.GetDelegation(ctx, c, delegationID); err != nil {
		return nil, err
	}
	return s.remarks.List(ctx, &sheetdb.ListOptions{
		Query: byDelegation(delegationID),
		Sort:  oldestFirst,
	})
}

// ListHistory returns the history of a delegation, newest first.
func (s *Service) ListHistory(ctx context.Context, c Caller, delegationID int64) ([]*sheetdb.Record, error) {
	if _, err := s.GetDelegation(ctx, c, delegationID); err != nil {
		return nil, err
	}
	return s.history.List(ctx, &sheetdb.ListOptions{
		Query: byDelegation(delegationID),
		Sort:  newestFirst,
	})
}

// appendHistory records an action. The history is an audit aid, so a
// failed append is logged rather than returned.
func (s *Service) appendHistory(ctx context.Context, delegationID int64, action, oldStatus, newStatus string, c Caller, note string) {
	_, err := s.history.Create(ctx, map[string]interface{}{
		"delegation_id": delegationID,
		"action":        action,
		"old_status":    oldStatus,
		"new_status":    newStatus,
		"changed_by":    c.Name,
		"note":          note,
	})
	if err != nil {
		s.log.Warn("failed to append history",
			zap.Int64("delegation_id", delegationID), zap.String("action", action), zap.Error(err))
	}
}
