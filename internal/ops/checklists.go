package ops

import (
	"context"
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"

	sheetdb "github.com/ideamans/go-sheetdb"
)

// Checklist frequencies. FrequencyOnce marks a standalone row.
const (
	FrequencyOnce        = "once"
	FrequencyDaily       = "daily"
	FrequencyWeekly      = "weekly"
	FrequencyFortnightly = "fortnightly"
	FrequencyMonthly     = "monthly"
	FrequencyQuarterly   = "quarterly"
	FrequencyYearly      = "yearly"
)

// MaxOccurrences bounds the expansion of one recurring checklist.
const MaxOccurrences = 366

// DateFormat is the layout of due_date cells written by the expansion.
const DateFormat = "2006-01-02"

// RecurringChecklist defines a series of checklist rows. The series ends
// after Occurrences rows or at EndDate, whichever comes first.
type RecurringChecklist struct {
	Task             string `json:"task"`
	Doer             string `json:"doer"`
	Department       string `json:"department"`
	Frequency        string `json:"frequency"`
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date"`
	Occurrences      int    `json:"occurrences"`
	EvidenceRequired bool   `json:"evidence_required"`
	Remarks          string `json:"remarks"`
}

func (r RecurringChecklist) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Task, validation.Required, validation.Length(1, 500)),
		validation.Field(&r.Doer, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Frequency, validation.Required, validation.In(
			FrequencyDaily, FrequencyWeekly, FrequencyFortnightly,
			FrequencyMonthly, FrequencyQuarterly, FrequencyYearly,
		)),
		validation.Field(&r.StartDate, validation.Required, dateRule),
		validation.Field(&r.EndDate,
			validation.When(r.Occurrences == 0, validation.Required.Error("occurrences or end_date is required")),
			dateRule,
		),
		validation.Field(&r.Occurrences, validation.Min(0), validation.Max(MaxOccurrences)),
	)
}

// Dates expands the definition into due dates.
func (r RecurringChecklist) Dates() []time.Time {
	start, ok := sheetdb.ParseTime(r.StartDate)
	if !ok {
		return nil
	}
	end, hasEnd := sheetdb.ParseTime(r.EndDate)

	var dates []time.Time
	for i := 0; i < MaxOccurrences; i++ {
		if r.Occurrences > 0 && i >= r.Occurrences {
			break
		}
		d := occurrence(start, r.Frequency, i)
		if hasEnd && d.After(end) {
			break
		}
		dates = append(dates, d)
	}
	return dates
}

// occurrence returns the i-th date of a series starting at start.
func occurrence(start time.Time, frequency string, i int) time.Time {
	switch frequency {
	case FrequencyDaily:
		return start.AddDate(0, 0, i)
	case FrequencyWeekly:
		return start.AddDate(0, 0, 7*i)
	case FrequencyFortnightly:
		return start.AddDate(0, 0, 14*i)
	case FrequencyMonthly:
		return addMonths(start, i)
	case FrequencyQuarterly:
		return addMonths(start, 3*i)
	case FrequencyYearly:
		return addMonths(start, 12*i)
	}
	return start
}

// addMonths moves t by n months, clamping the day to the end of the target
// month: Jan 31 plus one month is Feb 28 or 29.
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := first.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

// ChecklistFilter narrows ListChecklists.
type ChecklistFilter struct {
	Status  string
	GroupID string
}

var byDueDate = []sheetdb.SortKey{
	{Column: "due_date", Kind: sheetdb.SortTime},
	sheetdb.NewestFirst,
	{Column: sheetdb.ColumnID, Desc: true, Kind: sheetdb.SortNumber},
}

func (s *Service) canSeeChecklist(c Caller, r *sheetdb.Record) bool {
	return s.IsPrivileged(c) || sameName(r.GetAsString("doer", ""), c.Name)
}

// ListChecklists returns the checklist rows visible to c, earliest due date
// first.
func (s *Service) ListChecklists(ctx context.Context, c Caller, f ChecklistFilter) ([]*sheetdb.Record, error) {
	var conds []sheetdb.Condition
	if f.Status != "" {
		conds = append(conds, sheetdb.Where("status", sheetdb.OpEqual, f.Status))
	}
	if f.GroupID != "" {
		conds = append(conds, sheetdb.Where(sheetdb.ColumnGroupID, sheetdb.OpEqual, f.GroupID))
	}
	return s.checklists.List(ctx, &sheetdb.ListOptions{
		Query: sheetdb.Query{Conditions: conds},
		Filter: func(r *sheetdb.Record) bool {
			return s.canSeeChecklist(c, r)
		},
		Sort: byDueDate,
	})
}

// CreateChecklist adds one standalone checklist row.
func (s *Service) CreateChecklist(ctx context.Context, c Caller, values map[string]interface{}) (*sheetdb.Record, error) {
	v := input(values)
	strip(v, sheetdb.ColumnGroupID)
	withDefaults(v, map[string]interface{}{
		"frequency": FrequencyOnce,
		"status":    StatusPending,
	})
	if doer, _ := v["doer"].(string); !s.IsPrivileged(c) && doer != "" && !sameName(doer, c.Name) {
		return nil, fmt.Errorf("%w: checklists for %q", ErrForbidden, doer)
	}
	return s.checklists.Create(ctx, v)
}

// CreateRecurringChecklist expands def into rows sharing a new group id,
// written in one append. It returns the group id and the row count.
func (s *Service) CreateRecurringChecklist(ctx context.Context, c Caller, def RecurringChecklist) (string, int, error) {
	if err := def.Validate(); err != nil {
		return "", 0, invalid(TableChecklists, err)
	}
	if !s.IsPrivileged(c) && !sameName(def.Doer, c.Name) {
		return "", 0, fmt.Errorf("%w: checklists for %q", ErrForbidden, def.Doer)
	}

	dates := def.Dates()
	if len(dates) == 0 {
		return "", 0, invalid(TableChecklists, errors.New("the series has no dates"))
	}

	groupID := s.newGroupID()
	rows := make([]map[string]interface{}, len(dates))
	for i, d := range dates {
		rows[i] = map[string]interface{}{
			sheetdb.ColumnGroupID: groupID,
			"task":                def.Task,
			"doer":                def.Doer,
			"department":          def.Department,
			"frequency":           def.Frequency,
			"due_date":            d.Format(DateFormat),
			"status":              StatusPending,
			"evidence_required":   def.EvidenceRequired,
			"remarks":             def.Remarks,
		}
	}

	n, err := s.checklists.CreateBatch(ctx, rows)
	if err != nil {
		return "", 0, err
	}
	s.log.Info("recurring checklist created",
		zap.String("group_id", groupID), zap.String("frequency", def.Frequency), zap.Int("rows", n))
	return groupID, n, nil
}

// ownChecklist loads id and checks that c may change it.
func (s *Service) ownChecklist(ctx context.Context, c Caller, id int64) (*sheetdb.Record, error) {
	rec, err := get(ctx, s.checklists, id)
	if err != nil {
		return nil, err
	}
	if !s.canSeeChecklist(c, rec) {
		return nil, fmt.Errorf("%w: checklist %d", ErrForbidden, id)
	}
	return rec, nil
}

// UpdateChecklist merges patch into one checklist row.
func (s *Service) UpdateChecklist(ctx context.Context, c Caller, id int64, patch map[string]interface{}) (*sheetdb.Record, error) {
	v := input(patch)
	strip(v, sheetdb.ColumnGroupID)
	if err := s.checklists.ValidatePatch(v); err != nil {
		return nil, err
	}
	current, err := s.ownChecklist(ctx, c, id)
	if err != nil {
		return nil, err
	}
	if status, ok := v["status"].(string); ok {
		if err := checkTransition(current.GetAsString("status", StatusPending), status); err != nil {
			return nil, invalid(TableChecklists, err)
		}
	}
	return s.checklists.Update(ctx, id, v)
}

// DeleteChecklist removes one checklist row.
func (s *Service) DeleteChecklist(ctx context.Context, c Caller, id int64) error {
	if _, err := s.ownChecklist(ctx, c, id); err != nil {
		return err
	}
	return s.checklists.Delete(ctx, id)
}

// ownGroup checks that c may change every row of groupID.
func (s *Service) ownGroup(ctx context.Context, c Caller, groupID string) error {
	if s.IsPrivileged(c) {
		return nil
	}
	rows, err := s.checklists.List(ctx, &sheetdb.ListOptions{
		Query: sheetdb.Query{Conditions: []sheetdb.Condition{
			sheetdb.Where(sheetdb.ColumnGroupID, sheetdb.OpEqual, groupID),
		}},
	})
	if err != nil {
		return err
	}
	for _, r := range rows {
		if !s.canSeeChecklist(c, r) {
			return fmt.Errorf("%w: checklist group %q", ErrForbidden, groupID)
		}
	}
	return nil
}

// UpdateChecklistGroup applies patch to every row of a series. Due dates
// differ per row and cannot be set for the whole series.
func (s *Service) UpdateChecklistGroup(ctx context.Context, c Caller, groupID string, patch map[string]interface{}) (int, error) {
	v := input(patch)
	strip(v, sheetdb.ColumnGroupID, "due_date")
	if err := s.checklists.ValidatePatch(v); err != nil {
		return 0, err
	}
	if err := s.ownGroup(ctx, c, groupID); err != nil {
		return 0, err
	}
	return s.checklists.BulkByGroup(ctx, groupID, sheetdb.GroupOperation{Patch: v})
}

// DeleteChecklistGroup removes every row of a series.
func (s *Service) DeleteChecklistGroup(ctx context.Context, c Caller, groupID string) (int, error) {
	if err := s.ownGroup(ctx, c, groupID); err != nil {
		return 0, err
	}
	return s.checklists.BulkByGroup(ctx, groupID, sheetdb.GroupOperation{Delete: true})
}
