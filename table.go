package sheetdb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Table is the CRUD engine of one schema.
//
// Physical row numbers never leave a single attempt: Update, Delete and the
// group operations resolve the row of each id from a fresh read right
// before writing. A failed write is retried by repeating the read.
type Table struct {
	store  *Store
	schema *Schema
	log    *zap.Logger
}

// Schema returns the table's schema.
func (t *Table) Schema() *Schema { return t.schema }

// Name returns the sheet name.
func (t *Table) Name() string { return t.schema.Table }

// ListOptions narrows and orders a List call. Records are sorted before
// the query's Offset and Limit apply.
type ListOptions struct {
	Query  Query
	Filter func(*Record) bool
	Sort   []SortKey
}

// GroupOperation is applied to every row of a group by BulkByGroup.
type GroupOperation struct {
	Delete bool
	Patch  map[string]interface{}
}

// snapshot is the state of the table read by one call.
type snapshot struct {
	headers []string
	rows    [][]string
	idCol   int
}

// physicalRow converts a data index to its 1-based sheet row.
func (s *snapshot) physicalRow(i int) int { return i + 2 }

func (s *snapshot) cell(i, col int) string {
	if col < 0 || col >= len(s.rows[i]) {
		return ""
	}
	return s.rows[i][col]
}

func (s *snapshot) id(i int) (int64, bool) {
	raw := strings.TrimSpace(s.cell(i, s.idCol))
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil {
			return 0, false
		}
		id = int64(f)
	}
	return id, true
}

func (s *snapshot) ids() []string {
	ids := make([]string, len(s.rows))
	for i := range s.rows {
		ids[i] = s.cell(i, s.idCol)
	}
	return ids
}

// find returns the data index of id, or -1.
func (s *snapshot) find(id int64) int {
	for i := range s.rows {
		if got, ok := s.id(i); ok && got == id {
			return i
		}
	}
	return -1
}

func (t *Table) read(ctx context.Context) (*snapshot, error) {
	values, err := t.store.transport.GetValues(ctx, TableRange(t.schema.Table))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", t.schema.Table, err)
	}

	snap := &snapshot{idCol: -1}
	if len(values) == 0 {
		snap.headers = append([]string(nil), t.schema.Headers...)
	} else {
		snap.headers = make([]string, len(values[0]))
		for i, h := range values[0] {
			snap.headers[i] = NormalizeKey(h)
		}
		snap.rows = values[1:]
	}
	for i, h := range snap.headers {
		if h == ColumnID {
			snap.idCol = i
			break
		}
	}
	if snap.idCol < 0 {
		return nil, fmt.Errorf("%w: table %s has no %q column", ErrHeaderMismatch, t.schema.Table, ColumnID)
	}
	return snap, nil
}

func (t *Table) decode(snap *snapshot, i int) *Record {
	rec, warnings := t.schema.DecodeRow(snap.headers, snap.rows[i])
	for _, w := range warnings {
		t.log.Warn("cell could not be decoded",
			zap.Int("row", snap.physicalRow(i)),
			zap.String("column", w.Column),
			zap.String("reason", w.Reason))
	}
	return rec
}

// encode lays rec out along the snapshot header, keeping cells of
// unlabeled columns untouched.
func (t *Table) encode(snap *snapshot, rec *Record, existing []string) []interface{} {
	row := t.schema.EncodeRecord(snap.headers, rec)
	for j, h := range snap.headers {
		if h == "" && j < len(existing) {
			row[j] = existing[j]
		}
	}
	return row
}

func (t *Table) notFound(id int64) error {
	return fmt.Errorf("%w: %s id %d", ErrNotFound, t.schema.Table, id)
}

func (t *Table) invalid(err error) error {
	return &ValidationError{Table: t.schema.Table, Err: err}
}

// checkColumns rejects keys that are not part of the schema.
func (t *Table) checkColumns(values map[string]interface{}) error {
	var unknown []string
	for k := range values {
		if !t.schema.HasColumn(k) {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return t.invalid(fmt.Errorf("unknown columns: %s", strings.Join(unknown, ", ")))
	}
	return nil
}

// preparePatch normalizes and validates a partial update.
func (t *Table) preparePatch(patch map[string]interface{}) (map[string]interface{}, error) {
	patch = NormalizeValues(patch)
	delete(patch, ColumnID)
	delete(patch, ColumnCreatedAt)
	delete(patch, ColumnUpdatedAt)

	if err := t.checkColumns(patch); err != nil {
		return nil, err
	}
	if t.schema.ValidateUpdate != nil {
		if err := t.schema.ValidateUpdate(patch); err != nil {
			return nil, t.invalid(err)
		}
	}
	return patch, nil
}

// prepareCreate normalizes and validates a new record.
func (t *Table) prepareCreate(values map[string]interface{}) (map[string]interface{}, error) {
	values = NormalizeValues(values)
	delete(values, ColumnID)
	delete(values, ColumnCreatedAt)
	delete(values, ColumnUpdatedAt)

	if err := t.checkColumns(values); err != nil {
		return nil, err
	}
	if t.schema.ValidateCreate != nil {
		if err := t.schema.ValidateCreate(values); err != nil {
			return nil, t.invalid(err)
		}
	}
	return values, nil
}

// Validate checks values the way Create does, without any transport call.
func (t *Table) Validate(values map[string]interface{}) error {
	_, err := t.prepareCreate(values)
	return err
}

// ValidatePatch checks patch the way Update does, without any transport
// call.
func (t *Table) ValidatePatch(patch map[string]interface{}) error {
	_, err := t.preparePatch(patch)
	return err
}

// List returns every record with a non-empty id, filtered and sorted by
// opts. It never returns nil.
func (t *Table) List(ctx context.Context, opts *ListOptions) (records []*Record, err error) {
	defer mon.Task()(&ctx)(&err)

	if opts == nil {
		opts = &ListOptions{}
	}
	if err := ValidateQuery(opts.Query); err != nil {
		return nil, t.invalid(fmt.Errorf("invalid query: %w", err))
	}
	if err := t.store.checkOpen(); err != nil {
		return nil, err
	}
	if err := t.store.ensurer.Ensure(ctx, t.schema); err != nil {
		return nil, err
	}

	snap, err := t.read(ctx)
	if err != nil {
		return nil, err
	}

	records = make([]*Record, 0, len(snap.rows))
	for i := range snap.rows {
		if _, ok := snap.id(i); !ok {
			continue
		}
		rec := t.decode(snap, i)
		if opts.Filter != nil && !opts.Filter(rec) {
			continue
		}
		records = append(records, rec)
	}

	SortRecords(records, opts.Sort)
	return ApplyQuery(records, opts.Query), nil
}

// Get returns the record with id, or nil without error when it is absent.
func (t *Table) Get(ctx context.Context, id int64) (_ *Record, err error) {
	defer mon.Task()(&ctx)(&err)

	if err := t.store.checkOpen(); err != nil {
		return nil, err
	}
	if err := t.store.ensurer.Ensure(ctx, t.schema); err != nil {
		return nil, err
	}

	snap, err := t.read(ctx)
	if err != nil {
		return nil, err
	}
	i := snap.find(id)
	if i < 0 {
		return nil, nil
	}
	return t.decode(snap, i), nil
}

// Create appends one record with a freshly allocated id and timestamps.
// Allocation reads the current id column, which narrows but does not close
// the window in which two concurrent creates pick the same id.
func (t *Table) Create(ctx context.Context, values map[string]interface{}) (_ *Record, err error) {
	defer mon.Task()(&ctx)(&err)

	values, err = t.prepareCreate(values)
	if err != nil {
		return nil, err
	}
	if err := t.store.checkOpen(); err != nil {
		return nil, err
	}
	if err := t.store.ensurer.Ensure(ctx, t.schema); err != nil {
		return nil, err
	}

	snap, err := t.read(ctx)
	if err != nil {
		return nil, err
	}

	now := t.store.Now()
	rec := NewRecord(values)
	rec.Values[ColumnID] = NextID(snap.ids())
	rec.Values[ColumnCreatedAt] = now
	rec.Values[ColumnUpdatedAt] = now

	row := t.schema.EncodeRecord(snap.headers, rec)
	if err := t.store.transport.AppendValues(ctx, TableRange(t.schema.Table), [][]interface{}{row}); err != nil {
		return nil, fmt.Errorf("failed to append to %s: %w", t.schema.Table, err)
	}

	t.log.Debug("record created", zap.Int64("id", rec.ID()))
	return t.completed(snap, rec), nil
}

// completed fills columns the caller did not set with nil so the returned
// record has the same shape as one read back from the table.
func (t *Table) completed(snap *snapshot, rec *Record) *Record {
	for _, h := range snap.headers {
		if h == "" {
			continue
		}
		if _, ok := rec.Values[h]; !ok {
			if t.schema.kind(h) == kindJSON {
				rec.Values[h] = []interface{}{}
			} else {
				rec.Values[h] = nil
			}
		}
	}
	return rec
}

// CreateBatch appends all records in one transport call, allocating a
// contiguous block of ids in input order. It returns the number of rows
// written.
func (t *Table) CreateBatch(ctx context.Context, list []map[string]interface{}) (_ int, err error) {
	defer mon.Task()(&ctx)(&err)

	if len(list) == 0 {
		return 0, nil
	}

	prepared := make([]map[string]interface{}, len(list))
	for i, values := range list {
		prepared[i], err = t.prepareCreate(values)
		if err != nil {
			return 0, fmt.Errorf("record %d: %w", i, err)
		}
	}
	if err := t.store.checkOpen(); err != nil {
		return 0, err
	}
	if err := t.store.ensurer.Ensure(ctx, t.schema); err != nil {
		return 0, err
	}

	snap, err := t.read(ctx)
	if err != nil {
		return 0, err
	}

	now := t.store.Now()
	ids := NextIDs(snap.ids(), len(prepared))
	rows := make([][]interface{}, len(prepared))
	for i, values := range prepared {
		rec := NewRecord(values)
		rec.Values[ColumnID] = ids[i]
		rec.Values[ColumnCreatedAt] = now
		rec.Values[ColumnUpdatedAt] = now
		rows[i] = t.schema.EncodeRecord(snap.headers, rec)
	}

	if err := t.store.transport.AppendValues(ctx, TableRange(t.schema.Table), rows); err != nil {
		return 0, fmt.Errorf("failed to append to %s: %w", t.schema.Table, err)
	}

	t.log.Debug("records created", zap.Int64("first_id", ids[0]), zap.Int("count", len(rows)))
	return len(rows), nil
}

// Update merges patch over the record with id and rewrites its row.
// created_at is preserved and updated_at is refreshed.
func (t *Table) Update(ctx context.Context, id int64, patch map[string]interface{}) (_ *Record, err error) {
	defer mon.Task()(&ctx)(&err)
	return t.update(ctx, id, patch, nil)
}

// UpdateIf is Update guarded by the updated_at value the caller last saw.
// It fails with ErrConflict when the row changed since. The check and the
// write are still two round trips, so a writer slipping in between is not
// detected.
func (t *Table) UpdateIf(ctx context.Context, id int64, expectedUpdatedAt string, patch map[string]interface{}) (_ *Record, err error) {
	defer mon.Task()(&ctx)(&err)
	return t.update(ctx, id, patch, func(current *Record) error {
		if got := current.GetAsString(ColumnUpdatedAt, ""); got != expectedUpdatedAt {
			return fmt.Errorf("%w: %s id %d updated at %q, expected %q",
				ErrConflict, t.schema.Table, id, got, expectedUpdatedAt)
		}
		return nil
	})
}

func (t *Table) update(ctx context.Context, id int64, patch map[string]interface{}, precondition func(*Record) error) (*Record, error) {
	patch, err := t.preparePatch(patch)
	if err != nil {
		return nil, err
	}
	if err := t.store.checkOpen(); err != nil {
		return nil, err
	}

	var rec *Record
	err = t.rewrite(ctx, "update", func() error {
		snap, err := t.read(ctx)
		if err != nil {
			return err
		}
		i := snap.find(id)
		if i < 0 {
			return t.notFound(id)
		}

		rec = t.decode(snap, i)
		if precondition != nil {
			if err := precondition(rec); err != nil {
				return err
			}
		}
		for k, v := range patch {
			rec.Values[k] = v
		}
		rec.Values[ColumnUpdatedAt] = t.store.Now()

		row := t.encode(snap, rec, snap.rows[i])
		rng := RowRange(t.schema.Table, snap.physicalRow(i), len(snap.headers))
		if err := t.store.transport.UpdateValues(ctx, rng, [][]interface{}{row}); err != nil {
			return &writeFailure{fmt.Errorf("failed to update %s id %d: %w", t.schema.Table, id, err)}
		}
		t.log.Debug("record updated", zap.Int64("id", id), zap.Int("row", snap.physicalRow(i)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// SetCell rewrites a single cell of the record with id, leaving every other
// column, including updated_at, untouched.
func (t *Table) SetCell(ctx context.Context, id int64, column string, value interface{}) (err error) {
	defer mon.Task()(&ctx)(&err)

	column = NormalizeKey(column)
	if column == ColumnID {
		return t.invalid(fmt.Errorf("column %q cannot be changed", ColumnID))
	}
	if _, err := t.preparePatch(map[string]interface{}{column: value}); err != nil {
		return err
	}
	if err := t.store.checkOpen(); err != nil {
		return err
	}

	return t.rewrite(ctx, "set cell", func() error {
		snap, err := t.read(ctx)
		if err != nil {
			return err
		}
		col := -1
		for j, h := range snap.headers {
			if h == column {
				col = j
				break
			}
		}
		if col < 0 {
			return fmt.Errorf("%w: table %s has no %q column", ErrHeaderMismatch, t.schema.Table, column)
		}
		i := snap.find(id)
		if i < 0 {
			return t.notFound(id)
		}

		rng := CellRange(t.schema.Table, col+1, snap.physicalRow(i))
		if err := t.store.transport.UpdateValues(ctx, rng, [][]interface{}{{EncodeValue(value)}}); err != nil {
			return &writeFailure{fmt.Errorf("failed to set %s of %s id %d: %w", column, t.schema.Table, id, err)}
		}
		return nil
	})
}

// Delete removes the row of id, shifting later rows up.
func (t *Table) Delete(ctx context.Context, id int64) (err error) {
	defer mon.Task()(&ctx)(&err)

	if err := t.store.checkOpen(); err != nil {
		return err
	}
	if err := t.store.ensurer.Ensure(ctx, t.schema); err != nil {
		return err
	}

	// Only the id column is needed to locate the row.
	idCol := t.schema.ColumnIndex(ColumnID) + 1
	values, err := t.store.transport.GetValues(ctx, ColumnRange(t.schema.Table, idCol, 2))
	if err != nil {
		return fmt.Errorf("failed to read ids of %s: %w", t.schema.Table, err)
	}
	snap := &snapshot{rows: values, idCol: 0}
	i := snap.find(id)
	if i < 0 {
		return t.notFound(id)
	}

	if err := t.deleteRows(ctx, []int{snap.physicalRow(i)}); err != nil {
		return err
	}
	t.log.Debug("record deleted", zap.Int64("id", id), zap.Int("row", snap.physicalRow(i)))
	return nil
}

// deleteRows removes physical rows in a single request, highest first, so
// that no deletion shifts a row still waiting to be deleted.
func (t *Table) deleteRows(ctx context.Context, rows []int) error {
	meta, err := t.store.transport.Metadata(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve table %s: %w", t.schema.Table, err)
	}
	sheet, ok := meta.Sheet(t.schema.Table)
	if !ok {
		return fmt.Errorf("%w: %s", ErrTableMissing, t.schema.Table)
	}

	sort.Sort(sort.Reverse(sort.IntSlice(rows)))
	requests := make([]Request, len(rows))
	for i, row := range rows {
		requests[i] = Request{
			Type:       RequestDeleteRows,
			SheetID:    sheet.SheetID,
			StartIndex: int64(row - 1),
			EndIndex:   int64(row),
		}
	}
	if err := t.store.transport.BatchUpdate(ctx, requests); err != nil {
		return fmt.Errorf("failed to delete rows of %s: %w", t.schema.Table, err)
	}
	return nil
}

// UpdateWhere applies patch to every record matched by filter in one
// transport call and returns the number of records changed.
func (t *Table) UpdateWhere(ctx context.Context, filter func(*Record) bool, patch map[string]interface{}) (_ int, err error) {
	defer mon.Task()(&ctx)(&err)

	patch, err = t.preparePatch(patch)
	if err != nil {
		return 0, err
	}
	if err := t.store.checkOpen(); err != nil {
		return 0, err
	}
	if err := t.store.ensurer.Ensure(ctx, t.schema); err != nil {
		return 0, err
	}

	var n int
	err = t.rewrite(ctx, "update where", func() error {
		snap, err := t.read(ctx)
		if err != nil {
			return err
		}

		now := t.store.Now()
		var data []ValueRange
		for i := range snap.rows {
			if _, ok := snap.id(i); !ok {
				continue
			}
			rec := t.decode(snap, i)
			if !filter(rec) {
				continue
			}
			for k, v := range patch {
				rec.Values[k] = v
			}
			rec.Values[ColumnUpdatedAt] = now
			data = append(data, ValueRange{
				Range:  RowRange(t.schema.Table, snap.physicalRow(i), len(snap.headers)),
				Values: [][]interface{}{t.encode(snap, rec, snap.rows[i])},
			})
		}
		n = len(data)
		if n == 0 {
			return nil
		}

		if err := t.store.transport.BatchUpdateValues(ctx, data); err != nil {
			return &writeFailure{fmt.Errorf("failed to update %s: %w", t.schema.Table, err)}
		}
		t.log.Debug("records updated", zap.Int("count", n))
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// DeleteWhere removes every record matched by filter in one transport call
// and returns the number of records removed.
func (t *Table) DeleteWhere(ctx context.Context, filter func(*Record) bool) (_ int, err error) {
	defer mon.Task()(&ctx)(&err)

	if err := t.store.checkOpen(); err != nil {
		return 0, err
	}
	if err := t.store.ensurer.Ensure(ctx, t.schema); err != nil {
		return 0, err
	}

	snap, err := t.read(ctx)
	if err != nil {
		return 0, err
	}

	var rows []int
	for i := range snap.rows {
		if _, ok := snap.id(i); !ok {
			continue
		}
		if filter(t.decode(snap, i)) {
			rows = append(rows, snap.physicalRow(i))
		}
	}
	if len(rows) == 0 {
		return 0, nil
	}

	if err := t.deleteRows(ctx, rows); err != nil {
		return 0, err
	}
	t.log.Debug("records deleted", zap.Int("count", len(rows)))
	return len(rows), nil
}

func (t *Table) groupFilter(groupID string) (func(*Record) bool, error) {
	if !t.schema.HasColumn(ColumnGroupID) {
		return nil, t.invalid(fmt.Errorf("table has no %q column", ColumnGroupID))
	}
	if strings.TrimSpace(groupID) == "" {
		return nil, t.invalid(errors.New("group id is required"))
	}
	return func(r *Record) bool {
		return r.GetAsString(ColumnGroupID, "") == groupID
	}, nil
}

// UpdateGroup applies patch to every row of groupID.
func (t *Table) UpdateGroup(ctx context.Context, groupID string, patch map[string]interface{}) (int, error) {
	filter, err := t.groupFilter(groupID)
	if err != nil {
		return 0, err
	}
	n, err := t.UpdateWhere(ctx, filter, patch)
	if err == nil && n == 0 {
		err = fmt.Errorf("%w: %s group %q", ErrNotFound, t.schema.Table, groupID)
	}
	return n, err
}

// DeleteGroup removes every row of groupID.
func (t *Table) DeleteGroup(ctx context.Context, groupID string) (int, error) {
	filter, err := t.groupFilter(groupID)
	if err != nil {
		return 0, err
	}
	n, err := t.DeleteWhere(ctx, filter)
	if err == nil && n == 0 {
		err = fmt.Errorf("%w: %s group %q", ErrNotFound, t.schema.Table, groupID)
	}
	return n, err
}

// BulkByGroup updates or deletes every row sharing groupID and returns the
// number of rows affected.
func (t *Table) BulkByGroup(ctx context.Context, groupID string, op GroupOperation) (int, error) {
	if op.Delete {
		return t.DeleteGroup(ctx, groupID)
	}
	return t.UpdateGroup(ctx, groupID, op.Patch)
}
