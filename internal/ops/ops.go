// Package ops implements the business entities of the operations
// workspace on top of sheetdb tables: delegations with their remarks and
// history, users, departments, notifications, checklists and to-dos.
//
// Every method receives the Caller on whose behalf it runs. Visibility and
// permission rules are applied here; the tables themselves hold no access
// control state.
package ops

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	sheetdb "github.com/ideamans/go-sheetdb"
)

// ErrForbidden is returned when the caller may not touch a record.
var ErrForbidden = errors.New("forbidden")

// DefaultPrivilegedRole sees and manages every record.
const DefaultPrivilegedRole = "admin"

// Caller identifies who an operation runs for. Identity is resolved by the
// outer layer; ops only compares it.
type Caller struct {
	UserID string
	Name   string
	Role   string
}

// Options tune a Service.
type Options struct {
	PrivilegedRole string        // default: DefaultPrivilegedRole
	NewGroupID     func() string // default: uuid.NewString
}

// Service exposes every entity operation.
type Service struct {
	store      *sheetdb.Store
	privileged string
	newGroupID func() string
	log        *zap.Logger

	delegations   *sheetdb.Table
	remarks       *sheetdb.Table
	history       *sheetdb.Table
	users         *sheetdb.Table
	departments   *sheetdb.Table
	notifications *sheetdb.Table
	checklists    *sheetdb.Table
	todos         *sheetdb.Table
}

// New binds the entity tables to store.
func New(store *sheetdb.Store, opts Options) (*Service, error) {
	s := &Service{
		store:      store,
		privileged: opts.PrivilegedRole,
		newGroupID: opts.NewGroupID,
		log:        store.Logger().Named("ops"),
	}
	if s.privileged == "" {
		s.privileged = DefaultPrivilegedRole
	}
	if s.newGroupID == nil {
		s.newGroupID = uuid.NewString
	}

	tables := []struct {
		dst    **sheetdb.Table
		schema *sheetdb.Schema
	}{
		{&s.delegations, DelegationSchema()},
		{&s.remarks, RemarkSchema()},
		{&s.history, HistorySchema()},
		{&s.users, UserSchema()},
		{&s.departments, DepartmentSchema()},
		{&s.notifications, NotificationSchema()},
		{&s.checklists, ChecklistSchema()},
		{&s.todos, TodoSchema()},
	}
	for _, t := range tables {
		table, err := store.Table(t.schema)
		if err != nil {
			return nil, err
		}
		*t.dst = table
	}
	return s, nil
}

// Ensure prepares the header row of every table.
func (s *Service) Ensure(ctx context.Context) error {
	return s.store.Ensure(ctx, Schemas()...)
}

// Table returns the table named name, for generic tooling such as the CLI.
func (s *Service) Table(name string) (*sheetdb.Table, bool) {
	for _, t := range []*sheetdb.Table{
		s.delegations, s.remarks, s.history, s.users,
		s.departments, s.notifications, s.checklists, s.todos,
	} {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

// IsPrivileged reports whether c has the privileged role.
func (s *Service) IsPrivileged(c Caller) bool {
	return c.Role != "" && strings.EqualFold(c.Role, s.privileged)
}

// requirePrivileged rejects non-privileged callers.
func (s *Service) requirePrivileged(c Caller) error {
	if !s.IsPrivileged(c) {
		return fmt.Errorf("%w: requires role %q", ErrForbidden, s.privileged)
	}
	return nil
}

// sameName compares person names the way they are typed into sheets.
func sameName(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}

// ownedBy reports whether the user_id cell of r is the caller's.
func ownedBy(r *sheetdb.Record, c Caller) bool {
	return c.UserID != "" && r.GetAsString("user_id", "") == c.UserID
}

func notFound(table string, id int64) error {
	return fmt.Errorf("%w: %s id %d", sheetdb.ErrNotFound, table, id)
}

func invalid(table string, err error) error {
	return &sheetdb.ValidationError{Table: table, Err: err}
}

// get loads id from t or fails with ErrNotFound.
func get(ctx context.Context, t *sheetdb.Table, id int64) (*sheetdb.Record, error) {
	rec, err := t.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, notFound(t.Name(), id)
	}
	return rec, nil
}

// input normalizes the keys of a caller payload and trims its strings.
func input(values map[string]interface{}) map[string]interface{} {
	out := sheetdb.NormalizeValues(values)
	for k, v := range out {
		if str, ok := v.(string); ok {
			out[k] = strings.TrimSpace(str)
		}
	}
	return out
}

// withDefaults sets every key of defaults that values leaves empty.
func withDefaults(values map[string]interface{}, defaults map[string]interface{}) {
	for k, v := range defaults {
		if cur, ok := values[k]; !ok || cur == nil || cur == "" {
			values[k] = v
		}
	}
}

// strip removes keys callers may not set directly.
func strip(values map[string]interface{}, keys ...string) {
	for _, k := range keys {
		delete(values, k)
	}
}

// idString formats a record id the way it is stored in reference columns.
func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}
