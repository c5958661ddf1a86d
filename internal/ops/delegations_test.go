package ops_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sheetdb "github.com/ideamans/go-sheetdb"
	"github.com/ideamans/go-sheetdb/internal/ops"
)

func TestDelegations_CreateThenList(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	created, err := e.svc.CreateDelegation(ctx, alice, map[string]interface{}{
		"title":      "Call vendor",
		"assignedTo": "bob",
	})
	require.NoError(t, err)

	list, err := e.svc.ListDelegations(ctx, alice, ops.DelegationFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)

	got := list[0]
	assert.Equal(t, created.ID(), got.ID())
	assert.Equal(t, ops.StatusPending, got.GetAsString("status", ""))
	assert.Equal(t, ops.CategoryInbox, got.GetAsString("category", ""))
	assert.Equal(t, ops.PriorityNormal, got.GetAsString("priority", ""))
	assert.Equal(t, "alice", got.GetAsString("assigned_by", ""))
	assert.Equal(t, "bob", got.GetAsString("assigned_to", ""))
	assert.NotEmpty(t, got.GetAsString("created_at", ""))
	assert.Equal(t, []interface{}{}, got.Values["reference_docs"])
}

func TestDelegations_CreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]interface{}
	}{
		{"missing title", map[string]interface{}{"assigned_to": "bob"}},
		{"blank title", map[string]interface{}{"title": "  ", "assigned_to": "bob"}},
		{"missing assignee", map[string]interface{}{"title": "Call vendor"}},
		{"unknown status", map[string]interface{}{"title": "Call vendor", "assigned_to": "bob", "status": "later"}},
		{"unknown priority", map[string]interface{}{"title": "Call vendor", "assigned_to": "bob", "priority": "asap"}},
		{"bad due date", map[string]interface{}{"title": "Call vendor", "assigned_to": "bob", "due_date": "someday"}},
		{"unknown column", map[string]interface{}{"title": "Call vendor", "assigned_to": "bob", "budget": 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			_, err := e.svc.CreateDelegation(context.Background(), alice, tt.values)
			require.Error(t, err)
			assert.True(t, errors.Is(err, sheetdb.ErrValidation), "got %v", err)
			assert.Nil(t, e.doc.Rows(ops.TableDelegations))
		})
	}
}

func TestDelegations_Visibility(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	forBob, err := e.svc.CreateDelegation(ctx, alice, map[string]interface{}{"title": "Call vendor", "assigned_to": "Bob"})
	require.NoError(t, err)
	forDave, err := e.svc.CreateDelegation(ctx, carol, map[string]interface{}{"title": "File report", "assigned_to": "dave"})
	require.NoError(t, err)

	tests := []struct {
		caller ops.Caller
		want   []int64
	}{
		{admin, []int64{forDave.ID(), forBob.ID()}},
		{alice, []int64{forBob.ID()}},
		{bob, []int64{forBob.ID()}},
		{carol, []int64{forDave.ID()}},
		{ops.Caller{UserID: "9", Name: "eve"}, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.caller.Name, func(t *testing.T) {
			list, err := e.svc.ListDelegations(ctx, tt.caller, ops.DelegationFilter{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(list))
		})
	}

	_, err = e.svc.GetDelegation(ctx, bob, forDave.ID())
	assert.True(t, errors.Is(err, ops.ErrForbidden))

	_, err = e.svc.GetDelegation(ctx, admin, 99)
	assert.True(t, errors.Is(err, sheetdb.ErrNotFound))
}

func TestDelegations_FiltersAreIndependent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	create := func(values map[string]interface{}) int64 {
		rec, err := e.svc.CreateDelegation(ctx, admin, values)
		require.NoError(t, err)
		return rec.ID()
	}
	important := create(map[string]interface{}{"title": "A", "assigned_to": "bob", "important": true})
	done := create(map[string]interface{}{"title": "B", "assigned_to": "carol", "status": ops.StatusDone})
	trashed := create(map[string]interface{}{"title": "C", "assigned_to": "bob", "category": ops.CategoryTrash})

	yes, no := true, false
	tests := []struct {
		name   string
		filter ops.DelegationFilter
		want   []int64
	}{
		{"none", ops.DelegationFilter{}, []int64{trashed, done, important}},
		{"status", ops.DelegationFilter{Status: ops.StatusDone}, []int64{done}},
		{"category", ops.DelegationFilter{Category: ops.CategoryTrash}, []int64{trashed}},
		{"important", ops.DelegationFilter{Important: &yes}, []int64{important}},
		{"not important", ops.DelegationFilter{Important: &no}, []int64{trashed, done}},
		{"assignee", ops.DelegationFilter{AssignedTo: "bob"}, []int64{trashed, important}},
		{"assignee in inbox", ops.DelegationFilter{AssignedTo: "bob", Category: ops.CategoryInbox}, []int64{important}},
		{"status and category", ops.DelegationFilter{Status: ops.StatusDone, Category: ops.CategoryTrash}, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := e.svc.ListDelegations(ctx, admin, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(list))
		})
	}
}

func TestDelegations_StatusTransitionsAndHistory(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	rec, err := e.svc.CreateDelegation(ctx, alice, map[string]interface{}{"title": "Call vendor", "assigned_to": "bob"})
	require.NoError(t, err)
	id := rec.ID()

	for _, status := range []string{ops.StatusInProgress, ops.StatusOnHold, ops.StatusInProgress, ops.StatusDone} {
		updated, err := e.svc.UpdateDelegation(ctx, bob, id, map[string]interface{}{"status": status})
		require.NoError(t, err, status)
		assert.Equal(t, status, updated.GetAsString("status", ""))
	}

	_, err = e.svc.UpdateDelegation(ctx, bob, id, map[string]interface{}{"status": ops.StatusPending})
	assert.True(t, errors.Is(err, sheetdb.ErrValidation), "done is terminal, got %v", err)

	// Same status and unrelated edits are not transitions.
	_, err = e.svc.UpdateDelegation(ctx, bob, id, map[string]interface{}{"status": ops.StatusDone, "description": "called"})
	require.NoError(t, err)

	history, err := e.svc.ListHistory(ctx, alice, id)
	require.NoError(t, err)
	assert.Equal(t, []string{
		ops.ActionStatusChanged, ops.ActionStatusChanged, ops.ActionStatusChanged,
		ops.ActionStatusChanged, ops.ActionCreated,
	}, column(history, "action"))
	assert.Equal(t, []string{ops.StatusInProgress, ops.StatusOnHold, ops.StatusInProgress, ops.StatusPending, ""},
		column(history, "old_status"))
	assert.Equal(t, []string{ops.StatusDone, ops.StatusInProgress, ops.StatusOnHold, ops.StatusInProgress, ops.StatusPending},
		column(history, "new_status"))
	assert.Equal(t, "bob", history[0].GetAsString("changed_by", ""))
	assert.Equal(t, id, history[0].GetAsInt64("delegation_id", 0))
}

func TestDelegations_UpdateKeepsAssigner(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	rec, err := e.svc.CreateDelegation(ctx, alice, map[string]interface{}{"title": "Call vendor", "assigned_to": "bob"})
	require.NoError(t, err)

	updated, err := e.svc.UpdateDelegation(ctx, bob, rec.ID(), map[string]interface{}{
		"assigned_by": "bob",
		"priority":    ops.PriorityHigh,
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", updated.GetAsString("assigned_by", ""))
	assert.Equal(t, ops.PriorityHigh, updated.GetAsString("priority", ""))

	_, err = e.svc.UpdateDelegation(ctx, carol, rec.ID(), map[string]interface{}{"priority": ops.PriorityLow})
	assert.True(t, errors.Is(err, ops.ErrForbidden))
}

func TestDelegations_TrashRestoreImportant(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	rec, err := e.svc.CreateDelegation(ctx, alice, map[string]interface{}{"title": "Call vendor", "assigned_to": "bob"})
	require.NoError(t, err)
	id := rec.ID()

	_, err = e.svc.SetDelegationImportant(ctx, alice, id, true)
	require.NoError(t, err)
	rec, err = e.svc.TrashDelegation(ctx, alice, id)
	require.NoError(t, err)
	assert.Equal(t, ops.CategoryTrash, rec.GetAsString("category", ""))

	got, err := e.svc.GetDelegation(ctx, alice, id)
	require.NoError(t, err)
	assert.Equal(t, true, got.Values["important"])
	assert.Equal(t, ops.StatusPending, got.GetAsString("status", ""))

	rec, err = e.svc.RestoreDelegation(ctx, alice, id)
	require.NoError(t, err)
	assert.Equal(t, ops.CategoryInbox, rec.GetAsString("category", ""))
	assert.Equal(t, true, rec.Values["important"])

	// Category changes do not produce history.
	history, err := e.svc.ListHistory(ctx, alice, id)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestDelegations_NotifiesKnownAssignee(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	user, err := e.svc.CreateUser(ctx, admin, map[string]interface{}{"name": "Bob", "email": "bob@example.com"})
	require.NoError(t, err)
	bobUser := ops.Caller{UserID: "1", Name: "Bob"}
	require.Equal(t, int64(1), user.ID())

	rec, err := e.svc.CreateDelegation(ctx, alice, map[string]interface{}{"title": "Call vendor", "assigned_to": "bob"})
	require.NoError(t, err)
	_, err = e.svc.CreateDelegation(ctx, alice, map[string]interface{}{"title": "Nobody", "assigned_to": "zed"})
	require.NoError(t, err)

	list, err := e.svc.ListNotifications(ctx, bobUser, false)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Call vendor", list[0].GetAsString("message", ""))
	assert.Equal(t, "/delegations/1", list[0].GetAsString("link", ""))
	assert.Equal(t, int64(1), rec.ID())

	all, err := e.svc.ListNotifications(ctx, admin, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestDelegations_SideEffectFailuresDoNotFailCreate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svc.CreateUser(ctx, admin, map[string]interface{}{"name": "bob", "email": "bob@example.com"})
	require.NoError(t, err)

	// Headers the ensurer refuses to migrate.
	e.doc.Load(ops.TableHistory, [][]string{{"legacy"}})
	e.doc.Load(ops.TableNotifications, [][]string{{"legacy"}})

	rec, err := e.svc.CreateDelegation(ctx, alice, map[string]interface{}{"title": "Call vendor", "assigned_to": "bob"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.ID())
	assert.Equal(t, [][]string{{"legacy"}}, e.doc.Rows(ops.TableHistory))
	assert.Equal(t, [][]string{{"legacy"}}, e.doc.Rows(ops.TableNotifications))
}

func TestDelegations_TransportFailure(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.svc.Ensure(ctx))

	e.doc.FailNext("AppendValues", errors.New("quota exceeded"))
	rec, err := e.svc.CreateDelegation(ctx, alice, map[string]interface{}{"title": "Call vendor", "assigned_to": "bob"})
	require.Error(t, err)
	assert.True(t, sheetdb.TransportError.Has(err))
	assert.Nil(t, rec)
	assert.Len(t, e.doc.Rows(ops.TableDelegations), 1)
	assert.Len(t, e.doc.Rows(ops.TableHistory), 1)

	rec, err = e.svc.CreateDelegation(ctx, alice, map[string]interface{}{"title": "Call vendor", "assigned_to": "bob"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.ID())
}

func TestDelegations_DeleteCascades(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	keep, err := e.svc.CreateDelegation(ctx, alice, map[string]interface{}{"title": "Keep", "assigned_to": "bob"})
	require.NoError(t, err)
	drop, err := e.svc.CreateDelegation(ctx, alice, map[string]interface{}{"title": "Drop", "assigned_to": "bob"})
	require.NoError(t, err)
	_, err = e.svc.AddRemark(ctx, bob, keep.ID(), "on it")
	require.NoError(t, err)
	_, err = e.svc.AddRemark(ctx, bob, drop.ID(), "will not do")
	require.NoError(t, err)

	err = e.svc.DeleteDelegation(ctx, bob, drop.ID())
	assert.True(t, errors.Is(err, ops.ErrForbidden), "only the assigner may delete")

	require.NoError(t, e.svc.DeleteDelegation(ctx, alice, drop.ID()))

	_, err = e.svc.GetDelegation(ctx, alice, drop.ID())
	assert.True(t, errors.Is(err, sheetdb.ErrNotFound))

	remarks, err := e.svc.ListRemarks(ctx, alice, keep.ID())
	require.NoError(t, err)
	assert.Equal(t, []string{"on it"}, column(remarks, "remark"))
	assert.Len(t, e.doc.Rows(ops.TableRemarks), 2)
	assert.Len(t, e.doc.Rows(ops.TableHistory), 2)

	err = e.svc.DeleteDelegation(ctx, admin, drop.ID())
	assert.True(t, errors.Is(err, sheetdb.ErrNotFound))
}

func TestRemarks(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	rec, err := e.svc.CreateDelegation(ctx, alice, map[string]interface{}{"title": "Call vendor", "assigned_to": "bob"})
	require.NoError(t, err)

	_, err = e.svc.AddRemark(ctx, bob, rec.ID(), "first")
	require.NoError(t, err)
	_, err = e.svc.AddRemark(ctx, alice, rec.ID(), "second")
	require.NoError(t, err)

	remarks, err := e.svc.ListRemarks(ctx, bob, rec.ID())
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, column(remarks, "remark"))
	assert.Equal(t, []string{"bob", "alice"}, column(remarks, "user_name"))
	assert.Equal(t, []string{bob.UserID, alice.UserID}, column(remarks, "user_id"))

	_, err = e.svc.AddRemark(ctx, carol, rec.ID(), "me too")
	assert.True(t, errors.Is(err, ops.ErrForbidden))

	_, err = e.svc.AddRemark(ctx, bob, rec.ID(), "")
	assert.True(t, errors.Is(err, sheetdb.ErrValidation))

	_, err = e.svc.AddRemark(ctx, admin, 42, "lost")
	assert.True(t, errors.Is(err, sheetdb.ErrNotFound))
}
