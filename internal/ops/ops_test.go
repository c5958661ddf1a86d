package ops_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	sheetdb "github.com/ideamans/go-sheetdb"
	"github.com/ideamans/go-sheetdb/adapters/memory"
	"github.com/ideamans/go-sheetdb/internal/ops"
)

var (
	admin = ops.Caller{UserID: "100", Name: "Admin", Role: "admin"}
	alice = ops.Caller{UserID: "2", Name: "alice", Role: "member"}
	bob   = ops.Caller{UserID: "3", Name: "bob", Role: "member"}
	carol = ops.Caller{UserID: "4", Name: "carol", Role: "member"}
)

type env struct {
	svc *ops.Service
	doc *memory.Document
}

func newEnv(t *testing.T) *env {
	t.Helper()

	doc := memory.New("ops-test")
	store := sheetdb.New(doc, &sheetdb.Config{
		RetryInterval: time.Millisecond,
		Clock: sheetdb.ClockFunc(func() time.Time {
			return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
		}),
		Logger: zaptest.NewLogger(t),
	})

	groups := 0
	svc, err := ops.New(store, ops.Options{
		NewGroupID: func() string {
			groups++
			return fmt.Sprintf("G%d", groups)
		},
	})
	require.NoError(t, err)
	return &env{svc: svc, doc: doc}
}

// calls counts the calls of method against rng.
func (e *env) calls(method, rng string) int {
	n := 0
	for _, c := range e.doc.Calls() {
		if c.Method == method && c.Range == rng {
			n++
		}
	}
	return n
}

func ids(records []*sheetdb.Record) []int64 {
	out := make([]int64, len(records))
	for i, r := range records {
		out[i] = r.ID()
	}
	return out
}

func column(records []*sheetdb.Record, col string) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.GetAsString(col, "")
	}
	return out
}

func TestNew_DefaultPrivilegedRole(t *testing.T) {
	e := newEnv(t)
	require.True(t, e.svc.IsPrivileged(admin))
	require.True(t, e.svc.IsPrivileged(ops.Caller{Role: "ADMIN"}))
	require.False(t, e.svc.IsPrivileged(alice))
	require.False(t, e.svc.IsPrivileged(ops.Caller{}))
}

func TestEnsure_CreatesEveryTable(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.svc.Ensure(context.Background()))

	for _, schema := range ops.Schemas() {
		rows := e.doc.Rows(schema.Table)
		require.Len(t, rows, 1, schema.Table)
		require.Equal(t, schema.Headers, rows[0])

		table, ok := e.svc.Table(schema.Table)
		require.True(t, ok)
		require.Equal(t, schema.Table, table.Name())
	}

	_, ok := e.svc.Table("inventory")
	require.False(t, ok)
}
