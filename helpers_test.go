package sheetdb_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	sheetdb "github.com/ideamans/go-sheetdb"
	"github.com/ideamans/go-sheetdb/adapters/memory"
)

// fakeClock is a manually advanced sheetdb.Clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var taskHeaders = []string{"id", "title", "status", "group_id", "tags", "done", "points", "created_at", "updated_at"}

func taskSchema() *sheetdb.Schema {
	return &sheetdb.Schema{
		Table:      "tasks",
		Headers:    taskHeaders,
		JSONFields: []string{"tags"},
		BoolFields: []string{"done"},
		IntFields:  []string{"points"},
		ValidateCreate: func(values map[string]interface{}) error {
			if title, _ := values["title"].(string); title == "" {
				return errors.New("title is required")
			}
			return nil
		},
		ValidateUpdate: func(values map[string]interface{}) error {
			if title, ok := values["title"]; ok && title == "" {
				return errors.New("title cannot be empty")
			}
			return nil
		},
	}
}

type testEnv struct {
	store *sheetdb.Store
	doc   *memory.Document
	clock *fakeClock
	tasks *sheetdb.Table
}

func newTestEnv(t *testing.T, cfg *sheetdb.Config) *testEnv {
	t.Helper()
	if cfg == nil {
		cfg = &sheetdb.Config{}
	}
	clock := newFakeClock()
	cfg.Clock = clock
	cfg.Logger = zaptest.NewLogger(t)
	if cfg.RetryInterval == 0 {
		cfg.RetryInterval = time.Millisecond
	}

	doc := memory.New("test-doc")
	store := sheetdb.New(doc, cfg)
	tasks, err := store.Table(taskSchema())
	if err != nil {
		t.Fatalf("Table() error = %v", err)
	}
	return &testEnv{store: store, doc: doc, clock: clock, tasks: tasks}
}

// count returns how many calls of method the document received.
func (e *testEnv) count(method string) int {
	n := 0
	for _, c := range e.doc.Calls() {
		if c.Method == method {
			n++
		}
	}
	return n
}
