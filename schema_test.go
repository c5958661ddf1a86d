package sheetdb_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	sheetdb "github.com/ideamans/go-sheetdb"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"assigned_to", "assigned_to"},
		{"Assigned To", "assigned_to"},
		{"assignedTo", "assigned_to"},
		{"assigned-to", "assigned_to"},
		{"  Due Date ", "due_date"},
		{"createdAt", "created_at"},
		{"ID", "id"},
		{"userID", "user_id"},
		{"HTTPStatus", "http_status"},
		{"group__id", "group_id"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, sheetdb.NormalizeKey(tt.in))
		})
	}
}

func TestNormalizeValues(t *testing.T) {
	got := sheetdb.NormalizeValues(map[string]interface{}{"dueDate": "x", "Title": "y"})
	assert.Equal(t, map[string]interface{}{"due_date": "x", "title": "y"}, got)
}

func TestSchema_Validate(t *testing.T) {
	tests := []struct {
		name    string
		schema  *sheetdb.Schema
		wantErr bool
	}{
		{"valid", taskSchema(), false},
		{"no table", &sheetdb.Schema{Headers: []string{"id"}}, true},
		{"id not first", &sheetdb.Schema{Table: "t", Headers: []string{"title", "id"}}, true},
		{"not canonical", &sheetdb.Schema{Table: "t", Headers: []string{"id", "Title"}}, true},
		{"duplicate", &sheetdb.Schema{Table: "t", Headers: []string{"id", "title", "title"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schema.Validate()
			assert.Equal(t, tt.wantErr, err != nil, "Validate() error = %v", err)
		})
	}
}

func TestSchema_ColumnIndex(t *testing.T) {
	schema := taskSchema()
	assert.Equal(t, 0, schema.ColumnIndex("id"))
	assert.Equal(t, 3, schema.ColumnIndex("group_id"))
	assert.Equal(t, -1, schema.ColumnIndex("missing"))
	assert.True(t, schema.HasColumn("tags"))
}
