package ops

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	sheetdb "github.com/ideamans/go-sheetdb"
)

// Table names.
const (
	TableDelegations   = "delegations"
	TableRemarks       = "remarks"
	TableHistory       = "history"
	TableUsers         = "users"
	TableDepartments   = "departments"
	TableNotifications = "notifications"
	TableChecklists    = "checklists"
	TableTodos         = "todos"
)

// Schemas lists every table of the workspace.
func Schemas() []*sheetdb.Schema {
	return []*sheetdb.Schema{
		DelegationSchema(),
		RemarkSchema(),
		HistorySchema(),
		UserSchema(),
		DepartmentSchema(),
		NotificationSchema(),
		ChecklistSchema(),
		TodoSchema(),
	}
}

// mapRules validates a record against key rules. Keys without a rule are
// left to the table's column check.
func mapRules(keys ...*validation.KeyRules) func(map[string]interface{}) error {
	return func(values map[string]interface{}) error {
		return validation.Validate(values, validation.Map(keys...).AllowExtraKeys())
	}
}

// DelegationSchema describes tasks handed from one person to another.
// reference_docs is a JSON list.
func DelegationSchema() *sheetdb.Schema {
	return &sheetdb.Schema{
		Table: TableDelegations,
		Headers: []string{
			"id", "title", "description", "assigned_by", "assigned_to", "department",
			"priority", "status", "category", "important", "due_date",
			"evidence_required", "reference_docs", "group_id", "created_at", "updated_at",
		},
		JSONFields: []string{"reference_docs"},
		BoolFields: []string{"important", "evidence_required"},
		ValidateCreate: mapRules(
			validation.Key("title", validation.Required, validation.Length(1, 200)),
			validation.Key("assigned_to", validation.Required, validation.Length(1, 100)),
			validation.Key("assigned_by", validation.Required),
			validation.Key("status", statusRule).Optional(),
			validation.Key("category", categoryRule).Optional(),
			validation.Key("priority", priorityRule).Optional(),
			validation.Key("important", boolRule).Optional(),
			validation.Key("evidence_required", boolRule).Optional(),
			validation.Key("due_date", dateRule).Optional(),
		),
		ValidateUpdate: mapRules(
			validation.Key("title", validation.Required, validation.Length(1, 200)).Optional(),
			validation.Key("assigned_to", validation.Required, validation.Length(1, 100)).Optional(),
			validation.Key("assigned_by", validation.Required).Optional(),
			validation.Key("status", validation.Required, statusRule).Optional(),
			validation.Key("category", validation.Required, categoryRule).Optional(),
			validation.Key("priority", priorityRule).Optional(),
			validation.Key("important", boolRule).Optional(),
			validation.Key("evidence_required", boolRule).Optional(),
			validation.Key("due_date", dateRule).Optional(),
		),
	}
}

// RemarkSchema describes comments left on a delegation.
func RemarkSchema() *sheetdb.Schema {
	return &sheetdb.Schema{
		Table:     TableRemarks,
		Headers:   []string{"id", "delegation_id", "user_id", "user_name", "remark", "created_at", "updated_at"},
		IntFields: []string{"delegation_id"},
		ValidateCreate: mapRules(
			validation.Key("delegation_id", validation.Required),
			validation.Key("remark", validation.Required, validation.Length(1, 2000)),
		),
	}
}

// HistorySchema describes the append-only log of delegation changes.
func HistorySchema() *sheetdb.Schema {
	return &sheetdb.Schema{
		Table: TableHistory,
		Headers: []string{
			"id", "delegation_id", "action", "old_status", "new_status",
			"changed_by", "note", "created_at", "updated_at",
		},
		IntFields: []string{"delegation_id"},
		ValidateCreate: mapRules(
			validation.Key("delegation_id", validation.Required),
			validation.Key("action", validation.Required, validation.In(ActionCreated, ActionStatusChanged, ActionUpdated)),
		),
	}
}

// UserSchema describes the people of the workspace. education and
// team_members are JSON lists.
func UserSchema() *sheetdb.Schema {
	return &sheetdb.Schema{
		Table: TableUsers,
		Headers: []string{
			"id", "name", "email", "role", "department", "designation", "phone",
			"education", "team_members", "is_active", "created_at", "updated_at",
		},
		JSONFields: []string{"education", "team_members"},
		BoolFields: []string{"is_active"},
		ValidateCreate: mapRules(
			validation.Key("name", validation.Required, validation.Length(1, 100)),
			validation.Key("email", validation.Required, is.EmailFormat),
			validation.Key("role", validation.Length(1, 50)).Optional(),
			validation.Key("phone", validation.Length(0, 30)).Optional(),
			validation.Key("is_active", boolRule).Optional(),
		),
		ValidateUpdate: mapRules(
			validation.Key("name", validation.Required, validation.Length(1, 100)).Optional(),
			validation.Key("email", validation.Required, is.EmailFormat).Optional(),
			validation.Key("role", validation.Required, validation.Length(1, 50)).Optional(),
			validation.Key("phone", validation.Length(0, 30)).Optional(),
			validation.Key("is_active", boolRule).Optional(),
		),
	}
}

// DepartmentSchema describes departments and their heads.
func DepartmentSchema() *sheetdb.Schema {
	return &sheetdb.Schema{
		Table:   TableDepartments,
		Headers: []string{"id", "name", "head", "created_at", "updated_at"},
		ValidateCreate: mapRules(
			validation.Key("name", validation.Required, validation.Length(1, 100)),
		),
		ValidateUpdate: mapRules(
			validation.Key("name", validation.Required, validation.Length(1, 100)).Optional(),
		),
	}
}

// NotificationSchema describes per-user notifications.
func NotificationSchema() *sheetdb.Schema {
	return &sheetdb.Schema{
		Table:      TableNotifications,
		Headers:    []string{"id", "user_id", "title", "message", "type", "link", "is_read", "created_at", "updated_at"},
		BoolFields: []string{"is_read"},
		ValidateCreate: mapRules(
			validation.Key("user_id", validation.Required),
			validation.Key("title", validation.Required, validation.Length(1, 200)),
			validation.Key("is_read", boolRule).Optional(),
		),
		ValidateUpdate: mapRules(
			validation.Key("is_read", boolRule).Optional(),
		),
	}
}

// ChecklistSchema describes checklist rows. Rows of one recurring series
// share a group_id.
func ChecklistSchema() *sheetdb.Schema {
	return &sheetdb.Schema{
		Table: TableChecklists,
		Headers: []string{
			"id", "group_id", "task", "doer", "department", "frequency", "due_date",
			"status", "evidence_required", "remarks", "created_at", "updated_at",
		},
		BoolFields: []string{"evidence_required"},
		ValidateCreate: mapRules(
			validation.Key("task", validation.Required, validation.Length(1, 500)),
			validation.Key("doer", validation.Required, validation.Length(1, 100)),
			validation.Key("frequency", frequencyRule).Optional(),
			validation.Key("due_date", validation.Required, dateRule),
			validation.Key("status", statusRule).Optional(),
			validation.Key("evidence_required", boolRule).Optional(),
		),
		ValidateUpdate: mapRules(
			validation.Key("task", validation.Required, validation.Length(1, 500)).Optional(),
			validation.Key("doer", validation.Required, validation.Length(1, 100)).Optional(),
			validation.Key("frequency", frequencyRule).Optional(),
			validation.Key("due_date", validation.Required, dateRule).Optional(),
			validation.Key("status", validation.Required, statusRule).Optional(),
			validation.Key("evidence_required", boolRule).Optional(),
		),
	}
}

// TodoSchema describes personal to-dos owned by user_id.
func TodoSchema() *sheetdb.Schema {
	return &sheetdb.Schema{
		Table: TableTodos,
		Headers: []string{
			"id", "user_id", "title", "description", "status", "category",
			"important", "due_date", "created_at", "updated_at",
		},
		BoolFields: []string{"important"},
		ValidateCreate: mapRules(
			validation.Key("user_id", validation.Required),
			validation.Key("title", validation.Required, validation.Length(1, 200)),
			validation.Key("status", statusRule).Optional(),
			validation.Key("category", categoryRule).Optional(),
			validation.Key("important", boolRule).Optional(),
			validation.Key("due_date", dateRule).Optional(),
		),
		ValidateUpdate: mapRules(
			validation.Key("title", validation.Required, validation.Length(1, 200)).Optional(),
			validation.Key("status", validation.Required, statusRule).Optional(),
			validation.Key("category", validation.Required, categoryRule).Optional(),
			validation.Key("important", boolRule).Optional(),
			validation.Key("due_date", dateRule).Optional(),
		),
	}
}
