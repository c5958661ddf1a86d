package ops

import (
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	sheetdb "github.com/ideamans/go-sheetdb"
)

// Work status of delegations, checklists and to-dos.
const (
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusOnHold     = "on-hold"
	StatusDone       = "done"
)

// Category is independent of status: a trashed item keeps its status.
const (
	CategoryInbox = "inbox"
	CategoryTrash = "trash"
)

const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// History actions.
const (
	ActionCreated       = "created"
	ActionStatusChanged = "status_changed"
	ActionUpdated       = "updated"
)

var (
	statusRule    = validation.In(StatusPending, StatusInProgress, StatusOnHold, StatusDone)
	categoryRule  = validation.In(CategoryInbox, CategoryTrash)
	priorityRule  = validation.In(PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent)
	frequencyRule = validation.In(
		FrequencyOnce, FrequencyDaily, FrequencyWeekly, FrequencyFortnightly,
		FrequencyMonthly, FrequencyQuarterly, FrequencyYearly,
	)
	dateRule = validation.By(checkDate)
	boolRule = validation.By(checkBool)
)

func checkDate(value interface{}) error {
	switch v := value.(type) {
	case nil, time.Time:
		return nil
	case string:
		if v == "" {
			return nil
		}
		if _, ok := sheetdb.ParseTime(v); ok {
			return nil
		}
	}
	return errors.New("must be a date")
}

func checkBool(value interface{}) error {
	switch v := value.(type) {
	case nil, bool:
		return nil
	case string:
		if v == "" || strings.EqualFold(v, "TRUE") || strings.EqualFold(v, "FALSE") {
			return nil
		}
	}
	return errors.New("must be true or false")
}

// checkTransition allows any move between open statuses and from an open
// status to done. done is terminal.
func checkTransition(from, to string) error {
	if from == to {
		return nil
	}
	if from == StatusDone {
		return fmt.Errorf("status %q cannot change to %q", from, to)
	}
	return nil
}
