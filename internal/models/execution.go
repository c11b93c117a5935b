package models

import (
	"fmt"
	"time"
)

// ExecutionMethod records how a run was triggered.
type ExecutionMethod int

const (
	MethodManual    ExecutionMethod = 1
	MethodAutomatic ExecutionMethod = 2
)

// Valid reports whether the method is a known trigger.
func (m ExecutionMethod) Valid() bool {
	return m == MethodManual || m == MethodAutomatic
}

// String returns the stable label used in API payloads and exports.
func (m ExecutionMethod) String() string {
	switch m {
	case MethodManual:
		return "manual"
	case MethodAutomatic:
		return "automatic"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// ExecutionResult is the durable record of one completed reset run.
// Rows are append-only; nothing ever mutates them.
type ExecutionResult struct {
	ID         int64           `db:"id" json:"id"`
	ScheduleID int64           `db:"schedule_id" json:"schedule_id"`
	Date       time.Time       `db:"date" json:"date"`
	Method     ExecutionMethod `db:"method" json:"method"`
	DurationMS int64           `db:"duration_ms" json:"duration_ms"`

	AffectedUsers   []int64 `db:"-" json:"affected_users"`
	AffectedObjects []int64 `db:"-" json:"affected_objects"`
}

// ExecutionSummary is a history list row joined with the schedule name.
// Schedules may be deleted independently of their history, so the name is
// best-effort.
type ExecutionSummary struct {
	ID           int64           `db:"id" json:"id"`
	ScheduleID   int64           `db:"schedule_id" json:"schedule_id"`
	ScheduleName string          `db:"schedule_name" json:"schedule_name"`
	Date         time.Time       `db:"date" json:"date"`
	Method       ExecutionMethod `db:"method" json:"method"`
	DurationMS   int64           `db:"duration_ms" json:"duration_ms"`
	UserCount    int             `db:"user_count" json:"user_count"`
	ObjectCount  int             `db:"object_count" json:"object_count"`
}

// HistoryFilter describes query params for listing execution history.
type HistoryFilter struct {
	ScheduleID int64
	Method     ExecutionMethod
	Page       int
	PageSize   int
}
