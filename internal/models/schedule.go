package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// AudienceMode selects how the affected user set is resolved for a schedule.
type AudienceMode int

const (
	AudienceAll       AudienceMode = 1
	AudienceSpecific  AudienceMode = 2
	AudienceByRole    AudienceMode = 3
	AudienceAllExcept AudienceMode = 4
)

// Valid reports whether the mode is one of the known values.
func (m AudienceMode) Valid() bool {
	return m >= AudienceAll && m <= AudienceAllExcept
}

// String returns the stable label used in API payloads and logs.
func (m AudienceMode) String() string {
	switch m {
	case AudienceAll:
		return "all_users"
	case AudienceSpecific:
		return "specific_users"
	case AudienceByRole:
		return "users_by_role"
	case AudienceAllExcept:
		return "all_users_except"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// FrequencyKind enumerates the recurrence families a schedule can use.
type FrequencyKind string

const (
	FrequencyManual    FrequencyKind = "manual"
	FrequencyMinutely  FrequencyKind = "minutely"
	FrequencyHourly    FrequencyKind = "hourly"
	FrequencyDaily     FrequencyKind = "daily"
	FrequencyWeekly    FrequencyKind = "weekly"
	FrequencyMonthly   FrequencyKind = "monthly"
	FrequencyYearly    FrequencyKind = "yearly"
	FrequencyDayOfWeek FrequencyKind = "day_of_week"
	FrequencyDayOfYear FrequencyKind = "day_of_year"
)

// Valid reports whether the kind is part of the catalog.
func (k FrequencyKind) Valid() bool {
	switch k {
	case FrequencyManual, FrequencyMinutely, FrequencyHourly, FrequencyDaily,
		FrequencyWeekly, FrequencyMonthly, FrequencyYearly,
		FrequencyDayOfWeek, FrequencyDayOfYear:
		return true
	}
	return false
}

// IntervalBased reports whether the kind carries an {interval} payload.
func (k FrequencyKind) IntervalBased() bool {
	switch k {
	case FrequencyMinutely, FrequencyHourly, FrequencyDaily,
		FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// FrequencyParams is the kind-dependent recurrence payload, persisted as JSONB.
// Interval applies to the interval kinds; Day is 0..6 (0=Monday) for
// day_of_week and 1..31 for day_of_year; Month is 1..12 for day_of_year.
type FrequencyParams struct {
	Interval int  `json:"interval,omitempty"`
	Day      *int `json:"day,omitempty"`
	Month    int  `json:"month,omitempty"`
}

// IsZero reports whether no payload is configured at all. The recurrence
// engine treats zero params as "never run".
func (p FrequencyParams) IsZero() bool {
	return p.Interval == 0 && p.Day == nil && p.Month == 0
}

// Value marshals params to JSON for persistence.
func (p FrequencyParams) Value() (driver.Value, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal frequency params: %w", err)
	}
	return raw, nil
}

// Scan decodes params from their JSON persistence form.
func (p *FrequencyParams) Scan(src interface{}) error {
	if src == nil {
		*p = FrequencyParams{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported frequency params type %T", src)
	}
	if len(raw) == 0 {
		*p = FrequencyParams{}
		return nil
	}
	return json.Unmarshal(raw, p)
}

// Schedule is one configured reset policy: which objects, which users, how
// often, and how to warn people up front.
type Schedule struct {
	ID                   int64           `db:"id" json:"id"`
	Name                 string          `db:"name" json:"name"`
	AudienceMode         AudienceMode    `db:"audience_mode" json:"audience_mode"`
	FrequencyKind        FrequencyKind   `db:"frequency_kind" json:"frequency_kind"`
	FrequencyParams      FrequencyParams `db:"frequency_params" json:"frequency_params"`
	CreatedAt            time.Time       `db:"created_at" json:"created_at"`
	EmailEnabled         bool            `db:"email_enabled" json:"email_enabled"`
	DaysInAdvance        int             `db:"days_in_advance" json:"days_in_advance"`
	NotificationSubject  string          `db:"notification_subject" json:"notification_subject"`
	NotificationTemplate string          `db:"notification_template" json:"notification_template"`
	AfterRunSubject      string          `db:"after_run_subject" json:"after_run_subject"`
	AfterRunTemplate     string          `db:"after_run_template" json:"after_run_template"`
	LastRun              *time.Time      `db:"last_run" json:"last_run,omitempty"`
	LastNotification     *time.Time      `db:"last_notification" json:"last_notification,omitempty"`

	// Detail rows loaded from the mode-specific tables.
	SelectedObjects []int64 `db:"-" json:"selected_objects"`
	// AudienceLabel is derived from the mode and detail rows for display.
	AudienceLabel string `db:"-" json:"audience_label,omitempty"`
	AudienceUserIDs []int64 `db:"-" json:"audience_user_ids,omitempty"`
	AudienceRoleIDs []int64 `db:"-" json:"audience_role_ids,omitempty"`
	ExcludedUserIDs []int64 `db:"-" json:"excluded_user_ids,omitempty"`
}

// Persisted reports whether the schedule has been saved (id assigned).
func (s *Schedule) Persisted() bool {
	return s.ID > 0
}

// Reference returns the timestamp recurrence decisions are measured from:
// the last successful run, or creation time before any run happened.
func (s *Schedule) Reference() time.Time {
	if s.LastRun != nil {
		return *s.LastRun
	}
	return s.CreatedAt
}

// ScheduleFilter describes query params for listing schedules.
type ScheduleFilter struct {
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
