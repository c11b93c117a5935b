package dto

// FrequencyParamsPayload mirrors the kind-dependent recurrence payload.
// Day is a pointer so day-of-week value 0 (Monday) survives decoding.
type FrequencyParamsPayload struct {
	Interval int  `json:"interval,omitempty" validate:"min=0"`
	Day      *int `json:"day,omitempty"`
	Month    int  `json:"month,omitempty" validate:"min=0,max=12"`
}

// SchedulePayload is the create/update body for a reset schedule.
type SchedulePayload struct {
	Name                 string                 `json:"name" validate:"required,max=255"`
	AudienceMode         int                    `json:"audience_mode" validate:"required,min=1,max=4"`
	FrequencyKind        string                 `json:"frequency_kind" validate:"required"`
	FrequencyParams      FrequencyParamsPayload `json:"frequency_params"`
	EmailEnabled         bool                   `json:"email_enabled"`
	DaysInAdvance        int                    `json:"days_in_advance" validate:"min=0"`
	NotificationSubject  string                 `json:"notification_subject"`
	NotificationTemplate string                 `json:"notification_template"`
	AfterRunSubject      string                 `json:"after_run_subject"`
	AfterRunTemplate     string                 `json:"after_run_template"`
	SelectedObjects      []int64                `json:"selected_objects"`
	AudienceUserIDs      []int64                `json:"audience_user_ids"`
	AudienceRoleIDs      []int64                `json:"audience_role_ids"`
	ExcludedUserIDs      []int64                `json:"excluded_user_ids"`
}

// ScheduleQuery holds list query params.
type ScheduleQuery struct {
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order"`
}
