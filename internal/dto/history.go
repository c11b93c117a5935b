package dto

// HistoryQuery holds list query params for execution history.
type HistoryQuery struct {
	ScheduleID int64  `form:"schedule_id"`
	Method     string `form:"method"`
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
}
