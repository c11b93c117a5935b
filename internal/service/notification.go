package service

import (
	"strings"
	"time"

	"github.com/lmsops/lp-reset-api/internal/platform"
)

const (
	placeholderDateFormat = "2006-01-02"
	placeholderTimeFormat = "15:04"
)

// renderPlaceholders substitutes the notification tokens in subject and
// body text. [date] and [time] come from the next-run estimate; when no
// estimate exists (manual schedules) they render empty.
func renderPlaceholders(text string, user platform.User, nextRun time.Time, hasNextRun bool) string {
	date, clock := "", ""
	if hasNextRun {
		date = nextRun.Format(placeholderDateFormat)
		clock = nextRun.Format(placeholderTimeFormat)
	}
	return strings.NewReplacer(
		"[name]", user.FullName(),
		"[firstname]", user.FirstName,
		"[lastname]", user.LastName,
		"[login]", user.Login,
		"[date]", date,
		"[time]", clock,
	).Replace(text)
}
