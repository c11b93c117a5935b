package service

import (
	"time"

	"github.com/lmsops/lp-reset-api/internal/models"
)

// Recurrence decisions are pure functions over the schedule's frequency
// configuration and its timestamps. Malformed or missing frequency
// parameters always degrade to "do not run" rather than erroring, so a
// half-configured schedule can never fire.

// ShouldRun reports whether the schedule is due for an automatic run at now.
func ShouldRun(sched *models.Schedule, now time.Time) bool {
	if sched.FrequencyKind == models.FrequencyManual {
		return false
	}
	if !paramsValid(sched) {
		return false
	}

	ref := sched.Reference()
	switch sched.FrequencyKind {
	case models.FrequencyMinutely:
		return elapsedMinutes(ref, now) >= sched.FrequencyParams.Interval
	case models.FrequencyHourly:
		return elapsedHours(ref, now) >= sched.FrequencyParams.Interval
	case models.FrequencyDaily:
		return elapsedDays(ref, now) >= sched.FrequencyParams.Interval
	case models.FrequencyWeekly:
		return elapsedDays(ref, now) >= sched.FrequencyParams.Interval*7
	case models.FrequencyMonthly:
		return elapsedMonths(ref, now) >= sched.FrequencyParams.Interval
	case models.FrequencyYearly:
		return elapsedMonths(ref, now) >= sched.FrequencyParams.Interval*12
	case models.FrequencyDayOfWeek:
		// The same-day guard fires first so a schedule never runs twice on
		// its configured weekday.
		if sameCalendarDay(ref, now) {
			return false
		}
		return isoWeekday(now) == *sched.FrequencyParams.Day+1
	case models.FrequencyDayOfYear:
		if sameCalendarDay(ref, now) {
			return false
		}
		return int(now.Month()) == sched.FrequencyParams.Month && now.Day() == *sched.FrequencyParams.Day
	default:
		return false
	}
}

// ShouldNotify reports whether an advance notification is due at now. It
// fires at most once per calendar day and only inside the configured
// days-in-advance window before the next run.
func ShouldNotify(sched *models.Schedule, now time.Time) bool {
	if !sched.EmailEnabled {
		return false
	}
	lastNotified := time.Unix(0, 0)
	if sched.LastNotification != nil {
		lastNotified = *sched.LastNotification
	}
	if sameCalendarDay(lastNotified, now) {
		return false
	}

	next, ok := NextRun(sched)
	if !ok {
		return false
	}
	threshold := next.AddDate(0, 0, -sched.DaysInAdvance)
	return !calendarDate(now).Before(calendarDate(threshold))
}

// NextRun computes the next scheduled instant, one period past the
// schedule's reference timestamp. The second return is false for manual
// schedules and for malformed frequency parameters.
func NextRun(sched *models.Schedule) (time.Time, bool) {
	if sched.FrequencyKind == models.FrequencyManual || !paramsValid(sched) {
		return time.Time{}, false
	}

	ref := sched.Reference()
	interval := sched.FrequencyParams.Interval
	switch sched.FrequencyKind {
	case models.FrequencyMinutely:
		return ref.Add(time.Duration(interval) * time.Minute), true
	case models.FrequencyHourly:
		return ref.Add(time.Duration(interval) * time.Hour), true
	case models.FrequencyDaily:
		return ref.AddDate(0, 0, interval), true
	case models.FrequencyWeekly:
		return ref.AddDate(0, 0, interval*7), true
	case models.FrequencyMonthly:
		return ref.AddDate(0, interval, 0), true
	case models.FrequencyYearly:
		return ref.AddDate(interval, 0, 0), true
	case models.FrequencyDayOfWeek:
		delta := (*sched.FrequencyParams.Day + 1 - isoWeekday(ref) + 7) % 7
		if delta == 0 {
			delta = 7
		}
		return ref.AddDate(0, 0, delta), true
	case models.FrequencyDayOfYear:
		next := time.Date(ref.Year(), time.Month(sched.FrequencyParams.Month), *sched.FrequencyParams.Day,
			0, 0, 0, 0, ref.Location())
		if next.Before(ref) {
			next = next.AddDate(1, 0, 0)
		}
		return next, true
	default:
		return time.Time{}, false
	}
}

func paramsValid(sched *models.Schedule) bool {
	params := sched.FrequencyParams
	switch sched.FrequencyKind {
	case models.FrequencyMinutely, models.FrequencyHourly, models.FrequencyDaily,
		models.FrequencyWeekly, models.FrequencyMonthly, models.FrequencyYearly:
		return params.Interval >= 1
	case models.FrequencyDayOfWeek:
		return params.Day != nil && *params.Day >= 0 && *params.Day <= 6
	case models.FrequencyDayOfYear:
		return params.Day != nil && *params.Day >= 1 && *params.Day <= 31 &&
			params.Month >= 1 && params.Month <= 12
	default:
		return false
	}
}

// isoWeekday maps time.Weekday (Sunday=0) to ISO 8601 (Monday=1..Sunday=7).
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

func sameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func elapsedMinutes(ref, now time.Time) int {
	return int(now.Sub(ref) / time.Minute)
}

func elapsedHours(ref, now time.Time) int {
	return int(now.Sub(ref) / time.Hour)
}

func elapsedDays(ref, now time.Time) int {
	return int(now.Sub(ref) / (24 * time.Hour))
}

// elapsedMonths counts fully completed calendar months between ref and now.
func elapsedMonths(ref, now time.Time) int {
	if now.Before(ref) {
		return 0
	}
	months := (now.Year()-ref.Year())*12 + int(now.Month()) - int(ref.Month())
	if now.Day() < ref.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}
