package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmsops/lp-reset-api/internal/models"
)

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func intervalSchedule(kind models.FrequencyKind, interval int, lastRun time.Time) *models.Schedule {
	return &models.Schedule{
		ID:              1,
		FrequencyKind:   kind,
		FrequencyParams: models.FrequencyParams{Interval: interval},
		CreatedAt:       lastRun.AddDate(-1, 0, 0),
		LastRun:         timePtr(lastRun),
	}
}

func TestShouldRunManualNeverFires(t *testing.T) {
	sched := &models.Schedule{FrequencyKind: models.FrequencyManual}
	assert.False(t, ShouldRun(sched, time.Now()))
}

func TestShouldRunMissingParams(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	sched := &models.Schedule{
		FrequencyKind: models.FrequencyDaily,
		CreatedAt:     now.AddDate(0, 0, -30),
	}
	assert.False(t, ShouldRun(sched, now))
}

func TestShouldRunDailyBoundary(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	assert.True(t, ShouldRun(intervalSchedule(models.FrequencyDaily, 1, now.Add(-25*time.Hour)), now))
	assert.False(t, ShouldRun(intervalSchedule(models.FrequencyDaily, 1, now.Add(-23*time.Hour)), now))
}

func TestShouldRunZeroElapsedIsFalse(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	kinds := []models.FrequencyKind{
		models.FrequencyMinutely, models.FrequencyHourly, models.FrequencyDaily,
		models.FrequencyWeekly, models.FrequencyMonthly, models.FrequencyYearly,
	}
	for _, kind := range kinds {
		assert.False(t, ShouldRun(intervalSchedule(kind, 1, now), now), string(kind))
	}
}

func TestShouldRunWeeklyCountsDays(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	assert.True(t, ShouldRun(intervalSchedule(models.FrequencyWeekly, 2, now.AddDate(0, 0, -14)), now))
	assert.False(t, ShouldRun(intervalSchedule(models.FrequencyWeekly, 2, now.AddDate(0, 0, -13)), now))
}

func TestShouldRunMonthlyPartialMonth(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.True(t, ShouldRun(intervalSchedule(models.FrequencyMonthly, 1, time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)), now))
	assert.False(t, ShouldRun(intervalSchedule(models.FrequencyMonthly, 1, time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)), now))
}

func TestShouldRunDayOfWeekSameDayGuard(t *testing.T) {
	// 2026-03-04 is a Wednesday (stored day 2).
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	sched := &models.Schedule{
		FrequencyKind:   models.FrequencyDayOfWeek,
		FrequencyParams: models.FrequencyParams{Day: intPtr(2)},
		CreatedAt:       now.AddDate(0, 0, -30),
	}

	sched.LastRun = timePtr(now.Add(-2 * time.Hour))
	assert.False(t, ShouldRun(sched, now), "ran earlier today")

	sched.LastRun = timePtr(now.AddDate(0, 0, -7))
	assert.True(t, ShouldRun(sched, now))

	// Tuesday does not match day 2.
	tuesday := time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC)
	assert.False(t, ShouldRun(sched, tuesday))
}

func TestShouldRunDayOfWeekHonorsMondayZero(t *testing.T) {
	// 2026-03-02 is a Monday.
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	sched := &models.Schedule{
		FrequencyKind:   models.FrequencyDayOfWeek,
		FrequencyParams: models.FrequencyParams{Day: intPtr(0)},
		CreatedAt:       now.AddDate(0, 0, -30),
		LastRun:         timePtr(now.AddDate(0, 0, -3)),
	}
	assert.True(t, ShouldRun(sched, now))
}

func TestShouldRunDayOfYear(t *testing.T) {
	sched := &models.Schedule{
		FrequencyKind:   models.FrequencyDayOfYear,
		FrequencyParams: models.FrequencyParams{Day: intPtr(15), Month: 8},
		CreatedAt:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		LastRun:         timePtr(time.Date(2025, 8, 15, 3, 0, 0, 0, time.UTC)),
	}

	assert.True(t, ShouldRun(sched, time.Date(2026, 8, 15, 3, 0, 0, 0, time.UTC)))
	assert.False(t, ShouldRun(sched, time.Date(2026, 8, 14, 3, 0, 0, 0, time.UTC)))

	sched.LastRun = timePtr(time.Date(2026, 8, 15, 1, 0, 0, 0, time.UTC))
	assert.False(t, ShouldRun(sched, time.Date(2026, 8, 15, 23, 0, 0, 0, time.UTC)), "same calendar day")
}

func TestNextRunIntervalKinds(t *testing.T) {
	last := time.Date(2026, 3, 2, 3, 0, 0, 0, time.UTC)

	next, ok := NextRun(intervalSchedule(models.FrequencyDaily, 3, last))
	require.True(t, ok)
	assert.Equal(t, last.AddDate(0, 0, 3), next)

	next, ok = NextRun(intervalSchedule(models.FrequencyHourly, 6, last))
	require.True(t, ok)
	assert.Equal(t, last.Add(6*time.Hour), next)

	next, ok = NextRun(intervalSchedule(models.FrequencyWeekly, 2, last))
	require.True(t, ok)
	assert.Equal(t, last.AddDate(0, 0, 14), next)
}

func TestNextRunDayOfWeekWrapsOnZeroDelta(t *testing.T) {
	// Reference is a Wednesday; configured day is Wednesday as well, so the
	// next occurrence is a full week out.
	last := time.Date(2026, 3, 4, 3, 0, 0, 0, time.UTC)
	sched := &models.Schedule{
		FrequencyKind:   models.FrequencyDayOfWeek,
		FrequencyParams: models.FrequencyParams{Day: intPtr(2)},
		LastRun:         timePtr(last),
	}

	next, ok := NextRun(sched)
	require.True(t, ok)
	assert.Equal(t, last.AddDate(0, 0, 7), next)

	// Friday (day 4) from a Wednesday reference is two days out.
	sched.FrequencyParams.Day = intPtr(4)
	next, ok = NextRun(sched)
	require.True(t, ok)
	assert.Equal(t, last.AddDate(0, 0, 2), next)
}

func TestNextRunDayOfYearRollsToNextYear(t *testing.T) {
	sched := &models.Schedule{
		FrequencyKind:   models.FrequencyDayOfYear,
		FrequencyParams: models.FrequencyParams{Day: intPtr(15), Month: 2},
		LastRun:         timePtr(time.Date(2026, 8, 20, 3, 0, 0, 0, time.UTC)),
	}

	next, ok := NextRun(sched)
	require.True(t, ok)
	assert.Equal(t, time.Date(2027, 2, 15, 0, 0, 0, 0, time.UTC), next)

	sched.LastRun = timePtr(time.Date(2026, 1, 10, 3, 0, 0, 0, time.UTC))
	next, ok = NextRun(sched)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC), next)
}

func TestNextRunManualHasNoEstimate(t *testing.T) {
	_, ok := NextRun(&models.Schedule{FrequencyKind: models.FrequencyManual})
	assert.False(t, ok)
}

func TestShouldNotifyWindow(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	sched := intervalSchedule(models.FrequencyDaily, 7, now.AddDate(0, 0, -5))
	sched.EmailEnabled = true
	sched.DaysInAdvance = 2

	// Next run is 2026-03-04; two days in advance puts the window start at
	// today.
	assert.True(t, ShouldNotify(sched, now))

	sched.DaysInAdvance = 1
	assert.False(t, ShouldNotify(sched, now))

	sched.DaysInAdvance = 2
	sched.EmailEnabled = false
	assert.False(t, ShouldNotify(sched, now))
}

func TestShouldNotifyOncePerCalendarDay(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	sched := intervalSchedule(models.FrequencyDaily, 1, now.Add(-48*time.Hour))
	sched.EmailEnabled = true
	sched.DaysInAdvance = 3

	require.True(t, ShouldNotify(sched, now))

	sched.LastNotification = timePtr(now.Add(-2 * time.Hour))
	assert.False(t, ShouldNotify(sched, now), "already notified today")

	sched.LastNotification = timePtr(now.AddDate(0, 0, -1))
	assert.True(t, ShouldNotify(sched, now))
}

func TestShouldNotifyManualNeverFires(t *testing.T) {
	sched := &models.Schedule{
		FrequencyKind: models.FrequencyManual,
		EmailEnabled:  true,
		DaysInAdvance: 5,
	}
	assert.False(t, ShouldNotify(sched, time.Now()))
}
