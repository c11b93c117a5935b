package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lmsops/lp-reset-api/internal/platform"
)

func TestRenderPlaceholders(t *testing.T) {
	user := platform.User{Login: "jdoe", FirstName: "Jane", LastName: "Doe"}
	next := time.Date(2026, 3, 4, 3, 30, 0, 0, time.UTC)

	out := renderPlaceholders("Hello [name] ([login]): reset on [date] at [time]", user, next, true)
	assert.Equal(t, "Hello Jane Doe (jdoe): reset on 2026-03-04 at 03:30", out)

	out = renderPlaceholders("[firstname] [lastname]", user, next, true)
	assert.Equal(t, "Jane Doe", out)
}

func TestRenderPlaceholdersNoNextRun(t *testing.T) {
	user := platform.User{Login: "jdoe"}

	out := renderPlaceholders("reset on [date] [time]", user, time.Time{}, false)
	assert.Equal(t, "reset on  ", out)
}

func TestRenderPlaceholdersNameFallsBackToLogin(t *testing.T) {
	user := platform.User{Login: "jdoe"}
	out := renderPlaceholders("[name]", user, time.Time{}, false)
	assert.Equal(t, "jdoe", out)
}
