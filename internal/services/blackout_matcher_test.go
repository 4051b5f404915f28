package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"alert-center/internal/models"
)

func strp(s string) *string { return &s }

// P5/S4: a blackout silences any alert whose create_time falls in its
// window and whose specified (non-nil) attributes all match; nil
// attributes are wildcards.
func TestBlackoutMatcher_Matches(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	matcher := NewBlackoutMatcher(FixedClock{At: now})

	alert := &models.Alert{
		Environment: "prod",
		Resource:    "web01",
		Event:       "HighCPU",
		Service:     []string{"checkout"},
		Tags:        []string{"team:sre"},
		CreateTime:  now,
	}

	wide := models.Blackout{
		Environment: "prod",
		StartTime:   now.Add(-time.Hour),
		EndTime:     now.Add(time.Hour),
	}
	assert.True(t, matcher.Matches(alert, []models.Blackout{wide}), "wildcard blackout matches any resource/event")

	narrow := models.Blackout{
		Environment: "prod",
		Resource:    strp("web02"), // different resource
		StartTime:   now.Add(-time.Hour),
		EndTime:     now.Add(time.Hour),
	}
	assert.False(t, matcher.Matches(alert, []models.Blackout{narrow}))

	expired := models.Blackout{
		Environment: "prod",
		StartTime:   now.Add(-2 * time.Hour),
		EndTime:     now.Add(-time.Hour),
	}
	assert.False(t, matcher.Matches(alert, []models.Blackout{expired}), "window already elapsed")

	serviceMismatch := models.Blackout{
		Environment: "prod",
		Service:     []string{"billing"},
		StartTime:   now.Add(-time.Hour),
		EndTime:     now.Add(time.Hour),
	}
	assert.False(t, matcher.Matches(alert, []models.Blackout{serviceMismatch}))

	tagMatch := models.Blackout{
		Environment: "prod",
		Tags:        []string{"team:sre"},
		StartTime:   now.Add(-time.Hour),
		EndTime:     now.Add(time.Hour),
	}
	assert.True(t, matcher.Matches(alert, []models.Blackout{tagMatch}))

	assert.False(t, matcher.Matches(alert, nil), "no rows never matches")
}

// The end time boundary is exclusive: an alert created exactly at
// EndTime is no longer blacked out.
func TestBlackoutMatcher_EndTimeExclusive(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	matcher := NewBlackoutMatcher(FixedClock{At: now})

	alert := &models.Alert{Environment: "prod", CreateTime: now}
	b := models.Blackout{
		Environment: "prod",
		StartTime:   now.Add(-time.Hour),
		EndTime:     now,
	}
	assert.False(t, matcher.Matches(alert, []models.Blackout{b}))
}
