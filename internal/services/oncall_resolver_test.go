package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alert-center/internal/models"
)

func datep(s string) *string { return &s }

// S8: a date-range on-call entry covering the alert's create time
// resolves its users/groups into the target set.
func TestOnCallResolver_DateRangeMatch(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	userID := uuid.New()

	ruleStore := newMemRuleStore()
	ruleStore.users[userID] = models.NotificationInfo{Email: "primary@example.com"}

	ocStore := &memOnCallStore{rows: []models.OnCall{{
		ID:        uuid.New(),
		UserIDs:   []uuid.UUID{userID},
		Customer:  "acme",
		StartDate: datep("2026-03-01"),
		EndDate:   datep("2026-03-31"),
	}}}

	resolver := NewOnCallResolver(ocStore, ruleStore, FixedClock{At: now})
	alert := &models.Alert{Customer: "acme", CreateTime: now}

	targets, err := resolver.Resolve(context.Background(), alert)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, "primary@example.com", targets[0].Email)
}

// A recurring "list" on-call entry matches by weekday/ISO-week/month
// rather than an absolute date range.
func TestOnCallResolver_RecurringListMatch(t *testing.T) {
	// 2026-03-15 is a Sunday, ISO week 11.
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	userID := uuid.New()

	ruleStore := newMemRuleStore()
	ruleStore.users[userID] = models.NotificationInfo{Email: "weekend@example.com"}

	ocStore := &memOnCallStore{rows: []models.OnCall{{
		ID:           uuid.New(),
		UserIDs:      []uuid.UUID{userID},
		Customer:     "acme",
		RepeatType:   "list",
		RepeatDays:   []string{"sun"},
		RepeatWeeks:  []int{11},
		RepeatMonths: []string{"march"},
	}}}

	resolver := NewOnCallResolver(ocStore, ruleStore, FixedClock{At: now})
	targets, err := resolver.Resolve(context.Background(), &models.Alert{Customer: "acme", CreateTime: now})
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, "weekend@example.com", targets[0].Email)
}

// Neither the date range nor the recurrence matches: no targets.
func TestOnCallResolver_NoMatch(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	ocStore := &memOnCallStore{rows: []models.OnCall{{
		ID:        uuid.New(),
		Customer:  "acme",
		StartDate: datep("2025-01-01"),
		EndDate:   datep("2025-01-31"),
	}}}
	resolver := NewOnCallResolver(ocStore, newMemRuleStore(), FixedClock{At: now})
	targets, err := resolver.Resolve(context.Background(), &models.Alert{Customer: "acme", CreateTime: now})
	require.NoError(t, err)
	assert.Empty(t, targets)
}
