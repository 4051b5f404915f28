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

func newTestScheduler(now time.Time) (*Scheduler, *memAlertStore, *memRuleStore, *memDispatchStore) {
	alertStore := newMemAlertStore()
	blackouts := &memBlackoutStore{}
	clock := FixedClock{At: now}
	engine := NewAlertEngine(alertStore, blackouts, clock)

	ruleStore := newMemRuleStore()
	ruleEngine := NewRuleEngine(ruleStore, nil, clock)

	dispatchStore := newMemDispatchStore()
	dispatcher := NewDispatcher(dispatchStore, clock)

	heartbeats := &memHeartbeatStore{}
	sched := NewScheduler(engine, ruleEngine, dispatcher, heartbeats, clock, nil)
	return sched, alertStore, ruleStore, dispatchStore
}

// Comment-3 regression: EscalateScan must persist the severity bump to
// the store, not just mutate an in-memory copy (S6: "stored severity
// becomes major").
func TestEscalateScan_PersistsSeverityBump(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	sched, alertStore, ruleStore, _ := newTestScheduler(now)
	ctx := context.Background()

	ruleStore.escalationRules = []models.EscalationRule{{
		ID:          uuid.New(),
		Active:      true,
		Environment: "prod",
		Customer:    "acme",
		Time:        10 * time.Minute,
	}}

	alert := &models.Alert{
		ID:              uuid.New(),
		Environment:     "prod",
		Customer:        "acme",
		Status:          models.StatusOpen,
		Severity:        models.SeverityMinor,
		LastReceiveTime: now.Add(-20 * time.Minute),
	}
	require.NoError(t, alertStore.CreateAlert(ctx, alert))

	escalated, err := sched.EscalateScan(ctx, "prod", "acme", []models.Alert{*alert})
	require.NoError(t, err)
	require.Len(t, escalated, 1)
	assert.Equal(t, models.NextMoreSevere(models.SeverityMinor), escalated[0].Severity)

	stored, err := alertStore.GetAlert(ctx, alert.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NextMoreSevere(models.SeverityMinor), stored.Severity, "severity bump must be persisted")
}

// Comment-4 regression: escalateSweep groups open alerts by
// (environment, customer) and runs EscalateScan per group, wiring the
// escalation pipeline to the scheduler's ticker loop.
func TestEscalateSweep_GroupsByEnvironmentAndCustomer(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	sched, alertStore, ruleStore, _ := newTestScheduler(now)
	ctx := context.Background()

	ruleStore.escalationRules = []models.EscalationRule{
		{ID: uuid.New(), Active: true, Environment: "prod", Customer: "acme", Time: 10 * time.Minute},
		{ID: uuid.New(), Active: true, Environment: "staging", Customer: "acme", Time: 10 * time.Minute},
	}

	prodAlert := &models.Alert{
		ID: uuid.New(), Environment: "prod", Customer: "acme", Status: models.StatusOpen,
		Severity: models.SeverityMinor, LastReceiveTime: now.Add(-20 * time.Minute),
	}
	stagingAlert := &models.Alert{
		ID: uuid.New(), Environment: "staging", Customer: "acme", Status: models.StatusOpen,
		Severity: models.SeverityMinor, LastReceiveTime: now.Add(-20 * time.Minute),
	}
	tooFresh := &models.Alert{
		ID: uuid.New(), Environment: "prod", Customer: "acme", Status: models.StatusOpen,
		Severity: models.SeverityMinor, LastReceiveTime: now,
	}
	require.NoError(t, alertStore.CreateAlert(ctx, prodAlert))
	require.NoError(t, alertStore.CreateAlert(ctx, stagingAlert))
	require.NoError(t, alertStore.CreateAlert(ctx, tooFresh))

	n, err := sched.RunEscalateScan(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

// delayedFireSweep wires Dispatcher.FireDue against the live rule/alert
// stores rather than leaving it unreachable from any ticker or route.
func TestDelayedFireSweep_DrainsDueEntries(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	sched, alertStore, ruleStore, dispatchStore := newTestScheduler(now)
	ctx := context.Background()

	channel := &models.NotificationChannel{ID: uuid.New(), Type: models.ChannelLinkMobilityXML, Host: "http://127.0.0.1:0"}
	dispatchStore.channels[channel.ID] = channel

	rule := models.NotificationRule{ID: uuid.New(), ChannelID: channel.ID}
	ruleStore.notificationRules = []models.NotificationRule{rule}

	alert := &models.Alert{ID: uuid.New(), Environment: "prod"}
	require.NoError(t, alertStore.CreateAlert(ctx, alert))

	dn := &models.DelayedNotification{ID: uuid.New(), AlertID: alert.ID, RuleID: rule.ID, FireAt: now.Add(-time.Minute)}
	require.NoError(t, dispatchStore.EnqueueDelayed(ctx, dn))

	n, err := sched.RunDelayedFire(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, dispatchStore.delayed, "the drained entry must be removed regardless of send outcome")
}
