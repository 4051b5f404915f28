package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alert-center/internal/models"
	apierrors "alert-center/pkg/errors"
)

func newTestEngine(now time.Time) (*AlertEngine, *memAlertStore, *memBlackoutStore) {
	store := newMemAlertStore()
	blackouts := &memBlackoutStore{}
	clock := FixedClock{At: now}
	engine := NewAlertEngine(store, blackouts, clock)
	engine.SetRateLimit(1000, 1000) // tests fire many alerts from the same origin
	return engine, store, blackouts
}

func baseAlert(env, resource, event, severity string) *models.Alert {
	return &models.Alert{
		Environment: env,
		Resource:    resource,
		Event:       event,
		Severity:    models.Severity(severity),
		Customer:    "acme",
		Origin:      "test-origin",
	}
}

// P1/S1: a brand new identity creates a fresh alert that moves from the
// default status to Open on its non-normal severity, with a "new"
// history entry.
func TestProcess_CreatesNewAlert(t *testing.T) {
	engine, _, _ := newTestEngine(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	result, err := engine.Process(ctx, baseAlert("prod", "web01", "HighCPU", "major"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreate, result.Outcome)
	assert.Equal(t, models.StatusOpen, result.Alert.Status)
	assert.Len(t, result.Alert.History, 1)
	assert.Equal(t, models.ChangeNew, result.Alert.History[0].ChangeType)
}

// P1/S2: a repeat of the same (environment, resource, event, customer)
// with unchanged severity is a dedup — duplicate_count increments, no
// new identity is created.
func TestProcess_DedupSameEventSameSeverity(t *testing.T) {
	engine, store, _ := newTestEngine(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	first, err := engine.Process(ctx, baseAlert("prod", "web01", "HighCPU", "major"))
	require.NoError(t, err)

	second, err := engine.Process(ctx, baseAlert("prod", "web01", "HighCPU", "major"))
	require.NoError(t, err)

	assert.Equal(t, OutcomeDuplicate, second.Outcome)
	assert.Equal(t, first.Alert.ID, second.Alert.ID)
	assert.Equal(t, 1, second.Alert.DuplicateCount)
	assert.Len(t, store.byID, 1)
}

// P1: same event, different severity is a correlate, not a dedup —
// previous_severity records the transition.
func TestProcess_CorrelateSameEventDifferentSeverity(t *testing.T) {
	engine, _, _ := newTestEngine(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	first, err := engine.Process(ctx, baseAlert("prod", "web01", "HighCPU", "major"))
	require.NoError(t, err)

	second, err := engine.Process(ctx, baseAlert("prod", "web01", "HighCPU", "critical"))
	require.NoError(t, err)

	assert.Equal(t, OutcomeCorrelate, second.Outcome)
	assert.Equal(t, first.Alert.ID, second.Alert.ID)
	assert.Equal(t, models.SeverityMajor, second.Alert.PreviousSeverity)
	assert.Equal(t, models.TrendMoreSevere, second.Alert.TrendIndication)
}

// P1: an incoming event listed in the existing alert's correlate set
// is also a correlate against that row.
func TestProcess_CorrelateViaCorrelateSet(t *testing.T) {
	engine, _, _ := newTestEngine(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	firstIncoming := baseAlert("prod", "web01", "NodeDown", "major")
	firstIncoming.Correlate = []string{"NodeDown", "NodeUp"}
	first, err := engine.Process(ctx, firstIncoming)
	require.NoError(t, err)

	second, err := engine.Process(ctx, baseAlert("prod", "web01", "NodeUp", "normal"))
	require.NoError(t, err)

	assert.Equal(t, OutcomeCorrelate, second.Outcome)
	assert.Equal(t, first.Alert.ID, second.Alert.ID)
	assert.Equal(t, "NodeUp", second.Alert.Event)
}

// Comment-1 regression: an alert for the same resource but a genuinely
// unrelated event (not the stored event, and not in its correlate set)
// must start a brand-new identity rather than overwrite the existing
// row. Grounded on is_duplicate/is_correlated in
// original_source/alerta/database/backends/postgres/base.py:220-239.
func TestProcess_UnrelatedEventCreatesNewIdentity(t *testing.T) {
	engine, store, _ := newTestEngine(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	first, err := engine.Process(ctx, baseAlert("prod", "web01", "HighCPU", "major"))
	require.NoError(t, err)

	second, err := engine.Process(ctx, baseAlert("prod", "web01", "DiskFull", "critical"))
	require.NoError(t, err)

	assert.Equal(t, OutcomeCreate, second.Outcome)
	assert.NotEqual(t, first.Alert.ID, second.Alert.ID)
	assert.Len(t, store.byID, 2)

	// The original alert must be untouched by the unrelated ingest.
	stillThere, err := store.GetAlert(ctx, first.Alert.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SeverityMajor, stillThere.Severity)
	assert.Equal(t, "HighCPU", stillThere.Event)
}

// An alert in an active blackout window is tagged StatusBlackout and
// returns ErrBlackoutPeriod without reaching identity resolution.
func TestProcess_Blackout(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	engine, store, blackouts := newTestEngine(now)
	ctx := context.Background()

	blackouts.rows = []models.Blackout{{
		Environment: "prod",
		StartTime:   now.Add(-time.Hour),
		EndTime:     now.Add(time.Hour),
	}}

	result, err := engine.Process(ctx, baseAlert("prod", "web01", "HighCPU", "major"))
	assert.ErrorIs(t, err, apierrors.ErrBlackoutPeriod)
	require.NotNil(t, result)
	assert.Equal(t, OutcomeBlackout, result.Outcome)
	assert.Equal(t, models.StatusBlackout, result.Alert.Status)
	assert.Empty(t, store.byID)
}

// Heartbeat events are rejected in pre-process before identity lookup.
func TestProcess_HeartbeatRejected(t *testing.T) {
	engine, _, _ := newTestEngine(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	_, err := engine.Process(ctx, baseAlert("prod", "web01", "Heartbeat", "normal"))
	assert.ErrorIs(t, err, apierrors.ErrHeartbeatReceived)
}

// Comment-2 regression: the Ack re-alarm guard must compare against
// DefaultPreviousSeverity(), not DefaultNormalSeverity — the two are
// separately configurable per spec §6.
func TestTransition_AckReAlarmUsesConfiguredPreviousSeverity(t *testing.T) {
	models.SetDefaultPreviousSeverity(models.SeverityWarning)
	defer models.SetDefaultPreviousSeverity(models.SeverityNormal)

	engine, _, _ := newTestEngine(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	alert := &models.Alert{
		Status:           models.StatusAck,
		Severity:         models.SeverityCritical,
		PreviousSeverity: models.SeverityWarning, // matches the configured fallback
	}
	sev, status := engine.Transition(alert, nil)
	assert.Equal(t, models.SeverityCritical, sev)
	// previous == configured DefaultPreviousSeverity(): guard suppresses
	// the re-alarm, status remains Ack.
	assert.Equal(t, models.StatusAck, status)

	alert2 := &models.Alert{
		Status:           models.StatusAck,
		Severity:         models.SeverityCritical,
		PreviousSeverity: models.SeverityMinor, // differs from the configured fallback
	}
	sev2, status2 := engine.Transition(alert2, nil)
	assert.Equal(t, models.SeverityCritical, sev2)
	assert.Equal(t, models.StatusOpen, status2)
}

// ActionTransition rejects action=open on an already-Open alert.
func TestActionTransition_InvalidActionOpenOnOpen(t *testing.T) {
	engine, store, _ := newTestEngine(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	result, err := engine.Process(ctx, baseAlert("prod", "web01", "HighCPU", "major"))
	require.NoError(t, err)
	require.NoError(t, store.CreateAlert(ctx, result.Alert))

	err = engine.ActionTransition(ctx, result.Alert, models.ActionOpen, "")
	assert.ErrorIs(t, err, apierrors.ErrInvalidAction)
}

// Ack then unack round-trips back to Open.
func TestActionTransition_AckThenUnack(t *testing.T) {
	engine, _, _ := newTestEngine(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	result, err := engine.Process(ctx, baseAlert("prod", "web01", "HighCPU", "major"))
	require.NoError(t, err)
	alert := result.Alert

	require.NoError(t, engine.ActionTransition(ctx, alert, models.ActionAck, "ack'd"))
	assert.Equal(t, models.StatusAck, alert.Status)

	require.NoError(t, engine.ActionTransition(ctx, alert, models.ActionUnack, ""))
	assert.Equal(t, models.StatusOpen, alert.Status)
}

// FlapDetect counts severity-change history entries inside the window.
func TestFlapDetect(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	engine, _, _ := newTestEngine(now)

	alert := &models.Alert{
		History: []models.HistoryRecord{
			{ChangeType: models.ChangeSeverity, UpdateTime: now.Add(-1 * time.Minute)},
			{ChangeType: models.ChangeSeverity, UpdateTime: now.Add(-2 * time.Minute)},
			{ChangeType: models.ChangeSeverity, UpdateTime: now.Add(-3 * time.Minute)},
			{ChangeType: models.ChangeStatus, UpdateTime: now.Add(-1 * time.Minute)},
			{ChangeType: models.ChangeSeverity, UpdateTime: now.Add(-time.Hour)}, // outside window
		},
	}
	assert.True(t, engine.FlapDetect(alert, 30*time.Minute, 2))
	assert.False(t, engine.FlapDetect(alert, 30*time.Minute, 3))
}

// SweepExpired promotes alerts whose last_receive_time+timeout elapsed.
func TestSweepExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	engine, store, _ := newTestEngine(now)
	ctx := context.Background()

	expired := &models.Alert{
		ID:              mustUUID(),
		Status:          models.StatusOpen,
		Timeout:         60,
		LastReceiveTime: now.Add(-2 * time.Minute),
	}
	notYet := &models.Alert{
		ID:              mustUUID(),
		Status:          models.StatusOpen,
		Timeout:         600,
		LastReceiveTime: now.Add(-2 * time.Minute),
	}
	require.NoError(t, store.CreateAlert(ctx, expired))
	require.NoError(t, store.CreateAlert(ctx, notYet))

	n, err := engine.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := store.GetAlert(ctx, expired.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusExpired, got.Status)

	untouched, err := store.GetAlert(ctx, notYet.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOpen, untouched.Status)
}
