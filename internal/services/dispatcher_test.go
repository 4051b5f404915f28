package services

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alert-center/internal/models"
)

func newTestDispatcher(now time.Time) (*Dispatcher, *memDispatchStore) {
	store := newMemDispatchStore()
	d := NewDispatcher(store, FixedClock{At: now})
	return d, store
}

// waitUntil polls cond until it's true or the deadline passes, for
// assertions against Dispatch's detached goroutine.
func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

// P10: a rule with a positive DelayTime is enqueued as a
// DelayedNotification rather than sent immediately.
func TestDispatch_DelayedRuleEnqueues(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d, store := newTestDispatcher(now)
	re, _ := newTestRuleEngine(now)

	delay := 5 * time.Minute
	rule := models.NotificationRule{ID: uuid.New(), ChannelID: uuid.New(), DelayTime: &delay}
	alert := &models.Alert{ID: uuid.New()}

	d.Dispatch(context.Background(), alert, []models.NotificationRule{rule}, re)
	waitUntil(t, func() bool { return len(store.delayed) == 1 })

	assert.Empty(t, store.history)
}

// S7: an immediate rule sends to the transport from Dispatch's
// background goroutine and
// records a NotificationHistory entry per target.
func TestDispatch_ImmediateRuleSendsAndRecordsHistory(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d, store := newTestDispatcher(now)
	re, _ := newTestRuleEngine(now)

	channel := &models.NotificationChannel{ID: uuid.New(), Type: models.ChannelLinkMobilityXML, Host: srv.URL, Sender: "alertcenter"}
	store.channels[channel.ID] = channel

	rule := models.NotificationRule{
		ID:        uuid.New(),
		ChannelID: channel.ID,
		Receivers: []string{"+15551234567"},
		Text:      "%(environment)s %(resource)s",
	}
	alert := &models.Alert{ID: uuid.New(), Environment: "prod", Resource: "web01", Severity: models.SeverityCritical}

	d.Dispatch(context.Background(), alert, []models.NotificationRule{rule}, re)
	waitUntil(t, func() bool { return len(store.history) == 1 })

	assert.True(t, store.history[0].Sent)
	assert.Contains(t, gotBody, "+15551234567")
}

// OnStatusChange purges pending delayed entries for the alert.
func TestDispatcher_OnStatusChangePurgesDelayed(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d, store := newTestDispatcher(now)

	alertID := uuid.New()
	store.delayed[uuid.New()] = models.DelayedNotification{ID: uuid.New(), AlertID: alertID, FireAt: now.Add(time.Hour)}
	store.delayed[uuid.New()] = models.DelayedNotification{ID: uuid.New(), AlertID: uuid.New(), FireAt: now.Add(time.Hour)}

	require.NoError(t, d.OnStatusChange(context.Background(), alertID))
	assert.Len(t, store.delayed, 1, "only the other alert's delayed entry should survive")
}

// FireDue drains due entries, deletes them, and leaves not-yet-due ones.
func TestDispatcher_FireDueDrainsElapsedEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d, store := newTestDispatcher(now)
	re, rules := newTestRuleEngine(now)

	channel := &models.NotificationChannel{ID: uuid.New(), Type: models.ChannelLinkMobilityXML, Host: srv.URL}
	store.channels[channel.ID] = channel

	rule := models.NotificationRule{ID: uuid.New(), ChannelID: channel.ID, Receivers: []string{"+15550000000"}}
	rules.notificationRules = []models.NotificationRule{rule}

	alert := &models.Alert{ID: uuid.New(), Environment: "prod"}
	alertsByID := map[uuid.UUID]*models.Alert{alert.ID: alert}

	dueID := uuid.New()
	store.delayed[dueID] = models.DelayedNotification{ID: dueID, AlertID: alert.ID, RuleID: rule.ID, FireAt: now.Add(-time.Minute)}
	notDueID := uuid.New()
	store.delayed[notDueID] = models.DelayedNotification{ID: notDueID, AlertID: alert.ID, RuleID: rule.ID, FireAt: now.Add(time.Minute)}

	n, err := d.FireDue(context.Background(),
		func(ctx context.Context, id uuid.UUID) (*models.NotificationRule, error) { return rules.GetNotificationRule(ctx, id) },
		func(ctx context.Context, id uuid.UUID) (*models.Alert, error) {
			if a, ok := alertsByID[id]; ok {
				return a, nil
			}
			return nil, nil
		},
		re,
	)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, store.delayed, 1)
	_, stillPending := store.delayed[notDueID]
	assert.True(t, stillPending)
}
