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

func newTestRuleEngine(now time.Time) (*RuleEngine, *memRuleStore) {
	rules := newMemRuleStore()
	re := NewRuleEngine(rules, nil, FixedClock{At: now})
	return re, rules
}

// P6: an active notification rule matching environment/resource/event
// and a severity-transition trigger is selected on a plain ingest.
func TestSelectNotificationRules_Matches(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	re, rules := newTestRuleEngine(now)

	rule := models.NotificationRule{
		ID:          uuid.New(),
		Active:      true,
		Environment: "prod",
		Customer:    "acme",
		Triggers: []models.NotificationTrigger{
			{ToSeverity: []models.Severity{models.SeverityCritical}},
		},
	}
	rules.notificationRules = []models.NotificationRule{rule}

	alert := &models.Alert{
		Environment: "prod",
		Customer:    "acme",
		Severity:    models.SeverityCritical,
		Status:      models.StatusOpen,
	}
	selected, err := re.SelectNotificationRules(context.Background(), alert)
	require.NoError(t, err)
	assert.Len(t, selected, 1)
}

// P7: a duplicate ingest (duplicate_count > 0) never selects any
// notification rule, even if it otherwise matches.
func TestSelectNotificationRules_DuplicateNeverSelects(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	re, rules := newTestRuleEngine(now)

	rules.notificationRules = []models.NotificationRule{{
		ID:          uuid.New(),
		Active:      true,
		Environment: "prod",
		Customer:    "acme",
		Triggers:    []models.NotificationTrigger{{}},
	}}

	alert := &models.Alert{
		Environment:    "prod",
		Customer:       "acme",
		Status:         models.StatusOpen,
		DuplicateCount: 1,
	}
	selected, err := re.SelectNotificationRules(context.Background(), alert)
	require.NoError(t, err)
	assert.Empty(t, selected)
}

// The resolved Open Question: SelectNotificationRulesForStatus requires
// the explicit status to be present in trigger.status — an empty
// trigger.status list does NOT match, unlike the unprompted path.
func TestSelectNotificationRulesForStatus_RequiresExplicitStatusMatch(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	re, rules := newTestRuleEngine(now)

	emptyStatusRule := models.NotificationRule{
		ID:          uuid.New(),
		Active:      true,
		Environment: "prod",
		Customer:    "acme",
		Triggers:    []models.NotificationTrigger{{}}, // empty trigger.status
	}
	ackOnlyRule := models.NotificationRule{
		ID:          uuid.New(),
		Active:      true,
		Environment: "prod",
		Customer:    "acme",
		Triggers: []models.NotificationTrigger{
			{Status: []models.Status{models.StatusAck}},
		},
	}
	rules.notificationRules = []models.NotificationRule{emptyStatusRule, ackOnlyRule}

	alert := &models.Alert{Environment: "prod", Customer: "acme", Status: models.StatusAck}

	selected, err := re.SelectNotificationRulesForStatus(context.Background(), alert, models.StatusAck)
	require.NoError(t, err)
	require.Len(t, selected, 1, "only the rule explicitly listing StatusAck should match")
	assert.Equal(t, ackOnlyRule.ID, selected[0].ID)

	// But the same empty-status rule DOES match an unprompted ingest.
	unpromptedSelected, err := re.SelectNotificationRules(context.Background(), alert)
	require.NoError(t, err)
	assert.Len(t, unpromptedSelected, 2)
}

// S6: SelectEscalationTargets only returns alerts older than the rule's
// Time threshold.
func TestSelectEscalationTargets_AgeThreshold(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	re, rules := newTestRuleEngine(now)

	rules.escalationRules = []models.EscalationRule{{
		ID:          uuid.New(),
		Active:      true,
		Environment: "prod",
		Customer:    "acme",
		Time:        10 * time.Minute,
	}}

	stale := models.Alert{
		ID:              uuid.New(),
		Environment:     "prod",
		Customer:        "acme",
		Status:          models.StatusOpen,
		LastReceiveTime: now.Add(-20 * time.Minute),
	}
	fresh := models.Alert{
		ID:              uuid.New(),
		Environment:     "prod",
		Customer:        "acme",
		Status:          models.StatusOpen,
		LastReceiveTime: now.Add(-1 * time.Minute),
	}

	targets, err := re.SelectEscalationTargets(context.Background(), "prod", "acme", []models.Alert{stale, fresh})
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, stale.ID, targets[0].ID)
}

// SelectNotificationTargets composes receivers, expanded users, and
// expanded groups into a deduplicated set.
func TestSelectNotificationTargets_DeduplicatesAcrossSources(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	re, rules := newTestRuleEngine(now)

	userID := uuid.New()
	groupID := uuid.New()
	rules.users[userID] = models.NotificationInfo{Email: "oncall@example.com"}
	rules.groups[groupID] = models.NotificationGroup{ID: groupID, Mails: []string{"oncall@example.com"}}

	rule := &models.NotificationRule{
		Receivers: []string{"oncall@example.com"}, // same address as the user and group entries
		UserIDs:   []uuid.UUID{userID},
		GroupIDs:  []uuid.UUID{groupID},
	}
	targets, err := re.SelectNotificationTargets(context.Background(), rule, &models.Alert{})
	require.NoError(t, err)
	assert.Len(t, targets, 1, "identical addresses from receivers/user/group expansion dedup to one target")
}

// ReactivationSweep flips elapsed-Reactivate rules back to active.
func TestReactivationSweep(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	re, rules := newTestRuleEngine(now)

	past := now.Add(-time.Minute)
	rules.inactive = []models.NotificationRule{{ID: uuid.New(), Reactivate: &past}}

	n, err := re.ReactivationSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, rules.reactivatedIDs, 1)
}
