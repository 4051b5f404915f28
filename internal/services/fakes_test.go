package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"alert-center/internal/models"
)

func mustUUID() uuid.UUID {
	return uuid.New()
}

// memAlertStore is a minimal in-memory AlertStore used by the engine
// and scheduler tests. FindByIdentity mirrors the SQL predicate in
// internal/repository/alert_store.go exactly, so these tests exercise
// the same identity-resolution semantics the Postgres query encodes.
type memAlertStore struct {
	byID map[uuid.UUID]*models.Alert
}

func newMemAlertStore() *memAlertStore {
	return &memAlertStore{byID: make(map[uuid.UUID]*models.Alert)}
}

func (m *memAlertStore) FindByIdentity(ctx context.Context, environment, resource, event, customer string) (*models.Alert, error) {
	var best *models.Alert
	for _, a := range m.byID {
		if a.Environment != environment || a.Resource != resource || a.Customer != customer {
			continue
		}
		if a.Event != event && !containsStr(a.Correlate, event) {
			continue
		}
		if best == nil || a.LastReceiveTime.After(best.LastReceiveTime) {
			best = a
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (m *memAlertStore) CreateAlert(ctx context.Context, alert *models.Alert) error {
	cp := *alert
	m.byID[alert.ID] = &cp
	return nil
}

func (m *memAlertStore) UpdateAlert(ctx context.Context, alert *models.Alert) error {
	if _, ok := m.byID[alert.ID]; !ok {
		return nil
	}
	cp := *alert
	m.byID[alert.ID] = &cp
	return nil
}

func (m *memAlertStore) GetAlert(ctx context.Context, id uuid.UUID) (*models.Alert, error) {
	a, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (m *memAlertStore) DeleteAlert(ctx context.Context, id uuid.UUID) error {
	delete(m.byID, id)
	return nil
}

func (m *memAlertStore) ListOpenAlerts(ctx context.Context) ([]models.Alert, error) {
	var out []models.Alert
	for _, a := range m.byID {
		if a.Status == models.StatusOpen || a.Status == models.StatusAck || a.Status == models.StatusUnack {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memAlertStore) ListForExpirySweep(ctx context.Context) ([]models.Alert, error) {
	var out []models.Alert
	for _, a := range m.byID {
		out = append(out, *a)
	}
	return out, nil
}

func (m *memAlertStore) ListHousekeepingCandidates(ctx context.Context, expiredBefore, infoBefore time.Time) ([]models.Alert, error) {
	return nil, nil
}

// memBlackoutStore is a fixed-list BlackoutStore fake.
type memBlackoutStore struct {
	rows []models.Blackout
}

func (m *memBlackoutStore) ListActiveBlackouts(ctx context.Context, environment string, at time.Time) ([]models.Blackout, error) {
	var out []models.Blackout
	for _, b := range m.rows {
		if b.Environment != environment {
			continue
		}
		if at.Before(b.StartTime) || !at.Before(b.EndTime) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// memRuleStore backs RuleEngine/OnCallResolver tests.
type memRuleStore struct {
	notificationRules  []models.NotificationRule
	escalationRules    []models.EscalationRule
	groups             map[uuid.UUID]models.NotificationGroup
	groupMembers       map[uuid.UUID][]models.NotificationInfo
	users              map[uuid.UUID]models.NotificationInfo
	inactive           []models.NotificationRule
	reactivatedIDs     []uuid.UUID
}

func newMemRuleStore() *memRuleStore {
	return &memRuleStore{
		groups:       make(map[uuid.UUID]models.NotificationGroup),
		groupMembers: make(map[uuid.UUID][]models.NotificationInfo),
		users:        make(map[uuid.UUID]models.NotificationInfo),
	}
}

func (m *memRuleStore) ListActiveNotificationRules(ctx context.Context, environment, customer string) ([]models.NotificationRule, error) {
	var out []models.NotificationRule
	for _, r := range m.notificationRules {
		if r.Active && r.Environment == environment && r.Customer == customer {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRuleStore) ListInactiveReactivatable(ctx context.Context, now time.Time) ([]models.NotificationRule, error) {
	var out []models.NotificationRule
	for _, r := range m.inactive {
		if r.Reactivate != nil && !r.Reactivate.After(now) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRuleStore) ReactivateNotificationRule(ctx context.Context, id uuid.UUID) error {
	m.reactivatedIDs = append(m.reactivatedIDs, id)
	return nil
}

func (m *memRuleStore) GetNotificationRule(ctx context.Context, id uuid.UUID) (*models.NotificationRule, error) {
	for _, r := range m.notificationRules {
		if r.ID == id {
			cp := r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memRuleStore) ListActiveEscalationRules(ctx context.Context, environment, customer string) ([]models.EscalationRule, error) {
	var out []models.EscalationRule
	for _, r := range m.escalationRules {
		if r.Active && r.Environment == environment && r.Customer == customer {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRuleStore) GetNotificationGroup(ctx context.Context, id uuid.UUID) (*models.NotificationGroup, error) {
	g, ok := m.groups[id]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (m *memRuleStore) GetGroupMemberInfo(ctx context.Context, groupID uuid.UUID) ([]models.NotificationInfo, error) {
	return m.groupMembers[groupID], nil
}

func (m *memRuleStore) GetUserInfo(ctx context.Context, userID uuid.UUID) (models.NotificationInfo, error) {
	return m.users[userID], nil
}

// memOnCallStore backs OnCallResolver tests.
type memOnCallStore struct {
	rows []models.OnCall
}

func (m *memOnCallStore) ListActiveOnCalls(ctx context.Context, customer string, at time.Time) ([]models.OnCall, error) {
	var out []models.OnCall
	for _, oc := range m.rows {
		if oc.Customer == customer {
			out = append(out, oc)
		}
	}
	return out, nil
}

// memDispatchStore backs Dispatcher tests.
type memDispatchStore struct {
	channels     map[uuid.UUID]*models.NotificationChannel
	delayed      map[uuid.UUID]models.DelayedNotification
	history      []models.NotificationHistory
	bearerSaved  map[uuid.UUID]string
}

func newMemDispatchStore() *memDispatchStore {
	return &memDispatchStore{
		channels: make(map[uuid.UUID]*models.NotificationChannel),
		delayed:  make(map[uuid.UUID]models.DelayedNotification),
		bearerSaved: make(map[uuid.UUID]string),
	}
}

func (m *memDispatchStore) GetChannel(ctx context.Context, id uuid.UUID) (*models.NotificationChannel, error) {
	c, ok := m.channels[id]
	if !ok {
		return nil, nil
	}
	return c, nil
}

func (m *memDispatchStore) UpdateChannelBearer(ctx context.Context, id uuid.UUID, bearer string, expiry time.Time) error {
	m.bearerSaved[id] = bearer
	return nil
}

func (m *memDispatchStore) EnqueueDelayed(ctx context.Context, d *models.DelayedNotification) error {
	m.delayed[d.ID] = *d
	return nil
}

func (m *memDispatchStore) DeleteDelayedByAlert(ctx context.Context, alertID uuid.UUID) error {
	for id, d := range m.delayed {
		if d.AlertID == alertID {
			delete(m.delayed, id)
		}
	}
	return nil
}

func (m *memDispatchStore) ListDueDelayed(ctx context.Context, now time.Time) ([]models.DelayedNotification, error) {
	var out []models.DelayedNotification
	for _, d := range m.delayed {
		if !d.FireAt.After(now) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memDispatchStore) DeleteDelayed(ctx context.Context, id uuid.UUID) error {
	delete(m.delayed, id)
	return nil
}

func (m *memDispatchStore) RecordNotificationHistory(ctx context.Context, h *models.NotificationHistory) error {
	m.history = append(m.history, *h)
	return nil
}

// memHeartbeatStore backs scheduler heartbeat-sweep tests.
type memHeartbeatStore struct {
	rows []models.Heartbeat
}

func (m *memHeartbeatStore) UpsertHeartbeat(ctx context.Context, hb *models.Heartbeat) error {
	m.rows = append(m.rows, *hb)
	return nil
}

func (m *memHeartbeatStore) ListHeartbeats(ctx context.Context) ([]models.Heartbeat, error) {
	return m.rows, nil
}
