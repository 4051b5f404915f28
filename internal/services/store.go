package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"alert-center/internal/models"
)

// AlertStore is the durable state interface AlertEngine depends on.
// Implemented by internal/repository against Postgres via pgx.
type AlertStore interface {
	// FindByIdentity looks up the alert sharing (environment, resource,
	// customer) with the incoming alert whose event also matches —
	// same event (dedup/correlate) or incoming event already present
	// in the stored alert's correlate set. Returns (nil, nil) when no
	// row matches: the incoming alert starts a genuinely new identity.
	FindByIdentity(ctx context.Context, environment, resource, event, customer string) (*models.Alert, error)
	CreateAlert(ctx context.Context, alert *models.Alert) error
	UpdateAlert(ctx context.Context, alert *models.Alert) error
	GetAlert(ctx context.Context, id uuid.UUID) (*models.Alert, error)
	DeleteAlert(ctx context.Context, id uuid.UUID) error
	ListOpenAlerts(ctx context.Context) ([]models.Alert, error)
	// ListForExpirySweep returns alerts eligible for timeout-driven
	// sweeps (status not already expired/closed, timeout != 0).
	ListForExpirySweep(ctx context.Context) ([]models.Alert, error)
	ListHousekeepingCandidates(ctx context.Context, expiredBefore, infoBefore time.Time) ([]models.Alert, error)
}

// BlackoutStore is the durable state interface BlackoutMatcher depends on.
type BlackoutStore interface {
	ListActiveBlackouts(ctx context.Context, environment string, at time.Time) ([]models.Blackout, error)
}

// RuleStore is the durable state interface RuleEngine depends on.
type RuleStore interface {
	ListActiveNotificationRules(ctx context.Context, environment, customer string) ([]models.NotificationRule, error)
	ListInactiveReactivatable(ctx context.Context, now time.Time) ([]models.NotificationRule, error)
	ReactivateNotificationRule(ctx context.Context, id uuid.UUID) error
	GetNotificationRule(ctx context.Context, id uuid.UUID) (*models.NotificationRule, error)
	ListActiveEscalationRules(ctx context.Context, environment, customer string) ([]models.EscalationRule, error)
	GetNotificationGroup(ctx context.Context, id uuid.UUID) (*models.NotificationGroup, error)
	GetGroupMemberInfo(ctx context.Context, groupID uuid.UUID) ([]models.NotificationInfo, error)
	GetUserInfo(ctx context.Context, userID uuid.UUID) (models.NotificationInfo, error)
}

// OnCallStore is the durable state interface OnCallResolver depends on.
type OnCallStore interface {
	ListActiveOnCalls(ctx context.Context, customer string, at time.Time) ([]models.OnCall, error)
}

// DispatchStore is the durable state interface Dispatcher depends on.
type DispatchStore interface {
	GetChannel(ctx context.Context, id uuid.UUID) (*models.NotificationChannel, error)
	UpdateChannelBearer(ctx context.Context, id uuid.UUID, bearer string, expiry time.Time) error
	EnqueueDelayed(ctx context.Context, d *models.DelayedNotification) error
	DeleteDelayedByAlert(ctx context.Context, alertID uuid.UUID) error
	ListDueDelayed(ctx context.Context, now time.Time) ([]models.DelayedNotification, error)
	DeleteDelayed(ctx context.Context, id uuid.UUID) error
	RecordNotificationHistory(ctx context.Context, h *models.NotificationHistory) error
}

// HeartbeatStore is the durable state interface the heartbeat sweep depends on.
type HeartbeatStore interface {
	UpsertHeartbeat(ctx context.Context, hb *models.Heartbeat) error
	ListHeartbeats(ctx context.Context) ([]models.Heartbeat, error)
}
