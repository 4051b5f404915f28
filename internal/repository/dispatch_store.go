package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"alert-center/internal/models"
)

// DispatchRepository implements services.DispatchStore.
type DispatchRepository struct {
	db *Database
}

func NewDispatchRepository(db *Database) *DispatchRepository {
	return &DispatchRepository{db: db}
}

func (r *DispatchRepository) GetChannel(ctx context.Context, id uuid.UUID) (*models.NotificationChannel, error) {
	var c models.NotificationChannel
	var bearerExpiry *time.Time
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, type, sender, host, api_sid, api_token, platform_id, platform_partner_id,
			verify, customer, bearer, bearer_expiry
		FROM notification_channels WHERE id = $1
	`, id).Scan(&c.ID, &c.Type, &c.Sender, &c.Host, &c.APISid, &c.APIToken, &c.PlatformID,
		&c.PlatformPartnerID, &c.Verify, &c.Customer, &c.Bearer, &bearerExpiry)
	if err != nil {
		return nil, err
	}
	c.BearerExpiry = bearerExpiry
	return &c, nil
}

func (r *DispatchRepository) UpdateChannelBearer(ctx context.Context, id uuid.UUID, bearer string, expiry time.Time) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE notification_channels SET bearer = $1, bearer_expiry = $2 WHERE id = $3
	`, bearer, expiry, id)
	return err
}

func (r *DispatchRepository) EnqueueDelayed(ctx context.Context, d *models.DelayedNotification) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO delayed_notifications (id, alert_id, rule_id, fire_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (alert_id, rule_id) DO UPDATE SET fire_at = EXCLUDED.fire_at
	`, d.ID, d.AlertID, d.RuleID, d.FireAt, d.CreatedAt)
	return err
}

func (r *DispatchRepository) DeleteDelayedByAlert(ctx context.Context, alertID uuid.UUID) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM delayed_notifications WHERE alert_id = $1`, alertID)
	return err
}

func (r *DispatchRepository) ListDueDelayed(ctx context.Context, now time.Time) ([]models.DelayedNotification, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, alert_id, rule_id, fire_at, created_at
		FROM delayed_notifications WHERE fire_at < $1
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DelayedNotification
	for rows.Next() {
		var d models.DelayedNotification
		if err := rows.Scan(&d.ID, &d.AlertID, &d.RuleID, &d.FireAt, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *DispatchRepository) DeleteDelayed(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM delayed_notifications WHERE id = $1`, id)
	return err
}

// CreateChannel inserts a configured outbound transport (spec §6
// /notificationchannels). Secret fields are expected pre-encrypted by
// the caller via services.SecretBox.
func (r *DispatchRepository) CreateChannel(ctx context.Context, c *models.NotificationChannel) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO notification_channels
			(id, type, sender, host, api_sid, api_token, platform_id, platform_partner_id, verify, customer, bearer, bearer_expiry)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, c.ID, c.Type, c.Sender, c.Host, c.APISid, c.APIToken, c.PlatformID, c.PlatformPartnerID,
		c.Verify, c.Customer, c.Bearer, c.BearerExpiry)
	return err
}

// ListChannels returns every configured channel (secrets included; callers
// serialize via NotificationChannel.Serialize before returning to clients).
func (r *DispatchRepository) ListChannels(ctx context.Context) ([]models.NotificationChannel, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, type, sender, host, api_sid, api_token, platform_id, platform_partner_id,
			verify, customer, bearer, bearer_expiry
		FROM notification_channels
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.NotificationChannel
	for rows.Next() {
		var c models.NotificationChannel
		var bearerExpiry *time.Time
		if err := rows.Scan(&c.ID, &c.Type, &c.Sender, &c.Host, &c.APISid, &c.APIToken, &c.PlatformID,
			&c.PlatformPartnerID, &c.Verify, &c.Customer, &c.Bearer, &bearerExpiry); err != nil {
			return nil, err
		}
		c.BearerExpiry = bearerExpiry
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteChannel removes a channel by id.
func (r *DispatchRepository) DeleteChannel(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM notification_channels WHERE id = $1`, id)
	return err
}

// ListNotificationHistoryByAlert returns dispatch attempts for one alert
// (spec §6 /notificationhistory), newest first.
func (r *DispatchRepository) ListNotificationHistoryByAlert(ctx context.Context, alertID uuid.UUID) ([]models.NotificationHistory, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, sent, message, channel_id, rule_id, alert_id, sender, receiver, sent_time, error, confirmed, confirmed_time
		FROM notification_history WHERE alert_id = $1 ORDER BY sent_time DESC
	`, alertID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.NotificationHistory
	for rows.Next() {
		var h models.NotificationHistory
		if err := rows.Scan(&h.ID, &h.Sent, &h.Message, &h.ChannelID, &h.RuleID, &h.AlertID,
			&h.Sender, &h.Receiver, &h.SentTime, &h.Error, &h.Confirmed, &h.ConfirmedTime); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// ListDelayedByAlert returns pending delayed notifications for one alert
// (spec §6 /notificationdelay).
func (r *DispatchRepository) ListDelayedByAlert(ctx context.Context, alertID uuid.UUID) ([]models.DelayedNotification, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, alert_id, rule_id, fire_at, created_at FROM delayed_notifications WHERE alert_id = $1
	`, alertID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DelayedNotification
	for rows.Next() {
		var d models.DelayedNotification
		if err := rows.Scan(&d.ID, &d.AlertID, &d.RuleID, &d.FireAt, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *DispatchRepository) RecordNotificationHistory(ctx context.Context, h *models.NotificationHistory) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO notification_history
			(id, sent, message, channel_id, rule_id, alert_id, sender, receiver, sent_time, error, confirmed, confirmed_time)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, h.ID, h.Sent, h.Message, h.ChannelID, h.RuleID, h.AlertID, h.Sender, h.Receiver,
		h.SentTime, h.Error, h.Confirmed, h.ConfirmedTime)
	return err
}
