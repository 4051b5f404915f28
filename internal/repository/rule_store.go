package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"alert-center/internal/models"
)

// RuleRepository implements services.RuleStore.
type RuleRepository struct {
	db *Database
}

func NewRuleRepository(db *Database) *RuleRepository {
	return &RuleRepository{db: db}
}

const notificationRuleColumns = `
	id, active, environment, channel_id, receivers, user_ids, group_ids, use_oncall,
	resource, event, "group", service, tags, excluded_tags, triggers, days,
	start_time, end_time, delay_time_seconds, reactivate, customer, text, priority, create_time`

func scanNotificationRule(row interface{ Scan(dest ...any) error }, n *models.NotificationRule) error {
	var receivers, userIDs, groupIDs, service, tags, excludedTags, triggers, days string
	var delaySeconds *int
	err := row.Scan(
		&n.ID, &n.Active, &n.Environment, &n.ChannelID, &receivers, &userIDs, &groupIDs, &n.UseOnCall,
		&n.Resource, &n.Event, &n.Group, &service, &tags, &excludedTags, &triggers, &days,
		&n.StartTime, &n.EndTime, &delaySeconds, &n.Reactivate, &n.Customer, &n.Text, &n.Priority, &n.CreateTime,
	)
	if err != nil {
		return err
	}
	_ = json.Unmarshal([]byte(receivers), &n.Receivers)
	_ = json.Unmarshal([]byte(userIDs), &n.UserIDs)
	_ = json.Unmarshal([]byte(groupIDs), &n.GroupIDs)
	_ = json.Unmarshal([]byte(service), &n.Service)
	_ = json.Unmarshal([]byte(tags), &n.Tags)
	_ = json.Unmarshal([]byte(excludedTags), &n.ExcludedTags)
	_ = json.Unmarshal([]byte(triggers), &n.Triggers)
	_ = json.Unmarshal([]byte(days), &n.Days)
	if delaySeconds != nil {
		d := time.Duration(*delaySeconds) * time.Second
		n.DelayTime = &d
	}
	return nil
}

func (r *RuleRepository) ListActiveNotificationRules(ctx context.Context, environment, customer string) ([]models.NotificationRule, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+notificationRuleColumns+`
		FROM notification_rules
		WHERE active = true AND environment = $1 AND (customer = '' OR customer = $2)
		ORDER BY priority DESC
	`, environment, customer)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.NotificationRule
	for rows.Next() {
		var n models.NotificationRule
		if err := scanNotificationRule(rows, &n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *RuleRepository) ListInactiveReactivatable(ctx context.Context, now time.Time) ([]models.NotificationRule, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+notificationRuleColumns+`
		FROM notification_rules
		WHERE active = false AND reactivate IS NOT NULL AND reactivate <= $1
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.NotificationRule
	for rows.Next() {
		var n models.NotificationRule
		if err := scanNotificationRule(rows, &n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *RuleRepository) ReactivateNotificationRule(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE notification_rules SET active = true, reactivate = NULL WHERE id = $1
	`, id)
	return err
}

// GetNotificationRule looks up a single rule by id, used by the
// delayed-notification drain to re-fetch the rule that scheduled it.
func (r *RuleRepository) GetNotificationRule(ctx context.Context, id uuid.UUID) (*models.NotificationRule, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+notificationRuleColumns+` FROM notification_rules WHERE id = $1`, id)
	var n models.NotificationRule
	if err := scanNotificationRule(row, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

const escalationRuleColumns = `
	id, active, environment, time_seconds, resource, event, "group", service,
	tags, excluded_tags, triggers, days, start_time, end_time, customer, priority, create_time`

func (r *RuleRepository) ListActiveEscalationRules(ctx context.Context, environment, customer string) ([]models.EscalationRule, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+escalationRuleColumns+`
		FROM escalation_rules
		WHERE active = true AND environment = $1 AND (customer = '' OR customer = $2)
		ORDER BY priority DESC
	`, environment, customer)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.EscalationRule
	for rows.Next() {
		var e models.EscalationRule
		var service, tags, excludedTags, triggers, days string
		var timeSeconds int
		if err := rows.Scan(&e.ID, &e.Active, &e.Environment, &timeSeconds, &e.Resource, &e.Event,
			&e.Group, &service, &tags, &excludedTags, &triggers, &days, &e.StartTime, &e.EndTime,
			&e.Customer, &e.Priority, &e.CreateTime); err != nil {
			return nil, err
		}
		e.Time = time.Duration(timeSeconds) * time.Second
		_ = json.Unmarshal([]byte(service), &e.Service)
		_ = json.Unmarshal([]byte(tags), &e.Tags)
		_ = json.Unmarshal([]byte(excludedTags), &e.ExcludedTags)
		_ = json.Unmarshal([]byte(triggers), &e.Triggers)
		_ = json.Unmarshal([]byte(days), &e.Days)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *RuleRepository) GetNotificationGroup(ctx context.Context, id uuid.UUID) (*models.NotificationGroup, error) {
	var g models.NotificationGroup
	var userIDs, phones, mails string
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, name, user_ids, phone_numbers, mails, customer
		FROM notification_groups WHERE id = $1
	`, id).Scan(&g.ID, &g.Name, &userIDs, &phones, &mails, &g.Customer)
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(userIDs), &g.UserIDs)
	_ = json.Unmarshal([]byte(phones), &g.PhoneNumbers)
	_ = json.Unmarshal([]byte(mails), &g.Mails)
	return &g, nil
}

func (r *RuleRepository) GetGroupMemberInfo(ctx context.Context, groupID uuid.UUID) ([]models.NotificationInfo, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT COALESCE(u.phone, ''), COALESCE(u.email, '')
		FROM notification_group_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.group_id = $1
	`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.NotificationInfo
	for rows.Next() {
		var n models.NotificationInfo
		if err := rows.Scan(&n.PhoneNumber, &n.Email); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *RuleRepository) GetUserInfo(ctx context.Context, userID uuid.UUID) (models.NotificationInfo, error) {
	var n models.NotificationInfo
	err := r.db.Pool.QueryRow(ctx, `
		SELECT COALESCE(phone, ''), COALESCE(email, '') FROM users WHERE id = $1
	`, userID).Scan(&n.PhoneNumber, &n.Email)
	return n, err
}

// CreateNotificationRule inserts a rule (spec §6 /notificationrules).
func (r *RuleRepository) CreateNotificationRule(ctx context.Context, n *models.NotificationRule) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.Priority = models.ComputeRulePriority(n.Environment, n.Resource, n.Event, n.Group, n.Service, n.Tags)
	receivers, _ := json.Marshal(n.Receivers)
	userIDs, _ := json.Marshal(n.UserIDs)
	groupIDs, _ := json.Marshal(n.GroupIDs)
	service, _ := json.Marshal(n.Service)
	tags, _ := json.Marshal(n.Tags)
	excludedTags, _ := json.Marshal(n.ExcludedTags)
	triggers, _ := json.Marshal(n.Triggers)
	days, _ := json.Marshal(n.Days)
	var delaySeconds *int
	if n.DelayTime != nil {
		s := int(n.DelayTime.Seconds())
		delaySeconds = &s
	}
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO notification_rules (`+notificationRuleColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24)
	`, n.ID, n.Active, n.Environment, n.ChannelID, receivers, userIDs, groupIDs, n.UseOnCall,
		n.Resource, n.Event, n.Group, service, tags, excludedTags, triggers, days,
		n.StartTime, n.EndTime, delaySeconds, n.Reactivate, n.Customer, n.Text, n.Priority, n.CreateTime)
	return err
}

// ListNotificationRules returns every rule for admin listing.
func (r *RuleRepository) ListNotificationRules(ctx context.Context) ([]models.NotificationRule, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+notificationRuleColumns+` FROM notification_rules ORDER BY priority DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.NotificationRule
	for rows.Next() {
		var n models.NotificationRule
		if err := scanNotificationRule(rows, &n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// SetNotificationRuleActive flips a rule's active flag directly (spec §6 /notificationrules/:id/active).
func (r *RuleRepository) SetNotificationRuleActive(ctx context.Context, id uuid.UUID, active bool) error {
	_, err := r.db.Pool.Exec(ctx, `UPDATE notification_rules SET active = $2 WHERE id = $1`, id, active)
	return err
}

// DeleteNotificationRule removes a rule by id.
func (r *RuleRepository) DeleteNotificationRule(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM notification_rules WHERE id = $1`, id)
	return err
}

// CreateEscalationRule inserts an escalation rule (spec §6 /escalationrules).
func (r *RuleRepository) CreateEscalationRule(ctx context.Context, e *models.EscalationRule) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.Priority = models.ComputeRulePriority(e.Environment, e.Resource, e.Event, e.Group, e.Service, e.Tags)
	service, _ := json.Marshal(e.Service)
	tags, _ := json.Marshal(e.Tags)
	excludedTags, _ := json.Marshal(e.ExcludedTags)
	triggers, _ := json.Marshal(e.Triggers)
	days, _ := json.Marshal(e.Days)
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO escalation_rules (`+escalationRuleColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	`, e.ID, e.Active, e.Environment, int(e.Time.Seconds()), e.Resource, e.Event, e.Group, service,
		tags, excludedTags, triggers, days, e.StartTime, e.EndTime, e.Customer, e.Priority, e.CreateTime)
	return err
}

// ListEscalationRules returns every escalation rule for admin listing.
func (r *RuleRepository) ListEscalationRules(ctx context.Context) ([]models.EscalationRule, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+escalationRuleColumns+` FROM escalation_rules ORDER BY priority DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.EscalationRule
	for rows.Next() {
		var e models.EscalationRule
		var service, tags, excludedTags, triggers, days string
		var timeSeconds int
		if err := rows.Scan(&e.ID, &e.Active, &e.Environment, &timeSeconds, &e.Resource, &e.Event,
			&e.Group, &service, &tags, &excludedTags, &triggers, &days, &e.StartTime, &e.EndTime,
			&e.Customer, &e.Priority, &e.CreateTime); err != nil {
			return nil, err
		}
		e.Time = time.Duration(timeSeconds) * time.Second
		_ = json.Unmarshal([]byte(service), &e.Service)
		_ = json.Unmarshal([]byte(tags), &e.Tags)
		_ = json.Unmarshal([]byte(excludedTags), &e.ExcludedTags)
		_ = json.Unmarshal([]byte(triggers), &e.Triggers)
		_ = json.Unmarshal([]byte(days), &e.Days)
		out = append(out, e)
	}
	return out, rows.Err()
}

// DeleteEscalationRule removes an escalation rule by id.
func (r *RuleRepository) DeleteEscalationRule(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM escalation_rules WHERE id = $1`, id)
	return err
}

// CreateNotificationGroup inserts a named group of contacts.
func (r *RuleRepository) CreateNotificationGroup(ctx context.Context, g *models.NotificationGroup) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	userIDs, _ := json.Marshal(g.UserIDs)
	phones, _ := json.Marshal(g.PhoneNumbers)
	mails, _ := json.Marshal(g.Mails)
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO notification_groups (id, name, user_ids, phone_numbers, mails, customer)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, g.ID, g.Name, userIDs, phones, mails, g.Customer)
	return err
}

// ListNotificationGroups returns every notification group.
func (r *RuleRepository) ListNotificationGroups(ctx context.Context) ([]models.NotificationGroup, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT id, name, user_ids, phone_numbers, mails, customer FROM notification_groups`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.NotificationGroup
	for rows.Next() {
		var g models.NotificationGroup
		var userIDs, phones, mails string
		if err := rows.Scan(&g.ID, &g.Name, &userIDs, &phones, &mails, &g.Customer); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(userIDs), &g.UserIDs)
		_ = json.Unmarshal([]byte(phones), &g.PhoneNumbers)
		_ = json.Unmarshal([]byte(mails), &g.Mails)
		out = append(out, g)
	}
	return out, rows.Err()
}

// DeleteNotificationGroup removes a group by id.
func (r *RuleRepository) DeleteNotificationGroup(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM notification_groups WHERE id = $1`, id)
	return err
}
