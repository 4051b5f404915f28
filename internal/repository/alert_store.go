package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"alert-center/internal/models"
)

// AlertRepository implements services.AlertStore against Postgres via
// pgx, in the teacher's raw-SQL repository style (see UserRepository).
type AlertRepository struct {
	db *Database
}

func NewAlertRepository(db *Database) *AlertRepository {
	return &AlertRepository{db: db}
}

func marshalJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func scanAlert(row interface{ Scan(dest ...any) error }, a *models.Alert) error {
	var correlate, service, tags, attributes, history string
	err := row.Scan(
		&a.ID, &a.Environment, &a.Resource, &a.Event, &a.Severity, &a.PreviousSeverity,
		&a.Status, &correlate, &service, &a.Group, &a.Value, &a.Text, &tags, &attributes,
		&a.Origin, &a.Type, &a.CreateTime, &a.ReceiveTime, &a.LastReceiveTime, &a.LastReceiveID,
		&a.UpdateTime, &a.Timeout, &a.DuplicateCount, &a.Repeat, &a.TrendIndication, &a.RawData,
		&a.Customer, &history,
	)
	if err != nil {
		return err
	}
	_ = json.Unmarshal([]byte(correlate), &a.Correlate)
	_ = json.Unmarshal([]byte(service), &a.Service)
	_ = json.Unmarshal([]byte(tags), &a.Tags)
	_ = json.Unmarshal([]byte(attributes), &a.Attributes)
	_ = json.Unmarshal([]byte(history), &a.History)
	return nil
}

const alertColumns = `
	id, environment, resource, event, severity, previous_severity,
	status, correlate, service, "group", value, text, tags, attributes,
	origin, type, create_time, receive_time, last_receive_time, last_receive_id,
	update_time, timeout, duplicate_count, repeat, trend_indication, raw_data,
	customer, history`

// FindByIdentity resolves the ISA-18.2 identity-of-incident: the same
// (environment, resource, customer) AND either the same event (dedup,
// or a same-event severity change headed for correlate) or an event
// that appears in the stored alert's correlate set. Ported from
// is_duplicate/is_correlated in
// _examples/original_source/alerta/database/backends/postgres/base.py:220-239 —
// anything outside that match is a genuinely new identity, not an
// arbitrary existing row for the resource, and returns (nil, nil).
func (r *AlertRepository) FindByIdentity(ctx context.Context, environment, resource, event, customer string) (*models.Alert, error) {
	row := r.db.Pool.QueryRow(ctx, `
		SELECT `+alertColumns+`
		FROM alerts
		WHERE environment = $1 AND resource = $2 AND customer = $3
			AND (event = $4 OR correlate ? $4)
		ORDER BY last_receive_time DESC
		LIMIT 1
	`, environment, resource, customer, event)
	var a models.Alert
	if err := scanAlert(row, &a); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *AlertRepository) CreateAlert(ctx context.Context, a *models.Alert) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO alerts (`+alertColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27,$28)
	`,
		a.ID, a.Environment, a.Resource, a.Event, a.Severity, a.PreviousSeverity,
		a.Status, marshalJSON(a.Correlate), marshalJSON(a.Service), a.Group, a.Value, a.Text,
		marshalJSON(a.Tags), marshalJSON(a.Attributes), a.Origin, a.Type, a.CreateTime,
		a.ReceiveTime, a.LastReceiveTime, a.LastReceiveID, a.UpdateTime, a.Timeout,
		a.DuplicateCount, a.Repeat, a.TrendIndication, a.RawData, a.Customer, marshalJSON(a.History),
	)
	return err
}

func (r *AlertRepository) UpdateAlert(ctx context.Context, a *models.Alert) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE alerts SET
			severity=$1, previous_severity=$2, status=$3, value=$4, text=$5,
			tags=$6, attributes=$7, last_receive_time=$8, last_receive_id=$9,
			update_time=$10, timeout=$11, duplicate_count=$12, repeat=$13,
			trend_indication=$14, raw_data=$15, history=$16
		WHERE id=$17
	`,
		a.Severity, a.PreviousSeverity, a.Status, a.Value, a.Text,
		marshalJSON(a.Tags), marshalJSON(a.Attributes), a.LastReceiveTime, a.LastReceiveID,
		a.UpdateTime, a.Timeout, a.DuplicateCount, a.Repeat,
		a.TrendIndication, a.RawData, marshalJSON(a.History), a.ID,
	)
	return err
}

func (r *AlertRepository) GetAlert(ctx context.Context, id uuid.UUID) (*models.Alert, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+alertColumns+` FROM alerts WHERE id=$1`, id)
	var a models.Alert
	if err := scanAlert(row, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AlertRepository) DeleteAlert(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM alerts WHERE id=$1`, id)
	return err
}

func (r *AlertRepository) listBy(ctx context.Context, query string, args ...any) ([]models.Alert, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Alert
	for rows.Next() {
		var a models.Alert
		if err := scanAlert(rows, &a); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AlertRepository) ListOpenAlerts(ctx context.Context) ([]models.Alert, error) {
	return r.listBy(ctx, `
		SELECT `+alertColumns+` FROM alerts
		WHERE status NOT IN ('closed','expired') ORDER BY last_receive_time DESC`)
}

func (r *AlertRepository) ListForExpirySweep(ctx context.Context) ([]models.Alert, error) {
	return r.listBy(ctx, `
		SELECT `+alertColumns+` FROM alerts
		WHERE timeout > 0 AND status NOT IN ('closed','expired')`)
}

func (r *AlertRepository) ListHousekeepingCandidates(ctx context.Context, expiredBefore, infoBefore time.Time) ([]models.Alert, error) {
	return r.listBy(ctx, `
		SELECT `+alertColumns+` FROM alerts
		WHERE (status = 'expired' AND update_time < $1)
		   OR (severity = 'informational' AND update_time < $2)
	`, expiredBefore, infoBefore)
}
