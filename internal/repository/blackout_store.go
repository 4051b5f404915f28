package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"alert-center/internal/models"
)

// BlackoutRepository implements services.BlackoutStore.
type BlackoutRepository struct {
	db *Database
}

func NewBlackoutRepository(db *Database) *BlackoutRepository {
	return &BlackoutRepository{db: db}
}

func (r *BlackoutRepository) ListActiveBlackouts(ctx context.Context, environment string, at time.Time) ([]models.Blackout, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, environment, resource, event, "group", service, tags, origin,
			customer, start_time, end_time, duration, priority, "user", text
		FROM blackouts
		WHERE environment = $1 AND start_time <= $2 AND end_time >= $2
	`, environment, at)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Blackout
	for rows.Next() {
		var b models.Blackout
		var service, tags string
		if err := rows.Scan(&b.ID, &b.Environment, &b.Resource, &b.Event, &b.Group, &service,
			&tags, &b.Origin, &b.Customer, &b.StartTime, &b.EndTime, &b.Duration, &b.Priority,
			&b.User, &b.Text); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(service), &b.Service)
		_ = json.Unmarshal([]byte(tags), &b.Tags)
		out = append(out, b)
	}
	return out, rows.Err()
}

// CreateBlackout inserts a maintenance window (spec §6 /blackouts).
func (r *BlackoutRepository) CreateBlackout(ctx context.Context, b *models.Blackout) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	b.Duration = int(b.EndTime.Sub(b.StartTime).Seconds())
	b.Priority = b.ComputePriority()
	service, _ := json.Marshal(b.Service)
	tags, _ := json.Marshal(b.Tags)
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO blackouts (id, environment, resource, event, "group", service, tags, origin,
			customer, start_time, end_time, duration, priority, "user", text)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`, b.ID, b.Environment, b.Resource, b.Event, b.Group, service, tags, b.Origin, b.Customer,
		b.StartTime, b.EndTime, b.Duration, b.Priority, b.User, b.Text)
	return err
}

// ListBlackouts returns all blackout windows, newest first, for admin listing.
func (r *BlackoutRepository) ListBlackouts(ctx context.Context) ([]models.Blackout, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, environment, resource, event, "group", service, tags, origin,
			customer, start_time, end_time, duration, priority, "user", text
		FROM blackouts ORDER BY start_time DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Blackout
	for rows.Next() {
		var b models.Blackout
		var service, tags string
		if err := rows.Scan(&b.ID, &b.Environment, &b.Resource, &b.Event, &b.Group, &service,
			&tags, &b.Origin, &b.Customer, &b.StartTime, &b.EndTime, &b.Duration, &b.Priority,
			&b.User, &b.Text); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(service), &b.Service)
		_ = json.Unmarshal([]byte(tags), &b.Tags)
		out = append(out, b)
	}
	return out, rows.Err()
}

// DeleteBlackout removes a maintenance window by id.
func (r *BlackoutRepository) DeleteBlackout(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM blackouts WHERE id = $1`, id)
	return err
}
