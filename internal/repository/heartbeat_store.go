package repository

import (
	"context"

	"github.com/google/uuid"

	"alert-center/internal/models"
)

// HeartbeatRepository implements services.HeartbeatStore.
type HeartbeatRepository struct {
	db *Database
}

func NewHeartbeatRepository(db *Database) *HeartbeatRepository {
	return &HeartbeatRepository{db: db}
}

func (r *HeartbeatRepository) UpsertHeartbeat(ctx context.Context, hb *models.Heartbeat) error {
	if hb.ID == uuid.Nil {
		hb.ID = uuid.New()
	}
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO heartbeats (id, origin, customer, create_time, receive_time, timeout)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (origin, customer) DO UPDATE SET
			receive_time = EXCLUDED.receive_time, timeout = EXCLUDED.timeout
	`, hb.ID, hb.Origin, hb.Customer, hb.CreateTime, hb.ReceiveTime, hb.Timeout)
	return err
}

func (r *HeartbeatRepository) ListHeartbeats(ctx context.Context) ([]models.Heartbeat, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, origin, customer, create_time, receive_time, timeout FROM heartbeats
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Heartbeat
	for rows.Next() {
		var hb models.Heartbeat
		if err := rows.Scan(&hb.ID, &hb.Origin, &hb.Customer, &hb.CreateTime, &hb.ReceiveTime, &hb.Timeout); err != nil {
			return nil, err
		}
		out = append(out, hb)
	}
	return out, rows.Err()
}

// GetHeartbeat looks up one heartbeat by id (spec §6 GET /heartbeats/:id).
func (r *HeartbeatRepository) GetHeartbeat(ctx context.Context, id uuid.UUID) (*models.Heartbeat, error) {
	var hb models.Heartbeat
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, origin, customer, create_time, receive_time, timeout FROM heartbeats WHERE id = $1
	`, id).Scan(&hb.ID, &hb.Origin, &hb.Customer, &hb.CreateTime, &hb.ReceiveTime, &hb.Timeout)
	if err != nil {
		return nil, err
	}
	return &hb, nil
}

// DeleteHeartbeat removes a heartbeat by id.
func (r *HeartbeatRepository) DeleteHeartbeat(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM heartbeats WHERE id = $1`, id)
	return err
}
