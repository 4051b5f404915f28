package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"alert-center/internal/models"
)

// OnCallRepository implements services.OnCallStore.
type OnCallRepository struct {
	db *Database
}

func NewOnCallRepository(db *Database) *OnCallRepository {
	return &OnCallRepository{db: db}
}

func (r *OnCallRepository) ListActiveOnCalls(ctx context.Context, customer string, at time.Time) ([]models.OnCall, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, user_ids, group_ids, start_date, end_date, start_time, end_time,
			repeat_type, repeat_days, repeat_weeks, repeat_months, customer
		FROM on_calls
		WHERE customer = '' OR customer = $1
	`, customer)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.OnCall
	for rows.Next() {
		var oc models.OnCall
		var userIDs, groupIDs, repeatDays, repeatWeeks, repeatMonths string
		if err := rows.Scan(&oc.ID, &userIDs, &groupIDs, &oc.StartDate, &oc.EndDate,
			&oc.StartTime, &oc.EndTime, &oc.RepeatType, &repeatDays, &repeatWeeks,
			&repeatMonths, &oc.Customer); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(userIDs), &oc.UserIDs)
		_ = json.Unmarshal([]byte(groupIDs), &oc.GroupIDs)
		_ = json.Unmarshal([]byte(repeatDays), &oc.RepeatDays)
		_ = json.Unmarshal([]byte(repeatWeeks), &oc.RepeatWeeks)
		_ = json.Unmarshal([]byte(repeatMonths), &oc.RepeatMonths)
		out = append(out, oc)
	}
	return out, rows.Err()
}

// CreateOnCall inserts an on-call schedule row (spec §6 /oncalls, §S8).
func (r *OnCallRepository) CreateOnCall(ctx context.Context, oc *models.OnCall) error {
	if oc.ID == uuid.Nil {
		oc.ID = uuid.New()
	}
	userIDs, _ := json.Marshal(oc.UserIDs)
	groupIDs, _ := json.Marshal(oc.GroupIDs)
	repeatDays, _ := json.Marshal(oc.RepeatDays)
	repeatWeeks, _ := json.Marshal(oc.RepeatWeeks)
	repeatMonths, _ := json.Marshal(oc.RepeatMonths)
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO on_calls (id, user_ids, group_ids, start_date, end_date, start_time, end_time,
			repeat_type, repeat_days, repeat_weeks, repeat_months, customer)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, oc.ID, userIDs, groupIDs, oc.StartDate, oc.EndDate, oc.StartTime, oc.EndTime,
		oc.RepeatType, repeatDays, repeatWeeks, repeatMonths, oc.Customer)
	return err
}

// ListOnCalls returns every on-call schedule row for admin listing.
func (r *OnCallRepository) ListOnCalls(ctx context.Context) ([]models.OnCall, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, user_ids, group_ids, start_date, end_date, start_time, end_time,
			repeat_type, repeat_days, repeat_weeks, repeat_months, customer
		FROM on_calls
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.OnCall
	for rows.Next() {
		var oc models.OnCall
		var userIDs, groupIDs, repeatDays, repeatWeeks, repeatMonths string
		if err := rows.Scan(&oc.ID, &userIDs, &groupIDs, &oc.StartDate, &oc.EndDate,
			&oc.StartTime, &oc.EndTime, &oc.RepeatType, &repeatDays, &repeatWeeks,
			&repeatMonths, &oc.Customer); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(userIDs), &oc.UserIDs)
		_ = json.Unmarshal([]byte(groupIDs), &oc.GroupIDs)
		_ = json.Unmarshal([]byte(repeatDays), &oc.RepeatDays)
		_ = json.Unmarshal([]byte(repeatWeeks), &oc.RepeatWeeks)
		_ = json.Unmarshal([]byte(repeatMonths), &oc.RepeatMonths)
		out = append(out, oc)
	}
	return out, rows.Err()
}

// DeleteOnCall removes an on-call schedule row by id.
func (r *OnCallRepository) DeleteOnCall(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM on_calls WHERE id = $1`, id)
	return err
}
