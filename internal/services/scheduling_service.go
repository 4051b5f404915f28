package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SchedulingService generates on-call rotations and coverage.
type SchedulingService struct {
	db *pgxpool.Pool
}

// NewSchedulingService returns a new SchedulingService.
func NewSchedulingService(db *pgxpool.Pool) *SchedulingService {
	return &SchedulingService{db: db}
}

// GeneratedShift is a single generated shift.
type GeneratedShift struct {
	ID         uuid.UUID `json:"id"`
	ScheduleID uuid.UUID `json:"schedule_id"`
	UserID     uuid.UUID `json:"user_id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	CreatedAt  time.Time `json:"created_at"`
}

// GenerateSchedule generates rotations for a schedule in the given time range.
func (s *SchedulingService) GenerateSchedule(ctx context.Context, scheduleID uuid.UUID, startTime, endTime time.Time, shiftDurationHours int, timezone string) ([]GeneratedShift, int, error) {
	if shiftDurationHours <= 0 {
		shiftDurationHours = 24
	}
	// Stub: return empty list; full impl would assign members to slots
	return []GeneratedShift{}, 0, nil
}

// ScheduleCoverage represents a gap in coverage.
type ScheduleCoverage struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Duration  string `json:"duration"`
}

// GetScheduleCoverage returns no coverage gaps: it does not inspect the
// schedule and always returns an empty result.
func (s *SchedulingService) GetScheduleCoverage(ctx context.Context, scheduleID uuid.UUID, startTime, endTime *time.Time) ([]ScheduleCoverage, int, error) {
	return nil, 0, nil
}

// SuggestRotation returns suggestions for the schedule (stub).
func (s *SchedulingService) SuggestRotation(ctx context.Context, scheduleID uuid.UUID) ([]string, error) {
	return []string{}, nil
}

// ScheduleValidation result.
type ScheduleValidation struct {
	ScheduleID       string  `json:"schedule_id"`
	StartTime        string  `json:"start_time"`
	EndTime          string  `json:"end_time"`
	GapCount         int     `json:"gap_count"`
	TotalGapDuration string  `json:"total_gap_duration"`
	CoveragePercent  float64 `json:"coverage_percent"`
	IsValid          bool    `json:"is_valid"`
}

// ValidateSchedule reports the schedule as valid; it does not check
// coverage for the time range.
func (s *SchedulingService) ValidateSchedule(ctx context.Context, scheduleID uuid.UUID, startTime, endTime *time.Time) (*ScheduleValidation, error) {
	return &ScheduleValidation{
		ScheduleID: scheduleID.String(),
		IsValid:    true,
	}, nil
}
