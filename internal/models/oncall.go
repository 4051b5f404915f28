package models

import (
	"github.com/google/uuid"
)

// OnCall resolves contactable parties for an alert's create time, either
// via an explicit absolute date range or a list-based weekly/monthly
// recurrence (RepeatType == "list").
type OnCall struct {
	ID            uuid.UUID   `json:"id"`
	UserIDs       []uuid.UUID `json:"user_ids"`
	GroupIDs      []uuid.UUID `json:"group_ids"`
	StartDate     *string     `json:"start_date"` // YYYY-MM-DD
	EndDate       *string     `json:"end_date"`
	StartTime     *string     `json:"start_time"` // HH:MM
	EndTime       *string     `json:"end_time"`
	RepeatType    string      `json:"repeat_type"` // "list" or ""
	RepeatDays    []string    `json:"repeat_days"` // weekday names
	RepeatWeeks   []int       `json:"repeat_weeks"` // ISO week numbers
	RepeatMonths  []string    `json:"repeat_months"` // month names
	Customer      string      `json:"customer"`
}
