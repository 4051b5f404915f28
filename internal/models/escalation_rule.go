package models

import (
	"time"

	"github.com/google/uuid"
)

// EscalationRule selects open alerts whose age and attributes demand a
// severity bump. It shares the attribute/tag/trigger algebra with
// NotificationRule, but triggers ignore Status entirely (see
// internal/services/rule_engine.go).
type EscalationRule struct {
	ID           uuid.UUID             `json:"id"`
	Active       bool                  `json:"active"`
	Environment  string                `json:"environment"`
	Time         time.Duration         `json:"time"` // minimum alert age before fire
	Resource     *string               `json:"resource"`
	Event        *string               `json:"event"`
	Group        *string               `json:"group"`
	Service      []string              `json:"service"`
	Tags         []AdvancedTag         `json:"tags"`
	ExcludedTags []AdvancedTag         `json:"excluded_tags"`
	Triggers     []NotificationTrigger `json:"triggers"` // Status is always ignored
	Days         []string              `json:"days"`
	StartTime    *time.Time            `json:"start_time"`
	EndTime      *time.Time            `json:"end_time"`
	Customer     string                `json:"customer"`
	Priority     int                   `json:"priority"`
	CreateTime   time.Time             `json:"create_time"`
}
