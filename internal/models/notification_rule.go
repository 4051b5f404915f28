package models

import (
	"time"

	"github.com/google/uuid"
)

// AdvancedTag is the {all, any} inclusion predicate over an alert's tag
// set. Semantics in internal/services/tag_algebra.go.
type AdvancedTag struct {
	All []string `json:"all"`
	Any []string `json:"any"`
}

// NotificationTrigger is the conjunction of optional severity-transition
// and status predicates attached to a rule.
type NotificationTrigger struct {
	FromSeverity []Severity `json:"from_severity"`
	ToSeverity   []Severity `json:"to_severity"`
	Status       []Status   `json:"status"`
	Text         string     `json:"text"`
}

// NotificationGroup is a named collection of users and phone/mail pairs.
type NotificationGroup struct {
	ID           uuid.UUID   `json:"id"`
	Name         string      `json:"name"`
	UserIDs      []uuid.UUID `json:"user_ids"`
	PhoneNumbers []string    `json:"phone_numbers"`
	Mails        []string    `json:"mails"`
	Customer     string      `json:"customer"`
}

// NotificationInfo is a single contactable address, used by both
// NotificationRule target expansion and OnCall resolution.
type NotificationInfo struct {
	PhoneNumber string `json:"phone_number,omitempty"`
	Email       string `json:"email,omitempty"`
}

// Key makes NotificationInfo usable as a set element.
func (n NotificationInfo) Key() string {
	return n.PhoneNumber + "|" + n.Email
}

// NotificationRule selects targets to notify on a matching alert
// transition.
type NotificationRule struct {
	ID            uuid.UUID             `json:"id"`
	Active        bool                  `json:"active"`
	Environment   string                `json:"environment"`
	ChannelID     uuid.UUID             `json:"channel_id"`
	Receivers     []string              `json:"receivers"`
	UserIDs       []uuid.UUID           `json:"user_ids"`
	GroupIDs      []uuid.UUID           `json:"group_ids"`
	UseOnCall     bool                  `json:"use_oncall"`
	Resource      *string               `json:"resource"`
	Event         *string               `json:"event"`
	Group         *string               `json:"group"`
	Service       []string              `json:"service"`
	Tags          []AdvancedTag         `json:"tags"`
	ExcludedTags  []AdvancedTag         `json:"excluded_tags"`
	Triggers      []NotificationTrigger `json:"triggers"`
	Days          []string              `json:"days"` // weekday codes, empty = every day
	StartTime     *time.Time            `json:"start_time"`
	EndTime       *time.Time            `json:"end_time"`
	DelayTime     *time.Duration        `json:"delay_time"`
	Reactivate    *time.Time            `json:"reactivate"`
	Customer      string                `json:"customer"`
	Text          string                `json:"text"`
	Priority      int                   `json:"priority"`
	CreateTime    time.Time             `json:"create_time"`
}

// ComputeRulePriority mirrors alerta's NotificationRule/EscalationRule
// priority computation: a sequential if/elif chain, NOT cumulative —
// later branches overwrite the priority set by earlier ones.
func ComputeRulePriority(environment string, resource, event, group *string, service []string, tags []AdvancedTag) int {
	priority := 0
	if environment != "" {
		priority = 1
	}
	if resource != nil && event == nil {
		priority = 2
	} else if len(service) > 0 {
		priority = 3
	} else if event != nil && resource == nil {
		priority = 4
	} else if group != nil {
		priority = 5
	} else if resource != nil && event != nil {
		priority = 6
	} else if len(tags) > 0 {
		priority = 7
	}
	return priority
}
