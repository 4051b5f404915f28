package models

import (
	"time"

	"github.com/google/uuid"
)

// Blackout is a maintenance window that silences matching alerts.
// Optional attributes left "wild" (nil/empty) match any value; the
// matcher semantics live in internal/services/blackout_matcher.go.
type Blackout struct {
	ID        uuid.UUID `json:"id"`
	Environment string  `json:"environment"`
	Resource  *string   `json:"resource"`
	Event     *string   `json:"event"`
	Group     *string   `json:"group"`
	Service   []string  `json:"service"`
	Tags      []string  `json:"tags"`
	Origin    *string   `json:"origin"`
	Customer  *string   `json:"customer"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  int       `json:"duration"` // seconds, derived from End-Start
	Priority  int       `json:"priority"` // derived: more specific => higher
	User      string    `json:"user"`
	Text      string    `json:"text"`
}

// ComputePriority derives Blackout.Priority from which optional
// attributes are set: the more specific a row, the higher its
// priority. Priority is informational only (display); matching is
// boolean, never narrowed to a single winner.
func (b *Blackout) ComputePriority() int {
	p := 1
	if b.Resource != nil {
		p++
	}
	if len(b.Service) > 0 {
		p++
	}
	if b.Event != nil {
		p++
	}
	if b.Group != nil {
		p++
	}
	if len(b.Tags) > 0 {
		p++
	}
	if b.Origin != nil {
		p++
	}
	return p
}
