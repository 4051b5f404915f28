package services

import "alert-center/internal/models"

// BlackoutMatcher decides whether an inbound alert falls in an active
// maintenance window. Ground truth: the enumerated wildcard SQL in
// original_source/alerta/database/backends/postgres/base.py's
// is_blackout_period — reproduced here as plain Go predicates over the
// six optional attributes instead of a 64-branch SQL CASE.
type BlackoutMatcher struct {
	clock Clock
}

func NewBlackoutMatcher(clock Clock) *BlackoutMatcher {
	return &BlackoutMatcher{clock: clock}
}

// Matches reports whether any of the given blackout rows silences the
// alert at its create time. Priority is not used to pick a single
// winner — match is boolean, any matching row silences.
func (m *BlackoutMatcher) Matches(alert *models.Alert, blackouts []models.Blackout) bool {
	for _, b := range blackouts {
		if m.matchesOne(alert, &b) {
			return true
		}
	}
	return false
}

func (m *BlackoutMatcher) matchesOne(alert *models.Alert, b *models.Blackout) bool {
	if alert.CreateTime.Before(b.StartTime) || !alert.CreateTime.Before(b.EndTime) {
		return false
	}
	if b.Environment != alert.Environment {
		return false
	}
	if b.Customer != nil && *b.Customer != alert.Customer {
		return false
	}
	if b.Resource != nil && *b.Resource != alert.Resource {
		return false
	}
	if b.Event != nil && *b.Event != alert.Event {
		return false
	}
	if b.Group != nil && *b.Group != alert.Group {
		return false
	}
	if b.Origin != nil && *b.Origin != alert.Origin {
		return false
	}
	if len(b.Service) > 0 {
		svc := tagSet(alert.Service)
		if !subsetOf(b.Service, svc) {
			return false
		}
	}
	if len(b.Tags) > 0 {
		tags := alert.TagSet()
		if !subsetOf(b.Tags, tags) {
			return false
		}
	}
	return true
}
