package services

import (
	"context"
	"time"

	"alert-center/internal/models"
)

// RuleEngine evaluates notification and escalation rules against an
// alert and resolves effective targets. Grounded on
// original_source/alerta/models/notification_rule.py and
// escalation_rule.py (shared attribute/tag/trigger algebra, priority
// computation) and the postgres CTEs in
// database/backends/postgres/base.py (get_notification_rules_active /
// get_notification_rules_active_status — the two entry points below
// resolve the spec's stated Open Question: trigger.status is required
// only when an explicit status argument is given).
type RuleEngine struct {
	rules   RuleStore
	oncall  *OnCallResolver
	tags    TagAlgebra
	clock   Clock
}

func NewRuleEngine(rules RuleStore, oncall *OnCallResolver, clock Clock) *RuleEngine {
	return &RuleEngine{rules: rules, oncall: oncall, clock: clock}
}

// attributeMatch is the attribute/tag predicate shared by notification
// and escalation rules: environment, optional resource/event/group,
// service subset, and tag inclusion/exclusion.
func (re *RuleEngine) attributeMatch(alert *models.Alert, environment string, resource, event, group *string, service []string, tags, excludedTags []models.AdvancedTag) bool {
	if environment != alert.Environment {
		return false
	}
	if resource != nil && *resource != alert.Resource {
		return false
	}
	if event != nil && *event != alert.Event {
		return false
	}
	if group != nil && *group != alert.Group {
		return false
	}
	if len(service) > 0 {
		svc := tagSet(alert.Service)
		if !subsetOf(service, svc) {
			return false
		}
	}
	if !re.tags.IncludesAny(tags, alert.Tags) {
		return false
	}
	if re.tags.ExcludesAny(excludedTags, alert.Tags) {
		return false
	}
	return true
}

func weekdayCode(t time.Time) string {
	return [...]string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}[int(t.Weekday())]
}

func inDayList(days []string, now time.Time) bool {
	if len(days) == 0 {
		return true
	}
	code := weekdayCode(now)
	for _, d := range days {
		if d == code {
			return true
		}
	}
	return false
}

func inTimeWindow(start, end *time.Time, now time.Time) bool {
	if start == nil || end == nil {
		return true
	}
	minuteOfDay := now.Hour()*60 + now.Minute()
	s := start.Hour()*60 + start.Minute()
	e := end.Hour()*60 + end.Minute()
	if s <= e {
		return minuteOfDay >= s && minuteOfDay < e
	}
	// midnight-spanning window
	return minuteOfDay >= s || minuteOfDay < e
}

func triggerMatchesSeverity(tr models.NotificationTrigger, from, to models.Severity) bool {
	if len(tr.FromSeverity) > 0 && !severityIn(tr.FromSeverity, from) {
		return false
	}
	if len(tr.ToSeverity) > 0 && !severityIn(tr.ToSeverity, to) {
		return false
	}
	return true
}

func severityIn(set []models.Severity, v models.Severity) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func statusIn(set []models.Status, v models.Status) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// triggerMatchesStatus implements the resolved Open Question: when an
// explicit status is given the trigger's status list is REQUIRED to
// contain it (get_notification_rules_active_status has no
// empty-bypass); when no status is given, an empty trigger.status list
// matches any alert status (get_notification_rules_active).
func triggerMatchesStatus(tr models.NotificationTrigger, alertStatus models.Status, explicitStatus *models.Status) bool {
	if explicitStatus != nil {
		return statusIn(tr.Status, *explicitStatus)
	}
	return len(tr.Status) == 0 || statusIn(tr.Status, alertStatus)
}

// SelectNotificationRules returns every active notification rule that
// matches the alert on an unprompted ingest-driven transition (no
// explicit status argument — empty trigger.status matches any status).
func (re *RuleEngine) SelectNotificationRules(ctx context.Context, alert *models.Alert) ([]models.NotificationRule, error) {
	return re.selectNotificationRules(ctx, alert, nil)
}

// SelectNotificationRulesForStatus is the status-constrained entry
// point used by operator actions: trigger.status is required to
// contain the given status.
func (re *RuleEngine) SelectNotificationRulesForStatus(ctx context.Context, alert *models.Alert, status models.Status) ([]models.NotificationRule, error) {
	return re.selectNotificationRules(ctx, alert, &status)
}

func (re *RuleEngine) selectNotificationRules(ctx context.Context, alert *models.Alert, explicitStatus *models.Status) ([]models.NotificationRule, error) {
	// P7: a duplicate ingest (severity unchanged, duplicate_count
	// incremented) never selects any notification rule.
	if alert.DuplicateCount > 0 && explicitStatus == nil {
		return nil, nil
	}

	candidates, err := re.rules.ListActiveNotificationRules(ctx, alert.Environment, alert.Customer)
	if err != nil {
		return nil, err
	}
	now := re.clock.Now()
	var out []models.NotificationRule
	for _, r := range candidates {
		if !inDayList(r.Days, now) || !inTimeWindow(r.StartTime, r.EndTime, now) {
			continue
		}
		if !re.attributeMatch(alert, r.Environment, r.Resource, r.Event, r.Group, r.Service, r.Tags, r.ExcludedTags) {
			continue
		}
		matched := false
		for _, tr := range r.Triggers {
			if triggerMatchesSeverity(tr, alert.PreviousSeverity, alert.Severity) &&
				triggerMatchesStatus(tr, alert.Status, explicitStatus) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// SelectNotificationTargets composes the notification target set for a
// matched rule: raw receivers ∪ expanded users ∪ expanded groups ∪
// (if UseOnCall) on-call targets — as a de-duplicated set.
func (re *RuleEngine) SelectNotificationTargets(ctx context.Context, rule *models.NotificationRule, alert *models.Alert) ([]models.NotificationInfo, error) {
	seen := make(map[string]struct{})
	var out []models.NotificationInfo
	add := func(n models.NotificationInfo) {
		k := n.Key()
		if k == "|" {
			return
		}
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		out = append(out, n)
	}

	for _, r := range rule.Receivers {
		if containsAt(r) {
			add(models.NotificationInfo{Email: r})
		} else {
			add(models.NotificationInfo{PhoneNumber: r})
		}
	}
	for _, uid := range rule.UserIDs {
		info, err := re.rules.GetUserInfo(ctx, uid)
		if err == nil {
			add(info)
		}
	}
	for _, gid := range rule.GroupIDs {
		group, err := re.rules.GetNotificationGroup(ctx, gid)
		if err != nil || group == nil {
			continue
		}
		n := len(group.PhoneNumbers)
		if len(group.Mails) > n {
			n = len(group.Mails)
		}
		for i := 0; i < n; i++ {
			var info models.NotificationInfo
			if i < len(group.PhoneNumbers) {
				info.PhoneNumber = group.PhoneNumbers[i]
			}
			if i < len(group.Mails) {
				info.Email = group.Mails[i]
			}
			add(info)
		}
		members, err := re.rules.GetGroupMemberInfo(ctx, gid)
		if err == nil {
			for _, m := range members {
				add(m)
			}
		}
	}
	if rule.UseOnCall && re.oncall != nil {
		targets, err := re.oncall.Resolve(ctx, alert)
		if err == nil {
			for _, t := range targets {
				add(t)
			}
		}
	}
	return out, nil
}

func containsAt(s string) bool {
	for _, c := range s {
		if c == '@' {
			return true
		}
	}
	return false
}

// ReactivationSweep flips inactive rules with an elapsed Reactivate
// timestamp back to active and clears it.
func (re *RuleEngine) ReactivationSweep(ctx context.Context) (int, error) {
	now := re.clock.Now()
	rules, err := re.rules.ListInactiveReactivatable(ctx, now)
	if err != nil {
		return 0, err
	}
	for _, r := range rules {
		if err := re.rules.ReactivateNotificationRule(ctx, r.ID); err != nil {
			return 0, err
		}
	}
	return len(rules), nil
}

// SelectEscalationTargets returns currently-open alerts whose age
// exceeds an active escalation rule's Time threshold, under the same
// attribute/tag algebra (trigger Status is always ignored — only
// from/to severity considered, per escalation_rule.py's parse()).
func (re *RuleEngine) SelectEscalationTargets(ctx context.Context, environment, customer string, openAlerts []models.Alert) ([]models.Alert, error) {
	rules, err := re.rules.ListActiveEscalationRules(ctx, environment, customer)
	if err != nil {
		return nil, err
	}
	now := re.clock.Now()
	var out []models.Alert
	for i := range openAlerts {
		a := &openAlerts[i]
		for _, r := range rules {
			if !inDayList(r.Days, now) || !inTimeWindow(r.StartTime, r.EndTime, now) {
				continue
			}
			if !re.attributeMatch(a, r.Environment, r.Resource, r.Event, r.Group, r.Service, r.Tags, r.ExcludedTags) {
				continue
			}
			if now.Sub(a.LastReceiveTime) <= r.Time {
				continue
			}
			matched := len(r.Triggers) == 0
			for _, tr := range r.Triggers {
				if triggerMatchesSeverity(tr, a.PreviousSeverity, a.Severity) {
					matched = true
					break
				}
			}
			if matched {
				out = append(out, *a)
				break
			}
		}
	}
	return out, nil
}
