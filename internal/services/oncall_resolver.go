package services

import (
	"context"
	"time"

	"alert-center/internal/models"
)

// OnCallResolver computes the contactable parties for an alert's
// create time. Grounded on original_source/alerta/models/on_call.py
// (date range vs. repeat_type='list' with repeat_days/weeks/months,
// and the phone/mail pairing + member expansion in its `users`
// property).
type OnCallResolver struct {
	store OnCallStore
	rules RuleStore
	clock Clock
}

func NewOnCallResolver(store OnCallStore, rules RuleStore, clock Clock) *OnCallResolver {
	return &OnCallResolver{store: store, rules: rules, clock: clock}
}

var monthNames = [...]string{"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december"}

// Resolve returns the on-call targets covering the alert's create time.
func (r *OnCallResolver) Resolve(ctx context.Context, alert *models.Alert) ([]models.NotificationInfo, error) {
	at := alert.CreateTime
	oncalls, err := r.store.ListActiveOnCalls(ctx, alert.Customer, at)
	if err != nil {
		return nil, err
	}

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

	dateStr := at.Format("2006-01-02")
	_, isoWeek := at.ISOWeek()
	weekday := weekdayCode(at)
	month := monthNames[int(at.Month())-1]

	for _, oc := range oncalls {
		if !inTimeWindow(parseHHMMPtr(oc.StartTime), parseHHMMPtr(oc.EndTime), at) {
			continue
		}

		dateMatches := oc.StartDate != nil && oc.EndDate != nil &&
			*oc.StartDate <= dateStr && dateStr <= *oc.EndDate
		recurMatches := oc.RepeatType == "list" &&
			containsStr(oc.RepeatDays, weekday) &&
			containsInt(oc.RepeatWeeks, isoWeek) &&
			containsStr(oc.RepeatMonths, month)

		if !dateMatches && !recurMatches {
			continue
		}

		for _, uid := range oc.UserIDs {
			info, err := r.rules.GetUserInfo(ctx, uid)
			if err == nil {
				add(info)
			}
		}
		for _, gid := range oc.GroupIDs {
			group, err := r.rules.GetNotificationGroup(ctx, gid)
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
			members, err := r.rules.GetGroupMemberInfo(ctx, gid)
			if err == nil {
				for _, m := range members {
					add(m)
				}
			}
		}
	}
	return out, nil
}

func containsInt(set []int, v int) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func parseHHMMPtr(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t, err := time.Parse("15:04", *s)
	if err != nil {
		return nil
	}
	return &t
}
