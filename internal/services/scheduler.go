package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"alert-center/internal/models"
)

var schedulerLog = log.New(log.Writer(), "[scheduler] ", log.LstdFlags)

// Scheduler runs the periodic idempotent sweeps of spec §4.8 on a
// ticker per task, mirroring the teacher's time.NewTicker worker loop
// (internal/services/alert_notification_worker.go's Start/runOnce).
// Concurrent invocations across replicas must not double-dispatch: each
// sweep acquires a short-lived Redis lock before running.
type Scheduler struct {
	engine     *AlertEngine
	rules      *RuleEngine
	dispatcher *Dispatcher
	heartbeats HeartbeatStore
	clock      Clock
	redis      *redis.Client

	intervals map[string]time.Duration
}

func NewScheduler(engine *AlertEngine, rules *RuleEngine, dispatcher *Dispatcher, heartbeats HeartbeatStore, clock Clock, redisClient *redis.Client) *Scheduler {
	return &Scheduler{
		engine:     engine,
		rules:      rules,
		dispatcher: dispatcher,
		heartbeats: heartbeats,
		clock:      clock,
		redis:      redisClient,
		intervals: map[string]time.Duration{
			"expire_sweep":      30 * time.Second,
			"unshelve_sweep":    30 * time.Second,
			"unack_sweep":       30 * time.Second,
			"escalate_scan":     60 * time.Second,
			"delayed_fire":      10 * time.Second,
			"reactivate_sweep":  60 * time.Second,
			"heartbeat_eval":    60 * time.Second,
		},
	}
}

// Start runs every configured sweep on its own ticker until ctx is
// cancelled. Each tick is one idempotent invocation of the sweep.
func (s *Scheduler) Start(ctx context.Context) {
	tasks := map[string]func(context.Context) (int, error){
		"expire_sweep":     s.engine.SweepExpired,
		"unshelve_sweep":   s.engine.SweepUnshelve,
		"unack_sweep":      s.engine.SweepUnack,
		"reactivate_sweep": s.rules.ReactivationSweep,
		"heartbeat_eval":   s.heartbeatEval,
		"escalate_scan":    s.escalateSweep,
		"delayed_fire":     s.delayedFireSweep,
	}
	for name, fn := range tasks {
		go s.runTicker(ctx, name, fn)
	}
}

func (s *Scheduler) runTicker(ctx context.Context, name string, fn func(context.Context) (int, error)) {
	interval := s.intervals[name]
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, name, fn)
		}
	}
}

// runOnce guards a single sweep invocation with a short Redis lock so
// that no two replicas run the same named sweep concurrently.
func (s *Scheduler) runOnce(ctx context.Context, name string, fn func(context.Context) (int, error)) {
	if s.redis != nil {
		lockKey := "alert-center:sweep:" + name
		ok, err := s.redis.SetNX(ctx, lockKey, "1", s.intervals[name]).Result()
		if err != nil {
			schedulerLog.Printf("%s: lock error: %v", name, err)
			return
		}
		if !ok {
			return // another replica holds the lock
		}
	}
	n, err := fn(ctx)
	if err != nil {
		schedulerLog.Printf("%s: %v", name, err)
		return
	}
	if n > 0 {
		schedulerLog.Printf("%s: %d affected", name, n)
	}
}

func (s *Scheduler) heartbeatEval(ctx context.Context) (int, error) {
	hbs, err := s.heartbeats.ListHeartbeats(ctx)
	if err != nil {
		return 0, err
	}
	now := s.clock.Now()
	for _, hb := range hbs {
		status := hb.DeriveStatus(now, 1*time.Minute)
		if status == models.HeartbeatExpired {
			schedulerLog.Printf("heartbeat expired: origin=%s customer=%s", hb.Origin, hb.Customer)
		}
	}
	return len(hbs), nil
}

// EscalateScan runs the escalation selection + severity bump for one
// (environment, customer) group, persists each escalated alert (S6:
// "stored severity becomes major"), and returns the alerts that were
// escalated.
func (s *Scheduler) EscalateScan(ctx context.Context, environment, customer string, openAlerts []models.Alert) ([]models.Alert, error) {
	targets, err := s.rules.SelectEscalationTargets(ctx, environment, customer, openAlerts)
	if err != nil {
		return nil, err
	}
	var escalated []models.Alert
	for i := range targets {
		a := &targets[i]
		nextSeverity := models.NextMoreSevere(a.Severity)
		if nextSeverity == a.Severity {
			continue
		}
		a.PreviousSeverity = a.Severity
		a.Severity = nextSeverity
		a.TrendIndication = models.TrendMoreSevere
		sev, status := s.engine.Transition(a, nil)
		a.Severity = sev
		a.Status = status
		a.UpdateTime = s.clock.Now()
		a.History = models.PrependHistory(a.History, models.HistoryRecord{
			ID:         uuid.New(),
			Event:      a.Event,
			Severity:   a.Severity,
			Status:     a.Status,
			ChangeType: models.ChangeSeverity,
			UpdateTime: a.UpdateTime,
			Text:       "escalated",
		})
		if err := s.engine.store.UpdateAlert(ctx, a); err != nil {
			return escalated, err
		}
		escalated = append(escalated, *a)
	}
	return escalated, nil
}

// escalateSweep is the periodic-ticker entry point for EscalateScan: it
// loads every open alert, groups by (environment, customer) — since
// escalation rules are scoped per environment/customer, per
// SelectEscalationTargets's grounding — and escalates each group.
func (s *Scheduler) escalateSweep(ctx context.Context) (int, error) {
	openAlerts, err := s.engine.store.ListOpenAlerts(ctx)
	if err != nil {
		return 0, err
	}
	type groupKey struct{ environment, customer string }
	groups := make(map[groupKey][]models.Alert)
	for _, a := range openAlerts {
		k := groupKey{a.Environment, a.Customer}
		groups[k] = append(groups[k], a)
	}
	total := 0
	for k, alerts := range groups {
		escalated, err := s.EscalateScan(ctx, k.environment, k.customer, alerts)
		if err != nil {
			return total, err
		}
		total += len(escalated)
	}
	return total, nil
}

// DelayedFire drains due delayed notifications via the Dispatcher.
func (s *Scheduler) DelayedFire(ctx context.Context, lookupRule func(context.Context, uuid.UUID) (*models.NotificationRule, error), lookupAlert func(context.Context, uuid.UUID) (*models.Alert, error)) (int, error) {
	return s.dispatcher.FireDue(ctx, lookupRule, lookupAlert, s.rules)
}

// delayedFireSweep is the periodic-ticker entry point for DelayedFire,
// resolving rule/alert lookups against the wired stores directly.
func (s *Scheduler) delayedFireSweep(ctx context.Context) (int, error) {
	return s.DelayedFire(ctx, s.rules.rules.GetNotificationRule, s.engine.store.GetAlert)
}

// RunEscalateScan triggers an out-of-band escalation scan (spec §6 GET
// /escalate); it does not take the ticker's Redis lock.
func (s *Scheduler) RunEscalateScan(ctx context.Context) (int, error) {
	return s.escalateSweep(ctx)
}

// RunDelayedFire triggers an out-of-band delayed-notification drain
// (spec §6 GET /notificationdelay/fire).
func (s *Scheduler) RunDelayedFire(ctx context.Context) (int, error) {
	return s.delayedFireSweep(ctx)
}
