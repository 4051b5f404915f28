package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	apierrors "alert-center/pkg/errors"

	"alert-center/internal/models"
)

// PreProcessor is a plugin hook that may mutate or reject an inbound
// alert before identity resolution. Spec §4.1 step 1: rejection fails
// with RejectException, implemented here as apierrors.ErrRejected.
type PreProcessor interface {
	PreProcess(ctx context.Context, alert *models.Alert) error
}

// AlertEngine implements the ISA-18.2 alarm lifecycle: dedup/correlate/
// create, state-machine transitions, flap detection, and timeout
// sweeps. Grounded on
// original_source/alerta/models/alarms/alerta_isa_18_2.py (transition
// table) and original_source/alerta/views/alerts.py (ingest pipeline
// ordering: pre-process, blackout, identity resolution, history).
type AlertEngine struct {
	store     AlertStore
	blackouts BlackoutStore
	matcher   *BlackoutMatcher
	clock     Clock

	preProcessors []PreProcessor

	limiterMu sync.Mutex
	limiters  map[string]*rate.Limiter
	rateLimit rate.Limit
	rateBurst int
}

func NewAlertEngine(store AlertStore, blackouts BlackoutStore, clock Clock) *AlertEngine {
	return &AlertEngine{
		store:     store,
		blackouts: blackouts,
		matcher:   NewBlackoutMatcher(clock),
		clock:     clock,
		limiters:  make(map[string]*rate.Limiter),
		rateLimit: rate.Limit(10), // 10 alerts/sec per origin by default
		rateBurst: 20,
	}
}

func (e *AlertEngine) AddPreProcessor(p PreProcessor) {
	e.preProcessors = append(e.preProcessors, p)
}

func (e *AlertEngine) SetRateLimit(perSecond float64, burst int) {
	e.rateLimit = rate.Limit(perSecond)
	e.rateBurst = burst
}

func (e *AlertEngine) limiterFor(origin string) *rate.Limiter {
	e.limiterMu.Lock()
	defer e.limiterMu.Unlock()
	l, ok := e.limiters[origin]
	if !ok {
		l = rate.NewLimiter(e.rateLimit, e.rateBurst)
		e.limiters[origin] = l
	}
	return l
}

// Outcome classifies the disjoint result of Process, per spec P1.
type Outcome string

const (
	OutcomeDuplicate  Outcome = "duplicate"
	OutcomeCorrelate  Outcome = "correlate"
	OutcomeCreate     Outcome = "create"
	OutcomeBlackout   Outcome = "blackout"
)

// ProcessResult is the return of Process.
type ProcessResult struct {
	Alert   *models.Alert
	Outcome Outcome
}

// Process runs the full ingest pipeline of spec §4.1.
func (e *AlertEngine) Process(ctx context.Context, incoming *models.Alert) (*ProcessResult, error) {
	// 1. Pre-process: plugin rejection / rate limit / heartbeat masquerade.
	if err := e.preProcess(ctx, incoming); err != nil {
		return nil, err
	}

	now := e.clock.Now()
	if incoming.CreateTime.IsZero() {
		incoming.CreateTime = now
	}
	incoming.ReceiveTime = now
	incoming.LastReceiveTime = now

	// 2. Blackout check.
	blackouts, err := e.blackouts.ListActiveBlackouts(ctx, incoming.Environment, now)
	if err != nil {
		return nil, apierrors.ErrInternalServer
	}
	if e.matcher.Matches(incoming, blackouts) {
		incoming.Status = models.StatusBlackout
		return &ProcessResult{Alert: incoming, Outcome: OutcomeBlackout}, apierrors.ErrBlackoutPeriod
	}

	// 3. Identity lookup: only rows whose event also matches (same
	// event, or incoming event already in correlate) come back here —
	// anything else is a new identity, per FindByIdentity's grounding.
	existing, err := e.store.FindByIdentity(ctx, incoming.Environment, incoming.Resource, incoming.Event, incoming.Customer)
	if err != nil {
		return nil, apierrors.ErrInternalServer
	}

	switch {
	case existing == nil:
		return e.create(ctx, incoming)
	case existing.Event == incoming.Event && existing.Severity == incoming.Severity:
		return e.dedup(ctx, existing, incoming)
	case existing.Event == incoming.Event || containsStr(existing.Correlate, incoming.Event):
		return e.correlate(ctx, existing, incoming)
	default:
		// FindByIdentity's WHERE clause guarantees one of the two cases
		// above matched; this default is unreachable but kept as a safe
		// fallback to a brand-new identity rather than silently
		// mutating an unrelated row.
		return e.create(ctx, incoming)
	}
}

func containsStr(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func (e *AlertEngine) preProcess(ctx context.Context, alert *models.Alert) error {
	if alert.Event == "Heartbeat" {
		return apierrors.ErrHeartbeatReceived
	}
	limiter := e.limiterFor(alert.Origin)
	if !limiter.Allow() {
		return apierrors.ErrRateLimited
	}
	for _, p := range e.preProcessors {
		if err := p.PreProcess(ctx, alert); err != nil {
			return apierrors.ErrRejected
		}
	}
	return nil
}

func (e *AlertEngine) create(ctx context.Context, incoming *models.Alert) (*ProcessResult, error) {
	incoming.ID = uuid.New()
	incoming.LastReceiveID = incoming.ID
	incoming.DuplicateCount = 0
	incoming.Repeat = false
	incoming.PreviousSeverity = models.DefaultPreviousSeverity()
	incoming.Status = models.DefaultStatus
	incoming.UpdateTime = incoming.ReceiveTime
	incoming.History = models.PrependHistory(nil, models.HistoryRecord{
		ID:         uuid.New(),
		Event:      incoming.Event,
		Severity:   incoming.Severity,
		Status:     incoming.Status,
		Value:      incoming.Value,
		Text:       incoming.Text,
		ChangeType: models.ChangeNew,
		UpdateTime: incoming.ReceiveTime,
	})

	sev, status := e.Transition(incoming, nil)
	incoming.Severity = sev
	incoming.Status = status

	if err := e.store.CreateAlert(ctx, incoming); err != nil {
		return nil, apierrors.ErrStoreConflict
	}
	return &ProcessResult{Alert: incoming, Outcome: OutcomeCreate}, nil
}

func (e *AlertEngine) dedup(ctx context.Context, existing, incoming *models.Alert) (*ProcessResult, error) {
	prevStatus := existing.Status
	existing.DuplicateCount++
	existing.Repeat = true
	existing.Value = incoming.Value
	existing.Text = incoming.Text
	existing.Timeout = incoming.Timeout
	existing.RawData = incoming.RawData
	existing.Tags = models.MergeTags(existing.Tags, incoming.Tags)
	existing.Attributes = models.MergeAttributes(existing.Attributes, incoming.Attributes)
	existing.LastReceiveID = uuid.New()
	existing.LastReceiveTime = incoming.ReceiveTime
	existing.UpdateTime = incoming.ReceiveTime

	sev, status := e.Transition(existing, nil)
	existing.Severity = sev
	existing.Status = status
	if status != prevStatus {
		existing.History = models.PrependHistory(existing.History, models.HistoryRecord{
			ID:         uuid.New(),
			Event:      existing.Event,
			Severity:   existing.Severity,
			Status:     existing.Status,
			Value:      existing.Value,
			Text:       existing.Text,
			ChangeType: models.ChangeStatus,
			UpdateTime: existing.UpdateTime,
		})
	}

	if err := e.store.UpdateAlert(ctx, existing); err != nil {
		return nil, apierrors.ErrStoreConflict
	}
	return &ProcessResult{Alert: existing, Outcome: OutcomeDuplicate}, nil
}

func (e *AlertEngine) correlate(ctx context.Context, existing, incoming *models.Alert) (*ProcessResult, error) {
	existing.PreviousSeverity = existing.Severity
	existing.Event = incoming.Event
	existing.Value = incoming.Value
	existing.Text = incoming.Text
	existing.Timeout = incoming.Timeout
	existing.RawData = incoming.RawData
	existing.Tags = models.MergeTags(existing.Tags, incoming.Tags)
	existing.Attributes = models.MergeAttributes(existing.Attributes, incoming.Attributes)
	existing.LastReceiveID = uuid.New()
	existing.LastReceiveTime = incoming.ReceiveTime
	existing.UpdateTime = incoming.ReceiveTime
	existing.DuplicateCount = 0
	existing.Repeat = false

	newSeverity := incoming.Severity
	existing.TrendIndication = Trend(existing.PreviousSeverity, newSeverity)
	existing.Severity = newSeverity

	sev, status := e.Transition(existing, nil)
	existing.Severity = sev
	existing.Status = status

	existing.History = models.PrependHistory(existing.History, models.HistoryRecord{
		ID:         uuid.New(),
		Event:      existing.Event,
		Severity:   existing.Severity,
		Status:     existing.Status,
		Value:      existing.Value,
		Text:       existing.Text,
		ChangeType: models.ChangeSeverity,
		UpdateTime: existing.UpdateTime,
	})

	if err := e.store.UpdateAlert(ctx, existing); err != nil {
		return nil, apierrors.ErrStoreConflict
	}
	return &ProcessResult{Alert: existing, Outcome: OutcomeCorrelate}, nil
}

// Trend compares two severities under SeverityRank's total order.
func Trend(previous, current models.Severity) models.Trend {
	p, c := models.SeverityRank[previous], models.SeverityRank[current]
	switch {
	case p < c:
		return models.TrendMoreSevere
	case p > c:
		return models.TrendLessSevere
	default:
		return models.TrendNoChange
	}
}

// Transition implements the ISA-18.2 state machine exactly as ported
// from original_source/alerta/models/alarms/alerta_isa_18_2.py's
// transition(). action is nil for an unprompted ingest-driven
// transition; non-nil for an operator action.
func (e *AlertEngine) Transition(alert *models.Alert, action *models.Action) (models.Severity, models.Status) {
	state := alert.Status
	if state == "" {
		state = models.DefaultStatus
	}
	currentSeverity := alert.Severity
	previousSeverity := alert.PreviousSeverity
	if previousSeverity == "" {
		previousSeverity = models.DefaultPreviousSeverity()
	}

	if action != nil {
		switch *action {
		case models.ActionShelve:
			return currentSeverity, models.StatusShelved
		case models.ActionUnshelve:
			if currentSeverity == models.DefaultNormalSeverity {
				return currentSeverity, models.StatusClosed
			}
			return currentSeverity, models.StatusOpen
		case models.ActionOpen:
			if state == models.StatusOpen {
				return currentSeverity, state
			}
			if state == models.StatusClosed {
				return currentSeverity, models.StatusUnack
			}
			return currentSeverity, models.StatusOpen
		case models.ActionAck:
			if state == models.StatusOpen {
				return currentSeverity, models.StatusAck
			}
			if state == models.StatusUnack {
				return currentSeverity, models.StatusClosed
			}
		case models.ActionUnack:
			if state == models.StatusAck {
				return currentSeverity, models.StatusOpen
			}
		}
	}

	if state == models.StatusUnack {
		if currentSeverity != models.DefaultNormalSeverity {
			return currentSeverity, models.StatusOpen
		}
	}

	if state == models.StatusClosed {
		if currentSeverity != models.DefaultNormalSeverity {
			return currentSeverity, models.StatusOpen
		}
	}

	if state == models.StatusAck {
		if currentSeverity == models.DefaultNormalSeverity {
			return currentSeverity, models.StatusClosed
		}
		if Trend(previousSeverity, currentSeverity) == models.TrendMoreSevere {
			if previousSeverity != models.DefaultPreviousSeverity() {
				return currentSeverity, models.StatusOpen
			}
		}
	}

	if state == models.StatusOpen {
		if currentSeverity == models.DefaultNormalSeverity {
			return currentSeverity, models.StatusUnack
		}
	}

	if state == models.StatusDsupr {
		if currentSeverity == models.DefaultNormalSeverity {
			return currentSeverity, models.StatusClosed
		}
		return currentSeverity, models.StatusOpen
	}

	if state == models.StatusOosrv {
		if currentSeverity == models.DefaultNormalSeverity {
			return currentSeverity, models.StatusClosed
		}
		return currentSeverity, models.StatusOpen
	}

	return currentSeverity, state
}

// ActionTransition applies an operator action to a stored alert,
// enforcing InvalidAction per spec §4.1 (action=open on an already
// Open alert).
func (e *AlertEngine) ActionTransition(ctx context.Context, alert *models.Alert, action models.Action, text string) error {
	if action == models.ActionOpen && alert.Status == models.StatusOpen {
		return apierrors.ErrInvalidAction
	}
	now := e.clock.Now()
	sev, status := e.Transition(alert, &action)
	prevStatus := alert.Status
	alert.Severity = sev
	alert.Status = status
	alert.UpdateTime = now
	if status != prevStatus || action != "" {
		alert.History = models.PrependHistory(alert.History, models.HistoryRecord{
			ID:         uuid.New(),
			Event:      alert.Event,
			Severity:   alert.Severity,
			Status:     alert.Status,
			Text:       text,
			ChangeType: models.ChangeAction,
			UpdateTime: now,
			Timeout:    alert.Timeout,
		})
	}
	if err := e.store.UpdateAlert(ctx, alert); err != nil {
		return apierrors.ErrStoreConflict
	}
	return nil
}

// IsSuppressed reports whether the alert is in a design-suppressed or
// out-of-service status (DSUPR/OOSRV) — ported from
// alerta_isa_18_2.py's is_suppressed().
func (e *AlertEngine) IsSuppressed(alert *models.Alert) bool {
	return alert.Status == models.StatusDsupr || alert.Status == models.StatusOosrv
}

// FlapDetect reports whether the alert has flapped: more than count
// severity-change history entries for the same identity within window.
func (e *AlertEngine) FlapDetect(alert *models.Alert, window time.Duration, count int) bool {
	if window <= 0 {
		window = 30 * time.Minute
	}
	if count <= 0 {
		count = 2
	}
	now := e.clock.Now()
	n := 0
	for _, h := range alert.History {
		if h.ChangeType != models.ChangeSeverity {
			continue
		}
		if now.Sub(h.UpdateTime) > window {
			continue
		}
		n++
	}
	return n > count
}

// SweepExpired emits expired transitions for alerts whose effective
// timeout has elapsed: status != expired, timeout != 0, and
// last_receive_time + timeout < now.
func (e *AlertEngine) SweepExpired(ctx context.Context) (int, error) {
	alerts, err := e.store.ListForExpirySweep(ctx)
	if err != nil {
		return 0, err
	}
	now := e.clock.Now()
	n := 0
	for i := range alerts {
		a := &alerts[i]
		if a.Status == models.StatusExpired || a.Timeout == 0 {
			continue
		}
		deadline := a.LastReceiveTime.Add(time.Duration(a.Timeout) * time.Second)
		if deadline.Before(now) {
			a.Status = models.StatusExpired
			a.UpdateTime = now
			a.History = models.PrependHistory(a.History, models.HistoryRecord{
				ID:         uuid.New(),
				Event:      a.Event,
				Severity:   a.Severity,
				Status:     a.Status,
				ChangeType: models.ChangeExpired,
				UpdateTime: now,
			})
			if err := e.store.UpdateAlert(ctx, a); err != nil {
				return n, err
			}
			n++
		}
	}
	return n, nil
}

// sweepByHistoryTimeout is shared by SweepUnshelve/SweepUnack: it looks
// at the most recent history entry of fromStatus with a nonzero
// Timeout and promotes the alert once that timeout has elapsed.
func (e *AlertEngine) sweepByHistoryTimeout(ctx context.Context, fromStatus models.Status, action models.Action) (int, error) {
	alerts, err := e.store.ListOpenAlerts(ctx)
	if err != nil {
		return 0, err
	}
	now := e.clock.Now()
	n := 0
	for i := range alerts {
		a := &alerts[i]
		if a.Status != fromStatus {
			continue
		}
		var latest *models.HistoryRecord
		for j := range a.History {
			if a.History[j].Status == fromStatus && a.History[j].Timeout > 0 {
				latest = &a.History[j]
				break
			}
		}
		if latest == nil {
			continue
		}
		deadline := latest.UpdateTime.Add(time.Duration(latest.Timeout) * time.Second)
		if deadline.Before(now) {
			if err := e.ActionTransition(ctx, a, action, fmt.Sprintf("%s timeout", fromStatus)); err != nil {
				return n, err
			}
			n++
		}
	}
	return n, nil
}

// SweepUnshelve promotes Shelved alerts whose shelve timeout elapsed.
func (e *AlertEngine) SweepUnshelve(ctx context.Context) (int, error) {
	return e.sweepByHistoryTimeout(ctx, models.StatusShelved, models.ActionUnshelve)
}

// SweepUnack promotes Ack alerts whose ack timeout elapsed.
func (e *AlertEngine) SweepUnack(ctx context.Context) (int, error) {
	return e.sweepByHistoryTimeout(ctx, models.StatusAck, models.ActionUnack)
}
