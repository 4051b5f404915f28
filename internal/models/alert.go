package models

import (
	"time"

	"github.com/google/uuid"
)

// Severity is the ISA-18.2 alarm severity rank, ordered by SeverityRank.
type Severity string

const (
	SeveritySecurity      Severity = "security"
	SeverityCritical      Severity = "critical"
	SeverityMajor         Severity = "major"
	SeverityMinor         Severity = "minor"
	SeverityWarning       Severity = "warning"
	SeverityIndeterminate Severity = "indeterminate"
	SeverityInformational Severity = "informational"
	SeverityNormal        Severity = "normal"
	SeverityOk            Severity = "ok"
	SeverityCleared       Severity = "cleared"
	SeverityDebug         Severity = "debug"
	SeverityTrace         Severity = "trace"
	SeverityUnknown       Severity = "unknown"
)

// SeverityRank is the total order used by the trend comparator. Values
// mirror alerta's SEVERITY_MAP; Normal/Ok/Cleared share rank 3 so that
// a change between any two of them is never treated as a trend.
var SeverityRank = map[Severity]int{
	SeveritySecurity:      10,
	SeverityCritical:      9,
	SeverityMajor:         8,
	SeverityMinor:         7,
	SeverityWarning:       6,
	SeverityIndeterminate: 5,
	SeverityInformational: 4,
	SeverityNormal:        3,
	SeverityOk:            3,
	SeverityCleared:       3,
	SeverityDebug:         2,
	SeverityTrace:         1,
	SeverityUnknown:       0,
}

// SeverityEscalationOrder is the ramp used by EscalationRule: the
// severity one step more severe than the given one. The original source
// has no configurable ramp; tests always step straight to the next rank.
var SeverityEscalationOrder = []Severity{
	SeverityUnknown,
	SeverityTrace,
	SeverityDebug,
	SeverityNormal,
	SeverityInformational,
	SeverityIndeterminate,
	SeverityWarning,
	SeverityMinor,
	SeverityMajor,
	SeverityCritical,
	SeveritySecurity,
}

// NextMoreSevere returns the severity one rank above s, or s itself if
// already at the top of the order.
func NextMoreSevere(s Severity) Severity {
	for i, v := range SeverityEscalationOrder {
		if v == s && i+1 < len(SeverityEscalationOrder) {
			return SeverityEscalationOrder[i+1]
		}
	}
	return s
}

// Status is an ISA-18.2 state-machine status.
type Status string

const (
	StatusClosed  Status = "closed"  // A
	StatusOpen    Status = "open"    // B
	StatusAck     Status = "ack"     // C
	StatusUnack   Status = "unack"   // D
	StatusShelved Status = "shelved" // E
	StatusDsupr   Status = "dsupr"   // F - suppressed by design
	StatusOosrv   Status = "oosrv"   // G - out of service
	StatusBlackout Status = "blackout"
	StatusExpired Status = "expired"
	StatusUnknown Status = "unknown"
)

// Trend is the result of comparing two severities under SeverityRank.
type Trend string

const (
	TrendMoreSevere Trend = "moreSevere"
	TrendNoChange   Trend = "noChange"
	TrendLessSevere Trend = "lessSevere"
)

// Action is an operator-driven state machine action.
type Action string

const (
	ActionAck      Action = "ack"
	ActionUnack    Action = "unack"
	ActionShelve   Action = "shelve"
	ActionUnshelve Action = "unshelve"
	ActionOpen     Action = "open"
)

// DefaultNormalSeverity is the severity that the state machine treats as
// "alarm cleared". Overridable via config (DEFAULT_NORMAL_SEVERITY).
var DefaultNormalSeverity = SeverityNormal

// DefaultStatus is the status a brand-new alert starts in.
const DefaultStatus = StatusClosed

// defaultPreviousSeverity is the fallback used when an alert has never
// recorded a previous severity (DEFAULT_PREVIOUS_SEVERITY).
var defaultPreviousSeverity = SeverityNormal

// DefaultPreviousSeverity returns the configured fallback previous
// severity.
func DefaultPreviousSeverity() Severity { return defaultPreviousSeverity }

// SetDefaultPreviousSeverity overrides the fallback (config wiring).
func SetDefaultPreviousSeverity(s Severity) { defaultPreviousSeverity = s }

// HistoryLimit bounds the per-alert history ring. Overridable via config.
var HistoryLimit = 100

// ChangeType classifies a HistoryRecord.
type ChangeType string

const (
	ChangeNew      ChangeType = "new"
	ChangeAction   ChangeType = "action"
	ChangeStatus   ChangeType = "status"
	ChangeValue    ChangeType = "value"
	ChangeSeverity ChangeType = "severity"
	ChangeNote     ChangeType = "note"
	ChangeDismiss  ChangeType = "dismiss"
	ChangeTimeout  ChangeType = "timeout"
	ChangeExpired  ChangeType = "expired"
)

// HistoryRecord is one entry in an Alert's history ring, newest first.
type HistoryRecord struct {
	ID         uuid.UUID  `json:"id"`
	Event      string     `json:"event"`
	Severity   Severity   `json:"severity"`
	Status     Status     `json:"status"`
	Value      string     `json:"value"`
	Text       string     `json:"text"`
	ChangeType ChangeType `json:"change_type"`
	UpdateTime time.Time  `json:"update_time"`
	User       string     `json:"user"`
	Timeout    int        `json:"timeout"`
}

// Alert is the canonical alert resource. Identity-of-incident is the
// triple (Environment, Resource, Event-or-correlate, Customer).
type Alert struct {
	ID               uuid.UUID         `json:"id"`
	Environment      string            `json:"environment"`
	Resource         string            `json:"resource"`
	Event            string            `json:"event"`
	Severity         Severity          `json:"severity"`
	PreviousSeverity Severity          `json:"previous_severity"`
	Status           Status            `json:"status"`
	Correlate        []string          `json:"correlate"`
	Service          []string          `json:"service"`
	Group            string            `json:"group"`
	Value            string            `json:"value"`
	Text             string            `json:"text"`
	Tags             []string          `json:"tags"`
	Attributes       map[string]string `json:"attributes"`
	Origin           string            `json:"origin"`
	Type             string            `json:"type"`
	CreateTime       time.Time         `json:"create_time"`
	ReceiveTime      time.Time         `json:"receive_time"`
	LastReceiveTime  time.Time         `json:"last_receive_time"`
	LastReceiveID    uuid.UUID         `json:"last_receive_id"`
	UpdateTime       time.Time         `json:"update_time"`
	Timeout          int               `json:"timeout"` // seconds, 0 = never
	DuplicateCount   int               `json:"duplicate_count"`
	Repeat           bool              `json:"repeat"`
	TrendIndication  Trend             `json:"trend_indication"`
	RawData          string            `json:"raw_data"`
	Customer         string            `json:"customer"`
	History          []HistoryRecord   `json:"history"`
}

// TagSet returns a.Tags as a set for membership tests.
func (a *Alert) TagSet() map[string]struct{} {
	s := make(map[string]struct{}, len(a.Tags))
	for _, t := range a.Tags {
		s[t] = struct{}{}
	}
	return s
}

// HasService reports whether svc is present in a.Service.
func (a *Alert) HasService(svc string) bool {
	for _, s := range a.Service {
		if s == svc {
			return true
		}
	}
	return false
}

// MergeTags returns the set-union of existing and incoming, deduplicated,
// order-stable on existing then new arrivals from incoming.
func MergeTags(existing, incoming []string) []string {
	seen := make(map[string]struct{}, len(existing))
	out := make([]string, 0, len(existing)+len(incoming))
	for _, t := range existing {
		if _, ok := seen[t]; !ok {
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	for _, t := range incoming {
		if _, ok := seen[t]; !ok {
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

// MergeAttributes overlays incoming onto existing (incoming wins).
func MergeAttributes(existing, incoming map[string]string) map[string]string {
	out := make(map[string]string, len(existing)+len(incoming))
	for k, v := range existing {
		out[k] = v
	}
	for k, v := range incoming {
		out[k] = v
	}
	return out
}

// PrependHistory prepends rec to history and trims to HistoryLimit.
func PrependHistory(history []HistoryRecord, rec HistoryRecord) []HistoryRecord {
	out := make([]HistoryRecord, 0, len(history)+1)
	out = append(out, rec)
	out = append(out, history...)
	if len(out) > HistoryLimit {
		out = out[:HistoryLimit]
	}
	return out
}
