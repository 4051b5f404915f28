package models

import (
	"time"

	"github.com/google/uuid"
)

// ChannelType enumerates the transports a NotificationChannel may use.
type ChannelType string

const (
	ChannelTwilioSMS       ChannelType = "twilio_sms"
	ChannelTwilioCall      ChannelType = "twilio_call"
	ChannelSendgrid        ChannelType = "sendgrid"
	ChannelSMTP            ChannelType = "smtp"
	ChannelLinkMobilityXML ChannelType = "link_mobility_xml"
	ChannelMyLink          ChannelType = "my_link"
)

// NotificationChannel is a configured outbound transport. Secrets
// (APIToken, APISid) are stored encrypted at rest and are never
// returned in serialization surfaces (see Serialize).
type NotificationChannel struct {
	ID                 uuid.UUID   `json:"id"`
	Type               ChannelType `json:"type"`
	Sender             string      `json:"sender"`
	Host               string      `json:"host"`
	APISid             string      `json:"-"`
	APIToken           string      `json:"-"`
	PlatformID         string      `json:"platform_id"`
	PlatformPartnerID  string      `json:"platform_partner_id"`
	Verify             bool        `json:"verify"`
	Customer           string      `json:"customer"`
	Bearer             string      `json:"-"`
	BearerExpiry       *time.Time  `json:"-"`
}

// Serialize returns the public view of a channel, omitting secrets.
func (c *NotificationChannel) Serialize() map[string]any {
	return map[string]any{
		"id":                  c.ID,
		"type":                c.Type,
		"sender":              c.Sender,
		"host":                c.Host,
		"platform_id":         c.PlatformID,
		"platform_partner_id": c.PlatformPartnerID,
		"verify":              c.Verify,
		"customer":            c.Customer,
	}
}

// DelayedNotification is a pending dispatch with a due timestamp and a
// unique (alert, rule) key. Drained by the Scheduler's delayed_fire
// sweep; purged en masse on alert status change.
type DelayedNotification struct {
	ID        uuid.UUID `json:"id"`
	AlertID   uuid.UUID `json:"alert_id"`
	RuleID    uuid.UUID `json:"rule_id"`
	FireAt    time.Time `json:"fire_at"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationHistory records the outcome of one dispatch attempt.
type NotificationHistory struct {
	ID            uuid.UUID  `json:"id"`
	Sent          bool       `json:"sent"`
	Message       string     `json:"message"`
	ChannelID     uuid.UUID  `json:"channel_id"`
	RuleID        uuid.UUID  `json:"rule_id"`
	AlertID       uuid.UUID  `json:"alert_id"`
	Sender        string     `json:"sender"`
	Receiver      string     `json:"receiver"`
	SentTime      time.Time  `json:"sent_time"`
	Error         string     `json:"error,omitempty"`
	Confirmed     bool       `json:"confirmed"`
	ConfirmedTime *time.Time `json:"confirmed_time,omitempty"`
}

// Heartbeat tracks liveness of a monitoring origin. Identified by
// (Origin, Customer); derived Status is computed on read, not stored.
type Heartbeat struct {
	ID          uuid.UUID `json:"id"`
	Origin      string    `json:"origin"`
	Customer    string    `json:"customer"`
	CreateTime  time.Time `json:"create_time"`
	ReceiveTime time.Time `json:"receive_time"`
	Timeout     int       `json:"timeout"` // seconds
}

// HeartbeatStatus classifies a heartbeat as of now.
type HeartbeatStatus string

const (
	HeartbeatOK      HeartbeatStatus = "ok"
	HeartbeatSlow    HeartbeatStatus = "slow"
	HeartbeatExpired HeartbeatStatus = "expired"
)

// DeriveStatus computes a Heartbeat's status at the given instant.
func (h *Heartbeat) DeriveStatus(now time.Time, maxLatency time.Duration) HeartbeatStatus {
	if h.Timeout > 0 && now.Sub(h.ReceiveTime) > time.Duration(h.Timeout)*time.Second {
		return HeartbeatExpired
	}
	latency := h.ReceiveTime.Sub(h.CreateTime)
	if latency > maxLatency {
		return HeartbeatSlow
	}
	return HeartbeatOK
}

// Note is a free-text operator annotation on an alert, distinct from
// the state-machine history ring.
type Note struct {
	ID        uuid.UUID `json:"id"`
	AlertID   uuid.UUID `json:"alert_id"`
	Text      string    `json:"text"`
	User      string    `json:"user"`
	CreateTime time.Time `json:"create_time"`
	UpdateTime time.Time `json:"update_time"`
}
