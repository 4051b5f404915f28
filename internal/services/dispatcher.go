package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"golang.org/x/oauth2/clientcredentials"

	"alert-center/internal/models"
)

var dispatchLog = log.New(log.Writer(), "[dispatcher] ", log.LstdFlags)

// Renderer resolves the effective message template for a rule/trigger
// pair and substitutes alert attributes into it, per spec §4.7.
type Renderer struct{}

const defaultMessageTemplate = "%(environment)s: %(severity)s alert for %(service)s - %(resource)s is %(event)s"

// Render returns the rendered message: the first non-empty of the
// trigger's text (with %(default)s expanded to the rule's text), the
// rule's text, or the system default template.
func (Renderer) Render(ruleText, triggerText string, alert *models.Alert) string {
	template := defaultMessageTemplate
	if ruleText != "" {
		template = ruleText
	}
	if triggerText != "" {
		template = strings.ReplaceAll(triggerText, "%(default)s", ruleText)
	}
	return substituteTokens(template, alert)
}

func substituteTokens(template string, alert *models.Alert) string {
	repl := strings.NewReplacer(
		"%(environment)s", alert.Environment,
		"%(severity)s", strings.ToUpper(string(alert.Severity[:1]))+string(alert.Severity[1:]),
		"%(service)s", strings.Join(alert.Service, ","),
		"%(resource)s", alert.Resource,
		"%(event)s", alert.Event,
		"%(value)s", alert.Value,
		"%(text)s", alert.Text,
		"%(status)s", string(alert.Status),
	)
	out := repl.Replace(template)
	for k, v := range alert.Attributes {
		out = strings.ReplaceAll(out, fmt.Sprintf("%%(attributes.%s)s", k), v)
	}
	for i, s := range alert.Service {
		out = strings.ReplaceAll(out, fmt.Sprintf("%%(service[%d])s", i), s)
	}
	return out
}

// Dispatcher fans out notifications over transport adapters, refreshes
// bearer tokens, records attempts, and drains delayed fires. Execution
// is invoked synchronously from the ingest path but spawns its own
// goroutine so network I/O never blocks the HTTP response (spec §5).
type Dispatcher struct {
	store      DispatchStore
	httpClient *http.Client
	clock      Clock
	render     Renderer
}

func NewDispatcher(store DispatchStore, clock Clock) *Dispatcher {
	return &Dispatcher{
		store:      store,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		clock:      clock,
	}
}

// Dispatch walks the selected rules for an alert transition: delayed
// rules are enqueued as DelayedNotification rows, immediate rules are
// sent right away. Runs in its own goroutine (the caller does not wait).
func (d *Dispatcher) Dispatch(ctx context.Context, alert *models.Alert, rules []models.NotificationRule, engine *RuleEngine) {
	// Carry a detached context: the background task must not be
	// cancelled when the HTTP request that triggered it completes.
	bg := context.WithoutCancel(ctx)
	go func() {
		for _, rule := range rules {
			if rule.DelayTime != nil && *rule.DelayTime > 0 {
				d.enqueueDelayed(bg, alert.ID, rule.ID, *rule.DelayTime)
				continue
			}
			d.handleRule(bg, alert, &rule, engine)
		}
	}()
}

func (d *Dispatcher) enqueueDelayed(ctx context.Context, alertID, ruleID uuid.UUID, delay time.Duration) {
	dn := &models.DelayedNotification{
		ID:        uuid.New(),
		AlertID:   alertID,
		RuleID:    ruleID,
		FireAt:    d.clock.Now().Add(delay),
		CreatedAt: d.clock.Now(),
	}
	if err := d.store.EnqueueDelayed(ctx, dn); err != nil {
		dispatchLog.Printf("enqueue delayed notification failed: %v", err)
	}
}

// OnStatusChange deletes all pending delayed entries for an alert
// (spec P10: status change invalidates pending delayed notifications).
func (d *Dispatcher) OnStatusChange(ctx context.Context, alertID uuid.UUID) error {
	return d.store.DeleteDelayedByAlert(ctx, alertID)
}

// FireDue drains delayed entries whose FireAt has elapsed, dispatching
// each via the same handleRule path as an immediate send, deleting the
// row once handled whatever the send outcome (and without sending when
// its alert or rule can no longer be found).
func (d *Dispatcher) FireDue(ctx context.Context, lookupRule func(context.Context, uuid.UUID) (*models.NotificationRule, error), lookupAlert func(context.Context, uuid.UUID) (*models.Alert, error), engine *RuleEngine) (int, error) {
	due, err := d.store.ListDueDelayed(ctx, d.clock.Now())
	if err != nil {
		return 0, err
	}
	n := 0
	for _, entry := range due {
		alert, err := lookupAlert(ctx, entry.AlertID)
		if err != nil || alert == nil {
			d.store.DeleteDelayed(ctx, entry.ID)
			continue
		}
		rule, err := lookupRule(ctx, entry.RuleID)
		if err != nil || rule == nil {
			d.store.DeleteDelayed(ctx, entry.ID)
			continue
		}
		d.handleRule(ctx, alert, rule, engine)
		if err := d.store.DeleteDelayed(ctx, entry.ID); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (d *Dispatcher) handleRule(ctx context.Context, alert *models.Alert, rule *models.NotificationRule, engine *RuleEngine) {
	channel, err := d.store.GetChannel(ctx, rule.ChannelID)
	if err != nil || channel == nil {
		d.recordHistory(ctx, rule, alert, "", "", false, "channel not found")
		return
	}

	targets, err := engine.SelectNotificationTargets(ctx, rule, alert)
	if err != nil {
		d.recordHistory(ctx, rule, alert, channel.Sender, "", false, err.Error())
		return
	}

	triggerText := ""
	for _, tr := range rule.Triggers {
		if triggerMatchesSeverity(tr, alert.PreviousSeverity, alert.Severity) {
			triggerText = tr.Text
			break
		}
	}
	message := d.render.Render(rule.Text, triggerText, alert)

	for _, target := range targets {
		// Failure isolation: one recipient's failure never blocks the next.
		func() {
			defer func() {
				if r := recover(); r != nil {
					d.recordHistory(ctx, rule, alert, channel.Sender, target.Key(), false, fmt.Sprintf("panic: %v", r))
				}
			}()
			ok, sendErr := d.send(ctx, channel, target, message, alert)
			errStr := ""
			if sendErr != nil {
				errStr = sendErr.Error()
			}
			d.recordHistory(ctx, rule, alert, channel.Sender, target.Key(), ok, errStr)
		}()
	}
}

func (d *Dispatcher) recordHistory(ctx context.Context, rule *models.NotificationRule, alert *models.Alert, sender, receiver string, sent bool, errStr string) {
	h := &models.NotificationHistory{
		ID:        uuid.New(),
		Sent:      sent,
		ChannelID: rule.ChannelID,
		RuleID:    rule.ID,
		AlertID:   alert.ID,
		Sender:    sender,
		Receiver:  receiver,
		SentTime:  d.clock.Now(),
		Error:     errStr,
	}
	if err := d.store.RecordNotificationHistory(ctx, h); err != nil {
		dispatchLog.Printf("record notification history failed: %v", err)
	}
}

func (d *Dispatcher) send(ctx context.Context, channel *models.NotificationChannel, target models.NotificationInfo, message string, alert *models.Alert) (bool, error) {
	switch channel.Type {
	case models.ChannelTwilioSMS:
		return d.sendTwilioSMS(ctx, channel, target.PhoneNumber, message)
	case models.ChannelTwilioCall:
		if ok, err := d.sendTwilioSMS(ctx, channel, target.PhoneNumber, message); !ok {
			return ok, err
		}
		return d.sendTwilioCall(ctx, channel, target.PhoneNumber, message)
	case models.ChannelSendgrid:
		return d.sendSendgrid(ctx, channel, target.Email, message, alert)
	case models.ChannelSMTP:
		return d.sendSMTP(ctx, channel, target.Email, message, alert)
	case models.ChannelLinkMobilityXML:
		return d.sendLinkMobilityXML(ctx, channel, target.PhoneNumber, message)
	case models.ChannelMyLink:
		return d.sendMyLink(ctx, channel, target.PhoneNumber, message)
	default:
		return false, fmt.Errorf("unknown channel type %q", channel.Type)
	}
}

// truncateSMS caps a message to 1600 chars, breaking on whitespace and
// appending " ..." per spec §4.7.
func truncateSMS(message string) string {
	const limit = 1600
	if len(message) <= limit {
		return message
	}
	cut := message[:limit-4]
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return cut + " ..."
}

func (d *Dispatcher) sendTwilioSMS(ctx context.Context, channel *models.NotificationChannel, to, message string) (bool, error) {
	form := urlValues(map[string]string{
		"To":   to,
		"From": channel.Sender,
		"Body": truncateSMS(message),
	})
	url := fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json", channel.APISid)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(form))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(channel.APISid, channel.APIToken)
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusCreated {
		return true, nil
	}
	return false, fmt.Errorf("twilio sms: %s", string(body))
}

// speechSafe maps characters that read poorly in TwiML <Say> to
// speech-friendly substitutes.
func speechSafe(s string) string {
	repl := strings.NewReplacer(
		"&", " and ",
		"<", " less than ",
		">", " greater than ",
		"%", " percent ",
		"_", " ",
		"#", " number ",
	)
	return repl.Replace(s)
}

func (d *Dispatcher) sendTwilioCall(ctx context.Context, channel *models.NotificationChannel, to, message string) (bool, error) {
	twiml := fmt.Sprintf("<Response><Say>%s</Say></Response>", speechSafe(message))
	form := urlValues(map[string]string{
		"To":    to,
		"From":  channel.Sender,
		"Twiml": twiml,
	})
	url := fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Calls.json", channel.APISid)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(form))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(channel.APISid, channel.APIToken)
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusCreated {
		return true, nil
	}
	return false, fmt.Errorf("twilio call: %s", string(body))
}

func (d *Dispatcher) sendSendgrid(ctx context.Context, channel *models.NotificationChannel, to, message string, alert *models.Alert) (bool, error) {
	from := sgmail.NewEmail(channel.Sender, channel.Sender)
	toAddr := sgmail.NewEmail(to, to)
	subject := fmt.Sprintf("%s: %s alert for %s", alert.Environment, alert.Severity, alert.Resource)
	m := sgmail.NewSingleEmail(from, subject, toAddr, message, "")
	client := sendgrid.NewSendClient(channel.APIToken)
	resp, err := client.SendWithContext(ctx, m)
	if err != nil {
		return false, err
	}
	if resp.StatusCode == http.StatusAccepted {
		return true, nil
	}
	return false, fmt.Errorf("sendgrid: %d %s", resp.StatusCode, resp.Body)
}

func (d *Dispatcher) sendSMTP(ctx context.Context, channel *models.NotificationChannel, to, message string, alert *models.Alert) (bool, error) {
	// SMTP is synchronous; sendSMTPMessage bounds the dial and the whole
	// exchange with a 10-second deadline, the same as the HTTP client's.
	subject := fmt.Sprintf("%s: %s alert for %s", alert.Environment, alert.Severity, alert.Resource)
	return sendSMTPMessage(channel.Host, channel.Sender, channel.APISid, channel.APIToken, to, subject, message, channel.Verify)
}

func (d *Dispatcher) sendLinkMobilityXML(ctx context.Context, channel *models.NotificationChannel, to, message string) (bool, error) {
	envelope := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<SMS>
  <AUTHENTICATION>
    <USERNAME>%s</USERNAME>
    <PASSWORD>%s</PASSWORD>
  </AUTHENTICATION>
  <SENDER>%s</SENDER>
  <RECIPIENT>%s</RECIPIENT>
  <TEXT>%s</TEXT>
</SMS>`, channel.APISid, channel.APIToken, channel.Sender, to, message)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, channel.Host, strings.NewReader(envelope))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/xml")
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if strings.Contains(string(body), "FAIL") {
		return false, fmt.Errorf("link mobility: %s", string(body))
	}
	return true, nil
}

func (d *Dispatcher) sendMyLink(ctx context.Context, channel *models.NotificationChannel, to, message string) (bool, error) {
	if err := d.refreshBearerIfNeeded(ctx, channel); err != nil {
		return false, err
	}
	payload, _ := json.Marshal(map[string]string{
		"to":      to,
		"from":    channel.Sender,
		"message": message,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, channel.Host, bytes.NewReader(payload))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+channel.Bearer)
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return true, nil
	}
	body, _ := io.ReadAll(resp.Body)
	return false, fmt.Errorf("my_link: %d %s", resp.StatusCode, string(body))
}

// refreshBearerIfNeeded refreshes the OAuth client-credentials bearer
// token if it is missing or expires within 10 minutes, and atomically
// persists bearer/bearer_expiry on the channel row (spec §4.7).
func (d *Dispatcher) refreshBearerIfNeeded(ctx context.Context, channel *models.NotificationChannel) error {
	now := d.clock.Now()
	if channel.Bearer != "" && channel.BearerExpiry != nil && channel.BearerExpiry.After(now.Add(10*time.Minute)) {
		return nil
	}
	cfg := clientcredentials.Config{
		ClientID:     channel.APISid,
		ClientSecret: channel.APIToken,
		TokenURL:     channel.Host + "/oauth/token",
	}
	token, err := cfg.Token(ctx)
	if err != nil {
		return fmt.Errorf("refresh bearer: %w", err)
	}
	channel.Bearer = token.AccessToken
	expiry := token.Expiry
	if expiry.IsZero() {
		expiry = now.Add(time.Hour)
	}
	channel.BearerExpiry = &expiry
	return d.store.UpdateChannelBearer(ctx, channel.ID, channel.Bearer, expiry)
}

func urlValues(m map[string]string) string {
	v := url.Values{}
	for k, val := range m {
		v.Set(k, val)
	}
	return v.Encode()
}
