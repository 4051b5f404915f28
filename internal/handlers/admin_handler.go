package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"alert-center/internal/models"
	"alert-center/internal/repository"
	"alert-center/internal/services"
	"alert-center/pkg/response"
)

// BlackoutHandler exposes CRUD over maintenance windows (spec §6 /blackouts).
type BlackoutHandler struct {
	repo *repository.BlackoutRepository
}

func NewBlackoutHandler(repo *repository.BlackoutRepository) *BlackoutHandler {
	return &BlackoutHandler{repo: repo}
}

func (h *BlackoutHandler) Create(c *gin.Context) {
	var b models.Blackout
	if err := c.ShouldBindJSON(&b); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.repo.CreateBlackout(c.Request.Context(), &b); err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, b)
}

func (h *BlackoutHandler) List(c *gin.Context) {
	out, err := h.repo.ListBlackouts(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, gin.H{"data": out, "total": len(out)})
}

func (h *BlackoutHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.repo.DeleteBlackout(c.Request.Context(), id); err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, nil)
}

// NotificationRuleHandler exposes CRUD over notification rules (spec §6
// /notificationrules) plus the active/reactivate toggle.
type NotificationRuleHandler struct {
	repo *repository.RuleRepository
}

func NewNotificationRuleHandler(repo *repository.RuleRepository) *NotificationRuleHandler {
	return &NotificationRuleHandler{repo: repo}
}

func (h *NotificationRuleHandler) Create(c *gin.Context) {
	var n models.NotificationRule
	if err := c.ShouldBindJSON(&n); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.repo.CreateNotificationRule(c.Request.Context(), &n); err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, n)
}

func (h *NotificationRuleHandler) List(c *gin.Context) {
	out, err := h.repo.ListNotificationRules(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, gin.H{"data": out, "total": len(out)})
}

// SetActive handles POST /notificationrules/:id/active (spec §P7 reactivation).
func (h *NotificationRuleHandler) SetActive(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid id")
		return
	}
	var req struct {
		Active bool `json:"active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.repo.SetNotificationRuleActive(c.Request.Context(), id, req.Active); err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, nil)
}

func (h *NotificationRuleHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.repo.DeleteNotificationRule(c.Request.Context(), id); err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, nil)
}

// EscalationRuleHandler exposes CRUD over escalation rules (spec §6 /escalationrules).
type EscalationRuleHandler struct {
	repo *repository.RuleRepository
}

func NewEscalationRuleHandler(repo *repository.RuleRepository) *EscalationRuleHandler {
	return &EscalationRuleHandler{repo: repo}
}

func (h *EscalationRuleHandler) Create(c *gin.Context) {
	var e models.EscalationRule
	if err := c.ShouldBindJSON(&e); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.repo.CreateEscalationRule(c.Request.Context(), &e); err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, e)
}

func (h *EscalationRuleHandler) List(c *gin.Context) {
	out, err := h.repo.ListEscalationRules(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, gin.H{"data": out, "total": len(out)})
}

func (h *EscalationRuleHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.repo.DeleteEscalationRule(c.Request.Context(), id); err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, nil)
}

// NotificationGroupHandler exposes CRUD over named contact groups (spec §6
// /notificationgroups).
type NotificationGroupHandler struct {
	repo *repository.RuleRepository
}

func NewNotificationGroupHandler(repo *repository.RuleRepository) *NotificationGroupHandler {
	return &NotificationGroupHandler{repo: repo}
}

func (h *NotificationGroupHandler) Create(c *gin.Context) {
	var g models.NotificationGroup
	if err := c.ShouldBindJSON(&g); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.repo.CreateNotificationGroup(c.Request.Context(), &g); err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, g)
}

func (h *NotificationGroupHandler) List(c *gin.Context) {
	out, err := h.repo.ListNotificationGroups(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, gin.H{"data": out, "total": len(out)})
}

func (h *NotificationGroupHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.repo.DeleteNotificationGroup(c.Request.Context(), id); err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, nil)
}

// NotificationChannelHandler exposes CRUD over outbound transports (spec §6
// /notificationchannels). Secret fields are sealed with SecretBox before
// being persisted, and never echoed back (NotificationChannel.Serialize).
type NotificationChannelHandler struct {
	repo   *repository.DispatchRepository
	secret *services.SecretBox
}

func NewNotificationChannelHandler(repo *repository.DispatchRepository, secret *services.SecretBox) *NotificationChannelHandler {
	return &NotificationChannelHandler{repo: repo, secret: secret}
}

func (h *NotificationChannelHandler) Create(c *gin.Context) {
	var req struct {
		Type              models.ChannelType `json:"type" binding:"required"`
		Sender            string             `json:"sender"`
		Host              string             `json:"host"`
		APISid            string             `json:"api_sid"`
		APIToken          string             `json:"api_token"`
		PlatformID        string             `json:"platform_id"`
		PlatformPartnerID string             `json:"platform_partner_id"`
		Verify            bool               `json:"verify"`
		Customer          string             `json:"customer"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	ch := &models.NotificationChannel{
		Type: req.Type, Sender: req.Sender, Host: req.Host,
		PlatformID: req.PlatformID, PlatformPartnerID: req.PlatformPartnerID,
		Verify: req.Verify, Customer: req.Customer,
	}
	if h.secret != nil {
		if sealed, err := h.secret.Encrypt(req.APISid); err == nil {
			ch.APISid = sealed
		}
		if sealed, err := h.secret.Encrypt(req.APIToken); err == nil {
			ch.APIToken = sealed
		}
	} else {
		ch.APISid, ch.APIToken = req.APISid, req.APIToken
	}

	if err := h.repo.CreateChannel(c.Request.Context(), ch); err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, ch.Serialize())
}

func (h *NotificationChannelHandler) List(c *gin.Context) {
	channels, err := h.repo.ListChannels(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]map[string]any, 0, len(channels))
	for i := range channels {
		out = append(out, channels[i].Serialize())
	}
	response.Success(c, gin.H{"data": out, "total": len(out)})
}

func (h *NotificationChannelHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.repo.DeleteChannel(c.Request.Context(), id); err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, nil)
}

// SweepHandler exposes the manual trigger endpoints for the scheduler's
// escalation and delayed-notification sweeps (spec §6 /escalate,
// /notificationdelay/fire), mirroring the ticker-driven invocations in
// internal/services/scheduler.go so an operator need not wait a full
// interval.
type SweepHandler struct {
	scheduler *services.Scheduler
}

func NewSweepHandler(scheduler *services.Scheduler) *SweepHandler {
	return &SweepHandler{scheduler: scheduler}
}

func (h *SweepHandler) Escalate(c *gin.Context) {
	n, err := h.scheduler.RunEscalateScan(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, gin.H{"escalated": n})
}

func (h *SweepHandler) FireDelayed(c *gin.Context) {
	n, err := h.scheduler.RunDelayedFire(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, gin.H{"fired": n})
}

// OnCallHandler exposes CRUD over on-call schedules (spec §6 /oncalls, §S8).
type OnCallHandler struct {
	repo *repository.OnCallRepository
}

func NewOnCallHandler(repo *repository.OnCallRepository) *OnCallHandler {
	return &OnCallHandler{repo: repo}
}

func (h *OnCallHandler) Create(c *gin.Context) {
	var oc models.OnCall
	if err := c.ShouldBindJSON(&oc); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.repo.CreateOnCall(c.Request.Context(), &oc); err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, oc)
}

func (h *OnCallHandler) List(c *gin.Context) {
	out, err := h.repo.ListOnCalls(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, gin.H{"data": out, "total": len(out)})
}

func (h *OnCallHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.repo.DeleteOnCall(c.Request.Context(), id); err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, nil)
}

// HeartbeatHandler exposes heartbeat ingest and admin lookups (spec §6
// /heartbeats, §P10).
type HeartbeatHandler struct {
	repo *repository.HeartbeatRepository
}

func NewHeartbeatHandler(repo *repository.HeartbeatRepository) *HeartbeatHandler {
	return &HeartbeatHandler{repo: repo}
}

// Send handles POST /heartbeats — an origin checking in (spec §P10).
func (h *HeartbeatHandler) Send(c *gin.Context) {
	var req struct {
		Origin   string `json:"origin" binding:"required"`
		Customer string `json:"customer"`
		Timeout  int    `json:"timeout"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	now := time.Now()
	hb := &models.Heartbeat{
		Origin: req.Origin, Customer: req.Customer, Timeout: req.Timeout,
		CreateTime: now, ReceiveTime: now,
	}
	if err := h.repo.UpsertHeartbeat(c.Request.Context(), hb); err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, hb)
}

func (h *HeartbeatHandler) List(c *gin.Context) {
	out, err := h.repo.ListHeartbeats(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, gin.H{"data": out, "total": len(out)})
}

func (h *HeartbeatHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid id")
		return
	}
	hb, err := h.repo.GetHeartbeat(c.Request.Context(), id)
	if err != nil {
		response.Error(c, http.StatusNotFound, "heartbeat not found")
		return
	}
	response.Success(c, hb)
}

func (h *HeartbeatHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.repo.DeleteHeartbeat(c.Request.Context(), id); err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, nil)
}
