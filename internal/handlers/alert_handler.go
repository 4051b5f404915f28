package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"alert-center/internal/models"
	"alert-center/internal/repository"
	"alert-center/internal/services"
	apierrors "alert-center/pkg/errors"
	"alert-center/pkg/response"
)

// AlertHandler exposes the ISA-18.2 incident lifecycle: ingest,
// lookups, lists and operator actions (spec §6).
type AlertHandler struct {
	engine *services.AlertEngine
	store  *repository.AlertRepository
	rules  *services.RuleEngine
	dispatcher *services.Dispatcher
}

func NewAlertHandler(engine *services.AlertEngine, store *repository.AlertRepository, rules *services.RuleEngine, dispatcher *services.Dispatcher) *AlertHandler {
	return &AlertHandler{engine: engine, store: store, rules: rules, dispatcher: dispatcher}
}

// ingestRequest is the wire shape accepted by POST /alert.
type ingestRequest struct {
	Environment string            `json:"environment" binding:"required"`
	Resource    string            `json:"resource" binding:"required"`
	Event       string            `json:"event" binding:"required"`
	Severity    string            `json:"severity"`
	Correlate   []string          `json:"correlate"`
	Service     []string          `json:"service"`
	Group       string            `json:"group"`
	Value       string            `json:"value"`
	Text        string            `json:"text"`
	Tags        []string          `json:"tags"`
	Attributes  map[string]string `json:"attributes"`
	Origin      string            `json:"origin"`
	Type        string            `json:"type"`
	Timeout     int               `json:"timeout"`
	Customer    string            `json:"customer"`
	RawData     string            `json:"raw_data"`
}

// Create handles POST /alert — ingest, dedup/correlate/create, and a
// background dispatch of matching notification rules (spec §5).
func (h *AlertHandler) Create(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	severity := models.Severity(req.Severity)
	if severity == "" {
		severity = models.DefaultNormalSeverity
	}

	incoming := &models.Alert{
		Environment: req.Environment,
		Resource:    req.Resource,
		Event:       req.Event,
		Severity:    severity,
		Correlate:   req.Correlate,
		Service:     req.Service,
		Group:       req.Group,
		Value:       req.Value,
		Text:        req.Text,
		Tags:        req.Tags,
		Attributes:  req.Attributes,
		Origin:      req.Origin,
		Type:        req.Type,
		Timeout:     req.Timeout,
		Customer:    req.Customer,
		RawData:     req.RawData,
	}

	result, err := h.engine.Process(c.Request.Context(), incoming)
	if err != nil {
		writeEngineError(c, err)
		return
	}

	if h.rules != nil && h.dispatcher != nil {
		rules, rerr := h.rules.SelectNotificationRules(c.Request.Context(), result.Alert)
		if rerr == nil && len(rules) > 0 {
			h.dispatcher.Dispatch(c.Request.Context(), result.Alert, rules, h.rules)
		}
	}

	response.Success(c, gin.H{
		"alert":   result.Alert,
		"outcome": result.Outcome,
	})
}

func (h *AlertHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid id")
		return
	}
	alert, err := h.store.GetAlert(c.Request.Context(), id)
	if err != nil {
		response.Error(c, http.StatusNotFound, "alert not found")
		return
	}
	response.Success(c, alert)
}

func (h *AlertHandler) List(c *gin.Context) {
	alerts, err := h.store.ListOpenAlerts(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, gin.H{
		"data":  alerts,
		"total": len(alerts),
	})
}

func (h *AlertHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.store.DeleteAlert(c.Request.Context(), id); err != nil {
		response.Error(c, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(c, nil)
}

// actionRequest is the body for POST /alerts/:id/action.
type actionRequest struct {
	Action string `json:"action" binding:"required"`
	Text   string `json:"text"`
}

// Action handles ack/unack/shelve/unshelve/open transitions (spec §4.1).
func (h *AlertHandler) Action(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid id")
		return
	}

	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	alert, err := h.store.GetAlert(c.Request.Context(), id)
	if err != nil {
		response.Error(c, http.StatusNotFound, "alert not found")
		return
	}

	action := models.Action(req.Action)
	if err := h.engine.ActionTransition(c.Request.Context(), alert, action, req.Text); err != nil {
		writeEngineError(c, err)
		return
	}

	if h.dispatcher != nil {
		if err := h.dispatcher.OnStatusChange(c.Request.Context(), alert.ID); err != nil {
			response.Error(c, http.StatusInternalServerError, err.Error())
			return
		}
	}

	// Spec §4.4: an operator status action MAY also fire notification
	// rules whose trigger is constrained to this status (the resolved
	// Open Question in rule_engine.go's SelectNotificationRulesForStatus).
	if h.rules != nil && h.dispatcher != nil {
		if rules, rerr := h.rules.SelectNotificationRulesForStatus(c.Request.Context(), alert, alert.Status); rerr == nil && len(rules) > 0 {
			h.dispatcher.Dispatch(c.Request.Context(), alert, rules, h.rules)
		}
	}

	response.Success(c, alert)
}

func writeEngineError(c *gin.Context, err error) {
	ce := apierrors.FromError(err)
	response.Error(c, ce.Code, ce.Message)
}
