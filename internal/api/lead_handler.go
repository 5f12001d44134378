package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kanban-crm-api/internal/models"
	"github.com/kanban-crm-api/internal/service"
	"github.com/rs/zerolog"
)

// LeadHandler handles lead endpoints
type LeadHandler struct {
	services *service.Services
	errs     *errorResponder
	log      zerolog.Logger
}

// NewLeadHandler creates a new LeadHandler
func NewLeadHandler(services *service.Services, errs *errorResponder, log zerolog.Logger) *LeadHandler {
	return &LeadHandler{
		services: services,
		errs:     errs,
		log:      log.With().Str("handler", "lead").Logger(),
	}
}

// List handles GET /v1/leads?search=...&flow_direction=...&limit=...&offset=...
func (h *LeadHandler) List(c *gin.Context) {
	limit, offset, ok := pageParams(c, h.errs)
	if !ok {
		return
	}
	filter := models.LeadFilter{
		Search:        c.Query("search"),
		FlowDirection: models.FlowDirection(c.Query("flow_direction")),
		Limit:         limit,
		Offset:        offset,
	}

	leads, err := h.services.Leads.FindAll(c.Request.Context(), mustActor(c), filter)
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leads": leads, "count": len(leads)})
}

// Get handles GET /v1/leads/:id
func (h *LeadHandler) Get(c *gin.Context) {
	id, ok := idParam(c, h.errs)
	if !ok {
		return
	}
	lead, err := h.services.Leads.FindOne(c.Request.Context(), mustActor(c), id)
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

// Update handles PATCH /v1/leads/:id
func (h *LeadHandler) Update(c *gin.Context) {
	id, ok := idParam(c, h.errs)
	if !ok {
		return
	}
	var req models.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errs.badRequest(c, "invalid request body")
		return
	}
	lead, err := h.services.Leads.Update(c.Request.Context(), mustActor(c), id, req)
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

// Remove handles DELETE /v1/leads/:id
func (h *LeadHandler) Remove(c *gin.Context) {
	id, ok := idParam(c, h.errs)
	if !ok {
		return
	}
	if err := h.services.Leads.Remove(c.Request.Context(), mustActor(c), id); err != nil {
		h.errs.respond(c, err)
		return
	}
	h.log.Info().Int64("lead_id", id).Int64("user_id", mustActor(c).ID).Msg("Lead removed")
	c.Status(http.StatusNoContent)
}

// Occurrences handles GET /v1/leads/:id/occurrences
func (h *LeadHandler) Occurrences(c *gin.Context) {
	id, ok := idParam(c, h.errs)
	if !ok {
		return
	}
	trail, err := h.services.Leads.Occurrences(c.Request.Context(), mustActor(c), id)
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"occurrences": trail, "count": len(trail)})
}
