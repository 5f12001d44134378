package api

import (
	"github.com/gin-gonic/gin"
	"github.com/kanban-crm-api/internal/service"
	"github.com/rs/zerolog"
)

// ExportHandler handles export endpoints
type ExportHandler struct {
	services *service.Services
	errs     *errorResponder
	log      zerolog.Logger
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(services *service.Services, errs *errorResponder, log zerolog.Logger) *ExportHandler {
	return &ExportHandler{
		services: services,
		errs:     errs,
		log:      log.With().Str("handler", "export").Logger(),
	}
}

// StreamExport handles GET /v1/leads/export?format=...
// Streams the visible leads directly to the response
func (h *ExportHandler) StreamExport(c *gin.Context) {
	format := c.Query("format")
	if format == "" {
		format = "ndjson" // Default to NDJSON for streaming
	}
	actor := mustActor(c)

	h.log.Info().
		Int64("user_id", actor.ID).
		Str("format", format).
		Msg("Starting streaming export")

	err := h.services.Export.StreamLeads(c.Request.Context(), actor, c.Writer, format)
	if err == nil {
		return
	}
	if c.Writer.Written() {
		// Can't return error JSON after streaming has started
		h.log.Error().Err(err).Str("format", format).Msg("Export failed")
		return
	}
	h.errs.respond(c, err)
}
