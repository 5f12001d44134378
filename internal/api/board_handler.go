package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kanban-crm-api/internal/models"
	"github.com/kanban-crm-api/internal/service"
	"github.com/rs/zerolog"
)

// BoardHandler handles board and move endpoints
type BoardHandler struct {
	services *service.Services
	errs     *errorResponder
	log      zerolog.Logger
}

// NewBoardHandler creates a new BoardHandler
func NewBoardHandler(services *service.Services, errs *errorResponder, log zerolog.Logger) *BoardHandler {
	return &BoardHandler{
		services: services,
		errs:     errs,
		log:      log.With().Str("handler", "board").Logger(),
	}
}

// List handles GET /v1/boards?type=...&flow_direction=...
func (h *BoardHandler) List(c *gin.Context) {
	filter := models.BoardFilter{
		Type:          models.BoardType(c.Query("type")),
		FlowDirection: models.FlowDirection(c.Query("flow_direction")),
	}
	if raw := c.Query("owner_user_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.errs.badRequest(c, "owner_user_id must be an integer")
			return
		}
		filter.OwnerUserID = &id
	}

	boards, err := h.services.Boards.ListBoards(c.Request.Context(), mustActor(c), filter)
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"boards": boards, "count": len(boards)})
}

// Get handles GET /v1/boards/:id
func (h *BoardHandler) Get(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}
	board, err := h.services.Boards.GetBoard(c.Request.Context(), mustActor(c), id)
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	c.JSON(http.StatusOK, board)
}

// Leads handles GET /v1/boards/:id/leads?limit=...&offset=...
func (h *BoardHandler) Leads(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}
	limit, offset, ok := pageParams(c, h.errs)
	if !ok {
		return
	}
	leads, err := h.services.Boards.BoardLeads(c.Request.Context(), mustActor(c), id, limit, offset)
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leads": leads, "count": len(leads)})
}

// EnsureNovos handles POST /v1/boards/ensure-novos
func (h *BoardHandler) EnsureNovos(c *gin.Context) {
	var req models.EnsureBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errs.badRequest(c, "invalid request body")
		return
	}
	board, err := h.services.Boards.EnsureNovosBoard(c.Request.Context(), mustActor(c), req)
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	c.JSON(http.StatusOK, board)
}

// Create handles POST /v1/boards
func (h *BoardHandler) Create(c *gin.Context) {
	var req models.CreateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errs.badRequest(c, "invalid request body")
		return
	}
	board, err := h.services.Boards.CreateBoard(c.Request.Context(), mustActor(c), req)
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	h.log.Info().Int64("board_id", board.ID).Str("type", string(board.Type)).Msg("Board created")
	c.JSON(http.StatusCreated, board)
}

// Update handles PATCH /v1/boards/:id
func (h *BoardHandler) Update(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}
	var req models.UpdateBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errs.badRequest(c, "invalid request body")
		return
	}
	board, err := h.services.Boards.UpdateBoard(c.Request.Context(), mustActor(c), id, req)
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	c.JSON(http.StatusOK, board)
}

// UpdateOrder handles PUT /v1/boards/order
func (h *BoardHandler) UpdateOrder(c *gin.Context) {
	var req struct {
		Boards []models.BoardOrder `json:"boards"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errs.badRequest(c, "invalid request body")
		return
	}
	if err := h.services.Boards.UpdateBoardOrder(c.Request.Context(), mustActor(c), req.Boards); err != nil {
		h.errs.respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Remove handles DELETE /v1/boards/:id
func (h *BoardHandler) Remove(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}
	if err := h.services.Boards.RemoveBoard(c.Request.Context(), mustActor(c), id); err != nil {
		h.errs.respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateLead handles POST /v1/boards/:id/leads
func (h *BoardHandler) CreateLead(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}
	var req models.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errs.badRequest(c, "invalid request body")
		return
	}
	lead, err := h.services.Boards.CreateLeadInBoard(c.Request.Context(), mustActor(c), id, req)
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, lead)
}

// MoveLead handles POST /v1/leads/move
func (h *BoardHandler) MoveLead(c *gin.Context) {
	var req models.MoveLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errs.badRequest(c, "invalid request body")
		return
	}
	if req.LeadID <= 0 || req.FromBoardID <= 0 || req.ToBoardID <= 0 {
		h.errs.badRequest(c, "lead_id, from_board_id and to_board_id are required")
		return
	}
	lead, err := h.services.Boards.MoveLead(c.Request.Context(), mustActor(c), req)
	if err != nil {
		h.errs.respond(c, err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

func (h *BoardHandler) idParam(c *gin.Context) (int64, bool) {
	return idParam(c, h.errs)
}

// idParam parses the :id path segment
func idParam(c *gin.Context, errs *errorResponder) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		errs.badRequest(c, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

// pageParams parses limit and offset. Missing values are zero and the
// service applies its defaults.
func pageParams(c *gin.Context, errs *errorResponder) (int, int, bool) {
	var limit, offset int
	var err error
	if raw := c.Query("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			errs.badRequest(c, "limit must be an integer")
			return 0, 0, false
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if offset, err = strconv.Atoi(raw); err != nil {
			errs.badRequest(c, "offset must be an integer")
			return 0, 0, false
		}
	}
	return limit, offset, true
}
