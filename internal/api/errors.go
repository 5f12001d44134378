package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kanban-crm-api/internal/apperr"
	"github.com/kanban-crm-api/internal/metrics"
	"github.com/kanban-crm-api/internal/validation"
	"github.com/rs/zerolog"
)

// errorResponder maps domain errors to HTTP responses
type errorResponder struct {
	metrics *metrics.Metrics
	log     zerolog.Logger
}

func newErrorResponder(m *metrics.Metrics, log zerolog.Logger) *errorResponder {
	return &errorResponder{metrics: m, log: log.With().Str("component", "errors").Logger()}
}

var kindStatus = map[error]int{
	apperr.ErrNotFound:             http.StatusNotFound,
	apperr.ErrForbidden:            http.StatusForbidden,
	apperr.ErrInvalidOperation:     http.StatusBadRequest,
	apperr.ErrInvalidArgument:      http.StatusBadRequest,
	apperr.ErrInvalidConfiguration: http.StatusUnprocessableEntity,
	apperr.ErrConflict:             http.StatusConflict,
	apperr.ErrInconsistentState:    http.StatusInternalServerError,
}

// kindLabel is the metrics label of an error kind
func kindLabel(kind error) string {
	if kind == nil {
		return "internal"
	}
	return strings.ReplaceAll(kind.Error(), " ", "_")
}

// respond writes the JSON error body for err
func (r *errorResponder) respond(c *gin.Context, err error) {
	kind := apperr.Kind(err)
	r.record(kind)

	status, ok := kindStatus[kind]
	if !ok {
		r.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if status >= http.StatusInternalServerError {
		r.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Inconsistent state")
	}

	body := gin.H{"error": err.Error(), "kind": kindLabel(kind)}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		body["error"] = "validation failed"
		body["details"] = verrs
	}
	c.JSON(status, body)
}

// badRequest reports malformed input that never reached the service layer
func (r *errorResponder) badRequest(c *gin.Context, msg string) {
	r.record(apperr.ErrInvalidArgument)
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "kind": kindLabel(apperr.ErrInvalidArgument)})
}

func (r *errorResponder) record(kind error) {
	if r.metrics != nil {
		r.metrics.RecordError(kindLabel(kind))
	}
}
