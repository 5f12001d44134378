package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorders(t *testing.T) {
	m := New()

	m.RecordMove("AGENT", "NEW", "COLLABORATOR")
	m.RecordMove("AGENT", "NEW", "COLLABORATOR")
	m.RecordProvisioned("status", 3)
	m.RecordLeadCreated("ADMIN")
	m.RecordError("forbidden")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.LeadMoves.WithLabelValues("AGENT", "NEW", "COLLABORATOR")))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.BoardsProvisioned.WithLabelValues("status")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.LeadsCreated.WithLabelValues("ADMIN")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.DomainErrors.WithLabelValues("forbidden")))
}

func TestHandler_ExposesCollectors(t *testing.T) {
	m := New()
	m.RecordMove("ADMIN", "NEW", "AGENT")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `kanban_lead_moves_total{from="NEW",to="AGENT",view="ADMIN"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestNew_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.RecordError("conflict")
	assert.Equal(t, float64(0), testutil.ToFloat64(b.DomainErrors.WithLabelValues("conflict")))
}
