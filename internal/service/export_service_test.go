package service_test

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kanban-crm-api/internal/apperr"
	"github.com/kanban-crm-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportService_NDJSON(t *testing.T) {
	h := newHarness(t)
	seedLeads(h)

	rec := httptest.NewRecorder()
	require.NoError(t, h.svc.Export.StreamLeads(h.ctx, h.agent, rec, "ndjson"))

	assert.Equal(t, "application/x-ndjson", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "leads.ndjson")

	var got []string
	scanner := bufio.NewScanner(rec.Body)
	for scanner.Scan() {
		var lead models.Lead
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &lead))
		got = append(got, lead.Name)
	}
	assert.Equal(t, []string{"Joao", "Maria"}, got)
}

func TestExportService_JSON(t *testing.T) {
	h := newHarness(t)
	seedLeads(h)

	rec := httptest.NewRecorder()
	require.NoError(t, h.svc.Export.StreamLeads(h.ctx, h.admin, rec, "json"))

	var leads []models.Lead
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &leads))
	assert.Len(t, leads, 4)
}

func TestExportService_JSONEmpty(t *testing.T) {
	h := newHarness(t)

	rec := httptest.NewRecorder()
	require.NoError(t, h.svc.Export.StreamLeads(h.ctx, h.collab, rec, "json"))
	assert.Equal(t, "[]", rec.Body.String())
}

func TestExportService_CSV(t *testing.T) {
	h := newHarness(t)
	seedLeads(h)

	rec := httptest.NewRecorder()
	require.NoError(t, h.svc.Export.StreamLeads(h.ctx, h.collab, rec, "csv"))
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))

	records, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "id", records[0][0])
	assert.Equal(t, "Joao", records[1][1])
	assert.Equal(t, "Joao@example.com", records[1][2])
}

func TestExportService_UnsupportedFormat(t *testing.T) {
	h := newHarness(t)

	rec := httptest.NewRecorder()
	err := h.svc.Export.StreamLeads(h.ctx, h.admin, rec, "xlsx")
	requireKind(t, err, apperr.ErrInvalidArgument)
	assert.Zero(t, rec.Body.Len())
}
