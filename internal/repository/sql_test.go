package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/kanban-crm-api/internal/apperr"
	"github.com/kanban-crm-api/internal/models"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v int64) *int64 { return &v }

func TestQuery_ScopeWhere(t *testing.T) {
	tests := []struct {
		name     string
		scope    models.PlacementScope
		wantJoin string
		wantSQL  string
		wantArgs []interface{}
	}{
		{
			name:     "admin novos",
			scope:    models.PlacementScope{FlowDirection: models.FlowBuyer, IncludeUnplaced: true, VendorNull: true},
			wantJoin: " LEFT JOIN lead_kanban_status s ON s.lead_id = l.id AND s.flow_direction = $1",
			wantSQL:  " WHERE (s.id IS NULL OR (s.id IS NOT NULL AND s.vendor_id IS NULL))",
			wantArgs: []interface{}{"BUYER"},
		},
		{
			name:     "status board",
			scope:    models.PlacementScope{FlowDirection: models.FlowSeller, CollaboratorID: ptr(9), StatusID: ptr(3)},
			wantJoin: " LEFT JOIN lead_kanban_status s ON s.lead_id = l.id AND s.flow_direction = $1",
			wantSQL:  " WHERE s.id IS NOT NULL AND s.collaborator_id = $2 AND s.status_id = $3",
			wantArgs: []interface{}{"SELLER", int64(9), int64(3)},
		},
		{
			name:     "agent novos",
			scope:    models.PlacementScope{FlowDirection: models.FlowBuyer, VendorID: ptr(5), CollaboratorNull: true},
			wantJoin: " LEFT JOIN lead_kanban_status s ON s.lead_id = l.id AND s.flow_direction = $1",
			wantSQL:  " WHERE s.id IS NOT NULL AND s.vendor_id = $2 AND s.collaborator_id IS NULL",
			wantArgs: []interface{}{"BUYER", int64(5)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &query{}
			join := q.scopeJoin(&tt.scope)
			q.scopeWhere(&tt.scope)

			assert.Equal(t, tt.wantJoin, join)
			assert.Equal(t, tt.wantSQL, q.whereClause())
			assert.Equal(t, tt.wantArgs, q.args)
		})
	}
}

func TestQuery_VisibilityWhere(t *testing.T) {
	t.Run("admin sees everything", func(t *testing.T) {
		q := &query{}
		q.visibilityWhere(&models.LeadVisibility{All: true}, "")
		assert.Empty(t, q.whereClause())
	})

	t.Run("agent with collaborators", func(t *testing.T) {
		q := &query{}
		q.visibilityWhere(&models.LeadVisibility{VendorID: ptr(5), CollaboratorIDs: []int64{9, 10}}, models.FlowBuyer)
		assert.Equal(t,
			" WHERE EXISTS (SELECT 1 FROM lead_kanban_status p WHERE p.lead_id = l.id AND (p.vendor_id = $1 OR p.collaborator_id = ANY($2)) AND p.flow_direction = $3)",
			q.whereClause())
		require.Len(t, q.args, 3)
		assert.Equal(t, pq.Array([]int64{9, 10}), q.args[1])
	})

	t.Run("nothing visible", func(t *testing.T) {
		q := &query{}
		q.visibilityWhere(&models.LeadVisibility{}, "")
		assert.Equal(t, " WHERE FALSE", q.whereClause())
	})
}

func TestLeadFrom_FlowDirection(t *testing.T) {
	t.Run("applies to unrestricted visibility", func(t *testing.T) {
		q := &query{}
		from := leadFrom(q, models.LeadFilter{Visibility: &models.LeadVisibility{All: true}, FlowDirection: models.FlowSeller})

		assert.Equal(t,
			" FROM leads l WHERE EXISTS (SELECT 1 FROM lead_kanban_status f WHERE f.lead_id = l.id AND f.flow_direction = $1)",
			from)
		assert.Equal(t, []interface{}{"SELLER"}, q.args)
	})

	t.Run("combines with a restricted visibility", func(t *testing.T) {
		q := &query{}
		from := leadFrom(q, models.LeadFilter{Visibility: &models.LeadVisibility{VendorID: ptr(5)}, FlowDirection: models.FlowBuyer})

		assert.Contains(t, from, "f.flow_direction = $1")
		assert.Contains(t, from, "p.vendor_id = $2")
		assert.Contains(t, from, "p.flow_direction = $3")
	})

	t.Run("omitted without a direction", func(t *testing.T) {
		q := &query{}
		from := leadFrom(q, models.LeadFilter{Visibility: &models.LeadVisibility{All: true}})

		assert.Equal(t, " FROM leads l", from)
		assert.Empty(t, q.args)
	})
}

func TestLeadFrom_Search(t *testing.T) {
	q := &query{}
	from := leadFrom(q, models.LeadFilter{Search: "50%_off"})

	assert.Contains(t, from, "l.name ILIKE $1 OR l.email ILIKE $1")
	assert.Equal(t, []interface{}{`%50\%\_off%`}, q.args)
}

func TestMapError(t *testing.T) {
	err := mapError(&pq.Error{Code: pqUniqueViolation, Detail: "Key (lead_id, flow_direction)=(1, BUYER) already exists."})
	assert.True(t, errors.Is(err, apperr.ErrConflict))

	err = mapError(fmt.Errorf("insert: %w", &pq.Error{Code: pqForeignKeyViolation}))
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	plain := errors.New("boom")
	assert.Equal(t, plain, mapError(plain))
	assert.Nil(t, mapError(nil))
}
