package models_test

import (
	"testing"

	"github.com/kanban-crm-api/internal/models"
	"github.com/stretchr/testify/assert"
)

func ptr(v int64) *int64 { return &v }

func TestPlacementScope_Matches(t *testing.T) {
	placed := &models.Placement{
		LeadID:         1,
		FlowDirection:  models.FlowBuyer,
		VendorID:       ptr(5),
		CollaboratorID: ptr(9),
	}

	tests := []struct {
		name  string
		scope models.PlacementScope
		p     *models.Placement
		want  bool
	}{
		{"unplaced lead in admin novos", models.PlacementScope{FlowDirection: models.FlowBuyer, IncludeUnplaced: true, VendorNull: true}, nil, true},
		{"unplaced lead elsewhere", models.PlacementScope{FlowDirection: models.FlowBuyer, VendorID: ptr(5)}, nil, false},
		{"vendor match", models.PlacementScope{FlowDirection: models.FlowBuyer, VendorID: ptr(5)}, placed, true},
		{"vendor mismatch", models.PlacementScope{FlowDirection: models.FlowBuyer, VendorID: ptr(6)}, placed, false},
		{"vendor must be null", models.PlacementScope{FlowDirection: models.FlowBuyer, VendorNull: true}, placed, false},
		{"collaborator and null status", models.PlacementScope{FlowDirection: models.FlowBuyer, CollaboratorID: ptr(9), StatusNull: true}, placed, true},
		{"status required", models.PlacementScope{FlowDirection: models.FlowBuyer, CollaboratorID: ptr(9), StatusID: ptr(3)}, placed, false},
		{"other flow", models.PlacementScope{FlowDirection: models.FlowSeller, VendorID: ptr(5)}, placed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.scope.Matches(tt.p))
		})
	}
}

func TestLeadVisibility_Allows(t *testing.T) {
	rows := []*models.Placement{
		{FlowDirection: models.FlowBuyer, VendorID: ptr(5)},
		{FlowDirection: models.FlowSeller, VendorID: ptr(6), CollaboratorID: ptr(11)},
	}

	assert.True(t, models.LeadVisibility{All: true}.Allows(nil))
	assert.True(t, models.LeadVisibility{VendorID: ptr(5)}.Allows(rows))
	assert.True(t, models.LeadVisibility{VendorID: ptr(7), CollaboratorIDs: []int64{10, 11}}.Allows(rows))
	assert.False(t, models.LeadVisibility{VendorID: ptr(7), CollaboratorIDs: []int64{10}}.Allows(rows))
	assert.False(t, models.LeadVisibility{CollaboratorIDs: []int64{11}}.Allows(nil))
}

func TestPlacement_ApplyAssignment(t *testing.T) {
	p := &models.Placement{VendorID: ptr(5), CollaboratorID: ptr(9), StatusID: ptr(2)}
	a := p.Assignment()
	a.StatusID = nil
	p.Apply(a)

	assert.Equal(t, int64(5), *p.VendorID)
	assert.Equal(t, int64(9), *p.CollaboratorID)
	assert.Nil(t, p.StatusID)
}
