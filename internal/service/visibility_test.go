package service

import (
	"context"
	"testing"

	"github.com/kanban-crm-api/internal/config"
	"github.com/kanban-crm-api/internal/mocks"
	"github.com/kanban-crm-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v int64) *int64 {
	return &v
}

func TestVisibility_CanAccessBoard(t *testing.T) {
	m := mocks.New()
	admin := m.Store.AddUser(&models.User{ID: 1, Profile: models.ProfileAdmin})
	agent := m.Store.AddUser(&models.User{ID: 5, Profile: models.ProfileAgent})
	otherAgent := m.Store.AddUser(&models.User{ID: 6, Profile: models.ProfileAgent})
	collab := m.Store.AddUser(&models.User{ID: 9, Profile: models.ProfileCollaborator, ParentUserID: ptr(5)})
	otherCollab := m.Store.AddUser(&models.User{ID: 10, Profile: models.ProfileCollaborator, ParentUserID: ptr(6)})

	vis := newVisibility(m.User)

	adminBoard := &models.Board{Type: models.BoardTypeAdmin, OwnerUserID: 1, AgentID: ptr(5)}
	agentBoard := &models.Board{Type: models.BoardTypeAgent, OwnerUserID: 5, AgentID: ptr(5), CollaboratorID: ptr(9)}
	collabBoard := &models.Board{Type: models.BoardTypeCollaborator, OwnerUserID: 9, CollaboratorID: ptr(9), StatusID: ptr(3)}

	tests := []struct {
		name  string
		actor *models.User
		board *models.Board
		want  bool
	}{
		{"admin opens admin board", admin, adminBoard, true},
		{"agent named on admin board", agent, adminBoard, false},
		{"admin opens agent board", admin, agentBoard, true},
		{"owner agent", agent, agentBoard, true},
		{"collaborator named on agent board", collab, agentBoard, false},
		{"other agent", otherAgent, agentBoard, false},
		{"collaborator board owner", collab, collabBoard, true},
		{"parent agent without agent_id", agent, collabBoard, true},
		{"foreign agent", otherAgent, collabBoard, false},
		{"sibling collaborator", otherCollab, collabBoard, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := vis.CanAccessBoard(context.Background(), tt.actor, tt.board)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestVisibility_Scope(t *testing.T) {
	m := mocks.New()
	admin := m.Store.AddUser(&models.User{ID: 1, Profile: models.ProfileAdmin})
	agent := m.Store.AddUser(&models.User{ID: 5, Profile: models.ProfileAgent})
	collab := m.Store.AddUser(&models.User{ID: 9, Profile: models.ProfileCollaborator, ParentUserID: ptr(5)})
	m.Store.AddUser(&models.User{ID: 11, Profile: models.ProfileCollaborator, ParentUserID: ptr(5)})

	vis := newVisibility(m.User)
	ctx := context.Background()

	scope, err := vis.Scope(ctx, admin)
	require.NoError(t, err)
	assert.True(t, scope.All)

	scope, err = vis.Scope(ctx, agent)
	require.NoError(t, err)
	assert.Equal(t, ptr(5), scope.VendorID)
	assert.Equal(t, []int64{9, 11}, scope.CollaboratorIDs)

	scope, err = vis.Scope(ctx, collab)
	require.NoError(t, err)
	assert.Nil(t, scope.VendorID)
	assert.Equal(t, []int64{9}, scope.CollaboratorIDs)

	ok, err := vis.CanView(ctx, collab, []*models.Placement{{VendorID: ptr(5)}})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = vis.CanView(ctx, agent, []*models.Placement{{VendorID: ptr(6), CollaboratorID: ptr(11)}})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPageBounds(t *testing.T) {
	cfg := config.Default().Kanban

	tests := []struct {
		limit, offset         int
		wantLimit, wantOffset int
	}{
		{0, 0, 50, 0},
		{10, 5, 10, 5},
		{10000, -3, 500, 0},
	}
	for _, tt := range tests {
		limit, offset := pageBounds(cfg, tt.limit, tt.offset)
		assert.Equal(t, tt.wantLimit, limit)
		assert.Equal(t, tt.wantOffset, offset)
	}
}
