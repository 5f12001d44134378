package kanban

import (
	"errors"
	"testing"

	"github.com/kanban-crm-api/internal/apperr"
	"github.com/kanban-crm-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func id(v int64) *int64 { return &v }

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		board models.Board
		want  Role
	}{
		{"novos wins over everything", models.Board{Name: "Novos", Type: models.BoardTypeCollaborator, CollaboratorID: id(7), StatusID: id(1)}, RoleNew},
		{"status board", models.Board{Name: "Qualifying", Type: models.BoardTypeCollaborator, CollaboratorID: id(7), StatusID: id(1)}, RoleStatus},
		{"status id on agent board is ignored", models.Board{Name: "X", Type: models.BoardTypeAgent, StatusID: id(1), AgentID: id(5)}, RoleAgent},
		{"collaborator column in agent view", models.Board{Name: "Bob", Type: models.BoardTypeAgent, AgentID: id(5), CollaboratorID: id(9)}, RoleCollaborator},
		{"collaborator board without status", models.Board{Name: "Bob", Type: models.BoardTypeCollaborator, CollaboratorID: id(9)}, RoleCollaborator},
		{"agent column in admin view", models.Board{Name: "Alice", Type: models.BoardTypeAdmin, AgentID: id(5)}, RoleAgent},
		{"collaborator id on admin board is ignored", models.Board{Name: "X", Type: models.BoardTypeAdmin, CollaboratorID: id(9)}, RoleNew},
		{"bare board", models.Board{Name: "Misc", Type: models.BoardTypeAdmin}, RoleNew},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(&tt.board))
		})
	}
}

func TestResolveFlow(t *testing.T) {
	seller := models.FlowSeller

	assert.Equal(t, models.FlowSeller, ResolveFlow(&models.Board{FlowDirection: models.FlowSeller}, nil))
	assert.Equal(t, models.FlowSeller, ResolveFlow(&models.Board{}, &models.PipelineTemplate{FlowDirection: &seller}))
	assert.Equal(t, models.FlowBuyer, ResolveFlow(&models.Board{}, &models.PipelineTemplate{}))
	assert.Equal(t, models.FlowBuyer, ResolveFlow(&models.Board{}, nil))
}

func TestRules_ThreePerView(t *testing.T) {
	perView := map[models.BoardType]int{}
	for _, r := range Rules {
		perView[r.SourceType]++
		got, ok := Lookup(r.SourceType, r.From, r.To)
		require.True(t, ok)
		assert.Equal(t, r, got)
	}
	assert.Equal(t, 3, perView[models.BoardTypeAdmin])
	assert.Equal(t, 3, perView[models.BoardTypeAgent])
	assert.Equal(t, 3, perView[models.BoardTypeCollaborator])

	_, ok := Lookup(models.BoardTypeAdmin, RoleNew, RoleNew)
	assert.False(t, ok)
}

func TestPlanAndApply_AgentViewNewToCollaborator(t *testing.T) {
	novos := &models.Board{Name: "Novos", Type: models.BoardTypeAgent, OwnerUserID: 5, AgentID: id(5)}
	bob := &models.Board{Name: "Bob", Type: models.BoardTypeAgent, OwnerUserID: 5, AgentID: id(5), CollaboratorID: id(9)}

	rule, err := Plan(novos, bob)
	require.NoError(t, err)
	assert.Equal(t, RoleCollaborator, rule.To)

	next, err := rule.Apply(bob, models.Assignment{VendorID: id(5)})
	require.NoError(t, err)
	assert.Equal(t, int64(5), *next.VendorID)
	assert.Equal(t, int64(9), *next.CollaboratorID)
	assert.Nil(t, next.StatusID)
}

func TestPlanAndApply_AdminBackToNovosClearsEverything(t *testing.T) {
	alice := &models.Board{Name: "Alice", Type: models.BoardTypeAdmin, AgentID: id(5)}
	novos := &models.Board{Name: "Novos", Type: models.BoardTypeAdmin}

	rule, err := Plan(alice, novos)
	require.NoError(t, err)

	next, err := rule.Apply(novos, models.Assignment{VendorID: id(5), CollaboratorID: id(9), StatusID: id(2)})
	require.NoError(t, err)
	assert.Equal(t, models.Assignment{}, next)
}

func TestApply_NewClearsOnlyNarrowerStages(t *testing.T) {
	current := models.Assignment{VendorID: id(5), CollaboratorID: id(9), StatusID: id(2)}

	agentRule, ok := Lookup(models.BoardTypeAgent, RoleCollaborator, RoleNew)
	require.True(t, ok)
	next, err := agentRule.Apply(&models.Board{Name: "Novos"}, current)
	require.NoError(t, err)
	assert.Equal(t, int64(5), *next.VendorID)
	assert.Nil(t, next.CollaboratorID)
	assert.Nil(t, next.StatusID)

	collabRule, ok := Lookup(models.BoardTypeCollaborator, RoleStatus, RoleNew)
	require.True(t, ok)
	next, err = collabRule.Apply(&models.Board{Name: "Novos"}, current)
	require.NoError(t, err)
	assert.Equal(t, int64(5), *next.VendorID)
	assert.Equal(t, int64(9), *next.CollaboratorID)
	assert.Nil(t, next.StatusID)
}

func TestApply_StatusMoveKeepsBroaderStages(t *testing.T) {
	dest := &models.Board{Name: "Negotiating", Type: models.BoardTypeCollaborator, CollaboratorID: id(9), StatusID: id(3)}
	rule, ok := Lookup(models.BoardTypeCollaborator, RoleStatus, RoleStatus)
	require.True(t, ok)

	next, err := rule.Apply(dest, models.Assignment{VendorID: id(5), CollaboratorID: id(9), StatusID: id(2)})
	require.NoError(t, err)
	assert.Equal(t, int64(5), *next.VendorID)
	assert.Equal(t, int64(9), *next.CollaboratorID)
	assert.Equal(t, int64(3), *next.StatusID)
}

func TestApply_DoesNotAliasBoardFields(t *testing.T) {
	dest := &models.Board{Name: "Alice", Type: models.BoardTypeAdmin, AgentID: id(5)}
	rule, _ := Lookup(models.BoardTypeAdmin, RoleNew, RoleAgent)

	next, err := rule.Apply(dest, models.Assignment{})
	require.NoError(t, err)
	*next.VendorID = 99
	assert.Equal(t, int64(5), *dest.AgentID)
}

func TestPlan_MisconfiguredStatusColumn(t *testing.T) {
	novos := &models.Board{Name: "Novos", Type: models.BoardTypeCollaborator, CollaboratorID: id(9)}
	// a collaborator board without status_id classifies as COLLABORATOR
	broken := &models.Board{Name: "Closing", Type: models.BoardTypeCollaborator, CollaboratorID: id(9)}

	_, err := Plan(novos, broken)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrInvalidConfiguration))
	assert.Contains(t, err.Error(), "status_id")
}

func TestPlan_InvalidOperations(t *testing.T) {
	tests := []struct {
		name     string
		from, to *models.Board
	}{
		{
			"novos to novos",
			&models.Board{Name: "Novos", Type: models.BoardTypeAdmin},
			&models.Board{Name: "Novos", Type: models.BoardTypeAdmin},
		},
		{
			"admin view into a collaborator board",
			&models.Board{Name: "Novos", Type: models.BoardTypeAdmin},
			&models.Board{Name: "Q", Type: models.BoardTypeCollaborator, CollaboratorID: id(9), StatusID: id(1)},
		},
		{
			"agent view skipping to status",
			&models.Board{Name: "Novos", Type: models.BoardTypeAgent},
			&models.Board{Name: "Q", Type: models.BoardTypeCollaborator, CollaboratorID: id(9), StatusID: id(1)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Plan(tt.from, tt.to)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperr.ErrInvalidOperation), "got %v", err)
		})
	}
}

func TestInitialAssignment(t *testing.T) {
	t.Run("admin novos leaves lead unassigned", func(t *testing.T) {
		a, err := InitialAssignment(&models.Board{Name: "Novos", Type: models.BoardTypeAdmin, OwnerUserID: 1}, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, models.Assignment{}, a)
	})

	t.Run("admin agent column assigns vendor", func(t *testing.T) {
		a, err := InitialAssignment(&models.Board{Name: "Alice", Type: models.BoardTypeAdmin, OwnerUserID: 1, AgentID: id(5)}, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(5), *a.VendorID)
		assert.Nil(t, a.CollaboratorID)
	})

	t.Run("agent novos seeds vendor from owner", func(t *testing.T) {
		a, err := InitialAssignment(&models.Board{Name: "Novos", Type: models.BoardTypeAgent, OwnerUserID: 5}, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(5), *a.VendorID)
		assert.Nil(t, a.CollaboratorID)
	})

	t.Run("collaborator status board", func(t *testing.T) {
		b := &models.Board{Name: "Qualifying", Type: models.BoardTypeCollaborator, OwnerUserID: 9, AgentID: id(5), CollaboratorID: id(9), StatusID: id(2)}
		a, err := InitialAssignment(b, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(5), *a.VendorID)
		assert.Equal(t, int64(9), *a.CollaboratorID)
		assert.Equal(t, int64(2), *a.StatusID)
	})

	t.Run("requested vendor fills broader stage", func(t *testing.T) {
		b := &models.Board{Name: "Novos", Type: models.BoardTypeCollaborator, OwnerUserID: 9, CollaboratorID: id(9)}
		a, err := InitialAssignment(b, id(6), id(12))
		require.NoError(t, err)
		assert.Equal(t, int64(6), *a.VendorID)
		assert.Equal(t, int64(12), *a.CollaboratorID)
		assert.Nil(t, a.StatusID)
	})

	t.Run("misconfigured column", func(t *testing.T) {
		b := &models.Board{Name: "Closing", Type: models.BoardTypeCollaborator, OwnerUserID: 9, CollaboratorID: id(9)}
		_, err := InitialAssignment(b, nil, nil)
		assert.True(t, errors.Is(err, apperr.ErrInvalidConfiguration))
	})
}

func TestScope(t *testing.T) {
	adminNovos := Scope(&models.Board{Name: "Novos", Type: models.BoardTypeAdmin, OwnerUserID: 1}, models.FlowBuyer)
	assert.True(t, adminNovos.IncludeUnplaced)
	assert.True(t, adminNovos.VendorNull)

	agentNovos := Scope(&models.Board{Name: "Novos", Type: models.BoardTypeAgent, OwnerUserID: 5}, models.FlowBuyer)
	assert.Equal(t, int64(5), *agentNovos.VendorID)
	assert.True(t, agentNovos.CollaboratorNull)
	assert.False(t, agentNovos.IncludeUnplaced)

	status := Scope(&models.Board{Name: "Q", Type: models.BoardTypeCollaborator, OwnerUserID: 9, CollaboratorID: id(9), StatusID: id(2)}, models.FlowSeller)
	assert.Equal(t, models.FlowSeller, status.FlowDirection)
	assert.Equal(t, int64(9), *status.CollaboratorID)
	assert.Equal(t, int64(2), *status.StatusID)

	placed := &models.Placement{FlowDirection: models.FlowSeller, VendorID: id(5), CollaboratorID: id(9), StatusID: id(2)}
	assert.True(t, status.Matches(placed))
	assert.False(t, agentNovos.Matches(placed))
}

func TestResolveOwner(t *testing.T) {
	admin := &models.User{ID: 1, Profile: models.ProfileAdmin}
	agent := &models.User{ID: 5, Profile: models.ProfileAgent}
	otherAgent := &models.User{ID: 6, Profile: models.ProfileAgent}
	collab := &models.User{ID: 9, Profile: models.ProfileCollaborator, ParentUserID: id(5)}

	tests := []struct {
		name     string
		typ      models.BoardType
		actor    *models.User
		explicit *models.User
		want     int64
		wantErr  error
	}{
		{"admin owns admin board", models.BoardTypeAdmin, admin, nil, 1, nil},
		{"agent cannot own admin board", models.BoardTypeAdmin, agent, nil, 0, apperr.ErrForbidden},
		{"agent implicit", models.BoardTypeAgent, agent, nil, 5, nil},
		{"admin for agent", models.BoardTypeAgent, admin, agent, 5, nil},
		{"agent for other agent", models.BoardTypeAgent, agent, otherAgent, 0, apperr.ErrForbidden},
		{"explicit agent is a collaborator", models.BoardTypeAgent, admin, collab, 0, apperr.ErrInvalidOperation},
		{"admin without agent id", models.BoardTypeAgent, admin, nil, 0, apperr.ErrForbidden},
		{"collaborator implicit", models.BoardTypeCollaborator, collab, nil, 9, nil},
		{"parent agent for collaborator", models.BoardTypeCollaborator, agent, collab, 9, nil},
		{"unrelated agent for collaborator", models.BoardTypeCollaborator, otherAgent, collab, 0, apperr.ErrForbidden},
		{"explicit collaborator is an agent", models.BoardTypeCollaborator, admin, agent, 0, apperr.ErrInvalidOperation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveOwner(tt.typ, tt.actor, tt.explicit)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
