package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/kanban-crm-api/internal/config"
	"github.com/kanban-crm-api/internal/metrics"
	"github.com/kanban-crm-api/internal/mocks"
	"github.com/kanban-crm-api/internal/models"
	"github.com/kanban-crm-api/internal/service"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// harness wires the services over in-memory repositories with a fixed cast:
//
//	admin (1)
//	agent (5)        -> collab (9)
//	otherAgent (6)   -> otherCollab (10)
type harness struct {
	ctx     context.Context
	m       *mocks.Mocks
	metrics *metrics.Metrics
	svc     *service.Services
	cfg     *config.Config

	admin, agent, collab, otherAgent, otherCollab *models.User
}

func newHarness(t *testing.T, opts ...func(*config.Config)) *harness {
	t.Helper()

	cfg := config.Default()
	for _, opt := range opts {
		opt(cfg)
	}
	m := mocks.New()
	h := &harness{
		ctx:     context.Background(),
		m:       m,
		metrics: metrics.New(),
		cfg:     cfg,
	}

	h.admin = m.Store.AddUser(&models.User{ID: 1, Name: "Admin", Email: "admin@crm.test", Profile: models.ProfileAdmin})
	h.agent = m.Store.AddUser(&models.User{ID: 5, Name: "Alice", Email: "alice@crm.test", Profile: models.ProfileAgent})
	h.otherAgent = m.Store.AddUser(&models.User{ID: 6, Name: "Carol", Email: "carol@crm.test", Profile: models.ProfileAgent})
	h.collab = m.Store.AddUser(&models.User{ID: 9, Name: "Bob", Email: "bob@crm.test", Profile: models.ProfileCollaborator, ParentUserID: id(5)})
	h.otherCollab = m.Store.AddUser(&models.User{ID: 10, Name: "Dave", Email: "dave@crm.test", Profile: models.ProfileCollaborator, ParentUserID: id(6)})

	h.svc = service.NewServices(m.Repositories(), cfg, h.metrics, zerolog.Nop())
	return h
}

func id(v int64) *int64 {
	return &v
}

func str(v string) *string {
	return &v
}

// views holds one board per column used by the move tests
type views struct {
	adminNovos, adminAlice, adminCarol *models.Board
	agentNovos, agentBob               *models.Board
	collabNovos, collabContato         *models.Board
	contato                            *models.PipelineStatus
}

// setupViews provisions the three views of the pipeline for agent 5 and
// collaborator 9
func (h *harness) setupViews(t *testing.T) views {
	t.Helper()
	var v views
	var err error

	v.adminNovos, err = h.svc.Boards.EnsureNovosBoard(h.ctx, h.admin, models.EnsureBoardRequest{Type: models.BoardTypeAdmin})
	require.NoError(t, err)
	v.adminAlice, err = h.svc.Boards.CreateBoard(h.ctx, h.admin, models.CreateBoardRequest{
		Name: "Alice", Color: "#3366FF", Type: models.BoardTypeAdmin, AgentID: id(h.agent.ID),
	})
	require.NoError(t, err)
	v.adminCarol, err = h.svc.Boards.CreateBoard(h.ctx, h.admin, models.CreateBoardRequest{
		Name: "Carol", Color: "#FF6633", Type: models.BoardTypeAdmin, AgentID: id(h.otherAgent.ID),
	})
	require.NoError(t, err)

	v.agentNovos, err = h.svc.Boards.EnsureNovosBoard(h.ctx, h.agent, models.EnsureBoardRequest{Type: models.BoardTypeAgent})
	require.NoError(t, err)
	v.agentBob, err = h.svc.Boards.CreateBoard(h.ctx, h.agent, models.CreateBoardRequest{
		Name: "Bob", Color: "#22AA44", Type: models.BoardTypeAgent, CollaboratorID: id(h.collab.ID),
	})
	require.NoError(t, err)

	v.contato = &models.PipelineStatus{Name: "Contato", Color: "#111111", Active: true}
	h.m.Store.AddTemplate("Vendas", nil, v.contato)

	v.collabNovos, err = h.svc.Boards.EnsureNovosBoard(h.ctx, h.collab, models.EnsureBoardRequest{Type: models.BoardTypeCollaborator})
	require.NoError(t, err)
	v.collabContato, err = h.svc.Boards.CreateBoard(h.ctx, h.collab, models.CreateBoardRequest{
		Name: "Contato", Color: "#111111", Type: models.BoardTypeCollaborator, StatusID: id(v.contato.ID),
	})
	require.NoError(t, err)
	return v
}

// move runs MoveLead and fails the test on error
func (h *harness) move(t *testing.T, actor *models.User, leadID int64, from, to *models.Board) *models.Lead {
	t.Helper()
	lead, err := h.svc.Boards.MoveLead(h.ctx, actor, models.MoveLeadRequest{LeadID: leadID, FromBoardID: from.ID, ToBoardID: to.ID})
	require.NoError(t, err)
	return lead
}

// requireKind asserts that err wraps kind
func requireKind(t *testing.T, err, kind error) {
	t.Helper()
	require.Error(t, err)
	require.True(t, errors.Is(err, kind), "expected %v, got %v", kind, err)
}
