package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/kanban-crm-api/internal/apperr"
	"github.com/kanban-crm-api/internal/kanban"
	"github.com/kanban-crm-api/internal/models"
)

// provisioned counts boards created automatically within one transaction.
// The counters are reported only after commit.
type provisioned struct {
	novos  int
	status int
}

func (p provisioned) report(s *boardService) {
	if s.metrics == nil {
		return
	}
	if p.novos > 0 {
		s.metrics.RecordProvisioned("novos", p.novos)
	}
	if p.status > 0 {
		s.metrics.RecordProvisioned("status", p.status)
	}
}

// EnsureNovosBoard returns the "Novos" board of the view named by req,
// creating it on first use
func (s *boardService) EnsureNovosBoard(ctx context.Context, actor *models.User, req models.EnsureBoardRequest) (*models.Board, error) {
	if errs := s.validator.ValidateEnsureBoard(&req); len(errs) > 0 {
		return nil, errs
	}
	flow := req.FlowDirection
	if flow == "" {
		flow = models.FlowBuyer
	}

	var explicitID *int64
	switch req.Type {
	case models.BoardTypeAgent:
		explicitID = req.AgentID
	case models.BoardTypeCollaborator:
		explicitID = req.CollaboratorID
	}
	owner, err := s.resolveOwner(ctx, req.Type, actor, explicitID)
	if err != nil {
		return nil, err
	}

	var (
		board *models.Board
		prov  provisioned
	)
	err = s.repos.Tx.WithTx(ctx, func(ctx context.Context) error {
		board, err = s.ensureNovos(ctx, req.Type, owner, flow, &prov)
		return err
	})
	if err != nil {
		return nil, err
	}
	prov.report(s)
	return board, nil
}

// resolveOwner loads the explicitly named user, if any, and applies the
// ownership table. The owner is returned as a user so its parent is known.
func (s *boardService) resolveOwner(ctx context.Context, t models.BoardType, actor *models.User, explicitID *int64) (*models.User, error) {
	var explicit *models.User
	if explicitID != nil {
		u, err := requireUser(ctx, s.repos.User, *explicitID)
		if err != nil {
			return nil, err
		}
		explicit = u
	}

	ownerID, err := kanban.ResolveOwner(t, actor, explicit)
	if err != nil {
		return nil, err
	}
	if explicit != nil && explicit.ID == ownerID {
		return explicit, nil
	}
	return actor, nil
}

// ensureNovos looks the Novos board up and creates it when missing. It must
// run inside the caller's transaction.
func (s *boardService) ensureNovos(ctx context.Context, t models.BoardType, owner *models.User, flow models.FlowDirection, prov *provisioned) (*models.Board, error) {
	existing, err := s.repos.Board.FindNovos(ctx, t, owner.ID, flow)
	if err != nil {
		return nil, fmt.Errorf("failed to find Novos board: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	b := &models.Board{
		Name:          models.NovosBoardName,
		Color:         s.cfg.NovosColor,
		Type:          t,
		OwnerUserID:   owner.ID,
		Order:         0,
		FlowDirection: flow,
		Active:        true,
	}
	switch t {
	case models.BoardTypeAgent:
		b.AgentID = copyInt64(&owner.ID)
	case models.BoardTypeCollaborator:
		b.CollaboratorID = copyInt64(&owner.ID)
		b.AgentID = copyInt64(owner.ParentUserID)
	}

	if err := s.repos.Board.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to create Novos board: %w", err)
	}
	prov.novos++

	s.log.Info().
		Int64("board_id", b.ID).
		Str("type", string(t)).
		Int64("owner_id", owner.ID).
		Str("flow_direction", string(flow)).
		Msg("Novos board created")
	return b, nil
}

// CreateBoard creates a column board. An AGENT board carrying a collaborator
// and a template also provisions that collaborator's board set.
func (s *boardService) CreateBoard(ctx context.Context, actor *models.User, req models.CreateBoardRequest) (*models.Board, error) {
	if errs := s.validator.ValidateCreateBoard(&req); len(errs) > 0 {
		return nil, errs
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == models.NovosBoardName {
		return nil, apperr.InvalidOperationf("the name %q is reserved", models.NovosBoardName)
	}

	b, err := s.planBoard(ctx, actor, &req)
	if err != nil {
		return nil, err
	}

	var prov provisioned
	err = s.repos.Tx.WithTx(ctx, func(ctx context.Context) error {
		order, err := s.repos.Board.NextOrder(ctx, b.Type, b.OwnerUserID, b.FlowDirection)
		if err != nil {
			return fmt.Errorf("failed to compute board order: %w", err)
		}
		b.Order = order
		if err := s.repos.Board.Create(ctx, b); err != nil {
			return fmt.Errorf("failed to create board: %w", err)
		}

		if b.Type == models.BoardTypeAgent && b.CollaboratorID != nil && b.PipelineTemplateID != nil {
			return s.createAutomaticBoardsForCollaborator(ctx, b, &prov)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	prov.report(s)
	s.log.Info().
		Int64("board_id", b.ID).
		Str("type", string(b.Type)).
		Str("role", string(kanban.Classify(b))).
		Int("status_boards", prov.status).
		Msg("Board created")
	return b, nil
}

// planBoard resolves owner and participants of a new board and checks the
// referenced users, template and status
func (s *boardService) planBoard(ctx context.Context, actor *models.User, req *models.CreateBoardRequest) (*models.Board, error) {
	b := &models.Board{
		Name:               req.Name,
		Color:              req.Color,
		Type:               req.Type,
		PipelineTemplateID: copyInt64(req.PipelineTemplateID),
		StatusID:           copyInt64(req.StatusID),
		FlowDirection:      req.FlowDirection,
		Active:             true,
	}
	if b.Color == "" {
		b.Color = s.cfg.NovosColor
	}

	if req.PipelineTemplateID != nil {
		template, err := s.repos.Pipeline.GetTemplate(ctx, *req.PipelineTemplateID)
		if err != nil {
			return nil, fmt.Errorf("failed to get template %d: %w", *req.PipelineTemplateID, err)
		}
		if template == nil || !template.Active {
			return nil, apperr.NotFoundf("pipeline template %d not found", *req.PipelineTemplateID)
		}
		b.FlowDirection = kanban.ResolveFlow(b, template)
	}
	if b.FlowDirection == "" {
		b.FlowDirection = models.FlowBuyer
	}

	switch req.Type {
	case models.BoardTypeAdmin:
		owner, err := s.resolveOwner(ctx, req.Type, actor, nil)
		if err != nil {
			return nil, err
		}
		if req.AgentID == nil {
			return nil, apperr.InvalidArgumentf("agent_id is required for ADMIN boards")
		}
		agent, err := requireUser(ctx, s.repos.User, *req.AgentID)
		if err != nil {
			return nil, err
		}
		if !agent.IsAgent() {
			return nil, apperr.InvalidOperationf("user %d is not an agent", agent.ID)
		}
		b.OwnerUserID = owner.ID
		b.AgentID = copyInt64(&agent.ID)

	case models.BoardTypeAgent:
		if req.CollaboratorID == nil {
			return nil, apperr.InvalidArgumentf("collaborator_id is required for AGENT boards")
		}
		collaborator, err := requireUser(ctx, s.repos.User, *req.CollaboratorID)
		if err != nil {
			return nil, err
		}
		if !collaborator.IsCollaborator() {
			return nil, apperr.InvalidOperationf("user %d is not a collaborator", collaborator.ID)
		}
		agentID := req.AgentID
		if agentID == nil {
			agentID = collaborator.ParentUserID
		}
		owner, err := s.resolveOwner(ctx, req.Type, actor, agentID)
		if err != nil {
			return nil, err
		}
		if !owner.IsParentOf(collaborator) {
			return nil, apperr.InvalidOperationf("collaborator %d does not work for agent %d", collaborator.ID, owner.ID)
		}
		b.OwnerUserID = owner.ID
		b.AgentID = copyInt64(&owner.ID)
		b.CollaboratorID = copyInt64(&collaborator.ID)

	case models.BoardTypeCollaborator:
		if req.StatusID == nil {
			return nil, apperr.InvalidArgumentf("status_id is required for COLLABORATOR boards")
		}
		status, err := s.repos.Pipeline.GetStatus(ctx, *req.StatusID)
		if err != nil {
			return nil, fmt.Errorf("failed to get status %d: %w", *req.StatusID, err)
		}
		if status == nil || !status.Active {
			return nil, apperr.NotFoundf("pipeline status %d not found", *req.StatusID)
		}
		owner, err := s.resolveOwner(ctx, req.Type, actor, req.CollaboratorID)
		if err != nil {
			return nil, err
		}
		b.OwnerUserID = owner.ID
		b.CollaboratorID = copyInt64(&owner.ID)
		b.AgentID = copyInt64(owner.ParentUserID)
	}
	return b, nil
}

// createAutomaticBoardsForCollaborator provisions the collaborator's Novos
// board and one STATUS board per active template status, in template order.
// Existing STATUS boards are reused.
func (s *boardService) createAutomaticBoardsForCollaborator(ctx context.Context, agentBoard *models.Board, prov *provisioned) error {
	collaborator, err := requireUser(ctx, s.repos.User, *agentBoard.CollaboratorID)
	if err != nil {
		return err
	}
	flow := agentBoard.FlowDirection

	if _, err := s.ensureNovos(ctx, models.BoardTypeCollaborator, collaborator, flow, prov); err != nil {
		return err
	}

	statuses, err := s.repos.Pipeline.ListStatusesForTemplate(ctx, *agentBoard.PipelineTemplateID)
	if err != nil {
		return fmt.Errorf("failed to list statuses of template %d: %w", *agentBoard.PipelineTemplateID, err)
	}

	for i, status := range statuses {
		existing, err := s.repos.Board.FindStatusBoard(ctx, collaborator.ID, status.ID, flow)
		if err != nil {
			return fmt.Errorf("failed to find status board: %w", err)
		}
		if existing != nil {
			continue
		}

		color := status.Color
		if color == "" {
			color = agentBoard.Color
		}
		b := &models.Board{
			Name:               status.Name,
			Color:              color,
			Type:               models.BoardTypeCollaborator,
			OwnerUserID:        collaborator.ID,
			AgentID:            copyInt64(agentBoard.AgentID),
			CollaboratorID:     copyInt64(&collaborator.ID),
			PipelineTemplateID: copyInt64(agentBoard.PipelineTemplateID),
			StatusID:           copyInt64(&status.ID),
			Order:              i + 1,
			FlowDirection:      flow,
			Active:             true,
		}
		if err := s.repos.Board.Create(ctx, b); err != nil {
			return fmt.Errorf("failed to create status board %q: %w", status.Name, err)
		}
		prov.status++
	}
	return nil
}

func copyInt64(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
