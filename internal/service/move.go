package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kanban-crm-api/internal/apperr"
	"github.com/kanban-crm-api/internal/kanban"
	"github.com/kanban-crm-api/internal/models"
)

// MoveLead moves a lead between two boards of the same view. Every check
// runs before the first write and all writes share one transaction.
func (s *boardService) MoveLead(ctx context.Context, actor *models.User, req models.MoveLeadRequest) (*models.Lead, error) {
	if req.FromBoardID == req.ToBoardID {
		return nil, apperr.InvalidOperationf("source and destination boards are the same")
	}

	lead, err := s.loader.Get(ctx, req.LeadID)
	if err != nil {
		return nil, err
	}
	from, err := s.board(ctx, req.FromBoardID)
	if err != nil {
		return nil, err
	}
	to, err := s.board(ctx, req.ToBoardID)
	if err != nil {
		return nil, err
	}
	if !from.Active || !to.Active {
		return nil, apperr.InvalidOperationf("cannot move leads between inactive boards")
	}
	if from.Type != to.Type {
		return nil, apperr.InvalidOperationf("cannot move a lead from a %s board to a %s board", from.Type, to.Type)
	}

	flow, err := s.flowOf(ctx, to)
	if err != nil {
		return nil, err
	}
	fromFlow, err := s.flowOf(ctx, from)
	if err != nil {
		return nil, err
	}
	if fromFlow != flow {
		return nil, apperr.InvalidOperationf("cannot move a lead from the %s flow to the %s flow", fromFlow, flow)
	}

	if err := s.vis.EnsureBoard(ctx, actor, from); err != nil {
		return nil, err
	}
	if err := s.vis.EnsureBoard(ctx, actor, to); err != nil {
		return nil, err
	}
	if err := s.vis.EnsureView(ctx, actor, lead); err != nil {
		return nil, err
	}

	fromRole, toRole := kanban.Classify(from), kanban.Classify(to)
	err = s.repos.Tx.WithTx(ctx, func(ctx context.Context) error {
		current, err := s.repos.Placement.FindByLeadAndFlow(ctx, lead.ID, flow)
		if err != nil {
			return fmt.Errorf("failed to load placement of lead %d: %w", lead.ID, err)
		}
		if current == nil && fromRole != kanban.RoleNew {
			return apperr.InconsistentStatef("lead %d has no %s placement but sits on %s board %q",
				lead.ID, flow, fromRole, from.Name)
		}
		if current != nil && !kanban.Scope(from, flow).Matches(current) {
			return apperr.InvalidOperationf("lead %d is not on board %q", lead.ID, from.Name)
		}

		rule, err := kanban.Plan(from, to)
		if err != nil {
			return err
		}

		var assignment models.Assignment
		if current != nil {
			assignment = current.Assignment()
		}
		next, err := rule.Apply(to, assignment)
		if err != nil {
			return err
		}

		if current == nil {
			if !rule.InsertsWhenUnplaced {
				return apperr.InconsistentStatef("lead %d has no %s placement for a %s move in the %s view",
					lead.ID, flow, fromRole, from.Type)
			}
			p := &models.Placement{LeadID: lead.ID, FlowDirection: flow}
			p.Apply(next)
			if err := s.repos.Placement.Insert(ctx, p); err != nil {
				return fmt.Errorf("failed to insert placement of lead %d: %w", lead.ID, err)
			}
		} else {
			current.Apply(next)
			if err := s.repos.Placement.Update(ctx, current, s.cfg.OptimisticLocking); err != nil {
				return fmt.Errorf("failed to update placement of lead %d: %w", lead.ID, err)
			}
		}

		return s.recordOccurrence(ctx, lead.ID, actor, flow,
			fmt.Sprintf("Lead moved from %q to %q", from.Name, to.Name))
	})
	if err != nil {
		if errors.Is(err, apperr.ErrInconsistentState) {
			s.log.Error().Err(err).Int64("lead_id", lead.ID).Msg("Inconsistent placement detected")
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordMove(string(from.Type), string(fromRole), string(toRole))
	}
	s.log.Info().
		Int64("lead_id", lead.ID).
		Int64("from_board_id", from.ID).
		Int64("to_board_id", to.ID).
		Str("view", string(from.Type)).
		Str("flow_direction", string(flow)).
		Int64("user_id", actor.ID).
		Msg("Lead moved")

	return s.loader.Get(ctx, lead.ID)
}

// CreateLeadInBoard creates a lead already placed on board boardID
func (s *boardService) CreateLeadInBoard(ctx context.Context, actor *models.User, boardID int64, req models.CreateLeadRequest) (*models.Lead, error) {
	b, err := s.activeBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if err := s.vis.EnsureBoard(ctx, actor, b); err != nil {
		return nil, err
	}
	if errs := s.validator.ValidateCreateLead(&req); len(errs) > 0 {
		return nil, errs
	}
	if err := s.checkLeadRefs(ctx, actor, &req); err != nil {
		return nil, err
	}

	assignment, err := kanban.InitialAssignment(b, req.VendorID, req.CollaboratorID)
	if err != nil {
		return nil, err
	}
	flow, err := s.flowOf(ctx, b)
	if err != nil {
		return nil, err
	}
	productIDs := uniqueIDs(req.ProductIDs)

	lead := &models.Lead{
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.TrimSpace(req.Email),
		Phone:    strings.TrimSpace(req.Phone),
		Document: strings.TrimSpace(req.Document),
		Source:   strings.TrimSpace(req.Source),
		Notes:    req.Notes,
	}
	err = s.repos.Tx.WithTx(ctx, func(ctx context.Context) error {
		if err := requireProducts(ctx, s.repos.Product, productIDs); err != nil {
			return err
		}
		if err := s.repos.Lead.Create(ctx, lead); err != nil {
			return fmt.Errorf("failed to create lead: %w", err)
		}
		if len(productIDs) > 0 {
			if err := s.repos.Product.LinkToLead(ctx, lead.ID, productIDs); err != nil {
				return fmt.Errorf("failed to link products to lead %d: %w", lead.ID, err)
			}
		}

		p := &models.Placement{LeadID: lead.ID, FlowDirection: flow}
		p.Apply(assignment)
		if err := s.repos.Placement.Insert(ctx, p); err != nil {
			return fmt.Errorf("failed to insert placement of lead %d: %w", lead.ID, err)
		}

		return s.recordOccurrence(ctx, lead.ID, actor, flow,
			fmt.Sprintf("Lead created in board %q", b.Name))
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordLeadCreated(string(b.Type))
	}
	s.log.Info().
		Int64("lead_id", lead.ID).
		Int64("board_id", b.ID).
		Int64("user_id", actor.ID).
		Msg("Lead created in board")

	return s.loader.Get(ctx, lead.ID)
}

// checkLeadRefs validates the vendor and collaborator a lead is created with
func (s *boardService) checkLeadRefs(ctx context.Context, actor *models.User, req *models.CreateLeadRequest) error {
	if req.VendorID != nil {
		vendor, err := requireUser(ctx, s.repos.User, *req.VendorID)
		if err != nil {
			return err
		}
		if !vendor.IsAgent() {
			return apperr.InvalidOperationf("vendor %d is not an agent", vendor.ID)
		}
		if actor.IsAgent() && vendor.ID != actor.ID {
			return apperr.Forbiddenf("agents can only vend their own leads")
		}
		if actor.IsCollaborator() && !vendor.IsParentOf(actor) {
			return apperr.Forbiddenf("agent %d is not the agent of collaborator %d", vendor.ID, actor.ID)
		}
	}
	if req.CollaboratorID != nil {
		collaborator, err := requireUser(ctx, s.repos.User, *req.CollaboratorID)
		if err != nil {
			return err
		}
		if !collaborator.IsCollaborator() {
			return apperr.InvalidOperationf("user %d is not a collaborator", collaborator.ID)
		}
		if actor.IsAgent() && !actor.IsParentOf(collaborator) {
			return apperr.Forbiddenf("collaborator %d does not work for agent %d", collaborator.ID, actor.ID)
		}
		if actor.IsCollaborator() && collaborator.ID != actor.ID {
			return apperr.Forbiddenf("collaborators can only assign leads to themselves")
		}
	}
	return nil
}

func (s *boardService) recordOccurrence(ctx context.Context, leadID int64, actor *models.User, flow models.FlowDirection, text string) error {
	f := flow
	o := &models.Occurrence{
		LeadID:        leadID,
		Text:          text,
		Kind:          models.OccurrenceSystem,
		UserID:        actor.ID,
		FlowDirection: &f,
	}
	if err := s.repos.Occurrence.Create(ctx, o); err != nil {
		return fmt.Errorf("failed to record occurrence for lead %d: %w", leadID, err)
	}
	return nil
}
