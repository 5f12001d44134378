package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/kanban-crm-api/internal/apperr"
	"github.com/kanban-crm-api/internal/config"
	"github.com/kanban-crm-api/internal/kanban"
	"github.com/kanban-crm-api/internal/metrics"
	"github.com/kanban-crm-api/internal/models"
	"github.com/kanban-crm-api/internal/repository"
	"github.com/kanban-crm-api/internal/validation"
	"github.com/rs/zerolog"
)

// boardService is the concrete implementation of BoardService
type boardService struct {
	repos     *repository.Repositories
	vis       *visibility
	validator *validation.Validator
	loader    *leadLoader
	cfg       config.KanbanConfig
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

func newBoardService(repos *repository.Repositories, vis *visibility, validator *validation.Validator, loader *leadLoader,
	cfg config.KanbanConfig, m *metrics.Metrics, log zerolog.Logger) *boardService {
	return &boardService{
		repos:     repos,
		vis:       vis,
		validator: validator,
		loader:    loader,
		cfg:       cfg,
		metrics:   m,
		log:       log.With().Str("service", "boards").Logger(),
	}
}

// ListBoards returns the active boards actor may open, ordered by (order, id)
func (s *boardService) ListBoards(ctx context.Context, actor *models.User, filter models.BoardFilter) ([]*models.Board, error) {
	if filter.Type != "" && !models.ValidBoardTypes[filter.Type] {
		return nil, apperr.InvalidArgumentf("invalid board type %q", filter.Type)
	}
	if filter.FlowDirection != "" && !models.ValidFlowDirections[filter.FlowDirection] {
		return nil, apperr.InvalidArgumentf("invalid flow_direction %q", filter.FlowDirection)
	}

	boards, err := s.repos.Board.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}

	visible := make([]*models.Board, 0, len(boards))
	for _, b := range boards {
		ok, err := s.vis.CanAccessBoard(ctx, actor, b)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if err := s.countLeads(ctx, b); err != nil {
			return nil, err
		}
		visible = append(visible, b)
	}
	return visible, nil
}

// GetBoard returns one active board with its lead count
func (s *boardService) GetBoard(ctx context.Context, actor *models.User, id int64) (*models.Board, error) {
	b, err := s.activeBoard(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.vis.EnsureBoard(ctx, actor, b); err != nil {
		return nil, err
	}
	if err := s.countLeads(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// BoardLeads returns the leads shown on a board that actor may see
func (s *boardService) BoardLeads(ctx context.Context, actor *models.User, id int64, limit, offset int) ([]*models.Lead, error) {
	b, err := s.activeBoard(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.vis.EnsureBoard(ctx, actor, b); err != nil {
		return nil, err
	}
	flow, err := s.flowOf(ctx, b)
	if err != nil {
		return nil, err
	}
	vis, err := s.vis.Scope(ctx, actor)
	if err != nil {
		return nil, err
	}

	scope := kanban.Scope(b, flow)
	filter := models.LeadFilter{Scope: &scope, Visibility: &vis, FlowDirection: flow}
	filter.Limit, filter.Offset = pageBounds(s.cfg, limit, offset)

	leads, err := s.repos.Lead.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads of board %d: %w", id, err)
	}
	if err := s.loader.Attach(ctx, leads); err != nil {
		return nil, err
	}
	return leads, nil
}

// UpdateBoard renames or recolors a board. Novos boards keep their name.
func (s *boardService) UpdateBoard(ctx context.Context, actor *models.User, id int64, req models.UpdateBoardRequest) (*models.Board, error) {
	if errs := s.validator.ValidateUpdateBoard(&req); len(errs) > 0 {
		return nil, errs
	}

	var board *models.Board
	err := s.repos.Tx.WithTx(ctx, func(ctx context.Context) error {
		b, err := s.lockedBoard(ctx, id)
		if err != nil {
			return err
		}
		if err := s.vis.EnsureBoard(ctx, actor, b); err != nil {
			return err
		}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if b.IsNovos() && name != models.NovosBoardName {
				return apperr.InvalidOperationf("the %q board cannot be renamed", models.NovosBoardName)
			}
			if !b.IsNovos() && name == models.NovosBoardName {
				return apperr.InvalidOperationf("the name %q is reserved", models.NovosBoardName)
			}
			b.Name = name
		}
		if req.Color != nil {
			b.Color = *req.Color
		}
		if err := s.repos.Board.Update(ctx, b); err != nil {
			return fmt.Errorf("failed to update board %d: %w", id, err)
		}
		board = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return board, nil
}

// UpdateBoardOrder repositions a batch of boards in one transaction
func (s *boardService) UpdateBoardOrder(ctx context.Context, actor *models.User, orders []models.BoardOrder) error {
	if errs := s.validator.ValidateBoardOrders(orders); len(errs) > 0 {
		return errs
	}

	return s.repos.Tx.WithTx(ctx, func(ctx context.Context) error {
		for _, o := range orders {
			b, err := s.lockedBoard(ctx, o.ID)
			if err != nil {
				return err
			}
			if err := s.vis.EnsureBoard(ctx, actor, b); err != nil {
				return err
			}
			b.Order = o.Order
			if err := s.repos.Board.Update(ctx, b); err != nil {
				return fmt.Errorf("failed to reorder board %d: %w", o.ID, err)
			}
		}
		return nil
	})
}

// RemoveBoard deactivates an empty, non-Novos board. The emptiness check
// and the deactivation run under the board's row lock.
func (s *boardService) RemoveBoard(ctx context.Context, actor *models.User, id int64) error {
	err := s.repos.Tx.WithTx(ctx, func(ctx context.Context) error {
		b, err := s.lockedBoard(ctx, id)
		if err != nil {
			return err
		}
		if err := s.vis.EnsureBoard(ctx, actor, b); err != nil {
			return err
		}
		if b.IsNovos() {
			return apperr.InvalidOperationf("the %q board cannot be removed", models.NovosBoardName)
		}

		flow, err := s.flowOf(ctx, b)
		if err != nil {
			return err
		}
		count, err := s.repos.Board.CountLeads(ctx, kanban.Scope(b, flow))
		if err != nil {
			return fmt.Errorf("failed to count leads of board %d: %w", id, err)
		}
		if count > 0 {
			return apperr.InvalidOperationf("board %q still holds %d leads", b.Name, count)
		}

		b.Active = false
		if err := s.repos.Board.Update(ctx, b); err != nil {
			return fmt.Errorf("failed to deactivate board %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info().Int64("board_id", id).Int64("user_id", actor.ID).Msg("Board removed")
	return nil
}

// board loads a board by id, NotFound when absent
func (s *boardService) board(ctx context.Context, id int64) (*models.Board, error) {
	b, err := s.repos.Board.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get board %d: %w", id, err)
	}
	if b == nil {
		return nil, apperr.NotFoundf("board %d not found", id)
	}
	return b, nil
}

// activeBoard is board but treats deactivated boards as absent
func (s *boardService) activeBoard(ctx context.Context, id int64) (*models.Board, error) {
	b, err := s.board(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.Active {
		return nil, apperr.NotFoundf("board %d not found", id)
	}
	return b, nil
}

func (s *boardService) lockedBoard(ctx context.Context, id int64) (*models.Board, error) {
	b, err := s.repos.Board.GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to lock board %d: %w", id, err)
	}
	if b == nil || !b.Active {
		return nil, apperr.NotFoundf("board %d not found", id)
	}
	return b, nil
}

// flowOf resolves a board's flow direction through its template
func (s *boardService) flowOf(ctx context.Context, b *models.Board) (models.FlowDirection, error) {
	if b.FlowDirection != "" || b.PipelineTemplateID == nil {
		return kanban.ResolveFlow(b, nil), nil
	}
	template, err := s.repos.Pipeline.GetTemplate(ctx, *b.PipelineTemplateID)
	if err != nil {
		return "", fmt.Errorf("failed to get template %d: %w", *b.PipelineTemplateID, err)
	}
	return kanban.ResolveFlow(b, template), nil
}

func (s *boardService) countLeads(ctx context.Context, b *models.Board) error {
	flow, err := s.flowOf(ctx, b)
	if err != nil {
		return err
	}
	count, err := s.repos.Board.CountLeads(ctx, kanban.Scope(b, flow))
	if err != nil {
		return fmt.Errorf("failed to count leads of board %d: %w", b.ID, err)
	}
	b.LeadsCount = count
	return nil
}
