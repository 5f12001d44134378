package service

import (
	"context"
	"net/http"

	"github.com/kanban-crm-api/internal/config"
	"github.com/kanban-crm-api/internal/metrics"
	"github.com/kanban-crm-api/internal/models"
	"github.com/kanban-crm-api/internal/repository"
	"github.com/kanban-crm-api/internal/validation"
	"github.com/rs/zerolog"
)

// BoardService defines the board views and the pipeline engine
type BoardService interface {
	ListBoards(ctx context.Context, actor *models.User, filter models.BoardFilter) ([]*models.Board, error)
	GetBoard(ctx context.Context, actor *models.User, id int64) (*models.Board, error)
	BoardLeads(ctx context.Context, actor *models.User, id int64, limit, offset int) ([]*models.Lead, error)
	EnsureNovosBoard(ctx context.Context, actor *models.User, req models.EnsureBoardRequest) (*models.Board, error)
	CreateBoard(ctx context.Context, actor *models.User, req models.CreateBoardRequest) (*models.Board, error)
	UpdateBoard(ctx context.Context, actor *models.User, id int64, req models.UpdateBoardRequest) (*models.Board, error)
	UpdateBoardOrder(ctx context.Context, actor *models.User, orders []models.BoardOrder) error
	RemoveBoard(ctx context.Context, actor *models.User, id int64) error
	CreateLeadInBoard(ctx context.Context, actor *models.User, boardID int64, req models.CreateLeadRequest) (*models.Lead, error)
	MoveLead(ctx context.Context, actor *models.User, req models.MoveLeadRequest) (*models.Lead, error)
}

// LeadService defines the visibility-filtered lead operations
type LeadService interface {
	FindAll(ctx context.Context, actor *models.User, filter models.LeadFilter) ([]*models.Lead, error)
	FindOne(ctx context.Context, actor *models.User, id int64) (*models.Lead, error)
	Update(ctx context.Context, actor *models.User, id int64, req models.UpdateLeadRequest) (*models.Lead, error)
	Remove(ctx context.Context, actor *models.User, id int64) error
	Occurrences(ctx context.Context, actor *models.User, id int64) ([]*models.Occurrence, error)
}

// ExportService defines the interface for export operations
type ExportService interface {
	StreamLeads(ctx context.Context, actor *models.User, w http.ResponseWriter, format string) error
}

// UserService resolves the acting user of a request
type UserService interface {
	Actor(ctx context.Context, id int64) (*models.User, error)
}

// Services holds all service interfaces
type Services struct {
	Boards BoardService
	Leads  LeadService
	Export ExportService
	Users  UserService
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, cfg *config.Config, m *metrics.Metrics, log zerolog.Logger) *Services {
	vis := newVisibility(repos.User)
	validator := validation.NewValidator()
	loader := newLeadLoader(repos)

	return &Services{
		Boards: newBoardService(repos, vis, validator, loader, cfg.Kanban, m, log),
		Leads:  newLeadService(repos, vis, validator, loader, cfg.Kanban, log),
		Export: newExportService(repos, vis, log),
		Users:  newUserService(repos.User),
	}
}
