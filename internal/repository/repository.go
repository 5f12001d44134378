package repository

import (
	"context"

	"github.com/kanban-crm-api/internal/database"
	"github.com/kanban-crm-api/internal/models"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	// ListByParent returns the active users whose parent is parentID
	ListByParent(ctx context.Context, parentID int64) ([]*models.User, error)
}

// LeadRepository defines the interface for lead data operations. Leads are
// returned without products or placements.
type LeadRepository interface {
	Create(ctx context.Context, lead *models.Lead) error
	Update(ctx context.Context, lead *models.Lead) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*models.Lead, error)
	List(ctx context.Context, filter models.LeadFilter) ([]*models.Lead, error)
	Count(ctx context.Context, filter models.LeadFilter) (int, error)
	StreamAll(ctx context.Context, filter models.LeadFilter, callback func(*models.Lead) error) error
}

// BoardRepository defines the interface for kanban board operations
type BoardRepository interface {
	Create(ctx context.Context, board *models.Board) error
	// Update persists name, color, order and active
	Update(ctx context.Context, board *models.Board) error
	GetByID(ctx context.Context, id int64) (*models.Board, error)
	// GetByIDForUpdate locks the board row until the transaction ends
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Board, error)
	// FindNovos returns the active "Novos" board of (type, owner, flow)
	FindNovos(ctx context.Context, boardType models.BoardType, ownerID int64, flow models.FlowDirection) (*models.Board, error)
	// FindStatusBoard returns the active STATUS board of a collaborator for a status
	FindStatusBoard(ctx context.Context, collaboratorID, statusID int64, flow models.FlowDirection) (*models.Board, error)
	// List returns active boards ordered by (order, id)
	List(ctx context.Context, filter models.BoardFilter) ([]*models.Board, error)
	// NextOrder returns max(order)+1 among active boards of (type, owner, flow)
	NextOrder(ctx context.Context, boardType models.BoardType, ownerID int64, flow models.FlowDirection) (int, error)
	// CountLeads counts the leads selected by a board's placement scope
	CountLeads(ctx context.Context, scope models.PlacementScope) (int, error)
}

// PlacementRepository defines the interface for the lead_kanban_status ledger
type PlacementRepository interface {
	FindByLeadAndFlow(ctx context.Context, leadID int64, flow models.FlowDirection) (*models.Placement, error)
	ListByLead(ctx context.Context, leadID int64) ([]*models.Placement, error)
	ListByLeads(ctx context.Context, leadIDs []int64) (map[int64][]*models.Placement, error)
	Insert(ctx context.Context, placement *models.Placement) error
	// Update writes the assignment and bumps the version. With checkVersion
	// the write only succeeds if the stored version still equals
	// placement.Version, otherwise it fails with apperr.ErrConflict.
	Update(ctx context.Context, placement *models.Placement, checkVersion bool) error
}

// PipelineRepository defines read access to pipeline templates and statuses
type PipelineRepository interface {
	GetTemplate(ctx context.Context, id int64) (*models.PipelineTemplate, error)
	GetStatus(ctx context.Context, id int64) (*models.PipelineStatus, error)
	// ListStatusesForTemplate returns the active statuses of a template in
	// linkage order
	ListStatusesForTemplate(ctx context.Context, templateID int64) ([]*models.PipelineStatus, error)
}

// OccurrenceRepository defines the interface for the lead audit trail
type OccurrenceRepository interface {
	Create(ctx context.Context, occurrence *models.Occurrence) error
	ListByLead(ctx context.Context, leadID int64) ([]*models.Occurrence, error)
}

// ProductRepository defines the interface for products and lead links
type ProductRepository interface {
	FindByIDs(ctx context.Context, ids []int64) ([]*models.Product, error)
	ListByLeads(ctx context.Context, leadIDs []int64) (map[int64][]*models.Product, error)
	LinkToLead(ctx context.Context, leadID int64, productIDs []int64) error
	UnlinkAll(ctx context.Context, leadID int64) error
}

// Transactor runs a function inside one database transaction carried by the
// context. Repositories called with that context join the transaction.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Repositories holds all repository interfaces
type Repositories struct {
	User       UserRepository
	Lead       LeadRepository
	Board      BoardRepository
	Placement  PlacementRepository
	Pipeline   PipelineRepository
	Occurrence OccurrenceRepository
	Product    ProductRepository
	Tx         Transactor
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		User:       NewUserRepo(db),
		Lead:       NewLeadRepo(db),
		Board:      NewBoardRepo(db),
		Placement:  NewPlacementRepo(db),
		Pipeline:   NewPipelineRepo(db),
		Occurrence: NewOccurrenceRepo(db),
		Product:    NewProductRepo(db),
		Tx:         db,
	}
}
