package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/kanban-crm-api/internal/apperr"
	"github.com/kanban-crm-api/internal/database"
	"github.com/kanban-crm-api/internal/models"
	"github.com/lib/pq"
)

// boardRepo is the concrete implementation of BoardRepository
type boardRepo struct {
	db *database.DB
}

// NewBoardRepo creates a new board repository
func NewBoardRepo(db *database.DB) BoardRepository {
	return &boardRepo{db: db}
}

const boardColumns = `id, name, color, type, owner_user_id, agent_id, collaborator_id, pipeline_template_id,
	status_id, "order", flow_direction, active, created_at, updated_at`

// Create inserts a new board and fills its generated id
func (r *boardRepo) Create(ctx context.Context, board *models.Board) error {
	query := `
		INSERT INTO kanban_boards (name, color, type, owner_user_id, agent_id, collaborator_id,
			pipeline_template_id, status_id, "order", flow_direction, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		RETURNING id, created_at, updated_at
	`
	err := r.db.Conn(ctx).QueryRowContext(ctx, query,
		board.Name, board.Color, board.Type, board.OwnerUserID, board.AgentID, board.CollaboratorID,
		board.PipelineTemplateID, board.StatusID, board.Order, nullFlow(board.FlowDirection),
		board.Active, time.Now(),
	).Scan(&board.ID, &board.CreatedAt, &board.UpdatedAt)
	return mapError(err)
}

// Update persists the mutable fields of a board
func (r *boardRepo) Update(ctx context.Context, board *models.Board) error {
	query := `
		UPDATE kanban_boards SET name = $1, color = $2, "order" = $3, active = $4, updated_at = $5
		WHERE id = $6
		RETURNING updated_at
	`
	err := r.db.Conn(ctx).QueryRowContext(ctx, query,
		board.Name, board.Color, board.Order, board.Active, time.Now(), board.ID,
	).Scan(&board.UpdatedAt)
	if err == sql.ErrNoRows {
		return apperr.NotFoundf("board %d not found", board.ID)
	}
	return mapError(err)
}

// GetByID retrieves a board by ID, active or not
func (r *boardRepo) GetByID(ctx context.Context, id int64) (*models.Board, error) {
	return r.getOne(ctx, `SELECT `+boardColumns+` FROM kanban_boards WHERE id = $1`, id)
}

// GetByIDForUpdate retrieves a board and locks its row
func (r *boardRepo) GetByIDForUpdate(ctx context.Context, id int64) (*models.Board, error) {
	return r.getOne(ctx, `SELECT `+boardColumns+` FROM kanban_boards WHERE id = $1 FOR UPDATE`, id)
}

// FindNovos returns the active "Novos" board of a view. Boards stored without
// a flow direction count as BUYER.
func (r *boardRepo) FindNovos(ctx context.Context, boardType models.BoardType, ownerID int64, flow models.FlowDirection) (*models.Board, error) {
	query := `
		SELECT ` + boardColumns + ` FROM kanban_boards
		WHERE name = $1 AND type = $2 AND owner_user_id = $3
			AND COALESCE(flow_direction, 'BUYER') = $4 AND active
		ORDER BY id
		LIMIT 1
	`
	return r.getOne(ctx, query, models.NovosBoardName, boardType, ownerID, string(flow))
}

// FindStatusBoard returns the active STATUS board of a collaborator
func (r *boardRepo) FindStatusBoard(ctx context.Context, collaboratorID, statusID int64, flow models.FlowDirection) (*models.Board, error) {
	query := `
		SELECT ` + boardColumns + ` FROM kanban_boards
		WHERE type = $1 AND collaborator_id = $2 AND status_id = $3
			AND COALESCE(flow_direction, 'BUYER') = $4 AND active AND name <> $5
		ORDER BY id
		LIMIT 1
	`
	return r.getOne(ctx, query, models.BoardTypeCollaborator, collaboratorID, statusID, string(flow), models.NovosBoardName)
}

// List returns active boards ordered by (order, id)
func (r *boardRepo) List(ctx context.Context, filter models.BoardFilter) ([]*models.Board, error) {
	q := &query{}
	q.where("active")
	if filter.Type != "" {
		q.where("type = " + q.arg(string(filter.Type)))
	}
	if filter.FlowDirection != "" {
		q.where("COALESCE(flow_direction, 'BUYER') = " + q.arg(string(filter.FlowDirection)))
	}
	if filter.OwnerUserID != nil {
		q.where("owner_user_id = " + q.arg(*filter.OwnerUserID))
	}
	if len(filter.IDs) > 0 {
		q.where("id = ANY(" + q.arg(pq.Array(filter.IDs)) + ")")
	}

	rows, err := r.db.Conn(ctx).QueryContext(ctx,
		`SELECT `+boardColumns+` FROM kanban_boards`+q.whereClause()+` ORDER BY "order", id`, q.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var boards []*models.Board
	for rows.Next() {
		board, err := scanBoard(rows)
		if err != nil {
			return nil, err
		}
		boards = append(boards, board)
	}
	return boards, rows.Err()
}

// NextOrder returns the display position after the last board of a view
func (r *boardRepo) NextOrder(ctx context.Context, boardType models.BoardType, ownerID int64, flow models.FlowDirection) (int, error) {
	query := `
		SELECT COALESCE(MAX("order"), -1) + 1 FROM kanban_boards
		WHERE type = $1 AND owner_user_id = $2 AND COALESCE(flow_direction, 'BUYER') = $3 AND active
	`
	var next int
	err := r.db.Conn(ctx).QueryRowContext(ctx, query, boardType, ownerID, string(flow)).Scan(&next)
	return next, err
}

// CountLeads counts the leads a board scope selects
func (r *boardRepo) CountLeads(ctx context.Context, scope models.PlacementScope) (int, error) {
	q := &query{}
	from := ` FROM leads l` + q.scopeJoin(&scope)
	q.scopeWhere(&scope)

	var count int
	err := r.db.Conn(ctx).QueryRowContext(ctx, `SELECT COUNT(*)`+from+q.whereClause(), q.args...).Scan(&count)
	return count, err
}

func (r *boardRepo) getOne(ctx context.Context, query string, args ...interface{}) (*models.Board, error) {
	board, err := scanBoard(r.db.Conn(ctx).QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return board, nil
}

func scanBoard(row rowScanner) (*models.Board, error) {
	var board models.Board
	var flow sql.NullString
	err := row.Scan(
		&board.ID, &board.Name, &board.Color, &board.Type, &board.OwnerUserID,
		&board.AgentID, &board.CollaboratorID, &board.PipelineTemplateID, &board.StatusID,
		&board.Order, &flow, &board.Active, &board.CreatedAt, &board.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	board.FlowDirection = models.FlowDirection(flow.String)
	return &board, nil
}
