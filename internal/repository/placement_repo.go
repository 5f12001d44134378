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

// placementRepo is the concrete implementation of PlacementRepository
type placementRepo struct {
	db *database.DB
}

// NewPlacementRepo creates a new placement repository
func NewPlacementRepo(db *database.DB) PlacementRepository {
	return &placementRepo{db: db}
}

const placementColumns = `id, lead_id, flow_direction, vendor_id, collaborator_id, status_id, version, created_at, updated_at`

// FindByLeadAndFlow retrieves the placement of a lead in one flow direction
func (r *placementRepo) FindByLeadAndFlow(ctx context.Context, leadID int64, flow models.FlowDirection) (*models.Placement, error) {
	query := `SELECT ` + placementColumns + ` FROM lead_kanban_status WHERE lead_id = $1 AND flow_direction = $2`

	placement, err := scanPlacement(r.db.Conn(ctx).QueryRowContext(ctx, query, leadID, string(flow)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return placement, nil
}

// ListByLead returns every placement of a lead
func (r *placementRepo) ListByLead(ctx context.Context, leadID int64) ([]*models.Placement, error) {
	byLead, err := r.ListByLeads(ctx, []int64{leadID})
	if err != nil {
		return nil, err
	}
	return byLead[leadID], nil
}

// ListByLeads returns the placements of many leads keyed by lead id
func (r *placementRepo) ListByLeads(ctx context.Context, leadIDs []int64) (map[int64][]*models.Placement, error) {
	result := make(map[int64][]*models.Placement, len(leadIDs))
	if len(leadIDs) == 0 {
		return result, nil
	}

	query := `SELECT ` + placementColumns + ` FROM lead_kanban_status WHERE lead_id = ANY($1) ORDER BY lead_id, flow_direction`
	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, pq.Array(leadIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		placement, err := scanPlacement(rows)
		if err != nil {
			return nil, err
		}
		result[placement.LeadID] = append(result[placement.LeadID], placement)
	}
	return result, rows.Err()
}

// Insert creates the placement row of a lead. A second row for the same
// (lead, flow) fails with apperr.ErrConflict.
func (r *placementRepo) Insert(ctx context.Context, placement *models.Placement) error {
	query := `
		INSERT INTO lead_kanban_status (lead_id, flow_direction, vendor_id, collaborator_id, status_id, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 1, $6, $6)
		RETURNING id, version, created_at, updated_at
	`
	err := r.db.Conn(ctx).QueryRowContext(ctx, query,
		placement.LeadID, string(placement.FlowDirection), placement.VendorID, placement.CollaboratorID,
		placement.StatusID, time.Now(),
	).Scan(&placement.ID, &placement.Version, &placement.CreatedAt, &placement.UpdatedAt)
	return mapError(err)
}

// Update writes the assignment of an existing placement row
func (r *placementRepo) Update(ctx context.Context, placement *models.Placement, checkVersion bool) error {
	q := &query{}
	set := `UPDATE lead_kanban_status SET vendor_id = ` + q.arg(placement.VendorID) +
		`, collaborator_id = ` + q.arg(placement.CollaboratorID) +
		`, status_id = ` + q.arg(placement.StatusID) +
		`, version = version + 1, updated_at = ` + q.arg(time.Now())
	q.where("id = " + q.arg(placement.ID))
	if checkVersion {
		q.where("version = " + q.arg(placement.Version))
	}

	err := r.db.Conn(ctx).QueryRowContext(ctx, set+q.whereClause()+` RETURNING version, updated_at`, q.args...).
		Scan(&placement.Version, &placement.UpdatedAt)
	if err == sql.ErrNoRows {
		if checkVersion {
			return apperr.Conflictf("placement of lead %d in %s was modified concurrently", placement.LeadID, placement.FlowDirection)
		}
		return apperr.InconsistentStatef("placement %d of lead %d disappeared", placement.ID, placement.LeadID)
	}
	return mapError(err)
}

func scanPlacement(row rowScanner) (*models.Placement, error) {
	var p models.Placement
	err := row.Scan(
		&p.ID, &p.LeadID, &p.FlowDirection, &p.VendorID, &p.CollaboratorID, &p.StatusID,
		&p.Version, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
