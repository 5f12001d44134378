package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/kanban-crm-api/internal/database"
	"github.com/kanban-crm-api/internal/models"
)

// occurrenceRepo is the concrete implementation of OccurrenceRepository
type occurrenceRepo struct {
	db *database.DB
}

// NewOccurrenceRepo creates a new occurrence repository
func NewOccurrenceRepo(db *database.DB) OccurrenceRepository {
	return &occurrenceRepo{db: db}
}

// Create appends an entry to a lead's audit trail
func (r *occurrenceRepo) Create(ctx context.Context, o *models.Occurrence) error {
	query := `
		INSERT INTO occurrences (lead_id, text, kind, user_id, flow_direction, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	var flow sql.NullString
	if o.FlowDirection != nil {
		flow = nullFlow(*o.FlowDirection)
	}
	err := r.db.Conn(ctx).QueryRowContext(ctx, query,
		o.LeadID, o.Text, o.Kind, o.UserID, flow, time.Now(),
	).Scan(&o.ID, &o.CreatedAt)
	return mapError(err)
}

// ListByLead returns a lead's audit trail, oldest first
func (r *occurrenceRepo) ListByLead(ctx context.Context, leadID int64) ([]*models.Occurrence, error) {
	query := `
		SELECT id, lead_id, text, kind, user_id, flow_direction, created_at
		FROM occurrences WHERE lead_id = $1 ORDER BY created_at, id
	`
	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var occurrences []*models.Occurrence
	for rows.Next() {
		var o models.Occurrence
		var flow sql.NullString
		if err := rows.Scan(&o.ID, &o.LeadID, &o.Text, &o.Kind, &o.UserID, &flow, &o.CreatedAt); err != nil {
			return nil, err
		}
		if flow.Valid {
			f := models.FlowDirection(flow.String)
			o.FlowDirection = &f
		}
		occurrences = append(occurrences, &o)
	}
	return occurrences, rows.Err()
}
