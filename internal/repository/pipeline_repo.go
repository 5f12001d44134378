package repository

import (
	"context"
	"database/sql"

	"github.com/kanban-crm-api/internal/database"
	"github.com/kanban-crm-api/internal/models"
)

// pipelineRepo is the concrete implementation of PipelineRepository
type pipelineRepo struct {
	db *database.DB
}

// NewPipelineRepo creates a new pipeline repository
func NewPipelineRepo(db *database.DB) PipelineRepository {
	return &pipelineRepo{db: db}
}

// GetTemplate retrieves a pipeline template by ID
func (r *pipelineRepo) GetTemplate(ctx context.Context, id int64) (*models.PipelineTemplate, error) {
	query := `SELECT id, name, flow_direction, active, created_at FROM pipeline_templates WHERE id = $1`

	var t models.PipelineTemplate
	var flow sql.NullString
	err := r.db.Conn(ctx).QueryRowContext(ctx, query, id).Scan(&t.ID, &t.Name, &flow, &t.Active, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if flow.Valid {
		f := models.FlowDirection(flow.String)
		t.FlowDirection = &f
	}
	return &t, nil
}

// GetStatus retrieves a pipeline status by ID
func (r *pipelineRepo) GetStatus(ctx context.Context, id int64) (*models.PipelineStatus, error) {
	query := `SELECT id, name, color, active FROM pipeline_statuses WHERE id = $1`

	status, err := scanStatus(r.db.Conn(ctx).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return status, nil
}

// ListStatusesForTemplate returns the active statuses of a template ordered
// by the linkage id
func (r *pipelineRepo) ListStatusesForTemplate(ctx context.Context, templateID int64) ([]*models.PipelineStatus, error) {
	query := `
		SELECT s.id, s.name, s.color, s.active
		FROM pipeline_template_statuses ts
		JOIN pipeline_statuses s ON s.id = ts.status_id
		WHERE ts.template_id = $1 AND s.active
		ORDER BY ts.id
	`
	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, templateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var statuses []*models.PipelineStatus
	for rows.Next() {
		status, err := scanStatus(rows)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}
	return statuses, rows.Err()
}

func scanStatus(row rowScanner) (*models.PipelineStatus, error) {
	var s models.PipelineStatus
	var color sql.NullString
	if err := row.Scan(&s.ID, &s.Name, &color, &s.Active); err != nil {
		return nil, err
	}
	s.Color = color.String
	return &s, nil
}
