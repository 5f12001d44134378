package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kanban-crm-api/internal/apperr"
	"github.com/kanban-crm-api/internal/database"
	"github.com/kanban-crm-api/internal/models"
)

// leadRepo is the concrete implementation of LeadRepository
type leadRepo struct {
	db *database.DB
}

// NewLeadRepo creates a new lead repository
func NewLeadRepo(db *database.DB) LeadRepository {
	return &leadRepo{db: db}
}

const leadColumns = `l.id, l.name, l.email, l.phone, l.document, l.source, l.notes, l.status_id, l.created_at, l.updated_at`

// Create inserts a new lead and fills its generated id
func (r *leadRepo) Create(ctx context.Context, lead *models.Lead) error {
	query := `
		INSERT INTO leads (name, email, phone, document, source, notes, status_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING id, created_at, updated_at
	`
	err := r.db.Conn(ctx).QueryRowContext(ctx, query,
		lead.Name, nullString(lead.Email), nullString(lead.Phone), nullString(lead.Document),
		nullString(lead.Source), nullString(lead.Notes), lead.StatusID, time.Now(),
	).Scan(&lead.ID, &lead.CreatedAt, &lead.UpdatedAt)
	return mapError(err)
}

// Update overwrites the contact fields of a lead
func (r *leadRepo) Update(ctx context.Context, lead *models.Lead) error {
	query := `
		UPDATE leads SET
			name = $1, email = $2, phone = $3, document = $4, source = $5, notes = $6,
			updated_at = $7
		WHERE id = $8
		RETURNING updated_at
	`
	err := r.db.Conn(ctx).QueryRowContext(ctx, query,
		lead.Name, nullString(lead.Email), nullString(lead.Phone), nullString(lead.Document),
		nullString(lead.Source), nullString(lead.Notes), time.Now(), lead.ID,
	).Scan(&lead.UpdatedAt)
	if err == sql.ErrNoRows {
		return apperr.NotFoundf("lead %d not found", lead.ID)
	}
	return mapError(err)
}

// Delete removes a lead; placements, product links and occurrences cascade
func (r *leadRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Conn(ctx).ExecContext(ctx, `DELETE FROM leads WHERE id = $1`, id)
	return err
}

// GetByID retrieves a lead by ID
func (r *leadRepo) GetByID(ctx context.Context, id int64) (*models.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads l WHERE l.id = $1`

	lead, err := scanLead(r.db.Conn(ctx).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return lead, nil
}

// List returns the leads matching the filter, newest first
func (r *leadRepo) List(ctx context.Context, filter models.LeadFilter) ([]*models.Lead, error) {
	var leads []*models.Lead
	err := r.stream(ctx, filter, true, func(lead *models.Lead) error {
		leads = append(leads, lead)
		return nil
	})
	return leads, err
}

// Count returns the number of leads matching the filter, ignoring paging
func (r *leadRepo) Count(ctx context.Context, filter models.LeadFilter) (int, error) {
	q := &query{}
	from := leadFrom(q, filter)

	var count int
	err := r.db.Conn(ctx).QueryRowContext(ctx, `SELECT COUNT(*)`+from, q.args...).Scan(&count)
	return count, err
}

// StreamAll streams every lead matching the filter (memory efficient)
func (r *leadRepo) StreamAll(ctx context.Context, filter models.LeadFilter, callback func(*models.Lead) error) error {
	return r.stream(ctx, filter, false, callback)
}

func (r *leadRepo) stream(ctx context.Context, filter models.LeadFilter, paged bool, callback func(*models.Lead) error) error {
	q := &query{}
	sqlText := `SELECT ` + leadColumns + leadFrom(q, filter) + ` ORDER BY l.created_at DESC, l.id DESC`
	if paged && filter.Limit > 0 {
		sqlText += ` LIMIT ` + q.arg(filter.Limit)
	}
	if paged && filter.Offset > 0 {
		sqlText += ` OFFSET ` + q.arg(filter.Offset)
	}

	rows, err := r.db.Conn(ctx).QueryContext(ctx, sqlText, q.args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return err
		}
		if err := callback(lead); err != nil {
			return err
		}
	}
	return rows.Err()
}

// leadFrom renders the FROM/JOIN/WHERE part shared by listing and counting
func leadFrom(q *query, filter models.LeadFilter) string {
	from := ` FROM leads l`
	if filter.Scope != nil {
		from += q.scopeJoin(filter.Scope)
		q.scopeWhere(filter.Scope)
	}
	q.flowWhere(filter.FlowDirection)
	q.visibilityWhere(filter.Visibility, filter.FlowDirection)
	if filter.Search != "" {
		p := q.arg("%" + likeEscaper.Replace(filter.Search) + "%")
		q.where(fmt.Sprintf("(l.name ILIKE %[1]s OR l.email ILIKE %[1]s OR l.phone ILIKE %[1]s OR l.document ILIKE %[1]s)", p))
	}
	return from + q.whereClause()
}

func scanLead(row rowScanner) (*models.Lead, error) {
	var lead models.Lead
	var email, phone, document, source, notes sql.NullString
	err := row.Scan(
		&lead.ID, &lead.Name, &email, &phone, &document, &source, &notes,
		&lead.StatusID, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	lead.Email = email.String
	lead.Phone = phone.String
	lead.Document = document.String
	lead.Source = source.String
	lead.Notes = notes.String
	return &lead, nil
}
