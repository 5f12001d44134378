package repository

import (
	"context"

	"github.com/kanban-crm-api/internal/database"
	"github.com/kanban-crm-api/internal/models"
	"github.com/lib/pq"
)

// productRepo is the concrete implementation of ProductRepository
type productRepo struct {
	db *database.DB
}

// NewProductRepo creates a new product repository
func NewProductRepo(db *database.DB) ProductRepository {
	return &productRepo{db: db}
}

// FindByIDs returns the products that exist among ids
func (r *productRepo) FindByIDs(ctx context.Context, ids []int64) ([]*models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT id, name, active, created_at FROM products WHERE id = ANY($1) ORDER BY id`
	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Active, &p.CreatedAt); err != nil {
			return nil, err
		}
		products = append(products, &p)
	}
	return products, rows.Err()
}

// ListByLeads returns the products of many leads keyed by lead id
func (r *productRepo) ListByLeads(ctx context.Context, leadIDs []int64) (map[int64][]*models.Product, error) {
	result := make(map[int64][]*models.Product, len(leadIDs))
	if len(leadIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT lp.lead_id, p.id, p.name, p.active, p.created_at
		FROM lead_products lp
		JOIN products p ON p.id = lp.product_id
		WHERE lp.lead_id = ANY($1)
		ORDER BY lp.lead_id, p.id
	`
	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, pq.Array(leadIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var leadID int64
		var p models.Product
		if err := rows.Scan(&leadID, &p.ID, &p.Name, &p.Active, &p.CreatedAt); err != nil {
			return nil, err
		}
		result[leadID] = append(result[leadID], &p)
	}
	return result, rows.Err()
}

// LinkToLead attaches products to a lead; existing links are kept
func (r *productRepo) LinkToLead(ctx context.Context, leadID int64, productIDs []int64) error {
	if len(productIDs) == 0 {
		return nil
	}

	query := `
		INSERT INTO lead_products (lead_id, product_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT DO NOTHING
	`
	_, err := r.db.Conn(ctx).ExecContext(ctx, query, leadID, pq.Array(productIDs))
	return mapError(err)
}

// UnlinkAll detaches every product from a lead
func (r *productRepo) UnlinkAll(ctx context.Context, leadID int64) error {
	_, err := r.db.Conn(ctx).ExecContext(ctx, `DELETE FROM lead_products WHERE lead_id = $1`, leadID)
	return err
}
