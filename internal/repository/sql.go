package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/kanban-crm-api/internal/apperr"
	"github.com/kanban-crm-api/internal/models"
	"github.com/lib/pq"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// mapError translates driver errors into error kinds. Other errors pass
// through unchanged.
func mapError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case pqUniqueViolation:
		return fmt.Errorf("%w: %s", apperr.ErrConflict, pqErr.Detail)
	case pqForeignKeyViolation:
		return fmt.Errorf("%w: %s", apperr.ErrNotFound, pqErr.Detail)
	}
	return err
}

// query accumulates WHERE conditions and their positional arguments
type query struct {
	conds []string
	args  []interface{}
}

// arg binds v and returns its placeholder
func (q *query) arg(v interface{}) string {
	q.args = append(q.args, v)
	return fmt.Sprintf("$%d", len(q.args))
}

func (q *query) where(cond string) {
	q.conds = append(q.conds, cond)
}

func (q *query) whereClause() string {
	if len(q.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(q.conds, " AND ")
}

// scopeJoin joins the placement row of the scope's flow direction as alias s
func (q *query) scopeJoin(scope *models.PlacementScope) string {
	return " LEFT JOIN lead_kanban_status s ON s.lead_id = l.id AND s.flow_direction = " + q.arg(string(scope.FlowDirection))
}

// scopeWhere adds the conditions of a placement scope. It mirrors
// models.PlacementScope.Matches.
func (q *query) scopeWhere(scope *models.PlacementScope) {
	var conds []string
	conds = appendField(q, conds, "s.vendor_id", scope.VendorID, scope.VendorNull)
	conds = appendField(q, conds, "s.collaborator_id", scope.CollaboratorID, scope.CollaboratorNull)
	conds = appendField(q, conds, "s.status_id", scope.StatusID, scope.StatusNull)

	placed := "s.id IS NOT NULL"
	if len(conds) > 0 {
		placed += " AND " + strings.Join(conds, " AND ")
	}
	if scope.IncludeUnplaced {
		q.where("(s.id IS NULL OR (" + placed + "))")
		return
	}
	q.where(placed)
}

func appendField(q *query, conds []string, column string, want *int64, wantNull bool) []string {
	switch {
	case wantNull:
		return append(conds, column+" IS NULL")
	case want != nil:
		return append(conds, column+" = "+q.arg(*want))
	}
	return conds
}

// visibilityWhere restricts leads to those the compiled rule allows. flow,
// when set, narrows the check to placements of that direction.
func (q *query) visibilityWhere(v *models.LeadVisibility, flow models.FlowDirection) {
	if v == nil || v.All {
		return
	}

	var ors []string
	if v.VendorID != nil {
		ors = append(ors, "p.vendor_id = "+q.arg(*v.VendorID))
	}
	if len(v.CollaboratorIDs) > 0 {
		ors = append(ors, "p.collaborator_id = ANY("+q.arg(pq.Array(v.CollaboratorIDs))+")")
	}
	if len(ors) == 0 {
		q.where("FALSE")
		return
	}

	sub := "EXISTS (SELECT 1 FROM lead_kanban_status p WHERE p.lead_id = l.id AND (" + strings.Join(ors, " OR ") + ")"
	if flow != "" {
		sub += " AND p.flow_direction = " + q.arg(string(flow))
	}
	q.where(sub + ")")
}

// flowWhere keeps leads holding a placement in flow direction flow
func (q *query) flowWhere(flow models.FlowDirection) {
	if flow == "" {
		return
	}
	q.where("EXISTS (SELECT 1 FROM lead_kanban_status f WHERE f.lead_id = l.id AND f.flow_direction = " + q.arg(string(flow)) + ")")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullFlow(f models.FlowDirection) sql.NullString {
	return nullString(string(f))
}
