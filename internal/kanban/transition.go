package kanban

import (
	"github.com/kanban-crm-api/internal/apperr"
	"github.com/kanban-crm-api/internal/models"
)

// Rule is one legal move inside a view
type Rule struct {
	SourceType models.BoardType
	From       Role
	To         Role
	// InsertsWhenUnplaced allows the move for a lead without a placement row
	InsertsWhenUnplaced bool
}

type ruleKey struct {
	sourceType models.BoardType
	from       Role
	to         Role
}

// Rules lists every legal move, three per view
var Rules = []Rule{
	{SourceType: models.BoardTypeAdmin, From: RoleNew, To: RoleAgent, InsertsWhenUnplaced: true},
	{SourceType: models.BoardTypeAdmin, From: RoleAgent, To: RoleNew},
	{SourceType: models.BoardTypeAdmin, From: RoleAgent, To: RoleAgent},

	{SourceType: models.BoardTypeAgent, From: RoleNew, To: RoleCollaborator},
	{SourceType: models.BoardTypeAgent, From: RoleCollaborator, To: RoleNew},
	{SourceType: models.BoardTypeAgent, From: RoleCollaborator, To: RoleCollaborator},

	{SourceType: models.BoardTypeCollaborator, From: RoleNew, To: RoleStatus},
	{SourceType: models.BoardTypeCollaborator, From: RoleStatus, To: RoleNew},
	{SourceType: models.BoardTypeCollaborator, From: RoleStatus, To: RoleStatus},
}

var rulesByKey = func() map[ruleKey]Rule {
	m := make(map[ruleKey]Rule, len(Rules))
	for _, r := range Rules {
		m[ruleKey{r.SourceType, r.From, r.To}] = r
	}
	return m
}()

// Lookup finds the rule for a (source type, source role, destination role) triple
func Lookup(sourceType models.BoardType, from, to Role) (Rule, bool) {
	r, ok := rulesByKey[ruleKey{sourceType, from, to}]
	return r, ok
}

// Plan classifies both boards and returns the rule governing the move
func Plan(from, to *models.Board) (Rule, error) {
	fromRole := Classify(from)
	toRole := Classify(to)

	if r, ok := Lookup(from.Type, fromRole, toRole); ok {
		return r, nil
	}

	// A same-view column that classifies to the wrong role is missing the
	// field that would make it a column of this view.
	if to.Type == from.Type && !to.IsNovos() && toRole != RoleNew && toRole != ColumnRole(from.Type) {
		return Rule{}, apperr.InvalidConfigurationf("board %q is not configured as a %s column: %s",
			to.Name, ColumnRole(from.Type), missingField(ColumnRole(from.Type)))
	}
	return Rule{}, apperr.InvalidOperationf("cannot move a lead from a %s board to a %s board in the %s view",
		fromRole, toRole, from.Type)
}

// Apply computes the assignment after moving into dest
func (r Rule) Apply(dest *models.Board, current models.Assignment) (models.Assignment, error) {
	return effect(r.SourceType, dest, r.To, current)
}

// effect sets the fields owned by the destination's stage and clears the
// fields of narrower stages. Fields of broader stages are kept.
func effect(viewType models.BoardType, dest *models.Board, destRole Role, current models.Assignment) (models.Assignment, error) {
	next := current
	switch destRole {
	case RoleAgent:
		if dest.AgentID == nil {
			return current, apperr.InvalidConfigurationf("board %q has no %s", dest.Name, missingField(RoleAgent))
		}
		next.VendorID = copyID(dest.AgentID)
		next.CollaboratorID = nil
		next.StatusID = nil
	case RoleCollaborator:
		if dest.CollaboratorID == nil {
			return current, apperr.InvalidConfigurationf("board %q has no %s", dest.Name, missingField(RoleCollaborator))
		}
		next.CollaboratorID = copyID(dest.CollaboratorID)
		next.StatusID = nil
	case RoleStatus:
		if dest.StatusID == nil {
			return current, apperr.InvalidConfigurationf("board %q has no %s", dest.Name, missingField(RoleStatus))
		}
		next.StatusID = copyID(dest.StatusID)
	case RoleNew:
		switch viewType {
		case models.BoardTypeAdmin:
			next.VendorID = nil
			next.CollaboratorID = nil
			next.StatusID = nil
		case models.BoardTypeAgent:
			next.CollaboratorID = nil
			next.StatusID = nil
		case models.BoardTypeCollaborator:
			next.StatusID = nil
		}
	}
	return next, nil
}

func missingField(r Role) string {
	switch r {
	case RoleAgent:
		return "agent_id"
	case RoleCollaborator:
		return "collaborator_id"
	case RoleStatus:
		return "status_id"
	}
	return "role field"
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
