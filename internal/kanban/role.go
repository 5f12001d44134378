// Package kanban holds the pure placement rules of the pipeline engine:
// board classification, the transition table, initial placement and owner
// resolution. Nothing here performs I/O.
package kanban

import (
	"github.com/kanban-crm-api/internal/models"
)

// Role is the semantic position of a board inside its view
type Role string

const (
	RoleNew          Role = "NEW"
	RoleAgent        Role = "AGENT"
	RoleCollaborator Role = "COLLABORATOR"
	RoleStatus       Role = "STATUS"
)

type classificationRule struct {
	role  Role
	match func(b *models.Board) bool
}

// classificationRules are evaluated top-down and the first match wins.
// The order is load-bearing: a board can carry collaborator_id and agent_id
// at the same time, and a status board also carries collaborator_id.
var classificationRules = []classificationRule{
	{RoleNew, func(b *models.Board) bool {
		return b.Name == models.NovosBoardName
	}},
	{RoleStatus, func(b *models.Board) bool {
		return b.Type == models.BoardTypeCollaborator && b.StatusID != nil
	}},
	{RoleCollaborator, func(b *models.Board) bool {
		return (b.Type == models.BoardTypeCollaborator || b.Type == models.BoardTypeAgent) && b.CollaboratorID != nil
	}},
	{RoleAgent, func(b *models.Board) bool {
		return (b.Type == models.BoardTypeAgent || b.Type == models.BoardTypeAdmin) && b.AgentID != nil
	}},
}

// Classify maps a board to its role. Boards matching no rule are NEW.
func Classify(b *models.Board) Role {
	for _, rule := range classificationRules {
		if rule.match(b) {
			return rule.role
		}
	}
	return RoleNew
}

// ColumnRole is the role of the non-NEW columns of a view
func ColumnRole(t models.BoardType) Role {
	switch t {
	case models.BoardTypeAdmin:
		return RoleAgent
	case models.BoardTypeAgent:
		return RoleCollaborator
	case models.BoardTypeCollaborator:
		return RoleStatus
	}
	return ""
}

// ResolveFlow returns the board's flow direction, falling back to its
// template's and then to BUYER
func ResolveFlow(b *models.Board, template *models.PipelineTemplate) models.FlowDirection {
	if b.FlowDirection != "" {
		return b.FlowDirection
	}
	if template != nil && template.FlowDirection != nil && *template.FlowDirection != "" {
		return *template.FlowDirection
	}
	return models.FlowBuyer
}
