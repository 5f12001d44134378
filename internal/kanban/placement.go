package kanban

import (
	"github.com/kanban-crm-api/internal/apperr"
	"github.com/kanban-crm-api/internal/models"
)

// InitialAssignment computes the placement of a lead created directly in
// board b. vendorID and collaboratorID are the caller-supplied references.
// They take precedence over the board's defaults for the outer stages, the
// stage the board itself represents is always taken from the board.
func InitialAssignment(b *models.Board, vendorID, collaboratorID *int64) (models.Assignment, error) {
	role := Classify(b)
	if role != RoleNew && role != ColumnRole(b.Type) {
		if !b.IsNovos() && ColumnRole(b.Type) != "" {
			return models.Assignment{}, apperr.InvalidConfigurationf("board %q is not configured as a %s column: %s",
				b.Name, ColumnRole(b.Type), missingField(ColumnRole(b.Type)))
		}
		return models.Assignment{}, apperr.InvalidOperationf("leads cannot be created in a %s board of the %s view", role, b.Type)
	}

	var seed models.Assignment
	switch b.Type {
	case models.BoardTypeAgent:
		seed.VendorID = firstID(vendorID, b.AgentID, &b.OwnerUserID)
	case models.BoardTypeCollaborator:
		seed.VendorID = firstID(vendorID, b.AgentID)
		seed.CollaboratorID = firstID(collaboratorID, b.CollaboratorID, &b.OwnerUserID)
	case models.BoardTypeAdmin:
	default:
		return models.Assignment{}, apperr.InvalidArgumentf("unknown board type %q", b.Type)
	}

	return effect(b.Type, b, role, seed)
}

// Scope returns the placement filter selecting the leads shown on board b
// within flow direction flow
func Scope(b *models.Board, flow models.FlowDirection) models.PlacementScope {
	scope := models.PlacementScope{FlowDirection: flow}
	owner := copyID(&b.OwnerUserID)

	switch Classify(b) {
	case RoleAgent:
		scope.VendorID = copyID(b.AgentID)
	case RoleCollaborator:
		scope.CollaboratorID = copyID(b.CollaboratorID)
	case RoleStatus:
		scope.CollaboratorID = copyID(b.CollaboratorID)
		scope.StatusID = copyID(b.StatusID)
	case RoleNew:
		switch b.Type {
		case models.BoardTypeAdmin:
			scope.IncludeUnplaced = true
			scope.VendorNull = true
		case models.BoardTypeAgent:
			scope.VendorID = owner
			scope.CollaboratorNull = true
		case models.BoardTypeCollaborator:
			scope.CollaboratorID = owner
			scope.StatusNull = true
		}
	}
	return scope
}

func firstID(ids ...*int64) *int64 {
	for _, id := range ids {
		if id != nil {
			return copyID(id)
		}
	}
	return nil
}
