package kanban

import (
	"github.com/kanban-crm-api/internal/apperr"
	"github.com/kanban-crm-api/internal/models"
)

// ResolveOwner returns the owner of a board of type t created or looked up by
// actor. explicit is the user named by the request's agent_id (AGENT boards)
// or collaborator_id (COLLABORATOR boards), nil when none was given.
//
//	ADMIN                       -> actor (must be an admin)
//	AGENT with agent_id         -> agent_id (admin or that agent)
//	AGENT without               -> actor (must be an agent)
//	COLLABORATOR with collab_id -> collab_id (admin, parent agent or self)
//	COLLABORATOR without        -> actor (must be a collaborator)
func ResolveOwner(t models.BoardType, actor, explicit *models.User) (int64, error) {
	switch t {
	case models.BoardTypeAdmin:
		if !actor.IsAdmin() {
			return 0, apperr.Forbiddenf("only admins own ADMIN boards")
		}
		return actor.ID, nil

	case models.BoardTypeAgent:
		if explicit == nil {
			if !actor.IsAgent() {
				return 0, apperr.Forbiddenf("agent_id is required unless the caller is an agent")
			}
			return actor.ID, nil
		}
		if !explicit.IsAgent() {
			return 0, apperr.InvalidOperationf("user %d is not an agent", explicit.ID)
		}
		if !actor.IsAdmin() && actor.ID != explicit.ID {
			return 0, apperr.Forbiddenf("user %d cannot manage boards of agent %d", actor.ID, explicit.ID)
		}
		return explicit.ID, nil

	case models.BoardTypeCollaborator:
		if explicit == nil {
			if !actor.IsCollaborator() {
				return 0, apperr.Forbiddenf("collaborator_id is required unless the caller is a collaborator")
			}
			return actor.ID, nil
		}
		if !explicit.IsCollaborator() {
			return 0, apperr.InvalidOperationf("user %d is not a collaborator", explicit.ID)
		}
		if !actor.IsAdmin() && !actor.IsParentOf(explicit) && actor.ID != explicit.ID {
			return 0, apperr.Forbiddenf("user %d cannot manage boards of collaborator %d", actor.ID, explicit.ID)
		}
		return explicit.ID, nil
	}

	return 0, apperr.InvalidArgumentf("unknown board type %q", t)
}
