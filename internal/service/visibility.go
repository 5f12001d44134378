package service

import (
	"context"
	"fmt"

	"github.com/kanban-crm-api/internal/apperr"
	"github.com/kanban-crm-api/internal/models"
	"github.com/kanban-crm-api/internal/repository"
)

// visibility decides which leads and boards a user may see
type visibility struct {
	users repository.UserRepository
}

func newVisibility(users repository.UserRepository) *visibility {
	return &visibility{users: users}
}

// Scope compiles the lead visibility of actor. Agents see leads they vend
// and leads held by their collaborators; collaborators see their own.
func (v *visibility) Scope(ctx context.Context, actor *models.User) (models.LeadVisibility, error) {
	switch actor.Profile {
	case models.ProfileAdmin:
		return models.LeadVisibility{All: true}, nil
	case models.ProfileAgent:
		children, err := v.users.ListByParent(ctx, actor.ID)
		if err != nil {
			return models.LeadVisibility{}, fmt.Errorf("failed to list collaborators of %d: %w", actor.ID, err)
		}
		vis := models.LeadVisibility{VendorID: &actor.ID}
		for _, c := range children {
			vis.CollaboratorIDs = append(vis.CollaboratorIDs, c.ID)
		}
		return vis, nil
	case models.ProfileCollaborator:
		return models.LeadVisibility{CollaboratorIDs: []int64{actor.ID}}, nil
	}
	return models.LeadVisibility{}, apperr.Forbiddenf("user %d has no profile", actor.ID)
}

// CanView reports whether actor may see a lead with the given placements
func (v *visibility) CanView(ctx context.Context, actor *models.User, placements []*models.Placement) (bool, error) {
	scope, err := v.Scope(ctx, actor)
	if err != nil {
		return false, err
	}
	return scope.Allows(placements), nil
}

// EnsureView returns Forbidden unless actor may see the lead
func (v *visibility) EnsureView(ctx context.Context, actor *models.User, lead *models.Lead) error {
	ok, err := v.CanView(ctx, actor, lead.Placements)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Forbiddenf("user %d cannot access lead %d", actor.ID, lead.ID)
	}
	return nil
}

// CanAccessBoard reports whether actor may open board b.
//
//	ADMIN boards        admins
//	AGENT boards        admins, the owner, the board's agent
//	COLLABORATOR boards admins, the owner or collaborator, their parent agent
func (v *visibility) CanAccessBoard(ctx context.Context, actor *models.User, b *models.Board) (bool, error) {
	if actor.IsAdmin() {
		return true, nil
	}
	switch b.Type {
	case models.BoardTypeAgent:
		return b.OwnerUserID == actor.ID || sameID(b.AgentID, actor.ID), nil
	case models.BoardTypeCollaborator:
		if b.OwnerUserID == actor.ID || sameID(b.CollaboratorID, actor.ID) {
			return true, nil
		}
		if !actor.IsAgent() {
			return false, nil
		}
		if sameID(b.AgentID, actor.ID) {
			return true, nil
		}
		collaboratorID := b.OwnerUserID
		if b.CollaboratorID != nil {
			collaboratorID = *b.CollaboratorID
		}
		collaborator, err := v.users.GetByID(ctx, collaboratorID)
		if err != nil {
			return false, fmt.Errorf("failed to get user %d: %w", collaboratorID, err)
		}
		return actor.IsParentOf(collaborator), nil
	}
	return false, nil
}

// EnsureBoard returns Forbidden unless actor may open board b
func (v *visibility) EnsureBoard(ctx context.Context, actor *models.User, b *models.Board) error {
	ok, err := v.CanAccessBoard(ctx, actor, b)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Forbiddenf("user %d cannot access board %d", actor.ID, b.ID)
	}
	return nil
}

func sameID(id *int64, want int64) bool {
	return id != nil && *id == want
}
