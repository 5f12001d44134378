package models

import (
	"time"
)

// Lead represents a sales prospect
type Lead struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email,omitempty" db:"email"`
	Phone     string    `json:"phone,omitempty" db:"phone"`
	Document  string    `json:"document,omitempty" db:"document"`
	Source    string    `json:"source,omitempty" db:"source"`
	Notes     string    `json:"notes,omitempty" db:"notes"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Deprecated: single-status field kept for old clients; the pipeline
	// position lives in Placements.
	StatusID *int64 `json:"status_id,omitempty" db:"status_id"`

	Products   []*Product   `json:"products,omitempty" db:"-"`
	Placements []*Placement `json:"placements,omitempty" db:"-"`
}

// PlacementFor returns the lead's placement in the given flow direction, if loaded
func (l *Lead) PlacementFor(flow FlowDirection) *Placement {
	for _, p := range l.Placements {
		if p.FlowDirection == flow {
			return p
		}
	}
	return nil
}

// LeadFilter narrows lead listings
type LeadFilter struct {
	Visibility    *LeadVisibility
	Scope         *PlacementScope
	Search        string
	FlowDirection FlowDirection
	Limit         int
	Offset        int
}

// CreateLeadRequest holds the input of a lead created directly in a board
type CreateLeadRequest struct {
	Name           string  `json:"name"`
	Email          string  `json:"email,omitempty"`
	Phone          string  `json:"phone,omitempty"`
	Document       string  `json:"document,omitempty"`
	Source         string  `json:"source,omitempty"`
	Notes          string  `json:"notes,omitempty"`
	VendorID       *int64  `json:"vendor_id,omitempty"`
	CollaboratorID *int64  `json:"collaborator_id,omitempty"`
	ProductIDs     []int64 `json:"product_ids,omitempty"`
}

// UpdateLeadRequest is a partial update of a lead. A non-nil ProductIDs
// replaces the product set.
type UpdateLeadRequest struct {
	Name       *string  `json:"name,omitempty"`
	Email      *string  `json:"email,omitempty"`
	Phone      *string  `json:"phone,omitempty"`
	Document   *string  `json:"document,omitempty"`
	Source     *string  `json:"source,omitempty"`
	Notes      *string  `json:"notes,omitempty"`
	ProductIDs *[]int64 `json:"product_ids,omitempty"`
}

// MoveLeadRequest moves a lead between two boards of the same view
type MoveLeadRequest struct {
	LeadID      int64 `json:"lead_id"`
	FromBoardID int64 `json:"from_board_id"`
	ToBoardID   int64 `json:"to_board_id"`
}
