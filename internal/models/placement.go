package models

import (
	"time"
)

// Placement is the current pipeline position of a lead within one flow
// direction (table lead_kanban_status). One row per (lead, flow direction).
type Placement struct {
	ID             int64         `json:"id" db:"id"`
	LeadID         int64         `json:"lead_id" db:"lead_id"`
	FlowDirection  FlowDirection `json:"flow_direction" db:"flow_direction"`
	VendorID       *int64        `json:"vendor_id" db:"vendor_id"`
	CollaboratorID *int64        `json:"collaborator_id" db:"collaborator_id"`
	StatusID       *int64        `json:"status_id" db:"status_id"`
	Version        int64         `json:"version" db:"version"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" db:"updated_at"`
}

// Assignment is the mutable part of a placement
type Assignment struct {
	VendorID       *int64
	CollaboratorID *int64
	StatusID       *int64
}

// Assignment returns the vendor/collaborator/status fields of the placement
func (p *Placement) Assignment() Assignment {
	return Assignment{
		VendorID:       p.VendorID,
		CollaboratorID: p.CollaboratorID,
		StatusID:       p.StatusID,
	}
}

// Apply overwrites the vendor/collaborator/status fields of the placement
func (p *Placement) Apply(a Assignment) {
	p.VendorID = a.VendorID
	p.CollaboratorID = a.CollaboratorID
	p.StatusID = a.StatusID
}

// PlacementScope selects the leads shown on one board. A nil pointer field
// means "any value"; the *Null flags require the column to be NULL.
type PlacementScope struct {
	FlowDirection    FlowDirection
	IncludeUnplaced  bool
	VendorID         *int64
	VendorNull       bool
	CollaboratorID   *int64
	CollaboratorNull bool
	StatusID         *int64
	StatusNull       bool
}

// Matches reports whether a lead with placement p (nil when the lead has no
// row for the scope's flow direction) belongs to the scope
func (s PlacementScope) Matches(p *Placement) bool {
	if p == nil {
		return s.IncludeUnplaced
	}
	if p.FlowDirection != s.FlowDirection {
		return false
	}
	return matchField(p.VendorID, s.VendorID, s.VendorNull) &&
		matchField(p.CollaboratorID, s.CollaboratorID, s.CollaboratorNull) &&
		matchField(p.StatusID, s.StatusID, s.StatusNull)
}

func matchField(value, want *int64, wantNull bool) bool {
	if wantNull {
		return value == nil
	}
	if want == nil {
		return true
	}
	return value != nil && *value == *want
}

// LeadVisibility is the compiled visibility rule of one user
type LeadVisibility struct {
	All             bool
	VendorID        *int64
	CollaboratorIDs []int64
}

// Allows reports whether a lead with the given placements is visible
func (v LeadVisibility) Allows(placements []*Placement) bool {
	if v.All {
		return true
	}
	for _, p := range placements {
		if v.VendorID != nil && p.VendorID != nil && *p.VendorID == *v.VendorID {
			return true
		}
		if p.CollaboratorID == nil {
			continue
		}
		for _, id := range v.CollaboratorIDs {
			if *p.CollaboratorID == id {
				return true
			}
		}
	}
	return false
}
