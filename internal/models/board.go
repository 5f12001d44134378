package models

import (
	"time"
)

// BoardType is the authority level a board belongs to
type BoardType string

const (
	BoardTypeAdmin        BoardType = "ADMIN"
	BoardTypeAgent        BoardType = "AGENT"
	BoardTypeCollaborator BoardType = "COLLABORATOR"
)

// ValidBoardTypes defines allowed board types
var ValidBoardTypes = map[BoardType]bool{
	BoardTypeAdmin:        true,
	BoardTypeAgent:        true,
	BoardTypeCollaborator: true,
}

// FlowDirection separates the buyer and seller pipelines of a lead
type FlowDirection string

const (
	FlowBuyer  FlowDirection = "BUYER"
	FlowSeller FlowDirection = "SELLER"
)

// ValidFlowDirections defines allowed flow directions
var ValidFlowDirections = map[FlowDirection]bool{
	FlowBuyer:  true,
	FlowSeller: true,
}

// NovosBoardName is the name of the default entry column of every board view
const NovosBoardName = "Novos"

// Board is a kanban column scoped to one authority level and one owner
type Board struct {
	ID                 int64         `json:"id" db:"id"`
	Name               string        `json:"name" db:"name"`
	Color              string        `json:"color" db:"color"`
	Type               BoardType     `json:"type" db:"type"`
	OwnerUserID        int64         `json:"owner_user_id" db:"owner_user_id"`
	AgentID            *int64        `json:"agent_id,omitempty" db:"agent_id"`
	CollaboratorID     *int64        `json:"collaborator_id,omitempty" db:"collaborator_id"`
	PipelineTemplateID *int64        `json:"pipeline_template_id,omitempty" db:"pipeline_template_id"`
	StatusID           *int64        `json:"status_id,omitempty" db:"status_id"`
	Order              int           `json:"order" db:"order"`
	FlowDirection      FlowDirection `json:"flow_direction" db:"flow_direction"`
	Active             bool          `json:"active" db:"active"`
	CreatedAt          time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at" db:"updated_at"`

	// LeadsCount is computed for listings, not stored
	LeadsCount int `json:"leads_count" db:"-"`
}

// IsNovos reports whether the board is a default "Novos" column
func (b *Board) IsNovos() bool {
	return b.Name == NovosBoardName
}

// BoardFilter narrows board listings
type BoardFilter struct {
	Type          BoardType
	FlowDirection FlowDirection
	OwnerUserID   *int64
	// IDs restricts the listing to the given boards when non-empty
	IDs []int64
}

// EnsureBoardRequest asks for the "Novos" board of a view
type EnsureBoardRequest struct {
	Type           BoardType     `json:"type"`
	AgentID        *int64        `json:"agent_id,omitempty"`
	CollaboratorID *int64        `json:"collaborator_id,omitempty"`
	FlowDirection  FlowDirection `json:"flow_direction,omitempty"`
}

// CreateBoardRequest describes an explicitly created column board
type CreateBoardRequest struct {
	Name               string        `json:"name"`
	Color              string        `json:"color"`
	Type               BoardType     `json:"type"`
	AgentID            *int64        `json:"agent_id,omitempty"`
	CollaboratorID     *int64        `json:"collaborator_id,omitempty"`
	PipelineTemplateID *int64        `json:"pipeline_template_id,omitempty"`
	StatusID           *int64        `json:"status_id,omitempty"`
	FlowDirection      FlowDirection `json:"flow_direction,omitempty"`
}

// UpdateBoardRequest holds the mutable presentation fields of a board
type UpdateBoardRequest struct {
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
}

// BoardOrder assigns a display position to a board
type BoardOrder struct {
	ID    int64 `json:"id"`
	Order int   `json:"order"`
}
