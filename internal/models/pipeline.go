package models

import (
	"time"
)

// PipelineTemplate is an ordered set of statuses from which collaborator
// status boards are generated
type PipelineTemplate struct {
	ID            int64          `json:"id" db:"id"`
	Name          string         `json:"name" db:"name"`
	FlowDirection *FlowDirection `json:"flow_direction,omitempty" db:"flow_direction"`
	Active        bool           `json:"active" db:"active"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
}

// PipelineStatus is one named stage of a pipeline template
type PipelineStatus struct {
	ID     int64  `json:"id" db:"id"`
	Name   string `json:"name" db:"name"`
	Color  string `json:"color,omitempty" db:"color"`
	Active bool   `json:"active" db:"active"`
}
