package models

import (
	"time"
)

// OccurrenceKind distinguishes engine-written entries from user notes
type OccurrenceKind string

const (
	OccurrenceSystem OccurrenceKind = "SYSTEM"
	OccurrenceUser   OccurrenceKind = "USER"
)

// Occurrence is one entry of a lead's audit trail
type Occurrence struct {
	ID            int64          `json:"id" db:"id"`
	LeadID        int64          `json:"lead_id" db:"lead_id"`
	Text          string         `json:"text" db:"text"`
	Kind          OccurrenceKind `json:"kind" db:"kind"`
	UserID        int64          `json:"user_id" db:"user_id"`
	FlowDirection *FlowDirection `json:"flow_direction,omitempty" db:"flow_direction"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
}
