package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kanban-crm-api/internal/apperr"
	"github.com/kanban-crm-api/internal/models"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phoneRegex = regexp.MustCompile(`^\+?[0-9()\-\s]{8,20}$`)
	colorRegex = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

const (
	MaxNameLength  = 255
	MaxNotesLength = 5000
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Errors is a list of field errors. It matches apperr.ErrInvalidArgument
// under errors.Is.
type Errors []ValidationError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, ve := range e {
		parts = append(parts, ve.Field+": "+ve.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e Errors) Unwrap() error {
	return apperr.ErrInvalidArgument
}

// Err returns nil for an empty list and the list as an error otherwise
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Validator provides validation methods
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateCreateLead validates the input of a lead created in a board
func (v *Validator) ValidateCreateLead(req *models.CreateLeadRequest) Errors {
	var errs Errors

	if strings.TrimSpace(req.Name) == "" {
		errs = append(errs, ValidationError{Field: "name", Message: "name is required"})
	} else if len(req.Name) > MaxNameLength {
		errs = append(errs, ValidationError{Field: "name", Message: fmt.Sprintf("name exceeds %d characters", MaxNameLength)})
	}

	errs = append(errs, v.contactErrors(req.Email, req.Phone, req.Notes)...)
	errs = append(errs, idErrors("product_ids", req.ProductIDs)...)

	if req.VendorID != nil && *req.VendorID <= 0 {
		errs = append(errs, ValidationError{Field: "vendor_id", Message: "vendor_id must be positive", Value: *req.VendorID})
	}
	if req.CollaboratorID != nil && *req.CollaboratorID <= 0 {
		errs = append(errs, ValidationError{Field: "collaborator_id", Message: "collaborator_id must be positive", Value: *req.CollaboratorID})
	}

	return errs
}

// ValidateUpdateLead validates a partial lead update
func (v *Validator) ValidateUpdateLead(req *models.UpdateLeadRequest) Errors {
	var errs Errors

	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		errs = append(errs, ValidationError{Field: "name", Message: "name must not be empty"})
	} else if req.Name != nil && len(*req.Name) > MaxNameLength {
		errs = append(errs, ValidationError{Field: "name", Message: fmt.Sprintf("name exceeds %d characters", MaxNameLength)})
	}

	errs = append(errs, v.contactErrors(deref(req.Email), deref(req.Phone), deref(req.Notes))...)
	if req.ProductIDs != nil {
		errs = append(errs, idErrors("product_ids", *req.ProductIDs)...)
	}

	return errs
}

// ValidateCreateBoard validates an explicitly created board
func (v *Validator) ValidateCreateBoard(req *models.CreateBoardRequest) Errors {
	var errs Errors

	name := strings.TrimSpace(req.Name)
	if name == "" {
		errs = append(errs, ValidationError{Field: "name", Message: "name is required"})
	} else if len(name) > MaxNameLength {
		errs = append(errs, ValidationError{Field: "name", Message: fmt.Sprintf("name exceeds %d characters", MaxNameLength)})
	}

	if req.Color != "" && !colorRegex.MatchString(req.Color) {
		errs = append(errs, ValidationError{Field: "color", Message: "color must be a #RRGGBB hex value", Value: req.Color})
	}

	if req.Type == "" {
		errs = append(errs, ValidationError{Field: "type", Message: "type is required"})
	} else if !models.ValidBoardTypes[req.Type] {
		errs = append(errs, ValidationError{
			Field:   "type",
			Message: "invalid type, must be one of: ADMIN, AGENT, COLLABORATOR",
			Value:   req.Type,
		})
	}

	if req.FlowDirection != "" && !models.ValidFlowDirections[req.FlowDirection] {
		errs = append(errs, ValidationError{Field: "flow_direction", Message: "flow_direction must be BUYER or SELLER", Value: req.FlowDirection})
	}

	return errs
}

// ValidateUpdateBoard validates a board rename/recolor
func (v *Validator) ValidateUpdateBoard(req *models.UpdateBoardRequest) Errors {
	var errs Errors

	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		errs = append(errs, ValidationError{Field: "name", Message: "name must not be empty"})
	}
	if req.Color != nil && !colorRegex.MatchString(*req.Color) {
		errs = append(errs, ValidationError{Field: "color", Message: "color must be a #RRGGBB hex value", Value: *req.Color})
	}

	return errs
}

// ValidateEnsureBoard validates a Novos board lookup
func (v *Validator) ValidateEnsureBoard(req *models.EnsureBoardRequest) Errors {
	var errs Errors

	if !models.ValidBoardTypes[req.Type] {
		errs = append(errs, ValidationError{
			Field:   "type",
			Message: "invalid type, must be one of: ADMIN, AGENT, COLLABORATOR",
			Value:   req.Type,
		})
	}
	if req.FlowDirection != "" && !models.ValidFlowDirections[req.FlowDirection] {
		errs = append(errs, ValidationError{Field: "flow_direction", Message: "flow_direction must be BUYER or SELLER", Value: req.FlowDirection})
	}

	return errs
}

// ValidateBoardOrders validates a batch reorder
func (v *Validator) ValidateBoardOrders(orders []models.BoardOrder) Errors {
	var errs Errors

	if len(orders) == 0 {
		errs = append(errs, ValidationError{Field: "boards", Message: "at least one board is required"})
	}
	seen := make(map[int64]bool, len(orders))
	for _, o := range orders {
		if o.ID <= 0 {
			errs = append(errs, ValidationError{Field: "id", Message: "id must be positive", Value: o.ID})
			continue
		}
		if seen[o.ID] {
			errs = append(errs, ValidationError{Field: "id", Message: "duplicate board", Value: o.ID})
		}
		seen[o.ID] = true
		if o.Order < 0 {
			errs = append(errs, ValidationError{Field: "order", Message: "order must not be negative", Value: o.Order})
		}
	}

	return errs
}

// IsValidColor reports whether s is a #RRGGBB color
func IsValidColor(s string) bool {
	return colorRegex.MatchString(s)
}

func (v *Validator) contactErrors(email, phone, notes string) Errors {
	var errs Errors

	if email != "" && !emailRegex.MatchString(email) {
		errs = append(errs, ValidationError{Field: "email", Message: "invalid email format", Value: email})
	}
	if phone != "" && !phoneRegex.MatchString(phone) {
		errs = append(errs, ValidationError{Field: "phone", Message: "invalid phone format", Value: phone})
	}
	if len(notes) > MaxNotesLength {
		errs = append(errs, ValidationError{Field: "notes", Message: fmt.Sprintf("notes exceed %d characters", MaxNotesLength)})
	}

	return errs
}

func idErrors(field string, ids []int64) Errors {
	var errs Errors
	for _, id := range ids {
		if id <= 0 {
			errs = append(errs, ValidationError{Field: field, Message: "ids must be positive", Value: id})
		}
	}
	return errs
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
