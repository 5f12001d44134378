package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kanban-crm-api/internal/apperr"
	"github.com/kanban-crm-api/internal/config"
	"github.com/kanban-crm-api/internal/models"
	"github.com/kanban-crm-api/internal/repository"
	"github.com/kanban-crm-api/internal/validation"
	"github.com/rs/zerolog"
)

// leadLoader attaches products and placements to leads
type leadLoader struct {
	repos *repository.Repositories
}

func newLeadLoader(repos *repository.Repositories) *leadLoader {
	return &leadLoader{repos: repos}
}

// Get loads one lead with its placements and products, NotFound when absent
func (l *leadLoader) Get(ctx context.Context, id int64) (*models.Lead, error) {
	lead, err := l.repos.Lead.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get lead %d: %w", id, err)
	}
	if lead == nil {
		return nil, apperr.NotFoundf("lead %d not found", id)
	}
	if err := l.Attach(ctx, []*models.Lead{lead}); err != nil {
		return nil, err
	}
	return lead, nil
}

// Attach loads placements and products for a page of leads in two queries
func (l *leadLoader) Attach(ctx context.Context, leads []*models.Lead) error {
	if len(leads) == 0 {
		return nil
	}
	ids := make([]int64, len(leads))
	for i, lead := range leads {
		ids[i] = lead.ID
	}

	placements, err := l.repos.Placement.ListByLeads(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load placements: %w", err)
	}
	products, err := l.repos.Product.ListByLeads(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}
	for _, lead := range leads {
		lead.Placements = placements[lead.ID]
		lead.Products = products[lead.ID]
	}
	return nil
}

// requireProducts returns NotFound listing the ids that do not exist
func requireProducts(ctx context.Context, products repository.ProductRepository, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	found, err := products.FindByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to find products: %w", err)
	}
	known := make(map[int64]bool, len(found))
	for _, p := range found {
		known[p.ID] = true
	}
	var missing []string
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if !known[id] && !seen[id] {
			missing = append(missing, fmt.Sprint(id))
		}
		seen[id] = true
	}
	if len(missing) > 0 {
		return apperr.NotFoundf("products not found: %s", strings.Join(missing, ", "))
	}
	return nil
}

// uniqueIDs returns ids without duplicates, sorted
func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// leadService is the concrete implementation of LeadService
type leadService struct {
	repos     *repository.Repositories
	vis       *visibility
	validator *validation.Validator
	loader    *leadLoader
	cfg       config.KanbanConfig
	log       zerolog.Logger
}

func newLeadService(repos *repository.Repositories, vis *visibility, validator *validation.Validator, loader *leadLoader, cfg config.KanbanConfig, log zerolog.Logger) *leadService {
	return &leadService{
		repos:     repos,
		vis:       vis,
		validator: validator,
		loader:    loader,
		cfg:       cfg,
		log:       log.With().Str("service", "leads").Logger(),
	}
}

// FindAll returns the leads visible to actor, newest first
func (s *leadService) FindAll(ctx context.Context, actor *models.User, filter models.LeadFilter) ([]*models.Lead, error) {
	if filter.FlowDirection != "" && !models.ValidFlowDirections[filter.FlowDirection] {
		return nil, apperr.InvalidArgumentf("invalid flow_direction %q", filter.FlowDirection)
	}
	vis, err := s.vis.Scope(ctx, actor)
	if err != nil {
		return nil, err
	}
	filter.Visibility = &vis
	filter.Scope = nil
	filter.Limit, filter.Offset = pageBounds(s.cfg, filter.Limit, filter.Offset)

	leads, err := s.repos.Lead.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	if err := s.loader.Attach(ctx, leads); err != nil {
		return nil, err
	}
	return leads, nil
}

// FindOne returns a visible lead with its products and placements
func (s *leadService) FindOne(ctx context.Context, actor *models.User, id int64) (*models.Lead, error) {
	lead, err := s.loader.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.vis.EnsureView(ctx, actor, lead); err != nil {
		return nil, err
	}
	return lead, nil
}

// Update applies a partial update and optionally replaces the product set
func (s *leadService) Update(ctx context.Context, actor *models.User, id int64, req models.UpdateLeadRequest) (*models.Lead, error) {
	if errs := s.validator.ValidateUpdateLead(&req); len(errs) > 0 {
		return nil, errs
	}

	err := s.repos.Tx.WithTx(ctx, func(ctx context.Context) error {
		lead, err := s.loader.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := s.vis.EnsureView(ctx, actor, lead); err != nil {
			return err
		}

		applyLeadUpdate(lead, &req)
		if err := s.repos.Lead.Update(ctx, lead); err != nil {
			return fmt.Errorf("failed to update lead %d: %w", id, err)
		}

		if req.ProductIDs == nil {
			return nil
		}
		productIDs := uniqueIDs(*req.ProductIDs)
		if err := requireProducts(ctx, s.repos.Product, productIDs); err != nil {
			return err
		}
		if err := s.repos.Product.UnlinkAll(ctx, id); err != nil {
			return fmt.Errorf("failed to unlink products of lead %d: %w", id, err)
		}
		if err := s.repos.Product.LinkToLead(ctx, id, productIDs); err != nil {
			return fmt.Errorf("failed to link products to lead %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("lead_id", id).Int64("user_id", actor.ID).Msg("Lead updated")
	return s.loader.Get(ctx, id)
}

// Remove hard-deletes a visible lead. Collaborators cannot delete leads.
func (s *leadService) Remove(ctx context.Context, actor *models.User, id int64) error {
	if actor.IsCollaborator() {
		return apperr.Forbiddenf("collaborators cannot delete leads")
	}

	err := s.repos.Tx.WithTx(ctx, func(ctx context.Context) error {
		lead, err := s.loader.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := s.vis.EnsureView(ctx, actor, lead); err != nil {
			return err
		}
		if err := s.repos.Lead.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete lead %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info().Int64("lead_id", id).Int64("user_id", actor.ID).Msg("Lead removed")
	return nil
}

// Occurrences returns the audit trail of a visible lead, oldest first
func (s *leadService) Occurrences(ctx context.Context, actor *models.User, id int64) ([]*models.Occurrence, error) {
	lead, err := s.loader.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.vis.EnsureView(ctx, actor, lead); err != nil {
		return nil, err
	}
	occurrences, err := s.repos.Occurrence.ListByLead(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list occurrences of lead %d: %w", id, err)
	}
	return occurrences, nil
}

func applyLeadUpdate(lead *models.Lead, req *models.UpdateLeadRequest) {
	if req.Name != nil {
		lead.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		lead.Email = strings.TrimSpace(*req.Email)
	}
	if req.Phone != nil {
		lead.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Document != nil {
		lead.Document = strings.TrimSpace(*req.Document)
	}
	if req.Source != nil {
		lead.Source = strings.TrimSpace(*req.Source)
	}
	if req.Notes != nil {
		lead.Notes = *req.Notes
	}
}

// pageBounds applies the configured default and maximum page size
func pageBounds(cfg config.KanbanConfig, limit, offset int) (int, int) {
	if limit <= 0 {
		limit = cfg.DefaultPageSize
	}
	if cfg.MaxPageSize > 0 && limit > cfg.MaxPageSize {
		limit = cfg.MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
