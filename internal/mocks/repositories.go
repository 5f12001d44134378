package mocks

import (
	"context"
	"sort"
	"strings"

	"github.com/kanban-crm-api/internal/apperr"
	"github.com/kanban-crm-api/internal/models"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	store       *Store
	GetError    error
	InsertError error
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	if m.InsertError != nil {
		return m.InsertError
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for _, u := range m.store.Users {
		if strings.EqualFold(u.Email, user.Email) {
			return apperr.Conflictf("email %s already exists", user.Email)
		}
	}
	user.ID = m.store.nextID()
	user.CreatedAt = m.store.now()
	user.UpdatedAt = user.CreatedAt
	c := *user
	m.store.Users[user.ID] = &c
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if u, ok := m.store.Users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, nil
}

func (m *MockUserRepository) ListByParent(ctx context.Context, parentID int64) ([]*models.User, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var users []*models.User
	for _, u := range m.store.Users {
		if u.Active && u.ParentUserID != nil && *u.ParentUserID == parentID {
			c := *u
			users = append(users, &c)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// MockLeadRepository is a mock implementation of LeadRepository
type MockLeadRepository struct {
	store       *Store
	InsertError error
	UpdateError error
	ListCalls   int
}

func (m *MockLeadRepository) Create(ctx context.Context, lead *models.Lead) error {
	if m.InsertError != nil {
		return m.InsertError
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	lead.ID = m.store.nextID()
	lead.CreatedAt = m.store.now()
	lead.UpdatedAt = lead.CreatedAt
	c := *lead
	c.Products, c.Placements = nil, nil
	m.store.Leads[lead.ID] = &c
	return nil
}

func (m *MockLeadRepository) Update(ctx context.Context, lead *models.Lead) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	stored, ok := m.store.Leads[lead.ID]
	if !ok {
		return apperr.NotFoundf("lead %d not found", lead.ID)
	}
	lead.UpdatedAt = m.store.now()
	c := *lead
	c.Products, c.Placements = nil, nil
	c.CreatedAt = stored.CreatedAt
	c.StatusID = stored.StatusID
	m.store.Leads[lead.ID] = &c
	return nil
}

func (m *MockLeadRepository) Delete(ctx context.Context, id int64) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	delete(m.store.Leads, id)
	delete(m.store.LeadProducts, id)
	for pid, p := range m.store.Placements {
		if p.LeadID == id {
			delete(m.store.Placements, pid)
		}
	}
	kept := m.store.Occurrences[:0]
	for _, o := range m.store.Occurrences {
		if o.LeadID != id {
			kept = append(kept, o)
		}
	}
	m.store.Occurrences = kept
	return nil
}

func (m *MockLeadRepository) GetByID(ctx context.Context, id int64) (*models.Lead, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if l, ok := m.store.Leads[id]; ok {
		c := *l
		return &c, nil
	}
	return nil, nil
}

func (m *MockLeadRepository) List(ctx context.Context, filter models.LeadFilter) ([]*models.Lead, error) {
	m.ListCalls++
	leads := m.match(filter)
	if filter.Offset > 0 {
		if filter.Offset >= len(leads) {
			return nil, nil
		}
		leads = leads[filter.Offset:]
	}
	if filter.Limit > 0 && len(leads) > filter.Limit {
		leads = leads[:filter.Limit]
	}
	return leads, nil
}

func (m *MockLeadRepository) Count(ctx context.Context, filter models.LeadFilter) (int, error) {
	return len(m.match(filter)), nil
}

func (m *MockLeadRepository) StreamAll(ctx context.Context, filter models.LeadFilter, callback func(*models.Lead) error) error {
	for _, lead := range m.match(filter) {
		if err := callback(lead); err != nil {
			return err
		}
	}
	return nil
}

// match applies the filter the way the SQL implementation does, newest first
func (m *MockLeadRepository) match(filter models.LeadFilter) []*models.Lead {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	search := strings.ToLower(filter.Search)
	var leads []*models.Lead
	for _, l := range m.store.Leads {
		if filter.Scope != nil && !filter.Scope.Matches(m.store.placementLocked(l.ID, filter.Scope.FlowDirection)) {
			continue
		}
		if filter.FlowDirection != "" && m.store.placementLocked(l.ID, filter.FlowDirection) == nil {
			continue
		}
		if filter.Visibility != nil {
			placements := m.store.placementsOfLocked(l.ID)
			if filter.FlowDirection != "" {
				var inFlow []*models.Placement
				for _, p := range placements {
					if p.FlowDirection == filter.FlowDirection {
						inFlow = append(inFlow, p)
					}
				}
				placements = inFlow
			}
			if !filter.Visibility.Allows(placements) {
				continue
			}
		}
		if search != "" && !containsAny(search, l.Name, l.Email, l.Phone, l.Document) {
			continue
		}
		c := *l
		leads = append(leads, &c)
	}
	sort.Slice(leads, func(i, j int) bool {
		if leads[i].CreatedAt.Equal(leads[j].CreatedAt) {
			return leads[i].ID > leads[j].ID
		}
		return leads[i].CreatedAt.After(leads[j].CreatedAt)
	})
	return leads
}

func containsAny(needle string, haystacks ...string) bool {
	for _, h := range haystacks {
		if strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}
	return false
}

// MockBoardRepository is a mock implementation of BoardRepository
type MockBoardRepository struct {
	store *Store

	// InsertError fails every Create after the first FailCreateAfter calls
	InsertError     error
	FailCreateAfter int
	CreateCalls     int
	UpdateError     error
	LockCalls       int
}

func (m *MockBoardRepository) Create(ctx context.Context, board *models.Board) error {
	m.CreateCalls++
	if m.InsertError != nil && m.CreateCalls > m.FailCreateAfter {
		return m.InsertError
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	board.ID = m.store.nextID()
	board.CreatedAt = m.store.now()
	board.UpdatedAt = board.CreatedAt
	c := *board
	m.store.Boards[board.ID] = &c
	return nil
}

func (m *MockBoardRepository) Update(ctx context.Context, board *models.Board) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	stored, ok := m.store.Boards[board.ID]
	if !ok {
		return apperr.NotFoundf("board %d not found", board.ID)
	}
	c := *stored
	c.Name, c.Color, c.Order, c.Active = board.Name, board.Color, board.Order, board.Active
	c.UpdatedAt = m.store.now()
	board.UpdatedAt = c.UpdatedAt
	m.store.Boards[board.ID] = &c
	return nil
}

func (m *MockBoardRepository) GetByID(ctx context.Context, id int64) (*models.Board, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if b, ok := m.store.Boards[id]; ok {
		c := *b
		return &c, nil
	}
	return nil, nil
}

func (m *MockBoardRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Board, error) {
	m.LockCalls++
	return m.GetByID(ctx, id)
}

func (m *MockBoardRepository) FindNovos(ctx context.Context, boardType models.BoardType, ownerID int64, flow models.FlowDirection) (*models.Board, error) {
	return m.first(func(b *models.Board) bool {
		return b.IsNovos() && b.Type == boardType && b.OwnerUserID == ownerID && storedFlow(b) == flow
	}), nil
}

func (m *MockBoardRepository) FindStatusBoard(ctx context.Context, collaboratorID, statusID int64, flow models.FlowDirection) (*models.Board, error) {
	return m.first(func(b *models.Board) bool {
		return !b.IsNovos() && b.Type == models.BoardTypeCollaborator &&
			b.CollaboratorID != nil && *b.CollaboratorID == collaboratorID &&
			b.StatusID != nil && *b.StatusID == statusID && storedFlow(b) == flow
	}), nil
}

func (m *MockBoardRepository) List(ctx context.Context, filter models.BoardFilter) ([]*models.Board, error) {
	ids := make(map[int64]bool, len(filter.IDs))
	for _, id := range filter.IDs {
		ids[id] = true
	}
	boards := m.all(func(b *models.Board) bool {
		if filter.Type != "" && b.Type != filter.Type {
			return false
		}
		if filter.FlowDirection != "" && storedFlow(b) != filter.FlowDirection {
			return false
		}
		if filter.OwnerUserID != nil && b.OwnerUserID != *filter.OwnerUserID {
			return false
		}
		return len(ids) == 0 || ids[b.ID]
	})
	sort.Slice(boards, func(i, j int) bool {
		if boards[i].Order == boards[j].Order {
			return boards[i].ID < boards[j].ID
		}
		return boards[i].Order < boards[j].Order
	})
	return boards, nil
}

func (m *MockBoardRepository) NextOrder(ctx context.Context, boardType models.BoardType, ownerID int64, flow models.FlowDirection) (int, error) {
	next := 0
	for _, b := range m.all(func(b *models.Board) bool {
		return b.Type == boardType && b.OwnerUserID == ownerID && storedFlow(b) == flow
	}) {
		if b.Order+1 > next {
			next = b.Order + 1
		}
	}
	return next, nil
}

func (m *MockBoardRepository) CountLeads(ctx context.Context, scope models.PlacementScope) (int, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	count := 0
	for _, l := range m.store.Leads {
		if scope.Matches(m.store.placementLocked(l.ID, scope.FlowDirection)) {
			count++
		}
	}
	return count, nil
}

// first returns a copy of the lowest-id active board matching fn
func (m *MockBoardRepository) first(fn func(*models.Board) bool) *models.Board {
	boards := m.all(fn)
	if len(boards) == 0 {
		return nil
	}
	sort.Slice(boards, func(i, j int) bool { return boards[i].ID < boards[j].ID })
	return boards[0]
}

func (m *MockBoardRepository) all(fn func(*models.Board) bool) []*models.Board {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var boards []*models.Board
	for _, b := range m.store.Boards {
		if b.Active && fn(b) {
			c := *b
			boards = append(boards, &c)
		}
	}
	return boards
}

func storedFlow(b *models.Board) models.FlowDirection {
	if b.FlowDirection == "" {
		return models.FlowBuyer
	}
	return b.FlowDirection
}

// MockPlacementRepository is a mock implementation of PlacementRepository
type MockPlacementRepository struct {
	store       *Store
	InsertError error
	UpdateError error

	// BeforeUpdate runs before the version check
	BeforeUpdate func(p *models.Placement)
	UpdateCalls  int
}

func (m *MockPlacementRepository) FindByLeadAndFlow(ctx context.Context, leadID int64, flow models.FlowDirection) (*models.Placement, error) {
	return m.store.Placement(leadID, flow), nil
}

func (m *MockPlacementRepository) ListByLead(ctx context.Context, leadID int64) ([]*models.Placement, error) {
	byLead, err := m.ListByLeads(ctx, []int64{leadID})
	return byLead[leadID], err
}

func (m *MockPlacementRepository) ListByLeads(ctx context.Context, leadIDs []int64) (map[int64][]*models.Placement, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	result := make(map[int64][]*models.Placement, len(leadIDs))
	for _, id := range leadIDs {
		for _, p := range m.store.placementsOfLocked(id) {
			c := *p
			result[id] = append(result[id], &c)
		}
		sort.Slice(result[id], func(i, j int) bool { return result[id][i].FlowDirection < result[id][j].FlowDirection })
	}
	return result, nil
}

func (m *MockPlacementRepository) Insert(ctx context.Context, placement *models.Placement) error {
	if m.InsertError != nil {
		return m.InsertError
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if m.store.placementLocked(placement.LeadID, placement.FlowDirection) != nil {
		return apperr.Conflictf("placement of lead %d in %s already exists", placement.LeadID, placement.FlowDirection)
	}
	placement.ID = m.store.nextID()
	placement.Version = 1
	placement.CreatedAt = m.store.now()
	placement.UpdatedAt = placement.CreatedAt
	c := *placement
	m.store.Placements[placement.ID] = &c
	return nil
}

func (m *MockPlacementRepository) Update(ctx context.Context, placement *models.Placement, checkVersion bool) error {
	m.UpdateCalls++
	if m.UpdateError != nil {
		return m.UpdateError
	}
	if m.BeforeUpdate != nil {
		m.BeforeUpdate(placement)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	stored, ok := m.store.Placements[placement.ID]
	if !ok {
		return apperr.InconsistentStatef("placement %d of lead %d disappeared", placement.ID, placement.LeadID)
	}
	if checkVersion && stored.Version != placement.Version {
		return apperr.Conflictf("placement of lead %d in %s was modified concurrently", placement.LeadID, placement.FlowDirection)
	}
	placement.Version = stored.Version + 1
	placement.UpdatedAt = m.store.now()
	c := *stored
	c.VendorID, c.CollaboratorID, c.StatusID = placement.VendorID, placement.CollaboratorID, placement.StatusID
	c.Version, c.UpdatedAt = placement.Version, placement.UpdatedAt
	m.store.Placements[placement.ID] = &c
	return nil
}

// Bump simulates a concurrent writer by advancing the stored version
func (m *MockPlacementRepository) Bump(id int64) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if p, ok := m.store.Placements[id]; ok {
		c := *p
		c.Version++
		m.store.Placements[id] = &c
	}
}

// MockPipelineRepository is a mock implementation of PipelineRepository
type MockPipelineRepository struct {
	store *Store
	Error error
}

func (m *MockPipelineRepository) GetTemplate(ctx context.Context, id int64) (*models.PipelineTemplate, error) {
	if m.Error != nil {
		return nil, m.Error
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if t, ok := m.store.Templates[id]; ok {
		c := *t
		return &c, nil
	}
	return nil, nil
}

func (m *MockPipelineRepository) GetStatus(ctx context.Context, id int64) (*models.PipelineStatus, error) {
	if m.Error != nil {
		return nil, m.Error
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if s, ok := m.store.Statuses[id]; ok {
		c := *s
		return &c, nil
	}
	return nil, nil
}

func (m *MockPipelineRepository) ListStatusesForTemplate(ctx context.Context, templateID int64) ([]*models.PipelineStatus, error) {
	if m.Error != nil {
		return nil, m.Error
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var statuses []*models.PipelineStatus
	for _, id := range m.store.TemplateStatuses[templateID] {
		if s, ok := m.store.Statuses[id]; ok && s.Active {
			c := *s
			statuses = append(statuses, &c)
		}
	}
	return statuses, nil
}

// MockOccurrenceRepository is a mock implementation of OccurrenceRepository
type MockOccurrenceRepository struct {
	store       *Store
	InsertError error
}

func (m *MockOccurrenceRepository) Create(ctx context.Context, o *models.Occurrence) error {
	if m.InsertError != nil {
		return m.InsertError
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	o.ID = m.store.nextID()
	o.CreatedAt = m.store.now()
	c := *o
	m.store.Occurrences = append(m.store.Occurrences, &c)
	return nil
}

func (m *MockOccurrenceRepository) ListByLead(ctx context.Context, leadID int64) ([]*models.Occurrence, error) {
	var out []*models.Occurrence
	for _, o := range m.store.OccurrencesOf(leadID) {
		o := o
		out = append(out, &o)
	}
	return out, nil
}

// MockProductRepository is a mock implementation of ProductRepository
type MockProductRepository struct {
	store     *Store
	LinkError error
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, ids []int64) ([]*models.Product, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var products []*models.Product
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if p, ok := m.store.Products[id]; ok && !seen[id] {
			seen[id] = true
			c := *p
			products = append(products, &c)
		}
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

func (m *MockProductRepository) ListByLeads(ctx context.Context, leadIDs []int64) (map[int64][]*models.Product, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	result := make(map[int64][]*models.Product, len(leadIDs))
	for _, leadID := range leadIDs {
		for _, pid := range m.store.LeadProducts[leadID] {
			if p, ok := m.store.Products[pid]; ok {
				c := *p
				result[leadID] = append(result[leadID], &c)
			}
		}
	}
	return result, nil
}

func (m *MockProductRepository) LinkToLead(ctx context.Context, leadID int64, productIDs []int64) error {
	if m.LinkError != nil {
		return m.LinkError
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for _, pid := range productIDs {
		if _, ok := m.store.Products[pid]; !ok {
			return apperr.NotFoundf("product %d not found", pid)
		}
		linked := false
		for _, existing := range m.store.LeadProducts[leadID] {
			if existing == pid {
				linked = true
				break
			}
		}
		if !linked {
			m.store.LeadProducts[leadID] = append(m.store.LeadProducts[leadID], pid)
		}
	}
	sort.Slice(m.store.LeadProducts[leadID], func(i, j int) bool {
		return m.store.LeadProducts[leadID][i] < m.store.LeadProducts[leadID][j]
	})
	return nil
}

func (m *MockProductRepository) UnlinkAll(ctx context.Context, leadID int64) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	delete(m.store.LeadProducts, leadID)
	return nil
}
