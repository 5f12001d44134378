package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/kanban-crm-api/internal/models"
	"github.com/kanban-crm-api/internal/repository"
)

// Store is the in-memory database shared by the mock repositories.
// MockTransactor snapshots it when a transaction starts and restores the
// snapshot when the transaction fails.
type Store struct {
	mu sync.Mutex

	Users            map[int64]*models.User
	Leads            map[int64]*models.Lead
	Boards           map[int64]*models.Board
	Placements       map[int64]*models.Placement
	Templates        map[int64]*models.PipelineTemplate
	Statuses         map[int64]*models.PipelineStatus
	TemplateStatuses map[int64][]int64
	Occurrences      []*models.Occurrence
	Products         map[int64]*models.Product
	LeadProducts     map[int64][]int64

	seq   int64
	clock time.Time
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		Users:            make(map[int64]*models.User),
		Leads:            make(map[int64]*models.Lead),
		Boards:           make(map[int64]*models.Board),
		Placements:       make(map[int64]*models.Placement),
		Templates:        make(map[int64]*models.PipelineTemplate),
		Statuses:         make(map[int64]*models.PipelineStatus),
		TemplateStatuses: make(map[int64][]int64),
		Products:         make(map[int64]*models.Product),
		LeadProducts:     make(map[int64][]int64),
		clock:            time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// nextID returns a store-wide unique id; callers hold mu
func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

// now returns a strictly increasing timestamp; callers hold mu
func (s *Store) now() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

// AddUser seeds a user. A zero ID is assigned.
func (s *Store) AddUser(u *models.User) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.nextID()
	} else if u.ID > s.seq {
		s.seq = u.ID
	}
	u.Active = true
	c := *u
	s.Users[u.ID] = &c
	return u
}

// AddProduct seeds an active product
func (s *Store) AddProduct(name string) *models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &models.Product{ID: s.nextID(), Name: name, Active: true, CreatedAt: s.now()}
	c := *p
	s.Products[p.ID] = &c
	return p
}

// AddTemplate seeds a template whose statuses are linked in the given order
func (s *Store) AddTemplate(name string, flow *models.FlowDirection, statuses ...*models.PipelineStatus) *models.PipelineTemplate {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &models.PipelineTemplate{ID: s.nextID(), Name: name, FlowDirection: flow, Active: true, CreatedAt: s.now()}
	c := *t
	s.Templates[t.ID] = &c
	for _, st := range statuses {
		if st.ID == 0 {
			st.ID = s.nextID()
		}
		sc := *st
		s.Statuses[st.ID] = &sc
		s.TemplateStatuses[t.ID] = append(s.TemplateStatuses[t.ID], st.ID)
	}
	return t
}

// AddBoard seeds a board as stored, bypassing the services
func (s *Store) AddBoard(b *models.Board) *models.Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = s.nextID()
	b.CreatedAt = s.now()
	b.UpdatedAt = b.CreatedAt
	c := *b
	s.Boards[b.ID] = &c
	return b
}

// AddLead seeds a lead without placements
func (s *Store) AddLead(l *models.Lead) *models.Lead {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.ID = s.nextID()
	l.CreatedAt = s.now()
	l.UpdatedAt = l.CreatedAt
	c := *l
	c.Products, c.Placements = nil, nil
	s.Leads[l.ID] = &c
	return l
}

// AddPlacement seeds a ledger row
func (s *Store) AddPlacement(p *models.Placement) *models.Placement {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.nextID()
	p.Version = 1
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt
	c := *p
	s.Placements[p.ID] = &c
	return p
}

// Placement returns a copy of the stored row for (lead, flow), or nil
func (s *Store) Placement(leadID int64, flow models.FlowDirection) *models.Placement {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.placementLocked(leadID, flow); p != nil {
		c := *p
		return &c
	}
	return nil
}

// OccurrencesOf returns copies of a lead's audit trail
func (s *Store) OccurrencesOf(leadID int64) []models.Occurrence {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Occurrence
	for _, o := range s.Occurrences {
		if o.LeadID == leadID {
			out = append(out, *o)
		}
	}
	return out
}

// ActiveBoards returns copies of the active boards in id order
func (s *Store) ActiveBoards() []models.Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Board
	for id := int64(1); id <= s.seq; id++ {
		if b, ok := s.Boards[id]; ok && b.Active {
			out = append(out, *b)
		}
	}
	return out
}

func (s *Store) placementLocked(leadID int64, flow models.FlowDirection) *models.Placement {
	for _, p := range s.Placements {
		if p.LeadID == leadID && p.FlowDirection == flow {
			return p
		}
	}
	return nil
}

func (s *Store) placementsOfLocked(leadID int64) []*models.Placement {
	var out []*models.Placement
	for _, p := range s.Placements {
		if p.LeadID == leadID {
			out = append(out, p)
		}
	}
	return out
}

type snapshot struct {
	users        map[int64]models.User
	leads        map[int64]models.Lead
	boards       map[int64]models.Board
	placements   map[int64]models.Placement
	occurrences  []models.Occurrence
	leadProducts map[int64][]int64
	seq          int64
	clock        time.Time
}

func (s *Store) snapshot() *snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := &snapshot{
		users:        make(map[int64]models.User, len(s.Users)),
		leads:        make(map[int64]models.Lead, len(s.Leads)),
		boards:       make(map[int64]models.Board, len(s.Boards)),
		placements:   make(map[int64]models.Placement, len(s.Placements)),
		leadProducts: make(map[int64][]int64, len(s.LeadProducts)),
		seq:          s.seq,
		clock:        s.clock,
	}
	for id, v := range s.Users {
		snap.users[id] = *v
	}
	for id, v := range s.Leads {
		snap.leads[id] = *v
	}
	for id, v := range s.Boards {
		snap.boards[id] = *v
	}
	for id, v := range s.Placements {
		snap.placements[id] = *v
	}
	for _, o := range s.Occurrences {
		snap.occurrences = append(snap.occurrences, *o)
	}
	for id, v := range s.LeadProducts {
		snap.leadProducts[id] = append([]int64(nil), v...)
	}
	return snap
}

func (s *Store) restore(snap *snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Users = make(map[int64]*models.User, len(snap.users))
	for id, v := range snap.users {
		v := v
		s.Users[id] = &v
	}
	s.Leads = make(map[int64]*models.Lead, len(snap.leads))
	for id, v := range snap.leads {
		v := v
		s.Leads[id] = &v
	}
	s.Boards = make(map[int64]*models.Board, len(snap.boards))
	for id, v := range snap.boards {
		v := v
		s.Boards[id] = &v
	}
	s.Placements = make(map[int64]*models.Placement, len(snap.placements))
	for id, v := range snap.placements {
		v := v
		s.Placements[id] = &v
	}
	s.Occurrences = nil
	for _, o := range snap.occurrences {
		o := o
		s.Occurrences = append(s.Occurrences, &o)
	}
	s.LeadProducts = snap.leadProducts
	s.seq = snap.seq
	s.clock = snap.clock
}

type txKey struct{}

// MockTransactor is a mock implementation of Transactor backed by Store
type MockTransactor struct {
	store     *Store
	Commits   int
	Rollbacks int

	// BeginError fails every transaction before fn runs
	BeginError error
}

func NewMockTransactor(store *Store) *MockTransactor {
	return &MockTransactor{store: store}
}

func (m *MockTransactor) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	if m.BeginError != nil {
		return m.BeginError
	}

	snap := m.store.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		m.store.restore(snap)
		m.Rollbacks++
		return err
	}
	m.Commits++
	return nil
}

// Mocks bundles the mock repositories over one store
type Mocks struct {
	Store      *Store
	User       *MockUserRepository
	Lead       *MockLeadRepository
	Board      *MockBoardRepository
	Placement  *MockPlacementRepository
	Pipeline   *MockPipelineRepository
	Occurrence *MockOccurrenceRepository
	Product    *MockProductRepository
	Tx         *MockTransactor
}

// New creates a full set of mock repositories over an empty store
func New() *Mocks {
	store := NewStore()
	return &Mocks{
		Store:      store,
		User:       &MockUserRepository{store: store},
		Lead:       &MockLeadRepository{store: store},
		Board:      &MockBoardRepository{store: store},
		Placement:  &MockPlacementRepository{store: store},
		Pipeline:   &MockPipelineRepository{store: store},
		Occurrence: &MockOccurrenceRepository{store: store},
		Product:    &MockProductRepository{store: store},
		Tx:         NewMockTransactor(store),
	}
}

// Repositories exposes the mocks through the repository interfaces
func (m *Mocks) Repositories() *repository.Repositories {
	return &repository.Repositories{
		User:       m.User,
		Lead:       m.Lead,
		Board:      m.Board,
		Placement:  m.Placement,
		Pipeline:   m.Pipeline,
		Occurrence: m.Occurrence,
		Product:    m.Product,
		Tx:         m.Tx,
	}
}
