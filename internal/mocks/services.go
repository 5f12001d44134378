package mocks

import (
	"context"
	"net/http"

	"github.com/kanban-crm-api/internal/apperr"
	"github.com/kanban-crm-api/internal/models"
)

// MockBoardService is a mock implementation of service.BoardService.
// Unset funcs return zero values.
type MockBoardService struct {
	ListBoardsFunc        func(ctx context.Context, actor *models.User, filter models.BoardFilter) ([]*models.Board, error)
	GetBoardFunc          func(ctx context.Context, actor *models.User, id int64) (*models.Board, error)
	BoardLeadsFunc        func(ctx context.Context, actor *models.User, id int64, limit, offset int) ([]*models.Lead, error)
	EnsureNovosBoardFunc  func(ctx context.Context, actor *models.User, req models.EnsureBoardRequest) (*models.Board, error)
	CreateBoardFunc       func(ctx context.Context, actor *models.User, req models.CreateBoardRequest) (*models.Board, error)
	UpdateBoardFunc       func(ctx context.Context, actor *models.User, id int64, req models.UpdateBoardRequest) (*models.Board, error)
	UpdateBoardOrderFunc  func(ctx context.Context, actor *models.User, orders []models.BoardOrder) error
	RemoveBoardFunc       func(ctx context.Context, actor *models.User, id int64) error
	CreateLeadInBoardFunc func(ctx context.Context, actor *models.User, boardID int64, req models.CreateLeadRequest) (*models.Lead, error)
	MoveLeadFunc          func(ctx context.Context, actor *models.User, req models.MoveLeadRequest) (*models.Lead, error)

	// Actors records the acting user of every call
	Actors []*models.User
}

func NewMockBoardService() *MockBoardService {
	return &MockBoardService{}
}

func (m *MockBoardService) ListBoards(ctx context.Context, actor *models.User, filter models.BoardFilter) ([]*models.Board, error) {
	m.Actors = append(m.Actors, actor)
	if m.ListBoardsFunc != nil {
		return m.ListBoardsFunc(ctx, actor, filter)
	}
	return []*models.Board{}, nil
}

func (m *MockBoardService) GetBoard(ctx context.Context, actor *models.User, id int64) (*models.Board, error) {
	m.Actors = append(m.Actors, actor)
	if m.GetBoardFunc != nil {
		return m.GetBoardFunc(ctx, actor, id)
	}
	return nil, apperr.NotFoundf("board %d not found", id)
}

func (m *MockBoardService) BoardLeads(ctx context.Context, actor *models.User, id int64, limit, offset int) ([]*models.Lead, error) {
	m.Actors = append(m.Actors, actor)
	if m.BoardLeadsFunc != nil {
		return m.BoardLeadsFunc(ctx, actor, id, limit, offset)
	}
	return []*models.Lead{}, nil
}

func (m *MockBoardService) EnsureNovosBoard(ctx context.Context, actor *models.User, req models.EnsureBoardRequest) (*models.Board, error) {
	m.Actors = append(m.Actors, actor)
	if m.EnsureNovosBoardFunc != nil {
		return m.EnsureNovosBoardFunc(ctx, actor, req)
	}
	return &models.Board{ID: 1, Name: models.NovosBoardName, Type: req.Type, OwnerUserID: actor.ID, Active: true}, nil
}

func (m *MockBoardService) CreateBoard(ctx context.Context, actor *models.User, req models.CreateBoardRequest) (*models.Board, error) {
	m.Actors = append(m.Actors, actor)
	if m.CreateBoardFunc != nil {
		return m.CreateBoardFunc(ctx, actor, req)
	}
	return &models.Board{ID: 1, Name: req.Name, Type: req.Type, OwnerUserID: actor.ID, Active: true}, nil
}

func (m *MockBoardService) UpdateBoard(ctx context.Context, actor *models.User, id int64, req models.UpdateBoardRequest) (*models.Board, error) {
	m.Actors = append(m.Actors, actor)
	if m.UpdateBoardFunc != nil {
		return m.UpdateBoardFunc(ctx, actor, id, req)
	}
	return &models.Board{ID: id, Active: true}, nil
}

func (m *MockBoardService) UpdateBoardOrder(ctx context.Context, actor *models.User, orders []models.BoardOrder) error {
	m.Actors = append(m.Actors, actor)
	if m.UpdateBoardOrderFunc != nil {
		return m.UpdateBoardOrderFunc(ctx, actor, orders)
	}
	return nil
}

func (m *MockBoardService) RemoveBoard(ctx context.Context, actor *models.User, id int64) error {
	m.Actors = append(m.Actors, actor)
	if m.RemoveBoardFunc != nil {
		return m.RemoveBoardFunc(ctx, actor, id)
	}
	return nil
}

func (m *MockBoardService) CreateLeadInBoard(ctx context.Context, actor *models.User, boardID int64, req models.CreateLeadRequest) (*models.Lead, error) {
	m.Actors = append(m.Actors, actor)
	if m.CreateLeadInBoardFunc != nil {
		return m.CreateLeadInBoardFunc(ctx, actor, boardID, req)
	}
	return &models.Lead{ID: 1, Name: req.Name}, nil
}

func (m *MockBoardService) MoveLead(ctx context.Context, actor *models.User, req models.MoveLeadRequest) (*models.Lead, error) {
	m.Actors = append(m.Actors, actor)
	if m.MoveLeadFunc != nil {
		return m.MoveLeadFunc(ctx, actor, req)
	}
	return &models.Lead{ID: req.LeadID}, nil
}

// MockLeadService is a mock implementation of service.LeadService
type MockLeadService struct {
	FindAllFunc     func(ctx context.Context, actor *models.User, filter models.LeadFilter) ([]*models.Lead, error)
	FindOneFunc     func(ctx context.Context, actor *models.User, id int64) (*models.Lead, error)
	UpdateFunc      func(ctx context.Context, actor *models.User, id int64, req models.UpdateLeadRequest) (*models.Lead, error)
	RemoveFunc      func(ctx context.Context, actor *models.User, id int64) error
	OccurrencesFunc func(ctx context.Context, actor *models.User, id int64) ([]*models.Occurrence, error)

	Filters []models.LeadFilter
}

func NewMockLeadService() *MockLeadService {
	return &MockLeadService{}
}

func (m *MockLeadService) FindAll(ctx context.Context, actor *models.User, filter models.LeadFilter) ([]*models.Lead, error) {
	m.Filters = append(m.Filters, filter)
	if m.FindAllFunc != nil {
		return m.FindAllFunc(ctx, actor, filter)
	}
	return []*models.Lead{}, nil
}

func (m *MockLeadService) FindOne(ctx context.Context, actor *models.User, id int64) (*models.Lead, error) {
	if m.FindOneFunc != nil {
		return m.FindOneFunc(ctx, actor, id)
	}
	return nil, apperr.NotFoundf("lead %d not found", id)
}

func (m *MockLeadService) Update(ctx context.Context, actor *models.User, id int64, req models.UpdateLeadRequest) (*models.Lead, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, actor, id, req)
	}
	return &models.Lead{ID: id}, nil
}

func (m *MockLeadService) Remove(ctx context.Context, actor *models.User, id int64) error {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, actor, id)
	}
	return nil
}

func (m *MockLeadService) Occurrences(ctx context.Context, actor *models.User, id int64) ([]*models.Occurrence, error) {
	if m.OccurrencesFunc != nil {
		return m.OccurrencesFunc(ctx, actor, id)
	}
	return []*models.Occurrence{}, nil
}

// MockExportService is a mock implementation of service.ExportService
type MockExportService struct {
	StreamLeadsFunc func(ctx context.Context, actor *models.User, w http.ResponseWriter, format string) error
	Formats         []string
}

func NewMockExportService() *MockExportService {
	return &MockExportService{}
}

func (m *MockExportService) StreamLeads(ctx context.Context, actor *models.User, w http.ResponseWriter, format string) error {
	m.Formats = append(m.Formats, format)
	if m.StreamLeadsFunc != nil {
		return m.StreamLeadsFunc(ctx, actor, w, format)
	}
	return nil
}

// MockUserService is a mock implementation of service.UserService over a
// fixed set of users
type MockUserService struct {
	Users map[int64]*models.User
	Error error
}

func NewMockUserService(users ...*models.User) *MockUserService {
	m := &MockUserService{Users: make(map[int64]*models.User, len(users))}
	for _, u := range users {
		m.Users[u.ID] = u
	}
	return m
}

func (m *MockUserService) Actor(ctx context.Context, id int64) (*models.User, error) {
	if m.Error != nil {
		return nil, m.Error
	}
	if u, ok := m.Users[id]; ok && u.Active {
		return u, nil
	}
	return nil, apperr.Forbiddenf("unknown or inactive user %d", id)
}
