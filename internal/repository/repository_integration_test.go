//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/kanban-crm-api/internal/apperr"
	"github.com/kanban-crm-api/internal/config"
	"github.com/kanban-crm-api/internal/database"
	"github.com/kanban-crm-api/internal/models"
	"github.com/kanban-crm-api/internal/repository"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func migrationsPath(t *testing.T) string {
	t.Helper()
	_, currentFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine test file path")
	}
	return filepath.Join(filepath.Dir(filepath.Dir(filepath.Dir(currentFile))), "migrations")
}

// setupPostgres starts a migrated Postgres container
func setupPostgres(t *testing.T) (*database.DB, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
			"POSTGRES_DB":       "kanban_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Postgres container: %v", err)
	}

	host, err := pgC.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := pgC.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	cfg := config.Default().Database
	cfg.Host = host
	cfg.Port = port.Port()
	cfg.Name = "kanban_test"

	db, err := database.New(&cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	if err := db.RunMigrations(migrationsPath(t)); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	cleanup := func() {
		db.Close()
		if err := pgC.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate Postgres container: %v", err)
		}
	}
	return db, cleanup
}

type fixture struct {
	admin, agent, collab *models.User
}

func seedUsers(t *testing.T, ctx context.Context, repos *repository.Repositories) fixture {
	t.Helper()
	admin := &models.User{Name: "Admin", Email: "admin@crm.test", Profile: models.ProfileAdmin, Active: true}
	require.NoError(t, repos.User.Create(ctx, admin))
	agent := &models.User{Name: "Alice", Email: "alice@crm.test", Profile: models.ProfileAgent, Active: true}
	require.NoError(t, repos.User.Create(ctx, agent))
	collab := &models.User{Name: "Bob", Email: "bob@crm.test", Profile: models.ProfileCollaborator, ParentUserID: &agent.ID, Active: true}
	require.NoError(t, repos.User.Create(ctx, collab))
	return fixture{admin: admin, agent: agent, collab: collab}
}

func TestRepositories_Postgres(t *testing.T) {
	db, cleanup := setupPostgres(t)
	defer cleanup()

	ctx := context.Background()
	repos := repository.New(db)
	fx := seedUsers(t, ctx, repos)

	t.Run("users by parent", func(t *testing.T) {
		children, err := repos.User.ListByParent(ctx, fx.agent.ID)
		require.NoError(t, err)
		require.Len(t, children, 1)
		assert.Equal(t, fx.collab.ID, children[0].ID)

		missing, err := repos.User.GetByID(ctx, 9999)
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("novos lookup and ordering", func(t *testing.T) {
		novos := &models.Board{Name: models.NovosBoardName, Color: "#6B7280", Type: models.BoardTypeAgent,
			OwnerUserID: fx.agent.ID, AgentID: &fx.agent.ID, FlowDirection: models.FlowBuyer, Active: true}
		require.NoError(t, repos.Board.Create(ctx, novos))

		found, err := repos.Board.FindNovos(ctx, models.BoardTypeAgent, fx.agent.ID, models.FlowBuyer)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, novos.ID, found.ID)

		none, err := repos.Board.FindNovos(ctx, models.BoardTypeAgent, fx.agent.ID, models.FlowSeller)
		require.NoError(t, err)
		assert.Nil(t, none)

		next, err := repos.Board.NextOrder(ctx, models.BoardTypeAgent, fx.agent.ID, models.FlowBuyer)
		require.NoError(t, err)
		assert.Equal(t, 1, next)
	})

	t.Run("placement scope and version check", func(t *testing.T) {
		lead := &models.Lead{Name: "Maria", Email: "maria@example.com"}
		require.NoError(t, repos.Lead.Create(ctx, lead))

		unplaced := models.PlacementScope{FlowDirection: models.FlowBuyer, IncludeUnplaced: true, VendorNull: true}
		count, err := repos.Board.CountLeads(ctx, unplaced)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		p := &models.Placement{LeadID: lead.ID, FlowDirection: models.FlowBuyer, VendorID: &fx.agent.ID}
		require.NoError(t, repos.Placement.Insert(ctx, p))
		assert.Equal(t, int64(1), p.Version)

		dup := &models.Placement{LeadID: lead.ID, FlowDirection: models.FlowBuyer}
		err = repos.Placement.Insert(ctx, dup)
		assert.True(t, errors.Is(err, apperr.ErrConflict), "got %v", err)

		count, err = repos.Board.CountLeads(ctx, unplaced)
		require.NoError(t, err)
		assert.Equal(t, 0, count)

		stale := *p
		p.CollaboratorID = &fx.collab.ID
		require.NoError(t, repos.Placement.Update(ctx, p, true))
		assert.Equal(t, int64(2), p.Version)

		err = repos.Placement.Update(ctx, &stale, true)
		assert.True(t, errors.Is(err, apperr.ErrConflict), "got %v", err)

		leads, err := repos.Lead.List(ctx, models.LeadFilter{
			Visibility: &models.LeadVisibility{CollaboratorIDs: []int64{fx.collab.ID}},
		})
		require.NoError(t, err)
		require.Len(t, leads, 1)
		assert.Equal(t, "maria@example.com", leads[0].Email)

		leads, err = repos.Lead.List(ctx, models.LeadFilter{
			Scope: &models.PlacementScope{FlowDirection: models.FlowBuyer, CollaboratorID: &fx.collab.ID, StatusNull: true},
		})
		require.NoError(t, err)
		assert.Len(t, leads, 1)
	})

	t.Run("transaction rolls back", func(t *testing.T) {
		sentinel := fmt.Errorf("abort")
		var leadID int64
		err := db.WithTx(ctx, func(ctx context.Context) error {
			lead := &models.Lead{Name: "Ghost"}
			if err := repos.Lead.Create(ctx, lead); err != nil {
				return err
			}
			leadID = lead.ID
			return sentinel
		})
		assert.Equal(t, sentinel, err)

		lead, err := repos.Lead.GetByID(ctx, leadID)
		require.NoError(t, err)
		assert.Nil(t, lead)
	})

	t.Run("board row lock inside transaction", func(t *testing.T) {
		board := &models.Board{Name: "Alice", Color: "#112233", Type: models.BoardTypeAdmin,
			OwnerUserID: fx.admin.ID, AgentID: &fx.agent.ID, FlowDirection: models.FlowBuyer, Active: true}
		require.NoError(t, repos.Board.Create(ctx, board))

		err := db.WithTx(ctx, func(ctx context.Context) error {
			locked, err := repos.Board.GetByIDForUpdate(ctx, board.ID)
			if err != nil {
				return err
			}
			locked.Active = false
			return repos.Board.Update(ctx, locked)
		})
		require.NoError(t, err)

		boards, err := repos.Board.List(ctx, models.BoardFilter{Type: models.BoardTypeAdmin})
		require.NoError(t, err)
		assert.Empty(t, boards)
	})

	t.Run("products and occurrences", func(t *testing.T) {
		_, err := db.ExecContext(ctx, `INSERT INTO products (name) VALUES ('Plan A'), ('Plan B')`)
		require.NoError(t, err)

		lead := &models.Lead{Name: "Joao"}
		require.NoError(t, repos.Lead.Create(ctx, lead))

		found, err := repos.Product.FindByIDs(ctx, []int64{1, 2, 42})
		require.NoError(t, err)
		assert.Len(t, found, 2)

		require.NoError(t, repos.Product.LinkToLead(ctx, lead.ID, []int64{1, 2}))
		byLead, err := repos.Product.ListByLeads(ctx, []int64{lead.ID})
		require.NoError(t, err)
		assert.Len(t, byLead[lead.ID], 2)

		flow := models.FlowBuyer
		require.NoError(t, repos.Occurrence.Create(ctx, &models.Occurrence{
			LeadID: lead.ID, Text: `Lead created in board "Novos"`, Kind: models.OccurrenceSystem,
			UserID: fx.admin.ID, FlowDirection: &flow,
		}))
		trail, err := repos.Occurrence.ListByLead(ctx, lead.ID)
		require.NoError(t, err)
		require.Len(t, trail, 1)
		assert.Equal(t, models.FlowBuyer, *trail[0].FlowDirection)

		require.NoError(t, repos.Lead.Delete(ctx, lead.ID))
		trail, err = repos.Occurrence.ListByLead(ctx, lead.ID)
		require.NoError(t, err)
		assert.Empty(t, trail)
	})
}
