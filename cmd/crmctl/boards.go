package main

import (
	"context"
	"fmt"

	"github.com/kanban-crm-api/internal/metrics"
	"github.com/kanban-crm-api/internal/models"
	"github.com/kanban-crm-api/internal/repository"
	"github.com/kanban-crm-api/internal/service"
	"github.com/spf13/cobra"
)

func newBoardsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "boards",
		Short: "Board provisioning commands",
	}

	cmd.AddCommand(newEnsureNovosCmd())
	return cmd
}

type ensureNovosOptions struct {
	userID         int64
	boardType      string
	flow           string
	agentID        int64
	collaboratorID int64
}

// request converts the flags into a service request. Zero ids are unset.
func (o ensureNovosOptions) request() (models.EnsureBoardRequest, error) {
	if o.userID <= 0 {
		return models.EnsureBoardRequest{}, fmt.Errorf("--user is required")
	}
	req := models.EnsureBoardRequest{
		Type:          models.BoardType(o.boardType),
		FlowDirection: models.FlowDirection(o.flow),
	}
	if o.agentID > 0 {
		id := o.agentID
		req.AgentID = &id
	}
	if o.collaboratorID > 0 {
		id := o.collaboratorID
		req.CollaboratorID = &id
	}
	return req, nil
}

func newEnsureNovosCmd() *cobra.Command {
	var opts ensureNovosOptions

	cmd := &cobra.Command{
		Use:   "ensure-novos",
		Short: "Create the Novos board of a view if it does not exist",
		Long:  "Runs the same provisioning as POST /v1/boards/ensure-novos, acting as --user.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := opts.request()
			if err != nil {
				return err
			}

			cfg, db, log, err := connect()
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := context.Background()
			services := service.NewServices(repository.New(db), cfg, metrics.New(), log)

			actor, err := services.Users.Actor(ctx, opts.userID)
			if err != nil {
				return err
			}
			board, err := services.Boards.EnsureNovosBoard(ctx, actor, req)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Board %d %q type=%s flow=%s owner=%d\n",
				board.ID, board.Name, board.Type, board.FlowDirection, board.OwnerUserID)
			return nil
		},
	}

	cmd.Flags().Int64VarP(&opts.userID, "user", "u", 0, "id of the acting user")
	cmd.Flags().StringVarP(&opts.boardType, "type", "t", string(models.BoardTypeAdmin), "board type: ADMIN, AGENT or COLLABORATOR")
	cmd.Flags().StringVar(&opts.flow, "flow", "", "flow direction: BUYER or SELLER (default BUYER)")
	cmd.Flags().Int64Var(&opts.agentID, "agent-id", 0, "agent the board belongs to")
	cmd.Flags().Int64Var(&opts.collaboratorID, "collaborator-id", 0, "collaborator the board belongs to")
	return cmd
}
