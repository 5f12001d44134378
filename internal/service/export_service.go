package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/kanban-crm-api/internal/apperr"
	"github.com/kanban-crm-api/internal/models"
	"github.com/kanban-crm-api/internal/repository"
	"github.com/rs/zerolog"
)

// flushEvery is the number of records written between flushes
const flushEvery = 100

// exportService is the concrete implementation of ExportService
type exportService struct {
	repos *repository.Repositories
	vis   *visibility
	log   zerolog.Logger
}

// newExportService creates a new ExportService
func newExportService(repos *repository.Repositories, vis *visibility, log zerolog.Logger) *exportService {
	return &exportService{
		repos: repos,
		vis:   vis,
		log:   log.With().Str("service", "export").Logger(),
	}
}

// StreamLeads streams the leads visible to actor in the specified format
func (s *exportService) StreamLeads(ctx context.Context, actor *models.User, w http.ResponseWriter, format string) error {
	var stream func(context.Context, http.ResponseWriter, models.LeadFilter) (int, error)
	switch format {
	case "ndjson":
		stream = s.streamNDJSON
	case "json":
		stream = s.streamJSON
	case "csv":
		stream = s.streamCSV
	default:
		return apperr.InvalidArgumentf("unsupported format: %s", format)
	}

	vis, err := s.vis.Scope(ctx, actor)
	if err != nil {
		return err
	}

	s.log.Info().Str("format", format).Int64("user_id", actor.ID).Msg("Starting leads export")
	count, err := stream(ctx, w, models.LeadFilter{Visibility: &vis})
	s.log.Info().Int("count", count).Msg("Leads export completed")
	return err
}

func (s *exportService) streamNDJSON(ctx context.Context, w http.ResponseWriter, filter models.LeadFilter) (int, error) {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Content-Disposition", "attachment; filename=leads.ndjson")

	flusher, _ := w.(http.Flusher)
	count := 0

	err := s.repos.Lead.StreamAll(ctx, filter, func(lead *models.Lead) error {
		data, err := json.Marshal(lead)
		if err != nil {
			return err
		}
		data = append(data, '\n')
		if _, err := w.Write(data); err != nil {
			return err
		}
		count++

		if count%flushEvery == 0 && flusher != nil {
			flusher.Flush()
		}
		return nil
	})
	return count, err
}

func (s *exportService) streamJSON(ctx context.Context, w http.ResponseWriter, filter models.LeadFilter) (int, error) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=leads.json")

	if _, err := w.Write([]byte("[")); err != nil {
		return 0, err
	}
	count := 0

	err := s.repos.Lead.StreamAll(ctx, filter, func(lead *models.Lead) error {
		if count > 0 {
			if _, err := w.Write([]byte(",")); err != nil {
				return err
			}
		}
		data, err := json.Marshal(lead)
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
		count++
		return nil
	})

	if _, werr := w.Write([]byte("]")); err == nil {
		err = werr
	}
	return count, err
}

func (s *exportService) streamCSV(ctx context.Context, w http.ResponseWriter, filter models.LeadFilter) (int, error) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=leads.csv")

	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"id", "name", "email", "phone", "document", "source", "created_at", "updated_at"}); err != nil {
		return 0, err
	}
	count := 0

	err := s.repos.Lead.StreamAll(ctx, filter, func(lead *models.Lead) error {
		count++
		if count%flushEvery == 0 {
			writer.Flush()
		}
		return writer.Write([]string{
			strconv.FormatInt(lead.ID, 10),
			lead.Name,
			lead.Email,
			lead.Phone,
			lead.Document,
			lead.Source,
			lead.CreatedAt.UTC().Format(time.RFC3339),
			lead.UpdatedAt.UTC().Format(time.RFC3339),
		})
	})

	writer.Flush()
	if err == nil {
		err = writer.Error()
	}
	return count, err
}
