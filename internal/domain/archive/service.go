package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/riskdraft/internal/domain/activity"
	"github.com/rpggio/riskdraft/internal/domain/table"
	"github.com/rpggio/riskdraft/internal/repository"
)

// Service manages the ordered archive of saved processes.
type Service struct {
	repo       Repository
	activities ActivityLogger
	summarizer Summarizer
	exporter   Exporter
	logger     *slog.Logger
	now        func() time.Time
	loc        *time.Location
}

// NewService creates a new archive service.
func NewService(repo Repository, activities ActivityLogger, summarizer Summarizer, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		activities: activities,
		summarizer: summarizer,
		logger:     logger,
		now:        time.Now,
		loc:        time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SaveRequest describes a save of the working table.
type SaveRequest struct {
	Title     string
	Rows      []table.Row
	EditingID string
}

// Save filters the rows, summarizes them and commits the process. A request
// whose EditingID names an archived process replaces that entry in place and
// keeps its id, position and CreatedAt; anything else appends a new entry.
func (s *Service) Save(ctx context.Context, req SaveRequest) (*Process, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, &ValidationError{Field: "title", Reason: "title is required"}
	}
	rows := table.Eligible(req.Rows)
	if len(rows) == 0 {
		return nil, &ValidationError{Field: "rows", Reason: "no rows with a unit task"}
	}

	var existing *Process
	if req.EditingID != "" {
		proc, err := s.repo.Get(ctx, req.EditingID)
		switch {
		case err == nil:
			existing = proc
		case errors.Is(err, repository.ErrNotFound):
		default:
			return nil, fmt.Errorf("loading process: %w", err)
		}
	}

	summary := ""
	if s.summarizer != nil {
		text, err := s.summarizer.Summarize(ctx, req.Title, rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSummaryFailed, err)
		}
		summary = text
	}

	if existing != nil {
		updated := Process{
			ID:        existing.ID,
			Title:     req.Title,
			Summary:   summary,
			Rows:      rows,
			CreatedAt: existing.CreatedAt,
		}
		err := s.repo.Replace(ctx, &updated)
		switch {
		case err == nil:
			s.log(ctx, activity.TypeProcessUpdated, &updated.ID, fmt.Sprintf("updated process %q", updated.Title))
			return &updated, nil
		case errors.Is(err, repository.ErrNotFound):
			// Deleted while the summary was running; save it as a new entry.
		default:
			return nil, fmt.Errorf("updating process: %w", err)
		}
	}

	proc := Process{
		ID:        uuid.NewString(),
		Title:     req.Title,
		Summary:   summary,
		Rows:      rows,
		CreatedAt: FormatKoreanTimestamp(s.now().In(s.loc)),
	}
	if err := s.repo.Append(ctx, &proc); err != nil {
		return nil, fmt.Errorf("appending process: %w", err)
	}
	s.log(ctx, activity.TypeProcessSaved, &proc.ID, fmt.Sprintf("saved process %q", proc.Title))
	return &proc, nil
}

// Get returns a copy of one archived process.
func (s *Service) Get(ctx context.Context, id string) (*Process, error) {
	proc, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProcessNotFound
		}
		return nil, fmt.Errorf("getting process: %w", err)
	}
	return proc, nil
}

// List returns all processes in archive order.
func (s *Service) List(ctx context.Context) ([]Process, error) {
	procs, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing processes: %w", err)
	}
	return procs, nil
}

// Summaries returns listing entries with 1-based sequence numbers.
func (s *Service) Summaries(ctx context.Context) ([]ProcessSummary, error) {
	procs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ProcessSummary, 0, len(procs))
	for i, p := range procs {
		out = append(out, ProcessSummary{
			ID:        p.ID,
			Sequence:  i + 1,
			Title:     p.Title,
			Summary:   p.Summary,
			RowCount:  len(p.Rows),
			CreatedAt: p.CreatedAt,
		})
	}
	return out, nil
}

// Count returns the archive length.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// Delete removes a process. Unknown ids are ignored.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("deleting process: %w", err)
	}
	s.log(ctx, activity.TypeProcessDeleted, &id, fmt.Sprintf("deleted process %s", id))
	return nil
}

// Move swaps the process at index with its neighbour. Moves past either end
// are ignored.
func (s *Service) Move(ctx context.Context, index int, dir table.Direction) error {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting processes: %w", err)
	}
	target, ok := dir.Target(index, n)
	if !ok {
		return nil
	}
	if err := s.repo.Swap(ctx, index, target); err != nil {
		// The archive shrank after the count.
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("moving process: %w", err)
	}
	s.log(ctx, activity.TypeProcessMoved, nil, fmt.Sprintf("moved process %d %s", index+1, dir))
	return nil
}

// Export writes the whole archive through the configured exporter and
// returns the download filename.
func (s *Service) Export(ctx context.Context, w io.Writer) (string, error) {
	if s.exporter == nil {
		return "", fmt.Errorf("exporter not configured")
	}
	procs, err := s.List(ctx)
	if err != nil {
		return "", err
	}
	if len(procs) == 0 {
		return "", &ValidationError{Field: "archive", Reason: "nothing to export"}
	}
	if err := s.exporter.Write(w, procs); err != nil {
		return "", fmt.Errorf("writing export: %w", err)
	}
	s.log(ctx, activity.TypeArchiveExported, nil, fmt.Sprintf("exported %d processes", len(procs)))
	return s.exporter.Filename(s.now().In(s.loc)), nil
}

func (s *Service) log(ctx context.Context, typ activity.Type, processID *string, summary string) {
	if s.logger != nil {
		s.logger.Info("archive event", "type", typ, "summary", summary)
	}
	if s.activities == nil {
		return
	}
	err := s.activities.LogActivity(ctx, &activity.Entry{
		ProcessID: processID,
		Type:      typ,
		Summary:   summary,
		CreatedAt: s.now(),
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("failed to record activity", "type", typ, "error", err)
	}
}
