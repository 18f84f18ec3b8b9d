package transport

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rpggio/riskdraft/internal/domain/activity"
	"github.com/rpggio/riskdraft/internal/domain/archive"
	"github.com/rpggio/riskdraft/internal/domain/table"
	"github.com/rpggio/riskdraft/internal/domain/workspace"
)

// WorkspaceService defines the editing-session operations exposed over HTTP.
type WorkspaceService interface {
	Snapshot() workspace.Snapshot
	Reset() workspace.Snapshot
	SetTitle(title string) workspace.Snapshot
	SetProcedure(text string) workspace.Snapshot
	SetImage(img workspace.Image) workspace.Snapshot
	ClearImage() workspace.Snapshot
	AddRow() workspace.Snapshot
	RemoveRow(id string) workspace.Snapshot
	MoveRow(index int, dir table.Direction) workspace.Snapshot
	UpdateField(id string, field table.Field, value string) workspace.Snapshot
	Paste(text string) (workspace.Snapshot, bool)
	Draft(ctx context.Context) (workspace.Snapshot, error)
	Supplement(ctx context.Context) (workspace.Snapshot, error)
	Save(ctx context.Context) (*archive.Process, error)
	Edit(ctx context.Context, id string) (workspace.Snapshot, error)
}

// ArchiveService defines the archive operations exposed over HTTP.
type ArchiveService interface {
	Summaries(ctx context.Context) ([]archive.ProcessSummary, error)
	Get(ctx context.Context, id string) (*archive.Process, error)
	Delete(ctx context.Context, id string) error
	Move(ctx context.Context, index int, dir table.Direction) error
	Export(ctx context.Context, w io.Writer) (string, error)
}

// ActivityService lists archive events.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error)
}

// BusyRecorder counts fail-fast refusals.
type BusyRecorder interface {
	BusyRejected(operation string)
}

// Config wires the router.
type Config struct {
	Workspace WorkspaceService
	Archive   ArchiveService
	Activity  ActivityService
	Logger    *slog.Logger
	Busy      BusyRecorder
	// Metrics and MCP are mounted when non-nil.
	Metrics http.Handler
	MCP     http.Handler
}

// Server holds the HTTP handlers.
type Server struct {
	workspace WorkspaceService
	archive   ArchiveService
	activity  ActivityService
	logger    *slog.Logger
	busy      BusyRecorder
}

// NewRouter creates the HTTP router with middleware.
func NewRouter(cfg Config) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(cfg.Logger))

	srv := &Server{
		workspace: cfg.Workspace,
		archive:   cfg.Archive,
		activity:  cfg.Activity,
		logger:    cfg.Logger,
		busy:      cfg.Busy,
	}

	r.Get("/health", srv.handleHealth)
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}
	if cfg.MCP != nil {
		r.Handle("/mcp", cfg.MCP)
		r.Handle("/mcp/*", cfg.MCP)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/workspace", func(r chi.Router) {
			r.Get("/", srv.handleGetWorkspace)
			r.Post("/reset", srv.handleReset)
			r.Put("/title", srv.handleSetTitle)
			r.Put("/procedure", srv.handleSetProcedure)
			r.Put("/image", srv.handleSetImage)
			r.Delete("/image", srv.handleClearImage)
			r.Post("/rows", srv.handleAddRow)
			r.Post("/rows/move", srv.handleMoveRow)
			r.Patch("/rows/{id}", srv.handleUpdateRow)
			r.Delete("/rows/{id}", srv.handleRemoveRow)
			r.Post("/paste", srv.handlePaste)
			r.Post("/draft", srv.handleDraft)
			r.Post("/supplement", srv.handleSupplement)
			r.Post("/save", srv.handleSave)
		})
		r.Route("/processes", func(r chi.Router) {
			r.Get("/", srv.handleListProcesses)
			r.Post("/move", srv.handleMoveProcess)
			r.Get("/{id}", srv.handleGetProcess)
			r.Post("/{id}/edit", srv.handleEditProcess)
			r.Delete("/{id}", srv.handleDeleteProcess)
		})
		r.Get("/export", srv.handleExport)
		r.Get("/activity", srv.handleActivity)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// fail writes the mapped error and logs anything the client cannot fix.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, operation string, err error) {
	status, body := MapError(err)
	if body.Code == "BUSY" && s.busy != nil {
		s.busy.BusyRejected(operation)
	}
	if status >= http.StatusInternalServerError && s.logger != nil {
		s.logger.Error("request failed", "operation", operation, "path", r.URL.Path, "error", err)
	}
	writeError(w, status, body)
}
