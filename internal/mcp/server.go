package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/riskdraft/internal/domain/activity"
	"github.com/rpggio/riskdraft/internal/domain/archive"
	"github.com/rpggio/riskdraft/internal/domain/table"
	"github.com/rpggio/riskdraft/internal/domain/workspace"
)

// WorkspaceService defines the editing-session operations needed by MCP.
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

// ArchiveService defines archive operations needed by MCP.
type ArchiveService interface {
	Summaries(ctx context.Context) ([]archive.ProcessSummary, error)
	Get(ctx context.Context, id string) (*archive.Process, error)
	Delete(ctx context.Context, id string) error
	Move(ctx context.Context, index int, dir table.Direction) error
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error)
}

// BusyRecorder counts fail-fast refusals.
type BusyRecorder interface {
	BusyRejected(operation string)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Workspace WorkspaceService
	Archive   ArchiveService
	Activity  ActivityService
	// Busy is optional.
	Busy BusyRecorder
}

// Config contains server configuration.
type Config struct {
	Services Services
	Version  string
	Logger   *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "riskdraft",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Services)

	return server
}
