package archive

import (
	"context"
	"io"
	"time"

	"github.com/rpggio/riskdraft/internal/domain/activity"
	"github.com/rpggio/riskdraft/internal/domain/table"
)

// Repository keeps the ordered process archive.
type Repository interface {
	List(ctx context.Context) ([]Process, error)
	Get(ctx context.Context, id string) (*Process, error)
	Count(ctx context.Context) (int, error)
	Append(ctx context.Context, proc *Process) error
	Replace(ctx context.Context, proc *Process) error
	Delete(ctx context.Context, id string) error
	Swap(ctx context.Context, i, j int) error
}

// ActivityLogger records archive events.
type ActivityLogger interface {
	LogActivity(ctx context.Context, entry *activity.Entry) error
}

// Summarizer produces the short safety summary stored with a process.
type Summarizer interface {
	Summarize(ctx context.Context, title string, rows []table.Row) (string, error)
}

// Exporter renders the archive as a downloadable document.
type Exporter interface {
	Write(w io.Writer, processes []Process) error
	Filename(now time.Time) string
}
