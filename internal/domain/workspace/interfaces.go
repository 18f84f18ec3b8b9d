package workspace

import (
	"context"

	"github.com/rpggio/riskdraft/internal/domain/archive"
	"github.com/rpggio/riskdraft/internal/domain/table"
)

// Analyzer drafts and supplements risk-assessment tables.
type Analyzer interface {
	Draft(ctx context.Context, req DraftRequest) (DraftResult, error)
	Supplement(ctx context.Context, rows []table.Row) ([]SupplementRow, error)
}

// Archive is the part of the process archive the workspace drives.
type Archive interface {
	Save(ctx context.Context, req archive.SaveRequest) (*archive.Process, error)
	Get(ctx context.Context, id string) (*archive.Process, error)
}
