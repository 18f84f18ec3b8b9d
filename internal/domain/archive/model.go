package archive

import "github.com/rpggio/riskdraft/internal/domain/table"

// Process is a saved, named snapshot of a risk-assessment table.
type Process struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Summary   string      `json:"summary"`
	Rows      []table.Row `json:"rows"`
	CreatedAt string      `json:"createdAt"`
}

// ProcessSummary is a lightweight listing entry.
type ProcessSummary struct {
	ID        string `json:"id"`
	Sequence  int    `json:"sequence"`
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	RowCount  int    `json:"rowCount"`
	CreatedAt string `json:"createdAt"`
}
