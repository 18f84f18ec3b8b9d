package workspace

import "github.com/rpggio/riskdraft/internal/domain/table"

// State is the derived phase of the editing session.
type State string

const (
	StateIdle          State = "idle"
	StateDrafting      State = "drafting"
	StateEditing       State = "editing"
	StateSupplementing State = "supplementing"
)

// Image is an uploaded or pasted site photo, held in memory only.
type Image struct {
	Data     []byte
	MIMEType string
}

// DraftRequest carries the drafting inputs sent to the analyzer.
type DraftRequest struct {
	Title         string
	Image         *Image
	ProcedureText string
}

// DraftResult is a parsed draft: rows plus the legal-clause summary.
type DraftResult struct {
	Rows         []table.Row
	LegalClauses string
}

// SupplementRow is one row of the read-only supplement table.
type SupplementRow struct {
	UnitTask        string `json:"unitTask"`
	PotentialHazard string `json:"potentialHazard"`
	SafetyMeasure   string `json:"safetyMeasure"`
}

// Busy reports which gated calls are in flight.
type Busy struct {
	Drafting      bool `json:"drafting"`
	Supplementing bool `json:"supplementing"`
	Saving        bool `json:"saving"`
}

// Snapshot is a consistent copy of the workspace taken under its lock.
type Snapshot struct {
	State         State           `json:"state"`
	EditingID     string          `json:"editingId,omitempty"`
	Title         string          `json:"title"`
	ProcedureText string          `json:"procedureText"`
	HasImage      bool            `json:"hasImage"`
	ImageMIMEType string          `json:"imageMimeType,omitempty"`
	LegalClauses  string          `json:"legalClauses"`
	Rows          []table.Row     `json:"rows"`
	Supplement    []SupplementRow `json:"supplement"`
	Busy          Busy            `json:"busy"`
}
