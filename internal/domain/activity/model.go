package activity

import "time"

// Type represents the kind of archive event
type Type string

const (
	TypeProcessSaved    Type = "process_saved"
	TypeProcessUpdated  Type = "process_updated"
	TypeProcessDeleted  Type = "process_deleted"
	TypeProcessMoved    Type = "process_moved"
	TypeArchiveExported Type = "archive_exported"
)

// Entry represents an event in the activity log
type Entry struct {
	ID        int64     `json:"id"`
	ProcessID *string   `json:"processId,omitempty"`
	Type      Type      `json:"type"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"createdAt"`
}
