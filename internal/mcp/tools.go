package mcp

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/riskdraft/internal/domain/activity"
	"github.com/rpggio/riskdraft/internal/domain/archive"
	"github.com/rpggio/riskdraft/internal/domain/table"
	"github.com/rpggio/riskdraft/internal/domain/workspace"
)

type emptyInput struct{}

type titleInput struct {
	Title string `json:"title" jsonschema:"Construction process name"`
}

type procedureInput struct {
	Text string `json:"text" jsonschema:"Free-form description of the construction procedure"`
}

type imageInput struct {
	Data     string `json:"data" jsonschema:"Base64-encoded image bytes"`
	MIMEType string `json:"mime_type" jsonschema:"Image media type, e.g. image/png"`
}

type rowIDInput struct {
	ID string `json:"id" jsonschema:"Row id"`
}

type moveInput struct {
	Index     int    `json:"index" jsonschema:"Zero-based position of the item to move"`
	Direction string `json:"direction" jsonschema:"up or down"`
}

type updateRowInput struct {
	ID    string `json:"id" jsonschema:"Row id"`
	Field string `json:"field" jsonschema:"unitTask, potentialHazard, safetyMeasure or reflectedItems"`
	Value string `json:"value" jsonschema:"New cell text"`
}

type pasteInput struct {
	Text string `json:"text" jsonschema:"Tab-separated spreadsheet text"`
}

type processIDInput struct {
	ID string `json:"id" jsonschema:"Process id"`
}

type deleteProcessInput struct {
	ID      string `json:"id" jsonschema:"Process id"`
	Confirm bool   `json:"confirm" jsonschema:"Must be true; deletion cannot be undone"`
}

type activityInput struct {
	ProcessID string `json:"process_id,omitempty" jsonschema:"Only entries for this process"`
	Type      string `json:"type,omitempty" jsonschema:"Only entries of this type"`
	Limit     int    `json:"limit,omitempty" jsonschema:"Maximum number of entries (default 50)"`
	Offset    int    `json:"offset,omitempty" jsonschema:"Offset for pagination"`
}

type pasteOutput struct {
	Intercepted bool               `json:"intercepted"`
	Workspace   workspace.Snapshot `json:"workspace"`
}

type saveOutput struct {
	Process   archive.Process    `json:"process"`
	Workspace workspace.Snapshot `json:"workspace"`
}

type processListOutput struct {
	Processes []archive.ProcessSummary `json:"processes"`
}

type deleteOutput struct {
	Deleted string `json:"deleted"`
}

type activityEntry struct {
	ID        int64  `json:"id"`
	ProcessID string `json:"process_id,omitempty"`
	Type      string `json:"type"`
	Summary   string `json:"summary"`
	CreatedAt string `json:"created_at"`
}

type activityOutput struct {
	Entries []activityEntry `json:"entries"`
}

// handle adapts a domain call to a typed tool handler, mapping domain errors
// to tool errors.
func handle[In, Out any](fn func(context.Context, In) (Out, error)) sdkmcp.ToolHandlerFor[In, Out] {
	return func(ctx context.Context, _ *sdkmcp.CallToolRequest, in In) (*sdkmcp.CallToolResult, Out, error) {
		out, err := fn(ctx, in)
		if err != nil {
			var zero Out
			return nil, zero, MapError(err)
		}
		return nil, out, nil
	}
}

func registerTools(server *sdkmcp.Server, svc Services) {
	ws := svc.Workspace
	busy := func(operation string, err error) error {
		if errors.Is(err, workspace.ErrBusy) && svc.Busy != nil {
			svc.Busy.BusyRejected(operation)
		}
		return err
	}

	// Workspace
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_workspace",
		Description: "Get the current workspace: state, title, rows, legal clauses, supplement output and busy flags",
	}, handle(func(_ context.Context, _ emptyInput) (workspace.Snapshot, error) {
		return ws.Snapshot(), nil
	}))
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "reset_workspace",
		Description: "Discard the workspace and start a new process",
	}, handle(func(_ context.Context, _ emptyInput) (workspace.Snapshot, error) {
		return ws.Reset(), nil
	}))
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "set_title",
		Description: "Set the construction process name",
	}, handle(func(_ context.Context, in titleInput) (workspace.Snapshot, error) {
		return ws.SetTitle(in.Title), nil
	}))
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "set_procedure",
		Description: "Set the procedure text sent with run_draft",
	}, handle(func(_ context.Context, in procedureInput) (workspace.Snapshot, error) {
		return ws.SetProcedure(in.Text), nil
	}))
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "set_image",
		Description: "Attach a procedure image (drawing, photo or process chart) sent with run_draft",
	}, handle(func(_ context.Context, in imageInput) (workspace.Snapshot, error) {
		if !strings.HasPrefix(in.MIMEType, "image/") {
			return workspace.Snapshot{}, &APIError{Code: "UNSUPPORTED_MEDIA_TYPE", Message: fmt.Sprintf("%q is not an image type", in.MIMEType)}
		}
		data, err := base64.StdEncoding.DecodeString(in.Data)
		if err != nil {
			return workspace.Snapshot{}, &APIError{Code: "INVALID_PARAMS", Message: "data is not valid base64"}
		}
		return ws.SetImage(workspace.Image{Data: data, MIMEType: in.MIMEType}), nil
	}))
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "clear_image",
		Description: "Remove the attached procedure image",
	}, handle(func(_ context.Context, _ emptyInput) (workspace.Snapshot, error) {
		return ws.ClearImage(), nil
	}))

	// Rows
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "add_row",
		Description: "Append an empty row to the table",
	}, handle(func(_ context.Context, _ emptyInput) (workspace.Snapshot, error) {
		return ws.AddRow(), nil
	}))
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "remove_row",
		Description: "Remove a row; the last remaining row is kept",
	}, handle(func(_ context.Context, in rowIDInput) (workspace.Snapshot, error) {
		return ws.RemoveRow(in.ID), nil
	}))
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "move_row",
		Description: "Swap a row with its neighbour; moves past either end are ignored",
	}, handle(func(_ context.Context, in moveInput) (workspace.Snapshot, error) {
		dir, err := table.ParseDirection(in.Direction)
		if err != nil {
			return workspace.Snapshot{}, err
		}
		return ws.MoveRow(in.Index, dir), nil
	}))
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "update_row",
		Description: "Set one cell of a row",
	}, handle(func(_ context.Context, in updateRowInput) (workspace.Snapshot, error) {
		field, err := table.ParseField(in.Field)
		if err != nil {
			return workspace.Snapshot{}, err
		}
		return ws.UpdateField(in.ID, field, in.Value), nil
	}))
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "paste_rows",
		Description: "Import tab-separated spreadsheet text; replaces a blank table, otherwise appends",
	}, handle(func(_ context.Context, in pasteInput) (pasteOutput, error) {
		snap, ok := ws.Paste(in.Text)
		return pasteOutput{Intercepted: ok, Workspace: snap}, nil
	}))

	// Model calls
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "run_draft",
		Description: "Ask the model for a first risk table from the title, procedure text and image; replaces the table on success",
	}, handle(func(ctx context.Context, _ emptyInput) (workspace.Snapshot, error) {
		snap, err := ws.Draft(ctx)
		return snap, busy("draft", err)
	}))
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "run_supplement",
		Description: "Ask the model to rework hazards and measures using each row's reflected items; the result is advisory",
	}, handle(func(ctx context.Context, _ emptyInput) (workspace.Snapshot, error) {
		snap, err := ws.Supplement(ctx)
		return snap, busy("supplement", err)
	}))
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "save_process",
		Description: "Summarize and archive the workspace, then reset it",
	}, handle(func(ctx context.Context, _ emptyInput) (saveOutput, error) {
		proc, err := ws.Save(ctx)
		if err != nil {
			return saveOutput{}, busy("save", err)
		}
		return saveOutput{Process: *proc, Workspace: ws.Snapshot()}, nil
	}))

	// Archive
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_processes",
		Description: "List archived processes in order",
	}, handle(func(ctx context.Context, _ emptyInput) (processListOutput, error) {
		list, err := svc.Archive.Summaries(ctx)
		if err != nil {
			return processListOutput{}, err
		}
		return processListOutput{Processes: list}, nil
	}))
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_process",
		Description: "Get an archived process with its rows",
	}, handle(func(ctx context.Context, in processIDInput) (archive.Process, error) {
		proc, err := svc.Archive.Get(ctx, in.ID)
		if err != nil {
			return archive.Process{}, err
		}
		return *proc, nil
	}))
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "edit_process",
		Description: "Load an archived process into the workspace; procedure text, image, legal clauses and supplement output are dropped",
	}, handle(func(ctx context.Context, in processIDInput) (workspace.Snapshot, error) {
		return ws.Edit(ctx, in.ID)
	}))
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "delete_process",
		Description: "Delete an archived process",
	}, handle(func(ctx context.Context, in deleteProcessInput) (deleteOutput, error) {
		if !in.Confirm {
			return deleteOutput{}, &APIError{
				Code:         "CONFIRMATION_REQUIRED",
				Message:      "deletion needs confirm=true",
				RecoveryHint: "Ask the user, then call again with confirm=true",
			}
		}
		if err := svc.Archive.Delete(ctx, in.ID); err != nil {
			return deleteOutput{}, err
		}
		return deleteOutput{Deleted: in.ID}, nil
	}))
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "move_process",
		Description: "Swap an archived process with its neighbour; moves past either end are ignored",
	}, handle(func(ctx context.Context, in moveInput) (processListOutput, error) {
		dir, err := table.ParseDirection(in.Direction)
		if err != nil {
			return processListOutput{}, err
		}
		if err := svc.Archive.Move(ctx, in.Index, dir); err != nil {
			return processListOutput{}, err
		}
		list, err := svc.Archive.Summaries(ctx)
		if err != nil {
			return processListOutput{}, err
		}
		return processListOutput{Processes: list}, nil
	}))

	// Activity
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_recent_activity",
		Description: "List recent archive events, newest first",
	}, handle(func(ctx context.Context, in activityInput) (activityOutput, error) {
		opts := activity.ListOptions{Limit: in.Limit, Offset: in.Offset}
		if in.ProcessID != "" {
			opts.ProcessID = &in.ProcessID
		}
		if in.Type != "" {
			t := activity.Type(in.Type)
			opts.Type = &t
		}
		entries, err := svc.Activity.GetRecentActivity(ctx, opts)
		if err != nil {
			return activityOutput{}, err
		}
		out := activityOutput{Entries: make([]activityEntry, 0, len(entries))}
		for _, e := range entries {
			entry := activityEntry{
				ID:        e.ID,
				Type:      string(e.Type),
				Summary:   e.Summary,
				CreatedAt: e.CreatedAt.Format(time.RFC3339),
			}
			if e.ProcessID != nil {
				entry.ProcessID = *e.ProcessID
			}
			out.Entries = append(out.Entries, entry)
		}
		return out, nil
	}))
}
