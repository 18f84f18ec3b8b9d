package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `riskdraft builds construction-process risk-assessment tables and keeps an archive of finished processes.

Core concepts:
- Workspace: the single editing session. It holds a title, an optional procedure text, an optional image, the row table, legal clauses and the last supplement result.
- Row: unitTask, potentialHazard, safetyMeasure and reflectedItems (site-specific notes used by supplement).
- Archive: an ordered list of saved processes. Saving requires a title and at least one row with a unit task.

Default workflow:
1) set_title, then optionally set_procedure.
2) run_draft to get a first table from the model, or add_row / paste_rows to build one by hand.
3) Fill reflectedItems with site specifics, then run_supplement to get reworked hazards and measures.
4) update_row to apply what you keep, then save_process.
5) list_processes / edit_process to revisit saved work. edit_process replaces the workspace and drops procedure text, image, legal clauses and supplement output.

Busy rules:
- Only one draft and one supplement may run at a time; a second call fails with BUSY.
- save_process fails with BUSY while a draft or supplement is running.

Docs:
- riskdraft://docs/workflow
- riskdraft://docs/table-format
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "riskdraft://docs/workflow",
		Name:        "docs_workflow",
		Title:       "riskdraft workflow",
		Description: "Draft, supplement, save and edit loop with the states each call moves through.",
		Content: `# riskdraft workflow

## States

- idle: nothing to lose; the table is empty or a single blank row.
- drafting: run_draft is waiting on the model.
- supplementing: run_supplement is waiting on the model.
- editing: the table has content, or a saved process was loaded with edit_process.

## Draft

run_draft needs a title. On success the table is replaced by the model rows and legal clauses are set. On failure nothing changes.

## Supplement

run_supplement sends every row that has a unit task. The result is advisory: it is shown in the workspace snapshot and never applied to the table automatically.

## Save

save_process drops rows without a unit task, asks the model for a two-sentence summary and stores the process. When the workspace was loaded with edit_process the stored process is replaced in place and keeps its creation time. A successful save resets the workspace.

## Archive order

move_process swaps a process with its neighbour. Moves past either end are ignored.
`,
	},
	{
		URI:         "riskdraft://docs/table-format",
		Name:        "docs_table_format",
		Title:       "Row and paste format",
		Description: "Row fields and how pasted spreadsheet text becomes rows.",
		Content: `# Rows and paste

## Fields

| field | meaning |
| --- | --- |
| unitTask | unit work step |
| potentialHazard | hazard of the step |
| safetyMeasure | countermeasure |
| reflectedItems | site-specific notes for supplement |

## Paste

paste_rows accepts tab-separated spreadsheet text. Lines split on LF or CRLF, cells on tabs.
Cells fill unitTask, potentialHazard, safetyMeasure and reflectedItems in that order; missing cells stay empty and extra cells are ignored.
Every line becomes a row with a fresh id.
Text whose first line has no tab is not a table and is reported back as not intercepted.
A pristine table is replaced by the pasted rows; otherwise they are appended.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
