package workspace

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/rpggio/riskdraft/internal/domain/archive"
	"github.com/rpggio/riskdraft/internal/domain/table"
)

// Workspace is the single editing session: drafting inputs, the working
// table, the supplement result and the id of the process being edited.
//
// All mutations are serialized through mu. The lock is never held across an
// analyzer or archive call; results are applied afterwards and only on
// success. Gates are acquired and released under mu, so a call's result is
// applied before a conflicting call can be admitted.
type Workspace struct {
	analyzer Analyzer
	archive  Archive
	logger   *slog.Logger

	draftGate      *gate
	supplementGate *gate
	saveGate       *gate

	mu           sync.Mutex
	title        string
	procedure    string
	image        *Image
	legalClauses string
	rows         table.Table
	supplement   []SupplementRow
	editingID    string
}

// New creates an idle workspace.
func New(analyzer Analyzer, arch Archive, logger *slog.Logger) *Workspace {
	return &Workspace{
		analyzer:       analyzer,
		archive:        arch,
		logger:         logger,
		draftGate:      newGate(),
		supplementGate: newGate(),
		saveGate:       newGate(),
		rows:           table.New(),
	}
}

// Snapshot returns a copy of the current session.
func (w *Workspace) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

func (w *Workspace) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:         w.stateLocked(),
		EditingID:     w.editingID,
		Title:         w.title,
		ProcedureText: w.procedure,
		HasImage:      w.image != nil,
		LegalClauses:  w.legalClauses,
		Rows:          w.rows.Rows(),
		Busy: Busy{
			Drafting:      w.draftGate.busy(),
			Supplementing: w.supplementGate.busy(),
			Saving:        w.saveGate.busy(),
		},
	}
	if w.image != nil {
		snap.ImageMIMEType = w.image.MIMEType
	}
	if w.supplement != nil {
		snap.Supplement = append([]SupplementRow(nil), w.supplement...)
	}
	return snap
}

func (w *Workspace) stateLocked() State {
	switch {
	case w.draftGate.busy():
		return StateDrafting
	case w.supplementGate.busy():
		return StateSupplementing
	case w.editingID != "" || !table.IsPristine(w.rows):
		return StateEditing
	default:
		return StateIdle
	}
}

// Reset clears every input and returns to a fresh blank table.
func (w *Workspace) Reset() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.resetLocked()
	return w.snapshotLocked()
}

func (w *Workspace) resetLocked() {
	w.title = ""
	w.procedure = ""
	w.image = nil
	w.legalClauses = ""
	w.rows = table.New()
	w.supplement = nil
	w.editingID = ""
}

// SetTitle sets the process title.
func (w *Workspace) SetTitle(title string) Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.title = title
	return w.snapshotLocked()
}

// SetProcedure sets the free-text procedure description.
func (w *Workspace) SetProcedure(text string) Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.procedure = text
	return w.snapshotLocked()
}

// SetImage replaces the site image.
func (w *Workspace) SetImage(img Image) Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.image = &Image{Data: append([]byte(nil), img.Data...), MIMEType: img.MIMEType}
	return w.snapshotLocked()
}

// ClearImage drops the site image.
func (w *Workspace) ClearImage() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.image = nil
	return w.snapshotLocked()
}

// AddRow appends a blank row.
func (w *Workspace) AddRow() Snapshot {
	return w.mutateRows(func(t table.Table) table.Table { return t.AddRow() })
}

// RemoveRow removes a row by id.
func (w *Workspace) RemoveRow(id string) Snapshot {
	return w.mutateRows(func(t table.Table) table.Table { return t.RemoveRow(id) })
}

// MoveRow swaps a row with its neighbour.
func (w *Workspace) MoveRow(index int, dir table.Direction) Snapshot {
	return w.mutateRows(func(t table.Table) table.Table { return t.MoveRow(index, dir) })
}

// UpdateField edits one text column of a row.
func (w *Workspace) UpdateField(id string, field table.Field, value string) Snapshot {
	return w.mutateRows(func(t table.Table) table.Table { return t.UpdateField(id, field, value) })
}

// Paste imports tab-separated text and reports whether it was intercepted.
func (w *Workspace) Paste(text string) (Snapshot, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	next, ok := w.rows.Paste(text)
	if ok {
		w.rows = next
	}
	return w.snapshotLocked(), ok
}

func (w *Workspace) mutateRows(fn func(table.Table) table.Table) Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rows = fn(w.rows)
	return w.snapshotLocked()
}

// Draft asks the analyzer for a fresh table from the title, procedure text
// and image. On success the working rows and legal clauses are replaced and
// any supplement result is cleared.
func (w *Workspace) Draft(ctx context.Context) (Snapshot, error) {
	w.mu.Lock()
	req := DraftRequest{Title: w.title, ProcedureText: w.procedure}
	if w.image != nil {
		req.Image = &Image{Data: w.image.Data, MIMEType: w.image.MIMEType}
	}
	if strings.TrimSpace(req.Title) == "" {
		defer w.mu.Unlock()
		return w.snapshotLocked(), &ValidationError{Field: "title", Reason: "title is required"}
	}
	if !w.admitLocked(w.draftGate) {
		defer w.mu.Unlock()
		return w.snapshotLocked(), ErrBusy
	}
	w.mu.Unlock()

	result, err := w.analyzer.Draft(context.WithoutCancel(ctx), req)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.draftGate.release()
	if err != nil {
		w.warn(StageDraft, err)
		return w.snapshotLocked(), &ExternalCallError{Stage: StageDraft, Err: err}
	}
	w.rows = table.FromRows(result.Rows)
	w.legalClauses = result.LegalClauses
	w.supplement = nil
	return w.snapshotLocked(), nil
}

// Supplement sends the eligible rows, with their reflected items, to the
// analyzer and stores the improved table next to the editable one.
func (w *Workspace) Supplement(ctx context.Context) (Snapshot, error) {
	w.mu.Lock()
	rows := w.rows.Eligible()
	if len(rows) == 0 {
		defer w.mu.Unlock()
		return w.snapshotLocked(), &ValidationError{Field: "rows", Reason: "no rows with a unit task"}
	}
	if !w.admitLocked(w.supplementGate) {
		defer w.mu.Unlock()
		return w.snapshotLocked(), ErrBusy
	}
	w.mu.Unlock()

	result, err := w.analyzer.Supplement(context.WithoutCancel(ctx), rows)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.supplementGate.release()
	if err != nil {
		w.warn(StageSupplement, err)
		return w.snapshotLocked(), &ExternalCallError{Stage: StageSupplement, Err: err}
	}
	if result == nil {
		result = []SupplementRow{}
	}
	w.supplement = result
	return w.snapshotLocked(), nil
}

// Save commits the working table to the archive, updating the edited
// process in place when there is one, and returns the workspace to idle.
// It is refused while a draft or supplement is in flight, and both are
// refused while a save is.
func (w *Workspace) Save(ctx context.Context) (*archive.Process, error) {
	w.mu.Lock()
	if !w.admitLocked(w.saveGate) {
		w.mu.Unlock()
		return nil, ErrBusy
	}
	req := archive.SaveRequest{
		Title:     w.title,
		Rows:      w.rows.Rows(),
		EditingID: w.editingID,
	}
	w.mu.Unlock()

	proc, err := w.archive.Save(context.WithoutCancel(ctx), req)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.saveGate.release()
	if err != nil {
		if errors.Is(err, archive.ErrSummaryFailed) {
			w.warn(StageSaveSummary, err)
			return nil, &ExternalCallError{Stage: StageSaveSummary, Err: err}
		}
		return nil, err
	}
	w.resetLocked()
	return proc, nil
}

// Edit loads an archived process into the working table. Procedure text,
// image, legal clauses and the supplement result are cleared; only the title
// and rows are carried over.
func (w *Workspace) Edit(ctx context.Context, id string) (Snapshot, error) {
	proc, err := w.archive.Get(ctx, id)
	if err != nil {
		return w.Snapshot(), err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.title = proc.Title
	w.procedure = ""
	w.image = nil
	w.legalClauses = ""
	w.rows = table.FromRows(proc.Rows)
	w.supplement = nil
	w.editingID = proc.ID
	return w.snapshotLocked(), nil
}

// admitLocked acquires g when no conflicting call is in flight. A save
// excludes draft and supplement in both directions; draft and supplement
// only exclude themselves. Callers hold mu, so the check and the acquire are
// one step.
func (w *Workspace) admitLocked(g *gate) bool {
	switch g {
	case w.saveGate:
		if w.draftGate.busy() || w.supplementGate.busy() {
			return false
		}
	default:
		if w.saveGate.busy() {
			return false
		}
	}
	return g.tryAcquire()
}

func (w *Workspace) warn(stage Stage, err error) {
	if w.logger != nil {
		w.logger.Warn("external call failed", "stage", stage, "error", err)
	}
}
