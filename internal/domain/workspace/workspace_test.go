package workspace_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rpggio/riskdraft/internal/domain/archive"
	"github.com/rpggio/riskdraft/internal/domain/table"
	"github.com/rpggio/riskdraft/internal/domain/workspace"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeAnalyzer struct {
	draft      workspace.DraftResult
	draftErr   error
	supplement []workspace.SupplementRow
	suppErr    error

	// block, when set, holds each call until it is closed.
	block   chan struct{}
	started chan struct{}

	lastDraft workspace.DraftRequest
	lastRows  []table.Row
}

func (f *fakeAnalyzer) wait() {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
}

func (f *fakeAnalyzer) Draft(_ context.Context, req workspace.DraftRequest) (workspace.DraftResult, error) {
	f.lastDraft = req
	f.wait()
	return f.draft, f.draftErr
}

func (f *fakeAnalyzer) Supplement(_ context.Context, rows []table.Row) ([]workspace.SupplementRow, error) {
	f.lastRows = rows
	f.wait()
	return f.supplement, f.suppErr
}

type fakeArchive struct {
	saved     []archive.SaveRequest
	processes map[string]*archive.Process
	saveErr   error

	// block, when set, holds each save until it is closed.
	block   chan struct{}
	started chan struct{}
}

func (f *fakeArchive) Save(_ context.Context, req archive.SaveRequest) (*archive.Process, error) {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.saved = append(f.saved, req)
	id := req.EditingID
	if id == "" {
		id = "new"
	}
	return &archive.Process{ID: id, Title: req.Title, Rows: table.Eligible(req.Rows)}, nil
}

func (f *fakeArchive) Get(_ context.Context, id string) (*archive.Process, error) {
	p, ok := f.processes[id]
	if !ok {
		return nil, archive.ErrProcessNotFound
	}
	clone := *p
	clone.Rows = append([]table.Row(nil), p.Rows...)
	return &clone, nil
}

func TestWorkspace_StartsIdle(t *testing.T) {
	ws := workspace.New(&fakeAnalyzer{}, &fakeArchive{}, nil)
	snap := ws.Snapshot()
	require.Equal(t, workspace.StateIdle, snap.State)
	require.Len(t, snap.Rows, 1)
	require.False(t, snap.HasImage)
	require.Nil(t, snap.Supplement)
}

func TestWorkspace_EditingAfterRowChange(t *testing.T) {
	ws := workspace.New(&fakeAnalyzer{}, &fakeArchive{}, nil)
	id := ws.Snapshot().Rows[0].ID
	snap := ws.UpdateField(id, table.FieldUnitTask, "Excavation")
	require.Equal(t, workspace.StateEditing, snap.State)

	snap = ws.Reset()
	require.Equal(t, workspace.StateIdle, snap.State)
	require.NotEqual(t, id, snap.Rows[0].ID)
}

func TestWorkspace_Draft(t *testing.T) {
	analyzer := &fakeAnalyzer{draft: workspace.DraftResult{
		Rows: []table.Row{
			{ID: "a", UnitTask: "Setup"},
			{ID: "b", UnitTask: "Lift"},
		},
		LegalClauses: "Article 38",
	}}
	ws := workspace.New(analyzer, &fakeArchive{}, nil)
	ws.SetTitle("Crane")
	ws.SetProcedure("step 1")
	ws.SetImage(workspace.Image{Data: []byte{1, 2}, MIMEType: "image/png"})

	snap, err := ws.Draft(context.Background())
	require.NoError(t, err)
	require.Equal(t, workspace.StateEditing, snap.State)
	require.Len(t, snap.Rows, 2)
	require.Equal(t, "Article 38", snap.LegalClauses)
	require.Equal(t, "Crane", analyzer.lastDraft.Title)
	require.Equal(t, "step 1", analyzer.lastDraft.ProcedureText)
	require.NotNil(t, analyzer.lastDraft.Image)
	require.Equal(t, "image/png", analyzer.lastDraft.Image.MIMEType)
}

func TestWorkspace_DraftRequiresTitle(t *testing.T) {
	ws := workspace.New(&fakeAnalyzer{}, &fakeArchive{}, nil)
	_, err := ws.Draft(context.Background())
	require.ErrorIs(t, err, workspace.ErrValidation)
}

func TestWorkspace_DraftFailureLeavesStateIntact(t *testing.T) {
	analyzer := &fakeAnalyzer{draftErr: errors.New("boom")}
	ws := workspace.New(analyzer, &fakeArchive{}, nil)
	ws.SetTitle("Crane")
	before := ws.UpdateField(ws.Snapshot().Rows[0].ID, table.FieldUnitTask, "keep")

	snap, err := ws.Draft(context.Background())
	require.ErrorIs(t, err, workspace.ErrExternalCall)

	var callErr *workspace.ExternalCallError
	require.True(t, errors.As(err, &callErr))
	require.Equal(t, workspace.StageDraft, callErr.Stage)
	require.Equal(t, before.Rows, snap.Rows)
	require.False(t, snap.Busy.Drafting)
}

func TestWorkspace_DraftBusy(t *testing.T) {
	analyzer := &fakeAnalyzer{
		block:   make(chan struct{}),
		started: make(chan struct{}),
		draft:   workspace.DraftResult{Rows: []table.Row{{UnitTask: "x"}}},
	}
	ws := workspace.New(analyzer, &fakeArchive{}, nil)
	ws.SetTitle("Crane")

	done := make(chan error)
	go func() {
		_, err := ws.Draft(context.Background())
		done <- err
	}()
	<-analyzer.started

	snap := ws.Snapshot()
	require.Equal(t, workspace.StateDrafting, snap.State)
	require.True(t, snap.Busy.Drafting)

	_, err := ws.Draft(context.Background())
	require.ErrorIs(t, err, workspace.ErrBusy)

	_, err = ws.Save(context.Background())
	require.ErrorIs(t, err, workspace.ErrBusy)

	close(analyzer.block)
	require.NoError(t, <-done)
	require.False(t, ws.Snapshot().Busy.Drafting)
}

func TestWorkspace_Supplement(t *testing.T) {
	analyzer := &fakeAnalyzer{supplement: []workspace.SupplementRow{{UnitTask: "Lift", SafetyMeasure: "Tag lines"}}}
	ws := workspace.New(analyzer, &fakeArchive{}, nil)

	_, err := ws.Supplement(context.Background())
	require.ErrorIs(t, err, workspace.ErrValidation)

	snap := ws.AddRow()
	ws.UpdateField(snap.Rows[1].ID, table.FieldUnitTask, "Lift")
	ws.UpdateField(snap.Rows[1].ID, table.FieldReflectedItems, "25t crane")

	snap, err = ws.Supplement(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Supplement, 1)
	require.Len(t, analyzer.lastRows, 1)
	require.Equal(t, "25t crane", analyzer.lastRows[0].ReflectedItems)
	require.Len(t, snap.Rows, 2)
}

func TestWorkspace_SupplementEmptyResult(t *testing.T) {
	ws := workspace.New(&fakeAnalyzer{}, &fakeArchive{}, nil)
	ws.UpdateField(ws.Snapshot().Rows[0].ID, table.FieldUnitTask, "Lift")

	snap, err := ws.Supplement(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap.Supplement)
	require.Empty(t, snap.Supplement)
}

func TestWorkspace_SupplementFailure(t *testing.T) {
	ws := workspace.New(&fakeAnalyzer{suppErr: errors.New("down")}, &fakeArchive{}, nil)
	ws.UpdateField(ws.Snapshot().Rows[0].ID, table.FieldUnitTask, "Lift")

	snap, err := ws.Supplement(context.Background())
	var callErr *workspace.ExternalCallError
	require.True(t, errors.As(err, &callErr))
	require.Equal(t, workspace.StageSupplement, callErr.Stage)
	require.Nil(t, snap.Supplement)
	require.False(t, snap.Busy.Supplementing)
}

func TestWorkspace_SaveResetsToIdle(t *testing.T) {
	arch := &fakeArchive{}
	ws := workspace.New(&fakeAnalyzer{}, arch, nil)
	ws.SetTitle("Crane")
	ws.SetProcedure("text")
	ws.UpdateField(ws.Snapshot().Rows[0].ID, table.FieldUnitTask, "Lift")

	proc, err := ws.Save(context.Background())
	require.NoError(t, err)
	require.Equal(t, "new", proc.ID)
	require.Len(t, arch.saved, 1)
	require.Equal(t, "Crane", arch.saved[0].Title)
	require.Empty(t, arch.saved[0].EditingID)

	snap := ws.Snapshot()
	require.Equal(t, workspace.StateIdle, snap.State)
	require.Empty(t, snap.Title)
	require.Empty(t, snap.ProcedureText)
}

func TestWorkspace_SaveInFlightRefusesDraftAndSupplement(t *testing.T) {
	analyzer := &fakeAnalyzer{
		draft:      workspace.DraftResult{Rows: []table.Row{{ID: "d", UnitTask: "draft row"}}, LegalClauses: "clause"},
		supplement: []workspace.SupplementRow{{UnitTask: "extra"}},
	}
	arch := &fakeArchive{block: make(chan struct{}), started: make(chan struct{})}
	ws := workspace.New(analyzer, arch, nil)
	ws.SetTitle("Crane")
	ws.UpdateField(ws.Snapshot().Rows[0].ID, table.FieldUnitTask, "Lift")

	done := make(chan error)
	go func() {
		_, err := ws.Save(context.Background())
		done <- err
	}()
	<-arch.started
	require.True(t, ws.Snapshot().Busy.Saving)

	_, err := ws.Draft(context.Background())
	require.ErrorIs(t, err, workspace.ErrBusy)
	_, err = ws.Supplement(context.Background())
	require.ErrorIs(t, err, workspace.ErrBusy)

	close(arch.block)
	require.NoError(t, <-done)

	snap := ws.Snapshot()
	require.Equal(t, workspace.StateIdle, snap.State)
	require.Empty(t, snap.Title)
	require.Empty(t, snap.LegalClauses)
	require.Nil(t, snap.Supplement)
	require.Empty(t, snap.Rows[0].UnitTask)
}

func TestWorkspace_SaveValidationKeepsState(t *testing.T) {
	arch := &fakeArchive{saveErr: &workspace.ValidationError{Field: "title", Reason: "title is required"}}
	ws := workspace.New(&fakeAnalyzer{}, arch, nil)
	ws.UpdateField(ws.Snapshot().Rows[0].ID, table.FieldUnitTask, "Lift")

	_, err := ws.Save(context.Background())
	require.ErrorIs(t, err, workspace.ErrValidation)
	require.Equal(t, "Lift", ws.Snapshot().Rows[0].UnitTask)
}

func TestWorkspace_SaveSummaryFailure(t *testing.T) {
	arch := &fakeArchive{saveErr: errors.Join(archive.ErrSummaryFailed, errors.New("quota"))}
	ws := workspace.New(&fakeAnalyzer{}, arch, nil)
	ws.SetTitle("Crane")

	_, err := ws.Save(context.Background())
	var callErr *workspace.ExternalCallError
	require.True(t, errors.As(err, &callErr))
	require.Equal(t, workspace.StageSaveSummary, callErr.Stage)
	require.Equal(t, "Crane", ws.Snapshot().Title)
	require.False(t, ws.Snapshot().Busy.Saving)
}

func TestWorkspace_EditIsLossy(t *testing.T) {
	arch := &fakeArchive{processes: map[string]*archive.Process{
		"p1": {ID: "p1", Title: "Saved", Rows: []table.Row{{ID: "r1", UnitTask: "Lift", ReflectedItems: "note"}}},
	}}
	ws := workspace.New(&fakeAnalyzer{}, arch, nil)
	ws.SetProcedure("draft input")
	ws.SetImage(workspace.Image{Data: []byte{1}, MIMEType: "image/jpeg"})

	snap, err := ws.Edit(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, workspace.StateEditing, snap.State)
	require.Equal(t, "p1", snap.EditingID)
	require.Equal(t, "Saved", snap.Title)
	require.Empty(t, snap.ProcedureText)
	require.False(t, snap.HasImage)
	require.Empty(t, snap.LegalClauses)
	require.Equal(t, "note", snap.Rows[0].ReflectedItems)

	_, err = ws.Save(context.Background())
	require.NoError(t, err)
	require.Equal(t, "p1", arch.saved[0].EditingID)
}

func TestWorkspace_EditUnknown(t *testing.T) {
	ws := workspace.New(&fakeAnalyzer{}, &fakeArchive{}, nil)
	_, err := ws.Edit(context.Background(), "missing")
	require.ErrorIs(t, err, workspace.ErrProcessNotFound)
}

func TestWorkspace_Paste(t *testing.T) {
	ws := workspace.New(&fakeAnalyzer{}, &fakeArchive{}, nil)

	_, ok := ws.Paste("no tabs here")
	require.False(t, ok)

	snap, ok := ws.Paste("A\tB\tC\nD\tE\tF")
	require.True(t, ok)
	require.Len(t, snap.Rows, 2)
	require.Equal(t, "A", snap.Rows[0].UnitTask)

	snap, ok = ws.Paste("G\tH")
	require.True(t, ok)
	require.Len(t, snap.Rows, 3)
}
