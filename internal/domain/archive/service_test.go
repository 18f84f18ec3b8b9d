package archive_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rpggio/riskdraft/internal/domain/archive"
	"github.com/rpggio/riskdraft/internal/domain/table"
	"github.com/rpggio/riskdraft/internal/repository"
	"github.com/rpggio/riskdraft/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func newService(repo *mocks.ProcessRepository, summarizer *mocks.Summarizer, opts ...archive.Option) *archive.Service {
	activities := &mocks.ActivityLogger{}
	activities.On("LogActivity", mock.Anything, mock.Anything).Return(nil)
	if summarizer == nil {
		summarizer = &mocks.Summarizer{}
	}
	opts = append([]archive.Option{archive.WithClock(fixedClock), archive.WithLocation(time.UTC)}, opts...)
	return archive.NewService(repo, activities, summarizer, nil, opts...)
}

func TestArchiveService_Save_BlankTitle(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProcessRepository{}
	summarizer := &mocks.Summarizer{}

	svc := newService(repo, summarizer)
	_, err := svc.Save(ctx, archive.SaveRequest{
		Title: "   ",
		Rows:  []table.Row{{ID: "r1", UnitTask: "lift"}},
	})
	require.ErrorIs(t, err, archive.ErrValidation)

	var verr *archive.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Equal(t, "title", verr.Field)
	repo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	summarizer.AssertNotCalled(t, "Summarize", mock.Anything, mock.Anything, mock.Anything)
}

func TestArchiveService_Save_NoEligibleRows(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProcessRepository{}
	summarizer := &mocks.Summarizer{}

	svc := newService(repo, summarizer)
	_, err := svc.Save(ctx, archive.SaveRequest{
		Title: "Tower crane",
		Rows:  []table.Row{{ID: "r1", PotentialHazard: "fall"}, {ID: "r2", UnitTask: "  "}},
	})
	require.ErrorIs(t, err, archive.ErrValidation)
	repo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Replace", mock.Anything, mock.Anything)
}

func TestArchiveService_Save_AppendsFilteredRows(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProcessRepository{}
	summarizer := &mocks.Summarizer{}

	eligible := []table.Row{{ID: "r1", UnitTask: "lift"}, {ID: "r3", UnitTask: "install"}}
	summarizer.On("Summarize", ctx, "Tower crane", eligible).Return("two steps", nil)
	repo.On("Append", ctx, mock.Anything).Return(nil)

	svc := newService(repo, summarizer)
	proc, err := svc.Save(ctx, archive.SaveRequest{
		Title: "Tower crane",
		Rows: []table.Row{
			{ID: "r1", UnitTask: "lift"},
			{ID: "r2", SafetyMeasure: "orphan"},
			{ID: "r3", UnitTask: "install"},
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, proc.ID)
	require.Equal(t, "two steps", proc.Summary)
	require.Equal(t, eligible, proc.Rows)
	require.Equal(t, "2024. 3. 9. 오후 2:05:07", proc.CreatedAt)
	repo.AssertNumberOfCalls(t, "Append", 1)
}

func TestArchiveService_Save_UpdatesInPlace(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProcessRepository{}
	summarizer := &mocks.Summarizer{}

	existing := &archive.Process{
		ID:        "p1",
		Title:     "Old",
		Summary:   "old summary",
		Rows:      []table.Row{{ID: "r1", UnitTask: "old"}},
		CreatedAt: "2023. 1. 1. 오전 9:00:00",
	}
	repo.On("Get", ctx, "p1").Return(existing, nil)
	summarizer.On("Summarize", ctx, "New", mock.Anything).Return("new summary", nil)
	repo.On("Replace", ctx, mock.MatchedBy(func(p *archive.Process) bool {
		return p.ID == "p1" && p.CreatedAt == existing.CreatedAt && p.Title == "New"
	})).Return(nil)

	svc := newService(repo, summarizer)
	proc, err := svc.Save(ctx, archive.SaveRequest{
		Title:     "New",
		Rows:      []table.Row{{ID: "r9", UnitTask: "new"}},
		EditingID: "p1",
	})
	require.NoError(t, err)
	require.Equal(t, "p1", proc.ID)
	require.Equal(t, existing.CreatedAt, proc.CreatedAt)
	require.Equal(t, "new summary", proc.Summary)
	repo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestArchiveService_Save_StaleEditingIDAppends(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProcessRepository{}
	summarizer := &mocks.Summarizer{}

	repo.On("Get", ctx, "gone").Return((*archive.Process)(nil), repository.ErrNotFound)
	summarizer.On("Summarize", ctx, "Title", mock.Anything).Return("", nil)
	repo.On("Append", ctx, mock.Anything).Return(nil)

	svc := newService(repo, summarizer)
	proc, err := svc.Save(ctx, archive.SaveRequest{
		Title:     "Title",
		Rows:      []table.Row{{ID: "r1", UnitTask: "x"}},
		EditingID: "gone",
	})
	require.NoError(t, err)
	require.NotEqual(t, "gone", proc.ID)
}

func TestArchiveService_Save_SummaryFailure(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProcessRepository{}
	summarizer := &mocks.Summarizer{}
	summarizer.On("Summarize", ctx, "Title", mock.Anything).Return("", errors.New("quota"))

	svc := newService(repo, summarizer)
	_, err := svc.Save(ctx, archive.SaveRequest{
		Title: "Title",
		Rows:  []table.Row{{ID: "r1", UnitTask: "x"}},
	})
	require.ErrorIs(t, err, archive.ErrSummaryFailed)
	repo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestArchiveService_Delete_UnknownIsNoop(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProcessRepository{}
	repo.On("Delete", ctx, "missing").Return(repository.ErrNotFound)

	svc := newService(repo, nil)
	require.NoError(t, svc.Delete(ctx, "missing"))
}

func TestArchiveService_Move(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProcessRepository{}
	repo.On("Count", ctx).Return(3, nil)
	repo.On("Swap", ctx, 1, 0).Return(nil)
	repo.On("Swap", ctx, 1, 2).Return(nil)

	svc := newService(repo, nil)
	require.NoError(t, svc.Move(ctx, 1, table.Up))
	require.NoError(t, svc.Move(ctx, 1, table.Down))
	require.NoError(t, svc.Move(ctx, 0, table.Up))
	require.NoError(t, svc.Move(ctx, 2, table.Down))
	repo.AssertNumberOfCalls(t, "Swap", 2)
}

func TestArchiveService_Get_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProcessRepository{}
	repo.On("Get", ctx, "nope").Return((*archive.Process)(nil), repository.ErrNotFound)

	svc := newService(repo, nil)
	_, err := svc.Get(ctx, "nope")
	require.ErrorIs(t, err, archive.ErrProcessNotFound)
}

func TestArchiveService_Summaries(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProcessRepository{}
	repo.On("List", ctx).Return([]archive.Process{
		{ID: "a", Title: "A", Rows: []table.Row{{ID: "1"}, {ID: "2"}}},
		{ID: "b", Title: "B", Rows: []table.Row{{ID: "3"}}},
	}, nil)

	svc := newService(repo, nil)
	list, err := svc.Summaries(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, 1, list[0].Sequence)
	require.Equal(t, 2, list[0].RowCount)
	require.Equal(t, 2, list[1].Sequence)
}

type exporterStub struct {
	written []archive.Process
}

func (e *exporterStub) Write(w io.Writer, processes []archive.Process) error {
	e.written = processes
	_, err := w.Write([]byte("doc"))
	return err
}

func (e *exporterStub) Filename(now time.Time) string {
	return "plan_" + now.Format("2006-01-02") + ".xlsx"
}

func TestArchiveService_Export(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ProcessRepository{}
	repo.On("List", ctx).Return([]archive.Process{{ID: "a", Title: "A"}}, nil).Once()
	repo.On("List", ctx).Return([]archive.Process{}, nil).Once()

	exp := &exporterStub{}
	svc := newService(repo, nil, archive.WithExporter(exp))

	var buf bytes.Buffer
	name, err := svc.Export(ctx, &buf)
	require.NoError(t, err)
	require.Equal(t, "plan_2024-03-09.xlsx", name)
	require.Equal(t, "doc", buf.String())
	require.Len(t, exp.written, 1)

	_, err = svc.Export(ctx, &buf)
	require.ErrorIs(t, err, archive.ErrValidation)
}

func TestFormatKoreanTimestamp(t *testing.T) {
	require.Equal(t, "2024. 1. 5. 오전 12:00:09", archive.FormatKoreanTimestamp(time.Date(2024, 1, 5, 0, 0, 9, 0, time.UTC)))
	require.Equal(t, "2024. 12. 25. 오후 12:30:00", archive.FormatKoreanTimestamp(time.Date(2024, 12, 25, 12, 30, 0, 0, time.UTC)))
	require.Equal(t, "2024. 7. 1. 오전 11:59:59", archive.FormatKoreanTimestamp(time.Date(2024, 7, 1, 11, 59, 59, 0, time.UTC)))
}
