package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rpggio/riskdraft/internal/domain/activity"
	"github.com/rpggio/riskdraft/internal/domain/archive"
	"github.com/rpggio/riskdraft/internal/domain/table"
	"github.com/rpggio/riskdraft/internal/repository"
	"github.com/stretchr/testify/require"
)

func newProcess(id string, tasks ...string) *archive.Process {
	rows := make([]table.Row, 0, len(tasks))
	for i, task := range tasks {
		rows = append(rows, table.Row{
			ID:              fmt.Sprintf("%s-r%d", id, i),
			UnitTask:        task,
			PotentialHazard: task + " hazard",
			SafetyMeasure:   task + " measure",
			ReflectedItems:  "",
		})
	}
	return &archive.Process{
		ID:        id,
		Title:     "Process " + id,
		Summary:   "summary " + id,
		Rows:      rows,
		CreatedAt: "2024. 3. 9. 오후 2:05:07",
	}
}

func ids(procs []archive.Process) []string {
	out := make([]string, len(procs))
	for i, p := range procs {
		out[i] = p.ID
	}
	return out
}

func TestProcessRepository_AppendGetList(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewProcessRepository(db)

	empty, err := repo.List(ctx)
	require.NoError(t, err)
	require.Empty(t, empty)

	a := newProcess("a", "setup", "lift")
	b := newProcess("b", "dig")
	require.NoError(t, repo.Append(ctx, a))
	require.NoError(t, repo.Append(ctx, b))

	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, a, got)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, ids(list))
	require.Equal(t, a.Rows, list[0].Rows)
	require.Equal(t, b.Rows, list[1].Rows)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestProcessRepository_AppendDuplicate(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewProcessRepository(db)

	require.NoError(t, repo.Append(ctx, newProcess("a", "x")))
	err := repo.Append(ctx, newProcess("a", "y"))
	require.ErrorIs(t, err, repository.ErrInvalidInput)

	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, "x", got.Rows[0].UnitTask)
}

func TestProcessRepository_GetNotFound(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProcessRepository(db)

	_, err := repo.Get(context.Background(), "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProcessRepository_ReplaceKeepsPosition(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewProcessRepository(db)

	require.NoError(t, repo.Append(ctx, newProcess("a", "x")))
	require.NoError(t, repo.Append(ctx, newProcess("b", "y")))
	require.NoError(t, repo.Append(ctx, newProcess("c", "z")))

	updated := newProcess("b", "one", "two", "three")
	updated.Title = "Renamed"
	updated.CreatedAt = "ignored"
	require.NoError(t, repo.Replace(ctx, updated))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, ids(list))
	require.Equal(t, "Renamed", list[1].Title)
	require.Len(t, list[1].Rows, 3)
	require.Equal(t, "2024. 3. 9. 오후 2:05:07", list[1].CreatedAt)

	err = repo.Replace(ctx, newProcess("missing", "x"))
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProcessRepository_DeleteCompactsPositions(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewProcessRepository(db)

	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, repo.Append(ctx, newProcess(id, "task")))
	}

	require.NoError(t, repo.Delete(ctx, "b"))
	require.ErrorIs(t, repo.Delete(ctx, "b"), repository.ErrNotFound)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "c", "d"}, ids(list))

	// Rows are removed with their process
	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM process_rows WHERE process_id = 'b'`).Scan(&count))
	require.Zero(t, count)

	// Positions stay contiguous, so appends and swaps keep working
	require.NoError(t, repo.Append(ctx, newProcess("e", "task")))
	require.NoError(t, repo.Swap(ctx, 2, 3))
	list, err = repo.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "c", "e", "d"}, ids(list))
}

func TestProcessRepository_Swap(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewProcessRepository(db)

	require.NoError(t, repo.Append(ctx, newProcess("a", "x")))
	require.NoError(t, repo.Append(ctx, newProcess("b", "y")))

	require.NoError(t, repo.Swap(ctx, 0, 1))
	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"b", "a"}, ids(list))

	require.ErrorIs(t, repo.Swap(ctx, 1, 2), repository.ErrNotFound)
}

// TestArchiveService_OverSQLite checks archive semantics end to end
func TestArchiveService_OverSQLite(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	clock := time.Date(2024, 3, 9, 5, 5, 7, 0, time.UTC)
	seoul := time.FixedZone("KST", 9*60*60)
	svc := archive.NewService(
		NewProcessRepository(db),
		activity.NewService(NewActivityRepository(db), nil),
		nil,
		nil,
		archive.WithClock(func() time.Time { return clock }),
		archive.WithLocation(seoul),
	)

	first, err := svc.Save(ctx, archive.SaveRequest{
		Title: "Crane",
		Rows:  []table.Row{{ID: "r1", UnitTask: "lift"}, {ID: "r2"}},
	})
	require.NoError(t, err)
	require.Equal(t, "2024. 3. 9. 오후 2:05:07", first.CreatedAt)
	require.Len(t, first.Rows, 1)

	second, err := svc.Save(ctx, archive.SaveRequest{Title: "Dig", Rows: []table.Row{{ID: "r3", UnitTask: "dig"}}})
	require.NoError(t, err)

	clock = clock.Add(time.Hour)
	updated, err := svc.Save(ctx, archive.SaveRequest{
		Title:     "Crane v2",
		Rows:      []table.Row{{ID: "r4", UnitTask: "rig"}, {ID: "r5", UnitTask: "hoist"}},
		EditingID: first.ID,
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, updated.ID)
	require.Equal(t, first.CreatedAt, updated.CreatedAt)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{first.ID, second.ID}, ids(list))
	require.Equal(t, "Crane v2", list[0].Title)

	require.NoError(t, svc.Move(ctx, 1, table.Up))
	list, err = svc.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{second.ID, first.ID}, ids(list))

	require.NoError(t, svc.Delete(ctx, second.ID))
	require.NoError(t, svc.Delete(ctx, second.ID))
	n, err := svc.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

type summarizeFunc func(ctx context.Context, title string, rows []table.Row) (string, error)

func (f summarizeFunc) Summarize(ctx context.Context, title string, rows []table.Row) (string, error) {
	return f(ctx, title, rows)
}

func TestArchiveService_SaveAfterConcurrentDeleteAppends(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewProcessRepository(db)

	var svc *archive.Service
	var target string
	deleting := summarizeFunc(func(ctx context.Context, title string, _ []table.Row) (string, error) {
		if target != "" {
			require.NoError(t, svc.Delete(ctx, target))
		}
		return title + " summary", nil
	})
	svc = archive.NewService(repo, activity.NewService(NewActivityRepository(db), nil), deleting, nil)

	first, err := svc.Save(ctx, archive.SaveRequest{Title: "Crane", Rows: []table.Row{{ID: "r1", UnitTask: "lift"}}})
	require.NoError(t, err)

	target = first.ID
	saved, err := svc.Save(ctx, archive.SaveRequest{
		Title:     "Crane v2",
		Rows:      []table.Row{{ID: "r2", UnitTask: "rig"}},
		EditingID: first.ID,
	})
	require.NoError(t, err)
	require.NotEqual(t, first.ID, saved.ID)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{saved.ID}, ids(list))
	require.Equal(t, "Crane v2", list[0].Title)
}

// shrinkingRepo reports one more process than it holds, as if a delete
// landed between the count and the swap.
type shrinkingRepo struct {
	*ProcessRepository
}

func (r shrinkingRepo) Count(ctx context.Context) (int, error) {
	n, err := r.ProcessRepository.Count(ctx)
	return n + 1, err
}

func TestArchiveService_MoveAfterConcurrentDeleteIsNoop(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewProcessRepository(db)
	require.NoError(t, repo.Append(ctx, newProcess("a", "x")))
	require.NoError(t, repo.Append(ctx, newProcess("b", "y")))

	svc := archive.NewService(shrinkingRepo{repo}, nil, nil, nil)
	require.NoError(t, svc.Move(ctx, 1, table.Down))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, ids(list))
}
