package mocks

import (
	"context"

	"github.com/rpggio/riskdraft/internal/domain/activity"
	"github.com/rpggio/riskdraft/internal/domain/archive"
	"github.com/rpggio/riskdraft/internal/domain/table"
	"github.com/stretchr/testify/mock"
)

// ProcessRepository is a mock for archive.Repository.
type ProcessRepository struct {
	mock.Mock
}

func (m *ProcessRepository) List(ctx context.Context) ([]archive.Process, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]archive.Process); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProcessRepository) Get(ctx context.Context, id string) (*archive.Process, error) {
	args := m.Called(ctx, id)
	if proc, ok := args.Get(0).(*archive.Process); ok {
		return proc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProcessRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *ProcessRepository) Append(ctx context.Context, proc *archive.Process) error {
	args := m.Called(ctx, proc)
	return args.Error(0)
}

func (m *ProcessRepository) Replace(ctx context.Context, proc *archive.Process) error {
	args := m.Called(ctx, proc)
	return args.Error(0)
}

func (m *ProcessRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *ProcessRepository) Swap(ctx context.Context, i, j int) error {
	args := m.Called(ctx, i, j)
	return args.Error(0)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, entry *activity.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]activity.Entry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// ActivityLogger is a mock for archive.ActivityLogger.
type ActivityLogger struct {
	mock.Mock
}

func (m *ActivityLogger) LogActivity(ctx context.Context, entry *activity.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// Summarizer is a mock for archive.Summarizer.
type Summarizer struct {
	mock.Mock
}

func (m *Summarizer) Summarize(ctx context.Context, title string, rows []table.Row) (string, error) {
	args := m.Called(ctx, title, rows)
	return args.String(0), args.Error(1)
}
