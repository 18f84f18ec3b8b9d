// Package testserver assembles the full service stack over an in-memory
// database with scriptable model fakes.
package testserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/riskdraft/internal/domain/activity"
	"github.com/rpggio/riskdraft/internal/domain/archive"
	"github.com/rpggio/riskdraft/internal/domain/table"
	"github.com/rpggio/riskdraft/internal/domain/workspace"
	"github.com/rpggio/riskdraft/internal/export"
	"github.com/rpggio/riskdraft/internal/mcp"
	"github.com/rpggio/riskdraft/internal/metrics"
	"github.com/rpggio/riskdraft/internal/sqlite"
	"github.com/rpggio/riskdraft/internal/transport"
	"github.com/stretchr/testify/require"
)

// Clock is the fixed time used for archive timestamps: 2024-03-09 14:05:07 KST.
var Clock = time.Date(2024, 3, 9, 5, 5, 7, 0, time.UTC)

// Seoul is the archive display zone.
var Seoul = time.FixedZone("KST", 9*60*60)

// Analyzer is a scriptable workspace.Analyzer.
type Analyzer struct {
	mu         sync.Mutex
	draft      workspace.DraftResult
	draftErr   error
	supplement []workspace.SupplementRow
	suppErr    error
	block      chan struct{}
	started    chan struct{}
	drafts     []workspace.DraftRequest
}

// SetDraft sets the next draft outcome.
func (a *Analyzer) SetDraft(result workspace.DraftResult, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.draft, a.draftErr = result, err
}

// SetSupplement sets the next supplement outcome.
func (a *Analyzer) SetSupplement(rows []workspace.SupplementRow, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.supplement, a.suppErr = rows, err
}

// Hold makes calls wait until the returned release func runs. Each call
// signals on started once it is in flight.
func (a *Analyzer) Hold() (started <-chan struct{}, release func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.block = make(chan struct{})
	a.started = make(chan struct{}, 4)
	block := a.block
	var once sync.Once
	return a.started, func() { once.Do(func() { close(block) }) }
}

// Drafts returns the draft requests received so far.
func (a *Analyzer) Drafts() []workspace.DraftRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]workspace.DraftRequest(nil), a.drafts...)
}

func (a *Analyzer) wait() {
	a.mu.Lock()
	block, started := a.block, a.started
	a.mu.Unlock()
	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		<-block
	}
}

func (a *Analyzer) Draft(_ context.Context, req workspace.DraftRequest) (workspace.DraftResult, error) {
	a.mu.Lock()
	a.drafts = append(a.drafts, req)
	a.mu.Unlock()
	a.wait()
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.draft, a.draftErr
}

func (a *Analyzer) Supplement(_ context.Context, _ []table.Row) ([]workspace.SupplementRow, error) {
	a.wait()
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.supplement, a.suppErr
}

// Summarizer is a scriptable archive.Summarizer.
type Summarizer struct {
	mu      sync.Mutex
	Summary string
	Err     error
}

func (s *Summarizer) Summarize(_ context.Context, title string, _ []table.Row) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return "", s.Err
	}
	if s.Summary == "" {
		return title + " summary", nil
	}
	return s.Summary, nil
}

// Fail makes the next summaries fail with err.
func (s *Summarizer) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Err = err
}

// Stack is the wired service graph.
type Stack struct {
	DB         *sqlite.DB
	Workspace  *workspace.Workspace
	Archive    *archive.Service
	Activity   *activity.Service
	Analyzer   *Analyzer
	Summarizer *Summarizer
	Metrics    *metrics.Metrics
	MCP        *sdkmcp.Server
}

// NewStack builds the services over a fresh in-memory database.
func NewStack(t *testing.T) *Stack {
	t.Helper()

	db, err := sqlite.Open(sqlite.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	analyzer := &Analyzer{}
	summarizer := &Summarizer{}

	activitySvc := activity.NewService(sqlite.NewActivityRepository(db), nil)
	archiveSvc := archive.NewService(
		sqlite.NewProcessRepository(db),
		activitySvc,
		summarizer,
		nil,
		archive.WithClock(func() time.Time { return Clock }),
		archive.WithLocation(Seoul),
		archive.WithExporter(export.New()),
	)
	ws := workspace.New(analyzer, archiveSvc, nil)
	m := metrics.New(archiveSvc)

	return &Stack{
		DB:         db,
		Workspace:  ws,
		Archive:    archiveSvc,
		Activity:   activitySvc,
		Analyzer:   analyzer,
		Summarizer: summarizer,
		Metrics:    m,
		MCP: mcp.NewServer(mcp.Config{
			Services: mcp.Services{Workspace: ws, Archive: archiveSvc, Activity: activitySvc, Busy: m},
			Version:  "test",
		}),
	}
}

// TestServer is the stack behind a live HTTP listener.
type TestServer struct {
	*Stack
	Server *httptest.Server
}

// New starts an HTTP server over a fresh stack.
func New(t *testing.T) *TestServer {
	t.Helper()

	stack := NewStack(t)
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(func(*http.Request) *sdkmcp.Server {
		return stack.MCP
	}, nil)

	server := httptest.NewServer(transport.NewRouter(transport.Config{
		Workspace: stack.Workspace,
		Archive:   stack.Archive,
		Activity:  stack.Activity,
		Busy:      stack.Metrics,
		Metrics:   stack.Metrics.Handler(),
		MCP:       mcpHandler,
	}))
	t.Cleanup(server.Close)

	return &TestServer{Stack: stack, Server: server}
}

// URL joins path onto the server address.
func (ts *TestServer) URL(path string) string {
	return ts.Server.URL + path
}
