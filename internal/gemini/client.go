// Package gemini drafts, supplements and summarizes risk-assessment tables
// with the Gemini API.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/riskdraft/internal/domain/table"
	"github.com/rpggio/riskdraft/internal/domain/workspace"
	"google.golang.org/genai"
)

const (
	DefaultDraftModel      = "gemini-3-flash-preview"
	DefaultSupplementModel = "gemini-3-pro-preview"
	DefaultSummaryModel    = "gemini-3-flash-preview"
)

// ErrMalformedResponse indicates a draft response that could not be parsed.
var ErrMalformedResponse = errors.New("malformed model response")

// Config selects the endpoint and models.
type Config struct {
	APIKey          string
	BaseURL         string
	DraftModel      string
	SupplementModel string
	SummaryModel    string
	HTTPClient      *http.Client
}

// CallObserver records the outcome of each model call.
type CallObserver interface {
	ObserveCall(stage string, elapsed time.Duration, err error)
}

// Client implements workspace.Analyzer and archive.Summarizer.
type Client struct {
	client   *genai.Client
	cfg      Config
	logger   *slog.Logger
	observer CallObserver
}

// Option configures a Client.
type Option func(*Client)

// WithObserver reports call outcomes, e.g. to metrics.
func WithObserver(o CallObserver) Option {
	return func(c *Client) { c.observer = o }
}

// New creates a Gemini client.
func New(ctx context.Context, cfg Config, logger *slog.Logger, opts ...Option) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.DraftModel == "" {
		cfg.DraftModel = DefaultDraftModel
	}
	if cfg.SupplementModel == "" {
		cfg.SupplementModel = DefaultSupplementModel
	}
	if cfg.SummaryModel == "" {
		cfg.SummaryModel = DefaultSummaryModel
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	c := &Client{client: client, cfg: cfg, logger: logger}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type draftResponse struct {
	TableData    []supplementRow `json:"tableData"`
	LegalClauses string          `json:"legalClauses"`
}

type supplementRow struct {
	UnitTask        string `json:"unitTask"`
	PotentialHazard string `json:"potentialHazard"`
	SafetyMeasure   string `json:"safetyMeasure"`
}

// Draft asks the draft model for a table and a legal-clause summary. Rows
// get fresh ids and empty reflected items.
func (c *Client) Draft(ctx context.Context, req workspace.DraftRequest) (workspace.DraftResult, error) {
	parts := []*genai.Part{}
	if req.Image != nil {
		mimeType := req.Image.MIMEType
		if mimeType == "" {
			mimeType = "image/jpeg"
		}
		parts = append(parts, genai.NewPartFromBytes(req.Image.Data, mimeType))
	}
	parts = append(parts, genai.NewPartFromText(draftPrompt(req.Title, req.ProcedureText, req.Image != nil)))

	text, err := c.generate(ctx, "draft", c.cfg.DraftModel, parts, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   draftSchema(),
	})
	if err != nil {
		return workspace.DraftResult{}, err
	}

	var parsed draftResponse
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return workspace.DraftResult{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if parsed.TableData == nil {
		return workspace.DraftResult{}, fmt.Errorf("%w: missing tableData", ErrMalformedResponse)
	}

	rows := make([]table.Row, len(parsed.TableData))
	for i, r := range parsed.TableData {
		rows[i] = table.Row{
			ID:              uuid.NewString(),
			UnitTask:        r.UnitTask,
			PotentialHazard: r.PotentialHazard,
			SafetyMeasure:   r.SafetyMeasure,
		}
	}
	return workspace.DraftResult{Rows: rows, LegalClauses: parsed.LegalClauses}, nil
}

// Supplement asks the supplement model to rework rows using their reflected
// items. An unparseable answer yields an empty result rather than an error.
func (c *Client) Supplement(ctx context.Context, rows []table.Row) ([]workspace.SupplementRow, error) {
	parts := []*genai.Part{genai.NewPartFromText(supplementPrompt(rows))}

	text, err := c.generate(ctx, "supplement", c.cfg.SupplementModel, parts, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   supplementSchema(),
	})
	if err != nil {
		return nil, err
	}

	var parsed []supplementRow
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		if c.logger != nil {
			c.logger.Warn("discarding unparseable supplement response", "error", err)
		}
		return []workspace.SupplementRow{}, nil
	}

	out := make([]workspace.SupplementRow, len(parsed))
	for i, r := range parsed {
		out[i] = workspace.SupplementRow(r)
	}
	return out, nil
}

// Summarize returns a short safety summary of a process. A response without
// text yields "".
func (c *Client) Summarize(ctx context.Context, title string, rows []table.Row) (string, error) {
	parts := []*genai.Part{genai.NewPartFromText(summaryPrompt(title, rows))}
	return c.generate(ctx, "summary", c.cfg.SummaryModel, parts, nil)
}

func (c *Client) generate(ctx context.Context, stage, model string, parts []*genai.Part, config *genai.GenerateContentConfig) (string, error) {
	start := time.Now()
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := c.client.Models.GenerateContent(ctx, model, contents, config)
	if c.observer != nil {
		c.observer.ObserveCall(stage, time.Since(start), err)
	}
	if err != nil {
		return "", fmt.Errorf("gemini %s call failed: %w", stage, err)
	}
	if c.logger != nil {
		c.logger.Debug("gemini call finished", "stage", stage, "model", model, "elapsed", time.Since(start))
	}
	return resp.Text(), nil
}
