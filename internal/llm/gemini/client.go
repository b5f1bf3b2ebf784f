package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/joseph-ayodele/estate-toolkit/internal/common"
	"github.com/joseph-ayodele/estate-toolkit/internal/llm"
)

const DefaultModel = "gemini-2.0-flash"

// Config for the Gemini client.
type Config struct {
	APIKey      string
	Model       string // default gemini-2.0-flash
	Temperature float32
	MaxAttempts int // default 3
}

// generator is the slice of *genai.GenerativeModel the client uses.
type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type Client struct {
	cfg    Config
	api    *genai.Client
	model  generator
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		return nil, common.NewAppError(common.CodeConfig, "GEMINI_API_KEY is empty", common.ErrInvalidInput)
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	api, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}

	m := api.GenerativeModel(strings.TrimSpace(cfg.Model))
	if m == nil {
		_ = api.Close()
		return nil, fmt.Errorf("gemini: model is nil")
	}
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(cfg.Temperature),
		ResponseMIMEType: "application/json",
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(llm.BuildSystemPrompt(time.Now()))},
	}

	c := newClient(cfg, m, logger)
	c.api = api
	return c, nil
}

func newClient(cfg Config, model generator, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &Client{cfg: cfg, model: model, logger: logger, sleep: sleepCtx}
}

func (c *Client) Name() string { return "gemini:" + c.cfg.Model }

// Close releases the underlying API client.
func (c *Client) Close() error {
	if c.api == nil {
		return nil
	}
	return c.api.Close()
}

// ExtractFields sends every page as an inline blob and returns the model's
// JSON text. Transient failures are retried with a linear backoff; quota
// failures are not.
func (c *Client) ExtractFields(ctx context.Context, req llm.ExtractRequest) ([]byte, error) {
	if len(req.Pages) == 0 {
		return nil, common.NewModelExtractionError("no pages to analyze", nil)
	}
	rid := uuid.New().String()
	start := time.Now()

	parts := make([]genai.Part, 0, len(req.Pages)+1)
	parts = append(parts, genai.Text(llm.BuildUserPrompt(req)))
	bytesSent := 0
	for _, p := range req.Pages {
		parts = append(parts, &genai.Blob{MIMEType: p.MIMEType, Data: p.Data})
		bytesSent += len(p.Data)
	}

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"provider", "gemini",
		"model", c.cfg.Model,
		"pages", len(req.Pages),
		"bytes", bytesSent)

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		resp, err := c.model.GenerateContent(ctx, parts...)
		if err != nil {
			if llm.IsQuotaError(err) {
				c.logger.Warn("llm.extract.quota", "req_id", rid, "attempt", attempt, "error", err)
				return nil, common.NewModelExtractionError("vision model quota exhausted",
					fmt.Errorf("%w: %w", common.ErrQuotaExceeded, err))
			}
			lastErr = err
			c.logger.Warn("llm.extract.retry", "req_id", rid, "attempt", attempt, "error", err)
			if attempt == c.cfg.MaxAttempts {
				break
			}
			if err := c.sleep(ctx, time.Duration(attempt)*300*time.Millisecond); err != nil {
				lastErr = err
				break
			}
			continue
		}
		txt := strings.TrimSpace(firstText(resp))
		if txt == "" {
			c.logger.Error("llm.extract.empty", "req_id", rid, "elapsed_ms", time.Since(start).Milliseconds())
			return nil, common.NewModelExtractionError("empty response from vision model", nil)
		}
		c.logger.Info("llm.extract.ok",
			"req_id", rid,
			"attempt", attempt,
			"bytes", len(txt),
			"elapsed_ms", time.Since(start).Milliseconds())
		return []byte(txt), nil
	}

	c.logger.Error("llm.extract.failed", "req_id", rid, "error", lastErr, "elapsed_ms", time.Since(start).Milliseconds())
	return nil, common.NewModelExtractionError("vision model request failed", lastErr)
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func ptrFloat32(v float32) *float32 { return &v }
