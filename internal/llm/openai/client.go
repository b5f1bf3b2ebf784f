package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/estate-toolkit/internal/common"
	"github.com/joseph-ayodele/estate-toolkit/internal/llm"
)

func (c *Client) Name() string { return "openai:" + c.cfg.Model }

// ExtractFields implements llm.VisionExtractor over chat/completions with
// the pages attached as data-URL images.
func (c *Client) ExtractFields(ctx context.Context, req llm.ExtractRequest) ([]byte, error) {
	if len(req.Pages) == 0 {
		return nil, common.NewModelExtractionError("no pages to analyze", nil)
	}
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"provider", "openai",
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"pages", len(req.Pages),
	)

	content := []map[string]any{
		{"type": "text", "text": llm.BuildUserPrompt(req)},
	}
	for _, p := range req.Pages {
		content = append(content, map[string]any{
			"type":      "image_url",
			"image_url": map[string]any{"url": llm.DataURL(p.MIMEType, p.Data), "detail": "high"},
		})
	}
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": llm.BuildSystemPrompt(req.Now)},
			{"role": "user", "content": content},
		},
	}
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"

	var (
		raw     []byte
		lastErr error
	)
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		var status int
		raw, status, lastErr = llm.SendJSON(ctx, c.http, endpoint, body, headers, c.logger)
		if lastErr == nil {
			break
		}
		if llm.IsQuotaError(lastErr) {
			c.logger.Warn("llm.extract.quota", "req_id", rid, "status", status)
			return nil, common.NewModelExtractionError("vision model quota exhausted",
				fmt.Errorf("%w: %w", common.ErrQuotaExceeded, lastErr))
		}
		// 4xx other than 429 will not improve on retry
		if status >= 400 && status < 500 {
			break
		}
		c.logger.Warn("llm.extract.retry", "req_id", rid, "attempt", attempt, "status", status, "error", lastErr)
		if attempt < c.cfg.MaxAttempts {
			select {
			case <-ctx.Done():
				return nil, common.NewModelExtractionError("vision model request canceled", ctx.Err())
			case <-time.After(time.Duration(attempt) * 300 * time.Millisecond):
			}
		}
	}
	if lastErr != nil {
		c.logger.Error("llm.extract.http_error",
			"req_id", rid, "error", lastErr,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, common.NewModelExtractionError("vision model request failed", lastErr)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, common.NewModelExtractionError("decode openai response", err)
	}
	if len(cc.Choices) == 0 {
		c.logger.Error("llm.extract.no_choices",
			"req_id", rid,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, common.NewModelExtractionError("no choices in openai response", nil)
	}
	text := strings.TrimSpace(cc.Choices[0].Message.Content)
	if text == "" {
		return nil, common.NewModelExtractionError("empty response from vision model", nil)
	}

	c.logger.Info("llm.extract.ok",
		"req_id", rid,
		"bytes", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return []byte(text), nil
}
