package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Fen1x123/medconsultant/internal/common"
	"github.com/Fen1x123/medconsultant/internal/prompt"
)

// Complete implements llm.Completer over chat/completions. The first block
// becomes the system message; all remaining blocks travel in one user
// message as ordered text/image parts, so the chronological presentation
// survives the transport.
func (c *Client) Complete(ctx context.Context, blocks []prompt.Block) (string, error) {
	if len(blocks) == 0 {
		return "", common.NewAppError("MODEL_ERROR", "empty prompt", common.ErrModelInvocation)
	}
	rid := uuid.New().String()
	start := time.Now()

	var textParts, imageParts int
	parts := make([]map[string]any, 0, len(blocks)-1)
	for _, b := range blocks[1:] {
		switch b.Kind {
		case prompt.BlockImage:
			imageParts++
			parts = append(parts, map[string]any{
				"type": "image_url",
				"image_url": map[string]any{
					"url": "data:" + b.MIME + ";base64," + base64.StdEncoding.EncodeToString(b.Image),
				},
			})
		default:
			textParts++
			parts = append(parts, map[string]any{"type": "text", "text": b.Text})
		}
	}

	c.log.Info("llm.report.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"max_tokens", c.cfg.MaxTokens,
		"text_parts", textParts,
		"image_parts", imageParts,
	)

	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"max_tokens":  c.cfg.MaxTokens,
		"messages": []map[string]any{
			{"role": "system", "content": blocks[0].Text},
			{"role": "user", "content": parts},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, httpErr := c.post(ctx, endpoint, body)
	if httpErr != nil {
		c.log.Error("llm.report.http_error",
			"req_id", rid, "error", httpErr,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", common.NewAppError("MODEL_ERROR", httpErr.Error(), common.ErrModelInvocation)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("llm.report.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", common.NewAppError("MODEL_ERROR", "decode openai response: "+err.Error(), common.ErrModelInvocation)
	}
	if len(cc.Choices) == 0 {
		c.log.Error("llm.report.no_choices",
			"req_id", rid, "raw", string(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", common.NewAppError("MODEL_ERROR", "no choices in openai response", common.ErrModelInvocation)
	}

	content := strings.TrimSpace(cc.Choices[0].Message.Content)
	c.log.Info("llm.report.ok",
		"req_id", rid,
		"content_len", len(content),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai http error: %w", err)
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			c.log.Warn("openai response body close error", "error", err)
		}
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		buf := new(bytes.Buffer)
		_, _ = buf.ReadFrom(resp.Body)
		return nil, fmt.Errorf("openai status %d: %s", resp.StatusCode, buf.String())
	}

	buf := new(bytes.Buffer)
	_, _ = buf.ReadFrom(resp.Body)
	return buf.Bytes(), nil
}
