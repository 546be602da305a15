package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	maxRequestSize = 20 * 1024 * 1024 // inline request limit of the API
	maxPromptSize  = 512 * 1024
	maxErrorBody   = 64 * 1024
)

// Generate sends one generateContent request and returns the concatenated
// text of the first candidate.
func (c *Client) Generate(parentCtx context.Context, req *GenerateRequest) (string, error) {
	start := time.Now()

	if req == nil {
		return "", fmt.Errorf("llmclient: request is nil")
	}
	if err := req.Validate(); err != nil {
		return "", fmt.Errorf("llmclient: invalid request: %w", err)
	}
	if len(req.Prompt) > maxPromptSize {
		return "", fmt.Errorf("llmclient: prompt too large (%d bytes, max %d)", len(req.Prompt), maxPromptSize)
	}

	ctx, cancel := context.WithTimeout(parentCtx, c.cfg.UpstreamTimeout)
	defer cancel()

	parts := []providerPart{{Text: req.Prompt}}
	if req.Image != nil {
		parts = append(parts, providerPart{InlineData: &providerBlob{
			MIMEType: req.Image.MIMEType,
			Data:     base64.StdEncoding.EncodeToString(req.Image.Data),
		}})
	}

	pReq := providerRequest{
		Contents: []providerContent{{Role: "user", Parts: parts}},
	}
	if c.cfg.Temperature != nil || c.cfg.MaxOutputTokens > 0 {
		pReq.GenerationConfig = &providerGenerationConfig{
			Temperature:     c.cfg.Temperature,
			MaxOutputTokens: c.cfg.MaxOutputTokens,
		}
	}

	bodyBytes, err := json.Marshal(pReq)
	if err != nil {
		return "", fmt.Errorf("llmclient: marshal request: %w", err)
	}
	if len(bodyBytes) > maxRequestSize {
		return "", fmt.Errorf("llmclient: request too large (%d bytes, max %d)", len(bodyBytes), maxRequestSize)
	}

	endpoint := c.cfg.BaseURL + "/v1beta/models/" + url.PathEscape(c.cfg.Model) + ":generateContent"

	doOnce := func(ctx context.Context, body []byte) (*http.Response, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("llmclient: build HTTP request: %w", err)
		}
		httpReq.Header.Set("x-goog-api-key", c.cfg.APIKey)
		httpReq.Header.Set("Content-Type", "application/json")
		return c.httpClient.Do(httpReq)
	}

	resp, err := c.doWithRetry(ctx, bodyBytes, doOnce)
	if err != nil {
		c.logger.Error("gemini request failed",
			zap.String("model", c.cfg.Model),
			zap.Error(err),
			zap.Duration("duration", time.Since(start)),
		)
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		var perr providerErrorResponse
		if err := json.Unmarshal(body, &perr); err == nil && perr.Error.Message != "" {
			c.logger.Error("gemini provider error",
				zap.Int("status", resp.StatusCode),
				zap.String("error_status", perr.Error.Status),
				zap.String("error_message", perr.Error.Message),
			)
			return "", fmt.Errorf("llmclient: upstream %d: %s (%s)",
				resp.StatusCode, perr.Error.Message, perr.Error.Status)
		}

		c.logger.Error("gemini upstream error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", truncate(string(body), 200)),
		)
		return "", fmt.Errorf("llmclient: upstream %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var pResp providerResponse
	if err := json.NewDecoder(resp.Body).Decode(&pResp); err != nil {
		return "", fmt.Errorf("llmclient: decode upstream response: %w", err)
	}

	if pResp.PromptFeedback != nil && pResp.PromptFeedback.BlockReason != "" {
		c.logger.Warn("gemini prompt blocked",
			zap.String("block_reason", pResp.PromptFeedback.BlockReason),
		)
		return "", fmt.Errorf("llmclient: prompt blocked: %s", pResp.PromptFeedback.BlockReason)
	}

	if len(pResp.Candidates) == 0 {
		return "", ErrEmptyResponse
	}

	var sb strings.Builder
	for _, p := range pResp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}

	fields := []zap.Field{
		zap.String("model", c.cfg.Model),
		zap.String("finish_reason", pResp.Candidates[0].FinishReason),
		zap.Bool("with_image", req.Image != nil),
		zap.Duration("duration", time.Since(start)),
	}
	if u := pResp.UsageMetadata; u != nil {
		fields = append(fields,
			zap.Int("prompt_tokens", u.PromptTokenCount),
			zap.Int("completion_tokens", u.CandidatesTokenCount),
		)
	}
	c.logger.Info("gemini request completed", fields...)

	return text, nil
}

// truncate limits string length for logging
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
