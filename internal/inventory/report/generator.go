package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/shelfwise/shelfwise-backend/pkg/config"
	"github.com/shelfwise/shelfwise-backend/pkg/logger"
)

// Fixed operator-facing messages. Report generation never fails loudly:
// whatever goes wrong, the caller gets one of these strings.
const (
	FallbackNotConfigured = "The report service API key is not configured. Set the report API key to enable generated summaries."
	FallbackFailed        = "The inventory report could not be generated. Please try again later."
	FallbackEmpty         = "The report service returned an empty answer."
)

// Generator calls the hosted text-generation API.
type Generator struct {
	cfg        config.ReportConfig
	httpClient *http.Client
	logger     *logger.Logger
}

// NewGenerator creates a report generator from the report configuration.
func NewGenerator(cfg config.ReportConfig, log *logger.Logger) *Generator {
	return &Generator{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout, // generation can take tens of seconds
		},
		logger: log.WithComponent("report-generator"),
	}
}

// Generate produces the report text for the summary. It always returns a
// printable string; errors are logged and replaced by a fallback message.
func (g *Generator) Generate(ctx context.Context, s Summary) string {
	if g.cfg.APIKey == "" {
		return FallbackNotConfigured
	}

	text, err := g.call(ctx, s.Prompt())
	if err != nil {
		g.logger.WithError(err).Error().Msg("report generation failed")
		return FallbackFailed
	}
	if text == "" {
		return FallbackEmpty
	}
	return text
}

// generateContent request/response shapes of the hosted API. Only the
// fields this service reads are modelled.
type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (g *Generator) call(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("report: encode request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.cfg.URL, g.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("report: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.cfg.APIKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("report: generation request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("report: read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("report: generation service returned %d: %s", resp.StatusCode, string(respBody))
	}

	var out generateResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("report: parse response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}
