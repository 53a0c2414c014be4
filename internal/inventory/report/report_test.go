package report_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/shelfwise-backend/internal/inventory/domain"
	"github.com/shelfwise/shelfwise-backend/internal/inventory/report"
	"github.com/shelfwise/shelfwise-backend/pkg/config"
	"github.com/shelfwise/shelfwise-backend/pkg/logger"
	"github.com/shelfwise/shelfwise-backend/pkg/testutil"
)

func reportConfig(url, key string) config.ReportConfig {
	return config.ReportConfig{
		URL:     url,
		APIKey:  key,
		Model:   "gemini-2.5-flash",
		Timeout: 5 * time.Second,
	}
}

func TestBuildSummary(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	p := testutil.NewProduct("Flour", "4001", "KG", "10")

	logs := make([]*domain.InventoryLog, 0, report.RecentLogCount+10)
	for i := 0; i < report.RecentLogCount+10; i++ {
		logs = append(logs, testutil.NewStockTakeLog(p, "1", i, now))
	}

	s := report.BuildSummary([]*domain.Product{p}, logs)
	require.Len(t, s.Products, 1)
	assert.Equal(t, "Flour", s.Products[0].Name)
	assert.Equal(t, "10", s.Products[0].Stock.String())
	assert.Len(t, s.Transactions, report.RecentLogCount)
	assert.Equal(t, "stock take", s.Transactions[0].Type)

	prompt := s.Prompt()
	assert.Contains(t, prompt, "Flour")
	assert.Contains(t, prompt, "Markdown")
}

func TestGenerateReturnsModelText(t *testing.T) {
	var gotPath, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"# Weekly report"}]}}]}`))
	}))
	defer srv.Close()

	g := report.NewGenerator(reportConfig(srv.URL, "test-key"), logger.New("test", "test"))
	got := g.Generate(context.Background(), report.Summary{})

	assert.Equal(t, "# Weekly report", got)
	assert.Equal(t, "/v1beta/models/gemini-2.5-flash:generateContent", gotPath)
	assert.Equal(t, "test-key", gotKey)
}

func TestGenerateWithoutKeyReturnsFixedMessage(t *testing.T) {
	g := report.NewGenerator(reportConfig("http://unused", ""), logger.New("test", "test"))
	assert.Equal(t, report.FallbackNotConfigured, g.Generate(context.Background(), report.Summary{}))
}

func TestGenerateFailuresNeverPropagate(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{
			"server error",
			func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
			report.FallbackFailed,
		},
		{
			"garbage body",
			func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("not json")) },
			report.FallbackFailed,
		},
		{
			"empty candidates",
			func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"candidates":[]}`)) },
			report.FallbackEmpty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			g := report.NewGenerator(reportConfig(srv.URL, "test-key"), logger.New("test", "test"))
			assert.Equal(t, tt.want, g.Generate(context.Background(), report.Summary{}))
		})
	}
}

func TestGenerateUnreachableService(t *testing.T) {
	g := report.NewGenerator(reportConfig("http://127.0.0.1:1", "test-key"), logger.New("test", "test"))
	got := g.Generate(context.Background(), report.Summary{})
	assert.True(t, strings.HasPrefix(got, report.FallbackFailed))
}
