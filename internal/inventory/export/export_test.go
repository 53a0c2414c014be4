package export_test

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwise/shelfwise-backend/internal/inventory/domain"
	"github.com/shelfwise/shelfwise-backend/internal/inventory/export"
	"github.com/shelfwise/shelfwise-backend/pkg/testutil"
)

func TestWriteCSV(t *testing.T) {
	p := testutil.NewProduct("Flour", "4001", "KG", "10")
	p.Batches = append(p.Batches, domain.Batch{
		ID:           "b2",
		PriceNoVAT:   decimal.RequireFromString("2.00"),
		CurrentStock: decimal.RequireFromString("5"),
	})

	var buf bytes.Buffer
	require.NoError(t, export.WriteCSV(&buf, []*domain.Product{p}))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"Name", "PLU", "TotalStock", "Unit", "TotalValue"}, records[0])
	// 10*1.00 + 5*2.00
	assert.Equal(t, []string{"Flour", "4001", "15", "KG", "20.00"}, records[1])
}

func TestWriteCSVEscapesCommas(t *testing.T) {
	p := testutil.NewProduct(`Salt, coarse "sea"`, "", "KG", "1")

	var buf bytes.Buffer
	require.NoError(t, export.WriteCSV(&buf, []*domain.Product{p}))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, `Salt, coarse "sea"`, records[1][0])
}

func TestBackupRoundTrip(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	p := testutil.NewProduct("Flour", "4001", "KG", "10")
	l := testutil.NewStockTakeLog(p, "3", 1, now)

	b := export.NewBackup([]*domain.Product{p}, []*domain.InventoryLog{l}, now)

	var buf bytes.Buffer
	require.NoError(t, export.WriteBackup(&buf, b))

	parsed, err := export.ParseBackup(&buf)
	require.NoError(t, err)
	assert.Equal(t, export.BackupVersion, parsed.Version)
	require.Len(t, parsed.Products, 1)
	assert.Equal(t, p.ID, parsed.Products[0].ID)
	require.Len(t, parsed.Logs, 1)
	assert.Equal(t, domain.TransactionStockTake, parsed.Logs[0].Type)
}

func TestParseBackupRejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not json", "not json at all"},
		{"wrong version", `{"version":2,"date":"2024-03-15T12:00:00Z","products":[],"logs":[]}`},
		{"missing products", `{"version":1,"date":"2024-03-15T12:00:00Z","logs":[]}`},
		{"missing logs", `{"version":1,"date":"2024-03-15T12:00:00Z","products":[]}`},
		{"product without id", `{"version":1,"date":"2024-03-15T12:00:00Z","products":[{"name":"Flour"}],"logs":[]}`},
		{"product without name", `{"version":1,"date":"2024-03-15T12:00:00Z","products":[{"id":"p1"}],"logs":[]}`},
		{"log with unknown type", `{"version":1,"date":"2024-03-15T12:00:00Z","products":[],"logs":[{"id":"l1","type":"WRONG"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := export.ParseBackup(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestWritePDF(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	p := testutil.NewProduct("Flour", "4001", "KG", "10")
	expired := now.AddDate(0, 0, -2)
	p.Batches[0].ExpirationDate = &expired

	var buf bytes.Buffer
	require.NoError(t, export.WritePDF(&buf, []*domain.Product{p}, now))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}
