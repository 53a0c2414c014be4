// Package report builds the stock summary handed to the external
// text-generation service and turns its answer into an operator-facing
// report. Failures never surface to the caller; they become a fixed
// fallback message.
package report

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shelfwise/shelfwise-backend/internal/inventory/domain"
	"github.com/shelfwise/shelfwise-backend/internal/inventory/estimate"
)

// RecentLogCount caps how much transaction history feeds the prompt.
const RecentLogCount = 50

// ProductSummary is the per-product slice of the prompt input.
type ProductSummary struct {
	Name  string          `json:"name"`
	Stock decimal.Decimal `json:"stock"`
	Unit  string          `json:"unit"`
}

// TransactionSummary is the per-log slice of the prompt input.
type TransactionSummary struct {
	Type        string          `json:"type"`
	Item        string          `json:"item"`
	Consumption decimal.Decimal `json:"consumption"`
	Date        time.Time       `json:"date"`
}

// Summary is the structured input of the text-generation contract.
type Summary struct {
	Products     []ProductSummary     `json:"products"`
	Transactions []TransactionSummary `json:"transactions"`
}

// BuildSummary condenses the snapshot for the prompt. Logs are expected
// newest first; only the most recent entries are included to keep the
// context small.
func BuildSummary(products []*domain.Product, logs []*domain.InventoryLog) Summary {
	s := Summary{
		Products:     make([]ProductSummary, 0, len(products)),
		Transactions: []TransactionSummary{},
	}

	for _, p := range products {
		s.Products = append(s.Products, ProductSummary{
			Name:  p.Name,
			Stock: estimate.TotalStock(p),
			Unit:  p.Unit,
		})
	}

	if len(logs) > RecentLogCount {
		logs = logs[:RecentLogCount]
	}
	for _, l := range logs {
		ts := TransactionSummary{
			Type:        describeTransaction(l.Type),
			Item:        l.ProductName,
			Consumption: decimal.Zero,
			Date:        l.Date,
		}
		if l.CalculatedConsumption != nil {
			ts.Consumption = *l.CalculatedConsumption
		}
		s.Transactions = append(s.Transactions, ts)
	}

	return s
}

func describeTransaction(t domain.TransactionType) string {
	switch t {
	case domain.TransactionStockTake:
		return "stock take"
	case domain.TransactionCreate:
		return "new product"
	default:
		return "incoming delivery"
	}
}

// Prompt renders the instruction text sent to the model.
func (s Summary) Prompt() string {
	products, _ := json.Marshal(s.Products)
	transactions, _ := json.Marshal(s.Transactions)

	return fmt.Sprintf(`You are an expert logistics and inventory assistant. Analyze the following stock and transaction data.

Current product stock:
%s

Recent transaction history:
%s

Write a short, useful report for the warehouse operator that covers:
1. Which products showed the highest consumption (stock take differences).
2. Warnings for products with critically low stock.
3. A brief conclusion about how well the inventory is being managed.

Use a professional but friendly tone. Format the answer as Markdown.`, products, transactions)
}
