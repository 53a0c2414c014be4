package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/shelfwise/shelfwise-backend/internal/inventory/domain"
	"github.com/shelfwise/shelfwise-backend/pkg/database"
	"github.com/shelfwise/shelfwise-backend/pkg/errors"
)

// productRow mirrors the products table. The document column carries the
// full product including batches and lock fields; id and updated_at are
// duplicated outside the document for indexing.
type productRow struct {
	ID        string    `db:"id"`
	Document  []byte    `db:"document"`
	UpdatedAt time.Time `db:"updated_at"`
}

type logRow struct {
	ID       string    `db:"id"`
	Document []byte    `db:"document"`
	LoggedAt time.Time `db:"logged_at"`
}

// PostgresProductStore stores product documents in a JSONB column.
type PostgresProductStore struct {
	db *database.DB
}

func NewPostgresProductStore(db *database.DB) *PostgresProductStore {
	return &PostgresProductStore{db: db}
}

// Upsert writes the whole product document. Concurrent writers follow
// last-write-wins; edit contention is handled above this layer by the
// advisory lock.
func (s *PostgresProductStore) Upsert(ctx context.Context, p *domain.Product) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return errors.InternalWrap("failed to encode product", err)
	}

	query := `
		INSERT INTO products (id, document, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET document = $2, updated_at = $3
	`
	if _, err := s.db.ExecContext(ctx, query, p.ID, doc, p.LastUpdated); err != nil {
		return errors.InternalWrap("failed to save product", err)
	}
	return nil
}

func (s *PostgresProductStore) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	var row productRow
	query := `SELECT id, document, updated_at FROM products WHERE id = $1`
	err := s.db.GetContext(ctx, &row, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("product")
	}
	if err != nil {
		return nil, errors.InternalWrap("failed to load product", err)
	}
	return decodeProduct(row.Document)
}

// List returns all products ordered by name. The product count stays in
// the hundreds for this system, so subscribers always receive the whole
// collection rather than pages.
func (s *PostgresProductStore) List(ctx context.Context) ([]*domain.Product, error) {
	var rows []productRow
	query := `SELECT id, document, updated_at FROM products ORDER BY lower(document->>'name')`
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.InternalWrap("failed to list products", err)
	}

	products := make([]*domain.Product, 0, len(rows))
	for _, row := range rows {
		p, err := decodeProduct(row.Document)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

func (s *PostgresProductStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return errors.InternalWrap("failed to delete product", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("product")
	}
	return nil
}

func decodeProduct(doc []byte) (*domain.Product, error) {
	var p domain.Product
	if err := json.Unmarshal(doc, &p); err != nil {
		return nil, errors.InternalWrap("failed to decode product document", err)
	}
	return &p, nil
}

// PostgresLogStore stores inventory log documents. Logs are never updated
// or deleted once written.
type PostgresLogStore struct {
	db *database.DB
}

func NewPostgresLogStore(db *database.DB) *PostgresLogStore {
	return &PostgresLogStore{db: db}
}

func (s *PostgresLogStore) Append(ctx context.Context, l *domain.InventoryLog) error {
	doc, err := json.Marshal(l)
	if err != nil {
		return errors.InternalWrap("failed to encode inventory log", err)
	}

	// ON CONFLICT keeps restores idempotent when a backup replays
	// log IDs that are already present.
	query := `
		INSERT INTO inventory_logs (id, document, logged_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, query, l.ID, doc, l.Date); err != nil {
		return errors.InternalWrap("failed to save inventory log", err)
	}
	return nil
}

func (s *PostgresLogStore) List(ctx context.Context) ([]*domain.InventoryLog, error) {
	var rows []logRow
	query := `SELECT id, document, logged_at FROM inventory_logs ORDER BY logged_at DESC`
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.InternalWrap("failed to list inventory logs", err)
	}
	return decodeLogs(rows)
}

func (s *PostgresLogStore) Recent(ctx context.Context, limit int) ([]*domain.InventoryLog, error) {
	var rows []logRow
	query := `SELECT id, document, logged_at FROM inventory_logs ORDER BY logged_at DESC LIMIT $1`
	if err := s.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, errors.InternalWrap("failed to list recent inventory logs", err)
	}
	return decodeLogs(rows)
}

func decodeLogs(rows []logRow) ([]*domain.InventoryLog, error) {
	logs := make([]*domain.InventoryLog, 0, len(rows))
	for _, row := range rows {
		var l domain.InventoryLog
		if err := json.Unmarshal(row.Document, &l); err != nil {
			return nil, errors.InternalWrap("failed to decode inventory log document", err)
		}
		logs = append(logs, &l)
	}
	return logs, nil
}
