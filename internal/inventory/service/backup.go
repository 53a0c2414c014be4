package service

import (
	"context"
	"io"

	"github.com/shelfwise/shelfwise-backend/internal/inventory/export"
	"github.com/shelfwise/shelfwise-backend/pkg/errors"
)

// WriteBackup streams a full-database backup file.
func (s *InventoryService) WriteBackup(ctx context.Context, w io.Writer) error {
	products, err := s.products.List(ctx)
	if err != nil {
		return err
	}
	logs, err := s.logs.List(ctx)
	if err != nil {
		return err
	}

	return export.WriteBackup(w, export.NewBackup(products, logs, s.now().UTC()))
}

// Restore applies a backup file. The file is parsed and validated in
// full before the first write, so a malformed file changes nothing.
// Restore upserts on top of existing data; it does not wipe documents
// absent from the file.
func (s *InventoryService) Restore(ctx context.Context, r io.Reader, actorID string) (*export.Backup, error) {
	if s.readOnly {
		return nil, errors.ReadOnly()
	}

	b, err := export.ParseBackup(r)
	if err != nil {
		return nil, err
	}

	for _, p := range b.Products {
		if err := s.products.Upsert(ctx, p); err != nil {
			return nil, err
		}
	}
	for _, l := range b.Logs {
		if err := s.logs.Append(ctx, l); err != nil {
			return nil, err
		}
	}

	s.logger.Info().
		Int("products", len(b.Products)).
		Int("logs", len(b.Logs)).
		Str("actor_id", actorID).
		Msg("backup restored")
	s.afterWrite(ctx, CollectionProducts)

	return b, nil
}

// WriteStockCSV streams the CSV stock summary from the cached snapshot.
func (s *InventoryService) WriteStockCSV(ctx context.Context, w io.Writer) error {
	return export.WriteCSV(w, s.hub.Snapshot().Products)
}

// WriteStockPDF streams the PDF stock register from the cached snapshot.
func (s *InventoryService) WriteStockPDF(ctx context.Context, w io.Writer) error {
	return export.WritePDF(w, s.hub.Snapshot().Products, s.now())
}
