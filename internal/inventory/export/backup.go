package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/shelfwise/shelfwise-backend/internal/inventory/domain"
	"github.com/shelfwise/shelfwise-backend/pkg/errors"
)

// BackupVersion is written into every backup file. Restore accepts only
// this version.
const BackupVersion = 1

// Backup is the full-database snapshot written to and read from backup
// files. The same shape seeds the local cache in degraded mode.
type Backup struct {
	Version  int                    `json:"version"`
	Date     time.Time              `json:"date"`
	Products []*domain.Product      `json:"products"`
	Logs     []*domain.InventoryLog `json:"logs"`
}

// NewBackup snapshots the given collections.
func NewBackup(products []*domain.Product, logs []*domain.InventoryLog, now time.Time) *Backup {
	if products == nil {
		products = []*domain.Product{}
	}
	if logs == nil {
		logs = []*domain.InventoryLog{}
	}
	return &Backup{
		Version:  BackupVersion,
		Date:     now,
		Products: products,
		Logs:     logs,
	}
}

// WriteBackup serializes the backup as indented JSON.
func WriteBackup(w io.Writer, b *Backup) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return errors.InternalWrap("failed to encode backup", err)
	}
	return nil
}

// ParseBackup reads and fully validates a backup file. Nothing is applied
// here: the caller upserts only after a successful parse, so a malformed
// file can never leave a partial restore behind.
func ParseBackup(r io.Reader) (*Backup, error) {
	var b Backup
	dec := json.NewDecoder(r)
	if err := dec.Decode(&b); err != nil {
		return nil, errors.BadRequest(fmt.Sprintf("backup file is not valid JSON: %v", err))
	}

	if b.Version != BackupVersion {
		return nil, errors.BadRequest(fmt.Sprintf("unsupported backup version %d", b.Version))
	}
	if b.Products == nil {
		return nil, errors.BadRequest("backup file is missing the products collection")
	}
	if b.Logs == nil {
		return nil, errors.BadRequest("backup file is missing the logs collection")
	}

	for i, p := range b.Products {
		if p == nil || p.ID == "" {
			return nil, errors.BadRequest(fmt.Sprintf("product %d has no id", i))
		}
		if p.Name == "" {
			return nil, errors.BadRequest(fmt.Sprintf("product %s has no name", p.ID))
		}
		for j := range p.Batches {
			if p.Batches[j].ID == "" {
				return nil, errors.BadRequest(fmt.Sprintf("product %s batch %d has no id", p.ID, j))
			}
		}
	}
	for i, l := range b.Logs {
		if l == nil || l.ID == "" {
			return nil, errors.BadRequest(fmt.Sprintf("log %d has no id", i))
		}
		switch l.Type {
		case domain.TransactionCreate, domain.TransactionInflow, domain.TransactionStockTake:
		default:
			return nil, errors.BadRequest(fmt.Sprintf("log %s has unknown type %q", l.ID, l.Type))
		}
	}

	return &b, nil
}
