package output

import (
	"io"

	"github.com/signumlab/signum/internal/domain"
)

// SnapshotExporter defines the secondary port for serializing record
// set snapshots.
type SnapshotExporter interface {
	// Header returns the column names in export order.
	Header() []string

	// Write serializes the snapshot rows to w.
	Write(w io.Writer, rows []domain.SnapshotRow) error
}
