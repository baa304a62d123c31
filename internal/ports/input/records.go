package input

import (
	"context"
	"image"
	"io"

	"github.com/signumlab/signum/internal/domain"
)

// RecordService defines the primary port for the record set. All
// mutations happen on the control context; record ids stay dense and
// contiguous (0..N-1) across every operation.
type RecordService interface {
	// List returns the records in store order.
	List(ctx context.Context) []domain.ImageRecord

	// Get returns one record by id.
	Get(ctx context.Context, id int) (*domain.ImageRecord, error)

	// Delete removes every record whose id is in ids, then renumbers
	// the remainder to 0..N'-1 in store order.
	Delete(ctx context.Context, ids []int) error

	// ToggleDetection overwrites a single class flag on a record.
	ToggleDetection(ctx context.Context, id int, class string, value bool) error

	// Overlay returns the rendered detection overlay for a record.
	Overlay(ctx context.Context, id int) (*image.NRGBA, error)

	// ExportCSV writes the flattened snapshot of the record set.
	ExportCSV(ctx context.Context, w io.Writer) error
}
