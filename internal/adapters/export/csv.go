// Package export writes record set snapshots to tabular formats.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/signumlab/signum/internal/domain"
)

// CSVWriter writes a flattened record snapshot as CSV: one row per
// record, one boolean column per provider class.
type CSVWriter struct{}

// NewCSVWriter creates a CSV snapshot writer.
func NewCSVWriter() *CSVWriter {
	return &CSVWriter{}
}

// Header returns the column names in export order.
func (c *CSVWriter) Header() []string {
	header := []string{"id", "image_name", "longitude", "latitude", "subdistrict"}
	return append(header, domain.Classes...)
}

// Write serializes the snapshot rows. The snapshot is written as-is;
// the writer never reorders or filters.
func (c *CSVWriter) Write(w io.Writer, rows []domain.SnapshotRow) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(c.Header()); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, row := range rows {
		record := make([]string, 0, 5+len(domain.Classes))
		record = append(record,
			strconv.Itoa(row.ID),
			row.Filename,
			strconv.FormatFloat(row.Longitude, 'f', 6, 64),
			strconv.FormatFloat(row.Latitude, 'f', 6, 64),
			row.Subdistrict,
		)
		for _, flag := range row.Flags {
			record = append(record, strconv.FormatBool(flag))
		}

		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing row %d: %w", row.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
