package boundary

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/signumlab/signum/internal/domain"
)

// geoJSONFile is the subset of the GeoJSON structure the loader
// consumes. Geometries stay raw; SpatiaLite parses them.
type geoJSONFile struct {
	Type     string           `json:"type"`
	Name     string           `json:"name"`
	Features []geoJSONFeature `json:"features"`
}

type geoJSONFeature struct {
	Properties map[string]any  `json:"properties"`
	Geometry   json.RawMessage `json:"geometry"`
}

// loadGeoJSON inserts the polygon features of a GeoJSON file. GeoJSON
// coordinates are WGS84 by specification, so no reprojection runs.
func (i *Index) loadGeoJSON(ctx context.Context, db *sql.DB, path string, dataset *domain.BoundaryDataset) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &domain.DatasetError{Path: path, Stage: "open", Err: err}
	}

	var file geoJSONFile
	if err := json.Unmarshal(data, &file); err != nil {
		return &domain.DatasetError{Path: path, Stage: "open", Err: fmt.Errorf("parsing GeoJSON: %w", err)}
	}
	if file.Type != "FeatureCollection" {
		return &domain.DatasetError{Path: path, Stage: "open",
			Err: fmt.Errorf("expected FeatureCollection, got %q", file.Type)}
	}

	dataset.SourceSRID = domain.SRIDWGS84
	if file.Name != "" {
		dataset.Name = file.Name
		dataset.Metadata.Title = file.Name
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.DatasetError{Path: path, Stage: "reproject", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO regions (fid, label, geom) VALUES (?, ?, SetSRID(GeomFromGeoJSON(?), 4326))",
	)
	if err != nil {
		return &domain.DatasetError{Path: path, Stage: "reproject", Err: err}
	}
	defer func() { _ = stmt.Close() }()

	fid := int64(0)
	for _, feature := range file.Features {
		label, ok := featureLabel(feature.Properties, i.labelColumn)
		if !ok || len(feature.Geometry) == 0 {
			continue
		}
		fid++
		if _, err := stmt.ExecContext(ctx, fid, label, string(feature.Geometry)); err != nil {
			return &domain.DatasetError{Path: path, Stage: "reproject",
				Err: fmt.Errorf("inserting feature %d: %w", fid, err)}
		}
	}

	if err := tx.Commit(); err != nil {
		return &domain.DatasetError{Path: path, Stage: "reproject", Err: err}
	}
	return nil
}

// featureLabel pulls the label attribute from a feature's properties.
func featureLabel(properties map[string]any, column string) (string, bool) {
	v, ok := properties[column]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
