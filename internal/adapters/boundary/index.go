// Package boundary provides the SpatiaLite-backed administrative
// boundary index.
package boundary

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/signumlab/signum/internal/domain"
)

// Ensure sqlite3 driver is registered with extension support.
func init() {
	sql.Register("sqlite3_with_extensions", &sqlite3.SQLiteDriver{
		Extensions: getSpatiaLiteLibraryPaths(),
	})
}

// getSpatiaLiteLibraryPaths returns a list of paths to try for loading SpatiaLite.
// The order is important: environment variable first, then platform-specific paths.
func getSpatiaLiteLibraryPaths() []string {
	var paths []string

	// First, check environment variable (set by Nix shell or Docker)
	// The env var should point to the exact library path
	if envPath := os.Getenv("SPATIALITE_LIBRARY_PATH"); envPath != "" {
		paths = append(paths, envPath)
		return paths
	}

	// Fallback: Platform-specific paths
	// Order matters - more specific paths first, then generic names
	paths = append(paths,
		// Alpine Linux (Docker containers)
		"/usr/lib/mod_spatialite.so",
		"/usr/lib/mod_spatialite.so.8",

		// Debian/Ubuntu amd64
		"/usr/lib/x86_64-linux-gnu/mod_spatialite.so",
		"/usr/lib/x86_64-linux-gnu/mod_spatialite.so.8",

		// Debian/Ubuntu arm64
		"/usr/lib/aarch64-linux-gnu/mod_spatialite.so",
		"/usr/lib/aarch64-linux-gnu/mod_spatialite.so.8",

		// macOS Homebrew (Intel)
		"/usr/local/lib/mod_spatialite.dylib",

		// macOS Homebrew (Apple Silicon)
		"/opt/homebrew/lib/mod_spatialite.dylib",

		// Generic names (let the system find them via LD_LIBRARY_PATH)
		"mod_spatialite.so",    // Linux
		"mod_spatialite",       // System default
		"mod_spatialite.dylib", // macOS
	)

	return paths
}

// Index implements the BoundaryIndex port using an in-memory SpatiaLite
// database. The source dataset is loaded and reprojected to WGS84 once;
// afterward the index is read-only, so lookups need no locking beyond
// the dataset pointer.
type Index struct {
	labelColumn string
	layer       string // Preferred source layer; empty picks the first polygon layer

	mu      sync.RWMutex
	db      *sql.DB
	dataset *domain.BoundaryDataset
	status  domain.BoundaryStatus
}

// NewIndex creates a boundary index. labelColumn names the attribute
// holding each region's label (e.g. WADMKC).
func NewIndex(labelColumn, layer string) *Index {
	return &Index{
		labelColumn: labelColumn,
		layer:       layer,
		status:      domain.BoundaryAbsent,
	}
}

// Load opens the dataset file, reprojects it to WGS84, and builds the
// R-tree index. Supported formats: GeoPackage (.gpkg) and GeoJSON
// (.geojson, .json).
func (i *Index) Load(ctx context.Context, path string) (*domain.BoundaryDataset, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.db != nil {
		return i.dataset, nil
	}

	i.status = domain.BoundaryLoading

	info, err := os.Stat(path)
	if err != nil {
		i.status = domain.BoundaryError
		return nil, &domain.DatasetError{Path: path, Stage: "open", Err: err}
	}

	db, err := openSpatialDB(ctx)
	if err != nil {
		i.status = domain.BoundaryError
		return nil, &domain.DatasetError{Path: path, Stage: "open", Err: err}
	}

	dataset := &domain.BoundaryDataset{
		ID:          DeriveDatasetID(path),
		Name:        DeriveDatasetID(path),
		Path:        path,
		Size:        info.Size(),
		Format:      DetectFormat(path),
		LabelColumn: i.labelColumn,
		LoadedAt:    time.Now(),
	}

	i.status = domain.BoundaryReprojecting

	switch dataset.Format {
	case "gpkg":
		err = i.loadGeoPackage(ctx, db, path, dataset)
	case "geojson":
		err = i.loadGeoJSON(ctx, db, path, dataset)
	default:
		err = fmt.Errorf("%w: %s", domain.ErrUnsupportedBoundary, filepath.Ext(path))
	}
	if err != nil {
		_ = db.Close()
		i.status = domain.BoundaryError
		return nil, err
	}

	if err := i.buildRTree(ctx, db); err != nil {
		_ = db.Close()
		i.status = domain.BoundaryError
		return nil, &domain.DatasetError{Path: path, Stage: "index", Err: err}
	}

	if err := i.readStats(ctx, db, dataset); err != nil {
		_ = db.Close()
		i.status = domain.BoundaryError
		return nil, &domain.DatasetError{Path: path, Stage: "index", Err: err}
	}

	dataset.Reprojected = true
	i.db = db
	i.dataset = dataset
	i.status = domain.BoundaryReady
	return dataset, nil
}

// Dataset returns the loaded dataset, or nil before a successful Load.
func (i *Index) Dataset() *domain.BoundaryDataset {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.dataset
}

// Status reports the load state of the dataset.
func (i *Index) Status() domain.BoundaryStatus {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.status
}

// Ready returns true if the index is loaded and queryable.
func (i *Index) Ready() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.db != nil && i.dataset != nil && i.dataset.IsReady()
}

// Lookup finds the polygon containing the coordinate. Ties break on the
// lowest feature id, which keeps repeated lookups deterministic.
func (i *Index) Lookup(ctx context.Context, coord domain.Coordinate) (domain.LookupResult, error) {
	i.mu.RLock()
	db := i.db
	dataset := i.dataset
	i.mu.RUnlock()

	if db == nil || dataset == nil {
		return domain.LookupResult{}, domain.ErrDatasetNotLoaded
	}

	start := time.Now()

	// R-tree bounding box prefilter, exact containment second.
	query := `
		SELECT t.fid, t.label
		FROM regions t
		INNER JOIN rtree_regions r ON t.fid = r.id
		WHERE r.minx <= ?1 AND r.maxx >= ?1 AND r.miny <= ?2 AND r.maxy >= ?2
		  AND ST_Contains(t.geom, MakePoint(?1, ?2, 4326))
		ORDER BY t.fid
		LIMIT 1
	`

	var region domain.Region
	err := db.QueryRowContext(ctx, query, coord.Lon, coord.Lat).Scan(&region.FID, &region.Label)
	elapsed := time.Since(start)

	switch {
	case err == sql.ErrNoRows:
		return domain.LookupResult{
			Subdistrict: domain.SubdistrictOutside,
			LookupTime:  elapsed,
		}, nil
	case err != nil:
		return domain.LookupResult{}, &domain.LookupError{DatasetID: dataset.ID, Err: err}
	}

	i.mu.Lock()
	i.dataset.LastQueried = time.Now()
	i.mu.Unlock()

	return domain.LookupResult{
		Subdistrict: region.Label,
		FID:         region.FID,
		Matched:     true,
		LookupTime:  elapsed,
	}, nil
}

// Close releases the index.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.db == nil {
		return nil
	}
	err := i.db.Close()
	i.db = nil
	i.dataset = nil
	i.status = domain.BoundaryAbsent
	return err
}

// openSpatialDB creates the in-memory SpatiaLite database with full
// spatial metadata (required by ST_Transform).
func openSpatialDB(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("sqlite3_with_extensions", ":memory:")
	if err != nil {
		return nil, err
	}

	// An in-memory database must stay on one connection.
	db.SetMaxOpenConns(1)

	var version string
	if err := db.QueryRowContext(ctx, "SELECT spatialite_version()").Scan(&version); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("SpatiaLite extension not available: %w", err)
	}

	if _, err := db.ExecContext(ctx, "SELECT InitSpatialMetaDataFull(1)"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing spatial metadata: %w", err)
	}

	if _, err := db.ExecContext(ctx,
		"CREATE TABLE regions (fid INTEGER PRIMARY KEY, label TEXT NOT NULL, geom BLOB NOT NULL)",
	); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// loadGeoPackage copies the polygon layer out of a GeoPackage file,
// reprojecting each geometry to WGS84 on the way in.
func (i *Index) loadGeoPackage(ctx context.Context, db *sql.DB, path string, dataset *domain.BoundaryDataset) error {
	attach := fmt.Sprintf("ATTACH DATABASE %s AS src", quoteLiteral("file:"+path+"?mode=ro"))
	if _, err := db.ExecContext(ctx, attach); err != nil {
		return &domain.DatasetError{Path: path, Stage: "open", Err: err}
	}
	defer func() { _, _ = db.ExecContext(ctx, "DETACH DATABASE src") }()

	layer, geomColumn, srid, err := i.findPolygonLayer(ctx, db)
	if err != nil {
		return &domain.DatasetError{Path: path, Stage: "open", Err: err}
	}
	dataset.SourceSRID = srid
	i.readSourceMetadata(ctx, db, layer, dataset)

	// CastAutomagic converts GeoPackage binary geometry to SpatiaLite
	// format; ST_Transform reprojects once at load so lookups never do.
	geomExpr := fmt.Sprintf("CastAutomagic(s.%q)", geomColumn)
	if srid != domain.SRIDWGS84 {
		geomExpr = fmt.Sprintf("ST_Transform(%s, %d)", geomExpr, domain.SRIDWGS84)
	}

	copyQuery := fmt.Sprintf(`
		INSERT INTO regions (fid, label, geom)
		SELECT s.fid, s.%q, %s
		FROM src.%q s
		WHERE s.%q IS NOT NULL AND s.%q IS NOT NULL
	`, i.labelColumn, geomExpr, layer, i.labelColumn, geomColumn) //#nosec G201 -- identifiers from trusted dataset metadata

	if _, err := db.ExecContext(ctx, copyQuery); err != nil {
		return &domain.DatasetError{Path: path, Stage: "reproject", Err: err}
	}
	return nil
}

// readSourceMetadata fills in dataset metadata from gpkg_contents and,
// when the optional gpkg_metadata table exists, the license text
// publishers commonly place there. Metadata is best effort and never
// fails the load.
func (i *Index) readSourceMetadata(ctx context.Context, db *sql.DB, layer string, dataset *domain.BoundaryDataset) {
	var identifier, description, lastChange sql.NullString
	err := db.QueryRowContext(ctx,
		"SELECT identifier, description, last_change FROM src.gpkg_contents WHERE table_name = ?",
		layer,
	).Scan(&identifier, &description, &lastChange)
	if err == nil {
		if identifier.String != "" {
			dataset.Name = identifier.String
			dataset.Metadata.Title = identifier.String
		}
		dataset.Metadata.Description = description.String
		if t, perr := time.Parse(time.RFC3339, lastChange.String); perr == nil {
			dataset.Metadata.CreatedAt = t
		}
	}
	dataset.Metadata.Custom = map[string]string{"source_layer": layer}

	var exists int
	if err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM src.sqlite_master WHERE type='table' AND name='gpkg_metadata'",
	).Scan(&exists); err != nil || exists == 0 {
		return
	}

	var raw string
	if err := db.QueryRowContext(ctx, "SELECT metadata FROM src.gpkg_metadata LIMIT 1").Scan(&raw); err == nil {
		dataset.License.Attribution = raw
	}
}

// findPolygonLayer picks the source layer from gpkg_contents. The
// configured layer name wins; otherwise the first polygon layer does.
func (i *Index) findPolygonLayer(ctx context.Context, db *sql.DB) (layer, geomColumn string, srid int, err error) {
	query := `
		SELECT c.table_name, g.column_name, g.geometry_type_name, g.srs_id
		FROM src.gpkg_contents c
		JOIN src.gpkg_geometry_columns g ON c.table_name = g.table_name
		WHERE c.data_type = 'features'
		ORDER BY c.table_name
	`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return "", "", 0, fmt.Errorf("reading layers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var name, column, geomType string
		var layerSRID int
		if err := rows.Scan(&name, &column, &geomType, &layerSRID); err != nil {
			return "", "", 0, fmt.Errorf("scanning layer: %w", err)
		}

		if i.layer != "" {
			if name == i.layer {
				return name, column, layerSRID, nil
			}
			continue
		}
		if strings.Contains(strings.ToUpper(geomType), "POLYGON") {
			return name, column, layerSRID, nil
		}
	}
	if err := rows.Err(); err != nil {
		return "", "", 0, err
	}

	return "", "", 0, fmt.Errorf("no polygon layer found")
}

// buildRTree creates and populates the bounding-box index.
func (i *Index) buildRTree(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx,
		"CREATE VIRTUAL TABLE rtree_regions USING rtree(id, minx, maxx, miny, maxy)",
	); err != nil {
		return fmt.Errorf("creating R-tree table: %w", err)
	}

	populate := `
		INSERT INTO rtree_regions (id, minx, maxx, miny, maxy)
		SELECT fid, MbrMinX(geom), MbrMaxX(geom), MbrMinY(geom), MbrMaxY(geom)
		FROM regions
	`
	if _, err := db.ExecContext(ctx, populate); err != nil {
		return fmt.Errorf("populating R-tree index: %w", err)
	}
	return nil
}

// readStats fills in the polygon count and the dataset extent.
func (i *Index) readStats(ctx context.Context, db *sql.DB, dataset *domain.BoundaryDataset) error {
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM regions").Scan(&dataset.PolygonCount); err != nil {
		return err
	}

	var minX, minY, maxX, maxY sql.NullFloat64
	err := db.QueryRowContext(ctx,
		"SELECT Min(minx), Min(miny), Max(maxx), Max(maxy) FROM rtree_regions",
	).Scan(&minX, &minY, &maxX, &maxY)
	if err == nil && minX.Valid {
		dataset.Extent = &domain.Extent{
			MinX: minX.Float64, MinY: minY.Float64,
			MaxX: maxX.Float64, MaxY: maxY.Float64,
			SRID: domain.SRIDWGS84,
		}
	}
	return nil
}

// DeriveDatasetID derives a dataset ID from the file path.
func DeriveDatasetID(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext)
}

// DetectFormat maps a file extension to a dataset format.
func DetectFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gpkg":
		return "gpkg"
	case ".geojson", ".json":
		return "geojson"
	default:
		return ""
	}
}

// quoteLiteral quotes a string for use as an SQL literal.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
