package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/signumlab/signum/internal/adapters/detector"
	"github.com/signumlab/signum/internal/domain"
)

// stageRequest is the body of a stage call.
type stageRequest struct {
	Paths []string `json:"paths"`
}

// toggleRequest is the body of a detection flag edit.
type toggleRequest struct {
	Class string `json:"class"`
	Value bool   `json:"value"`
}

// deleteRequest is the body of a bulk record delete.
type deleteRequest struct {
	IDs []int `json:"ids"`
}

// handleStage adds image paths to the pending batch.
func (s *Server) handleStage(w http.ResponseWriter, r *http.Request) {
	var req stageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Paths) == 0 {
		s.writeError(w, http.StatusBadRequest, "paths is required")
		return
	}

	staged, err := s.batch.Stage(r.Context(), req.Paths)
	if err != nil {
		s.handleBatchError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"staged": staged,
	})
}

// handleClearStaged discards all staged images.
func (s *Server) handleClearStaged(w http.ResponseWriter, r *http.Request) {
	if err := s.batch.ClearStaged(r.Context()); err != nil {
		s.handleBatchError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// handleRun starts processing the staged batch.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if err := s.batch.Run(r.Context()); err != nil {
		s.handleBatchError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "running"})
}

// handleCancel requests cancellation of the active run.
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if err := s.batch.Cancel(r.Context()); err != nil {
		s.handleBatchError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "cancelling"})
}

// handleStatus returns the orchestrator state.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.batch.Status(r.Context())

	response := map[string]interface{}{
		"state":     string(status.State),
		"processed": status.Processed,
		"total":     status.Total,
		"staged":    status.Staged,
		"message":   status.Message,
	}
	if !status.StartedAt.IsZero() {
		response["started_at"] = status.StartedAt.Format(time.RFC3339)
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleListRecords returns all records in store order.
func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	records := s.records.List(r.Context())

	response := make([]map[string]interface{}, len(records))
	for i := range records {
		response[i] = s.formatRecord(&records[i])
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"records": response,
		"count":   len(records),
	})
}

// handleGetRecord returns a single record by id.
func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	id, err := s.parseRecordID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := s.records.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			s.writeError(w, http.StatusNotFound, "Record not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "Failed to get record")
		return
	}

	s.writeJSON(w, http.StatusOK, s.formatRecord(rec))
}

// handleDeleteRecord deletes one record. Remaining records are
// renumbered, so previously issued ids shift.
func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, err := s.parseRecordID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.records.Delete(r.Context(), []int{id}); err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to delete record")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleDeleteRecords deletes a set of records in one renumbering pass.
func (s *Server) handleDeleteRecords(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.IDs) == 0 {
		s.writeError(w, http.StatusBadRequest, "ids is required")
		return
	}

	if err := s.records.Delete(r.Context(), req.IDs); err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to delete records")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleToggleDetection overwrites one class flag on a record.
func (s *Server) handleToggleDetection(w http.ResponseWriter, r *http.Request) {
	id, err := s.parseRecordID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Class == "" {
		s.writeError(w, http.StatusBadRequest, "class is required")
		return
	}

	if err := s.records.ToggleDetection(r.Context(), id, req.Class, req.Value); err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			s.writeError(w, http.StatusNotFound, "Record not found")
		case errors.Is(err, domain.ErrUnknownClass):
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown class %q", req.Class))
		default:
			s.writeError(w, http.StatusInternalServerError, "Failed to update detection")
		}
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// handleOverlay streams a record's detection overlay. The format query
// parameter selects the encoding (webp, png, jpeg); webp is the default.
func (s *Server) handleOverlay(w http.ResponseWriter, r *http.Request) {
	id, err := s.parseRecordID(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	overlay, err := s.records.Overlay(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "Overlay not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "Failed to get overlay")
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "webp"
	}

	switch format {
	case "webp":
		w.Header().Set("Content-Type", "image/webp")
	case "png":
		w.Header().Set("Content-Type", "image/png")
	case "jpeg", "jpg":
		w.Header().Set("Content-Type", "image/jpeg")
	default:
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported format %q", format))
		return
	}

	if err := detector.EncodeOverlay(w, overlay, format); err != nil {
		s.logger.Error("overlay encoding failed", "id", id, "format", format, "error", err)
	}
}

// handleExportCSV streams the record snapshot as a CSV download.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="records.csv"`)

	if err := s.records.ExportCSV(r.Context(), w); err != nil {
		// Headers are already out; all we can do is log.
		s.logger.Error("CSV export failed", "error", err)
	}
}

// handleResolve resolves a standalone coordinate to a subdistrict label.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lon, err := strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid lon parameter")
		return
	}
	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid lat parameter")
		return
	}

	coord := domain.NewWGS84Coordinate(lon, lat)
	if err := coord.Validate(); err != nil {
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			s.writeError(w, http.StatusBadRequest, validationErr.Message)
			return
		}
		s.writeError(w, http.StatusBadRequest, "invalid coordinate")
		return
	}

	subdistrict := s.attribution.Resolve(r.Context(), coord)

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"lon":         coord.Lon,
		"lat":         coord.Lat,
		"subdistrict": subdistrict,
	})
}

// handleDataset describes the loaded boundary dataset. Before a
// successful load only the status field is present.
func (s *Server) handleDataset(w http.ResponseWriter, r *http.Request) {
	dataset, status := s.attribution.Dataset(r.Context())

	response := map[string]interface{}{
		"status": string(status),
	}
	if dataset == nil {
		s.writeJSON(w, http.StatusOK, response)
		return
	}

	response["id"] = dataset.ID
	response["name"] = dataset.Name
	response["format"] = dataset.Format
	response["label_column"] = dataset.LabelColumn
	response["polygon_count"] = dataset.PolygonCount
	response["loaded_at"] = dataset.LoadedAt.Format(time.RFC3339)

	srid := map[string]interface{}{"code": dataset.SourceSRID}
	if domain.IsKnownSRID(dataset.SourceSRID) {
		srid["name"] = domain.CommonProjections[dataset.SourceSRID].Name
	}
	response["source_srid"] = srid

	if e := dataset.Extent; e != nil && e.IsValid() {
		center := e.Center()
		response["extent"] = map[string]interface{}{
			"min_x":  e.MinX,
			"min_y":  e.MinY,
			"max_x":  e.MaxX,
			"max_y":  e.MaxY,
			"width":  e.Width(),
			"height": e.Height(),
			"center": map[string]float64{"lon": center.Lon, "lat": center.Lat},
		}
	}

	metadata := map[string]interface{}{}
	if dataset.Metadata.Title != "" {
		metadata["title"] = dataset.Metadata.Title
	}
	if dataset.Metadata.Description != "" {
		metadata["description"] = dataset.Metadata.Description
	}
	if !dataset.Metadata.CreatedAt.IsZero() {
		metadata["created_at"] = dataset.Metadata.CreatedAt.Format(time.RFC3339)
	}
	if layer, ok := dataset.Metadata.GetCustom("source_layer"); ok {
		metadata["source_layer"] = layer
	}
	if len(metadata) > 0 {
		response["metadata"] = metadata
	}

	if !dataset.License.IsEmpty() {
		response["license"] = dataset.License.String()
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleHealth returns detailed health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	details := s.health.GetHealthDetails(r.Context())

	status := http.StatusOK
	if !details.Healthy {
		status = http.StatusServiceUnavailable
	}

	s.writeJSON(w, status, map[string]interface{}{
		"status":        boolToStatus(details.Healthy),
		"ready":         details.Ready,
		"dataset_ready": details.DatasetReady,
		"record_count":  details.RecordCount,
		"components":    details.Components,
	})
}

// handleLiveness returns liveness status.
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	if s.health.IsHealthy(r.Context()) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	} else {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
	}
}

// handleReadiness returns readiness status.
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if s.health.IsReady(r.Context()) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	} else {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
	}
}

// handleOpenAPI returns the OpenAPI specification.
func (s *Server) handleOpenAPI(w http.ResponseWriter, _ *http.Request) {
	spec, err := getOpenAPIJSON()
	if err != nil {
		s.logger.Error("failed to get OpenAPI spec", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to load OpenAPI specification")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(spec)
}

// parseRecordID extracts the record id path variable.
func (s *Server) parseRecordID(r *http.Request) (int, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.Atoi(raw)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid record id %q", raw)
	}
	return id, nil
}

// formatRecord formats an image record for JSON output. The overlay is
// not inlined; clients fetch it from the overlay endpoint.
func (s *Server) formatRecord(rec *domain.ImageRecord) map[string]interface{} {
	detections := make(map[string]bool, len(domain.Classes))
	for _, class := range domain.Classes {
		detections[class] = rec.Detections[class]
	}

	return map[string]interface{}{
		"id":          rec.ID,
		"image_name":  rec.Filename,
		"longitude":   rec.Longitude,
		"latitude":    rec.Latitude,
		"subdistrict": rec.Subdistrict,
		"detections":  detections,
		"has_geotag":  rec.HasGeotag(),
		"has_overlay": rec.Overlay != nil,
	}
}

// handleBatchError maps batch orchestration errors to HTTP statuses.
func (s *Server) handleBatchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrBatchInProgress):
		s.writeError(w, http.StatusConflict, "A batch run is already in progress")
	case errors.Is(err, domain.ErrBatchNotRunning):
		s.writeError(w, http.StatusConflict, "No batch run is in progress")
	case errors.Is(err, domain.ErrNoImagesStaged):
		s.writeError(w, http.StatusBadRequest, "No images staged")
	default:
		s.logger.Error("batch operation failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Batch operation failed")
	}
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]interface{}{
		"error":   http.StatusText(status),
		"message": message,
	})
}

func boolToStatus(b bool) string {
	if b {
		return "ok"
	}
	return "unhealthy"
}
