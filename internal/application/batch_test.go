package application

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/signumlab/signum/internal/domain"
	"github.com/signumlab/signum/internal/ports/output"
)

// gatedDetector blocks each Detect call until the test releases it,
// making cancellation timing deterministic. Like the HTTP inference
// client, it fails when its context has been cancelled.
type gatedDetector struct {
	started chan string
	proceed chan struct{}
}

func newGatedDetector() *gatedDetector {
	return &gatedDetector{
		started: make(chan string),
		proceed: make(chan struct{}),
	}
}

func (d *gatedDetector) Detect(ctx context.Context, path string) (*domain.Detection, error) {
	d.started <- path
	<-d.proceed
	if err := ctx.Err(); err != nil {
		return nil, &domain.InferenceError{Path: path, Err: err}
	}
	return &domain.Detection{
		Flags:   domain.NewFlags(),
		Overlay: image.NewNRGBA(image.Rect(0, 0, 1, 1)),
	}, nil
}

func (d *gatedDetector) CheckHealth(_ context.Context) error {
	return nil
}

func newBatchFixture(detector output.Detector, geotag output.GeotagExtractor) (*BatchService, *RecordStore) {
	logger := testLogger()
	metrics := &output.NoOpMetrics{}
	store := NewRecordStore(mockExporter{}, metrics, logger)
	attribution := NewAttributionService(&mockIndex{ready: true, contained: true, label: "Menteng"}, 0, metrics, logger)
	batch := NewBatchService(detector, geotag, attribution, store, metrics, logger, 16)
	return batch, store
}

// waitTerminal drains events until the run's terminal event arrives.
func waitTerminal(t *testing.T, events <-chan domain.BatchEvent) domain.BatchEvent {
	t.Helper()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case event := <-events:
			if event.Kind != domain.BatchEventProgress {
				return event
			}
		case <-deadline:
			t.Fatal("timed out waiting for terminal event")
		}
	}
}

func TestBatchRunCompletes(t *testing.T) {
	detector := &mockDetector{
		flagsFor: map[string][]string{
			"/images/b.jpg": {"Indihome", "CBN"},
		},
	}
	geotag := &mockGeotag{coords: map[string]domain.Coordinate{
		"/images/a.jpg": domain.NewWGS84Coordinate(106.8456, -6.2088),
	}}
	batch, store := newBatchFixture(detector, geotag)
	defer batch.Close()

	ctx := context.Background()
	if _, err := batch.Stage(ctx, []string{"/images/a.jpg", "/images/b.jpg", "/images/c.jpg"}); err != nil {
		t.Fatalf("Stage() error: %v", err)
	}
	if err := batch.Run(ctx); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	event := waitTerminal(t, batch.Events())
	if event.Kind != domain.BatchEventCompleted {
		t.Fatalf("terminal event = %s, want completed", event.Kind)
	}
	if event.Processed != 3 || event.Total != 3 {
		t.Errorf("terminal event processed/total = %d/%d, want 3/3", event.Processed, event.Total)
	}

	records := store.List(ctx)
	if len(records) != 3 {
		t.Fatalf("len(records) = %d, want 3", len(records))
	}
	for i, rec := range records {
		if rec.ID != i {
			t.Errorf("records[%d].ID = %d", i, rec.ID)
		}
	}

	// Geotagged image resolves through the index; the others carry the
	// no-geotag sentinel.
	if records[0].Subdistrict != "Menteng" {
		t.Errorf("records[0].Subdistrict = %q, want Menteng", records[0].Subdistrict)
	}
	if records[1].Subdistrict != domain.SubdistrictUnknown {
		t.Errorf("records[1].Subdistrict = %q, want %q", records[1].Subdistrict, domain.SubdistrictUnknown)
	}
	if !records[1].Detections["Indihome"] || !records[1].Detections["CBN"] {
		t.Errorf("records[1].Detections = %v, want Indihome and CBN flagged", records[1].Detections)
	}
	if records[0].Detections["Indihome"] {
		t.Error("records[0] flagged Indihome without a detection")
	}

	status := batch.Status(ctx)
	if status.State != domain.BatchCompleted {
		t.Errorf("Status().State = %s, want completed", status.State)
	}
}

func TestBatchIDsContinueAcrossRuns(t *testing.T) {
	batch, store := newBatchFixture(&mockDetector{}, &mockGeotag{})
	defer batch.Close()

	ctx := context.Background()
	if _, err := batch.Stage(ctx, []string{"/images/a.jpg", "/images/b.jpg"}); err != nil {
		t.Fatalf("Stage() error: %v", err)
	}
	if err := batch.Run(ctx); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	waitTerminal(t, batch.Events())

	if _, err := batch.Stage(ctx, []string{"/images/c.jpg"}); err != nil {
		t.Fatalf("Stage() error: %v", err)
	}
	if err := batch.Run(ctx); err != nil {
		t.Fatalf("second Run() error: %v", err)
	}
	waitTerminal(t, batch.Events())

	records := store.List(ctx)
	if len(records) != 3 {
		t.Fatalf("len(records) = %d, want 3", len(records))
	}
	if records[2].ID != 2 || records[2].Filename != "c.jpg" {
		t.Errorf("records[2] = id %d file %q, want id 2 file c.jpg", records[2].ID, records[2].Filename)
	}
}

func TestBatchFailureDiscardsPartialResults(t *testing.T) {
	detector := &mockDetector{failOn: "/images/b.jpg"}
	batch, store := newBatchFixture(detector, &mockGeotag{})
	defer batch.Close()

	ctx := context.Background()
	if _, err := batch.Stage(ctx, []string{"/images/a.jpg", "/images/b.jpg", "/images/c.jpg"}); err != nil {
		t.Fatalf("Stage() error: %v", err)
	}
	if err := batch.Run(ctx); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	event := waitTerminal(t, batch.Events())
	if event.Kind != domain.BatchEventFailed {
		t.Fatalf("terminal event = %s, want failed", event.Kind)
	}

	var infErr *domain.InferenceError
	if !errors.As(event.Err, &infErr) {
		t.Errorf("event.Err = %v, want *domain.InferenceError", event.Err)
	}

	// The first image succeeded, but a failed run appends nothing.
	if store.Count() != 0 {
		t.Errorf("Count() = %d after failed run, want 0", store.Count())
	}
	if got := batch.Status(ctx).State; got != domain.BatchFailed {
		t.Errorf("Status().State = %s, want failed", got)
	}

	// The run stopped at the failing image.
	if detector.callCount() != 2 {
		t.Errorf("detector calls = %d, want 2", detector.callCount())
	}
}

func TestBatchCancellationKeepsCompletedPrefix(t *testing.T) {
	detector := newGatedDetector()
	batch, store := newBatchFixture(detector, &mockGeotag{})
	defer batch.Close()

	ctx := context.Background()
	if _, err := batch.Stage(ctx, []string{"/images/a.jpg", "/images/b.jpg", "/images/c.jpg"}); err != nil {
		t.Fatalf("Stage() error: %v", err)
	}
	if err := batch.Run(ctx); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	// First image is in flight. Cancel, then let it finish: it must
	// still complete, and the run must stop before the second image.
	<-detector.started
	if err := batch.Cancel(ctx); err != nil {
		t.Fatalf("Cancel() error: %v", err)
	}
	detector.proceed <- struct{}{}

	event := waitTerminal(t, batch.Events())
	if event.Kind != domain.BatchEventCancelled {
		t.Fatalf("terminal event = %s, want cancelled", event.Kind)
	}
	if event.Processed != 1 {
		t.Errorf("event.Processed = %d, want 1", event.Processed)
	}

	records := store.List(ctx)
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}
	if records[0].ID != 0 || records[0].Filename != "a.jpg" {
		t.Errorf("records[0] = id %d file %q, want id 0 file a.jpg", records[0].ID, records[0].Filename)
	}
	if got := batch.Status(ctx).State; got != domain.BatchCancelled {
		t.Errorf("Status().State = %s, want cancelled", got)
	}
}

func TestBatchCancelDoesNotAbortInFlightInference(t *testing.T) {
	detector := newGatedDetector()
	batch, store := newBatchFixture(detector, &mockGeotag{})
	defer batch.Close()

	ctx := context.Background()
	if _, err := batch.Stage(ctx, []string{"/images/a.jpg", "/images/b.jpg", "/images/c.jpg"}); err != nil {
		t.Fatalf("Stage() error: %v", err)
	}
	if err := batch.Run(ctx); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	// Let the first image through, then cancel while the second is in
	// flight. The detector fails on a cancelled context, so the run
	// only ends cancelled if the cancel never reaches the inference.
	<-detector.started
	detector.proceed <- struct{}{}
	<-detector.started
	if err := batch.Cancel(ctx); err != nil {
		t.Fatalf("Cancel() error: %v", err)
	}
	detector.proceed <- struct{}{}

	event := waitTerminal(t, batch.Events())
	if event.Kind != domain.BatchEventCancelled {
		t.Fatalf("terminal event = %s (err %v), want cancelled", event.Kind, event.Err)
	}
	if event.Processed != 2 {
		t.Errorf("event.Processed = %d, want 2", event.Processed)
	}

	records := store.List(ctx)
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	if records[1].Filename != "b.jpg" {
		t.Errorf("records[1].Filename = %q, want b.jpg", records[1].Filename)
	}
}

func TestBatchCloseDuringRunWaitsForWorker(t *testing.T) {
	detector := newGatedDetector()
	batch, store := newBatchFixture(detector, &mockGeotag{})

	ctx := context.Background()
	if _, err := batch.Stage(ctx, []string{"/images/a.jpg", "/images/b.jpg"}); err != nil {
		t.Fatalf("Stage() error: %v", err)
	}
	if err := batch.Run(ctx); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	<-detector.started
	if err := batch.Cancel(ctx); err != nil {
		t.Fatalf("Cancel() error: %v", err)
	}
	go func() { detector.proceed <- struct{}{} }()

	// Close must wait for the worker's terminal event instead of
	// closing the channel it is about to send on.
	batch.Close()
	batch.Close() // second close is a no-op

	var terminal domain.BatchEvent
	for event := range batch.Events() {
		if event.Kind != domain.BatchEventProgress {
			terminal = event
		}
	}

	if terminal.Kind != domain.BatchEventCancelled {
		t.Fatalf("terminal event = %s, want cancelled", terminal.Kind)
	}
	if store.Count() != 1 {
		t.Errorf("Count() = %d, want 1", store.Count())
	}
	if got := batch.Status(ctx).State; got != domain.BatchCancelled {
		t.Errorf("Status().State = %s, want cancelled", got)
	}
}

func TestBatchRunGuards(t *testing.T) {
	detector := newGatedDetector()
	batch, _ := newBatchFixture(detector, &mockGeotag{})
	defer batch.Close()

	ctx := context.Background()

	if err := batch.Run(ctx); !errors.Is(err, domain.ErrNoImagesStaged) {
		t.Errorf("Run() with nothing staged error = %v, want ErrNoImagesStaged", err)
	}
	if err := batch.Cancel(ctx); !errors.Is(err, domain.ErrBatchNotRunning) {
		t.Errorf("Cancel() while idle error = %v, want ErrBatchNotRunning", err)
	}

	if _, err := batch.Stage(ctx, []string{"/images/a.jpg"}); err != nil {
		t.Fatalf("Stage() error: %v", err)
	}
	if err := batch.Run(ctx); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	<-detector.started

	if err := batch.Run(ctx); !errors.Is(err, domain.ErrBatchInProgress) {
		t.Errorf("Run() while running error = %v, want ErrBatchInProgress", err)
	}
	if _, err := batch.Stage(ctx, []string{"/images/b.jpg"}); !errors.Is(err, domain.ErrBatchInProgress) {
		t.Errorf("Stage() while running error = %v, want ErrBatchInProgress", err)
	}
	if err := batch.ClearStaged(ctx); !errors.Is(err, domain.ErrBatchInProgress) {
		t.Errorf("ClearStaged() while running error = %v, want ErrBatchInProgress", err)
	}

	detector.proceed <- struct{}{}
	waitTerminal(t, batch.Events())
}

func TestBatchStageDeduplicates(t *testing.T) {
	batch, _ := newBatchFixture(&mockDetector{}, &mockGeotag{})
	defer batch.Close()

	ctx := context.Background()
	staged, err := batch.Stage(ctx, []string{"/images/a.jpg", "/images/a.jpg", "", "/images/b.jpg"})
	if err != nil {
		t.Fatalf("Stage() error: %v", err)
	}
	if staged != 2 {
		t.Errorf("Stage() staged = %d, want 2", staged)
	}

	staged, err = batch.Stage(ctx, []string{"/images/b.jpg", "/images/c.jpg"})
	if err != nil {
		t.Fatalf("Stage() error: %v", err)
	}
	if staged != 3 {
		t.Errorf("Stage() staged = %d, want 3", staged)
	}

	if err := batch.ClearStaged(ctx); err != nil {
		t.Fatalf("ClearStaged() error: %v", err)
	}
	if got := batch.Status(ctx).Staged; got != 0 {
		t.Errorf("Staged after clear = %d, want 0", got)
	}
}

func TestBatchProgressEventsPrecedeTerminal(t *testing.T) {
	batch, _ := newBatchFixture(&mockDetector{}, &mockGeotag{})
	defer batch.Close()

	ctx := context.Background()
	if _, err := batch.Stage(ctx, []string{"/images/a.jpg", "/images/b.jpg"}); err != nil {
		t.Fatalf("Stage() error: %v", err)
	}
	if err := batch.Run(ctx); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	var kinds []domain.BatchEventKind
	deadline := time.After(5 * time.Second)
collect:
	for {
		select {
		case event := <-batch.Events():
			kinds = append(kinds, event.Kind)
			if event.Kind != domain.BatchEventProgress {
				break collect
			}
		case <-deadline:
			t.Fatal("timed out collecting events")
		}
	}

	want := []domain.BatchEventKind{
		domain.BatchEventProgress,
		domain.BatchEventProgress,
		domain.BatchEventCompleted,
	}
	if len(kinds) != len(want) {
		t.Fatalf("event kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("kinds[%d] = %s, want %s", i, kinds[i], want[i])
		}
	}
}
