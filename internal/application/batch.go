package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/signumlab/signum/internal/domain"
	"github.com/signumlab/signum/internal/ports/output"
)

// BatchService stages image paths and runs them through the pipeline:
// detection, geotag extraction, spatial attribution. At most one run is
// active at a time. The worker goroutine never touches the record
// store; it hands finished batches to the dispatch loop, which is the
// sole control context appending to the store.
type BatchService struct {
	detector    output.Detector
	geotag      output.GeotagExtractor
	attribution *AttributionService
	records     *RecordStore
	metrics     output.MetricsCollector
	logger      *slog.Logger

	mu        sync.Mutex
	state     domain.BatchState
	staged    []string
	stagedSet map[string]bool
	processed int
	total     int
	startedAt time.Time
	message   string
	cancelRun context.CancelFunc

	internal chan domain.BatchEvent // worker -> dispatch loop
	events   chan domain.BatchEvent // dispatch loop -> observers

	wg        sync.WaitGroup // dispatch loop
	workerWG  sync.WaitGroup // active run worker
	closeOnce sync.Once
}

// NewBatchService creates a batch service. eventsBuffer sizes the
// observer channel; a slow observer loses progress events but never a
// terminal event's side effects.
func NewBatchService(
	detector output.Detector,
	geotag output.GeotagExtractor,
	attribution *AttributionService,
	records *RecordStore,
	metrics output.MetricsCollector,
	logger *slog.Logger,
	eventsBuffer int,
) *BatchService {
	if eventsBuffer <= 0 {
		eventsBuffer = 64
	}

	s := &BatchService{
		detector:    detector,
		geotag:      geotag,
		attribution: attribution,
		records:     records,
		metrics:     metrics,
		logger:      logger,
		state:       domain.BatchIdle,
		stagedSet:   make(map[string]bool),
		internal:    make(chan domain.BatchEvent),
		events:      make(chan domain.BatchEvent, eventsBuffer),
	}

	s.wg.Add(1)
	go s.dispatchLoop()

	return s
}

// Stage adds image paths to the pending batch. Paths already staged
// are skipped. Staging is rejected while a run is active.
func (s *BatchService) Stage(_ context.Context, paths []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == domain.BatchRunning {
		return len(s.staged), domain.ErrBatchInProgress
	}

	for _, p := range paths {
		if p == "" || s.stagedSet[p] {
			continue
		}
		s.staged = append(s.staged, p)
		s.stagedSet[p] = true
	}

	return len(s.staged), nil
}

// ClearStaged discards all staged images.
func (s *BatchService) ClearStaged(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == domain.BatchRunning {
		return domain.ErrBatchInProgress
	}

	s.staged = nil
	s.stagedSet = make(map[string]bool)
	return nil
}

// Run starts processing the staged images on a background worker and
// returns immediately. The id offset is captured here, before any
// append, so record ids stay contiguous with the store.
func (s *BatchService) Run(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == domain.BatchRunning {
		return domain.ErrBatchInProgress
	}
	if len(s.staged) == 0 {
		return domain.ErrNoImagesStaged
	}

	paths := s.staged
	s.staged = nil
	s.stagedSet = make(map[string]bool)

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancelRun = cancel
	s.state = domain.BatchRunning
	s.processed = 0
	s.total = len(paths)
	s.startedAt = time.Now()
	s.message = ""

	offset := s.records.Count()

	s.workerWG.Add(1)
	go s.worker(runCtx, paths, offset)

	s.logger.Info("batch run started", "images", len(paths), "offset", offset)
	return nil
}

// Cancel requests cooperative cancellation of the active run. The
// in-flight image finishes; the run stops at the next per-image
// boundary.
func (s *BatchService) Cancel(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.BatchRunning || s.cancelRun == nil {
		return domain.ErrBatchNotRunning
	}

	s.cancelRun()
	s.logger.Info("batch cancellation requested")
	return nil
}

// Status returns a point-in-time view of the orchestrator.
func (s *BatchService) Status(_ context.Context) domain.BatchStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	return domain.BatchStatus{
		State:     s.state,
		Processed: s.processed,
		Total:     s.total,
		Staged:    len(s.staged),
		StartedAt: s.startedAt,
		Message:   s.message,
	}
}

// Events returns the ordered event channel. Zero or more progress
// events precede exactly one terminal event per run; the channel is
// closed by Close.
func (s *BatchService) Events() <-chan domain.BatchEvent {
	return s.events
}

// Close stops the service. It waits for any active run to reach its
// terminal event before tearing down the dispatch loop, so cancel the
// run first for a prompt shutdown. Safe to call more than once.
func (s *BatchService) Close() {
	s.closeOnce.Do(func() {
		s.workerWG.Wait()
		close(s.internal)
		s.wg.Wait()
	})
}

// worker processes one batch strictly in path order. Images run one at
// a time; parallel inference would multiply peak model memory. The
// cancellation check sits at the top of the loop, so an in-flight
// image always completes.
func (s *BatchService) worker(ctx context.Context, paths []string, offset int) {
	defer s.workerWG.Done()

	built := make([]domain.ImageRecord, 0, len(paths))

	for i, path := range paths {
		if ctx.Err() != nil {
			s.internal <- domain.BatchEvent{
				Kind:      domain.BatchEventCancelled,
				Processed: len(built),
				Total:     len(paths),
				Message:   fmt.Sprintf("cancelled after %d of %d images", len(built), len(paths)),
				Records:   built,
			}
			return
		}

		// The run context only gates the loop boundary above. The image
		// itself runs on a detached context, so a cancel mid-inference
		// lets the in-flight image finish instead of failing the run.
		record, err := s.processImage(context.WithoutCancel(ctx), path, offset+i)
		if err != nil {
			// Model failure is fatal to the whole run: partial results
			// are discarded so the id offset never drifts.
			s.internal <- domain.BatchEvent{
				Kind:      domain.BatchEventFailed,
				Processed: len(built),
				Total:     len(paths),
				Message:   fmt.Sprintf("detection failed on %s", path),
				Err:       err,
			}
			return
		}

		built = append(built, *record)
		s.internal <- domain.BatchEvent{
			Kind:      domain.BatchEventProgress,
			Processed: len(built),
			Total:     len(paths),
			Message:   fmt.Sprintf("processed %d of %d images", len(built), len(paths)),
		}
	}

	s.internal <- domain.BatchEvent{
		Kind:      domain.BatchEventCompleted,
		Processed: len(built),
		Total:     len(paths),
		Message:   fmt.Sprintf("completed %d images", len(built)),
		Records:   built,
	}
}

// processImage runs one image through detection, geotag extraction,
// and attribution. Only detection errors propagate; the other stages
// degrade to sentinels.
func (s *BatchService) processImage(ctx context.Context, path string, id int) (*domain.ImageRecord, error) {
	inferStart := time.Now()
	detection, err := s.detector.Detect(ctx, path)
	if err != nil {
		s.metrics.IncImagesProcessed("failed")
		return nil, err
	}
	s.metrics.ObserveInferenceDuration(time.Since(inferStart))

	coord := s.geotag.Extract(path)
	subdistrict := s.attribution.Resolve(ctx, coord)

	if coord.IsNoGeotag() {
		s.metrics.IncImagesProcessed("no_geotag")
	} else {
		s.metrics.IncImagesProcessed("ok")
	}

	record := domain.NewImageRecord(id, path, coord, subdistrict, detection.Flags, detection.Overlay)
	return &record, nil
}

// dispatchLoop is the control context. It serializes terminal-event
// side effects: appending the finished batch, flipping the state
// machine, and forwarding events to observers.
func (s *BatchService) dispatchLoop() {
	defer s.wg.Done()
	defer close(s.events)

	for event := range s.internal {
		switch event.Kind {
		case domain.BatchEventProgress:
			s.mu.Lock()
			s.processed = event.Processed
			s.message = event.Message
			s.mu.Unlock()

		case domain.BatchEventCompleted, domain.BatchEventCancelled:
			// Append exactly once per run, before observers see the
			// terminal event.
			s.records.Append(event.Records)
			s.finishRun(event)
			s.metrics.IncBatchRuns(string(event.Kind))

		case domain.BatchEventFailed:
			s.logger.Error("batch run failed", "error", event.Err, "message", event.Message)
			s.finishRun(event)
			s.metrics.IncBatchRuns(string(event.Kind))
		}

		s.forward(event)
	}
}

// finishRun moves the state machine to the terminal state.
func (s *BatchService) finishRun(event domain.BatchEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch event.Kind {
	case domain.BatchEventCompleted:
		s.state = domain.BatchCompleted
	case domain.BatchEventCancelled:
		s.state = domain.BatchCancelled
	case domain.BatchEventFailed:
		s.state = domain.BatchFailed
	}
	s.processed = event.Processed
	s.message = event.Message
	if s.cancelRun != nil {
		s.cancelRun()
		s.cancelRun = nil
	}
}

// forward delivers an event to observers without ever blocking the
// dispatch loop. A full buffer drops the event; terminal side effects
// have already been applied by then.
func (s *BatchService) forward(event domain.BatchEvent) {
	select {
	case s.events <- event:
	default:
		s.logger.Warn("event buffer full, dropping event", "kind", event.Kind)
	}
}
