package output

import "time"

// MetricsCollector defines the secondary port for metrics collection.
type MetricsCollector interface {
	// IncImagesProcessed increments the processed-image counter.
	IncImagesProcessed(outcome string)

	// ObserveInferenceDuration records one model invocation's duration.
	ObserveInferenceDuration(duration time.Duration)

	// IncLookupCount increments the spatial lookup counter.
	IncLookupCount(outcome string)

	// ObserveLookupDuration records lookup duration.
	ObserveLookupDuration(duration time.Duration)

	// IncBatchRuns increments the batch run counter by terminal outcome.
	IncBatchRuns(outcome string)

	// SetRecordCount sets the current record set size.
	SetRecordCount(count int)

	// SetDatasetReady reports whether the boundary index is queryable.
	SetDatasetReady(ready bool)

	// IncStorageOperations increments storage operation counter.
	IncStorageOperations(operation string, success bool)

	// ObserveStorageDuration records storage operation duration.
	ObserveStorageDuration(operation string, duration time.Duration)
}

// NoOpMetrics is a no-op implementation of MetricsCollector.
type NoOpMetrics struct{}

// IncImagesProcessed implements MetricsCollector.
func (n *NoOpMetrics) IncImagesProcessed(_ string) {}

// ObserveInferenceDuration implements MetricsCollector.
func (n *NoOpMetrics) ObserveInferenceDuration(_ time.Duration) {}

// IncLookupCount implements MetricsCollector.
func (n *NoOpMetrics) IncLookupCount(_ string) {}

// ObserveLookupDuration implements MetricsCollector.
func (n *NoOpMetrics) ObserveLookupDuration(_ time.Duration) {}

// IncBatchRuns implements MetricsCollector.
func (n *NoOpMetrics) IncBatchRuns(_ string) {}

// SetRecordCount implements MetricsCollector.
func (n *NoOpMetrics) SetRecordCount(_ int) {}

// SetDatasetReady implements MetricsCollector.
func (n *NoOpMetrics) SetDatasetReady(_ bool) {}

// IncStorageOperations implements MetricsCollector.
func (n *NoOpMetrics) IncStorageOperations(_ string, _ bool) {}

// ObserveStorageDuration implements MetricsCollector.
func (n *NoOpMetrics) ObserveStorageDuration(_ string, _ time.Duration) {}
