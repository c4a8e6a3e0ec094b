// Package profiler - runtime and per-stage timing statistics with periodic structured
// reports.
package profiler

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// MetricsCollector defines the interface for collecting custom metrics.
type MetricsCollector interface {
	CollectMetrics() map[string]float64
}

// RuntimeProfiler tracks operation timings, custom metrics, and memory usage, and logs a
// summary every report interval while running. All methods are safe for concurrent use.
type RuntimeProfiler struct {
	reportInterval time.Duration
	sampleInterval time.Duration
	maxSamples     int
	log            zerolog.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.RWMutex
	startTime time.Time
	running   bool

	memStats    runtime.MemStats
	lastGCCount uint32

	customMetrics  map[string]*MetricTracker
	collectors     []MetricsCollector
	operationTimes map[string]*TimeTracker
}

// MetricTracker keeps a bounded window of values for one custom metric.
type MetricTracker struct {
	values ring[float64]
	min    float64
	max    float64
	count  int64
}

// TimeTracker keeps a bounded window of durations for one operation.
type TimeTracker struct {
	durations ring[time.Duration]
	minTime   time.Duration
	maxTime   time.Duration
	count     int64
}

// ProfilingOptions configures the runtime profiler.
type ProfilingOptions struct {
	// ReportInterval specifies how often to emit status reports (default: 2s)
	ReportInterval time.Duration
	// SampleInterval specifies how often to poll collectors (default: 100ms)
	SampleInterval time.Duration
	// MaxSamples bounds the window kept per metric (default: 600)
	MaxSamples int
	// Logger receives the reports (default: disabled)
	Logger *zerolog.Logger
}

// OperationStats summarizes the timing window of one operation.
type OperationStats struct {
	Count int64         `json:"count"`
	Avg   time.Duration `json:"avg"`
	Min   time.Duration `json:"min"`
	Max   time.Duration `json:"max"`
}

// MetricStats summarizes the value window of one custom metric.
type MetricStats struct {
	Count int64   `json:"count"`
	Avg   float64 `json:"avg"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Last  float64 `json:"last"`
}

// Stats is a point-in-time snapshot of the profiler.
type Stats struct {
	Uptime     time.Duration             `json:"uptime"`
	Goroutines int                       `json:"goroutines"`
	HeapAlloc  uint64                    `json:"heap_alloc"`
	NumGC      uint32                    `json:"num_gc"`
	Operations map[string]OperationStats `json:"operations"`
	Metrics    map[string]MetricStats    `json:"metrics"`
}

// NewRuntimeProfiler creates a new runtime profiler with the specified options.
//
// Arguments:
// - opts: Configuration options for the profiler
//
// Returns:
// - A configured RuntimeProfiler instance
//
// @example
// log := zerolog.New(os.Stderr)
// p := NewRuntimeProfiler(ProfilingOptions{ReportInterval: 5 * time.Second, Logger: &log})
// p.Start()
// defer p.Stop()
func NewRuntimeProfiler(opts ProfilingOptions) *RuntimeProfiler {
	if opts.ReportInterval == 0 {
		opts.ReportInterval = 2 * time.Second
	}
	if opts.SampleInterval == 0 {
		opts.SampleInterval = 100 * time.Millisecond
	}
	if opts.MaxSamples == 0 {
		opts.MaxSamples = 600
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = opts.Logger.With().Str("component", "profiler").Logger()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &RuntimeProfiler{
		reportInterval: opts.ReportInterval,
		sampleInterval: opts.SampleInterval,
		maxSamples:     opts.MaxSamples,
		log:            log,
		ctx:            ctx,
		cancel:         cancel,
		startTime:      time.Now(),
		customMetrics:  make(map[string]*MetricTracker),
		operationTimes: make(map[string]*TimeTracker),
	}
}

// Start begins collector polling and periodic reporting. Calling it twice is a no-op.
func (rp *RuntimeProfiler) Start() {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	if rp.running {
		return
	}
	rp.running = true
	rp.startTime = time.Now()

	rp.wg.Add(2)
	go rp.loop(rp.sampleInterval, rp.sample)
	go rp.loop(rp.reportInterval, rp.emitStatusReport)
}

// Stop halts the background goroutines and waits for them to exit.
func (rp *RuntimeProfiler) Stop() {
	rp.mu.Lock()
	if !rp.running {
		rp.mu.Unlock()
		return
	}
	rp.running = false
	rp.mu.Unlock()

	rp.cancel()
	rp.wg.Wait()
}

// AddMetricsCollector registers a collector polled every sample interval.
func (rp *RuntimeProfiler) AddMetricsCollector(collector MetricsCollector) {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	rp.collectors = append(rp.collectors, collector)
}

// RecordMetric records a custom metric value.
func (rp *RuntimeProfiler) RecordMetric(name string, value float64) {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	rp.recordMetricLocked(name, value)
}

// StartOperation begins timing an operation and returns the function that stops it.
//
// @example
// done := p.StartOperation("decode")
// defer done()
func (rp *RuntimeProfiler) StartOperation(name string) func() {
	start := time.Now()
	return func() {
		rp.Record(name, time.Since(start))
	}
}

// Record adds one completed duration for the named operation.
func (rp *RuntimeProfiler) Record(name string, d time.Duration) {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	tracker, ok := rp.operationTimes[name]
	if !ok {
		tracker = &TimeTracker{durations: newRing[time.Duration](rp.maxSamples), minTime: d, maxTime: d}
		rp.operationTimes[name] = tracker
	}
	tracker.durations.push(d)
	tracker.count++
	tracker.minTime = min(tracker.minTime, d)
	tracker.maxTime = max(tracker.maxTime, d)
}

// Stats returns a snapshot of every tracked operation and metric.
func (rp *RuntimeProfiler) Stats() Stats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	rp.mu.RLock()
	defer rp.mu.RUnlock()

	s := Stats{
		Uptime:     time.Since(rp.startTime),
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  mem.HeapAlloc,
		NumGC:      mem.NumGC,
		Operations: make(map[string]OperationStats, len(rp.operationTimes)),
		Metrics:    make(map[string]MetricStats, len(rp.customMetrics)),
	}
	for name, t := range rp.operationTimes {
		s.Operations[name] = OperationStats{
			Count: t.count,
			Avg:   t.durations.sum() / time.Duration(max(t.durations.size(), 1)),
			Min:   t.minTime,
			Max:   t.maxTime,
		}
	}
	for name, m := range rp.customMetrics {
		s.Metrics[name] = MetricStats{
			Count: m.count,
			Avg:   m.values.sum() / float64(max(m.values.size(), 1)),
			Min:   m.min,
			Max:   m.max,
			Last:  m.values.last(),
		}
	}
	return s
}

func (rp *RuntimeProfiler) recordMetricLocked(name string, value float64) {
	tracker, ok := rp.customMetrics[name]
	if !ok {
		tracker = &MetricTracker{values: newRing[float64](rp.maxSamples), min: value, max: value}
		rp.customMetrics[name] = tracker
	}
	tracker.values.push(value)
	tracker.count++
	tracker.min = min(tracker.min, value)
	tracker.max = max(tracker.max, value)
}

func (rp *RuntimeProfiler) loop(interval time.Duration, fn func()) {
	defer rp.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-rp.ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

// sample polls the registered collectors.
func (rp *RuntimeProfiler) sample() {
	rp.mu.RLock()
	collectors := append([]MetricsCollector(nil), rp.collectors...)
	rp.mu.RUnlock()

	for _, c := range collectors {
		metrics := c.CollectMetrics()
		rp.mu.Lock()
		for name, value := range metrics {
			rp.recordMetricLocked(name, value)
		}
		rp.mu.Unlock()
	}
}

// emitStatusReport logs one event with memory usage and one per tracked series.
func (rp *RuntimeProfiler) emitStatusReport() {
	s := rp.Stats()

	rp.mu.Lock()
	newGC := s.NumGC - rp.lastGCCount
	rp.lastGCCount = s.NumGC
	rp.mu.Unlock()

	rp.log.Info().
		Dur("uptime", s.Uptime.Truncate(time.Millisecond)).
		Int("goroutines", s.Goroutines).
		Uint64("heap_alloc", s.HeapAlloc).
		Uint32("gc_new", newGC).
		Msg("runtime status")

	for _, name := range sortedKeys(s.Operations) {
		op := s.Operations[name]
		rp.log.Info().
			Str("operation", name).
			Int64("count", op.Count).
			Dur("avg", op.Avg).
			Dur("min", op.Min).
			Dur("max", op.Max).
			Msg("operation timing")
	}
	for _, name := range sortedKeys(s.Metrics) {
		m := s.Metrics[name]
		rp.log.Info().
			Str("metric", name).
			Float64("avg", m.Avg).
			Float64("min", m.Min).
			Float64("max", m.Max).
			Float64("last", m.Last).
			Msg("metric")
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
