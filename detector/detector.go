// Package detector - finds square fiducial tags in grayscale frames and reports their
// identifiers, tilt, and camera-space position.
//
// A frame runs through five stages: Canny edges and Harris corners (concurrently),
// connected edge components with their corners, geometric quad filtering, and finally
// per-quad decoding and pose estimation.
package detector

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/nvr-ai/fiducial/decode"
	"github.com/nvr-ai/fiducial/images"
	"github.com/nvr-ai/fiducial/images/kernels"
	"github.com/nvr-ai/fiducial/pose"
	"github.com/nvr-ai/fiducial/profiler"
)

// DefaultWorkers bounds the goroutines a frame fans out to.
const DefaultWorkers = 4

// Detector owns a workspace and runs frames through it one at a time. Concurrent
// Detect calls on the same Detector are serialized; use one Detector per stream to
// process frames in parallel.
type Detector struct {
	frameMu sync.Mutex
	ws      *Workspace

	configMu sync.RWMutex
	config   Config

	filter   kernels.Filter
	workers  int
	log      zerolog.Logger
	profiler *profiler.RuntimeProfiler

	frames     atomic.Int64
	resizes    atomic.Int64
	lastTags   atomic.Int64
	lastQuads  atomic.Int64
	lastShapes atomic.Int64
	lastFrame  atomic.Int64
}

// Option configures a Detector.
type Option func(*Detector)

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(d *Detector) {
		d.log = log.With().Str("component", "detector").Logger()
	}
}

// WithFilter selects the blur/Sobel strategy. The default is kernels.Spatial.
func WithFilter(f kernels.Filter) Option {
	return func(d *Detector) {
		if f != nil {
			d.filter = f
		}
	}
}

// WithWorkers bounds how many stage tasks a frame runs at once. One runs every stage
// sequentially; three or more also blurs the Harris tensor products in parallel.
func WithWorkers(n int) Option {
	return func(d *Detector) {
		d.workers = max(n, 1)
	}
}

// WithProfiler records per-stage durations into p.
func WithProfiler(p *profiler.RuntimeProfiler) Option {
	return func(d *Detector) {
		d.profiler = p
	}
}

// New creates a detector after validating config.
//
// Arguments:
// - config: Frame thresholds, usually DefaultConfig() with adjustments.
// - opts: Optional collaborators.
//
// Returns:
// - The detector, with no buffers allocated until the first frame.
// - An error wrapping ErrInvalidConfig when config is out of range.
//
// @example
// d, err := New(DefaultConfig(), WithLogger(log))
// if err != nil {
//     return err
// }
// tags, err := d.Detect(frame)
func New(config Config, opts ...Option) (*Detector, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	d := &Detector{
		ws:      NewWorkspace(),
		config:  config,
		filter:  kernels.Spatial{},
		workers: DefaultWorkers,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.ws.harris.Concurrent = d.workers > 2
	return d, nil
}

// Config returns the current configuration.
func (d *Detector) Config() Config {
	d.configMu.RLock()
	defer d.configMu.RUnlock()
	return d.config
}

// SetConfig validates and installs config. Frames already running keep the
// configuration they started with.
func (d *Detector) SetConfig(config Config) error {
	if err := config.Validate(); err != nil {
		return err
	}
	d.configMu.Lock()
	d.config = config
	d.configMu.Unlock()
	d.log.Info().Interface("config", config).Msg("config updated")
	return nil
}

// Detect finds tags in img. Tags come back in the order their edge components were
// completed during the raster scan, top to bottom; sort them if a spatial order matters.
//
// Arguments:
// - img: A normalized grayscale frame.
//
// Returns:
// - The detected tags, possibly empty. Undecodable quads are returned with Decoded false.
// - An error wrapping images.ErrInvalidImage for malformed input.
func (d *Detector) Detect(img images.Intensity) ([]Tag, error) {
	if err := img.Validate(); err != nil {
		return nil, errors.Wrap(err, "input validation failed")
	}

	d.frameMu.Lock()
	defer d.frameMu.Unlock()

	cfg := d.Config()
	start := time.Now()

	if d.ws.Ensure(img.Width, img.Height) {
		d.resizes.Add(1)
		d.log.Info().Int("width", img.Width).Int("height", img.Height).Msg("workspace resized")
	}

	var g errgroup.Group
	g.SetLimit(d.workers)
	g.Go(func() error {
		t := time.Now()
		d.ws.canny.Run(d.filter, img, cfg.HysteresisLow, cfg.HysteresisHigh)
		d.record("canny", t)
		return nil
	})
	g.Go(func() error {
		t := time.Now()
		d.ws.harris.Run(d.filter, img, cfg.HarrisK, cfg.HarrisThreshold)
		d.record("harris", t)
		return nil
	})
	// Both masks must be complete before components are traced.
	_ = g.Wait()

	t := time.Now()
	found := d.ws.extractor.Extract(d.ws.canny.Edges(), d.ws.harris.Corners())
	d.record("shapes", t)

	t = time.Now()
	quads := d.ws.selector.Select(found, cfg.filters())
	d.record("candidates", t)

	t = time.Now()
	cam := pose.Camera{Width: img.Width, Height: img.Height, FOV: cfg.FOV}
	tags := make([]Tag, 0, len(quads))
	for _, q := range quads {
		res, err := decode.Decode(img, q)
		if err != nil {
			d.log.Debug().Err(err).Stringer("top_left", q.TopLeft).Msg("candidate dropped")
			continue
		}
		pos, ok := cam.Position(q)
		if !ok {
			d.log.Debug().Stringer("top_left", q.TopLeft).Msg("candidate dropped: zero-length side")
			continue
		}
		tags = append(tags, Tag{
			ID:       res.ID,
			Decoded:  res.OK,
			Rotation: pose.Rotation(q),
			Position: pos,
			Corners:  q,
		})
	}
	d.record("decode", t)

	elapsed := time.Since(start)
	d.frames.Add(1)
	d.lastShapes.Store(int64(len(found)))
	d.lastQuads.Store(int64(len(quads)))
	d.lastTags.Store(int64(len(tags)))
	d.lastFrame.Store(int64(elapsed))

	d.log.Debug().
		Int("width", img.Width).
		Int("height", img.Height).
		Int("shapes", len(found)).
		Int("candidates", len(quads)).
		Int("tags", len(tags)).
		Dur("elapsed", elapsed).
		Msg("frame processed")

	return tags, nil
}

// Masks returns the edge and corner masks of the most recent frame. They are owned by the
// detector and overwritten by the next Detect, so read them from the goroutine that
// calls Detect.
func (d *Detector) Masks() (edges, corners images.Mask) {
	return d.ws.canny.Edges(), d.ws.harris.Corners()
}

// CollectMetrics implements profiler.MetricsCollector.
func (d *Detector) CollectMetrics() map[string]float64 {
	return map[string]float64{
		"detector_frames":           float64(d.frames.Load()),
		"detector_workspace_resize": float64(d.resizes.Load()),
		"detector_shapes":           float64(d.lastShapes.Load()),
		"detector_candidates":       float64(d.lastQuads.Load()),
		"detector_tags":             float64(d.lastTags.Load()),
		"detector_frame_ms":         float64(d.lastFrame.Load()) / float64(time.Millisecond),
	}
}

func (d *Detector) record(stage string, start time.Time) {
	if d.profiler != nil {
		d.profiler.Record(stage, time.Since(start))
	}
}
