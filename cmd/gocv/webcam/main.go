// Command webcam runs the tag detector on a live camera feed and draws every detection.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/fiducial/detector"
	"github.com/nvr-ai/fiducial/images"
	"github.com/nvr-ai/fiducial/profiler"
)

var (
	green = color.RGBA{0, 255, 0, 0}
	red   = color.RGBA{0, 0, 255, 0}
	white = color.RGBA{255, 255, 255, 0}
)

func main() {
	var (
		deviceID   int
		maxSide    int
		configPath string
		debug      bool
	)
	flag.IntVar(&deviceID, "device", 0, "Video capture device ID")
	flag.IntVar(&maxSide, "max-side", 400, "Longest side of the frame handed to the detector")
	flag.StringVar(&configPath, "config", "", "Path to a JSON detector config (optional)")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.Parse()

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	cfg := detector.DefaultConfig()
	cfg.FilterEnclosed = true
	if configPath != "" {
		var err error
		if cfg, err = detector.LoadConfig(configPath); err != nil {
			log.Fatal().Err(err).Msg("load config")
		}
	}

	prof := profiler.NewRuntimeProfiler(profiler.ProfilingOptions{ReportInterval: 5 * time.Second, Logger: &log})
	d, err := detector.New(cfg, detector.WithLogger(log), detector.WithProfiler(prof))
	if err != nil {
		log.Fatal().Err(err).Msg("create detector")
	}
	prof.AddMetricsCollector(d)
	prof.Start()
	defer prof.Stop()

	webcam, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		log.Fatal().Err(err).Int("device", deviceID).Msg("open capture device")
	}
	defer webcam.Close()

	window := gocv.NewWindow("Tags")
	defer window.Close()

	img := gocv.NewMat()
	defer img.Close()
	gray := gocv.NewMat()
	defer gray.Close()
	small := gocv.NewMat()
	defer small.Close()

	fps := 0.0
	frameCount := 0
	lastTime := time.Now()

	log.Info().Int("device", deviceID).Msg("reading camera")
	for {
		if ok := webcam.Read(&img); !ok {
			log.Error().Int("device", deviceID).Msg("cannot read device")
			return
		}
		if img.Empty() {
			continue
		}

		frameCount++
		if elapsed := time.Since(lastTime).Seconds(); elapsed >= 1.0 {
			fps = float64(frameCount) / elapsed
			frameCount = 0
			lastTime = time.Now()
		}

		gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
		scale := fitScale(gray.Cols(), gray.Rows(), maxSide)
		size := image.Pt(int(float64(gray.Cols())*scale), int(float64(gray.Rows())*scale))
		gocv.Resize(gray, &small, size, 0, 0, gocv.InterpolationLinear)

		frame, err := toIntensity(small)
		if err != nil {
			log.Error().Err(err).Msg("convert frame")
			continue
		}
		tags, err := d.Detect(frame)
		if err != nil {
			log.Error().Err(err).Msg("detect")
			continue
		}

		for _, tag := range tags {
			c := tag.Corners.Cycle()
			col := red
			label := "?"
			if id, ok := tag.Identifier(); ok {
				col = green
				label = fmt.Sprintf("#%d %.0fdeg z=%.2fm", id, tag.Rotation*180/3.14159265, tag.Position.Z)
			}
			for i := range c {
				a, b := c[i], c[(i+1)%len(c)]
				gocv.Line(&img, unscale(a.X, a.Y, scale), unscale(b.X, b.Y, scale), col, 2)
			}
			gocv.PutText(&img, label, unscale(tag.Corners.TopLeft.X, tag.Corners.TopLeft.Y, scale),
				gocv.FontHersheyPlain, 1.2, col, 2)
		}
		gocv.PutText(&img, fmt.Sprintf("FPS: %.1f | Tags: %d", fps, len(tags)), image.Pt(10, 30),
			gocv.FontHersheyPlain, 1.2, white, 2)

		window.IMShow(img)
		if window.WaitKey(1) == 27 {
			return
		}
	}
}

// fitScale returns the factor that brings the longer side down to maxSide, or 1 when
// the frame already fits.
func fitScale(width, height, maxSide int) float64 {
	longest := max(width, height)
	if maxSide <= 0 || longest <= maxSide {
		return 1
	}
	return float64(maxSide) / float64(longest)
}

func unscale(x, y uint32, scale float64) image.Point {
	return image.Pt(int(float64(x)/scale), int(float64(y)/scale))
}

// toIntensity copies a single-channel 8-bit Mat into a normalized intensity image.
func toIntensity(gray gocv.Mat) (images.Intensity, error) {
	if gray.Type() != gocv.MatTypeCV8UC1 {
		return images.Intensity{}, errors.Errorf("expected 8-bit single channel frame, got %v", gray.Type())
	}
	out := images.NewIntensity(gray.Cols(), gray.Rows())
	data := gray.ToBytes()
	if len(data) < len(out.Pix) {
		return images.Intensity{}, errors.Errorf("frame holds %d bytes, want %d", len(data), len(out.Pix))
	}
	for i := range out.Pix {
		out.Pix[i] = float32(data[i]) / 255
	}
	return out, nil
}
