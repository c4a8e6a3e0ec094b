// Command tagscan detects fiducial tags in still images and prints them as JSON.
//
// With -image it prints the tags of one file. With -dir it walks the directory's frames
// in order and prints one JSON object per frame.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/nvr-ai/fiducial/detector"
	"github.com/nvr-ai/fiducial/images/kernels"
	"github.com/nvr-ai/fiducial/util"
)

func main() {
	var (
		imagePath  string
		dirPath    string
		configPath string
		maxSide    int
		workers    int
		debug      bool
		spectral   bool
	)
	flag.StringVar(&imagePath, "image", "", "Path to a PNG, JPEG or GIF image")
	flag.StringVar(&dirPath, "dir", "", "Directory of numbered frames to scan in order")
	flag.StringVar(&configPath, "config", "", "Path to a JSON detector config (optional)")
	flag.IntVar(&maxSide, "max-side", 400, "Downscale so neither side exceeds this many pixels (0 keeps the original size)")
	flag.IntVar(&workers, "workers", detector.DefaultWorkers, "Concurrent stage limit per frame")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.BoolVar(&spectral, "spectral", false, "Filter with FFT convolution instead of direct convolution")
	flag.Parse()

	if (imagePath == "") == (dirPath == "") {
		fmt.Fprintf(os.Stderr, "Error: exactly one of -image or -dir is required\n\n")
		flag.PrintDefaults()
		os.Exit(2)
	}

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).
		With().
		Timestamp().
		Logger()

	cfg := detector.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = detector.LoadConfig(configPath); err != nil {
			log.Fatal().Err(err).Msg("load config")
		}
	}

	opts := []detector.Option{detector.WithLogger(log), detector.WithWorkers(workers)}
	if spectral {
		opts = append(opts, detector.WithFilter(kernels.NewSpectral()))
	}
	d, err := detector.New(cfg, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("create detector")
	}

	if dirPath != "" {
		if err := scanDirectory(d, dirPath, maxSide, log); err != nil {
			log.Fatal().Err(err).Msg("scan directory")
		}
		return
	}

	frame, err := util.ImageFile{Path: imagePath}.Load(maxSide)
	if err != nil {
		log.Fatal().Err(err).Msg("read image")
	}
	log.Debug().Int("width", frame.Width).Int("height", frame.Height).Msg("image loaded")

	start := time.Now()
	tags, err := d.Detect(frame)
	if err != nil {
		log.Fatal().Err(err).Msg("detect")
	}
	log.Info().Int("tags", len(tags)).Dur("elapsed", time.Since(start)).Msg("detection complete")

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tags); err != nil {
		log.Fatal().Err(err).Msg("encode result")
	}
}

type frameResult struct {
	Frame int            `json:"frame"`
	Path  string         `json:"path"`
	Tags  []detector.Tag `json:"tags"`
}

// scanDirectory detects tags in every frame of dir, writing one JSON line per frame.
// Unreadable frames are logged and skipped.
func scanDirectory(d *detector.Detector, dir string, maxSide int, log zerolog.Logger) error {
	files, err := util.LoadDirectoryImageFiles(dir)
	if err != nil {
		return err
	}
	log.Info().Int("frames", len(files)).Str("dir", dir).Msg("scanning")

	enc := json.NewEncoder(os.Stdout)
	start := time.Now()
	for _, f := range files {
		frame, err := f.Load(maxSide)
		if err != nil {
			log.Warn().Err(err).Msg("skipping frame")
			continue
		}
		tags, err := d.Detect(frame)
		if err != nil {
			log.Warn().Err(err).Str("path", f.Path).Msg("skipping frame")
			continue
		}
		if err := enc.Encode(frameResult{Frame: f.Frame, Path: f.Path, Tags: tags}); err != nil {
			return errors.Wrap(err, "encode result")
		}
	}
	log.Info().Int("frames", len(files)).Dur("elapsed", time.Since(start)).Msg("scan complete")
	return nil
}
