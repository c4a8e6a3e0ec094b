// Package util - helpers for feeding recorded frames to the detector.
package util

import (
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/nvr-ai/fiducial/images"
)

// ImageFile is one frame on disk.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Frame is the number parsed from the file name, or -1 when it has none.
	Frame int
}

// Load decodes the file into an intensity image no larger than maxSide.
func (f ImageFile) Load(maxSide int) (images.Intensity, error) {
	r, err := os.Open(f.Path)
	if err != nil {
		return images.Intensity{}, errors.Wrap(err, "open frame")
	}
	defer r.Close()

	img, err := images.Decode(r, maxSide)
	if err != nil {
		return images.Intensity{}, errors.Wrapf(err, "frame %s", f.Path)
	}
	return img, nil
}

// LoadDirectoryImageFiles lists the decodable images in a directory in frame order.
// Names like "frame-12.png" or "0012.jpg" are ordered numerically; files without a
// number come last, by name.
//
// Arguments:
// - dir: Directory path containing image files.
//
// Returns:
// - []ImageFile: The frames, ordered.
// - error: Error if the directory cannot be read.
//
// @example
// frames, err := LoadDirectoryImageFiles("captures/run-3")
func LoadDirectoryImageFiles(dir string) ([]ImageFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "read frame directory")
	}

	var files []ImageFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		switch ext {
		case ".jpg", ".jpeg", ".png", ".gif":
			files = append(files, ImageFile{
				Path:  filepath.Join(dir, name),
				Frame: frameNumber(strings.TrimSuffix(name, filepath.Ext(name))),
			})
		}
	}

	slices.SortStableFunc(files, func(a, b ImageFile) int {
		switch {
		case a.Frame == b.Frame:
			return strings.Compare(a.Path, b.Path)
		case a.Frame < 0:
			return 1
		case b.Frame < 0:
			return -1
		}
		return a.Frame - b.Frame
	})
	return files, nil
}

// frameNumber parses the trailing run of digits in stem.
func frameNumber(stem string) int {
	end := len(stem)
	start := end
	for start > 0 && stem[start-1] >= '0' && stem[start-1] <= '9' {
		start--
	}
	if start == end {
		return -1
	}
	n, err := strconv.Atoi(stem[start:end])
	if err != nil {
		return -1
	}
	return n
}
