package detector

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"github.com/nvr-ai/fiducial/shapes"
)

// ErrInvalidConfig is returned for thresholds or a field of view outside their domains.
var ErrInvalidConfig = errors.New("invalid config")

// maxConfigSize caps the size of configuration files read by LoadConfig.
const maxConfigSize = 1 << 20

// Config holds the thresholds read by every stage of a frame.
type Config struct {
	// FOV is the camera's vertical field of view in radians.
	FOV float32 `json:"fov"`
	// HarrisK is the Harris sensitivity constant.
	HarrisK float32 `json:"harris_k"`
	// HarrisThreshold is the corner acceptance threshold relative to the frame's peak response.
	HarrisThreshold float32 `json:"harris_thresh"`
	// HysteresisLow is the weak edge threshold relative to the frame's peak gradient.
	HysteresisLow float32 `json:"hyst_low"`
	// HysteresisHigh is the strong edge threshold relative to the frame's peak gradient.
	HysteresisHigh float32 `json:"hyst_high"`
	// FilterRatios rejects quads with unequal opposite sides or an extreme aspect ratio.
	FilterRatios bool `json:"filter_ratios"`
	// FilterAngles rejects quads with a corner more than 30 degrees off square.
	FilterAngles bool `json:"filter_angles"`
	// FilterEnclosed rejects quads lying strictly inside another quad's bounding box.
	FilterEnclosed bool `json:"filter_enclosed"`
}

// DefaultConfig returns the stock thresholds: a 75 degree field of view, Harris k 0.01
// with a 5% threshold, hysteresis at 1.25% and 5% of the peak gradient, and the ratio
// and angle filters on. The enclosure filter is off; enable it when the inner data
// pattern of a tag would otherwise surface as a second candidate.
func DefaultConfig() Config {
	return Config{
		FOV:             75 * math32.Pi / 180,
		HarrisK:         0.01,
		HarrisThreshold: 0.05,
		HysteresisLow:   0.0125,
		HysteresisHigh:  0.05,
		FilterRatios:    true,
		FilterAngles:    true,
		FilterEnclosed:  false,
	}
}

// Validate reports the first field outside its domain, wrapping ErrInvalidConfig.
func (c Config) Validate() error {
	// Comparisons are written so that NaN fails them.
	switch {
	case !(c.FOV > 0 && c.FOV < math32.Pi):
		return errors.Wrapf(ErrInvalidConfig, "fov %v must be in (0, pi)", c.FOV)
	case !(c.HarrisK >= 0 && c.HarrisK < math32.Inf(1)):
		return errors.Wrapf(ErrInvalidConfig, "harris_k %v must be finite and non-negative", c.HarrisK)
	case !(c.HarrisThreshold >= 0 && c.HarrisThreshold <= 1):
		return errors.Wrapf(ErrInvalidConfig, "harris_thresh %v must be in [0, 1]", c.HarrisThreshold)
	case !(c.HysteresisLow >= 0 && c.HysteresisHigh <= 1 && c.HysteresisLow <= c.HysteresisHigh):
		return errors.Wrapf(ErrInvalidConfig, "hysteresis %v..%v must satisfy 0 <= low <= high <= 1",
			c.HysteresisLow, c.HysteresisHigh)
	}
	return nil
}

func (c Config) filters() shapes.Filters {
	return shapes.Filters{Ratio: c.FilterRatios, Angle: c.FilterAngles, Enclosure: c.FilterEnclosed}
}

// LoadConfig reads a JSON config file. Fields omitted from the file keep their
// DefaultConfig values, so partial files are safe.
//
// Arguments:
// - path: Path to a .json file no larger than 1 MiB.
//
// Returns:
// - The validated configuration.
// - An error if the file cannot be read, parsed, or fails validation.
//
// @example
// cfg, err := LoadConfig("config/detector.json")
// if err != nil {
//     log.Fatal().Err(err).Msg("load config")
// }
func LoadConfig(path string) (Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return Config{}, errors.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return Config{}, errors.Wrap(err, "stat config file")
	}
	if info.Size() > maxConfigSize {
		return Config{}, errors.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config file")
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parse config file %s", cleanPath)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Wrapf(err, "config file %s", cleanPath)
	}
	return cfg, nil
}
