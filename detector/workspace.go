package detector

import (
	"github.com/nvr-ai/fiducial/features"
	"github.com/nvr-ai/fiducial/shapes"
)

// Workspace owns every per-pixel buffer a frame needs. Buffers are sized by Ensure and
// overwritten in place while the frame size stays the same.
type Workspace struct {
	width, height int

	canny     *features.Canny
	harris    *features.Harris
	extractor *shapes.Extractor
	selector  shapes.Selector
}

// NewWorkspace returns an empty workspace; nothing is allocated until Ensure.
func NewWorkspace() *Workspace {
	return &Workspace{
		canny:     features.NewCanny(),
		harris:    features.NewHarris(),
		extractor: shapes.NewExtractor(),
	}
}

// Ensure sizes the workspace for a width x height frame and reports whether any buffer
// was reallocated.
func (w *Workspace) Ensure(width, height int) bool {
	resized := w.canny.Ensure(width, height)
	resized = w.harris.Ensure(width, height) || resized
	resized = w.extractor.Ensure(width, height) || resized
	w.width, w.height = width, height
	return resized
}

// Size returns the dimensions the workspace is currently sized for.
func (w *Workspace) Size() (int, int) {
	return w.width, w.height
}
