package detector

import (
	"encoding/json"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/nvr-ai/fiducial/common"
)

// Tag is one detected fiducial.
type Tag struct {
	// ID is the codebook index; meaningful only when Decoded is true.
	ID int
	// Decoded is false when the quad's bits matched no codeword.
	Decoded bool
	// Rotation is the tilt about the vertical axis in radians, positive when the left
	// side appears taller than the right.
	Rotation float32
	// Position is the estimated camera-space position in meters: X right, Y up, Z forward.
	Position r3.Vec
	// Corners is the quad the tag was read from.
	Corners common.Corners
}

// Identifier returns the decoded identifier, if any.
func (t Tag) Identifier() (int, bool) {
	return t.ID, t.Decoded
}

type tagJSON struct {
	ID       *int           `json:"id"`
	Rotation float32        `json:"rotation"`
	Position [3]float64     `json:"position"`
	Corners  common.Corners `json:"corners"`
}

// MarshalJSON encodes an undecoded tag with a null id.
func (t Tag) MarshalJSON() ([]byte, error) {
	out := tagJSON{
		Rotation: t.Rotation,
		Position: [3]float64{t.Position.X, t.Position.Y, t.Position.Z},
		Corners:  t.Corners,
	}
	if t.Decoded {
		id := t.ID
		out.ID = &id
	}
	return json.Marshal(out)
}
