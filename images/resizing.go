package images

import (
	"image"
	// Register the decoders accepted by Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

// Fit downscales img so that neither side exceeds maxSide, preserving the aspect ratio.
// Images that already fit, and a non-positive maxSide, return img unchanged.
//
// Arguments:
// - img: The source image.
// - maxSide: The largest allowed width or height in pixels.
//
// Returns:
// - The resized image, or img itself when no resize is needed.
//
// @example
// small := Fit(frame, 400)
func Fit(img image.Image, maxSide int) image.Image {
	if maxSide <= 0 {
		return img
	}
	return resize.Thumbnail(uint(maxSide), uint(maxSide), img, resize.Bilinear)
}

// Decode reads an encoded image (PNG, JPEG or GIF), fits it within maxSide and converts
// it to an Intensity.
//
// Arguments:
// - r: The encoded image stream.
// - maxSide: The largest allowed width or height, or 0 to keep the original size.
//
// Returns:
// - The decoded intensity image.
// - An error if the stream cannot be decoded or the result is empty.
//
// @example
// f, _ := os.Open("tag.jpg")
// defer f.Close()
// gray, err := Decode(f, 400)
func Decode(r io.Reader, maxSide int) (Intensity, error) {
	src, format, err := image.Decode(r)
	if err != nil {
		return Intensity{}, errors.Wrap(err, "decode image")
	}
	out := FromImage(Fit(src, maxSide))
	if err := out.Validate(); err != nil {
		return Intensity{}, errors.Wrapf(err, "decoded %s image", format)
	}
	return out, nil
}
