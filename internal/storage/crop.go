package storage

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	// Decoders for uploaded avatars.
	_ "image/gif"
	_ "image/jpeg"
)

// Decoded size limits for avatars. The upload size cap does not bound the
// decoded size of a compressed image.
const maxAvatarSide = 8192

var MaxAvatarPixels = 4096 * 4096

// ErrImageTooLarge is returned for images whose decoded size exceeds the
// avatar limits.
var ErrImageTooLarge = errors.New("image dimensions are too large")

// DefaultCropRect is the centered square covering 60% of the smaller side.
func DefaultCropRect(bounds image.Rectangle) image.Rectangle {
	side := bounds.Dx()
	if bounds.Dy() < side {
		side = bounds.Dy()
	}
	side = side * 60 / 100
	if side < 1 {
		side = 1
	}
	x0 := bounds.Min.X + (bounds.Dx()-side)/2
	y0 := bounds.Min.Y + (bounds.Dy()-side)/2
	return image.Rect(x0, y0, x0+side, y0+side)
}

// CropCircle copies rect out of src and clears every pixel outside the
// inscribed circle.
func CropCircle(src image.Image, rect image.Rectangle) *image.NRGBA {
	rect = rect.Intersect(src.Bounds())
	w, h := rect.Dx(), rect.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), src, rect.Min, draw.Src)

	// Compare squared distances in doubled coordinates to stay in integers.
	d := w
	if h < d {
		d = h
	}
	cx, cy, r2 := w, h, d*d
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := 2*x+1-cx, 2*y+1-cy
			if dx*dx+dy*dy > r2 {
				dst.SetNRGBA(x, y, color.NRGBA{})
			}
		}
	}
	return dst
}

// CropAvatar decodes data, applies the circular crop to rect (or the
// default rect when rect is empty) and encodes the result as PNG.
func CropAvatar(data []byte, rect image.Rectangle) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if cfg.Width > maxAvatarSide || cfg.Height > maxAvatarSide || cfg.Width*cfg.Height > MaxAvatarPixels {
		return nil, ErrImageTooLarge
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if rect.Empty() {
		rect = DefaultCropRect(src.Bounds())
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, CropCircle(src, rect)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
