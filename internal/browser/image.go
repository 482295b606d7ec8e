package browser

import (
	"bytes"
	"image"
	"image/png"

	"golang.org/x/image/draw"
)

// scalePNG downsamples a PNG capture by scale (0 < scale <= 1). Scale 0 or 1
// returns the original bytes with their decoded dimensions.
func scalePNG(data []byte, scale float64) ([]byte, int, int, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, err
	}
	bounds := img.Bounds()

	if scale <= 0 || scale >= 1 {
		return data, bounds.Dx(), bounds.Dy(), nil
	}

	w := int(float64(bounds.Dx()) * scale)
	h := int(float64(bounds.Dy()) * scale)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, 0, 0, err
	}
	return buf.Bytes(), w, h, nil
}
