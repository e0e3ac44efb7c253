package game

import (
	"image/color"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// HSVToRGBA converts a hue/saturation/value triple, each in [0, 1], to an opaque colour.
func HSVToRGBA(h, s, v float32) color.RGBA {
	h = math32.Mod(h, 1)
	if h < 0 {
		h++
	}
	sector := h * 6
	i := math32.Floor(sector)
	f := sector - i

	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))

	var r, g, b float32
	switch int(i) % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}
	return color.RGBA{R: toByte(r), G: toByte(g), B: toByte(b), A: 0xff}
}

func toByte(f float32) uint8 {
	return uint8(mgl32.Clamp(f, 0, 1)*255 + 0.5)
}
