package imagepkg

import (
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/disintegration/imaging"
)

const placeholderSize = 512

var placeholderOnce = sync.OnceValue(func() image.Image {
	img := imaging.New(placeholderSize, placeholderSize, color.NRGBA{R: 0x2a, G: 0x2a, B: 0x2a, A: 0xff})
	tile := image.NewUniform(color.NRGBA{R: 0x3a, G: 0x3a, B: 0x3a, A: 0xff})
	const step = 64
	for y := 0; y < placeholderSize; y += step {
		for x := 0; x < placeholderSize; x += step {
			if (x/step+y/step)%2 == 0 {
				draw.Draw(img, image.Rect(x, y, x+step, y+step), tile, image.Point{}, draw.Src)
			}
		}
	}
	return img
})

// Placeholder is the bitmap used for tokens with no image. Callers must not modify it.
func Placeholder() image.Image {
	return placeholderOnce()
}
