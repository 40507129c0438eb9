package imagepkg

import (
	"fmt"
	"image/color"

	"github.com/mazznoer/csscolorparser"
)

// ParseColor parses any CSS color value ("#000", "#1a1a1aff", "rgba(0,0,0,.5)", "navy").
// An empty string is opaque black.
func ParseColor(s string) (color.NRGBA, error) {
	if s == "" {
		return color.NRGBA{A: 0xff}, nil
	}
	c, err := csscolorparser.Parse(s)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: background %q: %v", ErrInvalidOptions, s, err)
	}
	r, g, b, a := c.RGBA255()
	return color.NRGBA{R: r, G: g, B: b, A: a}, nil
}
