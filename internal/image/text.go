package imagepkg

import (
	"image"
	"image/color"
	"image/draw"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

type fontSet struct {
	regular *opentype.Font
	bold    *opentype.Font
}

// Parsed fonts are shared; faces are not, since a face caches glyphs.
var loadFonts = sync.OnceValues(func() (*fontSet, error) {
	reg, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, err
	}
	return &fontSet{regular: reg, bold: bold}, nil
})

type faceKey struct {
	bold bool
	size float64
}

// faceCache owns the faces of one renderer. Not safe for concurrent use.
type faceCache struct {
	set   *fontSet
	faces map[faceKey]font.Face
}

func newFaceCache() (*faceCache, error) {
	set, err := loadFonts()
	if err != nil {
		return nil, err
	}
	return &faceCache{set: set, faces: map[faceKey]font.Face{}}, nil
}

func (c *faceCache) face(bold bool, size float64) font.Face {
	k := faceKey{bold, size}
	if f, ok := c.faces[k]; ok {
		return f
	}
	src := c.set.regular
	if bold {
		src = c.set.bold
	}
	f, err := opentype.NewFace(src, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return basicfont.Face7x13
	}
	c.faces[k] = f
	return f
}

func (c *faceCache) Close() error {
	var first error
	for k, f := range c.faces {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
		delete(c.faces, k)
	}
	return first
}

type textAlign int

const (
	alignLeft textAlign = iota
	alignRight
)

// drawText writes s with its baseline at y. For alignRight, x is the right edge.
// Text wider than maxWidth is cut and ends in an ellipsis.
func drawText(dst draw.Image, face font.Face, col color.Color, s string, x, y int, align textAlign, maxWidth int) {
	s = fitText(face, s, maxWidth)
	if s == "" {
		return
	}
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(col), Face: face}
	if align == alignRight {
		x -= d.MeasureString(s).Ceil()
	}
	d.Dot = fixed.P(x, y)
	d.DrawString(s)
}

func textWidth(face font.Face, s string) int {
	return font.MeasureString(face, s).Ceil()
}

func fitText(face font.Face, s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if textWidth(face, s) <= maxWidth {
		return s
	}
	const ellipsis = "…"
	r := []rune(s)
	for len(r) > 0 {
		r = r[:len(r)-1]
		if t := string(r) + ellipsis; textWidth(face, t) <= maxWidth {
			return t
		}
	}
	return ""
}
