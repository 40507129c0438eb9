package imagepkg

import (
	"image"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youruser/nftview/internal/nft"
)

func TestAspectFit(t *testing.T) {
	rects := []Rect{
		{X: 0, Y: 0, W: 100, H: 100},
		{X: 20, Y: 40, W: 300, H: 120},
		{X: 5.5, Y: 7.25, W: 170.333, H: 512.9},
	}
	sizes := [][2]int{{1, 1}, {64, 64}, {1920, 1080}, {300, 1200}, {7, 3}, {1000, 1}}

	for _, r := range rects {
		for _, s := range sizes {
			fit := AspectFit(s[0], s[1], r)

			touchesW := abs(fit.W-r.W) < 1e-6
			touchesH := abs(fit.H-r.H) < 1e-6
			assert.True(t, touchesW || touchesH, "fit %v in %v touches neither side", s, r)
			assert.LessOrEqual(t, fit.W, r.W+1e-6)
			assert.LessOrEqual(t, fit.H, r.H+1e-6)
			assert.GreaterOrEqual(t, fit.X, r.X-1e-6)
			assert.GreaterOrEqual(t, fit.Y, r.Y-1e-6)
			assert.LessOrEqual(t, fit.MaxX(), r.MaxX()+1e-6)
			assert.LessOrEqual(t, fit.MaxY(), r.MaxY()+1e-6)

			// centered on the slack axis
			assert.InDelta(t, r.X+r.W/2, fit.X+fit.W/2, 1e-6)
			assert.InDelta(t, r.Y+r.H/2, fit.Y+fit.H/2, 1e-6)

			// aspect preserved
			assert.InDelta(t, float64(s[0])/float64(s[1]), fit.W/fit.H, 1e-6*float64(s[0])/float64(s[1])+1e-9)
		}
	}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func TestDrawItem_StaysInsideRect(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)
	defer r.Close()

	canvas := imaging.New(200, 200, black())
	src := imaging.New(128, 32, blue)
	rect := Rect{X: 50, Y: 50, W: 100, H: 100}
	r.DrawItem(canvas, src, rect, token("1", ""), LabelNone)

	// 4:1 image in a square: 100x25 band centered vertically at y 87.5-112.5
	assert.True(t, canvas.NRGBAAt(100, 100).B > 200, "center should be blue")
	assert.True(t, isBlack(canvas.NRGBAAt(100, 60)), "letterbox above image")
	assert.True(t, isBlack(canvas.NRGBAAt(100, 140)), "letterbox below image")
	for _, p := range []image.Point{{49, 100}, {150, 100}, {100, 49}, {100, 150}} {
		assert.True(t, isBlack(canvas.NRGBAAt(p.X, p.Y)), "outside rect at %v", p)
	}
}

func TestDrawItem_CellLabelBand(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)
	defer r.Close()

	canvas := imaging.New(200, 200, black())
	src := imaging.New(64, 64, red)
	rect := Rect{X: 0, Y: 0, W: 200, H: 200}
	r.DrawItem(canvas, src, rect, token("42", ""), LabelAbbreviated)

	// The band darkens the bottom of the image; above it the image is untouched.
	assert.True(t, isRed(canvas.NRGBAAt(100, 100)))
	band := canvas.NRGBAAt(199, 199)
	assert.Less(t, band.R, uint8(100), "band should darken the image")
}

func TestDrawDetailedLabel(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)
	defer r.Close()

	canvas := imaging.New(800, 100, black())
	r.DrawDetailedLabel(canvas, Rect{X: 0, Y: 0, W: 800, H: 100}, token("7", ""))

	// the translucent white band lifts the background off pure black
	c := canvas.NRGBAAt(400, 98)
	assert.Greater(t, c.R, uint8(10))

	lit := 0
	for y := 0; y < 100; y++ {
		for x := 0; x < 800; x++ {
			if canvas.NRGBAAt(x, y).R > 200 {
				lit++
			}
		}
	}
	assert.Greater(t, lit, 100, "expected rendered text")
}

func TestTruncateAddress(t *testing.T) {
	assert.Equal(t, "0x12345678...12345678", TruncateAddress("0x1234567890abcdef1234567890abcdef12345678"))
	assert.Equal(t, "short", TruncateAddress("short"))
}

func TestTraitSummary(t *testing.T) {
	traits := token("1", "").Attributes

	shown, hidden := TraitSummary(traits, LayoutGrid)
	assert.Len(t, shown, 2)
	assert.Equal(t, 1, hidden)
	assert.Equal(t, "Background: Jungle · Fur: Golden · +1 more", FormatTraits(traits, LayoutGrid))

	shown, hidden = TraitSummary(traits, LayoutDetailed)
	assert.Len(t, shown, 3)
	assert.Zero(t, hidden)

	many := make([]nft.Trait, 12)
	for i := range many {
		many[i] = nft.Trait{TraitType: "T", Value: "v"}
	}
	shown, hidden = TraitSummary(many, LayoutDetailed)
	assert.Len(t, shown, 10)
	assert.Equal(t, 2, hidden)
}
