package imagepkg

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/youruser/nftview/internal/nft"
)

// LabelStyle picks the overlay drawn on top of an item.
type LabelStyle int

const (
	LabelNone LabelStyle = iota
	// LabelAbbreviated is the in-cell band used by grid and sequential layouts.
	LabelAbbreviated
	// LabelFrame is the full-width band used on animation frames.
	LabelFrame
)

var (
	textColor      = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	cellBandColor  = color.NRGBA{A: 204} // black, 80%
	frameBandColor = color.NRGBA{A: 179} // black, 70%
	detailBand     = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 26}
)

const (
	cellBandHeight  = 40
	cellBandPad     = 8
	frameTextHeight = 30
	framePad        = 20
	detailPad       = 16
	maxDetailTraits = 10
	maxCardTraits   = 2
)

// Renderer paints tokens onto a canvas. One renderer per composition call;
// it is not safe for concurrent use.
type Renderer struct {
	faces *faceCache
}

func NewRenderer() (*Renderer, error) {
	fc, err := newFaceCache()
	if err != nil {
		return nil, fmt.Errorf("load fonts: %w", err)
	}
	return &Renderer{faces: fc}, nil
}

func (r *Renderer) Close() error { return r.faces.Close() }

// AspectFit scales a srcW x srcH bitmap to the largest size that fits rect
// without cropping, centered on the axis with slack.
func AspectFit(srcW, srcH int, rect Rect) Rect {
	if srcW <= 0 || srcH <= 0 || rect.W <= 0 || rect.H <= 0 {
		return Rect{X: rect.X, Y: rect.Y}
	}
	imgAspect := float64(srcW) / float64(srcH)
	boxAspect := rect.W / rect.H
	if imgAspect > boxAspect {
		h := math.Min(rect.W/imgAspect, rect.H)
		return Rect{X: rect.X, Y: rect.Y + (rect.H-h)/2, W: rect.W, H: h}
	}
	w := math.Min(rect.H*imgAspect, rect.W)
	return Rect{X: rect.X + (rect.W-w)/2, Y: rect.Y, W: w, H: rect.H}
}

func pixelRect(r Rect) image.Rectangle {
	return image.Rect(
		int(math.Round(r.X)), int(math.Round(r.Y)),
		int(math.Round(r.MaxX())), int(math.Round(r.MaxY())),
	)
}

// DrawItem paints img aspect-fit into rect and then the requested label.
func (r *Renderer) DrawItem(dst *image.NRGBA, img image.Image, rect Rect, tok nft.Token, style LabelStyle) {
	b := img.Bounds()
	cell := pixelRect(rect).Intersect(dst.Bounds())
	target := pixelRect(AspectFit(b.Dx(), b.Dy(), rect)).Intersect(cell)
	if !target.Empty() {
		scaled := imaging.Resize(img, target.Dx(), target.Dy(), imaging.Lanczos)
		draw.Draw(dst, target, scaled, image.Point{}, draw.Over)
	}

	switch style {
	case LabelAbbreviated:
		r.drawCellLabel(dst, cell, tok)
	case LabelFrame:
		r.drawFrameLabel(dst, cell, tok)
	}
}

func fillRect(dst *image.NRGBA, rect image.Rectangle, c color.NRGBA) {
	draw.Draw(dst, rect.Intersect(dst.Bounds()), image.NewUniform(c), image.Point{}, draw.Over)
}

func (r *Renderer) drawCellLabel(dst *image.NRGBA, cell image.Rectangle, tok nft.Token) {
	band := image.Rect(cell.Min.X, cell.Max.Y-cellBandHeight, cell.Max.X, cell.Max.Y).Intersect(cell)
	fillRect(dst, band, cellBandColor)

	small := r.faces.face(false, 12)
	id := "#" + tok.TokenID
	right := cell.Max.X - cellBandPad
	idW := min(textWidth(small, id), cell.Dx()/2)
	drawText(dst, small, textColor, id, right, band.Min.Y+18, alignRight, cell.Dx()/2)
	drawText(dst, small, textColor, string(tok.Chain), right, band.Min.Y+32, alignRight, cell.Dx()/2)

	nameW := cell.Dx() - 2*cellBandPad - idW - cellBandPad
	drawText(dst, r.faces.face(true, 14), textColor, tok.DisplayName(), cell.Min.X+cellBandPad, band.Min.Y+18, alignLeft, nameW)
}

func (r *Renderer) drawFrameLabel(dst *image.NRGBA, frame image.Rectangle, tok nft.Token) {
	band := image.Rect(frame.Min.X, frame.Max.Y-frameTextHeight-framePad, frame.Max.X, frame.Max.Y).Intersect(frame)
	fillRect(dst, band, frameBandColor)

	base := frame.Max.Y - framePad/2
	meta := fmt.Sprintf("#%s • %s", tok.TokenID, tok.Chain)
	small := r.faces.face(false, 14)
	metaW := min(textWidth(small, meta), frame.Dx()/2)
	drawText(dst, small, textColor, meta, frame.Max.X-framePad, base, alignRight, frame.Dx()/2)

	nameW := frame.Dx() - 2*framePad - metaW - cellBandPad
	drawText(dst, r.faces.face(true, 18), textColor, tok.DisplayName(), frame.Min.X+framePad, base, alignLeft, nameW)
}

// DrawDetailedLabel paints the full-width description band used by the
// detailed layout, below the item image.
func (r *Renderer) DrawDetailedLabel(dst *image.NRGBA, rect Rect, tok nft.Token) {
	band := pixelRect(rect).Intersect(dst.Bounds())
	fillRect(dst, band, detailBand)

	x, y := band.Min.X+detailPad, band.Min.Y
	inner := band.Dx() - 2*detailPad
	body := r.faces.face(false, 16)

	drawText(dst, r.faces.face(true, 24), textColor, tok.DisplayName(), x, y+30, alignLeft, inner)

	column := inner
	if tok.ContractAddress != "" {
		contract := "Contract: " + TruncateAddress(tok.ContractAddress)
		drawText(dst, body, textColor, contract, band.Max.X-detailPad, y+55, alignRight, inner/2)
		column = inner - min(textWidth(body, contract), inner/2) - detailPad
	}
	drawText(dst, body, textColor, "Token ID: "+tok.TokenID, x, y+55, alignLeft, column)
	drawText(dst, body, textColor, "Blockchain: "+string(tok.Chain), x, y+75, alignLeft, column)

	if line := FormatTraits(tok.Attributes, LayoutDetailed); line != "" {
		drawText(dst, r.faces.face(false, 12), textColor, line, x, y+93, alignLeft, inner)
	}
}

// TruncateAddress shortens long addresses to 0x12345678...abcdef12.
func TruncateAddress(addr string) string {
	if len(addr) <= 21 {
		return addr
	}
	return addr[:10] + "..." + addr[len(addr)-8:]
}

// TraitCap is the number of traits shown for a layout before "+N more".
func TraitCap(mode LayoutMode) int {
	if mode == LayoutDetailed {
		return maxDetailTraits
	}
	return maxCardTraits
}

// TraitSummary returns the traits to display for mode and how many were hidden.
func TraitSummary(traits []nft.Trait, mode LayoutMode) (shown []nft.Trait, hidden int) {
	n := TraitCap(mode)
	if len(traits) <= n {
		return traits, 0
	}
	return traits[:n], len(traits) - n
}

// FormatTraits renders TraitSummary as one line.
func FormatTraits(traits []nft.Trait, mode LayoutMode) string {
	shown, hidden := TraitSummary(traits, mode)
	parts := make([]string, 0, len(shown)+1)
	for _, t := range shown {
		parts = append(parts, t.TraitType+": "+t.Value.String())
	}
	if hidden > 0 {
		parts = append(parts, fmt.Sprintf("+%d more", hidden))
	}
	return strings.Join(parts, " · ")
}
