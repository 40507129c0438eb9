package imagepkg

import "fmt"

// Format is the static output encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
)

const (
	MaxCanvasSide    = 8192
	MaxAnimationSide = 2048
	MinQuality       = 1
	MaxQuality       = 30
	MinFrameDelayMS  = 500
	MaxFrameDelayMS  = 5000
)

// RenderOptions configures ComposeStatic. Height is ignored by the detailed layout.
// Zero fields take the layout's default; a nil Padding does too, so an explicit
// zero padding stays zero.
type RenderOptions struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Background string  `json:"background"`
	Padding    *int    `json:"padding,omitempty"`
	Format     Format  `json:"format"`
	Quality    float64 `json:"quality"` // (0,1], jpeg only
	// ShareURL, when set, is pasted as a QR code in the top-right corner.
	ShareURL string `json:"shareUrl,omitempty"`
	// QRSize is the QR side in pixels; 0 picks a fifth of the shorter canvas side.
	QRSize int `json:"qrSize,omitempty"`
}

// PaddingOf returns a Padding value for RenderOptions.
func PaddingOf(px int) *int { return &px }

func (o RenderOptions) padding() int {
	if o.Padding == nil {
		return 0
	}
	return *o.Padding
}

// DefaultRenderOptions returns the per-layout defaults.
func DefaultRenderOptions(mode LayoutMode) RenderOptions {
	o := RenderOptions{
		Width:      1200,
		Height:     1200,
		Background: "#000000",
		Padding:    PaddingOf(20),
		Format:     FormatPNG,
		Quality:    0.9,
	}
	switch mode {
	case LayoutHorizontal:
		o.Width, o.Height = 1600, 600
	case LayoutVertical:
		o.Width, o.Height = 600, 1600
	case LayoutDetailed:
		o.Width, o.Height, o.Padding = 800, 1200, PaddingOf(40)
	}
	return o
}

func (o RenderOptions) withDefaults(mode LayoutMode) RenderOptions {
	d := DefaultRenderOptions(mode)
	if o.Width == 0 {
		o.Width = d.Width
	}
	if o.Height == 0 {
		o.Height = d.Height
	}
	if o.Padding == nil {
		o.Padding = d.Padding
	}
	if o.Background == "" {
		o.Background = d.Background
	}
	if o.Format == "" {
		o.Format = d.Format
	}
	if o.Quality == 0 {
		o.Quality = d.Quality
	}
	return o
}

func (o RenderOptions) validate(mode LayoutMode) error {
	if !mode.Known() {
		return fmt.Errorf("%w: unknown layout %d", ErrInvalidOptions, int(mode))
	}
	if o.Width <= 0 || o.Width > MaxCanvasSide {
		return fmt.Errorf("%w: width %d out of range", ErrInvalidOptions, o.Width)
	}
	if mode != LayoutDetailed && (o.Height <= 0 || o.Height > MaxCanvasSide) {
		return fmt.Errorf("%w: height %d out of range", ErrInvalidOptions, o.Height)
	}
	if o.padding() < 0 {
		return fmt.Errorf("%w: negative padding", ErrInvalidOptions)
	}
	if o.Quality <= 0 || o.Quality > 1 {
		return fmt.Errorf("%w: quality %.2f not in (0,1]", ErrInvalidOptions, o.Quality)
	}
	if o.QRSize < 0 || o.QRSize > MaxQRSize {
		return fmt.Errorf("%w: qr size %d not in [0,%d]", ErrInvalidOptions, o.QRSize, MaxQRSize)
	}
	switch o.Format {
	case FormatPNG, FormatJPEG:
	default:
		return fmt.Errorf("%w: format %q", ErrInvalidOptions, o.Format)
	}
	return nil
}

// AnimationOptions configures ComposeAnimation.
type AnimationOptions struct {
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	DelayMS    int    `json:"delay"`
	Quality    int    `json:"quality"` // 1-30, lower keeps more colour detail
	Background string `json:"background"`
	Workers    int    `json:"-"`
}

func DefaultAnimationOptions() AnimationOptions {
	return AnimationOptions{
		Width:      512,
		Height:     512,
		DelayMS:    2000,
		Quality:    10,
		Background: "#000000",
		Workers:    2,
	}
}

func (o AnimationOptions) withDefaults() AnimationOptions {
	d := DefaultAnimationOptions()
	if o.Width == 0 {
		o.Width = d.Width
	}
	if o.Height == 0 {
		o.Height = d.Height
	}
	if o.DelayMS == 0 {
		o.DelayMS = d.DelayMS
	}
	if o.Quality == 0 {
		o.Quality = d.Quality
	}
	if o.Workers <= 0 {
		o.Workers = d.Workers
	}
	return o
}

func (o AnimationOptions) validate() error {
	if o.Width <= 0 || o.Width > MaxAnimationSide || o.Height <= 0 || o.Height > MaxAnimationSide {
		return fmt.Errorf("%w: frame %dx%d out of range", ErrInvalidOptions, o.Width, o.Height)
	}
	if o.DelayMS < MinFrameDelayMS || o.DelayMS > MaxFrameDelayMS {
		return fmt.Errorf("%w: delay %dms not in [%d,%d]", ErrInvalidOptions, o.DelayMS, MinFrameDelayMS, MaxFrameDelayMS)
	}
	if o.Quality < MinQuality || o.Quality > MaxQuality {
		return fmt.Errorf("%w: quality %d not in [%d,%d]", ErrInvalidOptions, o.Quality, MinQuality, MaxQuality)
	}
	return nil
}
