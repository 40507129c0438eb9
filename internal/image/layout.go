package imagepkg

import (
	"fmt"
	"math"
	"strings"
)

// LayoutMode selects the composition geometry and label verbosity.
type LayoutMode int

const (
	LayoutGrid LayoutMode = iota
	LayoutHorizontal
	LayoutVertical
	LayoutDetailed
)

// Fixed band sizes for the detailed layout.
const (
	DetailedItemHeight  = 600
	DetailedLabelHeight = 100
)

// String returns the wire name used by the frontend and in filenames.
func (m LayoutMode) String() string {
	switch m {
	case LayoutGrid:
		return "grid"
	case LayoutHorizontal:
		return "landscape"
	case LayoutVertical:
		return "portrait"
	case LayoutDetailed:
		return "full"
	}
	return fmt.Sprintf("LayoutMode(%d)", int(m))
}

// ParseLayoutMode accepts both wire names and descriptive names.
func ParseLayoutMode(s string) (LayoutMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "grid":
		return LayoutGrid, nil
	case "landscape", "horizontal", "sequential-horizontal":
		return LayoutHorizontal, nil
	case "portrait", "vertical", "sequential-vertical":
		return LayoutVertical, nil
	case "full", "detailed", "detailed-vertical":
		return LayoutDetailed, nil
	}
	return 0, fmt.Errorf("%w: unknown layout %q", ErrInvalidOptions, s)
}

// Known reports whether m is one of the defined modes.
func (m LayoutMode) Known() bool {
	return m >= LayoutGrid && m <= LayoutDetailed
}

func (m LayoutMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *LayoutMode) UnmarshalText(b []byte) error {
	v, err := ParseLayoutMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Rect is a placement rectangle in canvas pixels.
type Rect struct {
	X, Y, W, H float64
}

func (r Rect) MaxX() float64 { return r.X + r.W }
func (r Rect) MaxY() float64 { return r.Y + r.H }

// Overlaps reports whether r and o share any interior area.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.MaxX() && o.X < r.MaxX() && r.Y < o.MaxY() && o.Y < r.MaxY()
}

// Layout is the output of ComputeLayout.
type Layout struct {
	Mode   LayoutMode
	Width  int
	Height int
	Cols   int
	Rows   int
	Cells  []Rect
	// Labels holds the label band under each cell; detailed mode only.
	Labels []Rect
}

// Valid reports whether every cell has a positive drawable area.
func (l Layout) Valid() bool {
	for _, c := range l.Cells {
		if c.W <= 0 || c.H <= 0 {
			return false
		}
	}
	return l.Width > 0 && l.Height > 0
}

// GridDimensions picks the grid shape for count items. The tiers jump from
// 4x4 to the formula at 17 items; that step is intentional.
func GridDimensions(count int) (cols, rows int) {
	switch {
	case count <= 1:
		return 1, 1
	case count <= 4:
		return 2, 2
	case count <= 9:
		return 3, 3
	case count <= 16:
		return 4, 4
	}
	cols = int(math.Ceil(math.Sqrt(float64(count) * 1.5)))
	rows = int(math.Ceil(float64(count) / float64(cols)))
	return cols, rows
}

// DetailedHeight is the canvas height needed for count items in detailed mode.
func DetailedHeight(count, padding int) int {
	return count*(DetailedItemHeight+DetailedLabelHeight+padding) + padding
}

// ComputeLayout places count items on a width x height canvas. In detailed
// mode the height argument is ignored and derived from count.
func ComputeLayout(count int, mode LayoutMode, width, height, padding int) Layout {
	l := Layout{Mode: mode, Width: width, Height: height}
	if count < 0 {
		count = 0
	}
	w, h, p := float64(width), float64(height), float64(padding)

	switch mode {
	case LayoutGrid:
		cols, rows := GridDimensions(count)
		l.Cols, l.Rows = cols, rows
		if count == 0 {
			return l
		}
		cw := (w - p*float64(cols+1)) / float64(cols)
		ch := (h - p*float64(rows+1)) / float64(rows)
		l.Cells = make([]Rect, count)
		for i := range l.Cells {
			col, row := i%cols, i/cols
			l.Cells[i] = Rect{
				X: p + float64(col)*(cw+p),
				Y: p + float64(row)*(ch+p),
				W: cw,
				H: ch,
			}
		}

	case LayoutHorizontal:
		l.Cols, l.Rows = count, 1
		if count == 0 {
			return l
		}
		cw := (w - p*float64(count+1)) / float64(count)
		ch := h - p*2
		l.Cells = make([]Rect, count)
		for i := range l.Cells {
			l.Cells[i] = Rect{X: p + float64(i)*(cw+p), Y: p, W: cw, H: ch}
		}

	case LayoutVertical:
		l.Cols, l.Rows = 1, count
		if count == 0 {
			return l
		}
		cw := w - p*2
		ch := (h - p*float64(count+1)) / float64(count)
		l.Cells = make([]Rect, count)
		for i := range l.Cells {
			l.Cells[i] = Rect{X: p, Y: p + float64(i)*(ch+p), W: cw, H: ch}
		}

	case LayoutDetailed:
		l.Cols, l.Rows = 1, count
		l.Height = DetailedHeight(count, padding)
		if count == 0 {
			return l
		}
		cw := w - p*2
		l.Cells = make([]Rect, count)
		l.Labels = make([]Rect, count)
		y := p
		for i := range l.Cells {
			l.Cells[i] = Rect{X: p, Y: y, W: cw, H: DetailedItemHeight}
			l.Labels[i] = Rect{X: p, Y: y + DetailedItemHeight, W: cw, H: DetailedLabelHeight}
			y += DetailedItemHeight + DetailedLabelHeight + p
		}

	default:
		panic(fmt.Sprintf("imagepkg: unhandled layout mode %d", int(mode)))
	}
	return l
}
