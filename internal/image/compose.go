package imagepkg

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"math"
	"time"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"github.com/youruser/nftview/internal/nft"
	"github.com/youruser/nftview/internal/observability"
)

// Composer turns a token selection into a single image or animation.
// It holds no per-call state and may be shared.
type Composer struct {
	loader *Loader
	log    logrus.FieldLogger
}

func NewComposer(loader *Loader, log logrus.FieldLogger) *Composer {
	if log == nil {
		log = observability.Discard()
	}
	return &Composer{loader: loader, log: log}
}

func imageRefs(tokens []nft.Token) []string {
	refs := make([]string, len(tokens))
	for i, t := range tokens {
		refs[i] = t.Image
	}
	return refs
}

func (c *Composer) skip(tok nft.Token, res LoadResult) {
	c.log.WithError(res.Err).WithFields(logrus.Fields{
		"token_id": tok.ID,
		"name":     tok.Name,
		"url":      res.Ref,
	}).Warn("failed to load image for NFT, skipping")
}

// ComposeStatic draws tokens in order into one image using mode's geometry.
// Items whose image cannot be loaded leave their slot as background.
func (c *Composer) ComposeStatic(ctx context.Context, tokens []nft.Token, mode LayoutMode, opts RenderOptions) (art *Artifact, err error) {
	start := time.Now()
	defer func() { observability.RecordComposition("static", err, time.Since(start)) }()

	if len(tokens) == 0 {
		return nil, ErrEmptySelection
	}
	opts = opts.withDefaults(mode)
	if err := opts.validate(mode); err != nil {
		return nil, err
	}
	bg, err := ParseColor(opts.Background)
	if err != nil {
		return nil, err
	}
	pad := opts.padding()
	layout := ComputeLayout(len(tokens), mode, opts.Width, opts.Height, pad)
	if !layout.Valid() {
		return nil, fmt.Errorf("%w: %d items do not fit %dx%d with padding %d",
			ErrInvalidOptions, len(tokens), opts.Width, opts.Height, pad)
	}

	r, err := NewRenderer()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	log := c.log.WithFields(logrus.Fields{"layout": mode.String(), "count": len(tokens)})
	log.WithFields(logrus.Fields{"cols": layout.Cols, "rows": layout.Rows}).Debug("generating layout")

	canvas := imaging.New(layout.Width, layout.Height, bg)
	style := LabelAbbreviated
	if mode == LayoutDetailed {
		style = LabelNone
	}
	drawn := 0
	c.loader.Stream(ctx, imageRefs(tokens), func(i int, res LoadResult) {
		tok := tokens[i]
		if !res.OK() {
			c.skip(tok, res)
			return
		}
		r.DrawItem(canvas, res.Image, layout.Cells[i], tok, style)
		if mode == LayoutDetailed {
			r.DrawDetailedLabel(canvas, layout.Labels[i], tok)
		}
		drawn++
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.ShareURL != "" {
		if err := pasteShareQR(canvas, opts.ShareURL, opts.QRSize, pad); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	art = &Artifact{Width: layout.Width, Height: layout.Height, Frames: 1}
	switch opts.Format {
	case FormatJPEG:
		err = imaging.Encode(&buf, canvas, imaging.JPEG, imaging.JPEGQuality(jpegQuality(opts.Quality)))
		art.MIMEType, art.Extension = "image/jpeg", "jpeg"
	default:
		err = imaging.Encode(&buf, canvas, imaging.PNG)
		art.MIMEType, art.Extension = "image/png", "png"
	}
	if err != nil {
		return nil, &EncodingError{Format: string(opts.Format), Err: err}
	}
	art.Data = buf.Bytes()

	log.WithFields(logrus.Fields{"drawn": drawn, "bytes": len(art.Data)}).Info("image generated")
	return art, nil
}

// pasteShareQR draws a QR for url into the top-right corner, inset by margin.
func pasteShareQR(canvas *image.NRGBA, url string, size, margin int) error {
	b := canvas.Bounds()
	if size == 0 {
		size = min(b.Dx(), b.Dy()) / 5
	}
	size = min(size, b.Dx()-2*margin, b.Dy()-2*margin)
	if size <= 0 {
		return fmt.Errorf("%w: no room for a share QR", ErrInvalidOptions)
	}
	qr, err := GenerateQRImage(url, size)
	if err != nil {
		return err
	}
	// go-qrcode returns a larger image when size is below the module count.
	qr = imaging.Resize(qr, size, size, imaging.NearestNeighbor)
	at := image.Pt(b.Max.X-margin-size, b.Min.Y+margin)
	draw.Draw(canvas, image.Rectangle{Min: at, Max: at.Add(image.Pt(size, size))}, qr, image.Point{}, draw.Src)
	return nil
}

func jpegQuality(q float64) int {
	v := int(math.Round(q * 100))
	return max(1, min(100, v))
}
