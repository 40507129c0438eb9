package imagepkg

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"math"
	"time"

	"github.com/disintegration/imaging"
	"github.com/ericpauley/go-quantize/quantize"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/youruser/nftview/internal/nft"
	"github.com/youruser/nftview/internal/observability"
)

// ComposeAnimation renders one full-frame image per token, in order, into a
// looping GIF. Tokens whose image cannot be loaded are left out rather than
// replaced by a blank frame.
func (c *Composer) ComposeAnimation(ctx context.Context, tokens []nft.Token, opts AnimationOptions) (art *Artifact, err error) {
	start := time.Now()
	defer func() { observability.RecordComposition("animation", err, time.Since(start)) }()

	if len(tokens) == 0 {
		return nil, ErrEmptySelection
	}
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	bg, err := ParseColor(opts.Background)
	if err != nil {
		return nil, err
	}

	r, err := NewRenderer()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	log := c.log.WithField("count", len(tokens))
	log.Debug("starting GIF generation")

	frameRect := Rect{W: float64(opts.Width), H: float64(opts.Height)}
	frames := make([]*image.Paletted, len(tokens))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	c.loader.Stream(ctx, imageRefs(tokens), func(i int, res LoadResult) {
		tok := tokens[i]
		if !res.OK() {
			c.skip(tok, res)
			return
		}
		log.WithFields(logrus.Fields{"frame": i + 1, "name": tok.Name}).Debug("processing NFT frame")
		frame := imaging.New(opts.Width, opts.Height, bg)
		r.DrawItem(frame, res.Image, frameRect, tok, LabelFrame)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			frames[i] = quantizeFrame(frame, opts.Quality)
			return nil
		})
	})
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &EncodingError{Format: "gif", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	anim := &gif.GIF{LoopCount: 0}
	delay := opts.DelayMS / 10
	for _, f := range frames {
		if f == nil {
			continue
		}
		anim.Image = append(anim.Image, f)
		anim.Delay = append(anim.Delay, delay)
		anim.Disposal = append(anim.Disposal, gif.DisposalNone)
	}
	if len(anim.Image) == 0 {
		return nil, &EncodingError{Format: "gif", Err: ErrNoFrames}
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, anim); err != nil {
		return nil, &EncodingError{Format: "gif", Err: err}
	}

	art = &Artifact{
		Data:      buf.Bytes(),
		MIMEType:  "image/gif",
		Extension: "gif",
		Width:     opts.Width,
		Height:    opts.Height,
		Frames:    len(anim.Image),
	}
	log.WithFields(logrus.Fields{"frames": art.Frames, "bytes": len(art.Data)}).Info("GIF generation completed")
	return art, nil
}

// quantizeFrame reduces frame to a 256-colour paletted image. The palette is
// built from a copy subsampled by level, so level 1 looks at every pixel.
func quantizeFrame(frame *image.NRGBA, level int) *image.Paletted {
	var sample image.Image = frame
	if level > 1 {
		scale := math.Sqrt(float64(level))
		b := frame.Bounds()
		sw := max(1, int(float64(b.Dx())/scale))
		sh := max(1, int(float64(b.Dy())/scale))
		sample = imaging.Resize(frame, sw, sh, imaging.NearestNeighbor)
	}
	q := quantize.MedianCutQuantizer{}
	pal := q.Quantize(make(color.Palette, 0, 256), sample)
	if len(pal) == 0 {
		pal = color.Palette{color.Black}
	}
	out := image.NewPaletted(frame.Bounds(), pal)
	draw.FloydSteinberg.Draw(out, out.Bounds(), frame, image.Point{})
	return out
}
