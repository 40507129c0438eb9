// Command compose renders a token list to an image or GIF without the HTTP server.
//
//	compose -in tokens.json -layout landscape -out renders/
//	compose -in portfolio.json -animate -out renders/
//
// The input is either a JSON array of tokens or a wallet lookup response with an "nfts" field.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/youruser/nftview/internal/config"
	imagepkg "github.com/youruser/nftview/internal/image"
	"github.com/youruser/nftview/internal/nft"
	"github.com/youruser/nftview/internal/observability"
	"github.com/youruser/nftview/internal/util"
)

func main() {
	var (
		in         = flag.String("in", "", "token list or portfolio JSON file (required)")
		out        = flag.String("out", ".", "output directory")
		layout     = flag.String("layout", "grid", "grid, landscape, portrait or full")
		animate    = flag.Bool("animate", false, "render an animated GIF instead of a still")
		label      = flag.String("label", "", "filename prefix")
		width      = flag.Int("width", 0, "canvas or frame width (0 keeps the default)")
		height     = flag.Int("height", 0, "canvas or frame height (0 keeps the default)")
		format     = flag.String("format", "png", "png or jpeg")
		background = flag.String("background", "", "CSS background colour")
		delay      = flag.Int("delay", 0, "GIF frame delay in ms (0 keeps the default)")
		share      = flag.String("share", "", "URL pasted as a QR code in the corner of a still")
	)
	flag.Parse()

	log, err := observability.NewLogger("info", "text")
	if err != nil {
		logrus.WithError(err).Fatal("failed to build logger")
	}
	if *in == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	tokens, err := readTokens(*in)
	if err != nil {
		log.WithError(err).Fatal("failed to read tokens")
	}

	loader, err := imagepkg.NewLoader(imagepkg.LoaderConfig{
		Client:      util.NewHTTPClient(cfg.Loader.Timeout),
		IPFSGateway: cfg.Loader.IPFSGateway,
		BaseURL:     cfg.Loader.ImageBaseURL,
		MaxBytes:    cfg.Loader.MaxImageBytes,
		Concurrency: cfg.Loader.Concurrency,
	})
	if err != nil {
		log.WithError(err).Fatal("invalid loader config")
	}
	composer := imagepkg.NewComposer(loader, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var (
		art       *imagepkg.Artifact
		layoutTag string
	)
	if *animate {
		opts := imagepkg.DefaultAnimationOptions()
		opts.Width, opts.Height, opts.DelayMS = *width, *height, *delay
		if *background != "" {
			opts.Background = *background
		}
		art, err = composer.ComposeAnimation(ctx, tokens, opts)
		layoutTag = "animated"
	} else {
		mode, perr := imagepkg.ParseLayoutMode(*layout)
		if perr != nil {
			log.WithError(perr).Fatal("invalid layout")
		}
		opts := imagepkg.DefaultRenderOptions(mode)
		if *width > 0 {
			opts.Width = *width
		}
		if *height > 0 {
			opts.Height = *height
		}
		if *background != "" {
			opts.Background = *background
		}
		opts.Format = imagepkg.Format(*format)
		opts.ShareURL = *share
		art, err = composer.ComposeStatic(ctx, tokens, mode, opts)
		layoutTag = mode.String()
	}
	if err != nil {
		log.WithError(err).Fatal("composition failed")
	}

	path := filepath.Join(*out, art.Filename(*label, layoutTag, time.Now()))
	if err := util.WriteFileAtomic(path, art.Data); err != nil {
		log.WithError(err).Fatal("failed to write output")
	}
	log.WithFields(logrus.Fields{
		"path":   path,
		"width":  art.Width,
		"height": art.Height,
		"frames": art.Frames,
		"bytes":  len(art.Data),
	}).Info("composition written")
}

func readTokens(path string) ([]nft.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var tokens []nft.Token
		if err := json.Unmarshal(data, &tokens); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return nft.Dedupe(tokens), nil
	}
	var p nft.Portfolio
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return nft.Dedupe(p.NFTs), nil
}
