package imagepkg

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptySelection is returned when a composition is requested with no tokens.
	ErrEmptySelection = errors.New("no NFTs provided for composition")
	// ErrInvalidOptions is returned when options cannot produce a drawable layout.
	ErrInvalidOptions = errors.New("invalid render options")
	// ErrNoFrames is wrapped in an EncodingError when every animation frame failed to load.
	ErrNoFrames = errors.New("no frames to encode")
)

// ImageLoadError reports a failed fetch or decode for one image reference.
type ImageLoadError struct {
	URL string
	Err error
}

func (e *ImageLoadError) Error() string {
	return fmt.Sprintf("load image %q: %v", e.URL, e.Err)
}

func (e *ImageLoadError) Unwrap() error { return e.Err }

// EncodingError reports a failure while producing the final artifact.
type EncodingError struct {
	Format string
	Err    error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encode %s: %v", e.Format, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }
