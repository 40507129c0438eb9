package imagepkg

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/youruser/nftview/internal/observability"
	"github.com/youruser/nftview/internal/util"
)

const (
	DefaultIPFSGateway   = "https://ipfs.io/ipfs/"
	DefaultLoadTimeout   = 10 * time.Second
	DefaultMaxImageBytes = 32 << 20
)

// LoaderConfig configures a Loader. Zero values pick the defaults above.
type LoaderConfig struct {
	Client      *http.Client
	IPFSGateway string
	// BaseURL resolves relative image references. Without it they fail.
	BaseURL     string
	MaxBytes    int64
	Concurrency int
}

// Loader fetches and decodes token images.
type Loader struct {
	client      *http.Client
	gateway     string
	base        *url.URL
	maxBytes    int64
	concurrency int
}

// LoadResult is the outcome of one load: either Image is set or Err is.
type LoadResult struct {
	Ref   string
	Image image.Image
	Err   error
}

func (r LoadResult) OK() bool { return r.Err == nil && r.Image != nil }

func NewLoader(cfg LoaderConfig) (*Loader, error) {
	l := &Loader{
		client:      cfg.Client,
		gateway:     cfg.IPFSGateway,
		maxBytes:    cfg.MaxBytes,
		concurrency: cfg.Concurrency,
	}
	if l.client == nil {
		l.client = util.NewHTTPClient(DefaultLoadTimeout)
	}
	if l.gateway == "" {
		l.gateway = DefaultIPFSGateway
	}
	if !strings.HasSuffix(l.gateway, "/") {
		l.gateway += "/"
	}
	if l.maxBytes <= 0 {
		l.maxBytes = DefaultMaxImageBytes
	}
	if l.concurrency <= 0 {
		l.concurrency = 1
	}
	if cfg.BaseURL != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil || !u.IsAbs() {
			return nil, fmt.Errorf("loader base url %q must be absolute", cfg.BaseURL)
		}
		l.base = u
	}
	return l, nil
}

// Load resolves ref to a decoded image. An empty ref yields the placeholder.
func (l *Loader) Load(ctx context.Context, ref string) LoadResult {
	res := LoadResult{Ref: ref}
	img, err := l.load(ctx, strings.TrimSpace(ref))
	if err != nil {
		res.Err = &ImageLoadError{URL: ref, Err: err}
	} else {
		res.Image = img
	}
	observability.RecordImageLoad(res.OK())
	return res
}

func (l *Loader) load(ctx context.Context, ref string) (image.Image, error) {
	if ref == "" {
		return Placeholder(), nil
	}
	if strings.HasPrefix(ref, "data:") {
		b, err := decodeDataURI(ref)
		if err != nil {
			return nil, err
		}
		return decode(b)
	}
	u, err := l.resolve(ref)
	if err != nil {
		return nil, err
	}
	b, err := util.GetBytes(ctx, l.client, u, l.maxBytes)
	if err != nil {
		return nil, err
	}
	return decode(b)
}

// resolve maps ipfs://, ar:// and relative refs to fetchable http(s) URLs.
func (l *Loader) resolve(ref string) (string, error) {
	switch {
	case strings.HasPrefix(ref, "ipfs://"):
		p := strings.TrimPrefix(ref, "ipfs://")
		p = strings.TrimPrefix(p, "ipfs/")
		return l.gateway + p, nil
	case strings.HasPrefix(ref, "ar://"):
		return "https://arweave.net/" + strings.TrimPrefix(ref, "ar://"), nil
	}

	u, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	if !u.IsAbs() {
		if l.base == nil {
			return "", errors.New("relative reference with no base url configured")
		}
		u = l.base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	return u.String(), nil
}

func decode(b []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(b), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	if r := img.Bounds(); r.Dx() == 0 || r.Dy() == 0 {
		return nil, errors.New("image has zero size")
	}
	return img, nil
}

// decodeDataURI handles data:[<mediatype>][;base64],<payload>.
func decodeDataURI(ref string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok {
		return nil, errors.New("malformed data uri")
	}
	if strings.HasSuffix(meta, ";base64") {
		b, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			// Some encoders drop the padding.
			return base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		}
		return b, nil
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// Stream loads refs with up to the configured number of requests in flight
// and calls fn for each result strictly in input order. At most that many
// decoded images are held at once.
func (l *Loader) Stream(ctx context.Context, refs []string, fn func(i int, res LoadResult)) {
	if len(refs) == 0 {
		return
	}
	results := make([]chan LoadResult, len(refs))
	for i := range results {
		results[i] = make(chan LoadResult, 1)
	}
	sem := make(chan struct{}, l.concurrency)

	go func() {
		for i, ref := range refs {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				for j := i; j < len(refs); j++ {
					results[j] <- LoadResult{Ref: refs[j], Err: &ImageLoadError{URL: refs[j], Err: ctx.Err()}}
				}
				return
			}
			go func(i int, ref string) {
				results[i] <- l.Load(ctx, ref)
			}(i, ref)
		}
	}()

	for i := range refs {
		fn(i, <-results[i])
		// Items filled after cancellation never took a slot.
		select {
		case <-sem:
		default:
		}
	}
}
