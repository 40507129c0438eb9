package imagepkg

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"

	"github.com/youruser/nftview/internal/nft"
)

var (
	red  = color.NRGBA{R: 0xff, A: 0xff}
	blue = color.NRGBA{B: 0xff, A: 0xff}
)

func solidPNG(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, imaging.New(w, h, c)))
	return buf.Bytes()
}

// newImageServer serves /red.png, /wide.png (blue, 4:1), /slow.png and 404s everything else.
func newImageServer(t *testing.T) *httptest.Server {
	t.Helper()
	redPNG := solidPNG(t, 64, 64, red)
	widePNG := solidPNG(t, 128, 32, blue)
	mux := http.NewServeMux()
	mux.HandleFunc("/red.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(redPNG)
	})
	mux.HandleFunc("/wide.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(widePNG)
	})
	mux.HandleFunc("/slow.png", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.Header().Set("Content-Type", "image/png")
		w.Write(redPNG)
	})
	mux.HandleFunc("/garbage.png", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not an image"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestComposer(t *testing.T, cfg LoaderConfig) *Composer {
	t.Helper()
	l, err := NewLoader(cfg)
	require.NoError(t, err)
	return NewComposer(l, nil)
}

func token(id, img string) nft.Token {
	return nft.Token{
		ID:              id,
		Name:            "Token " + id,
		Image:           img,
		TokenID:         id,
		ContractAddress: "0x1234567890abcdef1234567890abcdef12345678",
		Chain:           nft.ChainEthereum,
		Attributes: []nft.Trait{
			{TraitType: "Background", Value: "Jungle"},
			{TraitType: "Fur", Value: "Golden"},
			{TraitType: "Eyes", Value: "Laser"},
		},
	}
}

func decodeNRGBA(t *testing.T, b []byte) *image.NRGBA {
	t.Helper()
	img, err := imaging.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	return imaging.Clone(img)
}

func black() color.NRGBA { return color.NRGBA{A: 0xff} }

func isRed(c color.NRGBA) bool  { return c.R > 200 && c.G < 60 && c.B < 60 }
func isBlack(c color.NRGBA) bool { return c.R < 10 && c.G < 10 && c.B < 10 }
