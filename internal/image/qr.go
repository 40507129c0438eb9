package imagepkg

import (
	"image"

	qrcode "github.com/skip2/go-qrcode"
)

// MaxQRSize bounds the side of generated QR codes in pixels.
const MaxQRSize = 2048

const defaultQRSize = 400

// GenerateQRPNG returns PNG bytes of a QR code for the given text, typically
// a share link to a wallet or a hosted composition.
func GenerateQRPNG(text string, size int) ([]byte, error) {
	if size <= 0 || size > MaxQRSize {
		size = defaultQRSize
	}
	pngBytes, err := qrcode.Encode(text, qrcode.Medium, size)
	if err != nil {
		return nil, &EncodingError{Format: "qr", Err: err}
	}
	return pngBytes, nil
}

// GenerateQRImage returns the QR code as an image for further composition.
func GenerateQRImage(text string, size int) (image.Image, error) {
	if size <= 0 || size > MaxQRSize {
		size = defaultQRSize
	}
	q, err := qrcode.New(text, qrcode.Medium)
	if err != nil {
		return nil, &EncodingError{Format: "qr", Err: err}
	}
	return q.Image(size), nil
}
