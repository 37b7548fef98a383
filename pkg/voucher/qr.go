package voucher

import (
	"fmt"
	"image/color"

	qrcode "github.com/skip2/go-qrcode"
)

const qrImageSize = 400

var (
	qrForeground = color.RGBA{R: 0x1a, G: 0x1a, B: 0x2e, A: 0xff}
	qrBackground = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// RenderPNG encodes the deep link for token into a PNG image.
func RenderPNG(token string) ([]byte, error) {
	q, err := qrcode.New(DeepLink(token), qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to build QR code: %w", err)
	}
	q.ForegroundColor = qrForeground
	q.BackgroundColor = qrBackground

	png, err := q.PNG(qrImageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR code: %w", err)
	}
	return png, nil
}
