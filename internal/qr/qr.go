// Package qr renders verification tokens as QR images and reads them back.
package qr

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/makiuchi-d/gozxing"
	zxqrcode "github.com/makiuchi-d/gozxing/qrcode"
	"github.com/skip2/go-qrcode"
)

// DefaultSize is the rendered image edge in pixels.
const DefaultSize = 256

// ErrNoCode means the image decoded but contained no readable QR code.
var ErrNoCode = errors.New("no QR code found in image")

// Render encodes payload as a PNG QR code with medium error correction.
func Render(payload string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}
	png, err := qrcode.Encode(payload, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR code: %w", err)
	}
	return png, nil
}

// Decode reads a PNG or JPEG image and returns the text of its QR code.
func Decode(r io.Reader) (string, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}
	return DecodeImage(img)
}

// DecodeImage returns the text of the QR code in img.
func DecodeImage(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("failed to binarize image: %w", err)
	}

	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	result, err := zxqrcode.NewQRCodeReader().Decode(bmp, hints)
	if err != nil {
		var notFound gozxing.NotFoundException
		var checksum gozxing.ChecksumException
		var format gozxing.FormatException
		if errors.As(err, &notFound) || errors.As(err, &checksum) || errors.As(err, &format) {
			return "", fmt.Errorf("%w: %v", ErrNoCode, err)
		}
		return "", fmt.Errorf("failed to read QR code: %w", err)
	}
	return result.GetText(), nil
}
