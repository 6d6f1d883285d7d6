package wg

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// GenerateQRCode renders a tunnel's conf file content as a QR code PNG,
// suitable for import by the WireGuard mobile apps. size is the image
// width/height in pixels.
func GenerateQRCode(confContent string, size int) ([]byte, error) {
	if confContent == "" {
		return nil, fmt.Errorf("generate qr code: config content is empty")
	}
	if size <= 0 {
		size = 256
	}

	png, err := qrcode.Encode(confContent, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("generate qr code: %w", err)
	}
	return png, nil
}

// GenerateQRTerminal renders a tunnel's conf file content as a QR code
// drawn with block characters for display in a terminal.
func GenerateQRTerminal(confContent string) (string, error) {
	if confContent == "" {
		return "", fmt.Errorf("generate qr code: config content is empty")
	}

	qr, err := qrcode.New(confContent, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("generate qr code: %w", err)
	}
	return qr.ToSmallString(false), nil
}
