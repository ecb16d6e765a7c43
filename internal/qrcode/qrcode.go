// Package qrcode renders short URLs as QR images and composes downloadable captioned cards.
package qrcode

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/lucasb-eyer/go-colorful"
	goqrcode "github.com/skip2/go-qrcode"
	"github.com/vincent-petithory/dataurl"
)

const pngMediaType = "image/png"

// NoMargin disables the quiet zone. A zero Margin selects the default.
const NoMargin = -1

var (
	ErrEmptyContent = errors.New("qrcode: empty content")
	ErrInvalidImage = errors.New("qrcode: invalid image")
	ErrInvalidColor = errors.New("qrcode: invalid color")
)

// Options controls the raster encoding of a QR code.
type Options struct {
	// Size is the edge length in pixels. It is raised to the module count when smaller.
	Size int
	// Margin is the quiet zone in modules. Zero means the default; use NoMargin for none.
	Margin     int
	DarkColor  string
	LightColor string
}

func DefaultOptions() Options {
	return Options{
		Size:       256,
		Margin:     2,
		DarkColor:  "#000000",
		LightColor: "#ffffff",
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Size <= 0 {
		o.Size = d.Size
	}
	switch {
	case o.Margin == 0:
		o.Margin = d.Margin
	case o.Margin < 0:
		o.Margin = 0
	}
	if o.DarkColor == "" {
		o.DarkColor = d.DarkColor
	}
	if o.LightColor == "" {
		o.LightColor = d.LightColor
	}
	return o
}

// Encode renders text at error-correction level M. The same text and options always produce
// the same image.
func Encode(text string, opts Options) (image.Image, error) {
	if text == "" {
		return nil, ErrEmptyContent
	}
	opts = opts.withDefaults()

	dark, err := parseColor(opts.DarkColor)
	if err != nil {
		return nil, err
	}
	light, err := parseColor(opts.LightColor)
	if err != nil {
		return nil, err
	}

	q, err := goqrcode.New(text, goqrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("qrcode: encode: %w", err)
	}
	q.DisableBorder = true
	// Bitmap builds the symbol; it must be called once per QRCode value.
	bitmap := q.Bitmap()

	modules := len(bitmap) + 2*opts.Margin
	size := max(opts.Size, modules)

	img := image.NewPaletted(image.Rect(0, 0, size, size), color.Palette{light, dark})
	for y := range size {
		my := y*modules/size - opts.Margin
		for x := range size {
			mx := x*modules/size - opts.Margin
			if my >= 0 && my < len(bitmap) && mx >= 0 && mx < len(bitmap) && bitmap[my][mx] {
				img.SetColorIndex(x, y, 1)
			}
		}
	}

	return img, nil
}

// EncodePNG is Encode followed by PNG serialization.
func EncodePNG(text string, opts Options) ([]byte, error) {
	img, err := Encode(text, opts)
	if err != nil {
		return nil, err
	}
	return encodePNG(img)
}

// EncodeDataURL returns the QR code as a base64 PNG data URL suitable for an <img> src.
func EncodeDataURL(text string, opts Options) (string, error) {
	b, err := EncodePNG(text, opts)
	if err != nil {
		return "", err
	}
	return dataurl.New(b, pngMediaType).String(), nil
}

// DecodeDataURL returns the image carried by a data URL produced by EncodeDataURL.
func DecodeDataURL(s string) (image.Image, error) {
	du, err := dataurl.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return decodeImage(du.Data)
}

func decodeImage(b []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return img, nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("qrcode: png encode: %w", err)
	}
	return buf.Bytes(), nil
}

func parseColor(hex string) (color.RGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, hex)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
}
