package qrcode

import (
	"fmt"
	"image"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// NoPadding lays the card out without padding. A zero Padding selects the default.
const NoPadding = -1

// ComposeOptions controls the layout of a captioned QR card. Zero fields take their defaults.
type ComposeOptions struct {
	QRSize          int
	Padding         int
	FontSize        float64
	FontFamily      string // monospace or sans-serif
	BackgroundColor string
	TextColor       string
}

func DefaultComposeOptions() ComposeOptions {
	return ComposeOptions{
		QRSize:          256,
		Padding:         20,
		FontSize:        14,
		FontFamily:      "monospace",
		BackgroundColor: "#ffffff",
		TextColor:       "#374151",
	}
}

func (o ComposeOptions) withDefaults() ComposeOptions {
	d := DefaultComposeOptions()
	if o.QRSize <= 0 {
		o.QRSize = d.QRSize
	}
	switch {
	case o.Padding == 0:
		o.Padding = d.Padding
	case o.Padding < 0:
		o.Padding = 0
	}
	if o.FontSize <= 0 {
		o.FontSize = d.FontSize
	}
	if o.FontFamily == "" {
		o.FontFamily = d.FontFamily
	}
	if o.BackgroundColor == "" {
		o.BackgroundColor = d.BackgroundColor
	}
	if o.TextColor == "" {
		o.TextColor = d.TextColor
	}
	return o
}

var (
	monoFont    = sync.OnceValues(func() (*sfnt.Font, error) { return opentype.Parse(gomono.TTF) })
	regularFont = sync.OnceValues(func() (*sfnt.Font, error) { return opentype.Parse(goregular.TTF) })
)

func fontFor(family string) (*sfnt.Font, error) {
	switch family {
	case "sans-serif", "sans":
		return regularFont()
	default:
		return monoFont()
	}
}

// Compose draws qr scaled to QRSize on a canvas wide enough for both the code and the caption,
// with the caption centered below the code.
func Compose(qr image.Image, caption string, opts ComposeOptions) (image.Image, error) {
	if qr == nil || qr.Bounds().Empty() {
		return nil, ErrInvalidImage
	}
	opts = opts.withDefaults()

	bg, err := parseColor(opts.BackgroundColor)
	if err != nil {
		return nil, err
	}
	fg, err := parseColor(opts.TextColor)
	if err != nil {
		return nil, err
	}

	f, err := fontFor(opts.FontFamily)
	if err != nil {
		return nil, fmt.Errorf("qrcode: load font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    opts.FontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("qrcode: font face: %w", err)
	}
	defer face.Close()

	textWidth := font.MeasureString(face, caption).Ceil()
	fontHeight := int(opts.FontSize + 0.5)

	width := max(opts.QRSize, textWidth) + 2*opts.Padding
	height := opts.QRSize + fontHeight + 3*opts.Padding

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	qrX := (width - opts.QRSize) / 2
	qrRect := image.Rect(qrX, opts.Padding, qrX+opts.QRSize, opts.Padding+opts.QRSize)
	draw.NearestNeighbor.Scale(canvas, qrRect, qr, qr.Bounds(), draw.Over, nil)

	textY := opts.Padding + opts.QRSize + opts.Padding
	d := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.P((width-textWidth)/2, textY+face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(caption)

	return canvas, nil
}

// ComposePNG decodes an encoded QR image, composes it with caption and returns PNG bytes.
func ComposePNG(qrImage []byte, caption string, opts ComposeOptions) ([]byte, error) {
	qr, err := decodeImage(qrImage)
	if err != nil {
		return nil, err
	}
	img, err := Compose(qr, caption, opts)
	if err != nil {
		return nil, err
	}
	return encodePNG(img)
}

// ComposeDataURL is ComposePNG for an image carried in a data URL.
func ComposeDataURL(dataURL, caption string, opts ComposeOptions) ([]byte, error) {
	qr, err := DecodeDataURL(dataURL)
	if err != nil {
		return nil, err
	}
	img, err := Compose(qr, caption, opts)
	if err != nil {
		return nil, err
	}
	return encodePNG(img)
}
