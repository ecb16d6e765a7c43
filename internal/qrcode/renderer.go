package qrcode

// Renderer binds encode and compose options for callers that only deal in data URLs and PNG
// bytes.
type Renderer struct {
	Options        Options
	ComposeOptions ComposeOptions
}

func NewRenderer() *Renderer {
	return &Renderer{
		Options:        DefaultOptions(),
		ComposeOptions: DefaultComposeOptions(),
	}
}

// DataURL encodes text as a PNG data URL.
func (r *Renderer) DataURL(text string) (string, error) {
	return EncodeDataURL(text, r.Options)
}

// Card composes the QR code in dataURL with caption into PNG bytes.
func (r *Renderer) Card(dataURL, caption string) ([]byte, error) {
	return ComposeDataURL(dataURL, caption, r.ComposeOptions)
}
