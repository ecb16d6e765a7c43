package form

import "github.com/sp3dr4/shortin/internal/domain"

// Event is an input to Apply. The set below is closed as far as Apply is concerned; any
// other implementation is treated as a no-op.
type Event interface {
	Name() string
}

type (
	EditURL       struct{ Text string }
	EditShortCode struct{ Text string }
	SubmitStart   struct{}
	SubmitSuccess struct {
		Link    domain.ShortenedLink
		Warning string
	}
	SubmitError   struct{ Message string }
	CopySuccess   struct{}
	CopyReset     struct{}
	ResetMessages struct{}
	QRStart       struct{}
	QRSuccess     struct{ DataURL string }
	QRHide        struct{}
)

func (EditURL) Name() string       { return "edit_url" }
func (EditShortCode) Name() string { return "edit_short_code" }
func (SubmitStart) Name() string   { return "submit_start" }
func (SubmitSuccess) Name() string { return "submit_success" }
func (SubmitError) Name() string   { return "submit_error" }
func (CopySuccess) Name() string   { return "copy_success" }
func (CopyReset) Name() string     { return "copy_reset" }
func (ResetMessages) Name() string { return "reset_messages" }
func (QRStart) Name() string       { return "qr_start" }
func (QRSuccess) Name() string     { return "qr_success" }
func (QRHide) Name() string        { return "qr_hide" }
