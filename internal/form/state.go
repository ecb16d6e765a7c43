// Package form holds the shorten-form state machine and the session that drives it.
//
// Apply is a pure transition function. Network calls, clipboard writes and timers live in
// Session, which dispatches events according to their outcomes.
package form

import "github.com/sp3dr4/shortin/internal/domain"

// State is everything the shorten form displays. The zero value is the initial state.
type State struct {
	URL            string
	ShortCodeInput string
	Loading        bool
	Result         *domain.ShortenedLink
	Error          string
	Warning        string
	Copied         bool

	ShowQRCode    bool
	QRCodeDataURL string
	QRCodeLoading bool
}

// Apply returns the state that follows s after e. Unrecognized events leave s unchanged.
// Business rules are never checked here; the machine records the outcome it is told.
func Apply(s State, e Event) State {
	switch e := e.(type) {
	case EditURL:
		s.URL = e.Text
	case EditShortCode:
		s.ShortCodeInput = e.Text
	case SubmitStart:
		s.Loading = true
		s.Result = nil
		s.Error = ""
		s.Warning = ""
		s.ShowQRCode = false
		s.QRCodeDataURL = ""
	case SubmitSuccess:
		link := e.Link
		s.Loading = false
		s.Result = &link
		s.Warning = e.Warning
	case SubmitError:
		s.Loading = false
		s.Error = e.Message
	case CopySuccess:
		s.Copied = true
	case CopyReset:
		s.Copied = false
	case ResetMessages:
		s.Error = ""
		s.Warning = ""
	case QRStart:
		s.QRCodeLoading = true
		s.ShowQRCode = true
	case QRSuccess:
		s.QRCodeLoading = false
		s.QRCodeDataURL = e.DataURL
	case QRHide:
		s.QRCodeLoading = false
		s.ShowQRCode = false
		s.QRCodeDataURL = ""
	}
	return s
}

// Idle reports whether no submission is in flight and nothing is displayed.
func (s State) Idle() bool {
	return !s.Loading && s.Result == nil && s.Error == ""
}

// Succeeded reports whether the last terminal transition produced a link.
func (s State) Succeeded() bool {
	return !s.Loading && s.Result != nil
}

// Failed reports whether the last terminal transition produced an error.
func (s State) Failed() bool {
	return !s.Loading && s.Error != ""
}
