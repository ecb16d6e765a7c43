package form

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sp3dr4/shortin/internal/domain"
	"github.com/sp3dr4/shortin/internal/pkg/logging"
)

const (
	// DefaultCopyResetDelay is how long Copied stays true after a successful copy.
	DefaultCopyResetDelay = 2 * time.Second

	// FallbackSubmitError is shown when the API gives no message of its own.
	FallbackSubmitError = "Failed to shorten URL"
)

var ErrNoClipboard = errors.New("no clipboard configured")

// Shortener creates short links.
type Shortener interface {
	ShortenLink(ctx context.Context, req domain.ShortenRequest) (*domain.ShortenResult, error)
}

// QRRenderer turns a short URL into a QR data URL and a captioned PNG card.
type QRRenderer interface {
	DataURL(text string) (string, error)
	Card(dataURL, caption string) ([]byte, error)
}

type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

type Option func(*Session)

func WithClipboard(c Clipboard) Option {
	return func(s *Session) { s.clipboard = c }
}

func WithCopyResetDelay(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.copyResetDelay = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// Session owns one form's State and orchestrates the side effects around it. All
// transitions are serialized. Responses to a submit that has since been superseded by a
// newer one are discarded.
type Session struct {
	shortener Shortener
	qr        QRRenderer
	clipboard Clipboard
	logger    *slog.Logger

	copyResetDelay time.Duration

	mu        sync.Mutex
	state     State
	submitGen uint64
	copyGen   uint64
	copyTimer *time.Timer
}

func NewSession(shortener Shortener, qr QRRenderer, opts ...Option) *Session {
	s := &Session{
		shortener:      shortener,
		qr:             qr,
		copyResetDelay: DefaultCopyResetDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) log(ctx context.Context) *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return logging.FromContext(ctx)
}

// State returns a snapshot of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies e and returns the resulting state.
func (s *Session) Dispatch(e Event) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Apply(s.state, e)
	return s.state
}

// Submit sends the current inputs to the shortener and records the outcome.
func (s *Session) Submit(ctx context.Context) State {
	s.mu.Lock()
	s.submitGen++
	gen := s.submitGen
	req := domain.ShortenRequest{URL: s.state.URL, ShortCodeInput: s.state.ShortCodeInput}
	s.state = Apply(s.state, SubmitStart{})
	s.mu.Unlock()

	var ev Event
	res, err := s.shortener.ShortenLink(ctx, req)
	switch {
	case err != nil:
		s.log(ctx).Warn("shorten failed", "url", req.URL, "error", err)
		ev = SubmitError{Message: submitErrorMessage(err)}
	case res == nil:
		ev = SubmitError{Message: FallbackSubmitError}
	default:
		ev = SubmitSuccess{Link: res.ShortenedLink, Warning: res.Warning}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.submitGen {
		s.log(ctx).Debug("discarding stale shorten response", "generation", gen, "current", s.submitGen)
		return s.state
	}
	s.state = Apply(s.state, ev)
	return s.state
}

func submitErrorMessage(err error) string {
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return FallbackSubmitError
}

// ShortURL joins origin and the current result's short code.
func (s *Session) ShortURL(origin string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shortURLLocked(origin)
}

func (s *Session) shortURLLocked(origin string) (string, error) {
	if s.state.Result == nil {
		return "", domain.ErrNoResult
	}
	return JoinShortURL(origin, s.state.Result.ShortCode), nil
}

// JoinShortURL builds origin + "/" + code.
func JoinShortURL(origin, code string) string {
	return strings.TrimRight(origin, "/") + "/" + code
}

// Copy writes the short URL to the clipboard. A failed write is logged and leaves the state
// untouched. Copied resets after the configured delay unless another copy restarts the window.
func (s *Session) Copy(ctx context.Context, origin string) error {
	if s.clipboard == nil {
		return ErrNoClipboard
	}
	shortURL, err := s.ShortURL(origin)
	if err != nil {
		return err
	}

	if err := s.clipboard.WriteText(ctx, shortURL); err != nil {
		s.log(ctx).Warn("copy to clipboard failed", "error", err)
		return fmt.Errorf("copy: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Apply(s.state, CopySuccess{})
	s.copyGen++
	gen := s.copyGen
	if s.copyTimer != nil {
		s.copyTimer.Stop()
	}
	s.copyTimer = time.AfterFunc(s.copyResetDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen == s.copyGen {
			s.state = Apply(s.state, CopyReset{})
		}
	})
	return nil
}

// GenerateQR renders the current short URL as a QR code. Rendering failures hide the QR
// panel and are only logged.
func (s *Session) GenerateQR(ctx context.Context, origin string) error {
	s.mu.Lock()
	shortURL, err := s.shortURLLocked(origin)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	gen := s.submitGen
	s.state = Apply(s.state, QRStart{})
	s.mu.Unlock()

	var ev Event
	dataURL, err := s.qr.DataURL(shortURL)
	if err != nil {
		s.log(ctx).Warn("qr code generation failed", "short_url", shortURL, "error", err)
		ev = QRHide{}
	} else {
		ev = QRSuccess{DataURL: dataURL}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.submitGen {
		return nil
	}
	s.state = Apply(s.state, ev)
	return nil
}

// DownloadQR composes the QR code with the visible short URL and returns the PNG with its
// download filename. It never changes the state.
func (s *Session) DownloadQR(ctx context.Context, origin string) (string, []byte, error) {
	s.mu.Lock()
	shortURL, err := s.shortURLLocked(origin)
	if err != nil {
		s.mu.Unlock()
		return "", nil, err
	}
	code := s.state.Result.ShortCode
	dataURL := s.state.QRCodeDataURL
	s.mu.Unlock()

	if dataURL == "" {
		if dataURL, err = s.qr.DataURL(shortURL); err != nil {
			s.log(ctx).Warn("qr code download failed", "short_url", shortURL, "error", err)
			return "", nil, err
		}
	}

	card, err := s.qr.Card(dataURL, shortURL)
	if err != nil {
		s.log(ctx).Warn("qr code download failed", "short_url", shortURL, "error", err)
		return "", nil, err
	}
	return DownloadFilename(code), card, nil
}

// DownloadFilename is the file name offered for a QR card.
func DownloadFilename(code string) string {
	return "qrcode-" + code + ".png"
}

// Close stops a pending copy reset.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.copyTimer != nil {
		s.copyTimer.Stop()
		s.copyTimer = nil
	}
}
