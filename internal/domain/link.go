package domain

import "errors"

var (
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrInvalidUpstreamBody = errors.New("upstream returned a non-JSON body")
	ErrNoResult            = errors.New("no shortened link in form state")
)

// ShortenedLink is a link record as produced by the external API. This service never
// mutates it.
type ShortenedLink struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	ShortCode string `json:"shortCode"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
	Count     int    `json:"count"`
}

// ShortenResult is the body of a successful shorten call. Warning is set when the API
// reused an existing code.
type ShortenResult struct {
	ShortenedLink
	Warning string `json:"warning,omitempty"`
}

type ShortenRequest struct {
	URL            string `json:"url"`
	ShortCodeInput string `json:"shortCodeInput,omitempty"`
}

type UpdateRequest struct {
	URL string `json:"url"`
}

// ErrorBody is the error envelope shared by the proxy and the external API.
type ErrorBody struct {
	Error string `json:"error"`
}
