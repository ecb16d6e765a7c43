// Package shortcode generates random short-code suggestions.
package shortcode

import (
	"math/rand/v2"

	"github.com/jaevor/go-nanoid"
)

const (
	// DefaultLength is used when a non-positive length is requested.
	DefaultLength = 6

	// Alphabet is the 62-character set every generated code is drawn from.
	Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// secureSource builds a crypto-backed generator. It is a variable so tests can simulate an
// unavailable source.
var secureSource = func(length int) (func() string, error) {
	return nanoid.CustomASCII(Alphabet, length)
}

// Generate returns a random code of the given length drawn uniformly from Alphabet. It uses a
// cryptographically secure source and falls back to math/rand when that source cannot serve
// the request. Uniqueness is not guaranteed; collisions are resolved by the link API.
func Generate(length int) string {
	if length <= 0 {
		length = DefaultLength
	}

	if gen, err := secureSource(length); err == nil {
		return gen()
	}

	return fallback(length)
}

func fallback(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = Alphabet[rand.IntN(len(Alphabet))]
	}
	return string(b)
}
