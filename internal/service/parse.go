package service

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
)

var errTrailingData = errors.New("unexpected data after JSON value")

// ParseOrDefault decodes raw model output into T and runs validate on it. Any failure (the
// fence-stripped text is not exactly one JSON value of T's shape, or validate returns false)
// yields def. It never returns an error.
func ParseOrDefault[T any](raw string, def T, validate func(T) bool) T {
	v, err := decodeStrict[T](stripCodeFence(raw))
	if err != nil {
		return def
	}

	if validate != nil && !validate(v) {
		return def
	}

	return v
}

func decodeStrict[T any](s string) (T, error) {
	var v T

	dec := json.NewDecoder(strings.NewReader(s))

	if err := dec.Decode(&v); err != nil {
		return v, err
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return v, errTrailingData
	}

	return v, nil
}

// stripCodeFence removes a surrounding ``` or ```json fence that chat models often add.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	// The language tag may be followed by a newline or sit on the same line as the payload.
	s = strings.TrimLeftFunc(s, func(r rune) bool {
		return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
	})

	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")

	return strings.TrimSpace(s)
}
