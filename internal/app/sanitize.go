package app

import (
	"encoding/base64"
	"strings"
)

// SanitizeInput collapses newlines to spaces and trims surrounding whitespace.
// Questions and keywords pass through it exactly once, at the service boundary.
func SanitizeInput(s string) string {
	return collapseNewlines(s)
}

// NormalizeAnswer is applied to accumulated answer text before it is stored.
func NormalizeAnswer(s string) string {
	return collapseNewlines(s)
}

func collapseNewlines(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
}

// RequestIdentifier derives the short tag used to correlate log lines of one request.
func RequestIdentifier(raw string) string {
	if raw == "" {
		raw = "missing"
	}
	encoded := base64.StdEncoding.EncodeToString([]byte(raw))
	if len(encoded) <= 7 {
		return encoded
	}
	return encoded[len(encoded)-7:]
}
