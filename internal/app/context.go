package app

import (
	"errors"
	"fmt"
	"strings"
)

// ContextSeparator follows every section included in a context window.
const ContextSeparator = "\n---\n"

var ErrNoTokenizer = errors.New("tokenizer is required")

// ContextWindow is the assembled context text plus what went into it.
type ContextWindow struct {
	Text     string
	Tokens   int
	Included int
}

// AssembleContext walks texts in order, keeping each one while the running
// token count stays within maxTokens. The first text that would exceed the
// budget ends the walk, so a smaller text after it is never considered.
// Token counts are taken on the untrimmed text, and the separator is not counted.
func AssembleContext(texts []string, maxTokens int, tok Tokenizer) (ContextWindow, error) {
	if tok == nil {
		return ContextWindow{}, ErrNoTokenizer
	}
	var (
		b      strings.Builder
		window ContextWindow
	)
	for _, text := range texts {
		n, err := tok.Count(text)
		if err != nil {
			return ContextWindow{}, fmt.Errorf("count context tokens failed: %w", err)
		}
		if window.Tokens+n > maxTokens {
			break
		}
		window.Tokens += n
		window.Included++
		b.WriteString(strings.TrimSpace(text))
		b.WriteString(ContextSeparator)
	}
	window.Text = b.String()
	return window, nil
}
