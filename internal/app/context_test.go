package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembleContextStopsAtFirstOverflow(t *testing.T) {
	tok := fixedTokenizer{"a": 800, "b": 900, "c": 500, "d": 10}

	window, err := AssembleContext([]string{"a", "b", "c", "d"}, 2100, tok)
	require.NoError(t, err)

	assert.Equal(t, "a\n---\nb\n---\n", window.Text)
	assert.Equal(t, 1700, window.Tokens)
	assert.Equal(t, 2, window.Included)
}

func TestAssembleContextExactBudgetIsIncluded(t *testing.T) {
	tok := fixedTokenizer{"a": 1000, "b": 1100}

	window, err := AssembleContext([]string{"a", "b"}, 2100, tok)
	require.NoError(t, err)
	assert.Equal(t, 2, window.Included)
	assert.Equal(t, 2100, window.Tokens)
}

func TestAssembleContextFirstSectionTooLarge(t *testing.T) {
	tok := fixedTokenizer{"huge": 3000, "small": 1}

	window, err := AssembleContext([]string{"huge", "small"}, 2100, tok)
	require.NoError(t, err)
	assert.Equal(t, "", window.Text)
	assert.Zero(t, window.Included)
}

func TestAssembleContextTrimsEachSection(t *testing.T) {
	window, err := AssembleContext([]string{"  one two \n", "\tthree"}, 10, wordTokenizer{})
	require.NoError(t, err)
	assert.Equal(t, "one two\n---\nthree\n---\n", window.Text)
	assert.Equal(t, 3, window.Tokens)
}

func TestAssembleContextTokenizerError(t *testing.T) {
	_, err := AssembleContext([]string{"unknown"}, 10, fixedTokenizer{})
	assert.Error(t, err)

	_, err = AssembleContext([]string{"x"}, 10, nil)
	assert.ErrorIs(t, err, ErrNoTokenizer)
}
