package pdfextract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTextEmpty(t *testing.T) {
	text, err := ExtractText(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestExtractTextRejectsGarbage(t *testing.T) {
	_, err := ExtractText(strings.NewReader("not a pdf"))
	assert.Error(t, err)
}

func TestIsPDF(t *testing.T) {
	assert.True(t, IsPDF("guide.pdf"))
	assert.True(t, IsPDF("GUIDE.PDF"))
	assert.False(t, IsPDF("guide.md"))
	assert.False(t, IsPDF("f"))
}
