package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyForIsStableAndScoped(t *testing.T) {
	a := keyFor("service", "What is a token?")
	assert.Equal(t, a, keyFor("service", "What is a token?"))
	assert.NotEqual(t, a, keyFor("openai:text-embedding-3-small", "What is a token?"))
	assert.NotEqual(t, a, keyFor("service", "What is a button?"))
	assert.True(t, strings.HasPrefix(a, "concierge:embedding:"))
	assert.Len(t, strings.TrimPrefix(a, "concierge:embedding:"), 64)
}
