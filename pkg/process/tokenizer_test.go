package process

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetTokenizer() {
	codecMu.Lock()
	defaultCodec = nil
	initialized = false
	codecMu.Unlock()
}

func TestInitTokenizer(t *testing.T) {
	resetTokenizer()

	err := InitTokenizer("cl100k_base")
	require.NoError(t, err)
	assert.True(t, IsInitialized())
}

func TestInitTokenizer_DefaultEncoding(t *testing.T) {
	resetTokenizer()

	err := InitTokenizer("")
	require.NoError(t, err)
	assert.True(t, IsInitialized())
}

func TestInitTokenizer_UnknownEncodingFallsBack(t *testing.T) {
	resetTokenizer()

	err := InitTokenizer("not_a_real_encoding")
	require.NoError(t, err)
	assert.True(t, IsInitialized())
}

func TestCountTokens_Initialized(t *testing.T) {
	resetTokenizer()
	require.NoError(t, InitTokenizer("cl100k_base"))

	count := CountTokens("Hello, world!")
	assert.Positive(t, count)
	// "Hello, world!" should be about 3-4 tokens
	assert.LessOrEqual(t, count, 10)
}

func TestCountTokens_Uninitialized(t *testing.T) {
	resetTokenizer()

	// Without a tokenizer, the count is the -1 sentinel so callers can tell
	// "unavailable" from a real zero
	assert.Equal(t, -1, CountTokens("Hello, world! This is a test."))
	assert.Equal(t, -1, CountTokens(""))
}

func TestCountTokens_EmptyString(t *testing.T) {
	resetTokenizer()
	require.NoError(t, InitTokenizer("cl100k_base"))

	assert.Equal(t, 0, CountTokens(""))
}
