package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey = "0123456789abcdef0123456789abcdef"
	testIV  = "0123456789abcdef"
)

func TestNewCodecValidatesSizes(t *testing.T) {
	_, err := NewCodec("too-short", testIV)
	assert.Error(t, err)

	_, err = NewCodec(testKey, "too-short")
	assert.Error(t, err)

	_, err = NewCodec(testKey+"x", testIV)
	assert.Error(t, err)

	codec, err := NewCodec(testKey, testIV)
	require.NoError(t, err)
	assert.NotNil(t, codec)
}

func TestCodecRoundTrip(t *testing.T) {
	codec, err := NewCodec(testKey, testIV)
	require.NoError(t, err)

	for _, plaintext := range []string{
		"",
		"a pony",
		"exactly sixteen!",
		"Flat 4B, 221 Winter Lane\n90210 Springfield",
		strings.Repeat("long wish ", 100),
	} {
		encrypted, err := codec.Encrypt(plaintext)
		require.NoError(t, err)
		assert.NotEqual(t, plaintext, encrypted)

		decrypted, err := codec.Decrypt(encrypted)
		require.NoError(t, err)
		assert.Equal(t, plaintext, decrypted)
	}
}

func TestCodecDecryptRejectsGarbage(t *testing.T) {
	codec, err := NewCodec(testKey, testIV)
	require.NoError(t, err)

	_, err = codec.Decrypt("not base64 at all!!!")
	assert.Error(t, err)

	// Valid base64 but not a whole cipher block
	_, err = codec.Decrypt("YWJj")
	assert.Error(t, err)
}

func TestGenerateJoinCode(t *testing.T) {
	code := GenerateJoinCode(8)
	assert.Len(t, code, 8)
	for _, r := range code {
		assert.Contains(t, joinCodeAlphabet, string(r))
	}

	// Practically collision-free at this length
	assert.NotEqual(t, code, GenerateJoinCode(8))
}
