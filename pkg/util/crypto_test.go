package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptCredential(t *testing.T) {
	key := "unit-test-encryption-key"

	sealed, err := EncryptCredential("s3cr3t-pa55word", key)
	require.NoError(t, err)
	assert.NotContains(t, sealed, "s3cr3t")

	plain, err := DecryptCredential(sealed, key)
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t-pa55word", plain)
}

func TestEncryptCredentialNonDeterministic(t *testing.T) {
	key := "unit-test-encryption-key"
	a, err := EncryptCredential("same input", key)
	require.NoError(t, err)
	b, err := EncryptCredential("same input", key)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDecryptCredentialWrongKey(t *testing.T) {
	sealed, err := EncryptCredential("payload", "key-one")
	require.NoError(t, err)

	_, err = DecryptCredential(sealed, "key-two")
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestDecryptCredentialMalformed(t *testing.T) {
	for _, input := range []string{"", "not base64!!", "QQ=="} {
		_, err := DecryptCredential(input, "key")
		assert.ErrorIs(t, err, ErrDecrypt, input)
	}
}

func TestGetRandomString(t *testing.T) {
	s := GetRandomString(16)
	assert.Len(t, s, 16)
	assert.NotEqual(t, s, GetRandomString(16))
}
