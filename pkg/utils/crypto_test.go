package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func TestEncryptDecryptRoundTrip(t *testing.T) {
	encrypted, err := Encrypt([]byte("bearer-token-value"), testKey)
	require.NoError(t, err)
	require.NotEqual(t, "bearer-token-value", encrypted)

	decrypted, err := Decrypt(encrypted, testKey)
	require.NoError(t, err)
	require.Equal(t, "bearer-token-value", decrypted)
}

func TestEncryptProducesDistinctCiphertexts(t *testing.T) {
	a, err := Encrypt([]byte("same input"), testKey)
	require.NoError(t, err)
	b, err := Encrypt([]byte("same input"), testKey)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestDecryptWrongKey(t *testing.T) {
	encrypted, err := Encrypt([]byte("secret"), testKey)
	require.NoError(t, err)

	_, err = Decrypt(encrypted, []byte("ffffffffffffffffffffffffffffffff"))
	require.Error(t, err)
}

func TestDecryptGarbage(t *testing.T) {
	_, err := Decrypt("not base64 at all!!!", testKey)
	require.Error(t, err)
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("jwt-secret", "42", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken("jwt-secret", token)
	require.NoError(t, err)
	require.Equal(t, "42", claims.UserID)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("jwt-secret", "42", time.Hour)
	require.NoError(t, err)

	_, err = ValidateToken("other-secret", token)
	require.Error(t, err)
}

func TestValidateTokenExpired(t *testing.T) {
	token, err := GenerateToken("jwt-secret", "42", -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken("jwt-secret", token)
	require.Error(t, err)
}
