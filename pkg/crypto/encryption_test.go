package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c, err := NewCipher("test-secret")
	require.NoError(t, err)

	values := []string{
		"EAAGm0PX4ZCpsBO1234567890",
		"AC00000000000000000000000000000000",
		"+14155238886",
		"short",
		"value with spaces and ünïcode ✓",
	}

	for _, v := range values {
		encrypted, err := c.Encrypt(v)
		require.NoError(t, err)
		assert.NotEqual(t, v, encrypted)
		assert.Equal(t, v, c.Decrypt(encrypted))
	}
}

func TestEncryptEmptyValue(t *testing.T) {
	c, err := NewCipher("test-secret")
	require.NoError(t, err)

	encrypted, err := c.Encrypt("")
	require.NoError(t, err)
	assert.Equal(t, "", encrypted)
	assert.Equal(t, "", c.Decrypt(""))
}

func TestEncryptIsNonDeterministic(t *testing.T) {
	c, err := NewCipher("test-secret")
	require.NoError(t, err)

	first, err := c.Encrypt("same value")
	require.NoError(t, err)
	second, err := c.Encrypt("same value")
	require.NoError(t, err)

	// Random nonce per encryption
	assert.NotEqual(t, first, second)
	assert.Equal(t, "same value", c.Decrypt(first))
	assert.Equal(t, "same value", c.Decrypt(second))
}

func TestDecryptMalformedCiphertext(t *testing.T) {
	c, err := NewCipher("test-secret")
	require.NoError(t, err)

	cases := []string{
		"not base64 at all!!!",
		"YWJj", // valid base64, too short for a nonce
		"YWJjZGVmZ2hpamtsbW5vcHFyc3R1dnd4eXo=",
	}

	for _, tc := range cases {
		assert.Equal(t, "", c.Decrypt(tc))
	}
}

func TestDecryptTamperedCiphertext(t *testing.T) {
	c, err := NewCipher("test-secret")
	require.NoError(t, err)

	encrypted, err := c.Encrypt("sensitive token")
	require.NoError(t, err)

	tampered := []byte(encrypted)
	tampered[len(tampered)-5] ^= 0x01

	assert.Equal(t, "", c.Decrypt(string(tampered)))
}

func TestDecryptWithWrongSecret(t *testing.T) {
	c1, err := NewCipher("secret-one")
	require.NoError(t, err)
	c2, err := NewCipher("secret-two")
	require.NoError(t, err)

	encrypted, err := c1.Encrypt("credential")
	require.NoError(t, err)

	assert.Equal(t, "", c2.Decrypt(encrypted))
	assert.Equal(t, "credential", c1.Decrypt(encrypted))
}
