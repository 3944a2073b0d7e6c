package credential_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"star-todo/internal/credential"
)

var testKey = bytes.Repeat([]byte{0x42}, 32)

func TestCipher_RoundTrip(t *testing.T) {
	c, err := credential.NewCipher(testKey)
	require.NoError(t, err)

	stored, err := c.Encrypt("pw")
	require.NoError(t, err)
	assert.NotContains(t, stored, "pw")

	plain, err := c.Decrypt(stored)
	require.NoError(t, err)
	assert.Equal(t, "pw", plain)

	assert.True(t, c.Matches(stored, "pw"))
	assert.False(t, c.Matches(stored, "wrong"))
}

func TestCipher_NonceIsRandom(t *testing.T) {
	c, err := credential.NewCipher(testKey)
	require.NoError(t, err)

	a, err := c.Encrypt("same password")
	require.NoError(t, err)
	b, err := c.Encrypt("same password")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestCipher_RejectsTamperedOrForeignValues(t *testing.T) {
	c, err := credential.NewCipher(testKey)
	require.NoError(t, err)
	other, err := credential.NewCipher(bytes.Repeat([]byte{0x07}, 32))
	require.NoError(t, err)

	stored, err := c.Encrypt("pw")
	require.NoError(t, err)

	assert.False(t, other.Matches(stored, "pw"), "別の鍵では復号できないこと")
	assert.False(t, c.Matches("not base64 !!", "pw"))
	assert.False(t, c.Matches("c2hvcnQ", "pw"))

	_, err = c.Decrypt("c2hvcnQ")
	assert.ErrorIs(t, err, credential.ErrMalformed)
}

func TestNewCipher_InvalidKey(t *testing.T) {
	_, err := credential.NewCipher([]byte("short"))
	assert.Error(t, err)
}

func TestBcrypt(t *testing.T) {
	b := credential.Bcrypt{Cost: bcrypt.MinCost}

	stored, err := b.Encrypt("password123")
	require.NoError(t, err)
	assert.True(t, b.Matches(stored, "password123"))
	assert.False(t, b.Matches(stored, "password124"))
}

func TestNew(t *testing.T) {
	s, err := credential.New("cipher", testKey)
	require.NoError(t, err)
	assert.IsType(t, &credential.Cipher{}, s)

	s, err = credential.New("bcrypt", nil)
	require.NoError(t, err)
	assert.IsType(t, credential.Bcrypt{}, s)

	_, err = credential.New("plain", nil)
	assert.Error(t, err)
}
