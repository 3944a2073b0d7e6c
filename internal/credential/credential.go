// Package credential はパスワードの保存形式を扱います。
package credential

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/chacha20poly1305"
)

// Store はパスワードを保存用に変換し、照合します。
type Store interface {
	Encrypt(password string) (string, error)
	Matches(stored, password string) bool
}

var ErrMalformed = errors.New("malformed encrypted password")

// Cipher は XChaCha20-Poly1305 による可逆暗号化です。
// 保存値は base64(nonce || ciphertext) です。
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher は32バイトの鍵から Cipher を作成します。
func NewCipher(key []byte) (*Cipher, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create password cipher: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt はパスワードを暗号化します。
func (c *Cipher) Encrypt(password string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(password)+c.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(password), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt は保存値からパスワードを復号します。
func (c *Cipher) Decrypt(stored string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(stored)
	if err != nil {
		return "", ErrMalformed
	}
	if len(raw) < c.aead.NonceSize() {
		return "", ErrMalformed
	}
	nonce, sealed := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plain, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt password: %w", err)
	}
	return string(plain), nil
}

// Matches は復号した値と入力されたパスワードを比較します。
func (c *Cipher) Matches(stored, password string) bool {
	plain, err := c.Decrypt(stored)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(plain), []byte(password)) == 1
}

// Bcrypt は不可逆のハッシュ方式です。
type Bcrypt struct {
	Cost int
}

func (b Bcrypt) Encrypt(password string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func (b Bcrypt) Matches(stored, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
}

// New は方式名に応じた Store を返します。
func New(scheme string, key []byte) (Store, error) {
	switch scheme {
	case "cipher":
		return NewCipher(key)
	case "bcrypt":
		return Bcrypt{}, nil
	default:
		return nil, fmt.Errorf("unknown password scheme %q", scheme)
	}
}
