package servers

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

// DefaultPassphrase is used when CATALOGPILOT_PASSPHRASE is not set. It keeps
// passwords out of plain sight in the CSV; it is not a secret.
const DefaultPassphrase = "catalogpilot-server-list"

// EncryptedPrefix marks an encrypted CSV value.
const EncryptedPrefix = "enc:"

const (
	saltSize  = 16
	nonceSize = 24
	keySize   = 32
)

// ErrDecrypt is returned when a value cannot be opened with the passphrase.
var ErrDecrypt = errors.New("failed to decrypt value")

// Cipher seals and opens server passwords with a key derived from a
// passphrase. Every value carries its own salt and nonce.
type Cipher struct {
	passphrase []byte
	rand       io.Reader
}

func NewCipher(passphrase string) *Cipher {
	if passphrase == "" {
		passphrase = DefaultPassphrase
	}
	return &Cipher{passphrase: []byte(passphrase), rand: rand.Reader}
}

func (c *Cipher) key(salt []byte) (*[keySize]byte, error) {
	k, err := scrypt.Key(c.passphrase, salt, 1<<15, 8, 1, keySize)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	var key [keySize]byte
	copy(key[:], k)
	return &key, nil
}

// Encrypt returns "enc:" followed by base64(salt | nonce | box).
func (c *Cipher) Encrypt(plain string) (string, error) {
	var salt [saltSize]byte
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(c.rand, salt[:]); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	if _, err := io.ReadFull(c.rand, nonce[:]); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	key, err := c.key(salt[:])
	if err != nil {
		return "", err
	}

	out := make([]byte, 0, saltSize+nonceSize+len(plain)+secretbox.Overhead)
	out = append(out, salt[:]...)
	out = append(out, nonce[:]...)
	out = secretbox.Seal(out, []byte(plain), &nonce, key)
	return EncryptedPrefix + base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt opens a value produced by Encrypt. Values without the prefix are
// returned unchanged.
func (c *Cipher) Decrypt(value string) (string, error) {
	if !IsEncrypted(value) {
		return value, nil
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, EncryptedPrefix))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	if len(raw) < saltSize+nonceSize+secretbox.Overhead {
		return "", fmt.Errorf("%w: value too short", ErrDecrypt)
	}

	var nonce [nonceSize]byte
	copy(nonce[:], raw[saltSize:saltSize+nonceSize])
	key, err := c.key(raw[:saltSize])
	if err != nil {
		return "", err
	}
	plain, ok := secretbox.Open(nil, raw[saltSize+nonceSize:], &nonce, key)
	if !ok {
		return "", fmt.Errorf("%w: wrong passphrase or corrupted value", ErrDecrypt)
	}
	return string(plain), nil
}

// IsEncrypted reports whether value carries the encrypted prefix.
func IsEncrypted(value string) bool {
	return strings.HasPrefix(value, EncryptedPrefix)
}
