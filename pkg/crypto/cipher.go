package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
)

var (
	ErrInvalidKey        = errors.New("encryption key must be 32 bytes (64 hex chars)")
	ErrMalformedPayload  = errors.New("malformed ciphertext")
	ErrDecryptionFailure = errors.New("decryption failed")
)

// Cipher encrypts and decrypts small payloads with AES-256-GCM.
// Ciphertexts are hex encoded with the nonce prepended.
type Cipher struct {
	key []byte
}

// NewCipher creates a Cipher from a 32-byte hex-encoded key
func NewCipher(keyHex string) (*Cipher, error) {
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, ErrInvalidKey
	}
	if len(key) != 32 {
		return nil, ErrInvalidKey
	}
	return &Cipher{key: key}, nil
}

// Encrypt seals plaintext and returns a hex-encoded ciphertext
func (c *Cipher) Encrypt(plaintext []byte) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, plaintext, nil)
	return hex.EncodeToString(ciphertext), nil
}

// Decrypt opens a hex-encoded ciphertext produced by Encrypt
func (c *Cipher) Decrypt(ciphertextHex string) ([]byte, error) {
	ciphertext, err := hex.DecodeString(ciphertextHex)
	if err != nil {
		return nil, ErrMalformedPayload
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, ErrMalformedPayload
	}

	nonce, ciphertext := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailure
	}
	return plaintext, nil
}
