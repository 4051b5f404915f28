package services

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

// SecretBox encrypts/decrypts NotificationChannel secrets (api_token,
// api_sid) at rest, the Go equivalent of the original source's Fernet
// usage in notification_channel.py's parse(). No example repo in the
// pack depends on a Fernet-equivalent authenticated-encryption library,
// so this derives a per-process AES-256-GCM key from the configured
// NOTIFICATION_KEY via golang.org/x/crypto/hkdf (already a teacher
// dependency through golang.org/x/crypto) rather than introducing an
// unproven new module.
type SecretBox struct {
	key [32]byte
}

func NewSecretBox(notificationKey string) (*SecretBox, error) {
	if notificationKey == "" {
		return nil, errors.New("notification key must not be empty")
	}
	h := hkdf.New(sha256.New, []byte(notificationKey), nil, []byte("alert-center/notification-channel"))
	var key [32]byte
	if _, err := io.ReadFull(h, key[:]); err != nil {
		return nil, err
	}
	return &SecretBox{key: key}, nil
}

func (s *SecretBox) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(s.key[:])
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
	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

func (s *SecretBox) Decrypt(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	block, err := aes.NewCipher(s.key[:])
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	if len(raw) < gcm.NonceSize() {
		return "", errors.New("ciphertext too short")
	}
	nonce, ciphertext := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
