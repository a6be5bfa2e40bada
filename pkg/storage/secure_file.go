// Package storage keeps share sets in password-encrypted JSON files:
// PBKDF2-SHA256 derives an AES-256-GCM key from the password and a random
// salt, and the iteration count travels with the file.
package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/pbkdf2"

	"github.com/Davincible/shamir-accel/pkg/secure"
)

const (
	SaltSize          = 32
	NonceSize         = 12
	KeySize           = 32
	DefaultIterations = 100000

	envelopeVersion = 1
)

var (
	ErrEmptyPassword = errors.New("password cannot be empty")

	// ErrDecrypt covers both a wrong password and a tampered file; GCM
	// cannot tell them apart.
	ErrDecrypt = errors.New("failed to decrypt: wrong password or corrupted file")
)

// EncryptedData is the on-disk envelope.
type EncryptedData struct {
	Version    int    `json:"version"`
	Iterations int    `json:"iterations"`
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// Seal encrypts data under password.
func Seal(data, password []byte, iterations int) (*EncryptedData, error) {
	if len(password) == 0 {
		return nil, ErrEmptyPassword
	}
	if iterations < 1 {
		iterations = DefaultIterations
	}

	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	gcm, err := newGCM(password, salt, iterations)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return &EncryptedData{
		Version:    envelopeVersion,
		Iterations: iterations,
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: gcm.Seal(nil, nonce, data, nil),
	}, nil
}

// Open decrypts an envelope produced by Seal.
func Open(encrypted *EncryptedData, password []byte) ([]byte, error) {
	if len(password) == 0 {
		return nil, ErrEmptyPassword
	}
	if encrypted.Version != envelopeVersion {
		return nil, fmt.Errorf("unsupported envelope version %d", encrypted.Version)
	}
	if encrypted.Iterations < 1 || len(encrypted.Salt) != SaltSize || len(encrypted.Nonce) != NonceSize {
		return nil, fmt.Errorf("malformed envelope")
	}

	gcm, err := newGCM(password, encrypted.Salt, encrypted.Iterations)
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, encrypted.Nonce, encrypted.Ciphertext, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

func newGCM(password, salt []byte, iterations int) (cipher.AEAD, error) {
	key := pbkdf2.Key(password, salt, iterations, KeySize, sha256.New)
	defer secure.Zero(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// SecureFile is an encrypted file on disk.
type SecureFile struct {
	path       string
	iterations int
}

func NewSecureFile(path string, iterations int) *SecureFile {
	return &SecureFile{
		path:       path,
		iterations: iterations,
	}
}

func (s *SecureFile) Path() string {
	return s.path
}

func (s *SecureFile) Save(data, password []byte) error {
	encrypted, err := Seal(data, password, s.iterations)
	if err != nil {
		return err
	}

	jsonData, err := json.MarshalIndent(encrypted, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal encrypted data: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(s.path, jsonData, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

func (s *SecureFile) Load(password []byte) ([]byte, error) {
	jsonData, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var encrypted EncryptedData
	if err := json.Unmarshal(jsonData, &encrypted); err != nil {
		return nil, fmt.Errorf("failed to unmarshal encrypted data: %w", err)
	}

	return Open(&encrypted, password)
}

func (s *SecureFile) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Delete overwrites the file with random bytes before removing it.
func (s *SecureFile) Delete() error {
	if !s.Exists() {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read file for secure deletion: %w", err)
	}

	if err := secure.RandomOverwrite(data); err != nil {
		return fmt.Errorf("failed to overwrite file: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to overwrite file: %w", err)
	}

	return os.Remove(s.path)
}
