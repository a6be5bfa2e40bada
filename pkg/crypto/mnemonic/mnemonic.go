// Package mnemonic converts BIP39 phrases to and from the entropy bytes that
// get split into byte-string shares.
package mnemonic

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"

	"github.com/Davincible/shamir-accel/pkg/secure"
)

const (
	MinEntropyBits = 128
	MaxEntropyBits = 256
)

// Generate returns a fresh phrase carrying entropyBits of randomness.
func Generate(entropyBits int) (string, error) {
	if entropyBits < MinEntropyBits || entropyBits > MaxEntropyBits {
		return "", fmt.Errorf("entropy bits must be between %d and %d", MinEntropyBits, MaxEntropyBits)
	}
	if entropyBits%32 != 0 {
		return "", fmt.Errorf("entropy bits must be a multiple of 32")
	}

	entropy, err := bip39.NewEntropy(entropyBits)
	if err != nil {
		return "", fmt.Errorf("failed to generate entropy: %w", err)
	}

	return FromEntropy(entropy)
}

// Normalize lowercases a phrase and collapses runs of whitespace.
func Normalize(phrase string) string {
	return strings.Join(strings.Fields(strings.ToLower(phrase)), " ")
}

// ToEntropy validates a phrase, including its checksum, and returns the
// entropy it encodes.
func ToEntropy(phrase string) ([]byte, error) {
	phrase = Normalize(phrase)
	if !bip39.IsMnemonicValid(phrase) {
		return nil, fmt.Errorf("invalid mnemonic phrase")
	}

	entropy, err := bip39.EntropyFromMnemonic(phrase)
	if err != nil {
		return nil, fmt.Errorf("failed to get entropy from mnemonic: %w", err)
	}
	return entropy, nil
}

// FromEntropy encodes 16-32 bytes of entropy as a phrase.
func FromEntropy(entropy []byte) (string, error) {
	if len(entropy) < MinEntropyBits/8 || len(entropy) > MaxEntropyBits/8 {
		return "", fmt.Errorf("entropy must be between %d and %d bytes, got %d",
			MinEntropyBits/8, MaxEntropyBits/8, len(entropy))
	}
	if len(entropy)%4 != 0 {
		return "", fmt.Errorf("entropy length must be a multiple of 4")
	}

	phrase, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("failed to generate mnemonic from entropy: %w", err)
	}
	return phrase, nil
}

// Fingerprint identifies a phrase without revealing it: the first four
// bytes of SHA-256 over its entropy, in hex.
func Fingerprint(phrase string) (string, error) {
	entropy, err := ToEntropy(phrase)
	if err != nil {
		return "", err
	}

	h := sha256.Sum256(entropy)
	return hex.EncodeToString(h[:4]), nil
}

// Equal compares two phrases after normalization in constant time.
func Equal(a, b string) bool {
	return secure.ConstantTimeCompare([]byte(Normalize(a)), []byte(Normalize(b)))
}
