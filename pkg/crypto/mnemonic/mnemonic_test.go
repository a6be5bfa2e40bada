package mnemonic

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tyler-smith/go-bip39"
)

const zeroPhrase = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestGenerate(t *testing.T) {
	tests := []struct {
		name        string
		entropyBits int
		wantWords   int
		wantError   bool
	}{
		{"128 bits (12 words)", 128, 12, false},
		{"160 bits (15 words)", 160, 15, false},
		{"192 bits (18 words)", 192, 18, false},
		{"224 bits (21 words)", 224, 21, false},
		{"256 bits (24 words)", 256, 24, false},
		{"Invalid: 64 bits", 64, 0, true},
		{"Invalid: 512 bits", 512, 0, true},
		{"Invalid: 129 bits", 129, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			phrase, err := Generate(tt.entropyBits)
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, strings.Fields(phrase), tt.wantWords)
			assert.True(t, bip39.IsMnemonicValid(phrase))
		})
	}
}

func TestToEntropy(t *testing.T) {
	entropy, err := ToEntropy(zeroPhrase)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 16), entropy)

	messy := "  ABANDON abandon\tabandon abandon abandon abandon abandon abandon abandon abandon abandon   about\n"
	entropy, err = ToEntropy(messy)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 16), entropy)

	_, err = ToEntropy(strings.Repeat("invalid ", 12))
	assert.Error(t, err)

	// Valid words, bad checksum.
	_, err = ToEntropy(strings.Repeat("abandon ", 12))
	assert.Error(t, err)
}

func TestFromEntropy(t *testing.T) {
	tests := []struct {
		name      string
		entropy   []byte
		wantWords int
		wantError bool
	}{
		{"16 bytes", make([]byte, 16), 12, false},
		{"32 bytes", bytes.Repeat([]byte{0xFF}, 32), 24, false},
		{"too short", make([]byte, 8), 0, true},
		{"too long", make([]byte, 36), 0, true},
		{"not a multiple of 4", make([]byte, 18), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			phrase, err := FromEntropy(tt.entropy)
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, strings.Fields(phrase), tt.wantWords)

			back, err := ToEntropy(phrase)
			require.NoError(t, err)
			assert.Equal(t, tt.entropy, back)
		})
	}

	phrase, err := FromEntropy(make([]byte, 16))
	require.NoError(t, err)
	assert.Equal(t, zeroPhrase, phrase)
}

func TestFingerprint(t *testing.T) {
	fp, err := Fingerprint(zeroPhrase)
	require.NoError(t, err)
	assert.Len(t, fp, 8)

	again, err := Fingerprint(strings.ToUpper(zeroPhrase))
	require.NoError(t, err)
	assert.Equal(t, fp, again)

	_, err = Fingerprint("not a phrase")
	assert.Error(t, err)
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(zeroPhrase, "  "+strings.ToUpper(zeroPhrase)))
	assert.False(t, Equal(zeroPhrase, strings.Replace(zeroPhrase, "about", "above", 1)))
	assert.False(t, Equal(zeroPhrase, "abandon"))
}
