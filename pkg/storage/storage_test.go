package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Davincible/shamir-accel/pkg/crypto/gf"
	"github.com/Davincible/shamir-accel/pkg/crypto/shamir"
	"github.com/Davincible/shamir-accel/pkg/crypto/sss"
)

// Low iteration count keeps the tests fast.
const testIterations = 1000

func TestSealOpen(t *testing.T) {
	data := []byte("share material")
	password := []byte("correct horse")

	encrypted, err := Seal(data, password, testIterations)
	require.NoError(t, err)
	assert.Equal(t, testIterations, encrypted.Iterations)
	assert.Len(t, encrypted.Salt, SaltSize)
	assert.Len(t, encrypted.Nonce, NonceSize)
	assert.NotContains(t, string(encrypted.Ciphertext), "share material")

	plaintext, err := Open(encrypted, password)
	require.NoError(t, err)
	assert.Equal(t, data, plaintext)

	_, err = Open(encrypted, []byte("wrong"))
	assert.ErrorIs(t, err, ErrDecrypt)

	encrypted.Ciphertext[0] ^= 0xFF
	_, err = Open(encrypted, password)
	assert.ErrorIs(t, err, ErrDecrypt)
}

func TestSealErrors(t *testing.T) {
	_, err := Seal([]byte("x"), nil, testIterations)
	assert.ErrorIs(t, err, ErrEmptyPassword)

	encrypted, err := Seal([]byte("x"), []byte("pw"), 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultIterations, encrypted.Iterations)

	_, err = Open(encrypted, nil)
	assert.ErrorIs(t, err, ErrEmptyPassword)

	bad := *encrypted
	bad.Version = 99
	_, err = Open(&bad, []byte("pw"))
	assert.Error(t, err)

	bad = *encrypted
	bad.Salt = bad.Salt[:4]
	_, err = Open(&bad, []byte("pw"))
	assert.Error(t, err)
}

func TestSecureFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "secret.json")
	file := NewSecureFile(path, testIterations)
	assert.False(t, file.Exists())

	require.NoError(t, file.Save([]byte("payload"), []byte("pw")))
	assert.True(t, file.Exists())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	data, err := file.Load([]byte("pw"))
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)

	require.NoError(t, file.Delete())
	assert.False(t, file.Exists())
	assert.NoError(t, file.Delete())

	_, err = file.Load([]byte("pw"))
	assert.Error(t, err)
}

func TestShareFileFieldShares(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shares.json")
	file := NewShareFile(path, testIterations)

	set := &ShareSet{
		Kind:      KindField,
		Field:     gf.GF16.String(),
		Threshold: 2,
		Shares:    []sss.Share{{X: 1, Y: 0xB9F9}, {X: 2, Y: 0x8FA5}},
	}
	require.NoError(t, file.Save(set, []byte("pw")))

	loaded, err := file.Load([]byte("pw"))
	require.NoError(t, err)
	assert.Equal(t, set, loaded)
}

func TestShareFileByteShares(t *testing.T) {
	shares, err := shamir.SplitBytes([]byte("byte secret"), shamir.Config{Parts: 3, Threshold: 2})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "bytes.json")
	file := NewShareFile(path, testIterations)

	set := &ShareSet{
		Kind:        KindBytes,
		Threshold:   2,
		ByteShares:  shares,
		Fingerprint: "deadbeef",
	}
	require.NoError(t, file.Save(set, []byte("pw")))

	loaded, err := file.Load([]byte("pw"))
	require.NoError(t, err)
	assert.Equal(t, set, loaded)

	secret, err := shamir.CombineBytesSoftware(loaded.ByteShares)
	require.NoError(t, err)
	assert.Equal(t, []byte("byte secret"), secret)
}

func TestShareSetValidate(t *testing.T) {
	tests := []struct {
		name string
		set  ShareSet
	}{
		{name: "unknown kind", set: ShareSet{Kind: "other", Threshold: 2}},
		{name: "threshold too small", set: ShareSet{Kind: KindField, Field: "gf8", Threshold: 1}},
		{name: "unknown field", set: ShareSet{Kind: KindField, Field: "gf64", Threshold: 2, Shares: []sss.Share{{X: 1}, {X: 2}}}},
		{name: "too few shares", set: ShareSet{Kind: KindField, Field: "gf8", Threshold: 3, Shares: []sss.Share{{X: 1}, {X: 2}}}},
		{
			name: "mixed kinds",
			set: ShareSet{
				Kind: KindField, Field: "gf8", Threshold: 2,
				Shares:     []sss.Share{{X: 1}, {X: 2}},
				ByteShares: []shamir.ByteShare{{Index: 1, Data: []byte{1, 1}}},
			},
		},
		{
			name: "bad byte shares",
			set: ShareSet{
				Kind: KindBytes, Threshold: 2,
				ByteShares: []shamir.ByteShare{{Index: 1, Data: []byte{1, 1}}, {Index: 2, Data: []byte{1, 1}}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.set.Validate())

			file := NewShareFile(filepath.Join(t.TempDir(), "s.json"), testIterations)
			assert.Error(t, file.Save(&tt.set, []byte("pw")))
			assert.False(t, file.Exists())
		})
	}
}
