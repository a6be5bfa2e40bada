package shamir

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/hashicorp/vault/shamir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Davincible/shamir-accel/pkg/accel"
	"github.com/Davincible/shamir-accel/pkg/crypto/gf"
	"github.com/Davincible/shamir-accel/pkg/crypto/sss"
	"github.com/Davincible/shamir-accel/pkg/driver"
)

func newAccelerator(t *testing.T) *driver.Driver {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	drv, err := driver.New(accel.New(accel.Config{Logger: logger}), driver.Config{Logger: logger})
	require.NoError(t, err)
	return drv
}

type failingAccelerator struct{ err error }

func (f failingAccelerator) GenerateShare(context.Context, gf.Field, []uint32, uint32) (driver.Result, error) {
	return driver.Result{}, f.err
}

func (f failingAccelerator) Reconstruct(context.Context, gf.Field, []sss.Share) (driver.Result, error) {
	return driver.Result{}, f.err
}

func TestSplitAndCombine(t *testing.T) {
	tests := []struct {
		name      string
		field     gf.Field
		secret    uint32
		parts     int
		threshold int
	}{
		{name: "GF8 2 of 3", field: gf.GF8, secret: 0x42, parts: 3, threshold: 2},
		{name: "GF8 3 of 5", field: gf.GF8, secret: 0xFF, parts: 5, threshold: 3},
		{name: "GF16 4 of 6", field: gf.GF16, secret: 0xABCD, parts: 6, threshold: 4},
		{name: "GF32 3 of 4", field: gf.GF32, secret: 0xDEADBEEF, parts: 4, threshold: 3},
		{name: "zero secret", field: gf.GF16, secret: 0, parts: 3, threshold: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := newAccelerator(t)
			ctx := context.Background()
			config := Config{Field: tt.field, Parts: tt.parts, Threshold: tt.threshold}

			shares, err := Split(ctx, acc, tt.secret, config)
			require.NoError(t, err)
			require.Len(t, shares, tt.parts)

			for i, share := range shares {
				assert.Equal(t, uint32(i+1), share.X)
				assert.Zero(t, share.Y&^tt.field.Mask())
			}

			reconstructed, err := Combine(ctx, acc, tt.field, shares[:tt.threshold])
			require.NoError(t, err)
			assert.Equal(t, tt.secret, reconstructed)

			reconstructed2, err := Combine(ctx, acc, tt.field, shares[tt.parts-tt.threshold:])
			require.NoError(t, err)
			assert.Equal(t, tt.secret, reconstructed2)

			// More shares than the device takes still recover the secret.
			all, err := Combine(ctx, acc, tt.field, shares)
			require.NoError(t, err)
			assert.Equal(t, tt.secret, all)
		})
	}
}

func TestSplitBelowThreshold(t *testing.T) {
	acc := newAccelerator(t)
	ctx := context.Background()
	config := Config{Field: gf.GF32, Parts: 4, Threshold: 3}

	shares, err := Split(ctx, acc, 0x13371337, config)
	require.NoError(t, err)

	// Two shares of a degree-2 polynomial interpolate a different line.
	got, err := Combine(ctx, acc, gf.GF32, shares[:2])
	require.NoError(t, err)
	assert.NotEqual(t, uint32(0x13371337), got)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name      string
		config    Config
		wantError bool
	}{
		{name: "Valid config", config: Config{Field: gf.GF8, Parts: 5, Threshold: 3}},
		{name: "Maximum GF8 parts", config: Config{Field: gf.GF8, Parts: 255, Threshold: 4}},
		{name: "Unknown field", config: Config{Field: gf.Field(9), Parts: 3, Threshold: 2}, wantError: true},
		{name: "Threshold too small", config: Config{Field: gf.GF8, Parts: 5, Threshold: 1}, wantError: true},
		{name: "Threshold above device limit", config: Config{Field: gf.GF8, Parts: 6, Threshold: 5}, wantError: true},
		{name: "Threshold greater than parts", config: Config{Field: gf.GF8, Parts: 2, Threshold: 3}, wantError: true},
		{name: "Parts exceed GF8", config: Config{Field: gf.GF8, Parts: 256, Threshold: 2}, wantError: true},
		{name: "Parts fit GF16", config: Config{Field: gf.GF16, Parts: 256, Threshold: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSplitSecretTooWide(t *testing.T) {
	acc := newAccelerator(t)
	_, err := Split(context.Background(), acc, 0x100, Config{Field: gf.GF8, Parts: 3, Threshold: 2})
	assert.ErrorIs(t, err, ErrSecretTooWide)
}

func TestAcceleratorErrors(t *testing.T) {
	boom := errors.New("bus fault")
	acc := failingAccelerator{err: boom}
	ctx := context.Background()

	_, err := Split(ctx, acc, 1, Config{Field: gf.GF8, Parts: 3, Threshold: 2})
	assert.ErrorIs(t, err, boom)

	_, err = Combine(ctx, acc, gf.GF8, []sss.Share{{X: 1, Y: 1}, {X: 2, Y: 2}})
	assert.ErrorIs(t, err, boom)

	_, err = CombineBytes(ctx, acc, []ByteShare{{Index: 1, Data: []byte{1, 1}}, {Index: 2, Data: []byte{2, 2}}})
	assert.ErrorIs(t, err, boom)
}

func TestCombineInsufficientShares(t *testing.T) {
	acc := newAccelerator(t)

	_, err := Combine(context.Background(), acc, gf.GF8, []sss.Share{{X: 1, Y: 0x47}})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "at least 2 shares")
}

func TestCombineInvalidShares(t *testing.T) {
	acc := newAccelerator(t)

	_, err := Combine(context.Background(), acc, gf.GF8, []sss.Share{{X: 1, Y: 0x47}, {X: 1, Y: 0x48}})
	assert.ErrorIs(t, err, sss.ErrDuplicatePoint)
}

func TestRandomPolynomial(t *testing.T) {
	for _, field := range gf.Fields {
		t.Run(field.String(), func(t *testing.T) {
			for degree := 0; degree <= sss.MaxDegree; degree++ {
				coeffs, err := RandomPolynomial(field, 0x42, degree)
				require.NoError(t, err)
				require.Len(t, coeffs, degree+1)
				assert.Equal(t, uint32(0x42), coeffs[0])
				for _, c := range coeffs {
					assert.Zero(t, c&^field.Mask())
				}
				if degree > 0 {
					assert.NotZero(t, coeffs[degree])
				}
			}
		})
	}

	_, err := RandomPolynomial(gf.GF8, 1, 4)
	assert.ErrorIs(t, err, sss.ErrInvalidDegree)
}

func TestRandomPolynomialTopCoefficientForced(t *testing.T) {
	saved := randReader
	randReader = bytes.NewReader(make([]byte, 64))
	defer func() { randReader = saved }()

	coeffs, err := RandomPolynomial(gf.GF16, 0xBEEF, 3)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0xBEEF, 0, 0, 1}, coeffs)
}

func TestRandomSourceFailure(t *testing.T) {
	saved := randReader
	randReader = bytes.NewReader(nil)
	defer func() { randReader = saved }()

	_, err := Split(context.Background(), newAccelerator(t), 1, Config{Field: gf.GF8, Parts: 3, Threshold: 2})
	assert.Error(t, err)
}

func TestNewShare(t *testing.T) {
	acc := newAccelerator(t)
	ctx := context.Background()
	config := Config{Field: gf.GF16, Parts: 5, Threshold: 3}

	shares, err := Split(ctx, acc, 0x1234, config)
	require.NoError(t, err)

	// Rebuild share 5 from the first three.
	derived, err := NewShare(gf.GF16, shares[:3], 5)
	require.NoError(t, err)
	assert.Equal(t, shares[4], derived)

	// A derived share works like any other.
	secret, err := Combine(ctx, acc, gf.GF16, []sss.Share{shares[0], shares[3], derived})
	require.NoError(t, err)
	assert.Equal(t, uint32(0x1234), secret)
}

func TestNewShareKnownVector(t *testing.T) {
	// f(x) = 0x42 + 0x05x: f(3) = 0x42 ^ 0x0F = 0x4D.
	share, err := NewShare(gf.GF8, []sss.Share{{X: 1, Y: 0x47}, {X: 2, Y: 0x48}}, 3)
	require.NoError(t, err)
	assert.Equal(t, sss.Share{X: 3, Y: 0x4D}, share)
}

func TestNewShareErrors(t *testing.T) {
	shares := []sss.Share{{X: 1, Y: 0x47}, {X: 2, Y: 0x48}}

	_, err := NewShare(gf.GF8, shares, 0)
	assert.ErrorIs(t, err, sss.ErrZeroPoint)

	_, err = NewShare(gf.GF8, shares, 0x100)
	assert.ErrorIs(t, err, sss.ErrZeroPoint)

	_, err = NewShare(gf.GF8, shares, 2)
	assert.ErrorIs(t, err, sss.ErrDuplicatePoint)

	_, err = NewShare(gf.Field(5), shares, 3)
	assert.ErrorIs(t, err, gf.ErrUnknownField)
}

func TestSplitAndCombineBytes(t *testing.T) {
	tests := []struct {
		name      string
		secret    []byte
		parts     int
		threshold int
	}{
		{name: "Simple secret 3 of 5", secret: []byte("my secret data"), parts: 5, threshold: 3},
		{name: "256-bit key 2 of 3", secret: bytes.Repeat([]byte{0x42}, 32), parts: 3, threshold: 2},
		{name: "4 of 4", secret: []byte{0x00, 0xFF, 0x80}, parts: 4, threshold: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := newAccelerator(t)
			ctx := context.Background()

			shares, err := SplitBytes(tt.secret, Config{Parts: tt.parts, Threshold: tt.threshold})
			require.NoError(t, err)
			require.Len(t, shares, tt.parts)

			for i, share := range shares {
				assert.Len(t, share.Data, len(tt.secret)+1)
				assert.Equal(t, byte(i+1), share.Index)
			}

			fromDevice, err := CombineBytes(ctx, acc, shares[:tt.threshold])
			require.NoError(t, err)
			assert.Equal(t, tt.secret, fromDevice)

			fromSoftware, err := CombineBytesSoftware(shares[tt.parts-tt.threshold:])
			require.NoError(t, err)
			assert.Equal(t, tt.secret, fromSoftware)

			fromDevice2, err := CombineBytes(ctx, acc, shares[tt.parts-tt.threshold:])
			require.NoError(t, err)
			assert.Equal(t, fromSoftware, fromDevice2)
		})
	}
}

func TestCombineBytesVaultShares(t *testing.T) {
	secret := []byte("shares made elsewhere")
	raw, err := shamir.Split(secret, 4, 3)
	require.NoError(t, err)

	shares := make([]ByteShare, len(raw))
	for i, data := range raw {
		shares[i] = ByteShare{Index: byte(i + 1), Data: data}
	}

	got, err := CombineBytes(context.Background(), newAccelerator(t), shares[1:])
	require.NoError(t, err)
	assert.Equal(t, secret, got)
}

func TestVerifyByteShares(t *testing.T) {
	tests := []struct {
		name    string
		shares  []ByteShare
		wantErr string
	}{
		{
			name:    "single share",
			shares:  []ByteShare{{Index: 1, Data: []byte{1, 1}}},
			wantErr: "at least 2 shares",
		},
		{
			name:    "empty data",
			shares:  []ByteShare{{Index: 1, Data: []byte{}}, {Index: 2, Data: []byte{2, 2}}},
			wantErr: "empty data",
		},
		{
			name:    "length mismatch",
			shares:  []ByteShare{{Index: 1, Data: []byte{1, 1}}, {Index: 2, Data: []byte{2, 2, 2}}},
			wantErr: "invalid share length",
		},
		{
			name:    "zero x",
			shares:  []ByteShare{{Index: 1, Data: []byte{1, 0}}, {Index: 2, Data: []byte{2, 2}}},
			wantErr: "zero",
		},
		{
			name:    "duplicate x",
			shares:  []ByteShare{{Index: 1, Data: []byte{1, 7}}, {Index: 2, Data: []byte{2, 7}}},
			wantErr: "duplicate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyByteShares(tt.shares)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSplitBytesErrors(t *testing.T) {
	_, err := SplitBytes(nil, Config{Parts: 3, Threshold: 2})
	assert.Error(t, err)

	_, err = SplitBytes([]byte("x"), Config{Parts: 3, Threshold: 5})
	assert.Error(t, err)
}
