// Package shamir splits and combines secrets using the accelerator for the
// field arithmetic. Field-element secrets use the device in any width; byte
// strings use the hashicorp/vault share layout over GF(2^8).
package shamir

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/hashicorp/vault/shamir"

	"github.com/Davincible/shamir-accel/pkg/crypto/gf"
	"github.com/Davincible/shamir-accel/pkg/crypto/sss"
	"github.com/Davincible/shamir-accel/pkg/driver"
	"github.com/Davincible/shamir-accel/pkg/secure"
)

// ErrSecretTooWide is returned when a secret does not fit the field.
var ErrSecretTooWide = errors.New("secret does not fit the field")

// randReader is swapped in tests.
var randReader io.Reader = rand.Reader

// Accelerator is the device surface needed to split and combine.
type Accelerator interface {
	GenerateShare(ctx context.Context, field gf.Field, coeffs []uint32, x uint32) (driver.Result, error)
	Reconstruct(ctx context.Context, field gf.Field, shares []sss.Share) (driver.Result, error)
}

type Config struct {
	Field     gf.Field
	Parts     int
	Threshold int
}

func (c *Config) Validate() error {
	if !c.Field.Valid() {
		return fmt.Errorf("%w: %d", gf.ErrUnknownField, uint32(c.Field))
	}
	if c.Threshold < 2 {
		return fmt.Errorf("threshold must be at least 2, got %d", c.Threshold)
	}
	if c.Threshold > sss.MaxShares {
		return fmt.Errorf("threshold cannot exceed %d, got %d", sss.MaxShares, c.Threshold)
	}
	if c.Threshold > c.Parts {
		return fmt.Errorf("threshold (%d) cannot be greater than parts (%d)", c.Threshold, c.Parts)
	}
	if limit := c.Field.Size() - 1; uint64(c.Parts) > limit {
		return fmt.Errorf("parts cannot exceed %d in %s, got %d", limit, c.Field, c.Parts)
	}
	return nil
}

// Split generates Parts shares of secret at x = 1..Parts, any Threshold of
// which recover it. Each share is evaluated on the device.
func Split(ctx context.Context, acc Accelerator, secret uint32, config Config) ([]sss.Share, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if secret&^config.Field.Mask() != 0 {
		return nil, fmt.Errorf("%w: 0x%X in %s", ErrSecretTooWide, secret, config.Field)
	}

	coeffs, err := RandomPolynomial(config.Field, secret, config.Threshold-1)
	if err != nil {
		return nil, err
	}
	defer secure.ZeroWords(coeffs)

	shares := make([]sss.Share, config.Parts)
	for i := range shares {
		x := uint32(i + 1)
		res, err := acc.GenerateShare(ctx, config.Field, coeffs, x)
		if err != nil {
			return nil, fmt.Errorf("failed to generate share %d: %w", x, err)
		}
		shares[i] = sss.Share{X: x, Y: res.Value}
	}

	return shares, nil
}

// Combine recovers the secret on the device. At most MaxShares shares are
// used; any extra shares are ignored.
func Combine(ctx context.Context, acc Accelerator, field gf.Field, shares []sss.Share) (uint32, error) {
	if len(shares) < 2 {
		return 0, fmt.Errorf("at least 2 shares are required for reconstruction")
	}
	if len(shares) > sss.MaxShares {
		shares = shares[:sss.MaxShares]
	}

	res, err := acc.Reconstruct(ctx, field, shares)
	if err != nil {
		return 0, fmt.Errorf("failed to combine shares: %w", err)
	}
	return res.Value, nil
}

// NewShare derives the share at x of the polynomial through shares, so a
// lost share can be replaced without recovering the secret first.
func NewShare(field gf.Field, shares []sss.Share, x uint32) (sss.Share, error) {
	eng, err := gf.New(field)
	if err != nil {
		return sss.Share{}, err
	}
	if x&eng.Mask() == 0 {
		return sss.Share{}, fmt.Errorf("%w: new share", sss.ErrZeroPoint)
	}
	for _, s := range shares {
		if s.X&eng.Mask() == x&eng.Mask() {
			return sss.Share{}, fmt.Errorf("%w: x=0x%X already present", sss.ErrDuplicatePoint, x)
		}
	}

	y, err := sss.InterpolateAt(eng, shares, x)
	if err != nil {
		return sss.Share{}, fmt.Errorf("failed to interpolate share: %w", err)
	}
	return sss.Share{X: x & eng.Mask(), Y: y}, nil
}

// RandomPolynomial returns secret followed by degree random coefficients,
// each masked to the field width. The top coefficient is never zero so the
// polynomial has exactly the requested degree.
func RandomPolynomial(field gf.Field, secret uint32, degree int) ([]uint32, error) {
	if err := sss.CheckDegree(degree); err != nil {
		return nil, err
	}

	raw, err := GenerateRandomBytes(4 * degree)
	if err != nil {
		return nil, err
	}
	defer secure.Zero(raw)

	coeffs := make([]uint32, degree+1)
	coeffs[0] = secret & field.Mask()
	for i := 1; i <= degree; i++ {
		coeffs[i] = binary.LittleEndian.Uint32(raw[4*(i-1):]) & field.Mask()
	}
	if degree > 0 && coeffs[degree] == 0 {
		coeffs[degree] = 1
	}
	return coeffs, nil
}

// ByteShare is one share of a byte string in the vault layout: the y bytes
// followed by a single x byte.
type ByteShare struct {
	Index byte   `json:"index"`
	Data  []byte `json:"data"`
}

// X returns the share's x coordinate.
func (s ByteShare) X() byte {
	return s.Data[len(s.Data)-1]
}

// SplitBytes splits a byte string over GF(2^8). Config.Field is ignored.
func SplitBytes(secret []byte, config Config) ([]ByteShare, error) {
	config.Field = gf.GF8
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if len(secret) == 0 {
		return nil, fmt.Errorf("secret cannot be empty")
	}

	shares, err := shamir.Split(secret, config.Parts, config.Threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to split secret: %w", err)
	}

	result := make([]ByteShare, len(shares))
	for i, share := range shares {
		result[i] = ByteShare{
			Index: byte(i + 1),
			Data:  share,
		}
	}

	return result, nil
}

// CombineBytes recovers a byte string by running every byte position
// through the device's GF(2^8) reconstruction.
func CombineBytes(ctx context.Context, acc Accelerator, shares []ByteShare) ([]byte, error) {
	if err := VerifyByteShares(shares); err != nil {
		return nil, err
	}
	if len(shares) > sss.MaxShares {
		shares = shares[:sss.MaxShares]
	}

	n := len(shares[0].Data) - 1
	secret := make([]byte, n)
	points := make([]sss.Share, len(shares))
	for pos := 0; pos < n; pos++ {
		for i, s := range shares {
			points[i] = sss.Share{X: uint32(s.X()), Y: uint32(s.Data[pos])}
		}
		res, err := acc.Reconstruct(ctx, gf.GF8, points)
		if err != nil {
			clear(points)
			return nil, fmt.Errorf("failed to combine byte %d: %w", pos, err)
		}
		secret[pos] = byte(res.Value)
	}
	clear(points)

	return secret, nil
}

// CombineBytesSoftware recovers a byte string with vault's software
// implementation, for cross-checking the device.
func CombineBytesSoftware(shares []ByteShare) ([]byte, error) {
	if err := VerifyByteShares(shares); err != nil {
		return nil, err
	}

	shareBytes := make([][]byte, len(shares))
	for i, share := range shares {
		shareBytes[i] = share.Data
	}

	secret, err := shamir.Combine(shareBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to combine shares: %w", err)
	}
	return secret, nil
}

// VerifyByteShares checks that shares can be combined: at least two, equal
// lengths, and distinct nonzero x bytes.
func VerifyByteShares(shares []ByteShare) error {
	if len(shares) < 2 {
		return fmt.Errorf("at least 2 shares are required for reconstruction")
	}

	seen := make(map[byte]bool, len(shares))
	for _, share := range shares {
		if len(share.Data) < 2 {
			return fmt.Errorf("share %d has empty data", share.Index)
		}
		if len(share.Data) != len(shares[0].Data) {
			return fmt.Errorf("invalid share length: expected %d, got %d", len(shares[0].Data), len(share.Data))
		}
		x := share.X()
		if x == 0 {
			return fmt.Errorf("%w: share %d", sss.ErrZeroPoint, share.Index)
		}
		if seen[x] {
			return fmt.Errorf("%w: share %d", sss.ErrDuplicatePoint, share.Index)
		}
		seen[x] = true
	}
	return nil
}

func GenerateRandomBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("invalid length: %d", n)
	}

	b := make([]byte, n)
	if _, err := io.ReadFull(randReader, b); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return b, nil
}
