package sss

import (
	"fmt"

	"github.com/Davincible/shamir-accel/pkg/crypto/gf"
)

// Reconstruct returns the constant term of the unique polynomial of degree
// len(shares)-1 through shares. Coordinates are truncated to the field width
// before validation.
func Reconstruct(e *gf.Engine, shares []Share) (uint32, error) {
	shares = Truncate(e, shares)
	if err := CheckShares(shares); err != nil {
		return 0, err
	}

	var secret uint32
	for i := range shares {
		secret = e.Add(secret, termAt(e, shares, i, 0))
	}
	return secret, nil
}

// InterpolateAt evaluates the polynomial through shares at x.
func InterpolateAt(e *gf.Engine, shares []Share, x uint32) (uint32, error) {
	shares = Truncate(e, shares)
	if err := CheckShares(shares); err != nil {
		return 0, err
	}

	var result uint32
	for i := range shares {
		result = e.Add(result, termAt(e, shares, i, x))
	}
	return result, nil
}

// termAt returns y_i * prod_{j!=i} (x - x_j) / (x_i - x_j). shares must
// already be truncated and satisfy CheckShares.
func termAt(e *gf.Engine, shares []Share, i int, x uint32) uint32 {
	num := uint32(1)
	den := uint32(1)

	for j, sj := range shares {
		if j == i {
			continue
		}
		num = e.Mul(num, e.Sub(x, sj.X))
		den = e.Mul(den, e.Sub(shares[i].X, sj.X))
	}

	coeff, err := e.Div(num, den)
	if err != nil {
		panic(fmt.Sprintf("sss: interpolation denominator vanished for share %d: %v", i, err))
	}
	return e.Mul(shares[i].Y, coeff)
}

// Truncate returns a copy of shares with both coordinates masked to the
// field width.
func Truncate(e *gf.Engine, shares []Share) []Share {
	out := make([]Share, len(shares))
	for i, s := range shares {
		out[i] = Share{X: s.X & e.Mask(), Y: s.Y & e.Mask()}
	}
	return out
}
