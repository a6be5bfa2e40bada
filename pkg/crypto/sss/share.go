// Package sss holds the three compute units of the accelerator: the
// polynomial evaluator, the Lagrange reconstructor and the brute-force
// searcher. All of them are pure functions of a gf.Engine and their
// operands; the only state is the Search cursor, which belongs to its caller.
package sss

import (
	"errors"
	"fmt"
)

const (
	// MaxDegree is the highest polynomial degree the coefficient slots hold.
	MaxDegree = 3

	// MaxShares is the number of share slots.
	MaxShares = 4
)

var (
	ErrInvalidDegree  = errors.New("sss: polynomial degree out of range")
	ErrShareCount     = errors.New("sss: share count out of range")
	ErrDuplicatePoint = errors.New("sss: duplicate x coordinate")
	ErrZeroPoint      = errors.New("sss: x coordinate is zero")
)

// Share is one point (X, Y) on a polynomial.
type Share struct {
	X uint32 `json:"x"`
	Y uint32 `json:"y"`
}

func (s Share) String() string {
	return fmt.Sprintf("(0x%X, 0x%X)", s.X, s.Y)
}

// CheckDegree validates a polynomial degree.
func CheckDegree(degree int) error {
	if degree < 0 || degree > MaxDegree {
		return fmt.Errorf("%w: %d (want 0-%d)", ErrInvalidDegree, degree, MaxDegree)
	}
	return nil
}

// CheckShares validates a share set for interpolation: 1 to MaxShares shares
// with distinct nonzero x coordinates.
func CheckShares(shares []Share) error {
	if len(shares) < 1 || len(shares) > MaxShares {
		return fmt.Errorf("%w: %d (want 1-%d)", ErrShareCount, len(shares), MaxShares)
	}
	for i, si := range shares {
		if si.X == 0 {
			return fmt.Errorf("%w: share %d", ErrZeroPoint, i)
		}
		for j := i + 1; j < len(shares); j++ {
			if si.X == shares[j].X {
				return fmt.Errorf("%w: shares %d and %d have x=0x%X", ErrDuplicatePoint, i, j, si.X)
			}
		}
	}
	return nil
}
