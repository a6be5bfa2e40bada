package sss

import "github.com/Davincible/shamir-accel/pkg/crypto/gf"

// Evaluate returns f(x) = coeffs[0] + coeffs[1]*x + ... using Horner's rule.
// The degree is len(coeffs)-1 and must be between 0 and MaxDegree.
func Evaluate(e *gf.Engine, coeffs []uint32, x uint32) (uint32, error) {
	if err := CheckDegree(len(coeffs) - 1); err != nil {
		return 0, err
	}

	acc := coeffs[len(coeffs)-1] & e.Mask()
	for i := len(coeffs) - 2; i >= 0; i-- {
		acc = e.Add(e.Mul(acc, x), coeffs[i]&e.Mask())
	}
	return acc, nil
}
