// Package secure has helpers for handling secret material in memory.
package secure

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"runtime"
)

// Zero overwrites b with zeros.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}

// ZeroWords overwrites field elements with zeros.
func ZeroWords(w []uint32) {
	for i := range w {
		w[i] = 0
	}
	runtime.KeepAlive(w)
}

// RandomOverwrite fills b with random bytes and then zeros.
func RandomOverwrite(b []byte) error {
	if _, err := rand.Read(b); err != nil {
		return fmt.Errorf("failed to overwrite with random data: %w", err)
	}
	Zero(b)
	return nil
}

func ConstantTimeCompare(x, y []byte) bool {
	if len(x) != len(y) {
		return false
	}
	return subtle.ConstantTimeCompare(x, y) == 1
}

// EqualWord compares two field elements in constant time.
func EqualWord(x, y uint32) bool {
	return subtle.ConstantTimeEq(int32(x), int32(y)) == 1
}
