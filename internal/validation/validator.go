package validation

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Davincible/shamir-accel/pkg/crypto/gf"
	"github.com/Davincible/shamir-accel/pkg/crypto/sss"
)

var hexPattern = regexp.MustCompile(`^[0-9a-fA-F]+$`)

// ParseElement parses a field element written in hex, with or without a 0x
// prefix, and rejects values wider than the field.
func ParseElement(input string, field gf.Field) (uint32, error) {
	s := strings.TrimSpace(input)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return 0, fmt.Errorf("element cannot be empty")
	}
	if !hexPattern.MatchString(s) {
		return 0, fmt.Errorf("invalid hex characters in %q", input)
	}

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("element %q out of range: %w", input, err)
	}
	if uint32(v)&^field.Mask() != 0 {
		return 0, fmt.Errorf("element %q does not fit %s", input, field)
	}
	return uint32(v), nil
}

// ParseElements parses a comma-separated list of field elements.
func ParseElements(input string, field gf.Field) ([]uint32, error) {
	parts := strings.Split(input, ",")
	out := make([]uint32, 0, len(parts))
	for _, p := range parts {
		v, err := ParseElement(p, field)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// ParseShare parses a share written as "x:y" in hex.
func ParseShare(input string, field gf.Field) (sss.Share, error) {
	xs, ys, ok := strings.Cut(strings.TrimSpace(input), ":")
	if !ok {
		return sss.Share{}, fmt.Errorf("invalid share %q: expected x:y", input)
	}

	x, err := ParseElement(xs, field)
	if err != nil {
		return sss.Share{}, fmt.Errorf("invalid share x: %w", err)
	}
	if x == 0 {
		return sss.Share{}, fmt.Errorf("invalid share %q: %w", input, sss.ErrZeroPoint)
	}

	y, err := ParseElement(ys, field)
	if err != nil {
		return sss.Share{}, fmt.Errorf("invalid share y: %w", err)
	}
	return sss.Share{X: x, Y: y}, nil
}

func ValidateHex(input string) error {
	input = strings.TrimSpace(input)
	if len(input) == 0 {
		return fmt.Errorf("hex string cannot be empty")
	}

	if len(input)%2 != 0 {
		return fmt.Errorf("hex string must have even length")
	}

	if !hexPattern.MatchString(input) {
		return fmt.Errorf("invalid hex characters")
	}

	return nil
}

// ParseByteShare decodes a hex byte-string share: the y bytes followed by
// the x byte.
func ParseByteShare(input string) ([]byte, error) {
	input = strings.TrimSpace(input)
	if err := ValidateHex(input); err != nil {
		return nil, fmt.Errorf("invalid share format: %w", err)
	}

	data, err := hex.DecodeString(input)
	if err != nil {
		return nil, fmt.Errorf("failed to decode share: %w", err)
	}

	if len(data) < 2 {
		return nil, fmt.Errorf("share is too short")
	}

	return data, nil
}

func ValidateSplitParams(parts, threshold int, field gf.Field) error {
	limit := field.Size() - 1
	if parts < 2 || uint64(parts) > limit {
		return fmt.Errorf("parts must be between 2 and %d (got %d)", limit, parts)
	}

	if threshold < 2 || threshold > parts || threshold > sss.MaxShares {
		return fmt.Errorf("threshold must be between 2 and %d (got %d)", min(parts, sss.MaxShares), threshold)
	}

	return nil
}

func ValidatePassphrase(passphrase string) error {
	if len(passphrase) == 0 {
		return fmt.Errorf("passphrase cannot be empty")
	}

	if len(passphrase) > 256 {
		return fmt.Errorf("passphrase too long (max 256 characters)")
	}

	for i, ch := range passphrase {
		if ch == 0 {
			return fmt.Errorf("passphrase contains null character at position %d", i)
		}
	}

	return nil
}

func SanitizeInput(input string) string {
	input = strings.TrimSpace(input)

	input = strings.ReplaceAll(input, "\r\n", "\n")
	input = strings.ReplaceAll(input, "\r", "\n")

	lines := strings.Split(input, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}

	return strings.Join(lines, "\n")
}
