package storage

import (
	"encoding/json"
	"fmt"

	"github.com/Davincible/shamir-accel/pkg/crypto/gf"
	"github.com/Davincible/shamir-accel/pkg/crypto/shamir"
	"github.com/Davincible/shamir-accel/pkg/crypto/sss"
	"github.com/Davincible/shamir-accel/pkg/secure"
)

// Share set kinds.
const (
	KindField = "field"
	KindBytes = "bytes"
)

// ShareSet is what a share file holds: either field-element shares or
// byte-string shares, never both.
type ShareSet struct {
	Kind       string             `json:"kind"`
	Field      string             `json:"field,omitempty"`
	Threshold  int                `json:"threshold"`
	Shares     []sss.Share        `json:"shares,omitempty"`
	ByteShares []shamir.ByteShare `json:"byte_shares,omitempty"`

	// Fingerprint identifies the mnemonic a byte set was split from.
	Fingerprint string `json:"fingerprint,omitempty"`
}

// Validate checks the set is internally consistent.
func (s *ShareSet) Validate() error {
	if s.Threshold < 2 {
		return fmt.Errorf("threshold must be at least 2, got %d", s.Threshold)
	}

	switch s.Kind {
	case KindField:
		if _, err := gf.ParseField(s.Field); err != nil {
			return err
		}
		if len(s.ByteShares) != 0 {
			return fmt.Errorf("field share set carries byte shares")
		}
		if len(s.Shares) < s.Threshold {
			return fmt.Errorf("share set has %d shares, threshold is %d", len(s.Shares), s.Threshold)
		}
	case KindBytes:
		if len(s.Shares) != 0 {
			return fmt.Errorf("byte share set carries field shares")
		}
		if len(s.ByteShares) < s.Threshold {
			return fmt.Errorf("share set has %d shares, threshold is %d", len(s.ByteShares), s.Threshold)
		}
		if err := shamir.VerifyByteShares(s.ByteShares); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown share set kind %q", s.Kind)
	}
	return nil
}

// ShareFile stores one ShareSet in a SecureFile.
type ShareFile struct {
	file *SecureFile
}

func NewShareFile(path string, iterations int) *ShareFile {
	return &ShareFile{
		file: NewSecureFile(path, iterations),
	}
}

func (s *ShareFile) Save(set *ShareSet, password []byte) error {
	if err := set.Validate(); err != nil {
		return fmt.Errorf("invalid share set: %w", err)
	}

	data, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("failed to marshal shares: %w", err)
	}
	defer secure.Zero(data)

	return s.file.Save(data, password)
}

func (s *ShareFile) Load(password []byte) (*ShareSet, error) {
	data, err := s.file.Load(password)
	if err != nil {
		return nil, err
	}
	defer secure.Zero(data)

	var set ShareSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shares: %w", err)
	}
	if err := set.Validate(); err != nil {
		return nil, fmt.Errorf("invalid share set: %w", err)
	}
	return &set, nil
}

func (s *ShareFile) Exists() bool {
	return s.file.Exists()
}

func (s *ShareFile) Delete() error {
	return s.file.Delete()
}
