package sss

import (
	"context"
	"math/rand"
	"testing"

	"github.com/Davincible/shamir-accel/pkg/crypto/gf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name   string
		field  gf.Field
		coeffs []uint32
		x      uint32
		want   uint32
	}{
		{"GF8 f(1)", gf.GF8, []uint32{0x42, 0x05}, 1, 0x47},
		{"GF8 f(2)", gf.GF8, []uint32{0x42, 0x05}, 2, 0x48},
		{"GF8 f(3)", gf.GF8, []uint32{0x42, 0x05}, 3, 0x4D},
		{"GF16 f(1)", gf.GF16, []uint32{0xABCD, 0x1234}, 1, 0xB9F9},
		{"constant", gf.GF32, []uint32{0xCAFEBABE}, 7, 0xCAFEBABE},
		{"f(0) is a0", gf.GF16, []uint32{0xDEAD, 0x33, 0x44, 0x55}, 0, 0xDEAD},
		{"cubic at one", gf.GF8, []uint32{0x01, 0x02, 0x04, 0x08}, 1, 0x0F},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(gf.MustNew(tt.field), tt.coeffs, tt.x)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateMatchesPowerSum(t *testing.T) {
	e := gf.MustNew(gf.GF32)
	coeffs := []uint32{0xCAFEBABE, 0x1234, 0xDEADBEEF, 0x0BADF00D}
	x := uint32(0x1F)

	var want uint32
	for i, c := range coeffs {
		want = e.Add(want, e.Mul(c, e.Exp(x, uint32(i))))
	}

	got, err := Evaluate(e, coeffs, x)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestEvaluateInvalidDegree(t *testing.T) {
	e := gf.MustNew(gf.GF8)

	_, err := Evaluate(e, nil, 1)
	assert.ErrorIs(t, err, ErrInvalidDegree)

	_, err = Evaluate(e, []uint32{1, 2, 3, 4, 5}, 1)
	assert.ErrorIs(t, err, ErrInvalidDegree)

	assert.NoError(t, CheckDegree(0))
	assert.NoError(t, CheckDegree(3))
	assert.ErrorIs(t, CheckDegree(-1), ErrInvalidDegree)
	assert.ErrorIs(t, CheckDegree(4), ErrInvalidDegree)
}

func TestReconstruct(t *testing.T) {
	tests := []struct {
		name   string
		shares []Share
		want   uint32
	}{
		{"k=1", []Share{{1, 0x99}}, 0x99},
		{"k=2", []Share{{1, 0x47}, {2, 0x48}}, 0x42},
		{"k=2 reversed", []Share{{2, 0x48}, {1, 0x47}}, 0x42},
		{"k=3", []Share{{1, 0x47}, {2, 0x48}, {3, 0x4D}}, 0x42},
	}

	e := gf.MustNew(gf.GF8)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Reconstruct(e, tt.shares)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReconstructErrors(t *testing.T) {
	e := gf.MustNew(gf.GF8)

	tests := []struct {
		name   string
		shares []Share
		want   error
	}{
		{"no shares", nil, ErrShareCount},
		{"too many shares", []Share{{1, 1}, {2, 2}, {3, 3}, {4, 4}, {5, 5}}, ErrShareCount},
		{"duplicate x", []Share{{1, 0x47}, {1, 0x48}}, ErrDuplicatePoint},
		{"duplicate after truncation", []Share{{0x01, 0x47}, {0x101, 0x48}}, ErrDuplicatePoint},
		{"zero x", []Share{{0, 0x42}, {2, 0x48}}, ErrZeroPoint},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Reconstruct(e, tt.shares)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for _, f := range gf.Fields {
		t.Run(f.String(), func(t *testing.T) {
			e := gf.MustNew(f)
			for iter := 0; iter < 200; iter++ {
				degree := rng.Intn(MaxDegree + 1)
				coeffs := make([]uint32, degree+1)
				for i := range coeffs {
					coeffs[i] = rng.Uint32() & e.Mask()
				}

				// any k >= degree+1 distinct nonzero points
				k := degree + 1 + rng.Intn(MaxShares-degree)
				shares := make([]Share, 0, k)
				seen := map[uint32]bool{}
				for len(shares) < k {
					x := rng.Uint32() & e.Mask()
					if x == 0 || seen[x] {
						continue
					}
					seen[x] = true
					y, err := Evaluate(e, coeffs, x)
					require.NoError(t, err)
					shares = append(shares, Share{X: x, Y: y})
				}

				secret, err := Reconstruct(e, shares)
				require.NoError(t, err)
				require.Equal(t, coeffs[0], secret, "coeffs=%x shares=%v", coeffs, shares)
			}
		})
	}
}

func TestInterpolateAt(t *testing.T) {
	e := gf.MustNew(gf.GF16)
	coeffs := []uint32{0xDEAD, 0x0033, 0x0101}

	var shares []Share
	for x := uint32(1); x <= 3; x++ {
		y, err := Evaluate(e, coeffs, x)
		require.NoError(t, err)
		shares = append(shares, Share{X: x, Y: y})
	}

	for _, x := range []uint32{0, 4, 0x1000, 0xFFFF} {
		want, err := Evaluate(e, coeffs, x)
		require.NoError(t, err)
		got, err := InterpolateAt(e, shares, x)
		require.NoError(t, err)
		assert.Equal(t, want, got, "x=%#x", x)
	}
}

func TestBruteForce(t *testing.T) {
	tests := []struct {
		name       string
		field      gf.Field
		share      Share
		a1         uint32
		wantFound  bool
		wantSecret uint32
		wantTested uint64
	}{
		{"GF8 harness vector", gf.GF8, Share{1, 0x47}, 0x05, true, 0x42, 0x43},
		{"GF8 zero secret", gf.GF8, Share{1, 0x05}, 0x05, true, 0x00, 1},
		{"GF8 last candidate", gf.GF8, Share{1, 0xFA}, 0x05, true, 0xFF, 256},
		{"GF16 x=2", gf.GF16, Share{2, 0x0FFF ^ 0x0A}, 0x05, true, 0x0FFF, 0x1000},
		{"GF32 small secret", gf.GF32, Share{1, 0x10 ^ 0x05}, 0x05, true, 0x10, 0x11},
		{"GF8 y wider than field", gf.GF8, Share{1, 0x147}, 0x05, false, 0, 256},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := BruteForce(context.Background(), gf.MustNew(tt.field), tt.share, tt.a1)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFound, res.Found)
			if tt.wantFound {
				assert.Equal(t, tt.wantSecret, res.Secret)
			}
			assert.Equal(t, tt.wantTested, res.Tested)
		})
	}
}

func TestSearchLanes(t *testing.T) {
	e := gf.MustNew(gf.GF8)

	s := NewSearch(e, Share{X: 1, Y: 0x47}, 0x05)
	steps := 0
	for !s.Step(8) {
		steps++
	}
	steps++

	res := s.Result()
	assert.True(t, res.Found)
	assert.Equal(t, uint32(0x42), res.Secret)
	// 0x42 is the 67th candidate: nine 8-wide steps
	assert.Equal(t, 9, steps)
	assert.Equal(t, uint64(0x43), res.Tested)
	assert.True(t, s.Step(8), "finished search stays finished")
}

func TestBruteForceCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := BruteForce(ctx, gf.MustNew(gf.GF32), Share{X: 1, Y: 0xFFFFFFF0}, 0x05)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, res.Found)
	assert.Equal(t, uint64(ctxCheckInterval), res.Tested)
}
