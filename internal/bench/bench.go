// Package bench runs a fixed table of operations through the driver and
// checks each result against the software field arithmetic.
package bench

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Davincible/shamir-accel/pkg/accel"
	"github.com/Davincible/shamir-accel/pkg/crypto/gf"
	"github.com/Davincible/shamir-accel/pkg/crypto/sss"
	"github.com/Davincible/shamir-accel/pkg/driver"
)

// Result is one benchmark row.
type Result struct {
	Mode     string        `json:"mode"`
	Field    string        `json:"field"`
	Case     string        `json:"case"`
	Expected uint32        `json:"expected"`
	Got      uint32        `json:"got"`
	Cycles   uint32        `json:"cycles"`
	Elapsed  time.Duration `json:"elapsed_ns"`
	Pass     bool          `json:"pass"`
}

type bruteCase struct {
	field  gf.Field
	secret uint32
	a1     uint32
}

type generateCase struct {
	field  gf.Field
	secret uint32
	a1     uint32
	x      uint32
}

type reconstructCase struct {
	field  gf.Field
	shares []sss.Share
	secret uint32
}

var bruteCases = []bruteCase{
	{gf.GF8, 0x00, 0x05},
	{gf.GF8, 0x42, 0x05},
	{gf.GF8, 0xFF, 0x05},
	{gf.GF16, 0x0000, 0x05},
	{gf.GF16, 0x00FF, 0x05},
	{gf.GF16, 0x0FFF, 0x05},
	{gf.GF32, 0x00, 0x05},
	{gf.GF32, 0x10, 0x05},
	{gf.GF32, 0xFF, 0x05},
}

var generateCases = []generateCase{
	{gf.GF8, 0x42, 0x05, 1},
	{gf.GF8, 0x42, 0x05, 5},
	{gf.GF16, 0xDEAD, 0x0033, 1},
	{gf.GF16, 0xDEAD, 0x0033, 3},
	{gf.GF32, 0xCAFEBABE, 0x1234, 1},
}

var reconstructCases = []reconstructCase{
	{gf.GF8, []sss.Share{{X: 1, Y: 0x47}, {X: 2, Y: 0x48}}, 0x42},
	{gf.GF8, []sss.Share{{X: 1, Y: 0x47}, {X: 2, Y: 0x48}, {X: 3, Y: 0x4D}}, 0x42},
}

// Run executes every case in order. It stops at the first driver error;
// a wrong answer is reported in the row, not as an error.
func Run(ctx context.Context, drv *driver.Driver) ([]Result, error) {
	var results []Result

	for _, c := range bruteCases {
		eng := gf.MustNew(c.field)
		share := sss.Share{X: 1, Y: eng.Add(c.secret, eng.Mul(c.a1, 1))}

		sw, err := sss.BruteForce(ctx, eng, share, c.a1)
		if err != nil {
			return results, err
		}

		start := time.Now()
		res, err := drv.Brute(ctx, c.field, share, c.a1)
		elapsed := time.Since(start)
		if err != nil && !errors.Is(err, driver.ErrNotFound) {
			return results, fmt.Errorf("brute %s secret 0x%X: %w", c.field, c.secret, err)
		}

		results = append(results, Result{
			Mode:     accel.ModeBrute.String(),
			Field:    c.field.String(),
			Case:     fmt.Sprintf("secret=0x%X a1=0x%X", c.secret, c.a1),
			Expected: c.secret,
			Got:      res.Value,
			Cycles:   res.Cycles,
			Elapsed:  elapsed,
			Pass:     res.Found && sw.Found && res.Value == sw.Secret && res.Value == c.secret,
		})
	}

	for _, c := range generateCases {
		eng := gf.MustNew(c.field)
		want := eng.Add(c.secret, eng.Mul(c.a1, c.x))

		start := time.Now()
		res, err := drv.GenerateShare(ctx, c.field, []uint32{c.secret, c.a1}, c.x)
		elapsed := time.Since(start)
		if err != nil {
			return results, fmt.Errorf("generate %s x=%d: %w", c.field, c.x, err)
		}

		results = append(results, Result{
			Mode:     accel.ModeGenerate.String(),
			Field:    c.field.String(),
			Case:     fmt.Sprintf("secret=0x%X a1=0x%X x=%d", c.secret, c.a1, c.x),
			Expected: want,
			Got:      res.Value,
			Cycles:   res.Cycles,
			Elapsed:  elapsed,
			Pass:     res.Value == want,
		})
	}

	for _, c := range reconstructCases {
		start := time.Now()
		res, err := drv.Reconstruct(ctx, c.field, c.shares)
		elapsed := time.Since(start)
		if err != nil {
			return results, fmt.Errorf("reconstruct %s k=%d: %w", c.field, len(c.shares), err)
		}

		results = append(results, Result{
			Mode:     accel.ModeReconstruct.String(),
			Field:    c.field.String(),
			Case:     fmt.Sprintf("k=%d", len(c.shares)),
			Expected: c.secret,
			Got:      res.Value,
			Cycles:   res.Cycles,
			Elapsed:  elapsed,
			Pass:     res.Value == c.secret,
		})
	}

	return results, nil
}

// Passed reports whether every row passed.
func Passed(results []Result) bool {
	for _, r := range results {
		if !r.Pass {
			return false
		}
	}
	return true
}
