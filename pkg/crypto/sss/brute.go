package sss

import (
	"context"

	"github.com/Davincible/shamir-accel/pkg/crypto/gf"
)

// ctxCheckInterval is how many candidates BruteForce tests between
// cancellation checks.
const ctxCheckInterval = 4096

// BruteResult is the outcome of a brute-force search.
type BruteResult struct {
	Found  bool   `json:"found"`
	Secret uint32 `json:"secret"`
	Tested uint64 `json:"tested"`
}

// Search walks the candidate secrets s = 0, 1, ... 2^width-1 looking for
// s + a1*x == y. The zero value is not usable; call NewSearch.
type Search struct {
	eng    *gf.Engine
	target uint32
	offset uint32
	next   uint64
	limit  uint64
	found  bool
	secret uint32
}

// NewSearch prepares a search for the degree-1 secret behind share given the
// known linear coefficient a1. share.Y is compared as given, so a y wider
// than the field matches no candidate.
func NewSearch(e *gf.Engine, share Share, a1 uint32) *Search {
	return &Search{
		eng:    e,
		target: share.Y,
		offset: e.Mul(a1, share.X),
		limit:  e.Field().Size(),
	}
}

// Step tests up to lanes candidates in ascending order and reports whether
// the search has finished, either by a match or by exhausting the field.
func (s *Search) Step(lanes int) bool {
	if lanes < 1 {
		lanes = 1
	}
	for n := 0; n < lanes && !s.Done(); n++ {
		candidate := uint32(s.next)
		s.next++
		if s.eng.Add(candidate, s.offset) == s.target {
			s.found = true
			s.secret = candidate
		}
	}
	return s.Done()
}

// Done reports whether the search found a match or ran out of candidates.
func (s *Search) Done() bool {
	return s.found || s.next >= s.limit
}

// Result returns the outcome so far. Secret is meaningful only when Found.
func (s *Search) Result() BruteResult {
	return BruteResult{Found: s.found, Secret: s.secret, Tested: s.next}
}

// BruteForce runs a search to completion. If ctx is cancelled first it
// returns the partial result with Found false and ctx.Err().
func BruteForce(ctx context.Context, e *gf.Engine, share Share, a1 uint32) (BruteResult, error) {
	s := NewSearch(e, share, a1)
	for !s.Step(ctxCheckInterval) {
		if err := ctx.Err(); err != nil {
			return s.Result(), err
		}
	}
	return s.Result(), nil
}
