package accel

import (
	"github.com/Davincible/shamir-accel/pkg/crypto/gf"
	"github.com/Davincible/shamir-accel/pkg/crypto/sss"
)

// RegisterFile is the word-addressed register state. The bus adapter owns
// the operand registers and the sticky CONTROL bits; STATUS, RESULT and
// CYCLES are written only through commit.
type RegisterFile struct {
	words [NumRegs]uint32
}

func (r *RegisterFile) reset() {
	r.words = [NumRegs]uint32{}
}

// mapped reports whether addr is inside the register map.
func mapped(addr uint32) bool {
	return addr < NumRegs
}

// readOnly reports whether the bus may not write addr.
func readOnly(addr uint32) bool {
	return addr == RegStatus || addr == RegResult || addr == RegCycles
}

func (r *RegisterFile) load(addr uint32) uint32 {
	return r.words[addr]
}

// store commits a bus write to an operand register.
func (r *RegisterFile) store(addr, v uint32) {
	r.words[addr] = v
}

// storeControl keeps the INT_EN and MODE bits of a CONTROL write for
// readback. START, ABORT and INT_CLR are strobes and are never stored.
func (r *RegisterFile) storeControl(v uint32) {
	r.words[RegControl] = v & (CtrlIntEn | CtrlModeMask)
}

func (r *RegisterFile) control() uint32 {
	return uint32(Version)<<CtrlVersionShift | r.words[RegControl]
}

func (r *RegisterFile) setStatus(busy, found, done bool) {
	r.words[RegStatus] = Status{Busy: busy, Found: found, Done: done}.Word()
}

// commit publishes a completed operation's outputs as one unit.
func (r *RegisterFile) commit(result, cycles uint32, found bool) {
	r.words[RegResult] = result
	r.words[RegCycles] = cycles
	r.setStatus(false, found, true)
}

// operation is the operand snapshot taken when START is accepted.
type operation struct {
	mode   Mode
	field  gf.Field
	intEn  bool
	shares [sss.MaxShares]sss.Share
	coeffs [sss.MaxDegree + 1]uint32
	k      uint32
	evalX  uint32
}

func (r *RegisterFile) snapshot(ctrl uint32) operation {
	op := operation{
		mode:  Mode(ctrl & CtrlModeMask >> CtrlModeShift),
		field: gf.Field(r.words[RegField]),
		intEn: ctrl&CtrlIntEn != 0,
		k:     r.words[RegKDegree],
		evalX: r.words[RegEvalX],
	}
	for i := range op.shares {
		op.shares[i] = sss.Share{X: r.words[ShareXRegs[i]], Y: r.words[ShareYRegs[i]]}
	}
	for i := range op.coeffs {
		op.coeffs[i] = r.words[CoeffRegs[i]]
	}
	return op
}
