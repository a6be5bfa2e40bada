package accel

import "fmt"

// Word addresses of the register map.
const (
	RegControl  uint32 = 0
	RegStatus   uint32 = 1
	RegField    uint32 = 2
	RegShareX0  uint32 = 3
	RegShareY0  uint32 = 4
	RegCoeff0   uint32 = 5
	RegResult   uint32 = 6
	RegCycles   uint32 = 7
	RegShareX1  uint32 = 8
	RegShareY1  uint32 = 9
	RegShareX2  uint32 = 10
	RegShareY2  uint32 = 11
	RegShareX3  uint32 = 12
	RegShareY3  uint32 = 13
	RegCoeff1   uint32 = 14
	RegCoeff2   uint32 = 15
	RegCoeff3   uint32 = 16
	RegKDegree  uint32 = 17
	RegEvalX    uint32 = 18
	NumRegs            = 19
)

// CONTROL bits.
const (
	CtrlStart  uint32 = 1 << 0
	CtrlAbort  uint32 = 1 << 1
	CtrlIntClr uint32 = 1 << 2
	CtrlIntEn  uint32 = 1 << 3

	CtrlModeShift = 4
	CtrlModeMask  uint32 = 0xF << CtrlModeShift

	CtrlVersionShift = 24
)

// STATUS bits.
const (
	StatBusy       uint32 = 1 << 0
	StatFound      uint32 = 1 << 1
	StatDone       uint32 = 1 << 2
	StatIntPending uint32 = 1 << 3
)

// Version is reported in CONTROL[31:24].
const Version = 2

var (
	// ShareXRegs and ShareYRegs give the addresses of share slots 0-3.
	ShareXRegs = [4]uint32{RegShareX0, RegShareX1, RegShareX2, RegShareX3}
	ShareYRegs = [4]uint32{RegShareY0, RegShareY1, RegShareY2, RegShareY3}

	// CoeffRegs gives the addresses of a0-a3.
	CoeffRegs = [4]uint32{RegCoeff0, RegCoeff1, RegCoeff2, RegCoeff3}
)

// Mode selects the compute unit for an operation.
type Mode uint32

const (
	ModeBrute Mode = iota
	ModeGenerate
	ModeReconstruct
)

func (m Mode) Valid() bool {
	return m <= ModeReconstruct
}

func (m Mode) String() string {
	switch m {
	case ModeBrute:
		return "brute"
	case ModeGenerate:
		return "generate"
	case ModeReconstruct:
		return "reconstruct"
	}
	return fmt.Sprintf("mode(%d)", uint32(m))
}

// ControlWord builds a CONTROL value that starts an operation in mode m.
func ControlWord(m Mode, flags uint32) uint32 {
	return uint32(m)<<CtrlModeShift&CtrlModeMask | flags
}

// Status is the decoded STATUS register.
type Status struct {
	Busy             bool `json:"busy"`
	Found            bool `json:"found"`
	Done             bool `json:"done"`
	InterruptPending bool `json:"interrupt_pending"`
}

// ParseStatus decodes a STATUS register value.
func ParseStatus(w uint32) Status {
	return Status{
		Busy:             w&StatBusy != 0,
		Found:            w&StatFound != 0,
		Done:             w&StatDone != 0,
		InterruptPending: w&StatIntPending != 0,
	}
}

// Word encodes s as a STATUS register value.
func (s Status) Word() uint32 {
	var w uint32
	if s.Busy {
		w |= StatBusy
	}
	if s.Found {
		w |= StatFound
	}
	if s.Done {
		w |= StatDone
	}
	if s.InterruptPending {
		w |= StatIntPending
	}
	return w
}

// RegName returns the mnemonic for a register address.
func RegName(addr uint32) string {
	if addr < NumRegs {
		return regNames[addr]
	}
	return fmt.Sprintf("UNMAPPED(%d)", addr)
}

var regNames = [NumRegs]string{
	"CONTROL", "STATUS", "FIELD", "SHARE_X0", "SHARE_Y0", "COEFF0", "RESULT",
	"CYCLES", "SHARE_X1", "SHARE_Y1", "SHARE_X2", "SHARE_Y2", "SHARE_X3",
	"SHARE_Y3", "COEFF1", "COEFF2", "COEFF3", "K_DEGREE", "EVAL_X",
}
