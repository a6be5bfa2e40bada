// Package accel models the memory-mapped Shamir accelerator: a register
// file behind a synchronous bus, a mode controller that runs one operation
// at a time through the compute units in package sss, and a level-asserted
// completion interrupt.
//
// Time only advances on clock edges. Every bus transaction costs two edges,
// mirroring the hardware's latched read/write cadence, and Tick advances a
// single idle edge. A Device is safe for concurrent use; each transaction is
// atomic with respect to the others.
//
// Fixed policies for cases the bus protocol leaves open:
//   - START while an operation is in flight is ignored. ABORT and INT_CLR in
//     the same write are still honoured.
//   - Reads of addresses outside the map return 0 and writes to them are
//     dropped, as are writes to STATUS, RESULT and CYCLES.
package accel

import (
	"log/slog"
	"sync"

	"github.com/Davincible/shamir-accel/pkg/metrics"
)

// Config holds device construction options.
type Config struct {
	// Lanes is the number of brute-force candidates tested per tick.
	// Defaults to 1.
	Lanes int

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Device is one accelerator instance.
type Device struct {
	mu     sync.Mutex
	logger *slog.Logger
	regs   RegisterFile
	ctrl   Controller
	irq    InterruptController
	clock  uint64
}

// New returns a device in its reset state.
func New(cfg Config) *Device {
	if cfg.Lanes < 1 {
		cfg.Lanes = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	d := &Device{logger: cfg.Logger}
	d.ctrl.lanes = cfg.Lanes
	d.ctrl.logger = cfg.Logger
	d.ctrl.reset()
	return d
}

// Reset returns the device to IDLE with every register zeroed and the
// interrupt line low.
func (d *Device) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.regs.reset()
	d.ctrl.reset()
	d.irq.clear()
	d.clock = 0
}

// WriteReg performs one bus write. The data commits on the first edge and
// the call returns after the second.
func (d *Device) WriteReg(addr, data uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.tick()
	d.commit(addr, data)
	d.tick()
}

// ReadReg performs one bus read. The value is sampled on the first edge and
// returned after the second.
func (d *Device) ReadReg(addr uint32) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()

	v := d.load(addr)
	d.tick()
	d.tick()
	return v
}

// Tick advances the clock by one idle edge.
func (d *Device) Tick() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.tick()
}

// Run advances the clock by n idle edges.
func (d *Device) Run(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i := 0; i < n; i++ {
		d.tick()
	}
}

// IRQ reports the level of the interrupt line.
func (d *Device) IRQ() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.irq.Asserted()
}

// State reports the Mode Controller state.
func (d *Device) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.ctrl.state
}

// Clock returns the number of edges since reset.
func (d *Device) Clock() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.clock
}

// Diagnostic explains why the last operation completed without a result:
// an ErrConfiguration chain for rejected operations, ErrAborted after ABORT,
// nil otherwise.
func (d *Device) Diagnostic() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.ctrl.diag
}

func (d *Device) tick() {
	d.clock++
	d.ctrl.tick(&d.regs, &d.irq)
}

func (d *Device) load(addr uint32) uint32 {
	switch {
	case !mapped(addr):
		metrics.RecordProtocolEvent(metrics.EventUnmappedRead)
		d.logger.Debug("Read of unmapped register", "addr", addr)
		return 0
	case addr == RegControl:
		return d.regs.control()
	case addr == RegStatus:
		w := d.regs.load(RegStatus)
		if d.irq.Asserted() {
			w |= StatIntPending
		}
		return w
	}
	return d.regs.load(addr)
}

func (d *Device) commit(addr, data uint32) {
	switch {
	case !mapped(addr):
		metrics.RecordProtocolEvent(metrics.EventUnmappedWrite)
		d.logger.Debug("Write to unmapped register dropped", "addr", addr)
	case readOnly(addr):
		metrics.RecordProtocolEvent(metrics.EventReadOnlyWrite)
		d.logger.Debug("Write to read-only register dropped", "reg", RegName(addr))
	case addr == RegControl:
		d.writeControl(data)
	default:
		d.regs.store(addr, data)
	}
}

func (d *Device) writeControl(data uint32) {
	wasBusy := d.ctrl.busy()
	d.regs.storeControl(data)

	if data&CtrlIntClr != 0 && d.irq.clear() {
		d.logger.Debug("Interrupt cleared")
	}

	if data&CtrlAbort != 0 {
		if d.ctrl.busy() {
			d.logger.Debug("Operation aborted", "cycles", d.ctrl.cycles)
			d.ctrl.abort(&d.regs, &d.irq)
		} else {
			metrics.RecordProtocolEvent(metrics.EventAbortIdle)
		}
	}

	if data&CtrlStart != 0 {
		if wasBusy {
			metrics.RecordProtocolEvent(metrics.EventStartWhileBusy)
			d.logger.Warn("START ignored while busy", "state", d.ctrl.state.String())
			return
		}
		d.ctrl.start(&d.regs, data)
	}
}
