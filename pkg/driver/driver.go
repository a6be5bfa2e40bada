// Package driver is the host side of the accelerator: it programs operand
// registers over a Bus, starts an operation and waits for completion either
// by polling STATUS or on the interrupt line.
package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/Davincible/shamir-accel/pkg/accel"
	"github.com/Davincible/shamir-accel/pkg/crypto/gf"
	"github.com/Davincible/shamir-accel/pkg/crypto/sss"
)

var (
	// ErrTimeout is returned when an operation does not finish within
	// MaxPolls.
	ErrTimeout = errors.New("driver: operation timed out")

	// ErrNotFound is returned by Brute when the search exhausts the field.
	ErrNotFound = errors.New("driver: secret not found")

	// ErrBusy is returned when an operation is started while the device is
	// still running the previous one.
	ErrBusy = errors.New("driver: device busy")

	// ErrNoInterruptLine is returned by WaitInterrupt when no Line was
	// configured.
	ErrNoInterruptLine = errors.New("driver: no interrupt line")
)

// DefaultMaxPolls matches the poll budget of the reference firmware.
const DefaultMaxPolls = 100000

// Bus is a word-addressed register bus.
type Bus interface {
	WriteReg(addr, data uint32)
	ReadReg(addr uint32) uint32
}

// Line is a level-asserted interrupt line. Tick lets one clock edge pass
// while the host waits on it.
type Line interface {
	IRQ() bool
	Tick()
}

// Config holds driver options.
type Config struct {
	// MaxPolls bounds every wait. Defaults to DefaultMaxPolls.
	MaxPolls int

	// PollRate limits STATUS polls per second. Zero means unlimited.
	PollRate float64

	// PollBurst is the limiter burst. Defaults to 1.
	PollBurst int

	// Interrupts sets INT_EN on every START and waits on Line instead of
	// polling STATUS.
	Interrupts bool

	// Line is required when Interrupts is set.
	Line Line

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Result is the outcome of a finished operation.
type Result struct {
	Value  uint32 `json:"value"`
	Found  bool   `json:"found"`
	Cycles uint32 `json:"cycles"`
}

// Driver programs one accelerator. It is not safe for concurrent use; the
// device runs one operation at a time.
type Driver struct {
	bus     Bus
	cfg     Config
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New returns a driver for the device behind bus.
func New(bus Bus, cfg Config) (*Driver, error) {
	if cfg.MaxPolls == 0 {
		cfg.MaxPolls = DefaultMaxPolls
	}
	if cfg.MaxPolls < 0 {
		return nil, fmt.Errorf("invalid max polls: %d", cfg.MaxPolls)
	}
	if cfg.PollRate < 0 {
		return nil, fmt.Errorf("invalid poll rate: %g", cfg.PollRate)
	}
	if cfg.PollBurst < 1 {
		cfg.PollBurst = 1
	}
	if cfg.Interrupts && cfg.Line == nil {
		return nil, ErrNoInterruptLine
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	limit := rate.Inf
	if cfg.PollRate > 0 {
		limit = rate.Limit(cfg.PollRate)
	}

	return &Driver{
		bus:     bus,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, cfg.PollBurst),
		logger:  cfg.Logger,
	}, nil
}

// Version returns the hardware version from CONTROL[31:24].
func (d *Driver) Version() uint8 {
	return uint8(d.bus.ReadReg(accel.RegControl) >> accel.CtrlVersionShift)
}

// Status reads and decodes STATUS.
func (d *Driver) Status() accel.Status {
	return accel.ParseStatus(d.bus.ReadReg(accel.RegStatus))
}

// Busy reports whether an operation is in flight.
func (d *Driver) Busy() bool {
	return d.Status().Busy
}

// Result reads the outputs of the last finished operation.
func (d *Driver) Result() Result {
	status := d.Status()
	return Result{
		Value:  d.bus.ReadReg(accel.RegResult),
		Found:  status.Found,
		Cycles: d.bus.ReadReg(accel.RegCycles),
	}
}

// BruteStart programs a brute-force search for the secret behind a
// degree-1 share with known linear coefficient a1, and starts it without
// waiting.
func (d *Driver) BruteStart(field gf.Field, share sss.Share, a1 uint32) error {
	if _, err := gf.New(field); err != nil {
		return err
	}
	if err := d.ready(); err != nil {
		return err
	}

	d.bus.WriteReg(accel.RegField, uint32(field))
	d.bus.WriteReg(accel.RegShareX0, share.X)
	d.bus.WriteReg(accel.RegShareY0, share.Y)
	d.bus.WriteReg(accel.RegCoeff0, a1)

	d.start(accel.ModeBrute)
	return nil
}

// Brute runs a brute-force search to completion. ErrNotFound is returned
// along with the result when no candidate matches.
func (d *Driver) Brute(ctx context.Context, field gf.Field, share sss.Share, a1 uint32) (Result, error) {
	if err := d.BruteStart(field, share, a1); err != nil {
		return Result{}, err
	}
	if err := d.wait(ctx); err != nil {
		return Result{}, err
	}

	res := d.Result()
	if !res.Found {
		return res, ErrNotFound
	}
	return res, nil
}

// GenerateShare evaluates the polynomial with coefficients a0..ad at x.
// Coefficient registers above the degree are zeroed.
func (d *Driver) GenerateShare(ctx context.Context, field gf.Field, coeffs []uint32, x uint32) (Result, error) {
	if _, err := gf.New(field); err != nil {
		return Result{}, err
	}
	if err := sss.CheckDegree(len(coeffs) - 1); err != nil {
		return Result{}, err
	}
	if err := d.ready(); err != nil {
		return Result{}, err
	}

	d.bus.WriteReg(accel.RegField, uint32(field))
	for i, addr := range accel.CoeffRegs {
		var c uint32
		if i < len(coeffs) {
			c = coeffs[i]
		}
		d.bus.WriteReg(addr, c)
	}
	d.bus.WriteReg(accel.RegKDegree, uint32(len(coeffs)-1))
	d.bus.WriteReg(accel.RegEvalX, x)

	d.start(accel.ModeGenerate)
	if err := d.wait(ctx); err != nil {
		return Result{}, err
	}
	return d.Result(), nil
}

// Reconstruct recovers the secret from 1-4 shares.
func (d *Driver) Reconstruct(ctx context.Context, field gf.Field, shares []sss.Share) (Result, error) {
	eng, err := gf.New(field)
	if err != nil {
		return Result{}, err
	}
	if err := sss.CheckShares(sss.Truncate(eng, shares)); err != nil {
		return Result{}, err
	}
	if err := d.ready(); err != nil {
		return Result{}, err
	}

	d.bus.WriteReg(accel.RegField, uint32(field))
	for i, s := range shares {
		d.bus.WriteReg(accel.ShareXRegs[i], s.X)
		d.bus.WriteReg(accel.ShareYRegs[i], s.Y)
	}
	d.bus.WriteReg(accel.RegKDegree, uint32(len(shares)))

	d.start(accel.ModeReconstruct)
	if err := d.wait(ctx); err != nil {
		return Result{}, err
	}
	return d.Result(), nil
}

// WaitDone polls STATUS until the operation finishes. On timeout or
// cancellation the operation is aborted so the device is ready for the next
// one.
func (d *Driver) WaitDone(ctx context.Context) error {
	for i := 0; i < d.cfg.MaxPolls; i++ {
		if err := d.pace(ctx); err != nil {
			d.Abort()
			return err
		}
		status := d.Status()
		if status.Done || !status.Busy {
			return nil
		}
	}

	d.Abort()
	return fmt.Errorf("%w after %d polls", ErrTimeout, d.cfg.MaxPolls)
}

// WaitInterrupt waits for the interrupt line and clears it. On timeout or
// cancellation the operation is aborted.
func (d *Driver) WaitInterrupt(ctx context.Context) error {
	line := d.cfg.Line
	if line == nil {
		return ErrNoInterruptLine
	}

	for i := 0; i < d.cfg.MaxPolls; i++ {
		if line.IRQ() {
			d.ClearInterrupt()
			return nil
		}
		if err := ctx.Err(); err != nil {
			d.Abort()
			return err
		}
		line.Tick()
	}

	d.Abort()
	return fmt.Errorf("%w after %d edges waiting for interrupt", ErrTimeout, d.cfg.MaxPolls)
}

// Abort stops the operation in flight. It is a no-op on an idle device.
func (d *Driver) Abort() {
	d.logger.Debug("Aborting operation")
	d.bus.WriteReg(accel.RegControl, d.intEn()|accel.CtrlAbort)
}

// ClearInterrupt deasserts the interrupt line.
func (d *Driver) ClearInterrupt() {
	d.bus.WriteReg(accel.RegControl, d.intEn()|accel.CtrlIntClr)
}

// ready refuses to program operands while an operation is in flight, since
// the device would ignore the following START.
func (d *Driver) ready() error {
	if d.Busy() {
		return ErrBusy
	}
	return nil
}

func (d *Driver) start(mode accel.Mode) {
	d.logger.Debug("Starting operation", "mode", mode.String())
	d.bus.WriteReg(accel.RegControl, accel.ControlWord(mode, d.intEn()|accel.CtrlStart))
}

func (d *Driver) wait(ctx context.Context) error {
	if d.cfg.Interrupts {
		return d.WaitInterrupt(ctx)
	}
	return d.WaitDone(ctx)
}

func (d *Driver) pace(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.limiter.Wait(ctx)
}

func (d *Driver) intEn() uint32 {
	if d.cfg.Interrupts {
		return accel.CtrlIntEn
	}
	return 0
}
