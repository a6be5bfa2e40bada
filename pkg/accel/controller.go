package accel

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/Davincible/shamir-accel/pkg/crypto/gf"
	"github.com/Davincible/shamir-accel/pkg/crypto/sss"
	"github.com/Davincible/shamir-accel/pkg/metrics"
)

var (
	// ErrConfiguration wraps every error detected at dispatch.
	ErrConfiguration = errors.New("accel: invalid operation configuration")

	// ErrInvalidMode is returned for MODE values other than 0-2.
	ErrInvalidMode = errors.New("accel: invalid mode")

	// ErrAborted is the diagnostic left by an aborted operation.
	ErrAborted = errors.New("accel: operation aborted")
)

// State is the Mode Controller state.
type State uint8

const (
	StateIdle State = iota
	StateDispatch
	StateRunning
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateDispatch:
		return "DISPATCH"
	case StateRunning:
		return "RUNNING"
	case StateComplete:
		return "COMPLETE"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// job is a compute unit in flight. step advances it by one tick.
type job interface {
	step(lanes int) bool
	outcome() (result uint32, found bool)
}

type bruteJob struct {
	search *sss.Search
}

func (j *bruteJob) step(lanes int) bool { return j.search.Step(lanes) }

func (j *bruteJob) outcome() (uint32, bool) {
	res := j.search.Result()
	if !res.Found {
		return 0, false
	}
	return res.Secret, true
}

// pipelineJob holds a result computed by a pure unit until its pipeline
// latency has elapsed.
type pipelineJob struct {
	result  uint32
	latency int
	ticks   int
}

func (j *pipelineJob) step(int) bool {
	j.ticks++
	return j.ticks >= j.latency
}

func (j *pipelineJob) outcome() (uint32, bool) { return j.result, false }

// Controller sequences one operation at a time through the compute units.
type Controller struct {
	state  State
	op     operation
	job    job
	cycles uint32
	diag   error
	lanes  int
	logger *slog.Logger
}

func (c *Controller) reset() {
	c.state = StateIdle
	c.op = operation{}
	c.job = nil
	c.cycles = 0
	c.diag = nil
}

func (c *Controller) busy() bool {
	return c.state == StateDispatch || c.state == StateRunning
}

// start accepts START from IDLE or COMPLETE and snapshots the operands.
func (c *Controller) start(regs *RegisterFile, ctrl uint32) {
	c.op = regs.snapshot(ctrl)
	c.state = StateDispatch
	c.job = nil
	c.cycles = 0
	c.diag = nil
	regs.setStatus(true, false, false)

	c.logger.Debug("Operation dispatched",
		"mode", c.op.mode.String(),
		"field", c.op.field.String(),
		"int_en", c.op.intEn)
}

// abort ends an in-flight operation with done set and found clear. RESULT
// keeps its previous value.
func (c *Controller) abort(regs *RegisterFile, irq *InterruptController) {
	c.diag = ErrAborted
	c.finish(regs, irq, regs.load(RegResult), false, metrics.OutcomeAborted)
}

// tick advances the controller by one clock edge.
func (c *Controller) tick(regs *RegisterFile, irq *InterruptController) {
	switch c.state {
	case StateDispatch:
		j, err := c.dispatch()
		if err != nil {
			c.diag = err
			c.cycles = 0
			c.logger.Warn("Operation rejected at dispatch",
				"mode", c.op.mode.String(),
				"field", c.op.field.String(),
				"error", err)
			c.finish(regs, irq, 0, false, metrics.OutcomeConfigErr)
			return
		}
		c.job = j
		c.state = StateRunning

	case StateRunning:
		if c.cycles != math.MaxUint32 {
			c.cycles++
		}
		if !c.job.step(c.lanes) {
			return
		}
		result, found := c.job.outcome()
		outcome := metrics.OutcomeComplete
		if c.op.mode == ModeBrute {
			outcome = metrics.OutcomeExhausted
			if found {
				outcome = metrics.OutcomeFound
			}
		}
		c.finish(regs, irq, result, found, outcome)
	}
}

// dispatch validates the snapshot and builds the job for its mode.
func (c *Controller) dispatch() (job, error) {
	op := c.op
	eng, err := gf.New(op.field)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	switch op.mode {
	case ModeBrute:
		return &bruteJob{search: sss.NewSearch(eng, op.shares[0], op.coeffs[0])}, nil

	case ModeGenerate:
		if op.k > sss.MaxDegree {
			return nil, fmt.Errorf("%w: %w: %d", ErrConfiguration, sss.ErrInvalidDegree, op.k)
		}
		y, err := sss.Evaluate(eng, op.coeffs[:op.k+1], op.evalX)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
		}
		return &pipelineJob{result: y, latency: int(op.k) + 1}, nil

	case ModeReconstruct:
		if op.k < 1 || op.k > sss.MaxShares {
			return nil, fmt.Errorf("%w: %w: %d", ErrConfiguration, sss.ErrShareCount, op.k)
		}
		secret, err := sss.Reconstruct(eng, op.shares[:op.k])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
		}
		return &pipelineJob{result: secret, latency: int(op.k)}, nil
	}

	return nil, fmt.Errorf("%w: %w: %d", ErrConfiguration, ErrInvalidMode, uint32(op.mode))
}

func (c *Controller) finish(regs *RegisterFile, irq *InterruptController, result uint32, found bool, outcome string) {
	regs.commit(result, c.cycles, found)
	c.state = StateComplete
	c.job = nil
	if c.op.intEn {
		irq.raise()
	}

	mode, field := c.labels()
	metrics.RecordOperation(mode, field, outcome, c.cycles)
	c.logger.Debug("Operation complete",
		"mode", mode,
		"outcome", outcome,
		"found", found,
		"cycles", c.cycles)
}

// labels keeps metric label values bounded for out-of-range selectors.
func (c *Controller) labels() (mode, field string) {
	mode, field = "invalid", "invalid"
	if c.op.mode.Valid() {
		mode = c.op.mode.String()
	}
	if c.op.field.Valid() {
		field = c.op.field.String()
	}
	return mode, field
}
