// Package gpio is a simulated GPIO capsule with edge-triggered interrupts.
package gpio

import (
	"fmt"

	"github.com/lunixbochs/tockcorn/go/kernel/common"
	"github.com/lunixbochs/tockcorn/go/models"
)

const DriverNum uint32 = 0x4

// command ids
const (
	CmdExists           uint32 = 0
	CmdEnableOutput     uint32 = 1
	CmdSet              uint32 = 2
	CmdClear            uint32 = 3
	CmdToggle           uint32 = 4
	CmdEnableInput      uint32 = 5
	CmdRead             uint32 = 6
	CmdEnableInterrupt  uint32 = 7
	CmdDisableInterrupt uint32 = 8
	CmdDisable          uint32 = 9
	CmdCount            uint32 = 10
)

// UpcallInterrupt receives (pin, value, 0) on a matching edge.
const UpcallInterrupt uint32 = 0

type PullMode uint32

const (
	PullNone PullMode = 0
	PullUp   PullMode = 1
	PullDown PullMode = 2
)

func (p PullMode) String() string {
	switch p {
	case PullNone:
		return "PullNone"
	case PullUp:
		return "PullUp"
	case PullDown:
		return "PullDown"
	}
	return fmt.Sprintf("PullMode(%d)", uint32(p))
}

type Edge uint32

const (
	EitherEdge  Edge = 0
	RisingEdge  Edge = 1
	FallingEdge Edge = 2
)

func (e Edge) String() string {
	switch e {
	case EitherEdge:
		return "Either"
	case RisingEdge:
		return "Rising"
	case FallingEdge:
		return "Falling"
	}
	return fmt.Sprintf("Edge(%d)", uint32(e))
}

// Matches reports whether a transition from old to new fires this edge.
func (e Edge) Matches(old, new bool) bool {
	if old == new {
		return false
	}
	switch e {
	case EitherEdge:
		return true
	case RisingEdge:
		return new
	case FallingEdge:
		return !new
	}
	return false
}

type Mode int

const (
	Disabled Mode = iota
	Output
	Input
)

func (m Mode) String() string {
	switch m {
	case Output:
		return "Output"
	case Input:
		return "Input"
	}
	return "Disabled"
}

// PinState is one pin as the driver sees it.
type PinState struct {
	Mode      Mode
	Pull      PullMode
	Value     bool
	Interrupt *Edge
}

type pin struct {
	PinState
	missing bool
}

// Gpio simulates a bank of pins. Test code drives input pins with SetValue.
type Gpio struct {
	common.DriverBase
	pins []pin
}

func New(numPins int) *Gpio {
	g := &Gpio{pins: make([]pin, numPins)}
	g.DriverNum = DriverNum
	g.Upcalls = 1
	common.DriverInit(g, map[string]uint32{
		"Exists":           CmdExists,
		"EnableOutput":     CmdEnableOutput,
		"Set":              CmdSet,
		"Clear":            CmdClear,
		"Toggle":           CmdToggle,
		"EnableInput":      CmdEnableInput,
		"Read":             CmdRead,
		"EnableInterrupt":  CmdEnableInterrupt,
		"DisableInterrupt": CmdDisableInterrupt,
		"Disable":          CmdDisable,
		"Count":            CmdCount,
	})
	return g
}

func (g *Gpio) pin(n uint32) (*pin, models.ErrorCode) {
	if n >= uint32(len(g.pins)) {
		return nil, models.Invalid
	}
	p := &g.pins[n]
	if p.missing {
		return nil, models.NoDevice
	}
	return p, 0
}

// SetMissing makes a pin report NoDevice, as on boards with holes in the
// pin numbering.
func (g *Gpio) SetMissing(n uint32) error {
	if n >= uint32(len(g.pins)) {
		return models.Invalid
	}
	g.pins[n].missing = true
	return nil
}

// State returns a copy of the pin state.
func (g *Gpio) State(n uint32) (PinState, error) {
	p, err := g.pin(n)
	if p == nil {
		return PinState{}, err
	}
	state := p.PinState
	if state.Interrupt != nil {
		edge := *state.Interrupt
		state.Interrupt = &edge
	}
	return state, nil
}

// SetValue drives a pin from outside, as hardware would. A change that
// matches the pin's interrupt edge queues the interrupt upcall.
func (g *Gpio) SetValue(n uint32, value bool) error {
	p, err := g.pin(n)
	if p == nil {
		return err
	}
	old := p.Value
	p.Value = value
	if p.Interrupt != nil && p.Interrupt.Matches(old, value) {
		return g.Share.ScheduleUpcall(UpcallInterrupt, n, boolU32(value), 0)
	}
	return nil
}

func boolU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func (g *Gpio) CommandExists() models.CommandReturn {
	return models.Success()
}

func (g *Gpio) CommandCount() models.CommandReturn {
	return models.SuccessU32(uint32(len(g.pins)))
}

// output runs fn on an output pin.
func (g *Gpio) output(n uint32, fn func(p *pin)) models.CommandReturn {
	p, err := g.pin(n)
	if p == nil {
		return models.Failure(err)
	}
	if p.Mode != Output {
		return models.Failure(models.Fail)
	}
	fn(p)
	return models.Success()
}

func (g *Gpio) CommandEnableOutput(n uint32) models.CommandReturn {
	p, err := g.pin(n)
	if p == nil {
		return models.Failure(err)
	}
	p.Mode, p.Pull = Output, PullNone
	return models.Success()
}

func (g *Gpio) CommandSet(n uint32) models.CommandReturn {
	return g.output(n, func(p *pin) { p.Value = true })
}

func (g *Gpio) CommandClear(n uint32) models.CommandReturn {
	return g.output(n, func(p *pin) { p.Value = false })
}

func (g *Gpio) CommandToggle(n uint32) models.CommandReturn {
	return g.output(n, func(p *pin) { p.Value = !p.Value })
}

func (g *Gpio) CommandEnableInput(n uint32, pull PullMode) models.CommandReturn {
	p, err := g.pin(n)
	if p == nil {
		return models.Failure(err)
	}
	if pull > PullDown {
		return models.Failure(models.Invalid)
	}
	p.Mode, p.Pull = Input, pull
	return models.Success()
}

func (g *Gpio) CommandRead(n uint32) models.CommandReturn {
	p, err := g.pin(n)
	if p == nil {
		return models.Failure(err)
	}
	if p.Mode != Input {
		return models.Failure(models.Fail)
	}
	return models.SuccessU32(boolU32(p.Value))
}

func (g *Gpio) CommandEnableInterrupt(n uint32, edge Edge) models.CommandReturn {
	p, err := g.pin(n)
	if p == nil {
		return models.Failure(err)
	}
	if edge > FallingEdge {
		return models.Failure(models.Invalid)
	}
	p.Interrupt = &edge
	return models.Success()
}

func (g *Gpio) CommandDisableInterrupt(n uint32) models.CommandReturn {
	p, err := g.pin(n)
	if p == nil {
		return models.Failure(err)
	}
	p.Interrupt = nil
	return models.Success()
}

func (g *Gpio) CommandDisable(n uint32) models.CommandReturn {
	p, err := g.pin(n)
	if p == nil {
		return models.Failure(err)
	}
	p.Mode, p.Pull = Disabled, PullNone
	return models.Success()
}
