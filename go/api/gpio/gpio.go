// Package gpio is the process side of the GPIO driver.
package gpio

import (
	"github.com/lunixbochs/tockcorn/go/models"
	"github.com/lunixbochs/tockcorn/go/platform"
)

const DriverNum uint32 = 0x4

const (
	cmdExists           = 0
	cmdEnableOutput     = 1
	cmdSet              = 2
	cmdClear            = 3
	cmdToggle           = 4
	cmdEnableInput      = 5
	cmdRead             = 6
	cmdEnableInterrupt  = 7
	cmdDisableInterrupt = 8
	cmdDisable          = 9
	cmdCount            = 10
)

const subscribeInterrupt = 0

type PinState uint32

const (
	Low  PinState = 0
	High PinState = 1
)

func (p PinState) String() string {
	if p == Low {
		return "Low"
	}
	return "High"
}

type PullMode uint32

const (
	PullNone PullMode = 0
	PullUp   PullMode = 1
	PullDown PullMode = 2
)

type Edge uint32

const (
	EitherEdge  Edge = 0
	RisingEdge  Edge = 1
	FallingEdge Edge = 2
)

type Gpio struct {
	sys *platform.Syscalls
}

func New(sys *platform.Syscalls) *Gpio {
	return &Gpio{sys: sys}
}

func (g *Gpio) command(id, arg0, arg1 uint32) models.CommandReturn {
	return g.sys.Command(DriverNum, id, arg0, arg1)
}

func (g *Gpio) Exists() error {
	return g.command(cmdExists, 0, 0).Err()
}

func (g *Gpio) Count() (uint32, error) {
	ret := g.command(cmdCount, 0, 0)
	if n, ok := ret.GetSuccessU32(); ok {
		return n, nil
	}
	return 0, errOrBadRVal(ret)
}

// errOrBadRVal is for commands whose success carries a value: a bare success
// is as unexpected as any other wrong variant.
func errOrBadRVal(ret models.CommandReturn) error {
	if err := ret.Err(); err != nil {
		return err
	}
	return models.BadRVal
}

func (g *Gpio) Pin(n uint32) *Pin {
	return &Pin{gpio: g, num: n}
}

type Pin struct {
	gpio *Gpio
	num  uint32
}

func (p *Pin) Num() uint32 { return p.num }

func (p *Pin) command(id, arg uint32) error {
	return p.gpio.command(id, p.num, arg).Err()
}

func (p *Pin) MakeOutput() error             { return p.command(cmdEnableOutput, 0) }
func (p *Pin) MakeInput(pull PullMode) error { return p.command(cmdEnableInput, uint32(pull)) }
func (p *Pin) Set() error                    { return p.command(cmdSet, 0) }
func (p *Pin) Clear() error                  { return p.command(cmdClear, 0) }
func (p *Pin) Toggle() error                 { return p.command(cmdToggle, 0) }
func (p *Pin) Disable() error                { return p.command(cmdDisable, 0) }
func (p *Pin) EnableInterrupts(e Edge) error { return p.command(cmdEnableInterrupt, uint32(e)) }
func (p *Pin) DisableInterrupts() error      { return p.command(cmdDisableInterrupt, 0) }

func (p *Pin) Read() (PinState, error) {
	ret := p.gpio.command(cmdRead, p.num, 0)
	if v, ok := ret.GetSuccessU32(); ok {
		if v != 0 {
			return High, nil
		}
		return Low, nil
	}
	return Low, errOrBadRVal(ret)
}

// InterruptListener decodes interrupt upcalls into (pin, state).
type InterruptListener func(pin uint32, state PinState)

func (l InterruptListener) Upcall(pin, value, _ uint32) {
	state := Low
	if value != 0 {
		state = High
	}
	l(pin, state)
}

// Listen subscribes l to interrupts from every pin for the life of sc.
func (g *Gpio) Listen(sc *platform.Scope, l InterruptListener) (*platform.Subscription, error) {
	return sc.Subscribe(DriverNum, subscribeInterrupt, l)
}
