package scenario

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"

	gpioapi "github.com/lunixbochs/tockcorn/go/api/gpio"
	radioapi "github.com/lunixbochs/tockcorn/go/api/ieee802154"
	"github.com/lunixbochs/tockcorn/go/kernel/drivers/console"
	"github.com/lunixbochs/tockcorn/go/kernel/drivers/gpio"
	"github.com/lunixbochs/tockcorn/go/kernel/drivers/ieee802154"
	"github.com/lunixbochs/tockcorn/go/kernel/drivers/lowleveldebug"
	"github.com/lunixbochs/tockcorn/go/kernel/fake"
	"github.com/lunixbochs/tockcorn/go/models"
	"github.com/lunixbochs/tockcorn/go/platform"
)

// Upcall is one delivered upcall on a scenario subscription.
type Upcall struct {
	Driver uint32
	Slot   uint32
	Args   [3]uint32
}

func (u Upcall) String() string {
	return fmt.Sprintf("upcall(%#x, %d, %#x, %#x, %#x)", u.Driver, u.Slot, u.Args[0], u.Args[1], u.Args[2])
}

type Result struct {
	Name     string
	Steps    int
	Exit     *fake.ExitCall
	Syscalls []fake.SyscallLogEntry
	Debug    []lowleveldebug.Message
	Console  []byte
	Sent     []*models.RadioFrame
}

type runner struct {
	log    hclog.Logger
	kernel *fake.Kernel
	sys    *platform.Syscalls
	scope  *platform.Scope
	subs   map[[2]uint32]*platform.Subscription

	gpio    *gpio.Gpio
	radio   *ieee802154.Radio
	lld     *lowleveldebug.LowLevelDebug
	console *console.Console

	gpioAPI  *gpioapi.Gpio
	radioAPI *radioapi.Radio
	rx       *radioapi.RxOperator

	upcalls []Upcall
}

// Run executes s against a fresh simulated kernel. Kernel panics (a
// mismatched expected syscall, yield-wait with nothing queued) become errors.
// A process exit ends the scenario and is reported in the Result.
func Run(s *Scenario, config *models.Config) (res *Result, err error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	// the scenario's layout and the kernel's defaults go into a copy
	var cfg models.Config
	if config != nil {
		cfg = *config
	}
	config = &cfg
	if m := s.Memory; m != nil {
		config.MemoryStart, config.MemorySize, config.HeapStart = m.Start, m.Size, m.Heap
	}
	k := fake.NewKernel(config)
	r := &runner{
		log:    config.Logger.Named("scenario"),
		kernel: k,
		sys:    platform.New(k),
		subs:   make(map[[2]uint32]*platform.Subscription),
	}
	r.attach(s.Drivers)
	res = &Result{Name: s.Name}

	defer func() {
		if cerr := k.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	defer func() {
		if p := recover(); p != nil {
			err = errors.Errorf("step %d: kernel panic: %v", res.Steps, p)
		}
		r.collect(res)
	}()

	res.Exit = fake.CatchExit(func() {
		err = r.sys.Scope(func(sc *platform.Scope) error {
			r.scope = sc
			for i := range s.Steps {
				res.Steps = i + 1
				step := &s.Steps[i]
				if step.Name != "" {
					r.log.Debug("step", "n", i+1, "name", step.Name)
				}
				if err := r.step(step); err != nil {
					if step.Name != "" {
						return errors.Wrapf(err, "step %d (%s)", i+1, step.Name)
					}
					return errors.Wrapf(err, "step %d", i+1)
				}
			}
			return nil
		})
	})
	return res, err
}

func (r *runner) attach(set DriverSet) {
	if set.Gpio > 0 {
		r.gpio = gpio.New(set.Gpio)
		r.kernel.AddDriver(r.gpio)
		r.gpioAPI = gpioapi.New(r.sys)
	}
	if set.Radio {
		r.radio = ieee802154.New()
		r.kernel.AddDriver(r.radio)
		r.radioAPI = radioapi.New(r.sys)
		r.rx = radioapi.NewRxOperator(r.radioAPI, radioapi.NewRxRingBuffer(3))
	}
	if set.LowLevelDebug {
		r.lld = lowleveldebug.New()
		r.kernel.AddDriver(r.lld)
	}
	if set.Console {
		r.console = console.New()
		r.kernel.AddDriver(r.console)
	}
}

func (r *runner) collect(res *Result) {
	res.Syscalls = r.kernel.TakeSyscallLog()
	if r.lld != nil {
		res.Debug = r.lld.TakeMessages()
	}
	if r.console != nil {
		res.Console = r.console.TakeWritten()
	}
	if r.radio != nil {
		res.Sent = r.radio.TakeTransmittedFrames()
	}
}

func (r *runner) step(s *Step) error {
	switch {
	case s.Command != nil:
		c := s.Command
		ret := r.sys.Command(c.Driver, c.ID, c.Arg0, c.Arg1)
		r.log.Debug("command", "driver", hclog.Fmt("%#x", c.Driver), "id", c.ID, "ret", ret.String())
		if c.Expect != nil {
			return c.Expect.Check(ret)
		}
		return nil
	case s.Subscribe != nil:
		return r.subscribe(s.Subscribe)
	case s.Unsubscribe != nil:
		sub, ok := r.subs[[2]uint32{s.Unsubscribe.Driver, s.Unsubscribe.Slot}]
		if !ok {
			return errors.Errorf("no subscription on %#x/%d", s.Unsubscribe.Driver, s.Unsubscribe.Slot)
		}
		sub.Unsubscribe()
		return nil
	case s.Yield != "":
		return r.yield(s.Yield)
	case s.Memop != nil:
		return r.memop(s.Memop)
	case s.Exit != nil:
		if s.Exit.Restart {
			r.sys.ExitRestart(s.Exit.Code)
		}
		r.sys.ExitTerminate(s.Exit.Code)
		return nil
	case s.Pin != nil:
		if r.gpio == nil {
			return errors.New("no gpio driver attached")
		}
		return r.gpio.SetValue(s.Pin.Pin, s.Pin.Value)
	case s.Gpio != nil:
		return r.gpioStep(s.Gpio)
	case s.Transmit != nil:
		return r.transmit(s.Transmit)
	case s.Receive != nil:
		return r.receive(s.Receive)
	case s.Write != "":
		return r.write(s.Write)
	case s.Read != nil:
		return r.read(s.Read)
	case s.Inject != nil:
		e, err := s.Inject.Expected()
		if err != nil {
			return err
		}
		r.kernel.AddExpectedSyscall(e)
		return nil
	case s.Upcall != nil:
		return r.expectUpcall(s.Upcall)
	}
	return errors.New("empty step")
}

func (r *runner) subscribe(s *SubscribeStep) error {
	driver, slot := s.Driver, s.Slot
	sub, err := r.scope.Subscribe(driver, slot, platform.UpcallFunc(func(a0, a1, a2 uint32) {
		u := Upcall{Driver: driver, Slot: slot, Args: [3]uint32{a0, a1, a2}}
		r.log.Debug("upcall", "upcall", u.String())
		r.upcalls = append(r.upcalls, u)
	}))
	if s.Error != "" {
		want, perr := models.ParseErrorCode(s.Error)
		if perr != nil {
			return perr
		}
		if errors.Cause(err) != want {
			return errors.Errorf("subscribe(%#x, %d): expected %s, got %v", driver, slot, want, err)
		}
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "subscribe(%#x, %d)", driver, slot)
	}
	r.subs[[2]uint32{driver, slot}] = sub
	return nil
}

func (r *runner) yield(kind string) error {
	switch kind {
	case "wait":
		r.sys.YieldWait()
	case "no-wait", "nowait":
		r.log.Debug("yield-no-wait", "result", r.sys.YieldNoWait())
	default:
		return errors.Errorf("unknown yield %q", kind)
	}
	return nil
}

func (r *runner) memop(m *MemopStep) error {
	var v uint32
	var err error
	switch m.Op {
	case "brk":
		err = r.sys.Brk(m.Arg)
	case "sbrk":
		v, err = r.sys.Sbrk(int32(m.Arg))
	case "memory_start":
		v, err = r.sys.MemoryStart()
	case "memory_end":
		v, err = r.sys.MemoryEnd()
	case "flash_start":
		v, err = r.sys.FlashStart()
	case "flash_end":
		v, err = r.sys.FlashEnd()
	case "grant_start":
		v, err = r.sys.GrantStart()
	case "flash_regions":
		v, err = r.sys.FlashRegions()
	case "flash_region_start":
		v, err = r.sys.FlashRegionStart(m.Arg)
	case "flash_region_end":
		v, err = r.sys.FlashRegionEnd(m.Arg)
	case "set_stack_start":
		err = r.sys.SetStackStart(m.Arg)
	case "set_heap_start":
		err = r.sys.SetHeapStart(m.Arg)
	default:
		return errors.Errorf("unknown memop %q", m.Op)
	}
	if err := checkError(m.Error, err); err != nil {
		return errors.Wrap(err, m.Op)
	}
	if m.Expect != nil && *m.Expect != v {
		return errors.Errorf("%s: expected %#x, got %#x", m.Op, *m.Expect, v)
	}
	return nil
}

// checkError compares err against the named error code; an empty name
// expects no error.
func checkError(want string, err error) error {
	if want == "" {
		return err
	}
	code, perr := models.ParseErrorCode(want)
	if perr != nil {
		return perr
	}
	if errors.Cause(err) != code {
		return errors.Errorf("expected %s, got %v", code, err)
	}
	return nil
}

func (r *runner) gpioStep(g *GpioStep) error {
	if r.gpioAPI == nil {
		return errors.New("no gpio driver attached")
	}
	pin := r.gpioAPI.Pin(g.Pin)
	var err error
	switch g.Op {
	case "output":
		err = pin.MakeOutput()
	case "input":
		pull, perr := parsePull(g.Pull)
		if perr != nil {
			return perr
		}
		err = pin.MakeInput(pull)
	case "set":
		err = pin.Set()
	case "clear":
		err = pin.Clear()
	case "toggle":
		err = pin.Toggle()
	case "disable":
		err = pin.Disable()
	case "interrupts":
		edge, perr := parseEdge(g.Edge)
		if perr != nil {
			return perr
		}
		err = pin.EnableInterrupts(edge)
	case "no-interrupts":
		err = pin.DisableInterrupts()
	case "read":
		var state gpioapi.PinState
		state, err = pin.Read()
		if err == nil && g.Expect != "" && !strings.EqualFold(state.String(), g.Expect) {
			return errors.Errorf("pin %d: expected %s, got %s", g.Pin, g.Expect, state)
		}
	default:
		return errors.Errorf("unknown gpio op %q", g.Op)
	}
	if err := checkError(g.Error, err); err != nil {
		return errors.Wrapf(err, "pin %d %s", g.Pin, g.Op)
	}
	return nil
}

func parsePull(s string) (gpioapi.PullMode, error) {
	switch s {
	case "", "none":
		return gpioapi.PullNone, nil
	case "up":
		return gpioapi.PullUp, nil
	case "down":
		return gpioapi.PullDown, nil
	}
	return 0, errors.Errorf("unknown pull mode %q", s)
}

func parseEdge(s string) (gpioapi.Edge, error) {
	switch s {
	case "", "either":
		return gpioapi.EitherEdge, nil
	case "rising":
		return gpioapi.RisingEdge, nil
	case "falling":
		return gpioapi.FallingEdge, nil
	}
	return 0, errors.Errorf("unknown edge %q", s)
}

func (r *runner) transmit(t *TransmitStep) error {
	if r.radioAPI == nil {
		return errors.New("no ieee802154 driver attached")
	}
	frame, err := models.NewRadioFrame([]byte(t.Header), []byte(t.Payload), nil)
	if err != nil {
		return err
	}
	acked, err := r.radioAPI.Transmit(frame)
	if err := checkError(t.Error, err); err != nil {
		return errors.Wrap(err, "transmit")
	}
	r.log.Debug("transmitted", "len", frame.Len(), "acked", acked)
	return nil
}

func (r *runner) receive(s *ReceiveStep) error {
	if r.radio == nil {
		return errors.New("no ieee802154 driver attached")
	}
	frame, err := models.NewRadioFrame([]byte(s.Header), []byte(s.Payload), nil)
	if err != nil {
		return err
	}
	var deliverErr error
	r.kernel.SetIdleHook(func() {
		r.kernel.SetIdleHook(nil)
		deliverErr = r.radio.ReceiveFrame(frame)
	})
	defer r.kernel.SetIdleHook(nil)
	got, err := r.rx.ReceiveFrame()
	if deliverErr != nil {
		return errors.Wrap(deliverErr, "deliver frame")
	}
	if err != nil {
		return errors.Wrap(err, "receive")
	}
	if !bytes.Equal(got.Payload(), []byte(s.Payload)) {
		return errors.Errorf("received payload %q, expected %q", got.Payload(), s.Payload)
	}
	return nil
}

func (r *runner) write(text string) error {
	if r.console == nil {
		return errors.New("no console driver attached")
	}
	buf := []byte(text)
	return r.sys.Scope(func(sc *platform.Scope) error {
		if _, err := sc.AllowRO(console.DriverNum, console.BufferWrite, buf); err != nil {
			return errors.Wrap(err, "share write buffer")
		}
		var done platform.Args
		if _, err := sc.Subscribe(console.DriverNum, console.UpcallWrite, &done); err != nil {
			return errors.Wrap(err, "subscribe write")
		}
		if err := r.sys.Command(console.DriverNum, console.CmdWrite, uint32(len(buf)), 0).Err(); err != nil {
			return errors.Wrap(err, "write")
		}
		for !done.Called {
			r.sys.YieldWait()
		}
		if int(done.Arg0) != len(buf) {
			return errors.Errorf("short write: %d of %d bytes", done.Arg0, len(buf))
		}
		return nil
	})
}

func (r *runner) read(s *ReadStep) error {
	if r.console == nil {
		return errors.New("no console driver attached")
	}
	n := s.Len
	if n == 0 {
		n = len(s.Expect)
	}
	buf := make([]byte, n)
	var done platform.Args
	err := r.sys.Scope(func(sc *platform.Scope) error {
		if _, err := sc.AllowRW(console.DriverNum, console.BufferRead, buf); err != nil {
			return errors.Wrap(err, "share read buffer")
		}
		if _, err := sc.Subscribe(console.DriverNum, console.UpcallRead, &done); err != nil {
			return errors.Wrap(err, "subscribe read")
		}
		if s.Input != "" {
			if err := r.console.SetInput([]byte(s.Input)); err != nil {
				return err
			}
		}
		if err := r.sys.Command(console.DriverNum, console.CmdRead, uint32(n), 0).Err(); err != nil {
			return errors.Wrap(err, "read")
		}
		for !done.Called {
			r.sys.YieldWait()
		}
		return nil
	})
	if err != nil {
		return err
	}
	if done.Arg0 != 0 {
		return errors.Errorf("read failed with status %d", done.Arg0)
	}
	if got := string(buf[:done.Arg1]); got != s.Expect {
		return errors.Errorf("read %q, expected %q", got, s.Expect)
	}
	return nil
}

func (r *runner) expectUpcall(e *UpcallExpect) error {
	if len(r.upcalls) == 0 {
		return errors.Errorf("expected upcall on %#x/%d, none delivered", e.Driver, e.Slot)
	}
	got := r.upcalls[0]
	r.upcalls = r.upcalls[1:]
	if got.Driver != e.Driver || got.Slot != e.Slot {
		return errors.Errorf("expected upcall on %#x/%d, got %s", e.Driver, e.Slot, got)
	}
	for i, v := range e.Args {
		if i >= 3 || got.Args[i] != v {
			return errors.Errorf("expected upcall args %#x, got %s", e.Args, got)
		}
	}
	return nil
}
