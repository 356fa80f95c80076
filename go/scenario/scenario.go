// Package scenario runs scripted sessions against the simulated kernel.
// A scenario lists the drivers to attach and a sequence of steps; each step
// is one syscall, driver hook or expectation.
package scenario

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/lunixbochs/tockcorn/go/kernel/fake"
	"github.com/lunixbochs/tockcorn/go/models"
)

type Scenario struct {
	Name    string        `yaml:"name"`
	Drivers DriverSet     `yaml:"drivers"`
	Memory  *MemoryLayout `yaml:"memory"`
	Steps   []Step        `yaml:"steps"`
}

// DriverSet selects the simulated drivers to attach. Gpio is a pin count.
type DriverSet struct {
	Gpio          int  `yaml:"gpio"`
	Radio         bool `yaml:"ieee802154"`
	LowLevelDebug bool `yaml:"lowleveldebug"`
	Console       bool `yaml:"console"`
}

type MemoryLayout struct {
	Start uint32 `yaml:"start"`
	Size  uint32 `yaml:"size"`
	Heap  uint32 `yaml:"heap"`
}

// Return matches or builds a CommandReturn. Error alone matches any failure
// variant carrying that code. Values are the payload words in order; for a
// failure they follow the error code.
type Return struct {
	Variant string   `yaml:"variant"`
	Values  []uint32 `yaml:"values"`
	Error   string   `yaml:"error"`
}

func (r *Return) Check(got models.CommandReturn) error {
	if r.Error != "" {
		code, err := models.ParseErrorCode(r.Error)
		if err != nil {
			return err
		}
		if got.Err() != code {
			return errors.Errorf("expected error %s, got %s", code, got)
		}
	}
	if r.Variant != "" {
		variant, err := models.ParseReturnVariant(r.Variant)
		if err != nil {
			return err
		}
		if got.ReturnVariant() != variant {
			return errors.Errorf("expected %s, got %s", variant, got)
		}
	}
	r1, r2, r3 := got.Raw()
	raw := []uint32{r1, r2, r3}
	if got.IsFailure() {
		raw = raw[1:]
	}
	if len(r.Values) > len(raw) {
		return errors.Errorf("expected %d values, %s carries at most %d", len(r.Values), got.ReturnVariant(), len(raw))
	}
	for i, v := range r.Values {
		if raw[i] != v {
			return errors.Errorf("expected value %d = %#x, got %s", i, v, got)
		}
	}
	return nil
}

// CommandReturn builds the value for a scripted override.
func (r *Return) CommandReturn() (models.CommandReturn, error) {
	variant := models.VariantSuccess
	if r.Variant != "" {
		v, err := models.ParseReturnVariant(r.Variant)
		if err != nil {
			return models.CommandReturn{}, err
		}
		variant = v
	} else if r.Error != "" {
		variant = models.VariantFailure
	}
	var vals [3]uint32
	if len(r.Values) > 3 {
		return models.CommandReturn{}, errors.Errorf("a return has at most 3 values, got %d", len(r.Values))
	}
	copy(vals[:], r.Values)
	if variant.IsFailure() {
		if r.Error == "" {
			return models.CommandReturn{}, errors.Errorf("%s override needs an error", variant)
		}
		code, err := models.ParseErrorCode(r.Error)
		if err != nil {
			return models.CommandReturn{}, err
		}
		// failure payloads start after the error code
		vals = [3]uint32{uint32(code), vals[0], vals[1]}
	}
	return models.NewCommandReturn(variant, vals[0], vals[1], vals[2]), nil
}

type CommandStep struct {
	Driver uint32  `yaml:"driver"`
	ID     uint32  `yaml:"id"`
	Arg0   uint32  `yaml:"arg0"`
	Arg1   uint32  `yaml:"arg1"`
	Expect *Return `yaml:"expect"`
}

type SubscribeStep struct {
	Driver uint32 `yaml:"driver"`
	Slot   uint32 `yaml:"slot"`
	// Error is the failure the subscribe is expected to return.
	Error string `yaml:"error"`
}

type MemopStep struct {
	Op     string  `yaml:"op"`
	Arg    uint32  `yaml:"arg"`
	Expect *uint32 `yaml:"expect"`
	Error  string  `yaml:"error"`
}

type ExitStep struct {
	Restart bool   `yaml:"restart"`
	Code    uint32 `yaml:"code"`
}

// PinStep drives a GPIO pin from outside the process.
type PinStep struct {
	Pin   uint32 `yaml:"pin"`
	Value bool   `yaml:"value"`
}

// GpioStep calls the GPIO client API.
type GpioStep struct {
	Pin    uint32 `yaml:"pin"`
	Op     string `yaml:"op"`
	Pull   string `yaml:"pull"`
	Edge   string `yaml:"edge"`
	Expect string `yaml:"expect"`
	Error  string `yaml:"error"`
}

type TransmitStep struct {
	Header  string `yaml:"header"`
	Payload string `yaml:"payload"`
	Error   string `yaml:"error"`
}

// ReceiveStep delivers a frame over the air and receives it through the
// client ring buffer.
type ReceiveStep struct {
	Header  string `yaml:"header"`
	Payload string `yaml:"payload"`
}

type ReadStep struct {
	Input  string `yaml:"input"`
	Len    int    `yaml:"len"`
	Expect string `yaml:"expect"`
}

// InjectStep queues an expected syscall.
type InjectStep struct {
	Kind       string  `yaml:"kind"`
	Driver     uint32  `yaml:"driver"`
	Num        uint32  `yaml:"num"`
	Arg0       uint32  `yaml:"arg0"`
	Arg1       uint32  `yaml:"arg1"`
	Return     *Return `yaml:"return"`
	Error      string  `yaml:"error"`
	SkipUpcall bool    `yaml:"skip_upcall"`
}

func (s *InjectStep) errorCode() (models.ErrorCode, error) {
	if s.Error == "" {
		return 0, nil
	}
	return models.ParseErrorCode(s.Error)
}

func (s *InjectStep) override() (*models.CommandReturn, error) {
	if s.Return == nil {
		return nil, nil
	}
	ret, err := s.Return.CommandReturn()
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

// Expected converts the step to the kernel's expected-syscall form.
func (s *InjectStep) Expected() (fake.ExpectedSyscall, error) {
	code, err := s.errorCode()
	if err != nil {
		return nil, err
	}
	override, err := s.override()
	if err != nil {
		return nil, err
	}
	switch s.Kind {
	case "command":
		return fake.ExpectedCommand{DriverNum: s.Driver, CommandID: s.Num, Arg0: s.Arg0, Arg1: s.Arg1, Override: override}, nil
	case "subscribe":
		return fake.ExpectedSubscribe{DriverNum: s.Driver, SubscribeNum: s.Num, SkipWithError: code}, nil
	case "allow_ro":
		return fake.ExpectedAllowRO{DriverNum: s.Driver, BufferNum: s.Num, ReturnError: code}, nil
	case "allow_rw":
		return fake.ExpectedAllowRW{DriverNum: s.Driver, BufferNum: s.Num, ReturnError: code}, nil
	case "memop":
		return fake.ExpectedMemop{MemopNum: s.Num, Arg: s.Arg0, Override: override}, nil
	case "yield_wait":
		return fake.ExpectedYieldWait{SkipUpcall: s.SkipUpcall}, nil
	case "yield_no_wait":
		var ret *models.YieldNoWaitReturn
		if s.SkipUpcall {
			v := models.NoUpcall
			ret = &v
		}
		return fake.ExpectedYieldNoWait{Override: ret}, nil
	}
	return nil, errors.Errorf("unknown syscall kind %q", s.Kind)
}

type UpcallExpect struct {
	Driver uint32   `yaml:"driver"`
	Slot   uint32   `yaml:"slot"`
	Args   []uint32 `yaml:"args"`
}

// Step is one scenario action. Exactly one action field may be set.
type Step struct {
	Name string `yaml:"name"`

	Command     *CommandStep   `yaml:"command"`
	Subscribe   *SubscribeStep `yaml:"subscribe"`
	Unsubscribe *SubscribeStep `yaml:"unsubscribe"`
	Yield       string         `yaml:"yield"`
	Memop       *MemopStep     `yaml:"memop"`
	Exit        *ExitStep      `yaml:"exit"`
	Pin         *PinStep       `yaml:"pin"`
	Gpio        *GpioStep      `yaml:"gpio"`
	Transmit    *TransmitStep  `yaml:"transmit"`
	Receive     *ReceiveStep   `yaml:"receive"`
	Write       string         `yaml:"write"`
	Read        *ReadStep      `yaml:"read"`
	Inject      *InjectStep    `yaml:"inject"`
	Upcall      *UpcallExpect  `yaml:"expect_upcall"`
}

func (s *Step) actions() int {
	n := 0
	for _, set := range []bool{
		s.Command != nil, s.Subscribe != nil, s.Unsubscribe != nil, s.Yield != "",
		s.Memop != nil, s.Exit != nil, s.Pin != nil, s.Gpio != nil, s.Transmit != nil,
		s.Receive != nil, s.Write != "", s.Read != nil, s.Inject != nil, s.Upcall != nil,
	} {
		if set {
			n++
		}
	}
	return n
}

// Validate checks the scenario's shape without running it.
func (s *Scenario) Validate() error {
	for i := range s.Steps {
		if n := s.Steps[i].actions(); n != 1 {
			return errors.Errorf("step %d has %d actions, want exactly 1", i+1, n)
		}
	}
	return nil
}

func Parse(r io.Reader) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, errors.Wrap(err, "parse scenario")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func ParseBytes(data []byte) (*Scenario, error) {
	return Parse(bytes.NewReader(data))
}

func Load(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()
	s, err := Parse(f)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	if s.Name == "" {
		s.Name = path
	}
	return s, nil
}
