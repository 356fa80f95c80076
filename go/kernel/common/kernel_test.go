package common

import (
	"testing"

	"github.com/lunixbochs/tockcorn/go/models"
)

type Mode uint32

func (m Mode) String() string { return [...]string{"Off", "On"}[m&1] }

type LedDriver struct {
	DriverBase
	on      bool
	level   int8
	lastPin uint32
	mode    Mode
}

func (d *LedDriver) CommandSet(pin uint32, on bool) models.CommandReturn {
	d.lastPin, d.on = pin, on
	return models.Success()
}

func (d *LedDriver) CommandLevel(level int8) models.CommandReturn {
	d.level = level
	return models.SuccessU32(uint32(int32(level)))
}

func (d *LedDriver) CommandSetMode(m Mode) models.CommandReturn {
	d.mode = m
	return models.Success()
}

func (d *LedDriver) CommandCount() models.CommandReturn {
	return models.SuccessU32(4)
}

func NewLedDriver() *LedDriver {
	d := &LedDriver{}
	d.DriverNum = 2
	d.Upcalls = 1
	DriverInit(d, map[string]uint32{"Count": 0, "Set": 1, "Level": 2, "SetMode": 3})
	return d
}

func TestCommandTable(t *testing.T) {
	d := NewLedDriver()
	if ret := d.Command(1, 3, 1); !ret.GetSuccess() {
		t.Fatalf("set = %s", ret)
	}
	if d.lastPin != 3 || !d.on {
		t.Fatalf("set(3, true) saw pin=%d on=%v", d.lastPin, d.on)
	}
	if v, ok := d.Command(0, 0, 0).GetSuccessU32(); !ok || v != 4 {
		t.Fatal("command 0 was not routed to CommandCount")
	}
	if d.Command(7, 0, 0).Err() != models.NoSupport {
		t.Fatal("unknown command did not fail with NoSupport")
	}
}

func TestCommandSignedArg(t *testing.T) {
	d := NewLedDriver()
	ret := d.Command(2, 0xffffffff, 0)
	if d.level != -1 {
		t.Fatalf("level = %d, want -1", d.level)
	}
	if v, _ := ret.GetSuccessU32(); v != 0xffffffff {
		t.Fatalf("level returned %#x", v)
	}
}

func TestCommandNamedType(t *testing.T) {
	d := NewLedDriver()
	d.Command(3, 1, 0)
	if d.mode != 1 {
		t.Fatalf("mode = %d", d.mode)
	}
	if got := d.TraceCommand(3, 1, 0); got != "set_mode(On)" {
		t.Fatalf("trace = %q", got)
	}
	if got := d.TraceCommand(1, 5, 0); got != "set(0x5, false)" {
		t.Fatalf("trace = %q", got)
	}
	if got := d.TraceCommand(9, 1, 2); got != "command_9(0x1, 0x2)" {
		t.Fatalf("trace = %q", got)
	}
}

func TestDriverInitMissingMethod(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("DriverInit accepted a name with no method")
		}
	}()
	DriverInit(&LedDriver{}, map[string]uint32{"Blink": 4})
}

type wideDriver struct{ DriverBase }

func (d *wideDriver) CommandWide(a, b, c uint32) models.CommandReturn { return models.Success() }

func TestDriverInitTooManyArgs(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("DriverInit accepted a three-argument command")
		}
	}()
	DriverInit(&wideDriver{}, map[string]uint32{"Wide": 1})
}

func TestDefaultAllowRejects(t *testing.T) {
	d := NewLedDriver()
	buf := NewRwAllowBuffer(models.RegUsize(0x100), 4)
	got, err := d.AllowReadWrite(0, buf)
	if err != models.NoSupport || got != buf {
		t.Fatalf("AllowReadWrite = %v, %v", got, err)
	}
	if info := d.Info(); info.DriverNum != 2 || info.NumUpcalls != 1 {
		t.Fatalf("Info() = %+v", info)
	}
}

func TestCamelToSnake(t *testing.T) {
	for in, want := range map[string]string{
		"Set":              "set",
		"EnableInterrupts": "enable_interrupts",
		"GetTxPower":       "get_tx_power",
	} {
		if got := camelToSnakeCase(in); got != want {
			t.Errorf("camelToSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
