package fake

import (
	"fmt"
	"strings"
	"testing"
	"unsafe"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunixbochs/tockcorn/go/kernel/common"
	"github.com/lunixbochs/tockcorn/go/models"
	"github.com/lunixbochs/tockcorn/go/platform"
)

const testDriverNum = 1

// testDriver echoes its arguments and fires upcalls on request.
type testDriver struct {
	common.DriverBase
	ro common.RoAllowBuffer
	rw common.RwAllowBuffer
}

func newTestDriver(num uint32) *testDriver {
	d := &testDriver{}
	d.DriverNum = num
	d.Upcalls = 3
	common.DriverInit(d, map[string]uint32{"Echo": 1, "Fire": 2})
	return d
}

func (d *testDriver) CommandEcho(a, b uint32) models.CommandReturn {
	return models.Success2U32(a, b)
}

func (d *testDriver) CommandFire(slot, arg uint32) models.CommandReturn {
	if err := d.Share.ScheduleUpcall(slot, arg, 0, 0); err != nil {
		return models.Failure(models.Invalid)
	}
	return models.Success()
}

func (d *testDriver) AllowReadOnly(num uint32, buf common.RoAllowBuffer) (common.RoAllowBuffer, error) {
	if num != 0 {
		return buf, models.NoSupport
	}
	old := d.ro
	d.ro = buf
	return old, nil
}

func (d *testDriver) AllowReadWrite(num uint32, buf common.RwAllowBuffer) (common.RwAllowBuffer, error) {
	if num != 0 {
		return buf, models.NoSupport
	}
	old := d.rw
	d.rw = buf
	return old, nil
}

func setup(t *testing.T) (*Kernel, *testDriver, *platform.Syscalls) {
	k := NewTestKernel(t, nil)
	d := newTestDriver(testDriverNum)
	k.AddDriver(d)
	return k, d, platform.New(k)
}

func fire(t *testing.T, sys *platform.Syscalls, slot, arg uint32) {
	t.Helper()
	if err := sys.Command(testDriverNum, 2, slot, arg).Err(); err != nil {
		t.Fatalf("fire(%d): %v", slot, err)
	}
}

func TestCommandDispatch(t *testing.T) {
	_, _, sys := setup(t)
	a, b, ok := sys.Command(testDriverNum, 1, 5, 6).GetSuccess2U32()
	assert.True(t, ok)
	assert.Equal(t, []uint32{5, 6}, []uint32{a, b})

	assert.True(t, sys.Command(testDriverNum, 0, 0, 0).GetSuccess())
	assert.Equal(t, models.NoSupport, sys.Command(testDriverNum, 9, 0, 0).Err())
	assert.Equal(t, models.NoDevice, sys.Command(0x99, 0, 0, 0).Err())
}

func TestSubscribeErrors(t *testing.T) {
	k, _, _ := setup(t)
	fn, data := models.RegU32(0x1234), models.RegU32(0x5678)

	r := k.Syscall4(models.ClassSubscribe, [4]models.Register{models.RegU32(0x99), models.RegU32(0), fn, data})
	assert.Equal(t, uint32(models.VariantFailure2U32), r[0].AsU32())
	assert.Equal(t, uint32(models.NoDevice), r[1].AsU32())
	assert.Equal(t, fn, r[2])
	assert.Equal(t, data, r[3])

	r = k.Syscall4(models.ClassSubscribe, [4]models.Register{models.RegU32(testDriverNum), models.RegU32(3), fn, data})
	assert.Equal(t, uint32(models.VariantFailure2U32), r[0].AsU32())
	assert.Equal(t, uint32(models.NoSupport), r[1].AsU32())
}

func TestYieldFIFO(t *testing.T) {
	k, _, sys := setup(t)
	var order []string
	record := func(name string) platform.UpcallFunc {
		return func(a0, _, _ uint32) { order = append(order, fmt.Sprintf("%s:%d", name, a0)) }
	}
	err := sys.Scope(func(sc *platform.Scope) error {
		if _, err := sc.Subscribe(testDriverNum, 0, record("a")); err != nil {
			return err
		}
		if _, err := sc.Subscribe(testDriverNum, 1, record("b")); err != nil {
			return err
		}
		fire(t, sys, 1, 1)
		fire(t, sys, 0, 2)
		fire(t, sys, 1, 3)
		assert.Equal(t, 3, k.PendingUpcalls())
		sys.YieldWait()
		sys.YieldWait()
		assert.Equal(t, models.UpcallCalled, sys.YieldNoWait())
		assert.Equal(t, models.NoUpcall, sys.YieldNoWait())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"b:1", "a:2", "b:3"}, order)
}

func TestResubscribePurgesQueue(t *testing.T) {
	k, _, sys := setup(t)
	var first, second platform.Args
	err := sys.Scope(func(sc *platform.Scope) error {
		if _, err := sc.Subscribe(testDriverNum, 0, &first); err != nil {
			return err
		}
		fire(t, sys, 0, 7)
		if !k.IsUpcallPending(testDriverNum, 0) {
			t.Fatal("upcall not queued")
		}
		if _, err := sc.Subscribe(testDriverNum, 0, &second); err != nil {
			return err
		}
		if k.IsUpcallPending(testDriverNum, 0) {
			t.Fatal("replaced upcall still queued")
		}
		assert.Equal(t, models.NoUpcall, sys.YieldNoWait())
		return nil
	})
	require.NoError(t, err)
	assert.False(t, first.Called)
	assert.False(t, second.Called)
}

func TestNullUpcallNotQueued(t *testing.T) {
	k, _, sys := setup(t)
	fire(t, sys, 0, 1)
	assert.Equal(t, 0, k.PendingUpcalls())
}

func TestYieldWaitEmptyPanics(t *testing.T) {
	_, _, sys := setup(t)
	assert.Panics(t, sys.YieldWait)
}

func TestIdleHook(t *testing.T) {
	k, _, sys := setup(t)
	var args platform.Args
	err := sys.Scope(func(sc *platform.Scope) error {
		if _, err := sc.Subscribe(testDriverNum, 2, &args); err != nil {
			return err
		}
		k.SetIdleHook(func() { fire(t, sys, 2, 9) })
		sys.YieldWait()
		k.SetIdleHook(nil)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, args.Called)
	assert.Equal(t, uint32(9), args.Arg0)
}

func TestExpectedSubscribeSkip(t *testing.T) {
	k, _, sys := setup(t)
	k.AddExpectedSyscall(ExpectedSubscribe{DriverNum: 1, SubscribeNum: 2, SkipWithError: models.NoAck})
	var args platform.Args
	err := sys.Scope(func(sc *platform.Scope) error {
		_, err := sc.Subscribe(1, 2, &args)
		return err
	})
	assert.Equal(t, models.NoAck, errors.Cause(err))
	assert.Empty(t, k.ExpectedSyscalls())

	// nothing was registered, so firing queues nothing
	fire(t, sys, 2, 1)
	assert.False(t, k.IsUpcallPending(1, 2))
}

func TestExpectedCommandOverride(t *testing.T) {
	k, _, sys := setup(t)
	ret := models.FailureU32(models.Busy, 3)
	k.AddExpectedSyscall(ExpectedCommand{DriverNum: testDriverNum, CommandID: 1, Arg0: 5, Arg1: 6, Override: &ret})
	assert.Equal(t, ret, sys.Command(testDriverNum, 1, 5, 6))
	// queue empty again: real dispatch
	assert.True(t, sys.Command(testDriverNum, 1, 5, 6).IsSuccess2U32())
}

func TestExpectedMismatchPanics(t *testing.T) {
	k := NewKernel(nil)
	defer k.Close()
	k.AddDriver(newTestDriver(testDriverNum))
	sys := platform.New(k)

	k.AddExpectedSyscall(ExpectedCommand{DriverNum: testDriverNum, CommandID: 1})
	msg := panicMessage(func() { sys.Command(testDriverNum, 2, 0, 0) })
	if !strings.Contains(msg, "command id mismatch") {
		t.Fatalf("panic %q does not name the field", msg)
	}
	// a mismatch drops the rest of the script
	if n := len(k.ExpectedSyscalls()); n != 0 {
		t.Fatalf("%d expected syscalls left after mismatch", n)
	}

	k.AddExpectedSyscall(ExpectedCommand{DriverNum: testDriverNum, CommandID: 1})
	msg = panicMessage(func() { sys.YieldNoWait() })
	if !strings.Contains(msg, "but yield_no_wait() was called") {
		t.Fatalf("panic %q does not name the call", msg)
	}
}

func TestMismatchInsideScope(t *testing.T) {
	k, _, sys := setup(t)
	var args platform.Args
	msg := panicMessage(func() {
		sys.Scope(func(sc *platform.Scope) error {
			if _, err := sc.Subscribe(testDriverNum, 0, &args); err != nil {
				return err
			}
			if _, err := sc.AllowRO(testDriverNum, 0, make([]byte, 4)); err != nil {
				return err
			}
			k.AddExpectedSyscall(ExpectedCommand{DriverNum: testDriverNum, CommandID: 1})
			sys.Command(testDriverNum, 2, 0, 0)
			return nil
		})
	})
	assert.Contains(t, msg, "command id mismatch")
	// both shares were revoked while unwinding
	log := k.TakeSyscallLog()
	require.Len(t, log, 5)
	assert.Equal(t, LogAllowRO{DriverNum: testDriverNum, BufferNum: 0, Len: 0}, log[3])
	assert.Equal(t, LogSubscribe{DriverNum: testDriverNum, SubscribeNum: 0}, log[4])
	assert.NoError(t, k.Close())
}

func TestSubscribeKeepsIntegerUpcall(t *testing.T) {
	k, _, sys := setup(t)
	subscribe := func(fn, data models.Register) [4]models.Register {
		return k.Syscall4(models.ClassSubscribe, [4]models.Register{models.RegU32(testDriverNum), models.RegU32(1), fn, data})
	}
	r := subscribe(models.RegU32(0x1234), models.RegU32(0x5678))
	require.Equal(t, uint32(models.VariantSuccess2U32), r[0].AsU32())

	// stored, but never queued
	fire(t, sys, 1, 0)
	assert.Zero(t, k.PendingUpcalls())

	r = subscribe(models.Register{}, models.Register{})
	require.Equal(t, uint32(models.VariantSuccess2U32), r[0].AsU32())
	assert.Equal(t, uint32(0x1234), r[1].AsU32())
	assert.Equal(t, uint32(0x5678), r[2].AsU32())
}

func panicMessage(fn func()) (msg string) {
	defer func() {
		msg = fmt.Sprint(recover())
	}()
	fn()
	return ""
}

func TestAllowSwapAndOverlap(t *testing.T) {
	k, d, sys := setup(t)
	other := newTestDriver(2)
	k.AddDriver(other)
	buf := make([]byte, 16)
	err := sys.Scope(func(sc *platform.Scope) error {
		if _, err := sc.AllowRW(testDriverNum, 0, buf); err != nil {
			return err
		}
		assert.Equal(t, 16, len(d.rw.Bytes()))
		d.rw.Bytes()[0] = 0x42

		_, err := sc.AllowRO(2, 0, buf[8:])
		assert.Equal(t, models.Invalid, err)
		_, err = sc.AllowRO(testDriverNum, 1, make([]byte, 4))
		assert.Equal(t, models.NoSupport, err)
		assert.Equal(t, 1, k.AllowDb().Len())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, byte(0x42), buf[0])
	assert.Equal(t, 0, k.AllowDb().Len())
	assert.Nil(t, d.rw.Bytes())
}

func TestSyscallLog(t *testing.T) {
	k, _, sys := setup(t)
	sys.Command(testDriverNum, 1, 2, 3)
	sys.YieldNoWait()
	sys.MemoryStart()
	assert.Equal(t, []SyscallLogEntry{
		LogCommand{DriverNum: testDriverNum, CommandID: 1, Arg0: 2, Arg1: 3},
		LogYieldNoWait{},
		LogMemop{MemopNum: models.MemopMemoryStart},
	}, k.TakeSyscallLog())
	assert.Empty(t, k.TakeSyscallLog())
}

func TestMemop(t *testing.T) {
	config := &models.Config{MemoryStart: 0x1000, MemorySize: 0x1000, HeapStart: 0x1400, GrantSize: 0x100}
	k := NewTestKernel(t, config)
	sys := platform.New(k)

	start, err := sys.MemoryStart()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x1000), start)
	end, _ := sys.MemoryEnd()
	assert.Equal(t, uint32(0x2000), end)
	grant, _ := sys.GrantStart()
	assert.Equal(t, uint32(0x1f00), grant)

	old, err := sys.Sbrk(0x100)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x1400), old)
	assert.Equal(t, uint32(0x1500), k.Brk())

	old, err = sys.Sbrk(-0x200)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x1500), old)
	assert.Equal(t, uint32(0x1300), k.Brk())

	assert.Equal(t, models.NoMem, sys.Brk(0x1f01))
	assert.NoError(t, sys.Brk(0x1f00))

	n, err := sys.FlashRegions()
	require.NoError(t, err)
	assert.Zero(t, n)
	_, err = sys.FlashRegionStart(0)
	assert.Equal(t, models.Invalid, err)

	require.NoError(t, sys.SetStackStart(0x1800))
	require.NoError(t, sys.SetHeapStart(0x1400))
	stack, heap := k.DebugHints()
	assert.Equal(t, uint32(0x1800), stack)
	assert.Equal(t, uint32(0x1400), heap)

	_, err = platformMemop(k, 99)
	assert.Equal(t, models.NoSupport, err)
}

func platformMemop(k *Kernel, op uint32) (uint32, error) {
	r := k.Syscall1(models.ClassMemop, models.RegU32(op))
	if models.ReturnVariant(r[0].AsU32()) == models.VariantFailure {
		return 0, models.ErrorCode(r[1].AsU32())
	}
	return r[1].AsU32(), nil
}

func TestExit(t *testing.T) {
	_, _, sys := setup(t)
	exit := CatchExit(func() { sys.ExitTerminate(3) })
	require.NotNil(t, exit)
	assert.False(t, exit.Restart)
	assert.Equal(t, uint32(3), exit.Code)

	exit = CatchExit(func() { sys.ExitRestart(4) })
	require.NotNil(t, exit)
	assert.True(t, exit.Restart)

	assert.Nil(t, CatchExit(func() {}))
}

func TestCloseReportsLeaks(t *testing.T) {
	k := NewKernel(nil)
	k.AddDriver(newTestDriver(testDriverNum))
	fn := models.RegPtr(unsafe.Pointer(new(int)))
	k.Syscall4(models.ClassSubscribe, [4]models.Register{models.RegU32(testDriverNum), models.RegU32(1), fn, {}})
	k.AddExpectedSyscall(ExpectedYieldWait{})

	err := k.Close()
	leak, ok := err.(*LeakError)
	require.True(t, ok, "Close() = %v", err)
	assert.Equal(t, []string{"0x1/1"}, leak.Subscriptions)
	assert.Len(t, leak.Expected, 1)
	assert.Empty(t, leak.Leases)
	assert.Nil(t, k.Close())
}

func TestSingleLiveKernel(t *testing.T) {
	k := NewKernel(nil)
	assert.Panics(t, func() { NewKernel(nil) })
	require.NoError(t, k.Close())
	k2 := NewKernel(nil)
	require.NoError(t, k2.Close())
	assert.Panics(t, func() { k2.AddDriver(newTestDriver(3)) })
}

func TestScheduleUpcallErrors(t *testing.T) {
	k, d, _ := setup(t)
	err := d.Share.ScheduleUpcall(5, 0, 0, 0)
	_, ok := err.(*common.OutOfRangeError)
	assert.True(t, ok, "ScheduleUpcall(5) = %v", err)
	assert.Error(t, k.ScheduleUpcall(0x99, 0, [3]uint32{}))
	assert.Equal(t, common.ErrNoKernel, common.ShareRef{}.ScheduleUpcall(0, 0, 0, 0))
}
