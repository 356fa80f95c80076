package fake

import (
	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"

	"github.com/lunixbochs/tockcorn/go/kernel/common"
	"github.com/lunixbochs/tockcorn/go/models"
)

// regU32 converts a register the ABI defines as u32. A value that does not
// fit could never come from real hardware, so it is a caller bug.
func regU32(name string, r models.Register) uint32 {
	v, err := r.U32()
	if err != nil {
		panic(errors.Wrap(err, name))
	}
	return v
}

func (k *Kernel) record(call SyscallLogEntry) {
	k.checkLive()
	k.calls = append(k.calls, call)
	if k.config.TraceSyscalls {
		k.log.Trace("syscall", "call", call.String())
	}
}

func ret4(variant models.ReturnVariant, r1, r2, r3 models.Register) [4]models.Register {
	return [4]models.Register{models.RegU32(uint32(variant)), r1, r2, r3}
}

func encodeCommandReturn(c models.CommandReturn) [4]models.Register {
	r1, r2, r3 := c.Raw()
	return ret4(c.ReturnVariant(), models.RegU32(r1), models.RegU32(r2), models.RegU32(r3))
}

func failure2(e models.ErrorCode, r2, r3 models.Register) [4]models.Register {
	return ret4(models.VariantFailure2U32, models.RegU32(uint32(e)), r2, r3)
}

func (k *Kernel) Yield1(r0 models.Register) {
	if id := regU32("yield id", r0); id != models.YieldWait {
		panic(errors.Errorf("yield1 called with yield id %d, only yield-wait takes one argument", id))
	}
	k.yieldWait()
}

func (k *Kernel) Yield2(r0, r1 models.Register) {
	if id := regU32("yield id", r0); id != models.YieldNoWait {
		panic(errors.Errorf("yield2 called with yield id %d, only yield-no-wait takes two arguments", id))
	}
	out := (*models.YieldNoWaitReturn)(r1.Pointer())
	if out == nil {
		panic("yield-no-wait return pointer is not a pointer")
	}
	*out = k.yieldNoWait()
}

func (k *Kernel) Syscall1(class models.SyscallClass, r0 models.Register) [2]models.Register {
	switch class {
	case models.ClassMemop:
		return k.memop(regU32("memop number", r0), 0)
	}
	panic(errors.Errorf("syscall1 does not support class %s", class))
}

func (k *Kernel) Syscall2(class models.SyscallClass, r0, r1 models.Register) [2]models.Register {
	switch class {
	case models.ClassMemop:
		return k.memop(regU32("memop number", r0), r1.AsU32())
	case models.ClassExit:
		k.exit(regU32("exit id", r0), r1.AsU32())
	}
	panic(errors.Errorf("syscall2 does not support class %s", class))
}

func (k *Kernel) Syscall4(class models.SyscallClass, r [4]models.Register) [4]models.Register {
	switch class {
	case models.ClassSubscribe:
		return k.subscribe(regU32("driver number", r[0]), regU32("subscribe number", r[1]), Upcall{Fn: r[2], Data: r[3]})
	case models.ClassCommand:
		return k.command(regU32("driver number", r[0]), regU32("command id", r[1]), r[2].AsU32(), r[3].AsU32())
	case models.ClassAllowRO:
		return k.allowRO(regU32("driver number", r[0]), regU32("buffer number", r[1]), r[2], int(r[3].AsUsize()))
	case models.ClassAllowRW:
		return k.allowRW(regU32("driver number", r[0]), regU32("buffer number", r[1]), r[2], int(r[3].AsUsize()))
	}
	panic(errors.Errorf("syscall4 does not support class %s", class))
}

func (k *Kernel) yieldNoWait() models.YieldNoWaitReturn {
	k.record(LogYieldNoWait{})
	expected := k.popExpected(LogYieldNoWait{}, func(e ExpectedSyscall) (bool, error) {
		_, ok := e.(ExpectedYieldNoWait)
		return ok, nil
	})
	if e, ok := expected.(ExpectedYieldNoWait); ok && e.Override != nil {
		return *e.Override
	}
	if k.invokeNextUpcall() {
		return models.UpcallCalled
	}
	return models.NoUpcall
}

func (k *Kernel) yieldWait() {
	k.record(LogYieldWait{})
	expected := k.popExpected(LogYieldWait{}, func(e ExpectedSyscall) (bool, error) {
		_, ok := e.(ExpectedYieldWait)
		return ok, nil
	})
	if e, ok := expected.(ExpectedYieldWait); ok && e.SkipUpcall {
		return
	}
	if len(k.upcalls) == 0 && k.idle != nil {
		k.idle()
	}
	// nothing else runs while we wait, so an empty queue never fills
	if !k.invokeNextUpcall() {
		panic("yield-wait called with no queued upcall; it would block forever")
	}
}

// invokeNextUpcall pops the queue head and runs it. The entry is removed
// before the call so the upcall may itself make syscalls.
func (k *Kernel) invokeNextUpcall() bool {
	if len(k.upcalls) == 0 {
		return false
	}
	entry := k.upcalls[0]
	k.upcalls = k.upcalls[1:]
	fn := (*models.UpcallFn)(entry.upcall.Fn.Pointer())
	k.log.Debug("upcall delivered", "driver", hclog.Fmt("%#x", entry.id.driverNum), "subscribe", entry.id.subscribeNum,
		"args", hclog.Fmt("%#x", entry.args))
	(*fn)(entry.args[0], entry.args[1], entry.args[2], entry.upcall.Data)
	return true
}

func (k *Kernel) subscribe(driverNum, subscribeNum uint32, upcall Upcall) [4]models.Register {
	call := LogSubscribe{DriverNum: driverNum, SubscribeNum: subscribeNum}
	k.record(call)
	expected := k.popExpected(call, func(e ExpectedSyscall) (bool, error) {
		s, ok := e.(ExpectedSubscribe)
		if !ok {
			return false, nil
		}
		return true, firstErr(
			matchU32("driver number", s.DriverNum, driverNum),
			matchU32("subscribe number", s.SubscribeNum, subscribeNum))
	})
	if e, ok := expected.(ExpectedSubscribe); ok && e.SkipWithError != 0 {
		return failure2(e.SkipWithError, upcall.Fn, upcall.Data)
	}
	entry, ok := k.drivers[driverNum]
	if !ok {
		return failure2(models.NoDevice, upcall.Fn, upcall.Data)
	}
	if subscribeNum >= entry.info.NumUpcalls {
		return failure2(models.NoSupport, upcall.Fn, upcall.Data)
	}
	old := entry.upcalls[subscribeNum]
	// a non-pointer function word is stored and handed back, just never run
	if upcall == (Upcall{}) {
		delete(entry.upcalls, subscribeNum)
	} else {
		entry.upcalls[subscribeNum] = upcall
	}
	k.removeUpcalls(upcallID{driverNum, subscribeNum})
	return ret4(models.VariantSuccess2U32, old.Fn, old.Data, models.Register{})
}

// removeUpcalls drops queued upcalls for id, so a replaced upcall never runs.
func (k *Kernel) removeUpcalls(id upcallID) {
	kept := k.upcalls[:0]
	for _, e := range k.upcalls {
		if e.id != id {
			kept = append(kept, e)
		}
	}
	// clear the tail so dropped entries don't pin their data
	for i := len(kept); i < len(k.upcalls); i++ {
		k.upcalls[i] = upcallEntry{}
	}
	k.upcalls = kept
}

func (k *Kernel) command(driverNum, commandID, arg0, arg1 uint32) [4]models.Register {
	call := LogCommand{DriverNum: driverNum, CommandID: commandID, Arg0: arg0, Arg1: arg1}
	k.record(call)
	expected := k.popExpected(call, func(e ExpectedSyscall) (bool, error) {
		c, ok := e.(ExpectedCommand)
		if !ok {
			return false, nil
		}
		return true, firstErr(
			matchU32("driver number", c.DriverNum, driverNum),
			matchU32("command id", c.CommandID, commandID),
			matchU32("argument 0", c.Arg0, arg0),
			matchU32("argument 1", c.Arg1, arg1))
	})
	if e, ok := expected.(ExpectedCommand); ok && e.Override != nil {
		return encodeCommandReturn(*e.Override)
	}
	entry, ok := k.drivers[driverNum]
	if !ok {
		return encodeCommandReturn(models.Failure(models.NoDevice))
	}
	ret := entry.driver.Command(commandID, arg0, arg1)
	if k.config.TraceSyscalls {
		if tracer, ok := entry.driver.(common.CommandTracer); ok {
			k.log.Trace("command", "driver", hclog.Fmt("%#x", driverNum), "call", tracer.TraceCommand(commandID, arg0, arg1)+common.TraceRet(ret))
		}
	}
	return encodeCommandReturn(ret)
}

func (k *Kernel) allowRO(driverNum, bufferNum uint32, addr models.Register, length int) [4]models.Register {
	call := LogAllowRO{DriverNum: driverNum, BufferNum: bufferNum, Len: length}
	k.record(call)
	expected := k.popExpected(call, func(e ExpectedSyscall) (bool, error) {
		a, ok := e.(ExpectedAllowRO)
		if !ok {
			return false, nil
		}
		return true, firstErr(
			matchU32("driver number", a.DriverNum, driverNum),
			matchU32("buffer number", a.BufferNum, bufferNum))
	})
	lenReg := models.RegUsize(uintptr(length))
	if e, ok := expected.(ExpectedAllowRO); ok && e.ReturnError != 0 {
		return failure2(e.ReturnError, addr, lenReg)
	}
	entry, ok := k.drivers[driverNum]
	if !ok {
		return failure2(models.NoDevice, addr, lenReg)
	}
	buf, err := k.allowDb.InsertRO(addr, length)
	if err != nil {
		k.log.Debug("allow_ro rejected", "error", err)
		return failure2(models.Invalid, addr, lenReg)
	}
	old, err := entry.driver.AllowReadOnly(bufferNum, buf)
	if err != nil {
		k.allowDb.RemoveRO(buf)
		return failure2(errorCode(err), addr, lenReg)
	}
	oldAddr, oldLen := k.allowDb.RemoveRO(old)
	return ret4(models.VariantSuccess2U32, oldAddr, models.RegUsize(uintptr(oldLen)), models.Register{})
}

func (k *Kernel) allowRW(driverNum, bufferNum uint32, addr models.Register, length int) [4]models.Register {
	call := LogAllowRW{DriverNum: driverNum, BufferNum: bufferNum, Len: length}
	k.record(call)
	expected := k.popExpected(call, func(e ExpectedSyscall) (bool, error) {
		a, ok := e.(ExpectedAllowRW)
		if !ok {
			return false, nil
		}
		return true, firstErr(
			matchU32("driver number", a.DriverNum, driverNum),
			matchU32("buffer number", a.BufferNum, bufferNum))
	})
	lenReg := models.RegUsize(uintptr(length))
	if e, ok := expected.(ExpectedAllowRW); ok && e.ReturnError != 0 {
		return failure2(e.ReturnError, addr, lenReg)
	}
	entry, ok := k.drivers[driverNum]
	if !ok {
		return failure2(models.NoDevice, addr, lenReg)
	}
	buf, err := k.allowDb.InsertRW(addr, length)
	if err != nil {
		k.log.Debug("allow_rw rejected", "error", err)
		return failure2(models.Invalid, addr, lenReg)
	}
	old, err := entry.driver.AllowReadWrite(bufferNum, buf)
	if err != nil {
		k.allowDb.RemoveRW(buf)
		return failure2(errorCode(err), addr, lenReg)
	}
	oldAddr, oldLen := k.allowDb.RemoveRW(old)
	return ret4(models.VariantSuccess2U32, oldAddr, models.RegUsize(uintptr(oldLen)), models.Register{})
}

// errorCode maps a driver error onto the kernel's error taxonomy.
func errorCode(err error) models.ErrorCode {
	if e, ok := errors.Cause(err).(models.ErrorCode); ok && e.Valid() {
		return e
	}
	return models.Fail
}

var _ models.RawSyscalls = (*Kernel)(nil)
var _ common.UpcallScheduler = (*Kernel)(nil)
