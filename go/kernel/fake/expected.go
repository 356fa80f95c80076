package fake

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/lunixbochs/tockcorn/go/models"
)

// ExpectedSyscall scripts the next syscall a test will make, optionally with
// a forced outcome. Queue them with Kernel.AddExpectedSyscall.
type ExpectedSyscall interface {
	expected()
	String() string
}

type ExpectedYieldNoWait struct {
	// Override, if set, is stored as the yield result and no upcall runs.
	Override *models.YieldNoWaitReturn
}

type ExpectedYieldWait struct {
	// SkipUpcall returns without running an upcall.
	SkipUpcall bool
}

type ExpectedSubscribe struct {
	DriverNum    uint32
	SubscribeNum uint32
	// SkipWithError, if nonzero, fails the call with this code without
	// touching kernel state.
	SkipWithError models.ErrorCode
}

type ExpectedCommand struct {
	DriverNum uint32
	CommandID uint32
	Arg0      uint32
	Arg1      uint32
	// Override, if set, is returned and the driver is not called.
	Override *models.CommandReturn
}

type ExpectedAllowRO struct {
	DriverNum   uint32
	BufferNum   uint32
	ReturnError models.ErrorCode
}

type ExpectedAllowRW struct {
	DriverNum   uint32
	BufferNum   uint32
	ReturnError models.ErrorCode
}

type ExpectedMemop struct {
	MemopNum uint32
	Arg      uint32
	// Override, if set, is returned instead of running the memop. Only
	// Success, SuccessU32 and Failure fit in a memop's two return registers.
	Override *models.CommandReturn
}

func (ExpectedYieldNoWait) expected() {}
func (ExpectedYieldWait) expected()   {}
func (ExpectedSubscribe) expected()   {}
func (ExpectedCommand) expected()     {}
func (ExpectedAllowRO) expected()     {}
func (ExpectedAllowRW) expected()     {}
func (ExpectedMemop) expected()       {}

func (e ExpectedYieldNoWait) String() string {
	if e.Override != nil {
		return fmt.Sprintf("YieldNoWait{override: %d}", *e.Override)
	}
	return "YieldNoWait{}"
}

func (e ExpectedYieldWait) String() string {
	return fmt.Sprintf("YieldWait{skip_upcall: %v}", e.SkipUpcall)
}

func (e ExpectedSubscribe) String() string {
	return fmt.Sprintf("Subscribe{driver: %#x, subscribe: %d, skip_with_error: %v}", e.DriverNum, e.SubscribeNum, optErr(e.SkipWithError))
}

func (e ExpectedCommand) String() string {
	override := "none"
	if e.Override != nil {
		override = e.Override.String()
	}
	return fmt.Sprintf("Command{driver: %#x, command: %d, arg0: %#x, arg1: %#x, override: %s}", e.DriverNum, e.CommandID, e.Arg0, e.Arg1, override)
}

func (e ExpectedAllowRO) String() string {
	return fmt.Sprintf("AllowRO{driver: %#x, buffer: %d, return_error: %v}", e.DriverNum, e.BufferNum, optErr(e.ReturnError))
}

func (e ExpectedAllowRW) String() string {
	return fmt.Sprintf("AllowRW{driver: %#x, buffer: %d, return_error: %v}", e.DriverNum, e.BufferNum, optErr(e.ReturnError))
}

func (e ExpectedMemop) String() string {
	return fmt.Sprintf("Memop{op: %d, arg: %#x}", e.MemopNum, e.Arg)
}

func optErr(e models.ErrorCode) string {
	if e == 0 {
		return "none"
	}
	return e.String()
}

func mismatch(field string, want, got interface{}) error {
	return errors.Errorf("%s mismatch: expected %v, got %v", field, want, got)
}

// match helpers check one field at a time so the failure names the field

func matchU32(field string, want, got uint32) error {
	if want != got {
		return mismatch(field, fmt.Sprintf("%#x", want), fmt.Sprintf("%#x", got))
	}
	return nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// popExpected takes the queue head if there is one, and panics if it does
// not describe the call being made. A nil result means nothing was queued.
// A mismatch drops the whole script first, so the revocations a scope makes
// while the panic unwinds run against the kernel normally.
func (k *Kernel) popExpected(call SyscallLogEntry, check func(ExpectedSyscall) (bool, error)) ExpectedSyscall {
	if len(k.expected) == 0 {
		return nil
	}
	head := k.expected[0]
	ok, err := check(head)
	if !ok || err != nil {
		k.expected = nil
	}
	switch {
	case !ok:
		panic(errors.Errorf("expected syscall %s, but %s was called", head, call))
	case err != nil:
		panic(errors.Wrapf(err, "%s does not match expected %s", call, head))
	}
	k.expected = k.expected[1:]
	return head
}
