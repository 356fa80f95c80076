package fake

import (
	"fmt"
)

// SyscallLogEntry records one syscall as the kernel received it, before any
// expected-syscall override applied.
type SyscallLogEntry interface {
	logEntry()
	String() string
}

type LogYieldNoWait struct{}

type LogYieldWait struct{}

type LogSubscribe struct {
	DriverNum    uint32
	SubscribeNum uint32
}

type LogCommand struct {
	DriverNum uint32
	CommandID uint32
	Arg0      uint32
	Arg1      uint32
}

type LogAllowRO struct {
	DriverNum uint32
	BufferNum uint32
	Len       int
}

type LogAllowRW struct {
	DriverNum uint32
	BufferNum uint32
	Len       int
}

type LogMemop struct {
	MemopNum uint32
	Arg      uint32
}

func (LogYieldNoWait) logEntry() {}
func (LogYieldWait) logEntry()   {}
func (LogSubscribe) logEntry()   {}
func (LogCommand) logEntry()     {}
func (LogAllowRO) logEntry()     {}
func (LogAllowRW) logEntry()     {}
func (LogMemop) logEntry()       {}

func (LogYieldNoWait) String() string { return "yield_no_wait()" }
func (LogYieldWait) String() string   { return "yield_wait()" }

func (e LogSubscribe) String() string {
	return fmt.Sprintf("subscribe(%#x, %d)", e.DriverNum, e.SubscribeNum)
}

func (e LogCommand) String() string {
	return fmt.Sprintf("command(%#x, %d, %#x, %#x)", e.DriverNum, e.CommandID, e.Arg0, e.Arg1)
}

func (e LogAllowRO) String() string {
	return fmt.Sprintf("allow_ro(%#x, %d, len=%d)", e.DriverNum, e.BufferNum, e.Len)
}

func (e LogAllowRW) String() string {
	return fmt.Sprintf("allow_rw(%#x, %d, len=%d)", e.DriverNum, e.BufferNum, e.Len)
}

func (e LogMemop) String() string {
	return fmt.Sprintf("memop(%d, %#x)", e.MemopNum, e.Arg)
}
