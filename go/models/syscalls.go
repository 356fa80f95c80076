package models

import "fmt"

type SyscallClass uint32

const (
	ClassYield     SyscallClass = 0
	ClassSubscribe SyscallClass = 1
	ClassCommand   SyscallClass = 2
	ClassAllowRW   SyscallClass = 3
	ClassAllowRO   SyscallClass = 4
	ClassMemop     SyscallClass = 5
	ClassExit      SyscallClass = 6
)

func (c SyscallClass) String() string {
	switch c {
	case ClassYield:
		return "yield"
	case ClassSubscribe:
		return "subscribe"
	case ClassCommand:
		return "command"
	case ClassAllowRW:
		return "allow_rw"
	case ClassAllowRO:
		return "allow_ro"
	case ClassMemop:
		return "memop"
	case ClassExit:
		return "exit"
	}
	return fmt.Sprintf("class(%d)", uint32(c))
}

// yield r0 values
const (
	YieldNoWait uint32 = 0
	YieldWait   uint32 = 1
)

// YieldNoWaitReturn is the byte the kernel stores through yield-no-wait's
// second argument.
type YieldNoWaitReturn uint8

const (
	NoUpcall     YieldNoWaitReturn = 0
	UpcallCalled YieldNoWaitReturn = 1
)

// exit r0 values
const (
	ExitTerminate uint32 = 0
	ExitRestart   uint32 = 1
)

// memop r0 values
const (
	MemopBrk              uint32 = 0
	MemopSbrk             uint32 = 1
	MemopMemoryStart      uint32 = 2
	MemopMemoryEnd        uint32 = 3
	MemopFlashStart       uint32 = 4
	MemopFlashEnd         uint32 = 5
	MemopGrantStart       uint32 = 6
	MemopFlashRegions     uint32 = 7
	MemopFlashRegionStart uint32 = 8
	MemopFlashRegionEnd   uint32 = 9
	MemopSetStackStart    uint32 = 10
	MemopSetHeapStart     uint32 = 11
)

// UpcallFn is what a Subscribe function-pointer register points at.
// data is the data register passed to the same Subscribe call.
type UpcallFn func(arg0, arg1, arg2 uint32, data Register)

//go:generate mockgen -destination mock/raw_syscalls.go -package mock github.com/lunixbochs/tockcorn/go/models RawSyscalls

// RawSyscalls is the minimum a backend (hardware trap or simulator) has to
// provide. class is always one of the SyscallClass constants.
//
// Outputs and clobbers:
//   - Yield1 and Yield2 return nothing; upcalls may run inside them. Yield2's
//     r1 points at a byte that receives a YieldNoWaitReturn.
//   - Syscall1 and Syscall2 return r0 and r1; all other registers are clobbered.
//   - Syscall4 returns r0 through r3.
//
// A backend that writes anything else the caller can observe is broken.
type RawSyscalls interface {
	Yield1(r0 Register)
	Yield2(r0, r1 Register)
	Syscall1(class SyscallClass, r0 Register) [2]Register
	Syscall2(class SyscallClass, r0, r1 Register) [2]Register
	Syscall4(class SyscallClass, r [4]Register) [4]Register
}
