package platform

import (
	"unsafe"

	"github.com/pkg/errors"

	"github.com/lunixbochs/tockcorn/go/models"
)

// Syscalls is the typed syscall layer. Every call goes through Raw, so the
// same client code runs against hardware or the simulator.
type Syscalls struct {
	Raw models.RawSyscalls
}

func New(raw models.RawSyscalls) *Syscalls {
	return &Syscalls{Raw: raw}
}

func decodeCommandReturn(r [4]models.Register) models.CommandReturn {
	return models.NewCommandReturn(models.ReturnVariant(r[0].AsU32()), r[1].AsU32(), r[2].AsU32(), r[3].AsU32())
}

func (s *Syscalls) Command(driver, command, arg0, arg1 uint32) models.CommandReturn {
	r := s.Raw.Syscall4(models.ClassCommand, [4]models.Register{
		models.RegU32(driver), models.RegU32(command), models.RegU32(arg0), models.RegU32(arg1),
	})
	return decodeCommandReturn(r)
}

// YieldNoWait runs at most one queued upcall.
func (s *Syscalls) YieldNoWait() models.YieldNoWaitReturn {
	// the kernel only writes this byte if it runs; start from a value it
	// would never store so a broken backend shows up
	flag := uint8(0xff)
	s.Raw.Yield2(models.RegU32(models.YieldNoWait), models.RegPtr(unsafe.Pointer(&flag)))
	if flag > uint8(models.UpcallCalled) {
		panic(errors.Errorf("yield-no-wait left invalid return byte %#x", flag))
	}
	return models.YieldNoWaitReturn(flag)
}

// YieldWait blocks until exactly one upcall has run.
func (s *Syscalls) YieldWait() {
	s.Raw.Yield1(models.RegU32(models.YieldWait))
}

func (s *Syscalls) exit(id, code uint32) {
	s.Raw.Syscall2(models.ClassExit, models.RegU32(id), models.RegU32(code))
	panic(errors.Errorf("exit(%d, %d) returned", id, code))
}

func (s *Syscalls) ExitTerminate(code uint32) {
	s.exit(models.ExitTerminate, code)
}

func (s *Syscalls) ExitRestart(code uint32) {
	s.exit(models.ExitRestart, code)
}

func decodeMemop(r [2]models.Register) (uint32, error) {
	variant := models.ReturnVariant(r[0].AsU32())
	switch variant {
	case models.VariantSuccess:
		return 0, nil
	case models.VariantSuccessU32:
		return r[1].AsU32(), nil
	case models.VariantFailure:
		if e, ok := models.ErrorCodeFromU32(r[1].AsU32()); ok {
			return 0, e
		}
	}
	return 0, models.BadRVal
}

func (s *Syscalls) memop1(op uint32) (uint32, error) {
	return decodeMemop(s.Raw.Syscall1(models.ClassMemop, models.RegU32(op)))
}

func (s *Syscalls) memop2(op, arg uint32) (uint32, error) {
	return decodeMemop(s.Raw.Syscall2(models.ClassMemop, models.RegU32(op), models.RegU32(arg)))
}

// Brk moves the process break to addr.
func (s *Syscalls) Brk(addr uint32) error {
	_, err := s.memop2(models.MemopBrk, addr)
	return err
}

// Sbrk moves the break by increment bytes and returns the previous break.
func (s *Syscalls) Sbrk(increment int32) (uint32, error) {
	return s.memop2(models.MemopSbrk, uint32(increment))
}

func (s *Syscalls) MemoryStart() (uint32, error) { return s.memop1(models.MemopMemoryStart) }
func (s *Syscalls) MemoryEnd() (uint32, error)   { return s.memop1(models.MemopMemoryEnd) }
func (s *Syscalls) FlashStart() (uint32, error)  { return s.memop1(models.MemopFlashStart) }
func (s *Syscalls) FlashEnd() (uint32, error)    { return s.memop1(models.MemopFlashEnd) }
func (s *Syscalls) GrantStart() (uint32, error)  { return s.memop1(models.MemopGrantStart) }

func (s *Syscalls) FlashRegions() (uint32, error) { return s.memop1(models.MemopFlashRegions) }

func (s *Syscalls) FlashRegionStart(region uint32) (uint32, error) {
	return s.memop2(models.MemopFlashRegionStart, region)
}

func (s *Syscalls) FlashRegionEnd(region uint32) (uint32, error) {
	return s.memop2(models.MemopFlashRegionEnd, region)
}

// SetStackStart and SetHeapStart are debugging hints for the kernel.
func (s *Syscalls) SetStackStart(addr uint32) error {
	_, err := s.memop2(models.MemopSetStackStart, addr)
	return err
}

func (s *Syscalls) SetHeapStart(addr uint32) error {
	_, err := s.memop2(models.MemopSetHeapStart, addr)
	return err
}
