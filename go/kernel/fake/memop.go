package fake

import (
	"fmt"

	"github.com/lunixbochs/tockcorn/go/models"
)

// memory is the process layout memop reports. The break moves inside
// [MemoryStart, GrantStart).
type memory struct {
	config     *models.Config
	brk        uint32
	stackStart uint32
	heapStart  uint32
}

func (m *memory) init(config *models.Config) {
	m.config = config
	m.brk = config.HeapStart
}

func (m *memory) setBrk(addr uint32) error {
	if addr < m.config.MemoryStart || addr > m.config.GrantStart() {
		return models.NoMem
	}
	m.brk = addr
	return nil
}

func memopRet(variant models.ReturnVariant, r1 uint32) [2]models.Register {
	return [2]models.Register{models.RegU32(uint32(variant)), models.RegU32(r1)}
}

func memopSuccess(v uint32) [2]models.Register {
	return memopRet(models.VariantSuccessU32, v)
}

func memopFailure(e models.ErrorCode) [2]models.Register {
	return memopRet(models.VariantFailure, uint32(e))
}

func memopErr(err error) [2]models.Register {
	if err != nil {
		return memopFailure(errorCode(err))
	}
	return memopRet(models.VariantSuccess, 0)
}

func (k *Kernel) memop(op, arg uint32) [2]models.Register {
	call := LogMemop{MemopNum: op, Arg: arg}
	k.record(call)
	expected := k.popExpected(call, func(e ExpectedSyscall) (bool, error) {
		m, ok := e.(ExpectedMemop)
		if !ok {
			return false, nil
		}
		return true, firstErr(
			matchU32("memop number", m.MemopNum, op),
			matchU32("argument", m.Arg, arg))
	})
	if e, ok := expected.(ExpectedMemop); ok && e.Override != nil {
		r1, _, _ := e.Override.Raw()
		switch e.Override.ReturnVariant() {
		case models.VariantSuccess, models.VariantSuccessU32, models.VariantFailure:
		default:
			panic(fmt.Sprintf("memop override %s does not fit in two registers", e.Override))
		}
		return memopRet(e.Override.ReturnVariant(), r1)
	}

	m := &k.memory
	cfg := k.config
	switch op {
	case models.MemopBrk:
		return memopErr(m.setBrk(arg))
	case models.MemopSbrk:
		old := m.brk
		next := int64(old) + int64(int32(arg))
		if next < 0 || next > int64(^uint32(0)) {
			return memopFailure(models.NoMem)
		}
		if err := m.setBrk(uint32(next)); err != nil {
			return memopFailure(models.NoMem)
		}
		return memopSuccess(old)
	case models.MemopMemoryStart:
		return memopSuccess(cfg.MemoryStart)
	case models.MemopMemoryEnd:
		return memopSuccess(cfg.MemoryEnd())
	case models.MemopFlashStart:
		return memopSuccess(cfg.FlashStart)
	case models.MemopFlashEnd:
		return memopSuccess(cfg.FlashEnd())
	case models.MemopGrantStart:
		return memopSuccess(cfg.GrantStart())
	case models.MemopFlashRegions:
		return memopSuccess(0)
	case models.MemopFlashRegionStart, models.MemopFlashRegionEnd:
		// no writeable flash regions are simulated
		return memopFailure(models.Invalid)
	case models.MemopSetStackStart:
		m.stackStart = arg
		return memopErr(nil)
	case models.MemopSetHeapStart:
		m.heapStart = arg
		return memopErr(nil)
	}
	return memopFailure(models.NoSupport)
}

// Brk returns the current process break.
func (k *Kernel) Brk() uint32 {
	return k.memory.brk
}

// DebugHints returns the stack and heap start addresses the process reported.
func (k *Kernel) DebugHints() (stackStart, heapStart uint32) {
	return k.memory.stackStart, k.memory.heapStart
}
