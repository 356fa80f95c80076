package models

import (
	"math"
	"unsafe"

	"github.com/pkg/errors"
)

// Register is one machine word passed to or from the kernel.
// A Register built from a pointer keeps that pointer, so a value that leaves
// through one syscall and comes back through another still points at the
// original object. There is no arithmetic on Register; use the conversions.
type Register struct {
	word uintptr
	ptr  unsafe.Pointer
}

var ErrRegisterOverflow = errors.New("register value does not fit")

func RegU32(v uint32) Register {
	return Register{word: uintptr(v)}
}

func RegUsize(v uintptr) Register {
	return Register{word: v}
}

func RegPtr(p unsafe.Pointer) Register {
	return Register{ptr: p}
}

// AsU32 truncates to the low 32 bits, matching a 32-bit hardware register.
func (r Register) AsU32() uint32 {
	return uint32(r.AsUsize())
}

// U32 is the checked form of AsU32.
func (r Register) U32() (uint32, error) {
	v := r.AsUsize()
	if uint64(v) > math.MaxUint32 {
		return 0, errors.Wrapf(ErrRegisterOverflow, "%#x as u32", v)
	}
	return uint32(v), nil
}

func (r Register) AsUsize() uintptr {
	if r.ptr != nil {
		return uintptr(r.ptr)
	}
	return r.word
}

// Pointer returns the pointer this register was built from, or nil if it
// was built from an integer. Integers never turn back into pointers.
func (r Register) Pointer() unsafe.Pointer {
	return r.ptr
}

func (r Register) HasPointer() bool {
	return r.ptr != nil
}

func (r Register) IsZero() bool {
	return r.AsUsize() == 0
}
