package models

import (
	"math"
	"testing"
	"unsafe"

	"github.com/pkg/errors"
)

func TestRegisterInts(t *testing.T) {
	r := RegU32(0xdeadbeef)
	if r.AsU32() != 0xdeadbeef || r.HasPointer() || r.Pointer() != nil {
		t.Fatalf("RegU32 round trip: %#x", r.AsU32())
	}
	v, err := r.U32()
	if err != nil || v != 0xdeadbeef {
		t.Fatalf("U32() = %#x, %v", v, err)
	}
	if !(Register{}).IsZero() {
		t.Fatal("zero Register is not zero")
	}
}

func TestRegisterOverflow(t *testing.T) {
	if unsafe.Sizeof(uintptr(0)) < 8 {
		t.Skip("uintptr is 32 bits")
	}
	wide := uint64(math.MaxUint32) + 1
	r := RegUsize(uintptr(wide))
	if _, err := r.U32(); errors.Cause(err) != ErrRegisterOverflow {
		t.Fatalf("U32() error = %v", err)
	}
	if r.AsU32() != 0 {
		t.Fatalf("AsU32() = %#x, want truncation to 0", r.AsU32())
	}
}

func TestRegisterProvenance(t *testing.T) {
	x := new(uint32)
	r := RegPtr(unsafe.Pointer(x))
	if r.Pointer() != unsafe.Pointer(x) {
		t.Fatal("pointer lost")
	}
	if r.AsUsize() != uintptr(unsafe.Pointer(x)) {
		t.Fatal("pointer address mismatch")
	}
	// the same address as an integer is not a pointer
	if RegUsize(r.AsUsize()).HasPointer() {
		t.Fatal("integer register gained a pointer")
	}
}
