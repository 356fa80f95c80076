package common

import (
	"unsafe"

	"github.com/lunixbochs/tockcorn/go/models"
)

type allowBuffer struct {
	addr models.Register
	len  int
}

// Bytes is the process memory behind the lease. Buffers whose address came
// from an integer rather than a pointer have no backing memory.
func (b allowBuffer) Bytes() []byte {
	p := b.addr.Pointer()
	if p == nil || b.len == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(p), b.len)
}

func (b allowBuffer) Addr() models.Register { return b.addr }
func (b allowBuffer) Len() int              { return b.len }

// RoAllowBuffer is a read-only lease as a driver sees it. The zero value is
// the empty buffer a slot holds before anything is allowed.
type RoAllowBuffer struct{ allowBuffer }

// RwAllowBuffer is a read-write lease as a driver sees it.
type RwAllowBuffer struct{ allowBuffer }

// NewRoAllowBuffer and NewRwAllowBuffer are for the kernel's allow database;
// drivers only receive buffers.
func NewRoAllowBuffer(addr models.Register, length int) RoAllowBuffer {
	return RoAllowBuffer{allowBuffer{addr, length}}
}

func NewRwAllowBuffer(addr models.Register, length int) RwAllowBuffer {
	return RwAllowBuffer{allowBuffer{addr, length}}
}

// UpcallScheduler is the kernel side of a ShareRef.
type UpcallScheduler interface {
	ScheduleUpcall(driverNum, subscribeNum uint32, args [3]uint32) error
}

// ShareRef lets a driver queue upcalls on its own subscribe slots.
// The zero value is not attached to any kernel.
type ShareRef struct {
	kernel    UpcallScheduler
	driverNum uint32
}

func NewShareRef(kernel UpcallScheduler, driverNum uint32) ShareRef {
	return ShareRef{kernel: kernel, driverNum: driverNum}
}

// ScheduleUpcall queues the upcall registered on subscribeNum. It does nothing
// if no upcall (or a null one) is registered there.
func (r ShareRef) ScheduleUpcall(subscribeNum, arg0, arg1, arg2 uint32) error {
	if r.kernel == nil {
		return ErrNoKernel
	}
	return r.kernel.ScheduleUpcall(r.driverNum, subscribeNum, [3]uint32{arg0, arg1, arg2})
}
