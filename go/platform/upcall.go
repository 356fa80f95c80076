package platform

import (
	"unsafe"

	"github.com/lunixbochs/tockcorn/go/models"
)

// Upcall is invoked by the kernel during Yield with the three driver words.
type Upcall interface {
	Upcall(arg0, arg1, arg2 uint32)
}

type UpcallFunc func(arg0, arg1, arg2 uint32)

func (f UpcallFunc) Upcall(arg0, arg1, arg2 uint32) { f(arg0, arg1, arg2) }

// Flag records that the upcall ran.
type Flag struct {
	Called bool
}

func (f *Flag) Upcall(arg0, arg1, arg2 uint32) { f.Called = true }

// Args keeps the arguments of the most recent invocation.
type Args struct {
	Called           bool
	Arg0, Arg1, Arg2 uint32
}

func (a *Args) Upcall(arg0, arg1, arg2 uint32) {
	a.Called = true
	a.Arg0, a.Arg1, a.Arg2 = arg0, arg1, arg2
}

// upcallBox is what the data register points at while a subscription is
// live. It pins the Upcall value for as long as the kernel can reach it.
type upcallBox struct {
	upcall Upcall
}

// kernelUpcall is the function every subscription hands the kernel.
var kernelUpcall models.UpcallFn = func(arg0, arg1, arg2 uint32, data models.Register) {
	box := (*upcallBox)(data.Pointer())
	box.upcall.Upcall(arg0, arg1, arg2)
}

var kernelUpcallReg = models.RegPtr(unsafe.Pointer(&kernelUpcall))
