package fake

import (
	"unsafe"

	"github.com/lunixbochs/tockcorn/go/kernel/common"
	"github.com/lunixbochs/tockcorn/go/models"
)

func regSlice(b []byte) models.Register {
	return models.RegPtr(unsafe.Pointer(unsafe.SliceData(b)))
}

func newRo(addr uintptr, n int) common.RoAllowBuffer {
	return common.NewRoAllowBuffer(models.RegUsize(addr), n)
}
