package common

import (
	"fmt"

	"github.com/pkg/errors"
)

var ErrNoKernel = errors.New("driver is not attached to a live kernel")

type OutOfRangeError struct {
	DriverNum    uint32
	SubscribeNum uint32
	NumUpcalls   uint32
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("driver %#x: subscribe number %d out of range (driver has %d)", e.DriverNum, e.SubscribeNum, e.NumUpcalls)
}
