package models

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCode is the kernel's fixed error taxonomy. Drivers never add codes.
type ErrorCode uint32

const (
	Fail        ErrorCode = 1
	Busy        ErrorCode = 2
	Already     ErrorCode = 3
	Off         ErrorCode = 4
	Reserve     ErrorCode = 5
	Invalid     ErrorCode = 6
	Size        ErrorCode = 7
	Cancel      ErrorCode = 8
	NoMem       ErrorCode = 9
	NoSupport   ErrorCode = 10
	NoDevice    ErrorCode = 11
	Uninstalled ErrorCode = 12
	NoAck       ErrorCode = 13
	// BadRVal is reported by userspace when the kernel returned a variant it
	// did not expect. The kernel never sends it.
	BadRVal ErrorCode = 1024
)

var errorNames = map[ErrorCode]string{
	Fail:        "FAIL",
	Busy:        "BUSY",
	Already:     "ALREADY",
	Off:         "OFF",
	Reserve:     "RESERVE",
	Invalid:     "INVALID",
	Size:        "SIZE",
	Cancel:      "CANCEL",
	NoMem:       "NOMEM",
	NoSupport:   "NOSUPPORT",
	NoDevice:    "NODEVICE",
	Uninstalled: "UNINSTALLED",
	NoAck:       "NOACK",
	BadRVal:     "BADRVAL",
}

// ErrorCodeFromU32 reports whether v is one of the recognized codes.
func ErrorCodeFromU32(v uint32) (ErrorCode, bool) {
	e := ErrorCode(v)
	_, ok := errorNames[e]
	return e, ok
}

func (e ErrorCode) Valid() bool {
	_, ok := errorNames[e]
	return ok
}

func (e ErrorCode) String() string {
	if name, ok := errorNames[e]; ok {
		return name
	}
	return fmt.Sprintf("ErrorCode(%d)", uint32(e))
}

func (e ErrorCode) Error() string {
	return "kernel error: " + e.String()
}

// ParseErrorCode accepts a name as printed by String, case-insensitively.
func ParseErrorCode(name string) (ErrorCode, error) {
	for e, n := range errorNames {
		if strings.EqualFold(n, name) {
			return e, nil
		}
	}
	return 0, errors.Errorf("unknown error code %q", name)
}
