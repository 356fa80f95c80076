package models

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ReturnVariant is the r0 tag of a Command (and Subscribe/Allow) result.
type ReturnVariant uint32

const (
	VariantFailure       ReturnVariant = 0
	VariantFailureU32    ReturnVariant = 1
	VariantFailure2U32   ReturnVariant = 2
	VariantFailureU64    ReturnVariant = 3
	VariantSuccess       ReturnVariant = 128
	VariantSuccessU32    ReturnVariant = 129
	VariantSuccess2U32   ReturnVariant = 130
	VariantSuccessU64    ReturnVariant = 131
	VariantSuccess3U32   ReturnVariant = 132
	VariantSuccessU32U64 ReturnVariant = 133
)

var variantNames = map[ReturnVariant]string{
	VariantFailure:       "Failure",
	VariantFailureU32:    "FailureU32",
	VariantFailure2U32:   "Failure2U32",
	VariantFailureU64:    "FailureU64",
	VariantSuccess:       "Success",
	VariantSuccessU32:    "SuccessU32",
	VariantSuccess2U32:   "Success2U32",
	VariantSuccessU64:    "SuccessU64",
	VariantSuccess3U32:   "Success3U32",
	VariantSuccessU32U64: "SuccessU32U64",
}

func (v ReturnVariant) String() string {
	if name, ok := variantNames[v]; ok {
		return name
	}
	return fmt.Sprintf("ReturnVariant(%d)", uint32(v))
}

func ParseReturnVariant(name string) (ReturnVariant, error) {
	for v, n := range variantNames {
		if strings.EqualFold(n, name) {
			return v, nil
		}
	}
	return 0, errors.Errorf("unknown return variant %q", name)
}

func (v ReturnVariant) Known() bool {
	_, ok := variantNames[v]
	return ok
}

// IsFailure is true for the four failure tags. Unknown tags are neither
// success nor failure.
func (v ReturnVariant) IsFailure() bool {
	return v <= VariantFailureU64
}

func (v ReturnVariant) IsSuccess() bool {
	return v >= VariantSuccess && v <= VariantSuccessU32U64
}

// CommandReturn is the decoded result of a Command syscall.
// For every failure variant r1 holds a valid ErrorCode; this is checked once
// when the value is built, so the accessors never re-check it.
type CommandReturn struct {
	variant    ReturnVariant
	r1, r2, r3 uint32
}

// NewCommandReturn builds a CommandReturn from raw register values.
// It panics if variant is a failure and r1 is not a valid ErrorCode: the
// kernel never produces that, so it indicates a broken backend.
func NewCommandReturn(variant ReturnVariant, r1, r2, r3 uint32) CommandReturn {
	if variant.IsFailure() {
		if _, ok := ErrorCodeFromU32(r1); !ok {
			panic(errors.Errorf("%s carries invalid error code %d", variant, r1))
		}
	}
	return CommandReturn{variant, r1, r2, r3}
}

func lo32(v uint64) uint32 { return uint32(v) }
func hi32(v uint64) uint32 { return uint32(v >> 32) }
func join64(lo, hi uint32) uint64 {
	return uint64(hi)<<32 | uint64(lo)
}

func Failure(e ErrorCode) CommandReturn {
	return NewCommandReturn(VariantFailure, uint32(e), 0, 0)
}

func FailureU32(e ErrorCode, v uint32) CommandReturn {
	return NewCommandReturn(VariantFailureU32, uint32(e), v, 0)
}

func Failure2U32(e ErrorCode, v0, v1 uint32) CommandReturn {
	return NewCommandReturn(VariantFailure2U32, uint32(e), v0, v1)
}

func FailureU64(e ErrorCode, v uint64) CommandReturn {
	return NewCommandReturn(VariantFailureU64, uint32(e), lo32(v), hi32(v))
}

func Success() CommandReturn {
	return CommandReturn{variant: VariantSuccess}
}

func SuccessU32(v uint32) CommandReturn {
	return CommandReturn{variant: VariantSuccessU32, r1: v}
}

func Success2U32(v0, v1 uint32) CommandReturn {
	return CommandReturn{variant: VariantSuccess2U32, r1: v0, r2: v1}
}

func Success3U32(v0, v1, v2 uint32) CommandReturn {
	return CommandReturn{variant: VariantSuccess3U32, r1: v0, r2: v1, r3: v2}
}

func SuccessU64(v uint64) CommandReturn {
	return CommandReturn{variant: VariantSuccessU64, r1: lo32(v), r2: hi32(v)}
}

func SuccessU32U64(v0 uint32, v1 uint64) CommandReturn {
	return CommandReturn{variant: VariantSuccessU32U64, r1: v0, r2: lo32(v1), r3: hi32(v1)}
}

func (c CommandReturn) ReturnVariant() ReturnVariant { return c.variant }

// Raw returns the register payload (r1, r2, r3).
func (c CommandReturn) Raw() (uint32, uint32, uint32) { return c.r1, c.r2, c.r3 }

func (c CommandReturn) IsFailure() bool { return c.variant.IsFailure() }
func (c CommandReturn) IsSuccess() bool { return c.variant.IsSuccess() }

func (c CommandReturn) IsFailureU32() bool    { return c.variant == VariantFailureU32 }
func (c CommandReturn) IsFailure2U32() bool   { return c.variant == VariantFailure2U32 }
func (c CommandReturn) IsFailureU64() bool    { return c.variant == VariantFailureU64 }
func (c CommandReturn) IsSuccessU32() bool    { return c.variant == VariantSuccessU32 }
func (c CommandReturn) IsSuccess2U32() bool   { return c.variant == VariantSuccess2U32 }
func (c CommandReturn) IsSuccessU64() bool    { return c.variant == VariantSuccessU64 }
func (c CommandReturn) IsSuccess3U32() bool   { return c.variant == VariantSuccess3U32 }
func (c CommandReturn) IsSuccessU32U64() bool { return c.variant == VariantSuccessU32U64 }

func (c CommandReturn) GetFailure() (ErrorCode, bool) {
	if c.variant != VariantFailure {
		return 0, false
	}
	return ErrorCode(c.r1), true
}

func (c CommandReturn) GetFailureU32() (ErrorCode, uint32, bool) {
	if c.variant != VariantFailureU32 {
		return 0, 0, false
	}
	return ErrorCode(c.r1), c.r2, true
}

func (c CommandReturn) GetFailure2U32() (ErrorCode, uint32, uint32, bool) {
	if c.variant != VariantFailure2U32 {
		return 0, 0, 0, false
	}
	return ErrorCode(c.r1), c.r2, c.r3, true
}

func (c CommandReturn) GetFailureU64() (ErrorCode, uint64, bool) {
	if c.variant != VariantFailureU64 {
		return 0, 0, false
	}
	return ErrorCode(c.r1), join64(c.r2, c.r3), true
}

// GetSuccess only reports whether the variant is the bare Success shape.
func (c CommandReturn) GetSuccess() bool {
	return c.variant == VariantSuccess
}

func (c CommandReturn) GetSuccessU32() (uint32, bool) {
	if c.variant != VariantSuccessU32 {
		return 0, false
	}
	return c.r1, true
}

func (c CommandReturn) GetSuccess2U32() (uint32, uint32, bool) {
	if c.variant != VariantSuccess2U32 {
		return 0, 0, false
	}
	return c.r1, c.r2, true
}

func (c CommandReturn) GetSuccess3U32() (uint32, uint32, uint32, bool) {
	if c.variant != VariantSuccess3U32 {
		return 0, 0, 0, false
	}
	return c.r1, c.r2, c.r3, true
}

func (c CommandReturn) GetSuccessU64() (uint64, bool) {
	if c.variant != VariantSuccessU64 {
		return 0, false
	}
	return join64(c.r1, c.r2), true
}

func (c CommandReturn) GetSuccessU32U64() (uint32, uint64, bool) {
	if c.variant != VariantSuccessU32U64 {
		return 0, 0, false
	}
	return c.r1, join64(c.r2, c.r3), true
}

// Err returns nil for any success shape and the ErrorCode for any failure
// shape. An unrecognized variant is reported as BadRVal.
func (c CommandReturn) Err() error {
	switch {
	case c.variant.IsSuccess():
		return nil
	case c.variant.IsFailure():
		return ErrorCode(c.r1)
	default:
		return BadRVal
	}
}

func (c CommandReturn) String() string {
	return fmt.Sprintf("%s(%#x, %#x, %#x)", c.variant, c.r1, c.r2, c.r3)
}
