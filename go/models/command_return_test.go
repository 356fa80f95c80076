package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFailureAccessors(t *testing.T) {
	c := Failure(Busy)
	if e, ok := c.GetFailure(); !ok || e != Busy {
		t.Fatalf("GetFailure() = %v, %v", e, ok)
	}
	if _, _, ok := c.GetFailureU32(); ok {
		t.Fatal("GetFailureU32 matched a bare failure")
	}
	if c.Err() != Busy {
		t.Fatalf("Err() = %v", c.Err())
	}
}

func TestCommandReturnShapes(t *testing.T) {
	const big = uint64(0x1122334455667788)

	e, v, ok := FailureU32(NoMem, 7).GetFailureU32()
	assert.True(t, ok)
	assert.Equal(t, NoMem, e)
	assert.Equal(t, uint32(7), v)

	e, v0, v1, ok := Failure2U32(Invalid, 1, 2).GetFailure2U32()
	assert.True(t, ok)
	assert.Equal(t, Invalid, e)
	assert.Equal(t, []uint32{1, 2}, []uint32{v0, v1})

	e, v64, ok := FailureU64(Size, big).GetFailureU64()
	assert.True(t, ok)
	assert.Equal(t, Size, e)
	assert.Equal(t, big, v64)

	assert.True(t, Success().GetSuccess())

	v, ok = SuccessU32(42).GetSuccessU32()
	assert.True(t, ok)
	assert.Equal(t, uint32(42), v)

	v0, v1, ok = Success2U32(3, 4).GetSuccess2U32()
	assert.True(t, ok)
	assert.Equal(t, []uint32{3, 4}, []uint32{v0, v1})

	a, b, c, ok := Success3U32(5, 6, 7).GetSuccess3U32()
	assert.True(t, ok)
	assert.Equal(t, []uint32{5, 6, 7}, []uint32{a, b, c})

	v64, ok = SuccessU64(big).GetSuccessU64()
	assert.True(t, ok)
	assert.Equal(t, big, v64)

	v, v64, ok = SuccessU32U64(9, big).GetSuccessU32U64()
	assert.True(t, ok)
	assert.Equal(t, uint32(9), v)
	assert.Equal(t, big, v64)
}

func TestU64Split(t *testing.T) {
	r1, r2, r3 := SuccessU64(0xaaaabbbbccccdddd).Raw()
	if r1 != 0xccccdddd || r2 != 0xaaaabbbb || r3 != 0 {
		t.Fatalf("SuccessU64 raw = %#x %#x %#x", r1, r2, r3)
	}
	r1, r2, r3 = SuccessU32U64(1, 0xaaaabbbbccccdddd).Raw()
	if r1 != 1 || r2 != 0xccccdddd || r3 != 0xaaaabbbb {
		t.Fatalf("SuccessU32U64 raw = %#x %#x %#x", r1, r2, r3)
	}
}

// every shape must only answer to its own accessor
func TestAccessorsAreExclusive(t *testing.T) {
	all := []CommandReturn{
		Failure(Fail), FailureU32(Fail, 1), Failure2U32(Fail, 1, 2), FailureU64(Fail, 1),
		Success(), SuccessU32(1), Success2U32(1, 2), SuccessU64(1), Success3U32(1, 2, 3), SuccessU32U64(1, 2),
	}
	for _, c := range all {
		_, f := c.GetFailure()
		_, _, fu32 := c.GetFailureU32()
		_, _, _, f2u32 := c.GetFailure2U32()
		_, _, fu64 := c.GetFailureU64()
		s := c.GetSuccess()
		_, su32 := c.GetSuccessU32()
		_, _, s2u32 := c.GetSuccess2U32()
		_, su64 := c.GetSuccessU64()
		_, _, _, s3u32 := c.GetSuccess3U32()
		_, _, su32u64 := c.GetSuccessU32U64()
		n := 0
		for _, ok := range []bool{f, fu32, f2u32, fu64, s, su32, s2u32, su64, s3u32, su32u64} {
			if ok {
				n++
			}
		}
		if n != 1 {
			t.Errorf("%s matched %d accessors", c, n)
		}
		if c.IsSuccess() == c.IsFailure() {
			t.Errorf("%s: IsSuccess=%v IsFailure=%v", c, c.IsSuccess(), c.IsFailure())
		}
	}
}

func TestUnknownVariant(t *testing.T) {
	c := NewCommandReturn(ReturnVariant(77), 1, 2, 3)
	assert.False(t, c.IsSuccess())
	assert.False(t, c.IsFailure())
	assert.False(t, c.ReturnVariant().Known())
	assert.Equal(t, BadRVal, c.Err())
}

func TestInvalidFailureCodePanics(t *testing.T) {
	assert.Panics(t, func() { NewCommandReturn(VariantFailure, 0, 0, 0) })
	assert.Panics(t, func() { NewCommandReturn(VariantFailureU32, 14, 0, 0) })
	assert.NotPanics(t, func() { NewCommandReturn(VariantFailure, uint32(BadRVal), 0, 0) })
}

func TestParseNames(t *testing.T) {
	v, err := ParseReturnVariant("success2u32")
	assert.NoError(t, err)
	assert.Equal(t, VariantSuccess2U32, v)
	e, err := ParseErrorCode("NoAck")
	assert.NoError(t, err)
	assert.Equal(t, NoAck, e)
	_, err = ParseErrorCode("nope")
	assert.Error(t, err)
}
