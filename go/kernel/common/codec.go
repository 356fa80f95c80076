package common

import (
	"reflect"

	"github.com/lunixbochs/argjoy"
	"github.com/pkg/errors"
)

// commandArgCodec fills named integer and bool parameters (pin numbers,
// modes, edges) from a raw command word.
func (d *DriverBase) commandArgCodec(arg interface{}, vals []interface{}) error {
	reg, ok := vals[0].(uint64)
	if !ok {
		return argjoy.NoMatch
	}
	v := reflect.ValueOf(arg)
	if v.Kind() != reflect.Ptr {
		return argjoy.NoMatch
	}
	e := v.Elem()
	switch e.Kind() {
	case reflect.Bool:
		e.SetBool(reg != 0)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if e.OverflowUint(reg) {
			return errors.Errorf("command argument %#x overflows %s", reg, e.Type())
		}
		e.SetUint(reg)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// command words are u32 on the wire; signed parameters see them as i32
		n := int64(int32(uint32(reg)))
		if e.OverflowInt(n) {
			return errors.Errorf("command argument %d overflows %s", n, e.Type())
		}
		e.SetInt(n)
	default:
		return argjoy.NoMatch
	}
	return nil
}
