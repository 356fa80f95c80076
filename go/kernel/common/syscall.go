package common

import (
	"fmt"
	"reflect"

	"github.com/lunixbochs/tockcorn/go/models"
)

var commandReturnType = reflect.TypeOf(models.CommandReturn{})

// Command is one entry of a driver's command table.
type Command struct {
	ID     uint32
	Name   string
	Driver *DriverBase
	Func   reflect.Value
	In     []reflect.Type
}

func newCommand(d *DriverBase, id uint32, name string, fn reflect.Value) *Command {
	typ := fn.Type()
	if typ.NumIn() > 2 {
		panic(fmt.Sprintf("command %s takes %d arguments, at most 2 fit in a Command syscall", name, typ.NumIn()))
	}
	if typ.NumOut() != 1 || typ.Out(0) != commandReturnType {
		panic(fmt.Sprintf("command %s must return exactly models.CommandReturn", name))
	}
	in := make([]reflect.Type, typ.NumIn())
	for i := range in {
		in[i] = typ.In(i)
	}
	return &Command{ID: id, Name: name, Driver: d, Func: fn, In: in}
}

// Call converts arg0 and arg1 to the handler's parameter types and runs it.
// An argument that does not fit its parameter fails with Invalid.
func (c *Command) Call(arg0, arg1 uint32) models.CommandReturn {
	args := []uint64{uint64(arg0), uint64(arg1)}
	converted, err := c.Driver.Argjoy.Convert(c.In, false, args[:len(c.In)])
	if err != nil {
		return models.Failure(models.Invalid)
	}
	out := c.Func.Call(converted)
	return out[0].Interface().(models.CommandReturn)
}
