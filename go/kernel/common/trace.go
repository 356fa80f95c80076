package common

import (
	"fmt"
	"strings"

	"github.com/lunixbochs/tockcorn/go/models"
)

// CommandTracer is implemented by drivers that can name their commands.
type CommandTracer interface {
	TraceCommand(commandID, arg0, arg1 uint32) string
}

func traceArg(arg interface{}) string {
	switch v := arg.(type) {
	case bool:
		return fmt.Sprintf("%v", v)
	case fmt.Stringer:
		return v.String()
	case uint32, uint64, uint, uint16, uint8:
		return fmt.Sprintf("%#x", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (c *Command) traceArgs(arg0, arg1 uint32) string {
	args := []uint64{uint64(arg0), uint64(arg1)}
	converted, err := c.Driver.Argjoy.Convert(c.In, false, args[:len(c.In)])
	if err != nil {
		return err.Error()
	}
	out := make([]string, len(converted))
	for i, v := range converted {
		out[i] = traceArg(v.Interface())
	}
	return strings.Join(out, ", ")
}

func (c *Command) Trace(arg0, arg1 uint32) string {
	return fmt.Sprintf("%s(%s)", c.Name, c.traceArgs(arg0, arg1))
}

func (d *DriverBase) TraceCommand(commandID, arg0, arg1 uint32) string {
	if cmd, ok := d.Commands[commandID]; ok {
		return cmd.Trace(arg0, arg1)
	}
	return fmt.Sprintf("command_%d(%#x, %#x)", commandID, arg0, arg1)
}

func TraceRet(ret models.CommandReturn) string {
	if ret.GetSuccess() {
		return " = Success"
	}
	return fmt.Sprintf(" = %s", ret)
}
