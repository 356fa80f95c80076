package common

import (
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lunixbochs/argjoy"

	"github.com/lunixbochs/tockcorn/go/models"
)

type DriverInfo struct {
	DriverNum  uint32
	NumUpcalls uint32
}

// Driver is a simulated capsule. The kernel routes Command and Allow calls
// for Info().DriverNum here and handles Subscribe itself.
type Driver interface {
	Info() DriverInfo
	// Register is called once when the driver is attached to a kernel.
	Register(ref ShareRef)
	Command(commandID, arg0, arg1 uint32) models.CommandReturn
	// AllowReadOnly and AllowReadWrite swap in buf and return the buffer that
	// was previously in the slot. On error they return buf itself.
	AllowReadOnly(bufferNum uint32, buf RoAllowBuffer) (RoAllowBuffer, error)
	AllowReadWrite(bufferNum uint32, buf RwAllowBuffer) (RwAllowBuffer, error)
}

// DriverBase implements the parts of Driver most simulated drivers share.
// Embed it, then call DriverInit with the outer driver so its Command* methods
// are registered in the command table.
type DriverBase struct {
	Commands  map[uint32]*Command
	Argjoy    argjoy.Argjoy
	DriverNum uint32
	Upcalls   uint32
	Share     ShareRef
}

func (d *DriverBase) Base() *DriverBase {
	return d
}

type driverBaser interface {
	Base() *DriverBase
}

func (d *DriverBase) Info() DriverInfo {
	return DriverInfo{DriverNum: d.DriverNum, NumUpcalls: d.Upcalls}
}

func (d *DriverBase) Register(ref ShareRef) {
	d.Share = ref
}

func (d *DriverBase) AllowReadOnly(bufferNum uint32, buf RoAllowBuffer) (RoAllowBuffer, error) {
	return buf, models.NoSupport
}

func (d *DriverBase) AllowReadWrite(bufferNum uint32, buf RwAllowBuffer) (RwAllowBuffer, error) {
	return buf, models.NoSupport
}

// Command dispatches through the command table. Unknown IDs are NoSupport,
// except 0 which reports the driver present.
func (d *DriverBase) Command(commandID, arg0, arg1 uint32) models.CommandReturn {
	if cmd, ok := d.Commands[commandID]; ok {
		return cmd.Call(arg0, arg1)
	}
	if commandID == 0 {
		return models.Success()
	}
	return models.Failure(models.NoSupport)
}

func camelToSnakeCase(name string) string {
	var words []string
	last := 0
	for i, c := range name {
		if unicode.IsUpper(c) {
			if i > 0 {
				words = append(words, name[last:i])
			}
			last = i
		}
	}
	words = append(words, name[last:])
	return strings.ToLower(strings.Join(words, "_"))
}

// DriverInit binds handlers in ids to methods of drv. Each key is a method
// name without the "Command" prefix, e.g. {"Set": 2} binds CommandSet.
func DriverInit(drv interface{}, ids map[string]uint32) {
	d := drv.(driverBaser).Base()
	d.Commands = make(map[uint32]*Command)
	instance := reflect.ValueOf(drv)
	typ := instance.Type()
	for i := 0; i < typ.NumMethod(); i++ {
		method := typ.Method(i)
		if !strings.HasPrefix(method.Name, "Command") || method.Name == "Command" {
			continue
		}
		name := strings.TrimPrefix(method.Name, "Command")
		if r, size := utf8.DecodeRuneInString(name); size <= 0 || !unicode.IsUpper(r) {
			continue
		}
		id, ok := ids[name]
		if !ok {
			continue
		}
		d.Commands[id] = newCommand(d, id, camelToSnakeCase(name), instance.Method(i))
	}
	for name, id := range ids {
		if _, ok := d.Commands[id]; !ok {
			panic("no Command" + name + " method on " + typ.String())
		}
	}
	d.Argjoy.Register(d.commandArgCodec)
	d.Argjoy.Register(argjoy.IntToInt)
}
