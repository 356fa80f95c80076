// Package lowleveldebug simulates the kernel's low-level debug capsule, which
// prints alert codes and numbers without needing any buffers.
package lowleveldebug

import (
	"fmt"

	"github.com/lunixbochs/tockcorn/go/kernel/common"
	"github.com/lunixbochs/tockcorn/go/models"
)

const DriverNum uint32 = 0x8

const (
	CmdExists uint32 = 0
	CmdAlert  uint32 = 1
	CmdPrint1 uint32 = 2
	CmdPrint2 uint32 = 3
)

// Alert codes the runtime reports through CmdAlert.
const (
	AlertPanic         uint32 = 1
	AlertWrongLocation uint32 = 2
)

type MessageKind int

const (
	KindAlert MessageKind = iota
	KindPrint1
	KindPrint2
)

// Message is one line the capsule would have printed.
type Message struct {
	Kind MessageKind
	Arg0 uint32
	Arg1 uint32
}

func (m Message) String() string {
	switch m.Kind {
	case KindAlert:
		switch m.Arg0 {
		case AlertPanic:
			return "LowLevelDebug: alert code 1 (panic)"
		case AlertWrongLocation:
			return "LowLevelDebug: alert code 2 (location)"
		}
		return fmt.Sprintf("LowLevelDebug: alert code %d", m.Arg0)
	case KindPrint1:
		return fmt.Sprintf("LowLevelDebug: print %#x", m.Arg0)
	}
	return fmt.Sprintf("LowLevelDebug: prints %#x %#x", m.Arg0, m.Arg1)
}

type LowLevelDebug struct {
	common.DriverBase
	messages []Message
}

func New() *LowLevelDebug {
	d := &LowLevelDebug{}
	d.DriverNum = DriverNum
	common.DriverInit(d, map[string]uint32{
		"Alert":  CmdAlert,
		"Print1": CmdPrint1,
		"Print2": CmdPrint2,
	})
	return d
}

// TakeMessages returns the messages printed since the last call.
func (d *LowLevelDebug) TakeMessages() []Message {
	m := d.messages
	d.messages = nil
	return m
}

func (d *LowLevelDebug) CommandAlert(code uint32) models.CommandReturn {
	d.messages = append(d.messages, Message{Kind: KindAlert, Arg0: code})
	return models.Success()
}

func (d *LowLevelDebug) CommandPrint1(v uint32) models.CommandReturn {
	d.messages = append(d.messages, Message{Kind: KindPrint1, Arg0: v})
	return models.Success()
}

func (d *LowLevelDebug) CommandPrint2(a, b uint32) models.CommandReturn {
	d.messages = append(d.messages, Message{Kind: KindPrint2, Arg0: a, Arg1: b})
	return models.Success()
}
