// Package console simulates the console capsule: writes come out of a
// read-only buffer, reads land in a read-write buffer.
package console

import (
	"bytes"

	"github.com/lunixbochs/tockcorn/go/kernel/common"
	"github.com/lunixbochs/tockcorn/go/models"
)

const DriverNum uint32 = 0x1

const (
	CmdExists uint32 = 0
	CmdWrite  uint32 = 1
	CmdRead   uint32 = 2
	CmdAbort  uint32 = 3
)

const (
	UpcallWrite uint32 = 1
	UpcallRead  uint32 = 2
)

const (
	BufferWrite uint32 = 1 // read-only
	BufferRead  uint32 = 1 // read-write
)

type Console struct {
	common.DriverBase
	writeBuf common.RoAllowBuffer
	readBuf  common.RwAllowBuffer

	written bytes.Buffer
	input   bytes.Buffer
	// pending read length, 0 when no read is outstanding
	reading int
}

func New() *Console {
	c := &Console{}
	c.DriverNum = DriverNum
	c.Upcalls = 3
	common.DriverInit(c, map[string]uint32{
		"Write": CmdWrite,
		"Read":  CmdRead,
		"Abort": CmdAbort,
	})
	return c
}

func (c *Console) AllowReadOnly(bufferNum uint32, buf common.RoAllowBuffer) (common.RoAllowBuffer, error) {
	if bufferNum != BufferWrite {
		return buf, models.NoSupport
	}
	old := c.writeBuf
	c.writeBuf = buf
	return old, nil
}

func (c *Console) AllowReadWrite(bufferNum uint32, buf common.RwAllowBuffer) (common.RwAllowBuffer, error) {
	if bufferNum != BufferRead {
		return buf, models.NoSupport
	}
	old := c.readBuf
	c.readBuf = buf
	return old, nil
}

// TakeWritten returns what the process wrote since the last call.
func (c *Console) TakeWritten() []byte {
	out := append([]byte(nil), c.written.Bytes()...)
	c.written.Reset()
	return out
}

// SetInput queues bytes for the process to read, completing an outstanding
// read if there is one.
func (c *Console) SetInput(data []byte) error {
	c.input.Write(data)
	if c.reading > 0 {
		return c.finishRead()
	}
	return nil
}

func (c *Console) finishRead() error {
	dst := c.readBuf.Bytes()
	n := c.reading
	if n > len(dst) {
		n = len(dst)
	}
	n, _ = c.input.Read(dst[:n])
	c.reading = 0
	return c.Share.ScheduleUpcall(UpcallRead, 0, uint32(n), 0)
}

func (c *Console) CommandWrite(length uint32) models.CommandReturn {
	src := c.writeBuf.Bytes()
	if len(src) == 0 {
		return models.Failure(models.Reserve)
	}
	n := int(length)
	if n > len(src) {
		n = len(src)
	}
	c.written.Write(src[:n])
	if err := c.Share.ScheduleUpcall(UpcallWrite, uint32(n), 0, 0); err != nil {
		return models.Failure(models.Fail)
	}
	return models.Success()
}

func (c *Console) CommandRead(length uint32) models.CommandReturn {
	if c.reading > 0 {
		return models.Failure(models.Busy)
	}
	if len(c.readBuf.Bytes()) == 0 {
		return models.Failure(models.Reserve)
	}
	if length == 0 {
		return models.Failure(models.Invalid)
	}
	c.reading = int(length)
	if c.input.Len() > 0 {
		if err := c.finishRead(); err != nil {
			return models.Failure(models.Fail)
		}
	}
	return models.Success()
}

// CommandAbort cancels an outstanding read. The read upcall reports Cancel.
func (c *Console) CommandAbort() models.CommandReturn {
	if c.reading == 0 {
		return models.Failure(models.Already)
	}
	c.reading = 0
	if err := c.Share.ScheduleUpcall(UpcallRead, uint32(models.Cancel), 0, 0); err != nil {
		return models.Failure(models.Fail)
	}
	return models.Success()
}
