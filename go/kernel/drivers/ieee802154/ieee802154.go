// Package ieee802154 simulates an 802.15.4 radio capsule. Received frames are
// written into a ring buffer the process shares read-write.
package ieee802154

import (
	"github.com/pkg/errors"

	"github.com/lunixbochs/tockcorn/go/kernel/common"
	"github.com/lunixbochs/tockcorn/go/models"
)

const DriverNum uint32 = 0x30001

const (
	CmdExists     uint32 = 0
	CmdIsOn       uint32 = 1
	CmdSetShort   uint32 = 2
	CmdSetLong    uint32 = 3
	CmdSetPan     uint32 = 4
	CmdSetChannel uint32 = 5
	CmdSetTxPower uint32 = 6
	CmdCommit     uint32 = 7
	CmdGetShort   uint32 = 8
	CmdGetLong    uint32 = 9
	CmdGetPan     uint32 = 10
	CmdGetChannel uint32 = 11
	CmdGetTxPower uint32 = 12
	CmdTransmit   uint32 = 27
	CmdRadioOn    uint32 = 28
	CmdRadioOff   uint32 = 29
)

const (
	UpcallFrameReceived    uint32 = 0
	UpcallFrameTransmitted uint32 = 1
)

const (
	BufferRx uint32 = 0 // read-write
	BufferTx uint32 = 0 // read-only
)

// RadioConfig is the addressing and PHY configuration.
type RadioConfig struct {
	ShortAddr uint16
	LongAddr  uint64
	Pan       uint16
	Channel   uint8
	TxPower   int8
}

var DefaultConfig = RadioConfig{Channel: 26}

// Radio is the simulated driver. Frames arrive through ReceiveFrame; frames
// the process transmits are collected for TakeTransmittedFrames.
type Radio struct {
	common.DriverBase
	on      bool
	pending RadioConfig
	config  RadioConfig
	rx      common.RwAllowBuffer
	tx      common.RoAllowBuffer
	sent    []*models.RadioFrame
	dropped int
}

func New() *Radio {
	r := &Radio{pending: DefaultConfig, config: DefaultConfig}
	r.DriverNum = DriverNum
	r.Upcalls = 2
	common.DriverInit(r, map[string]uint32{
		"Exists":     CmdExists,
		"IsOn":       CmdIsOn,
		"SetShort":   CmdSetShort,
		"SetLong":    CmdSetLong,
		"SetPan":     CmdSetPan,
		"SetChannel": CmdSetChannel,
		"SetTxPower": CmdSetTxPower,
		"Commit":     CmdCommit,
		"GetShort":   CmdGetShort,
		"GetLong":    CmdGetLong,
		"GetPan":     CmdGetPan,
		"GetChannel": CmdGetChannel,
		"GetTxPower": CmdGetTxPower,
		"Transmit":   CmdTransmit,
		"RadioOn":    CmdRadioOn,
		"RadioOff":   CmdRadioOff,
	})
	return r
}

func (r *Radio) AllowReadWrite(bufferNum uint32, buf common.RwAllowBuffer) (common.RwAllowBuffer, error) {
	if bufferNum != BufferRx {
		return buf, models.NoSupport
	}
	old := r.rx
	r.rx = buf
	return old, nil
}

func (r *Radio) AllowReadOnly(bufferNum uint32, buf common.RoAllowBuffer) (common.RoAllowBuffer, error) {
	if bufferNum != BufferTx {
		return buf, models.NoSupport
	}
	old := r.tx
	r.tx = buf
	return old, nil
}

// Config returns the committed configuration.
func (r *Radio) Config() RadioConfig {
	return r.config
}

func (r *Radio) IsOn() bool {
	return r.on
}

// Dropped counts frames overwritten before the process read them.
func (r *Radio) Dropped() int {
	return r.dropped
}

// ReceiveFrame delivers a frame as if it came over the air. It lands in the
// shared ring at the write index; if the ring is full the oldest unread frame
// is overwritten.
func (r *Radio) ReceiveFrame(frame *models.RadioFrame) error {
	if !r.on {
		return errors.Wrap(models.Off, "receive frame")
	}
	ring := r.rx.Bytes()
	slots := (len(ring) - models.RingHeaderSize) / models.FrameSlotSize
	if slots < 2 {
		return errors.Errorf("receive ring of %d bytes holds no frames", len(ring))
	}
	read, write := int(ring[0]), int(ring[1])
	if read >= slots || write >= slots {
		return errors.Errorf("receive ring indices %d/%d out of range for %d slots", read, write, slots)
	}
	off := models.RingHeaderSize + write*models.FrameSlotSize
	if err := frame.PackSlot(ring[off : off+models.FrameSlotSize]); err != nil {
		return err
	}
	write = (write + 1) % slots
	if write == read {
		read = (read + 1) % slots
		r.dropped++
	}
	ring[0], ring[1] = byte(read), byte(write)
	return r.Share.ScheduleUpcall(UpcallFrameReceived, uint32(frame.Len()), 0, 0)
}

// TakeTransmittedFrames returns the frames transmitted since the last call.
func (r *Radio) TakeTransmittedFrames() []*models.RadioFrame {
	sent := r.sent
	r.sent = nil
	return sent
}

func (r *Radio) CommandExists() models.CommandReturn {
	return models.Success()
}

func (r *Radio) CommandIsOn() models.CommandReturn {
	if r.on {
		return models.Success()
	}
	return models.Failure(models.Off)
}

func (r *Radio) CommandSetShort(addr uint16) models.CommandReturn {
	r.pending.ShortAddr = addr
	return models.Success()
}

func (r *Radio) CommandSetLong(lo, hi uint32) models.CommandReturn {
	r.pending.LongAddr = uint64(hi)<<32 | uint64(lo)
	return models.Success()
}

func (r *Radio) CommandSetPan(pan uint16) models.CommandReturn {
	r.pending.Pan = pan
	return models.Success()
}

func (r *Radio) CommandSetChannel(channel uint8) models.CommandReturn {
	if channel < 11 || channel > 26 {
		return models.Failure(models.Invalid)
	}
	r.pending.Channel = channel
	return models.Success()
}

func (r *Radio) CommandSetTxPower(power int8) models.CommandReturn {
	r.pending.TxPower = power
	return models.Success()
}

func (r *Radio) CommandCommit() models.CommandReturn {
	r.config = r.pending
	return models.Success()
}

func (r *Radio) CommandGetShort() models.CommandReturn {
	return models.SuccessU32(uint32(r.config.ShortAddr))
}

func (r *Radio) CommandGetLong() models.CommandReturn {
	return models.SuccessU64(r.config.LongAddr)
}

func (r *Radio) CommandGetPan() models.CommandReturn {
	return models.SuccessU32(uint32(r.config.Pan))
}

func (r *Radio) CommandGetChannel() models.CommandReturn {
	return models.SuccessU32(uint32(r.config.Channel))
}

func (r *Radio) CommandGetTxPower() models.CommandReturn {
	return models.SuccessU32(uint32(int32(r.config.TxPower)))
}

// CommandTransmit sends the frame in the read-only slot. Completion is
// reported through the transmitted upcall with (status, acked, 0).
func (r *Radio) CommandTransmit() models.CommandReturn {
	if !r.on {
		return models.Failure(models.Off)
	}
	buf := r.tx.Bytes()
	if len(buf) < models.FrameSlotSize {
		return models.Failure(models.Size)
	}
	frame, err := models.UnpackSlot(buf)
	if err != nil {
		return models.Failure(models.Invalid)
	}
	r.sent = append(r.sent, frame)
	if err := r.Share.ScheduleUpcall(UpcallFrameTransmitted, 0, 1, 0); err != nil {
		return models.Failure(models.Fail)
	}
	return models.Success()
}

func (r *Radio) CommandRadioOn() models.CommandReturn {
	r.on = true
	return models.Success()
}

func (r *Radio) CommandRadioOff() models.CommandReturn {
	r.on = false
	return models.Success()
}
