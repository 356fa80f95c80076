// Package ieee802154 is the process side of the 802.15.4 radio driver.
package ieee802154

import (
	"github.com/pkg/errors"

	"github.com/lunixbochs/tockcorn/go/models"
	"github.com/lunixbochs/tockcorn/go/platform"
)

const DriverNum uint32 = 0x30001

const (
	cmdExists     = 0
	cmdIsOn       = 1
	cmdSetShort   = 2
	cmdSetLong    = 3
	cmdSetPan     = 4
	cmdSetChannel = 5
	cmdSetTxPower = 6
	cmdCommit     = 7
	cmdGetShort   = 8
	cmdGetLong    = 9
	cmdGetPan     = 10
	cmdGetChannel = 11
	cmdGetTxPower = 12
	cmdTransmit   = 27
	cmdRadioOn    = 28
	cmdRadioOff   = 29
)

const (
	subscribeRx = 0
	subscribeTx = 1
	allowRwRx   = 0
	allowRoTx   = 0
)

type Radio struct {
	sys *platform.Syscalls
}

func New(sys *platform.Syscalls) *Radio {
	return &Radio{sys: sys}
}

func (r *Radio) command(id, arg0, arg1 uint32) models.CommandReturn {
	return r.sys.Command(DriverNum, id, arg0, arg1)
}

func valueErr(ret models.CommandReturn) error {
	if err := ret.Err(); err != nil {
		return err
	}
	return models.BadRVal
}

func (r *Radio) u32(id uint32) (uint32, error) {
	ret := r.command(id, 0, 0)
	if v, ok := ret.GetSuccessU32(); ok {
		return v, nil
	}
	return 0, valueErr(ret)
}

func (r *Radio) Exists() error { return r.command(cmdExists, 0, 0).Err() }
func (r *Radio) On() error     { return r.command(cmdRadioOn, 0, 0).Err() }
func (r *Radio) Off() error    { return r.command(cmdRadioOff, 0, 0).Err() }

func (r *Radio) IsOn() bool {
	return r.command(cmdIsOn, 0, 0).IsSuccess()
}

// The setters stage configuration; Commit applies it.

func (r *Radio) SetShortAddr(addr uint16) error {
	return r.command(cmdSetShort, uint32(addr), 0).Err()
}

func (r *Radio) SetLongAddr(addr uint64) error {
	return r.command(cmdSetLong, uint32(addr), uint32(addr>>32)).Err()
}

func (r *Radio) SetPan(pan uint16) error {
	return r.command(cmdSetPan, uint32(pan), 0).Err()
}

func (r *Radio) SetChannel(channel uint8) error {
	return r.command(cmdSetChannel, uint32(channel), 0).Err()
}

func (r *Radio) SetTxPower(power int8) error {
	return r.command(cmdSetTxPower, uint32(int32(power)), 0).Err()
}

func (r *Radio) Commit() error {
	return r.command(cmdCommit, 0, 0).Err()
}

func (r *Radio) ShortAddr() (uint16, error) {
	v, err := r.u32(cmdGetShort)
	return uint16(v), err
}

func (r *Radio) LongAddr() (uint64, error) {
	ret := r.command(cmdGetLong, 0, 0)
	if v, ok := ret.GetSuccessU64(); ok {
		return v, nil
	}
	return 0, valueErr(ret)
}

func (r *Radio) Pan() (uint16, error) {
	v, err := r.u32(cmdGetPan)
	return uint16(v), err
}

func (r *Radio) Channel() (uint8, error) {
	v, err := r.u32(cmdGetChannel)
	return uint8(v), err
}

func (r *Radio) TxPower() (int8, error) {
	v, err := r.u32(cmdGetTxPower)
	return int8(int32(v)), err
}

// Transmit sends frame and waits for the transmit upcall. It reports whether
// the frame was acknowledged.
func (r *Radio) Transmit(frame *models.RadioFrame) (acked bool, err error) {
	slot := make([]byte, models.FrameSlotSize)
	if err := frame.PackSlot(slot); err != nil {
		return false, err
	}
	var done platform.Args
	err = r.sys.Scope(func(sc *platform.Scope) error {
		if _, err := sc.AllowRO(DriverNum, allowRoTx, slot); err != nil {
			return errors.Wrap(err, "share tx buffer")
		}
		if _, err := sc.Subscribe(DriverNum, subscribeTx, &done); err != nil {
			return errors.Wrap(err, "subscribe tx")
		}
		if err := r.command(cmdTransmit, 0, 0).Err(); err != nil {
			return err
		}
		for !done.Called {
			r.sys.YieldWait()
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	if done.Arg0 != 0 {
		if code, ok := models.ErrorCodeFromU32(done.Arg0); ok {
			return false, code
		}
		return false, models.BadRVal
	}
	return done.Arg1 != 0, nil
}
