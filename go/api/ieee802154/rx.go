package ieee802154

import (
	"github.com/pkg/errors"

	"github.com/lunixbochs/tockcorn/go/models"
	"github.com/lunixbochs/tockcorn/go/platform"
)

// RxRingBuffer is the memory the driver writes received frames into. Byte 0
// is the read index (ours), byte 1 the write index (the driver's), then one
// slot per frame. One slot always stays empty so that equal indices mean
// empty, so a ring for n usable frames has n+1 slots.
type RxRingBuffer struct {
	buf []byte
}

func NewRxRingBuffer(usable int) *RxRingBuffer {
	if usable < 1 || usable+1 > 255 {
		panic(errors.Errorf("rx ring of %d frames", usable))
	}
	return &RxRingBuffer{buf: make([]byte, models.RingSize(usable+1))}
}

func (r *RxRingBuffer) slots() int {
	return (len(r.buf) - models.RingHeaderSize) / models.FrameSlotSize
}

// Usable is the number of frames the ring holds before dropping the oldest.
func (r *RxRingBuffer) Usable() int {
	return r.slots() - 1
}

// Bytes is the region shared with the driver.
func (r *RxRingBuffer) Bytes() []byte {
	return r.buf
}

func (r *RxRingBuffer) Empty() bool {
	return r.buf[0] == r.buf[1]
}

// NextFrame pops the oldest unread frame, or returns nil if there is none.
// It must not be called while the ring is shared with the kernel.
func (r *RxRingBuffer) NextFrame() (*models.RadioFrame, error) {
	if r.Empty() {
		return nil, nil
	}
	read := int(r.buf[0])
	if read >= r.slots() {
		return nil, errors.Errorf("rx ring read index %d out of range", read)
	}
	off := models.RingHeaderSize + read*models.FrameSlotSize
	frame, err := models.UnpackSlot(r.buf[off : off+models.FrameSlotSize])
	if err != nil {
		return nil, err
	}
	r.buf[0] = byte((read + 1) % r.slots())
	return frame, nil
}

// RxOperator receives frames one at a time through a ring.
type RxOperator struct {
	radio *Radio
	ring  *RxRingBuffer
}

func NewRxOperator(radio *Radio, ring *RxRingBuffer) *RxOperator {
	return &RxOperator{radio: radio, ring: ring}
}

// ReceiveFrame returns the next frame. If the ring has none it shares the
// ring, waits for the receive upcall, then takes the ring back.
func (o *RxOperator) ReceiveFrame() (*models.RadioFrame, error) {
	if frame, err := o.ring.NextFrame(); frame != nil || err != nil {
		return frame, err
	}
	sys := o.radio.sys
	err := sys.Scope(func(sc *platform.Scope) error {
		if _, err := sc.AllowRW(DriverNum, allowRwRx, o.ring.Bytes()); err != nil {
			return errors.Wrap(err, "share rx ring")
		}
		var received platform.Flag
		if _, err := sc.Subscribe(DriverNum, subscribeRx, &received); err != nil {
			return errors.Wrap(err, "subscribe rx")
		}
		for !received.Called {
			sys.YieldWait()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	frame, err := o.ring.NextFrame()
	if err == nil && frame == nil {
		err = errors.New("rx upcall fired with an empty ring")
	}
	return frame, err
}
