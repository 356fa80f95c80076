package models

import (
	"bytes"

	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
)

const (
	// MaxFrameBody is the largest 802.15.4 PSDU.
	MaxFrameBody = 127
	// FrameSlotSize is one frame slot in a receive ring: three length bytes
	// followed by the body.
	FrameSlotSize = 3 + MaxFrameBody
	// RingHeaderSize covers the read and write index bytes at the start of a
	// receive ring.
	RingHeaderSize = 2
)

// RadioFrame is the layout of one slot in the 802.15.4 receive ring.
// Body holds the MAC header, then the payload, then the MIC.
type RadioFrame struct {
	HeaderLen  uint8              `struc:"uint8"`
	PayloadLen uint8              `struc:"uint8"`
	MicLen     uint8              `struc:"uint8"`
	Body       [MaxFrameBody]byte `struc:"[127]byte"`
}

func (f *RadioFrame) Len() int {
	return int(f.HeaderLen) + int(f.PayloadLen) + int(f.MicLen)
}

func (f *RadioFrame) Header() []byte {
	return f.Body[:f.HeaderLen]
}

func (f *RadioFrame) Payload() []byte {
	return f.Body[f.HeaderLen : int(f.HeaderLen)+int(f.PayloadLen)]
}

func (f *RadioFrame) Mic() []byte {
	start := int(f.HeaderLen) + int(f.PayloadLen)
	return f.Body[start : start+int(f.MicLen)]
}

// NewRadioFrame builds a frame from its parts. It fails if they don't fit in
// one PSDU.
func NewRadioFrame(header, payload, mic []byte) (*RadioFrame, error) {
	if len(header)+len(payload)+len(mic) > MaxFrameBody {
		return nil, errors.Errorf("frame of %d bytes exceeds %d byte body", len(header)+len(payload)+len(mic), MaxFrameBody)
	}
	f := &RadioFrame{HeaderLen: uint8(len(header)), PayloadLen: uint8(len(payload)), MicLen: uint8(len(mic))}
	n := copy(f.Body[:], header)
	n += copy(f.Body[n:], payload)
	copy(f.Body[n:], mic)
	return f, nil
}

// PackSlot writes f into a ring slot.
func (f *RadioFrame) PackSlot(slot []byte) error {
	if len(slot) < FrameSlotSize {
		return errors.Errorf("frame slot is %d bytes, need %d", len(slot), FrameSlotSize)
	}
	if f.Len() > MaxFrameBody {
		return errors.Errorf("frame lengths sum to %d, over %d", f.Len(), MaxFrameBody)
	}
	var buf bytes.Buffer
	if err := struc.Pack(&buf, f); err != nil {
		return errors.Wrap(err, "pack frame")
	}
	copy(slot, buf.Bytes())
	return nil
}

// UnpackSlot reads a frame out of a ring slot.
func UnpackSlot(slot []byte) (*RadioFrame, error) {
	if len(slot) < FrameSlotSize {
		return nil, errors.Errorf("frame slot is %d bytes, need %d", len(slot), FrameSlotSize)
	}
	var f RadioFrame
	if err := struc.Unpack(bytes.NewReader(slot[:FrameSlotSize]), &f); err != nil {
		return nil, errors.Wrap(err, "unpack frame")
	}
	if f.Len() > MaxFrameBody {
		return nil, errors.Errorf("corrupt frame: lengths sum to %d", f.Len())
	}
	return &f, nil
}

// RingSize is the byte size of a receive ring with the given number of slots.
func RingSize(slots int) int {
	return RingHeaderSize + slots*FrameSlotSize
}
