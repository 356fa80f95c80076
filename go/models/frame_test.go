package models

import (
	"bytes"
	"testing"
)

func TestRadioFrameSlot(t *testing.T) {
	f, err := NewRadioFrame([]byte{0x41, 0x88}, []byte("hello"), []byte{1, 2, 3, 4})
	if err != nil {
		t.Fatal(err)
	}
	slot := make([]byte, FrameSlotSize)
	if err := f.PackSlot(slot); err != nil {
		t.Fatal(err)
	}
	if slot[0] != 2 || slot[1] != 5 || slot[2] != 4 {
		t.Fatalf("length bytes = % x", slot[:3])
	}
	got, err := UnpackSlot(slot)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got.Header(), []byte{0x41, 0x88}) || string(got.Payload()) != "hello" || !bytes.Equal(got.Mic(), []byte{1, 2, 3, 4}) {
		t.Fatalf("unpacked %x / %q / %x", got.Header(), got.Payload(), got.Mic())
	}
}

func TestRadioFrameLimits(t *testing.T) {
	if _, err := NewRadioFrame(nil, make([]byte, MaxFrameBody+1), nil); err == nil {
		t.Fatal("oversized frame accepted")
	}
	if err := (&RadioFrame{}).PackSlot(make([]byte, FrameSlotSize-1)); err == nil {
		t.Fatal("short slot accepted")
	}
	corrupt := make([]byte, FrameSlotSize)
	corrupt[0], corrupt[1] = 100, 100
	if _, err := UnpackSlot(corrupt); err == nil {
		t.Fatal("corrupt lengths accepted")
	}
	if RingSize(4) != 2+4*130 {
		t.Fatalf("RingSize(4) = %d", RingSize(4))
	}
}
