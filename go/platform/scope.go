package platform

import (
	"runtime"
	"unsafe"

	"github.com/pkg/errors"

	"github.com/lunixbochs/tockcorn/go/models"
)

// A share is something the kernel holds on our behalf until it is revoked.
type share interface {
	revoke()
	live() bool
}

// Scope owns every share created inside a Syscalls.Scope call. When the call
// returns (normally, with an error, or by panic) each live share is revoked,
// newest first, before the scope's buffers and upcalls are released.
type Scope struct {
	sys    *Syscalls
	shares []share
	subs   map[[2]uint32]*Subscription
	closed bool
}

// Scope runs fn with a fresh sharing scope.
func (s *Syscalls) Scope(fn func(sc *Scope) error) error {
	sc := &Scope{sys: s, subs: make(map[[2]uint32]*Subscription)}
	defer sc.close()
	return fn(sc)
}

func (sc *Scope) check() {
	if sc.closed {
		panic(errors.New("share scope used after it was closed"))
	}
}

// close revokes every live share even if one revocation panics; the first
// such panic is raised again once the rest are done.
func (sc *Scope) close() {
	var failed interface{}
	for i := len(sc.shares) - 1; i >= 0; i-- {
		if sh := sc.shares[i]; sh.live() {
			if p := tryRevoke(sh); p != nil && failed == nil {
				failed = p
			}
		}
	}
	sc.shares = nil
	sc.subs = nil
	sc.closed = true
	if failed != nil {
		panic(failed)
	}
}

func tryRevoke(sh share) (p interface{}) {
	defer func() { p = recover() }()
	sh.revoke()
	return nil
}

// Live reports how many shares of this scope the kernel currently holds.
func (sc *Scope) Live() int {
	n := 0
	for _, sh := range sc.shares {
		if sh.live() {
			n++
		}
	}
	return n
}

// Subscription is a registered upcall. It is Shared from a successful
// Subscribe until Unsubscribe or the end of its scope.
type Subscription struct {
	sc     *Scope
	driver uint32
	slot   uint32
	box    *upcallBox
	shared bool
}

func (s *Subscription) live() bool { return s.shared }

func (s *Subscription) revoke() {
	r := s.sc.sys.Raw.Syscall4(models.ClassSubscribe, [4]models.Register{
		models.RegU32(s.driver), models.RegU32(s.slot), {}, {},
	})
	if variant := models.ReturnVariant(r[0].AsU32()); variant != models.VariantSuccess2U32 {
		// the kernel may still call into s.box; nothing safe is left to do
		panic(errors.Errorf("unsubscribe(%#x, %d) failed: %s(%d)", s.driver, s.slot, variant, r[1].AsU32()))
	}
	s.shared = false
	runtime.KeepAlive(s.box)
	s.box = nil
}

// Unsubscribe revokes the subscription early. It is a no-op if the
// subscription is already revoked.
func (s *Subscription) Unsubscribe() {
	if s.shared {
		s.revoke()
	}
}

func (s *Subscription) Driver() uint32 { return s.driver }
func (s *Subscription) Slot() uint32   { return s.slot }
func (s *Subscription) Shared() bool   { return s.shared }

// Subscribe registers upcall for (driver, slot). Subscribing the same slot
// again in the same scope replaces the upcall on the existing Subscription.
func (sc *Scope) Subscribe(driver, slot uint32, upcall Upcall) (*Subscription, error) {
	sc.check()
	id := [2]uint32{driver, slot}
	sub, ok := sc.subs[id]
	if !ok {
		sub = &Subscription{sc: sc, driver: driver, slot: slot}
	}
	box := &upcallBox{upcall: upcall}
	r := sc.sys.Raw.Syscall4(models.ClassSubscribe, [4]models.Register{
		models.RegU32(driver), models.RegU32(slot), kernelUpcallReg, models.RegPtr(unsafe.Pointer(box)),
	})
	switch variant := models.ReturnVariant(r[0].AsU32()); variant {
	case models.VariantSuccess2U32:
	case models.VariantFailure2U32:
		// a failed subscribe leaves any previous upcall in place
		return sub, models.NewCommandReturn(variant, r[1].AsU32(), 0, 0).Err()
	default:
		return sub, models.BadRVal
	}
	old := sub.box
	sub.box = box
	runtime.KeepAlive(old)
	if !ok {
		sc.subs[id] = sub
		sc.shares = append(sc.shares, sub)
	}
	sub.shared = true
	return sub, nil
}

type allow struct {
	sc     *Scope
	class  models.SyscallClass
	driver uint32
	slot   uint32
	buf    []byte
	shared bool
}

func (a *allow) live() bool { return a.shared }

func (a *allow) revoke() {
	r := a.sc.sys.Raw.Syscall4(a.class, [4]models.Register{
		models.RegU32(a.driver), models.RegU32(a.slot), {}, models.RegUsize(0),
	})
	if variant := models.ReturnVariant(r[0].AsU32()); variant != models.VariantSuccess2U32 {
		panic(errors.Errorf("%s unallow(%#x, %d) failed: %s(%d)", a.class, a.driver, a.slot, variant, r[1].AsU32()))
	}
	a.shared = false
	runtime.KeepAlive(a.buf)
	a.buf = nil
}

func (sc *Scope) allow(class models.SyscallClass, driver, slot uint32, buf []byte) (*allow, error) {
	sc.check()
	a := &allow{sc: sc, class: class, driver: driver, slot: slot, buf: buf}
	var addr models.Register
	if len(buf) > 0 {
		addr = models.RegPtr(unsafe.Pointer(unsafe.SliceData(buf)))
	}
	r := sc.sys.Raw.Syscall4(class, [4]models.Register{
		models.RegU32(driver), models.RegU32(slot), addr, models.RegUsize(uintptr(len(buf))),
	})
	switch variant := models.ReturnVariant(r[0].AsU32()); variant {
	case models.VariantSuccess2U32:
	case models.VariantFailure2U32:
		return a, models.NewCommandReturn(variant, r[1].AsU32(), 0, 0).Err()
	default:
		return a, models.BadRVal
	}
	a.shared = true
	sc.shares = append(sc.shares, a)
	return a, nil
}

// AllowRO lends buf to the kernel read-only.
type AllowRO struct{ *allow }

// AllowRW lends buf to the kernel read-write. The caller must not touch buf
// until the share is revoked.
type AllowRW struct{ *allow }

// Revoke returns the buffer early. It is a no-op if already revoked.
func (a *allow) Revoke() {
	if a.shared {
		a.revoke()
	}
}

func (a *allow) Shared() bool { return a.shared }

func (sc *Scope) AllowRO(driver, slot uint32, buf []byte) (AllowRO, error) {
	a, err := sc.allow(models.ClassAllowRO, driver, slot, buf)
	return AllowRO{a}, err
}

func (sc *Scope) AllowRW(driver, slot uint32, buf []byte) (AllowRW, error) {
	a, err := sc.allow(models.ClassAllowRW, driver, slot, buf)
	return AllowRW{a}, err
}
