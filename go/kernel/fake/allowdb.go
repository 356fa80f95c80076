package fake

import (
	"fmt"
	"sort"
	"strings"
	"unsafe"

	"github.com/lunixbochs/tockcorn/go/kernel/common"
	"github.com/lunixbochs/tockcorn/go/models"
)

type OverlapError struct {
	Addr, Len             uintptr
	ActiveAddr, ActiveLen uintptr
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("buffer 0x%x-0x%x overlaps active buffer 0x%x-0x%x",
		e.Addr, e.Addr+e.Len, e.ActiveAddr, e.ActiveAddr+e.ActiveLen)
}

type lease struct {
	addr uintptr
	ptr  unsafe.Pointer
	len  uintptr
	rw   bool
}

func (l *lease) end() uintptr { return l.addr + l.len }

func (l *lease) String() string {
	kind := "ro"
	if l.rw {
		kind = "rw"
	}
	return fmt.Sprintf("0x%x-0x%x %s", l.addr, l.end(), kind)
}

func (l *lease) register() models.Register {
	if l.ptr != nil {
		return models.RegPtr(l.ptr)
	}
	return models.RegUsize(l.addr)
}

// AllowDb tracks every active non-empty lease. Leases never overlap, so
// sorting by start address also sorts them by end address, and the only
// lease that can intersect a new range [a, b) is the one with the greatest
// start below b.
type AllowDb struct {
	leases []*lease
}

func (db *AllowDb) insert(addr models.Register, length int, rw bool) error {
	if length == 0 {
		return nil
	}
	if length < 0 {
		panic(fmt.Sprintf("negative buffer length %d", length))
	}
	l := &lease{addr: addr.AsUsize(), ptr: addr.Pointer(), len: uintptr(length), rw: rw}
	if l.end() < l.addr {
		panic(fmt.Sprintf("buffer 0x%x+%d wraps the address space", l.addr, length))
	}
	// first lease starting at or after our end
	i := sort.Search(len(db.leases), func(i int) bool {
		return db.leases[i].addr >= l.end()
	})
	if i > 0 {
		prev := db.leases[i-1]
		if prev.end() > l.addr {
			return &OverlapError{Addr: l.addr, Len: l.len, ActiveAddr: prev.addr, ActiveLen: prev.len}
		}
	}
	db.leases = append(db.leases, nil)
	copy(db.leases[i+1:], db.leases[i:])
	db.leases[i] = l
	return nil
}

func (db *AllowDb) remove(addr models.Register, length int) (models.Register, int) {
	if length == 0 {
		return addr, 0
	}
	start := addr.AsUsize()
	i := sort.Search(len(db.leases), func(i int) bool {
		return db.leases[i].addr >= start
	})
	if i >= len(db.leases) || db.leases[i].addr != start || db.leases[i].len != uintptr(length) {
		panic(fmt.Sprintf("removing untracked buffer 0x%x+%d", start, length))
	}
	l := db.leases[i]
	db.leases = append(db.leases[:i], db.leases[i+1:]...)
	return l.register(), int(l.len)
}

// InsertRO starts tracking a read-only lease. It fails if the range
// intersects any active lease, read-only or read-write.
func (db *AllowDb) InsertRO(addr models.Register, length int) (common.RoAllowBuffer, error) {
	if err := db.insert(addr, length, false); err != nil {
		return common.RoAllowBuffer{}, err
	}
	return common.NewRoAllowBuffer(addr, length), nil
}

func (db *AllowDb) InsertRW(addr models.Register, length int) (common.RwAllowBuffer, error) {
	if err := db.insert(addr, length, true); err != nil {
		return common.RwAllowBuffer{}, err
	}
	return common.NewRwAllowBuffer(addr, length), nil
}

// RemoveRO stops tracking buf and hands back the address and length it was
// inserted with.
func (db *AllowDb) RemoveRO(buf common.RoAllowBuffer) (models.Register, int) {
	return db.remove(buf.Addr(), buf.Len())
}

func (db *AllowDb) RemoveRW(buf common.RwAllowBuffer) (models.Register, int) {
	return db.remove(buf.Addr(), buf.Len())
}

func (db *AllowDb) Len() int {
	return len(db.leases)
}

func (db *AllowDb) String() string {
	s := make([]string, len(db.leases))
	for i, l := range db.leases {
		s[i] = l.String()
	}
	return strings.Join(s, "\n")
}
