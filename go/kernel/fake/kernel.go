package fake

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"

	"github.com/lunixbochs/tockcorn/go/kernel/common"
	"github.com/lunixbochs/tockcorn/go/models"
)

type upcallID struct {
	driverNum    uint32
	subscribeNum uint32
}

// Upcall is a registered (function, data) pair as the kernel stores it.
type Upcall struct {
	Fn   models.Register
	Data models.Register
}

// Null upcalls are never queued.
func (u Upcall) Null() bool {
	return !u.Fn.HasPointer()
}

type upcallEntry struct {
	id     upcallID
	args   [3]uint32
	upcall Upcall
}

type driverEntry struct {
	driver  common.Driver
	info    common.DriverInfo
	upcalls map[uint32]Upcall
}

var live struct {
	sync.Mutex
	kernel *Kernel
}

// Kernel simulates the kernel side of the syscall ABI for one process.
// It implements models.RawSyscalls; wrap it with platform.New to get typed
// syscalls. Only one Kernel may be live at a time.
type Kernel struct {
	config *models.Config
	log    hclog.Logger

	drivers  map[uint32]*driverEntry
	allowDb  AllowDb
	upcalls  []upcallEntry
	expected []ExpectedSyscall
	calls    []SyscallLogEntry
	memory   memory
	idle     func()

	closed bool
}

// NewKernel creates the live kernel. It panics if another kernel has not been
// closed yet, since that kernel's shares would otherwise leak into this one.
func NewKernel(config *models.Config) *Kernel {
	if config == nil {
		config = &models.Config{}
	}
	config.Init()
	k := &Kernel{
		config:  config,
		log:     config.Logger.Named("kernel"),
		drivers: make(map[uint32]*driverEntry),
	}
	k.memory.init(config)

	live.Lock()
	defer live.Unlock()
	if live.kernel != nil {
		panic("fake.NewKernel: another kernel is still live; Close it first")
	}
	live.kernel = k
	return k
}

// AddDriver attaches a driver and calls its Register method.
func (k *Kernel) AddDriver(driver common.Driver) {
	k.checkLive()
	info := driver.Info()
	if _, ok := k.drivers[info.DriverNum]; ok {
		panic(fmt.Sprintf("driver number %#x is already registered", info.DriverNum))
	}
	k.drivers[info.DriverNum] = &driverEntry{
		driver:  driver,
		info:    info,
		upcalls: make(map[uint32]Upcall),
	}
	driver.Register(common.NewShareRef(k, info.DriverNum))
	k.log.Debug("driver attached", "driver", hclog.Fmt("%#x", info.DriverNum), "upcalls", info.NumUpcalls)
}

// SetIdleHook installs fn to run whenever yield-wait finds no queued upcall.
// It stands in for the outside world while the process is blocked, e.g. a
// driver test hook delivering a frame. Pass nil to remove it.
func (k *Kernel) SetIdleHook(fn func()) {
	k.idle = fn
}

func (k *Kernel) AddExpectedSyscall(e ExpectedSyscall) {
	k.checkLive()
	k.expected = append(k.expected, e)
}

// TakeSyscallLog returns every syscall made since the last call.
func (k *Kernel) TakeSyscallLog() []SyscallLogEntry {
	calls := k.calls
	k.calls = nil
	return calls
}

// ExpectedSyscalls returns the scripted syscalls that have not happened yet.
func (k *Kernel) ExpectedSyscalls() []ExpectedSyscall {
	return append([]ExpectedSyscall(nil), k.expected...)
}

// IsUpcallPending reports whether an upcall for (driver, subscribe) is queued.
func (k *Kernel) IsUpcallPending(driverNum, subscribeNum uint32) bool {
	id := upcallID{driverNum, subscribeNum}
	for _, e := range k.upcalls {
		if e.id == id {
			return true
		}
	}
	return false
}

func (k *Kernel) PendingUpcalls() int {
	return len(k.upcalls)
}

func (k *Kernel) AllowDb() *AllowDb {
	return &k.allowDb
}

// ScheduleUpcall implements common.UpcallScheduler.
func (k *Kernel) ScheduleUpcall(driverNum, subscribeNum uint32, args [3]uint32) error {
	if k.closed {
		return common.ErrNoKernel
	}
	entry, ok := k.drivers[driverNum]
	if !ok {
		return errors.Errorf("driver %#x is not registered", driverNum)
	}
	if subscribeNum >= entry.info.NumUpcalls {
		return &common.OutOfRangeError{DriverNum: driverNum, SubscribeNum: subscribeNum, NumUpcalls: entry.info.NumUpcalls}
	}
	upcall, ok := entry.upcalls[subscribeNum]
	if !ok || upcall.Null() {
		return nil
	}
	k.upcalls = append(k.upcalls, upcallEntry{
		id:     upcallID{driverNum, subscribeNum},
		args:   args,
		upcall: upcall,
	})
	k.log.Debug("upcall queued", "driver", hclog.Fmt("%#x", driverNum), "subscribe", subscribeNum,
		"args", hclog.Fmt("%#x", args), "pending", len(k.upcalls))
	return nil
}

func (k *Kernel) checkLive() {
	if k.closed {
		panic("fake kernel used after Close")
	}
}

// LeakError lists what was still shared with the kernel when it was closed.
type LeakError struct {
	Leases        []string
	Subscriptions []string
	Expected      []string
}

func (e *LeakError) Error() string {
	var parts []string
	if len(e.Leases) > 0 {
		parts = append(parts, "active allow buffers: "+strings.Join(e.Leases, ", "))
	}
	if len(e.Subscriptions) > 0 {
		parts = append(parts, "live subscriptions: "+strings.Join(e.Subscriptions, ", "))
	}
	if len(e.Expected) > 0 {
		parts = append(parts, "unconsumed expected syscalls: "+strings.Join(e.Expected, ", "))
	}
	return "kernel closed with leaks: " + strings.Join(parts, "; ")
}

// Close tears the kernel down and frees the live slot. It reports any lease,
// subscription or expected syscall left behind; those are test bugs.
func (k *Kernel) Close() error {
	if k.closed {
		return nil
	}
	var leak LeakError
	for _, l := range k.allowDb.leases {
		leak.Leases = append(leak.Leases, l.String())
	}
	for num, entry := range k.drivers {
		for sub, upcall := range entry.upcalls {
			if !upcall.Null() {
				leak.Subscriptions = append(leak.Subscriptions, fmt.Sprintf("%#x/%d", num, sub))
			}
		}
	}
	sort.Strings(leak.Subscriptions)
	for _, e := range k.expected {
		leak.Expected = append(leak.Expected, e.String())
	}
	k.closed = true
	k.upcalls = nil

	live.Lock()
	if live.kernel == k {
		live.kernel = nil
	}
	live.Unlock()

	if len(leak.Leases)+len(leak.Subscriptions)+len(leak.Expected) > 0 {
		return &leak
	}
	return nil
}
