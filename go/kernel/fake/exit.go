package fake

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/lunixbochs/tockcorn/go/models"
)

// ExitCall is the panic value of an exit syscall. Exit never returns, so the
// simulator unwinds the test's call stack instead.
type ExitCall struct {
	Restart bool
	Code    uint32
}

func (e *ExitCall) Error() string {
	if e.Restart {
		return fmt.Sprintf("exit-restart(%d)", e.Code)
	}
	return fmt.Sprintf("exit-terminate(%d)", e.Code)
}

func (k *Kernel) exit(id, code uint32) {
	k.checkLive()
	switch id {
	case models.ExitTerminate:
		k.log.Debug("process exit", "restart", false, "code", code)
		panic(&ExitCall{Restart: false, Code: code})
	case models.ExitRestart:
		k.log.Debug("process exit", "restart", true, "code", code)
		panic(&ExitCall{Restart: true, Code: code})
	}
	panic(errors.Errorf("unknown exit id %d", id))
}

// CatchExit runs fn and returns the ExitCall it raised, or nil if fn
// returned normally. Other panics propagate.
func CatchExit(fn func()) (exit *ExitCall) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(*ExitCall); ok {
				exit = e
				return
			}
			panic(r)
		}
	}()
	fn()
	return nil
}
