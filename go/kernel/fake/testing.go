package fake

import (
	"testing"

	"github.com/lunixbochs/tockcorn/go/models"
)

// NewTestKernel creates a kernel that is closed when t finishes. Leaks found
// at close fail the test.
func NewTestKernel(t testing.TB, config *models.Config) *Kernel {
	t.Helper()
	k := NewKernel(config)
	t.Cleanup(func() {
		if err := k.Close(); err != nil {
			t.Error(err)
		}
	})
	return k
}
