package scenario

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunixbochs/tockcorn/go/kernel/drivers/lowleveldebug"
	"github.com/lunixbochs/tockcorn/go/kernel/fake"
	"github.com/lunixbochs/tockcorn/go/models"
)

func runFile(t *testing.T, name string) (*Result, error) {
	t.Helper()
	s, err := Load(filepath.Join("testdata", name))
	require.NoError(t, err)
	return Run(s, nil)
}

func TestGpioRising(t *testing.T) {
	res, err := runFile(t, "gpio_rising.yaml")
	require.NoError(t, err)
	assert.Equal(t, "gpio rising edge", res.Name)
	assert.Nil(t, res.Exit)
}

func TestRadio(t *testing.T) {
	res, err := runFile(t, "radio.yaml")
	require.NoError(t, err)
	require.Len(t, res.Sent, 1)
	assert.Equal(t, "ping", string(res.Sent[0].Payload()))
	assert.Equal(t, "AB", string(res.Sent[0].Header()))
}

func TestConsoleAndExit(t *testing.T) {
	res, err := runFile(t, "console.yaml")
	require.NoError(t, err)
	assert.Equal(t, &fake.ExitCall{Code: 3}, res.Exit)
	// the step after exit never ran
	assert.Equal(t, 10, res.Steps)
	assert.Equal(t, "hi there\n", string(res.Console))
	assert.Equal(t, []lowleveldebug.Message{{Kind: lowleveldebug.KindPrint1, Arg0: 42}}, res.Debug)
}

func TestInjectedSyscalls(t *testing.T) {
	res, err := runFile(t, "inject.yaml")
	require.NoError(t, err)
	// the skipped subscribe is still logged
	assert.Equal(t, fake.LogSubscribe{DriverNum: 1, SubscribeNum: 2}, res.Syscalls[0])
}

func TestMismatchIsError(t *testing.T) {
	res, err := runFile(t, "mismatch.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 2: kernel panic")
	assert.Contains(t, err.Error(), "command id")
	assert.Equal(t, 2, res.Steps)
}

func TestMismatchWithLiveSubscription(t *testing.T) {
	s, err := ParseBytes([]byte(`drivers: {gpio: 2}
steps:
  - subscribe: {driver: 0x4, slot: 0}
  - inject: {kind: command, driver: 0x4, num: 1}
  - command: {driver: 0x4, id: 2}
`))
	require.NoError(t, err)
	_, err = Run(s, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 3: kernel panic")
	assert.Contains(t, err.Error(), "command id mismatch")
	// the subscription was still revoked, so Close found no leak
	assert.NotContains(t, err.Error(), "live subscriptions")
}

func TestRunLeavesConfigAlone(t *testing.T) {
	config := &models.Config{}
	s, err := ParseBytes([]byte(`memory: {start: 0x1000, size: 0x1000}
steps:
  - memop: {op: memory_start, expect: 0x1000}
`))
	require.NoError(t, err)
	_, err = Run(s, config)
	require.NoError(t, err)
	assert.Equal(t, &models.Config{}, config)

	res, err := runFile(t, "console.yaml")
	require.NoError(t, err)
	assert.Equal(t, 10, res.Steps)
}

func TestYieldWaitNothingQueued(t *testing.T) {
	s, err := ParseBytes([]byte("steps:\n  - yield: wait\n"))
	require.NoError(t, err)
	_, err = Run(s, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "block forever")
}

func TestStepErrors(t *testing.T) {
	tests := []struct {
		yaml string
		err  string
	}{
		{"steps:\n  - command: {driver: 0x99, id: 1, expect: {variant: success}}\n", "expected Success"},
		{"steps:\n  - expect_upcall: {driver: 1, slot: 0}\n", "none delivered"},
		{"steps:\n  - name: tx\n    transmit: {payload: x}\n", "step 1 (tx): no ieee802154 driver attached"},
		{"steps:\n  - memop: {op: grow}\n", "unknown memop"},
		{"steps:\n  - yield: sometimes\n", "unknown yield"},
		{"steps:\n  - unsubscribe: {driver: 1, slot: 0}\n", "no subscription"},
		{"steps:\n  - inject: {kind: exit}\n", "unknown syscall kind"},
	}
	for _, test := range tests {
		s, err := ParseBytes([]byte(test.yaml))
		require.NoError(t, err, test.yaml)
		_, err = Run(s, nil)
		if assert.Error(t, err, test.yaml) {
			assert.Contains(t, err.Error(), test.err)
		}
	}
}

func TestParseRejects(t *testing.T) {
	_, err := ParseBytes([]byte("steps:\n  - yield: wait\n    write: hi\n"))
	assert.ErrorContains(t, err, "2 actions")
	_, err = ParseBytes([]byte("steps:\n  - name: nothing\n"))
	assert.ErrorContains(t, err, "0 actions")
	_, err = ParseBytes([]byte("steps:\n  - yeild: wait\n"))
	assert.Error(t, err)
	_, err = ParseBytes([]byte("drivers: {uart: true}\n"))
	assert.Error(t, err)
}

func TestReturnOverride(t *testing.T) {
	r := Return{Variant: "failureu32", Error: "size", Values: []uint32{12}}
	ret, err := r.CommandReturn()
	require.NoError(t, err)
	assert.Equal(t, models.FailureU32(models.Size, 12), ret)
	assert.NoError(t, r.Check(ret))

	_, err = (&Return{Variant: "failure"}).CommandReturn()
	assert.Error(t, err)
	_, err = (&Return{Values: []uint32{1, 2, 3, 4}}).CommandReturn()
	assert.Error(t, err)

	ret, err = (&Return{}).CommandReturn()
	require.NoError(t, err)
	assert.Equal(t, models.Success(), ret)
	assert.Error(t, (&Return{Values: []uint32{1}}).Check(models.SuccessU32(2)))
}

func TestLoadNamesScenario(t *testing.T) {
	s, err := Load(filepath.Join("testdata", "mismatch.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "mismatched syscall", s.Name)
	assert.True(t, strings.HasPrefix(s.Steps[0].Inject.Kind, "command"))

	_, err = Load(filepath.Join("testdata", "missing.yaml"))
	assert.Error(t, err)
}
