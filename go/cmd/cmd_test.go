package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestPrintErrorStack(t *testing.T) {
	var buf bytes.Buffer
	fprintError(&buf, errors.Wrap(errors.New("boom"), "step 1"))
	out := buf.String()
	assert.Contains(t, out, "Error: step 1: boom\n")
	assert.Contains(t, out, "cmd_test.go:")
	assert.Contains(t, out, "TestPrintErrorStack()")
}

func TestPrintErrorPlain(t *testing.T) {
	var buf bytes.Buffer
	fprintError(&buf, plainError("no stack"))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{strings.Repeat("-", 40), "Error: no stack"}, lines)
}

type plainError string

func (e plainError) Error() string { return string(e) }

func TestRootCommands(t *testing.T) {
	root := NewRoot()
	assert.Equal(t, "tocksim", root.Use)
	assert.NotNil(t, root.PersistentFlags().Lookup("strace"))
	assert.NotNil(t, root.PersistentFlags().Lookup("json-log"))
}
