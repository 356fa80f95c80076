package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/lunixbochs/tockcorn/go/models"
)

var flags struct {
	trace   bool
	verbose bool
	json    bool
}

// AddConfigFlags registers the flags NewConfig reads.
func AddConfigFlags(c *cobra.Command) {
	fs := c.PersistentFlags()
	fs.BoolVar(&flags.trace, "strace", false, "trace syscalls")
	fs.BoolVarP(&flags.verbose, "verbose", "v", false, "log driver and upcall activity")
	fs.BoolVar(&flags.json, "json-log", false, "log as JSON")
}

// NewConfig builds a kernel config from the command line flags.
func NewConfig(out io.Writer) *models.Config {
	config := &models.Config{TraceSyscalls: flags.trace, Verbose: flags.verbose}
	if flags.trace || flags.verbose {
		level := hclog.Debug
		if flags.trace {
			level = hclog.Trace
		}
		config.Logger = hclog.New(&hclog.LoggerOptions{
			Name:       "tocksim",
			Level:      level,
			Output:     out,
			JSONFormat: flags.json,
		})
	}
	return config.Init()
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// PrintError prints an error, and a stacktrace if available.
func PrintError(err error) {
	fprintError(os.Stderr, err)
}

func fprintError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s\n", strings.Repeat("-", 40))
	fmt.Fprintf(w, "Error: %s\n", err)
	st, ok := err.(stackTracer)
	if !ok {
		// wrapped errors carry the stack of the innermost errors.New
		if cause, ok := errors.Cause(err).(stackTracer); ok {
			st = cause
		}
	}
	if st == nil {
		return
	}
	// parse full path and method name for each stack frame
	var frames [][]string
	for _, f := range st.StackTrace() {
		fullpath := ""
		fileline := fmt.Sprintf("%s:%d", f, f)
		method := fmt.Sprintf("%n", f)

		frame := fmt.Sprintf("%+s", f)
		tmp := strings.SplitN(frame, "\n", 3)
		if len(tmp) == 2 {
			pathsplit := strings.Split(tmp[0], "/")
			method = pathsplit[len(pathsplit)-1]
			fullpath = strings.TrimSpace(tmp[1])
		}
		frames = append(frames, []string{fullpath, fileline, method})
		if method == "main.main" {
			break
		}
	}
	// calculate column widths
	widths := make([]int, 3)
	for _, f := range frames {
		for i, s := range f {
			if len(s) > widths[i] {
				widths[i] = len(s)
			}
		}
	}
	for _, f := range frames {
		for i := 0; i < 2; i++ {
			if widths[i] > 0 {
				pad := strings.Repeat(" ", widths[i]-len(f[i]))
				fmt.Fprintf(w, "%s%s | ", f[i], pad)
			}
		}
		fmt.Fprintf(w, "%s()\n", f[2])
	}
}
