package run

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/lunixbochs/tockcorn/go/cmd"
	"github.com/lunixbochs/tockcorn/go/scenario"
)

var showLog bool

func printResult(w io.Writer, res *scenario.Result) {
	fmt.Fprintf(w, "%s: %d steps", res.Name, res.Steps)
	if res.Exit != nil {
		fmt.Fprintf(w, ", %s", res.Exit)
	}
	fmt.Fprintln(w)
	if showLog {
		for _, call := range res.Syscalls {
			fmt.Fprintf(w, "  %s\n", call)
		}
	}
	for _, m := range res.Debug {
		fmt.Fprintf(w, "  %s\n", m)
	}
	if len(res.Console) > 0 {
		fmt.Fprintf(w, "  console: %q\n", res.Console)
	}
	for _, f := range res.Sent {
		fmt.Fprintf(w, "  sent: header=%x payload=%q\n", f.Header(), f.Payload())
	}
}

func Main(c *cobra.Command, args []string) error {
	out := c.OutOrStdout()
	failed := 0
	for _, path := range args {
		s, err := scenario.Load(path)
		if err != nil {
			return err
		}
		res, err := scenario.Run(s, cmd.NewConfig(c.ErrOrStderr()))
		if res != nil {
			printResult(out, res)
		}
		if err != nil {
			fmt.Fprintf(out, "  FAIL: %s\n", err)
			failed++
		}
	}
	if failed > 0 {
		return errors.Errorf("%d of %d scenarios failed", failed, len(args))
	}
	return nil
}

func init() {
	c := &cobra.Command{
		Use:   "run scenario.yaml...",
		Short: "run scenario files against the simulated kernel",
		Args:  cobra.MinimumNArgs(1),
		RunE:  Main,
	}
	c.Flags().BoolVar(&showLog, "log", false, "print the syscall log")
	cmd.Register(c)
}
