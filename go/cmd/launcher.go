package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var commands []*cobra.Command

// Register adds a subcommand. Subcommand packages call it from init and are
// linked in by blank imports in main.
func Register(c *cobra.Command) {
	commands = append(commands, c)
}

func NewRoot() *cobra.Command {
	root := &cobra.Command{
		Use:           "tocksim",
		Short:         "drive simulated kernel drivers through the syscall ABI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	AddConfigFlags(root)
	for _, c := range commands {
		root.AddCommand(c)
	}
	return root
}

func Main() {
	if err := NewRoot().Execute(); err != nil {
		PrintError(err)
		os.Exit(1)
	}
}
