package drivers

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lunixbochs/tockcorn/go/cmd"
	"github.com/lunixbochs/tockcorn/go/kernel/common"
	"github.com/lunixbochs/tockcorn/go/kernel/drivers/console"
	"github.com/lunixbochs/tockcorn/go/kernel/drivers/gpio"
	"github.com/lunixbochs/tockcorn/go/kernel/drivers/ieee802154"
	"github.com/lunixbochs/tockcorn/go/kernel/drivers/lowleveldebug"
)

type baser interface {
	Base() *common.DriverBase
}

var simulated = []struct {
	name string
	new  func() common.Driver
}{
	{"console", func() common.Driver { return console.New() }},
	{"gpio", func() common.Driver { return gpio.New(1) }},
	{"lowleveldebug", func() common.Driver { return lowleveldebug.New() }},
	{"ieee802154", func() common.Driver { return ieee802154.New() }},
}

func describe(w io.Writer, name string, drv common.Driver) {
	info := drv.Info()
	fmt.Fprintf(w, "%s (%#x), %d upcalls\n", name, info.DriverNum, info.NumUpcalls)
	b, ok := drv.(baser)
	if !ok {
		return
	}
	cmds := b.Base().Commands
	ids := make([]int, 0, len(cmds))
	for id := range cmds {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	for _, id := range ids {
		c := cmds[uint32(id)]
		params := make([]string, len(c.In))
		for i, t := range c.In {
			params[i] = t.String()
		}
		fmt.Fprintf(w, "  %3d %s(%s)\n", id, c.Name, strings.Join(params, ", "))
	}
}

func Main(c *cobra.Command, args []string) error {
	for _, d := range simulated {
		describe(c.OutOrStdout(), d.name, d.new())
	}
	return nil
}

func init() {
	cmd.Register(&cobra.Command{
		Use:   "drivers",
		Short: "list simulated drivers and their command tables",
		Args:  cobra.NoArgs,
		RunE:  Main,
	})
}
