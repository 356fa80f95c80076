package main

import (
	"github.com/lunixbochs/tockcorn/go/cmd"

	_ "github.com/lunixbochs/tockcorn/go/cmd/drivers"
	_ "github.com/lunixbochs/tockcorn/go/cmd/run"
)

func main() { cmd.Main() }
