package main

import (
	"github.com/Evsless/hab/pkg/cli/sh"
	"github.com/Evsless/hab/pkg/hab"

	_ "github.com/Evsless/hab/pkg/cli/cmds/cfg"
	_ "github.com/Evsless/hab/pkg/cli/cmds/sample"
)

//go-build: CGO_ENABLED=0

func init() {
	hab.SetupFlags()
}

func main() {
	sh.Main()
}
