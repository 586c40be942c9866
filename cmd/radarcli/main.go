package main

import (
	"github.com/robotalks/radariq.go/pkg/cli/sh"
	"github.com/robotalks/radariq.go/pkg/env"

	_ "github.com/robotalks/radariq.go/pkg/cli/cmds/radariq"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
