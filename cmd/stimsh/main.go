package main

import (
	"github.com/openfes/fes.go/pkg/cli/sh"

	_ "github.com/openfes/fes.go/pkg/cli/cmds/stim"
)

//go-build: CGO_ENABLED=0

func main() {
	sh.Main()
}
