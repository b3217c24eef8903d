package main

import (
	"fmt"
	"os"

	"kubegems.io/modelsrv/cmd/modelsrv/command"
)

const ErrExitCode = 1

func main() {
	if err := command.NewModelsrvCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(ErrExitCode)
	}
}
