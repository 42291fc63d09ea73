package main

import (
	"os"

	"github.com/qiniu/tfplan-comment/internal/actions"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		actions.NewCommands(os.Stdout, nil).Errorf("%s", err.Error())
		os.Exit(1)
	}
}
