package main

import (
	"os"

	"github.com/craftworksgmbh/gonavio/cmd/gonavio/model"
)

const ErrExitCode = 1

func main() {
	if err := model.NewGonavioCmd().Execute(); err != nil {
		os.Exit(ErrExitCode)
	}
}
