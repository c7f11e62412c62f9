package main

import (
	"os"

	"github.com/ogurasousui/codex-timesheet/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
