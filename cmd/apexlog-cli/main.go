package main

import (
	"os"

	"github.com/apexlog-tools/apexlog/cmd/apexlog-cli/cmd"
)

func main() {
	if err := cmd.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
