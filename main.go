package main

import (
	"os"

	"github.com/awaizkhanmd/Automation/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
