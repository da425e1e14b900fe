package main

import (
	"os"

	"erate-tracker/cmd/onboard/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
