package main

import (
	"os"

	"github.com/sujine/balancer-sdk/cmd/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
