package main

import (
	"os"

	"github.com/morandi/jstore/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
