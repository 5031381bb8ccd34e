package main

import (
	"os"

	"github.com/smoltrace/smoltrace/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
