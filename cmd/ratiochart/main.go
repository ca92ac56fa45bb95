package main

import (
	"os"

	"github.com/aman-zulfiqar/token-ratio-chart/cmd/ratiochart/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
