package main

import (
	"os"

	"github.com/sitepack/sitepack/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
