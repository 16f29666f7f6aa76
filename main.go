package main

import (
	"context"
	"os"

	"github.com/ekaya-inc/calibration-portal/cmd"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	if err := cmd.Execute(context.Background(), Version); err != nil {
		os.Exit(1)
	}
}
