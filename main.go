package main

import (
	"fmt"
	"os"

	"github.com/sst/modforge/cmd"
	"github.com/sst/modforge/internal/logging"
)

func main() {
	defer logging.RecoverPanic("main", func() {
		fmt.Fprintln(os.Stderr, "modforge terminated due to an unhandled panic")
		os.Exit(2)
	})

	cmd.Execute()
}
