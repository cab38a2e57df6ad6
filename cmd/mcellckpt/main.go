// Command mcellckpt runs particle reaction-diffusion simulations with
// resumable checkpoints and inspects, verifies and prunes checkpoint files.
package main

import (
	"fmt"
	"os"

	"github.com/yndnr/mcellckpt-go/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
