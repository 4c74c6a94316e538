// Command tokgate runs the tokgate web server and its administration
// commands.
package main

import (
	"fmt"
	"os"

	"github.com/yndnr/tokgate/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
