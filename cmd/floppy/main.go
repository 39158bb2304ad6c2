// Command floppy decodes and encodes raw floppy track captures.
package main

import (
	"fmt"
	"os"

	cli "gopkg.in/urfave/cli.v1"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "floppy:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	e := &env{}
	app := cli.NewApp()
	app.Name = "floppy"
	app.Usage = "decode and encode raw floppy track captures"
	app.Version = "0.1.0"
	app.Writer = os.Stdout
	app.Flags = globalFlags()
	app.Before = e.setup
	app.After = e.close
	app.Commands = []cli.Command{
		formatsCommand(),
		decodeCommand(e),
		encodeCommand(e),
		histogramCommand(e),
	}
	return app
}
