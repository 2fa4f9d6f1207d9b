package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "polisher",
		Usage: "Polish an assembly and call variants from aligned reads",
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Run consensus and variant calling over a reference",
				Flags:  runFlags(),
				Action: run,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
