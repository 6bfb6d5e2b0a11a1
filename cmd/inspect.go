package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/kr/pretty"
)

type CmdInspect struct {
	global *GlobalOptions
	out    io.Writer

	Layers bool `short:"l" long:"layers" description:"Print only the layer tree"`
}

func init() {
	_, err := parser.AddCommand("inspect",
		"Inspect a scene report",
		"Pretty-prints a scene report written by build --summary",
		&CmdInspect{global: &globalOpts, out: os.Stdout})
	if err != nil {
		panic(err)
	}
}

func (cmd CmdInspect) Usage() string {
	return "scene.json"
}

func (cmd CmdInspect) Execute(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("Report not specified, Usage: %s", cmd.Usage())
	}
	r, err := readReport(args[0])
	if err != nil {
		return fmt.Errorf("Failed to read report: %s", err.Error())
	}
	w := cmd.out
	if w == nil {
		w = os.Stdout
	}
	if cmd.Layers {
		for _, l := range r.Layers {
			fmt.Fprintf(w, "%s\t%s\n", l.FullPath, l.Color)
		}
		return nil
	}
	fmt.Fprintf(w, "%# v\n", pretty.Formatter(r))
	return nil
}
