// Package cmd implements the plinth command line.
package cmd

import (
	"io"
	"log"
	"os"

	"github.com/jessevdk/go-flags"
)

type GlobalOptions struct {
	Verbose bool `short:"v" long:"verbose" description:"Log pipeline stages to stderr"`
}

var globalOpts = GlobalOptions{}
var parser = flags.NewParser(&globalOpts, flags.HelpFlag|flags.PassDoubleDash)

// Run parses os.Args and executes the selected command.
func Run() error {
	_, err := parser.Parse()
	if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
		parser.WriteHelp(os.Stdout)
		return nil
	}
	return err
}

// Logger returns the pipeline logger; it discards output unless verbose.
func (g *GlobalOptions) Logger() *log.Logger {
	if g.Verbose {
		return log.New(os.Stderr, "", log.LstdFlags)
	}
	return log.New(io.Discard, "", 0)
}
