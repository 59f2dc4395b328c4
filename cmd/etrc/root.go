package main

import (
	"fmt"
	"io"
	"log"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffval"
)

type rootConfig struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	logLevel string
	maxLines int

	info, debug, warn *log.Logger
}

func (cfg *rootConfig) registerBaseFlags(fs *ff.FlagSet) {
	fs.AddFlag(ff.FlagConfig{ShortName: 'l', LongName: "log" /* */, Value: ffval.NewEnum(&cfg.logLevel, "info", "i", "debug", "d", "none", "n") /* */, Usage: "log level: i/info, d/debug, n/none", Placeholder: "LEVEL"})
}

func (cfg *rootConfig) registerReadFlags(fs *ff.FlagSet) {
	fs.AddFlag(ff.FlagConfig{ShortName: 'm', LongName: "max" /* */, Value: ffval.NewValue(&cfg.maxLines) /* */, Usage: "maximum number of lines to read from each file (0 for all)", Placeholder: "N"})
}

// singleFile returns the only positional argument, which must be a filename.
func singleFile(args []string) (string, error) {
	switch len(args) {
	case 0:
		return "", fmt.Errorf("trace file is required")
	case 1:
		return args[0], nil
	default:
		return "", fmt.Errorf("exactly one trace file is required, have %d", len(args))
	}
}
