package main

import (
	"context"
	"fmt"

	"github.com/peterbourgon/etrc/etrcstat"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffval"
)

type histConfig struct {
	*rootConfig

	name  string
	bins  int
	width int
}

func (cfg *histConfig) register(fs *ff.FlagSet) {
	fs.AddFlag(ff.FlagConfig{ShortName: 'n', LongName: "name" /*  */, Value: ffval.NewValue(&cfg.name) /*                               */, Usage: "traced name to plot (required)", NoDefault: true})
	fs.AddFlag(ff.FlagConfig{ShortName: 'b', LongName: "bins" /*  */, Value: ffval.NewValueDefault(&cfg.bins, etrcstat.DefaultBins) /* */, Usage: "number of histogram buckets"})
	fs.AddFlag(ff.FlagConfig{ShortName: 'w', LongName: "width" /* */, Value: ffval.NewValueDefault(&cfg.width, 50) /*                   */, Usage: "maximum bar width in characters"})
}

func (cfg *histConfig) Exec(ctx context.Context, args []string) error {
	filename, err := singleFile(args)
	if err != nil {
		return err
	}

	if cfg.name == "" {
		return fmt.Errorf("--name is required")
	}

	if cfg.bins <= 0 {
		return fmt.Errorf("invalid --bins %d", cfg.bins)
	}

	events, err := etrcstat.ReadFile(filename, cfg.maxLines)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	durations := etrcstat.Durations(events, cfg.name)
	cfg.debug.Printf("%s: %d event(s), %d named %q", filename, len(events), len(durations), cfg.name)
	if len(durations) <= 0 {
		cfg.info.Printf("no executions found for %q", cfg.name)
		return nil
	}

	fmt.Fprintf(cfg.stdout, "execution time histogram for %q (%d executions, log scale)\n", cfg.name, len(durations))
	return etrcstat.NewHistogram(durations, cfg.bins).WriteText(cfg.stdout, cfg.width)
}
