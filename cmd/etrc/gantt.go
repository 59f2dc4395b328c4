package main

import (
	"context"
	"fmt"

	"github.com/peterbourgon/etrc/etrcstat"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffval"
)

type ganttConfig struct {
	*rootConfig

	width int
}

func (cfg *ganttConfig) register(fs *ff.FlagSet) {
	fs.AddFlag(ff.FlagConfig{ShortName: 'w', LongName: "width" /* */, Value: ffval.NewValue(&cfg.width) /* */, Usage: "timeline width in characters (0 to fit the terminal)"})
}

func (cfg *ganttConfig) Exec(ctx context.Context, args []string) error {
	filename, err := singleFile(args)
	if err != nil {
		return err
	}

	events, err := etrcstat.ReadFile(filename, cfg.maxLines)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	g := etrcstat.NewGantt(events)
	cfg.debug.Printf("%s: %d event(s), %d lane(s), span %s", filename, len(events), len(g.Lanes), g.Span())

	width := cfg.width
	if width <= 0 {
		width = 80
		if cols, ok := terminalWidth(cfg.stdout); ok {
			width = cols - labelWidth(g) - 12 // label, borders, count
		}
		if width < 20 {
			width = 20
		}
		cfg.debug.Printf("timeline width %d", width)
	}

	return g.WriteText(cfg.stdout, width)
}

func labelWidth(g *etrcstat.Gantt) int {
	var n int
	for _, lane := range g.Lanes {
		if len(lane.Name) > n {
			n = len(lane.Name)
		}
	}
	return n
}
