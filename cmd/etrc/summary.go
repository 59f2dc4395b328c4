package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/peterbourgon/etrc/etrcstat"
	"github.com/peterbourgon/etrc/internal/etrcutil"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffval"
)

type summaryConfig struct {
	*rootConfig

	output string
}

func (cfg *summaryConfig) register(fs *ff.FlagSet) {
	fs.AddFlag(ff.FlagConfig{ShortName: 'o', LongName: "output" /* */, Value: ffval.NewEnum(&cfg.output, "text", "ndjson", "prettyjson") /* */, Usage: "output format: text, ndjson, prettyjson", Placeholder: "FORMAT"})
}

type fileSummary struct {
	File      string             `json:"file"`
	Events    int                `json:"events"`
	Summaries []etrcstat.Summary `json:"summaries"`
}

func (cfg *summaryConfig) Exec(ctx context.Context, args []string) error {
	if len(args) <= 0 {
		return fmt.Errorf("at least one trace file is required")
	}

	cfg.debug.Printf("reading %d file(s), max lines %d", len(args), cfg.maxLines)

	results, err := etrcstat.ReadFiles(ctx, cfg.maxLines, args...)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	for i, events := range results {
		fs := fileSummary{
			File:      args[i],
			Events:    len(events),
			Summaries: etrcstat.Summarize(events),
		}

		cfg.debug.Printf("%s: %d event(s), %d name(s)", fs.File, fs.Events, len(fs.Summaries))

		if err := cfg.writeSummary(fs, len(results) > 1); err != nil {
			return fmt.Errorf("%s: %w", fs.File, err)
		}
	}

	return nil
}

func (cfg *summaryConfig) writeSummary(fs fileSummary, header bool) error {
	switch cfg.output {
	case "ndjson", "prettyjson":
		enc := json.NewEncoder(cfg.stdout)
		if cfg.output == "prettyjson" {
			enc.SetIndent("", "    ")
		}
		if err := enc.Encode(fs); err != nil {
			return fmt.Errorf("marshal summary: %w", err)
		}
		return nil
	}

	if header {
		fmt.Fprintf(cfg.stdout, "%s (%d events)\n", fs.File, fs.Events)
	}

	h := etrcutil.HumanizeDuration
	tw := tabwriter.NewWriter(cfg.stdout, 0, 2, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "NAME\tCOUNT\tTOTAL\tMIN\tMEAN\tMEDIAN\tP90\tP99\tMAX\t\n")
	for _, s := range fs.Summaries {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n", s.Name, s.Count, h(s.Total), h(s.Min), h(s.Mean), h(s.Median), h(s.P90), h(s.P99), h(s.Max))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if header {
		fmt.Fprintln(cfg.stdout)
	}

	return nil
}
