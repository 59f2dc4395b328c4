// etrc is a CLI tool for recording and analyzing etrc trace files.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/oklog/run"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
)

func main() {
	var (
		ctx    = context.Background()
		stdin  = os.Stdin
		stdout = os.Stdout
		stderr = os.Stderr
		args   = os.Args[1:]
	)
	err := exec(ctx, stdin, stdout, stderr, args)
	switch {
	case err == nil, errors.Is(err, context.Canceled), errors.As(err, &(run.SignalError{})):
		os.Exit(0)
	case err != nil:
		fmt.Fprintf(stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func exec(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args []string) (err error) {
	rootConfig := &rootConfig{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}

	rootFlags := ff.NewFlagSet("etrc")
	rootConfig.registerBaseFlags(rootFlags)

	readFlags := ff.NewFlagSet("read").SetParent(rootFlags)
	rootConfig.registerReadFlags(readFlags)

	rootCommand := &ff.Command{
		Name:      "etrc",
		ShortHelp: "record and analyze trace files",
		Flags:     rootFlags,
	}

	// Config for `etrc summary`.
	summaryConfig := &summaryConfig{rootConfig: rootConfig}
	summaryFlags := ff.NewFlagSet("summary").SetParent(readFlags)
	summaryConfig.register(summaryFlags)
	summaryCommand := &ff.Command{
		Name:      "summary",
		Usage:     "etrc summary [FLAGS] FILE [FILE...]",
		ShortHelp: "print execution time statistics per name",
		LongHelp:  "Read one or more trace files, and print count, total, and percentile execution times for every traced name.",
		Flags:     summaryFlags,
		Exec:      summaryConfig.Exec,
	}
	rootCommand.Subcommands = append(rootCommand.Subcommands, summaryCommand)

	// Config for `etrc hist`.
	histConfig := &histConfig{rootConfig: rootConfig}
	histFlags := ff.NewFlagSet("hist").SetParent(readFlags)
	histConfig.register(histFlags)
	histCommand := &ff.Command{
		Name:      "hist",
		Usage:     "etrc hist --name NAME [FLAGS] FILE",
		ShortHelp: "print a histogram of execution times for one name",
		Flags:     histFlags,
		Exec:      histConfig.Exec,
	}
	rootCommand.Subcommands = append(rootCommand.Subcommands, histCommand)

	// Config for `etrc gantt`.
	ganttConfig := &ganttConfig{rootConfig: rootConfig}
	ganttFlags := ff.NewFlagSet("gantt").SetParent(readFlags)
	ganttConfig.register(ganttFlags)
	ganttCommand := &ff.Command{
		Name:      "gantt",
		Usage:     "etrc gantt [FLAGS] FILE",
		ShortHelp: "print a timeline of traced executions",
		LongHelp:  "Print one lane per traced name, marking the time during which each name was executing.",
		Flags:     ganttFlags,
		Exec:      ganttConfig.Exec,
	}
	rootCommand.Subcommands = append(rootCommand.Subcommands, ganttCommand)

	// Config for `etrc record`.
	recordConfig := &recordConfig{rootConfig: rootConfig}
	recordFlags := ff.NewFlagSet("record").SetParent(rootFlags)
	recordConfig.register(recordFlags)
	recordCommand := &ff.Command{
		Name:      "record",
		ShortHelp: "record a synthetic workload to a trace file",
		LongHelp:  "Run concurrent workers that exercise timers and named traces, until the duration elapses or the process is interrupted.",
		Flags:     recordFlags,
		Exec:      recordConfig.Exec,
	}
	rootCommand.Subcommands = append(rootCommand.Subcommands, recordCommand)

	// Print help when appropriate.
	showHelp := true
	defer func() {
		errHelp := errors.Is(err, ff.ErrHelp) || errors.Is(err, ff.ErrNoExec)
		if showHelp || errHelp {
			fmt.Fprintf(stderr, "\n%s\n", ffhelp.Command(rootCommand))
		}
		if errHelp {
			err = nil
		}
	}()

	// Initial parsing.
	if err := rootCommand.Parse(args, ff.WithEnvVarPrefix("ETRC")); err != nil {
		return err
	}

	// Validation and set-up.
	{
		var infodst, debugdst io.Writer
		switch rootConfig.logLevel {
		case "n", "none":
			infodst, debugdst = io.Discard, io.Discard
		case "i", "info":
			infodst, debugdst = stderr, io.Discard
		case "d", "debug":
			infodst, debugdst = stderr, stderr
		default:
			return fmt.Errorf("invalid log level %q", rootConfig.logLevel)
		}
		rootConfig.info = log.New(infodst, "", 0)
		rootConfig.debug = log.New(debugdst, "[DEBUG] ", log.Lmsgprefix)
		rootConfig.warn = log.New(infodst, "[WARN] ", log.Lmsgprefix)
	}

	if rootConfig.maxLines < 0 {
		return fmt.Errorf("invalid --max %d", rootConfig.maxLines)
	}

	// Run errors shouldn't show help by default.
	showHelp = false

	// Run the selected command.
	return rootCommand.Run(ctx)
}
