package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/peterbourgon/etrc"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffval"
)

type recordConfig struct {
	*rootConfig

	out           string
	workers       int
	duration      time.Duration
	frameInterval time.Duration
	capacity      int
}

func (cfg *recordConfig) register(fs *ff.FlagSet) {
	fs.AddFlag(ff.FlagConfig{ShortName: 'o', LongName: "out" /*            */, Value: ffval.NewValue(&cfg.out) /*                                        */, Usage: "trace file to write (required)", Placeholder: "FILE", NoDefault: true})
	fs.AddFlag(ff.FlagConfig{ShortName: 'w', LongName: "workers" /*        */, Value: ffval.NewValueDefault(&cfg.workers, 4) /*                          */, Usage: "number of concurrent request workers"})
	fs.AddFlag(ff.FlagConfig{ShortName: 'd', LongName: "duration" /*       */, Value: ffval.NewValueDefault(&cfg.duration, 5*time.Second) /*             */, Usage: "how long to record (0 until interrupted)"})
	fs.AddFlag(ff.FlagConfig{ShortName: 0x0, LongName: "frame-interval" /* */, Value: ffval.NewValueDefault(&cfg.frameInterval, 16*time.Millisecond) /* */, Usage: "interval between rendered frames"})
	fs.AddFlag(ff.FlagConfig{ShortName: 0x0, LongName: "capacity" /*       */, Value: ffval.NewValueDefault(&cfg.capacity, etrc.DefaultCapacity) /*    */, Usage: "maximum pending frames"})
}

func (cfg *recordConfig) Exec(ctx context.Context, args []string) error {
	if cfg.out == "" {
		return fmt.Errorf("--out is required")
	}

	if cfg.workers <= 0 {
		return fmt.Errorf("invalid --workers %d", cfg.workers)
	}

	if cfg.frameInterval <= 0 {
		return fmt.Errorf("invalid --frame-interval %s", cfg.frameInterval)
	}

	if cfg.capacity <= 0 {
		cfg.capacity = etrc.DefaultCapacity
	}

	s, err := etrc.NewSessionConfig(etrc.SessionConfig{
		Filename: cfg.out,
		Logger:   cfg.warn,
	})
	if err != nil {
		return err
	}

	cfg.info.Printf("session %s: recording to %s", s.ID(), cfg.out)
	cfg.debug.Printf("workers: %d", cfg.workers)
	cfg.debug.Printf("duration: %s", cfg.duration)
	cfg.debug.Printf("frame interval: %s", cfg.frameInterval)
	cfg.debug.Printf("frame capacity: %d", cfg.capacity)

	reg := etrc.NewRegistry()
	reg.Register("request", s)
	reg.Put("frame", etrc.NewNamedTrace(s, "render_frame", cfg.capacity))
	ctx = etrc.ContextWithRegistry(ctx, reg)

	var g run.Group

	{
		ctx, cancel := context.WithCancel(ctx)
		g.Add(func() error {
			return cfg.runWorkers(ctx, s)
		}, func(error) {
			cancel()
		})
	}

	{
		ctx, cancel := context.WithCancel(ctx)
		g.Add(func() error {
			return cfg.runFrames(ctx)
		}, func(error) {
			cancel()
		})
	}

	if cfg.duration > 0 {
		ctx, cancel := context.WithTimeout(ctx, cfg.duration)
		g.Add(func() error {
			<-ctx.Done()
			if ctx.Err() == context.DeadlineExceeded {
				cfg.debug.Printf("recorded for %s", cfg.duration)
			}
			return nil
		}, func(error) {
			cancel()
		})
	}

	{
		g.Add(run.SignalHandler(ctx, os.Interrupt, syscall.SIGTERM))
	}

	runErr := g.Run()

	cfg.debug.Printf("stopping session")
	stopErr := s.Stop()
	cfg.report(s, reg)

	if stopErr != nil {
		return fmt.Errorf("stop session: %w", stopErr)
	}

	return runErr
}

// runWorkers simulates request handlers, each timed by a function timer and
// by the shared "request" named trace, until the context is canceled.
func (cfg *recordConfig) runWorkers(ctx context.Context, s *etrc.Session) error {
	var wg sync.WaitGroup
	for i := 0; i < cfg.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ctx.Err() == nil {
				cfg.handleRequest(ctx, s)
			}
		}()
	}
	wg.Wait()
	return nil
}

func (cfg *recordConfig) handleRequest(ctx context.Context, s *etrc.Session) {
	defer etrc.StartFuncTimer(s).Finish()

	if err := etrc.StartContext(ctx, "request"); err != nil {
		cfg.debug.Printf("request: %v", err)
		return
	}
	defer func() {
		if err := etrc.EndContext(ctx, "request"); err != nil {
			cfg.debug.Printf("request: %v", err)
		}
	}()

	contextSleep(ctx, jitter(2*time.Millisecond))

	finish := etrc.Region(s, "encode_response")
	contextSleep(ctx, jitter(500*time.Microsecond))
	finish()
}

// runFrames starts a "frame" named trace on every tick, and ends it from a
// separate presenter goroutine, so every frame is started and ended on
// different goroutines.
func (cfg *recordConfig) runFrames(ctx context.Context) error {
	var (
		queued = make(chan struct{}, cfg.capacity)
		wg     sync.WaitGroup
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for range queued {
			contextSleep(ctx, jitter(cfg.frameInterval))
			if err := etrc.EndContext(ctx, "frame"); err != nil {
				cfg.debug.Printf("frame: %v", err)
			}
		}
	}()

	ticker := time.NewTicker(cfg.frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			close(queued)
			wg.Wait()
			return nil

		case <-ticker.C:
			if err := etrc.StartContext(ctx, "frame"); err != nil {
				cfg.debug.Printf("frame: %v", err)
				continue
			}
			queued <- struct{}{} // never blocks, as pending frames never exceed capacity
		}
	}
}

func (cfg *recordConfig) report(s *etrc.Session, reg *etrc.Registry) {
	ss := s.Stats()
	cfg.info.Printf("session %s: submitted %d, written %d, discarded %d, rejected %d", s.ID(), ss.Submitted, ss.Written, ss.Discarded, ss.Rejected)
	for _, st := range reg.Stats() {
		cfg.info.Printf("trace %s: completed %d, pending %d, dropped %d, unmatched %d", st.Name, st.Completed, st.Pending, st.Dropped, st.Unmatched)
	}
}

func jitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(max)))
}
