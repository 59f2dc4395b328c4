package etrc_test

import (
	"io"
	"log"
	"testing"

	"github.com/peterbourgon/etrc"
)

func newBenchmarkSession(b *testing.B) *etrc.Session {
	b.Helper()
	s, err := etrc.NewSessionConfig(etrc.SessionConfig{
		Writer: io.Discard,
		Logger: log.New(io.Discard, "", 0),
	})
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { s.Stop() })
	return s
}

func BenchmarkSubmit(b *testing.B) {
	b.Run("serial", func(b *testing.B) {
		s := newBenchmarkSession(b)
		now := s.Now()
		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			s.Submit("benchmark", now, now)
		}
	})

	b.Run("parallel", func(b *testing.B) {
		s := newBenchmarkSession(b)
		now := s.Now()
		b.ReportAllocs()
		b.ResetTimer()
		b.RunParallel(func(p *testing.PB) {
			for p.Next() {
				s.Submit("benchmark", now, now)
			}
		})
	})
}

func BenchmarkTimer(b *testing.B) {
	s := newBenchmarkSession(b)

	b.Run("StartTimer", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			etrc.StartTimer(s, "void benchmark(int)").Finish()
		}
	})

	b.Run("StartFuncTimer", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			etrc.StartFuncTimer(s).Finish()
		}
	})
}

func BenchmarkNamedTrace(b *testing.B) {
	s := newBenchmarkSession(b)
	nt := etrc.NewNamedTrace(s, "benchmark", 0)

	b.ReportAllocs()
	b.RunParallel(func(p *testing.PB) {
		for p.Next() {
			nt.Start()
			nt.End()
		}
	})
}
