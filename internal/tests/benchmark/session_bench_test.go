package benchmark

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/yndnr/tokgate/internal/core/service"
)

func BenchmarkSessionCreateDestroy(b *testing.B) {
	m := service.NewSessionManager(&service.SessionConfig{Capacity: 16, Timeout: time.Hour})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tok, err := m.Create("alice")
		if err != nil {
			b.Fatalf("Create: %v", err)
		}
		m.Destroy(tok)
	}
}

func BenchmarkSessionValidate(b *testing.B) {
	runWithSizes(b, TableSizes, func(b *testing.B, size int) {
		m, tokens := newSessions(b, size)

		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, ok := m.Validate(tokens[i%len(tokens)]); !ok {
				b.Fatal("live session rejected")
			}
		}
		b.StopTimer()
		reportMemory(b, "heap")
	})
}

func BenchmarkSessionValidate_Parallel(b *testing.B) {
	m, tokens := newSessions(b, 1000)
	var n atomic.Uint64

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			i := n.Add(1)
			m.Validate(tokens[i%uint64(len(tokens))])
		}
	})
}

func BenchmarkSessionValidate_Miss(b *testing.B) {
	m, _ := newSessions(b, 1000)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, ok := m.Validate("not-a-live-session-token-0000000"); ok {
			b.Fatal("unknown token accepted")
		}
	}
}

func BenchmarkSessionCleanupExpired(b *testing.B) {
	runWithSizes(b, TableSizes, func(b *testing.B, size int) {
		m, _ := newSessions(b, size)

		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			m.CleanupExpired()
		}
	})
}
