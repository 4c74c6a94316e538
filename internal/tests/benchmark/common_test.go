package benchmark

import (
	"fmt"
	"runtime"
	"testing"
	"time"

	"github.com/yndnr/tokgate/internal/core/service"
)

// TableSizes are the live entry counts benchmarked for each table.
var TableSizes = []int{100, 1000, 10000}

// newSessions returns a session manager holding count live sessions and
// their bearer tokens.
func newSessions(b *testing.B, count int) (*service.SessionManager, []string) {
	b.Helper()
	m := service.NewSessionManager(&service.SessionConfig{
		Capacity: count + 1,
		Timeout:  time.Hour,
	})
	tokens := make([]string, count)
	for i := range tokens {
		tok, err := m.Create(fmt.Sprintf("user-%d", i%1000))
		if err != nil {
			b.Fatalf("Create: %v", err)
		}
		tokens[i] = tok
	}
	return m, tokens
}

// reportMemory reports heap usage after a forced GC.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
}

// runWithSizes runs benchFn once per table size.
func runWithSizes(b *testing.B, sizes []int, benchFn func(b *testing.B, size int)) {
	for _, size := range sizes {
		b.Run(fmt.Sprintf("entries_%d", size), func(b *testing.B) {
			benchFn(b, size)
		})
	}
}
