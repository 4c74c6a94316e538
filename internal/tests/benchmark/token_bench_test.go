package benchmark

import (
	"fmt"
	"testing"

	"github.com/yndnr/tokgate/pkg/token"
)

func BenchmarkGenerateToken(b *testing.B) {
	for _, length := range []int{16, 32, 64} {
		b.Run(fmt.Sprintf("len_%d", length), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if tok := token.GenerateToken(length); len(tok) != length {
					b.Fatalf("len = %d", len(tok))
				}
			}
		})
	}
}

func BenchmarkTokenHash(b *testing.B) {
	tok := token.GenerateToken(32)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		token.Hash(tok)
	}
}

func BenchmarkSecureCompare(b *testing.B) {
	a := token.GenerateToken(32)
	tests := []struct {
		name  string
		other string
	}{
		{"equal", a},
		{"first_byte", "X" + a[1:]},
		{"last_byte", a[:31] + "X"},
		{"length", a[:16]},
	}
	for _, tt := range tests {
		b.Run(tt.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				token.SecureCompare(a, tt.other)
			}
		})
	}
}
