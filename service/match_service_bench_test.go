package service

import (
	"context"
	"fmt"
	"testing"

	"matchbook/infra/wal/entry"
	exitwal "matchbook/infra/wal/exit"
)

func benchLines(n int) []string {
	lines := make([]string, n)
	for i := range lines {
		side := "BUY"
		if i%2 == 1 {
			side = "SELL"
		}
		lines[i] = fmt.Sprintf("INSERT,%d,SYM%d,%s,%d.%02d,%d", i+1, i%4, side, 100+i%7, i%100, 1+i%9)
	}
	return lines
}

func BenchmarkSubmitLine_Core(b *testing.B) {
	s := New()
	lines := benchLines(b.N)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.SubmitLine(ctx, lines[i])
	}
}

func BenchmarkSubmitLine_WithJournalAndOutbox(b *testing.B) {
	journal, err := entry.Open(entry.Config{Dir: b.TempDir(), SegmentSize: 64 << 20})
	if err != nil {
		b.Fatal(err)
	}
	defer journal.Close()
	outbox, err := exitwal.Open(b.TempDir())
	if err != nil {
		b.Fatal(err)
	}
	defer outbox.Close()

	s := New(WithJournal(journal), WithOutbox(outbox))
	lines := benchLines(b.N)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.SubmitLine(ctx, lines[i])
	}
}
