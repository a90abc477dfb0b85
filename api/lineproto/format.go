package lineproto

import (
	"bufio"
	"io"

	"matchbook/domain/orderbook"
	"matchbook/snapshot"
)

// FormatTrade renders symbol,price,quantity,aggressorId,passiveId.
func FormatTrade(t orderbook.Trade) string {
	return t.String()
}

func FormatTrades(trades []orderbook.Trade) []string {
	out := make([]string, 0, len(trades))
	for _, t := range trades {
		out = append(out, FormatTrade(t))
	}
	return out
}

// FormatSnapshot renders one ===SYMBOL=== header per block followed by its
// bid/ask rows.
func FormatSnapshot(blocks []snapshot.Block) []string {
	return snapshot.Lines(blocks)
}

// WriteLines writes each line followed by a newline.
func WriteLines(w io.Writer, lines []string) error {
	bw := bufio.NewWriter(w)
	for _, l := range lines {
		if _, err := bw.WriteString(l); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
