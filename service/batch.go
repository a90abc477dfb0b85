package service

import (
	"bufio"
	"context"
	"io"

	"go.uber.org/zap"

	"matchbook/api/lineproto"
)

// BatchResult summarizes one RunBatch call.
type BatchResult struct {
	Commands int
	Rejected int
	Trades   int
}

// RunBatch reads a counted command batch from in, writes every trade line
// to out as it happens and finishes with the snapshot blocks. Bad input is
// logged and skipped; only a write failure on out is returned.
func (s *MatchService) RunBatch(ctx context.Context, in io.Reader, out io.Writer) (BatchResult, error) {
	var res BatchResult
	w := bufio.NewWriter(out)
	r := lineproto.NewReader(in)

	for r.Next() {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Commands++

		trades, err := s.SubmitLine(ctx, r.Line())
		if err != nil {
			res.Rejected++
		}
		for _, t := range trades {
			res.Trades++
			if _, err := w.WriteString(lineproto.FormatTrade(t) + "\n"); err != nil {
				return res, err
			}
		}
	}
	if err := r.Err(); err != nil {
		s.log.Warn("batch input", zap.Int("announced", r.Count()), zap.Int("read", res.Commands), zap.Error(err))
	}

	if err := w.Flush(); err != nil {
		return res, err
	}
	if err := lineproto.WriteLines(out, lineproto.FormatSnapshot(s.Snapshot())); err != nil {
		return res, err
	}

	s.log.Info("batch done",
		zap.Int("commands", res.Commands),
		zap.Int("rejected", res.Rejected),
		zap.Int("trades", res.Trades),
	)
	return res, nil
}
