package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RunSnapshotJob publishes a snapshot to sinks every interval until ctx is
// done, and once more on the way out.
func (s *MatchService) RunSnapshotJob(
	ctx context.Context,
	interval time.Duration,
	sinks ...SnapshotSink,
) {
	if len(sinks) == 0 || interval <= 0 {
		return
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			// ctx is already cancelled; give the final publish its own deadline.
			final, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := s.PublishSnapshot(final, sinks...); err != nil {
				s.log.Warn("final snapshot", zap.Error(err))
			}
			cancel()
			return
		case <-t.C:
			_ = s.PublishSnapshot(ctx, sinks...)
		}
	}
}
