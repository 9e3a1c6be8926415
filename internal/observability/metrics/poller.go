package metrics

import (
	"context"
	"time"
)

type pollFunc = func(ctx context.Context) error

// RecordPollerDuration wraps poll so every round is observed under
// pollerType, labelled with its outcome.
func RecordPollerDuration(pollerType string, poll pollFunc) pollFunc {
	return func(ctx context.Context) error {
		startTime := time.Now()
		err := poll(ctx)
		pollerDurationHistogram.
			WithLabelValues(pollerType, outcome(err != nil).String()).
			Observe(time.Since(startTime).Seconds())
		return err
	}
}
