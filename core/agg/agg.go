// Package agg has accumulation logic for device streams.
package agg

import (
	"context"
	"fmt"

	"github.com/huangsam/ecgscope/internal/contract"
	"github.com/huangsam/ecgscope/schema"
)

// Accumulate appends samples from the stream in arrival order until the stream
// completes, fails, or stopAfter samples have been collected. A stopAfter of
// zero or less means no cap.
//
// The collected samples are always returned, including when an error occurs,
// so callers can decide whether partial data is usable. Errors wrap
// contract.ErrStream. Reaching the cap does not close the stream.
func Accumulate(ctx context.Context, stream contract.Stream, stopAfter int) (schema.VoltageSeries, error) {
	return AccumulateInto(ctx, stream, stopAfter, nil)
}

// AccumulateInto is Accumulate with a Collector that observes every appended sample.
func AccumulateInto(ctx context.Context, stream contract.Stream, stopAfter int, collector *Collector) (schema.VoltageSeries, error) {
	series := schema.VoltageSeries{}
	if stopAfter > 0 {
		series = make(schema.VoltageSeries, 0, stopAfter)
	}
	events := stream.Events()

	for {
		select {
		case <-ctx.Done():
			return series, fmt.Errorf("%w: %w", contract.ErrStream, ctx.Err())
		case ev, ok := <-events:
			if !ok {
				return series, nil
			}
			switch ev.Kind {
			case schema.SampleEvent:
				series = append(series, ev.Value)
				collector.observe()
				if stopAfter > 0 && len(series) >= stopAfter {
					return series, nil
				}
			case schema.CompleteEvent:
				return series, nil
			case schema.ErrorEvent:
				if ev.Err == nil {
					return series, contract.ErrStream
				}
				return series, fmt.Errorf("%w: %w", contract.ErrStream, ev.Err)
			}
		}
	}
}
