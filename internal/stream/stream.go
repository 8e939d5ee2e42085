// Package stream has device stream sources: files, NATS subjects and a simulator.
package stream

import (
	"context"

	"github.com/huangsam/ecgscope/internal/contract"
	"github.com/huangsam/ecgscope/schema"
)

// chanStream adapts a receive channel to contract.Stream.
type chanStream struct {
	events <-chan schema.StreamEvent
}

var _ contract.Stream = &chanStream{} // Compile-time check

func (s *chanStream) Events() <-chan schema.StreamEvent { return s.events }

// NewSliceStream returns a stream that replays the given events and then closes.
func NewSliceStream(events ...schema.StreamEvent) contract.Stream {
	ch := make(chan schema.StreamEvent, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return &chanStream{events: ch}
}

// NewSeriesStream replays a series followed by a completion event, or by
// failure when err is non-nil.
func NewSeriesStream(series schema.VoltageSeries, err error) contract.Stream {
	events := make([]schema.StreamEvent, 0, len(series)+1)
	for _, v := range series {
		events = append(events, schema.Sample(v))
	}
	if err != nil {
		events = append(events, schema.Failure(err))
	} else {
		events = append(events, schema.Complete())
	}
	return NewSliceStream(events...)
}

// emitter pushes events to a stream channel until ctx is done.
type emitter struct {
	ctx context.Context
	ch  chan schema.StreamEvent
}

func newEmitter(ctx context.Context, buffer int) *emitter {
	return &emitter{ctx: ctx, ch: make(chan schema.StreamEvent, buffer)}
}

// send returns false once the consumer has gone away.
func (e *emitter) send(ev schema.StreamEvent) bool {
	select {
	case e.ch <- ev:
		return true
	case <-e.ctx.Done():
		return false
	}
}

func (e *emitter) stream() contract.Stream { return &chanStream{events: e.ch} }

func (e *emitter) close() { close(e.ch) }
