package agg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/huangsam/ecgscope/internal/contract"
	"github.com/huangsam/ecgscope/internal/stream"
	"github.com/huangsam/ecgscope/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series(n int) schema.VoltageSeries {
	s := make(schema.VoltageSeries, n)
	for i := range s {
		s[i] = float64(i)
	}
	return s
}

// openStream is a stream whose channel stays open, like a live device.
type openStream struct {
	ch chan schema.StreamEvent
}

func (s *openStream) Events() <-chan schema.StreamEvent { return s.ch }

func TestAccumulate(t *testing.T) {
	ctx := context.Background()

	t.Run("completes without cap", func(t *testing.T) {
		got, err := Accumulate(ctx, stream.NewSeriesStream(series(10), nil), 0)
		require.NoError(t, err)
		assert.Equal(t, series(10), got)
	})

	t.Run("stops at cap", func(t *testing.T) {
		got, err := Accumulate(ctx, stream.NewSeriesStream(series(2000), nil), 1536)
		require.NoError(t, err)
		assert.Len(t, got, 1536)
		assert.Equal(t, series(1536), got)
	})

	t.Run("cap wins over completion on exact tie", func(t *testing.T) {
		got, err := Accumulate(ctx, stream.NewSeriesStream(series(5), errors.New("late")), 5)
		require.NoError(t, err)
		assert.Len(t, got, 5)
	})

	t.Run("empty stream", func(t *testing.T) {
		got, err := Accumulate(ctx, stream.NewSliceStream(schema.Complete()), 100)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("closed channel counts as completion", func(t *testing.T) {
		got, err := Accumulate(ctx, stream.NewSliceStream(schema.Sample(1), schema.Sample(2)), 0)
		require.NoError(t, err)
		assert.Equal(t, schema.VoltageSeries{1, 2}, got)
	})

	t.Run("error keeps partial data", func(t *testing.T) {
		cause := errors.New("lead off")
		got, err := Accumulate(ctx, stream.NewSeriesStream(series(3), cause), 0)
		require.Error(t, err)
		assert.ErrorIs(t, err, contract.ErrStream)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, series(3), got)
	})

	t.Run("error without cause", func(t *testing.T) {
		got, err := Accumulate(ctx, stream.NewSliceStream(schema.StreamEvent{Kind: schema.ErrorEvent}), 0)
		assert.ErrorIs(t, err, contract.ErrStream)
		assert.Empty(t, got)
	})

	t.Run("events after completion are ignored", func(t *testing.T) {
		got, err := Accumulate(ctx, stream.NewSliceStream(schema.Sample(1), schema.Complete(), schema.Sample(2)), 0)
		require.NoError(t, err)
		assert.Equal(t, schema.VoltageSeries{1}, got)
	})
}

func TestAccumulateContextCancel(t *testing.T) {
	s := &openStream{ch: make(chan schema.StreamEvent, 2)}
	s.ch <- schema.Sample(7)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	got, err := Accumulate(ctx, s, 0)
	assert.ErrorIs(t, err, contract.ErrStream)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, schema.VoltageSeries{7}, got)
}

func TestCollector(t *testing.T) {
	var c Collector
	got, err := AccumulateInto(context.Background(), stream.NewSeriesStream(series(40), nil), 25, &c)
	require.NoError(t, err)
	assert.Len(t, got, 25)
	assert.Equal(t, int64(25), c.Count())

	var nilCollector *Collector
	assert.Equal(t, int64(0), nilCollector.Count())
	_, err = AccumulateInto(context.Background(), stream.NewSeriesStream(series(3), nil), 0, nil)
	assert.NoError(t, err)
}
