package algo

import (
	"testing"

	"github.com/huangsam/ecgscope/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformByName(t *testing.T) {
	p := DefaultTransformParams()

	for name := range schema.ValidTransforms {
		t.Run(string(name), func(t *testing.T) {
			tr, err := TransformByName(name, p)
			require.NoError(t, err)
			assert.NotNil(t, tr)
		})
	}

	_, err := TransformByName("fft", p)
	assert.Error(t, err)
}

func TestBuildChain(t *testing.T) {
	p := DefaultTransformParams()

	t.Run("empty chain is identity", func(t *testing.T) {
		chain, err := BuildChain(nil, p)
		require.NoError(t, err)
		assert.Equal(t, schema.VoltageSeries{1, 2, 3}, chain(schema.VoltageSeries{1, 2, 3}))
	})

	t.Run("order is preserved", func(t *testing.T) {
		chain, err := BuildChain([]schema.TransformName{schema.NormalizeTransform, schema.DerivativeTransform}, p)
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{0, 1, 1}, chain(schema.VoltageSeries{0, 5, 10}), 1e-9)
	})

	t.Run("unknown name fails", func(t *testing.T) {
		_, err := BuildChain([]schema.TransformName{schema.SmoothTransform, "wavelet"}, p)
		assert.Error(t, err)
	})

	t.Run("downsample uses params", func(t *testing.T) {
		chain, err := BuildChain([]schema.TransformName{schema.DownsampleTransform}, p)
		require.NoError(t, err)
		assert.Len(t, chain(ramp(2000)), 384)
	})
}
