package algo

import (
	"fmt"

	"github.com/huangsam/ecgscope/schema"
)

// Transform maps one series to another.
type Transform func(schema.VoltageSeries) schema.VoltageSeries

// TransformParams holds the tunables used when resolving named transforms.
type TransformParams struct {
	WindowSize     int
	NormalizeMin   float64
	NormalizeMax   float64
	PreviewSamples int
	PreviewStride  int
}

// DefaultTransformParams returns the default tunables.
func DefaultTransformParams() TransformParams {
	return TransformParams{
		WindowSize:     schema.DefaultWindowSize,
		NormalizeMin:   schema.DefaultNormalizeMin,
		NormalizeMax:   schema.DefaultNormalizeMax,
		PreviewSamples: schema.DefaultPreviewSamples,
		PreviewStride:  schema.DefaultPreviewStride,
	}
}

// TransformByName resolves a named transform with the given tunables.
func TransformByName(name schema.TransformName, p TransformParams) (Transform, error) {
	switch name {
	case schema.SmoothTransform:
		return func(s schema.VoltageSeries) schema.VoltageSeries { return MovingAverage(s, p.WindowSize) }, nil
	case schema.NormalizeTransform:
		return func(s schema.VoltageSeries) schema.VoltageSeries { return Normalize(s, p.NormalizeMin, p.NormalizeMax) }, nil
	case schema.DerivativeTransform:
		return Derivative, nil
	case schema.DownsampleTransform:
		return func(s schema.VoltageSeries) schema.VoltageSeries { return Downsample(s, p.PreviewSamples, p.PreviewStride) }, nil
	default:
		return nil, fmt.Errorf("unknown transform %q", name)
	}
}

// Chain applies transforms left to right. An empty chain is the identity.
func Chain(transforms ...Transform) Transform {
	return func(s schema.VoltageSeries) schema.VoltageSeries {
		for _, t := range transforms {
			s = t(s)
		}
		return s
	}
}

// BuildChain resolves a list of names into a single transform.
func BuildChain(names []schema.TransformName, p TransformParams) (Transform, error) {
	transforms := make([]Transform, 0, len(names))
	for _, name := range names {
		t, err := TransformByName(name, p)
		if err != nil {
			return nil, err
		}
		transforms = append(transforms, t)
	}
	return Chain(transforms...), nil
}
