package algo

import (
	"testing"

	"github.com/huangsam/ecgscope/schema"
	"github.com/stretchr/testify/assert"
)

func TestDownsample(t *testing.T) {
	tests := []struct {
		name       string
		n          int
		maxSamples int
		stride     int
		expected   int
	}{
		{"empty", 0, 1536, 4, 0},
		{"preview cap", 2000, 1536, 4, 384},
		{"exact cap", 1536, 1536, 4, 384},
		{"short series", 10, 1536, 4, 3},
		{"stride larger than series", 3, 1536, 8, 1},
		{"stride one", 7, 1536, 1, 7},
		{"zero stride treated as one", 5, 1536, 0, 5},
		{"zero cap", 100, 0, 4, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Downsample(ramp(tt.n), tt.maxSamples, tt.stride)
			assert.Len(t, result, tt.expected)
		})
	}
}

func TestDownsampleKeepsStrideSamples(t *testing.T) {
	result := Downsample(ramp(10), 1536, 4)
	assert.Equal(t, schema.VoltageSeries{1, 5, 9}, result)

	// Cap applies to the input cursor, not to the output count.
	result = Downsample(ramp(10), 6, 4)
	assert.Equal(t, schema.VoltageSeries{1, 5}, result)
}
