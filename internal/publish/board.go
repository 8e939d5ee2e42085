package publish

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/huangsam/ecgscope/internal/contract"
	"github.com/huangsam/ecgscope/schema"
)

// PreviewBoard is the shared mapping from recording ID to its latest preview series.
// Each preview run writes only its own key.
type PreviewBoard struct {
	mu       sync.RWMutex
	previews map[string]schema.VoltageSeries
}

var _ contract.Publisher = &PreviewBoard{} // Compile-time check

// NewPreviewBoard creates an empty board.
func NewPreviewBoard() *PreviewBoard {
	return &PreviewBoard{previews: make(map[string]schema.VoltageSeries)}
}

// Publish implements the Publisher interface. Full-trace results are ignored.
func (b *PreviewBoard) Publish(_ context.Context, result schema.PipelineResult) error {
	if result.Profile != schema.PreviewProfile {
		return nil
	}
	b.mu.Lock()
	b.previews[result.RecordingID] = result.Series
	b.mu.Unlock()
	return nil
}

// Get returns the preview for a recording.
func (b *PreviewBoard) Get(recordingID string) (schema.VoltageSeries, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.previews[recordingID]
	return s, ok
}

// Snapshot returns a copy of the mapping.
func (b *PreviewBoard) Snapshot() map[string]schema.VoltageSeries {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return maps.Clone(b.previews)
}

// IDs returns the recording IDs on the board in sorted order.
func (b *PreviewBoard) IDs() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Sorted(maps.Keys(b.previews))
}

// Len returns the number of previews on the board.
func (b *PreviewBoard) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.previews)
}
