package publish

import (
	"context"
	"encoding/json"
	"time"

	"github.com/huangsam/ecgscope/internal/contract"
	"github.com/huangsam/ecgscope/schema"
)

// CurrentPreviewVersion defines the version of the stored preview encoding.
const CurrentPreviewVersion = 1

// StorePublisher persists preview series into a PreviewStore so other
// processes can render them. Full-trace results are ignored.
type StorePublisher struct {
	store contract.PreviewStore
}

var _ contract.Publisher = &StorePublisher{} // Compile-time check

// NewStorePublisher creates a publisher backed by store.
func NewStorePublisher(store contract.PreviewStore) *StorePublisher {
	return &StorePublisher{store: store}
}

// Publish implements the Publisher interface.
func (p *StorePublisher) Publish(_ context.Context, result schema.PipelineResult) error {
	if result.Profile != schema.PreviewProfile {
		return nil
	}
	data, err := json.Marshal(result.Series)
	if err != nil {
		return err
	}
	return p.store.Set(result.RecordingID, data, CurrentPreviewVersion, time.Now().Unix())
}

// LoadPreview reads a persisted preview. It reports false when the entry is
// missing, was written by another encoding version, or cannot be decoded.
func LoadPreview(store contract.PreviewStore, recordingID string) (schema.PreviewRecord, bool) {
	data, version, ts, err := store.Get(recordingID)
	if err != nil || version != CurrentPreviewVersion {
		return schema.PreviewRecord{}, false
	}
	var series schema.VoltageSeries
	if err := json.Unmarshal(data, &series); err != nil {
		return schema.PreviewRecord{}, false
	}
	return schema.PreviewRecord{
		RecordingID: recordingID,
		Series:      series,
		Version:     version,
		UpdatedAt:   time.Unix(ts, 0),
	}, true
}
