package stream

import (
	"fmt"
	"os"

	"github.com/huangsam/ecgscope/schema"
	"gopkg.in/yaml.v3"
)

// Manifest lists recordings to process together.
type Manifest struct {
	Recordings []schema.Recording `yaml:"recordings"`
}

// LoadManifest reads a YAML manifest of recordings.
func LoadManifest(path string) ([]schema.Recording, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}

	seen := make(map[string]struct{}, len(m.Recordings))
	for i, rec := range m.Recordings {
		if rec.ID == "" {
			return nil, fmt.Errorf("manifest %s: recording %d has no id", path, i)
		}
		if _, ok := seen[rec.ID]; ok {
			return nil, fmt.Errorf("manifest %s: duplicate recording id %q", path, rec.ID)
		}
		seen[rec.ID] = struct{}{}
		if rec.SamplingRate < 0 {
			return nil, fmt.Errorf("manifest %s: recording %q has negative sampling rate", path, rec.ID)
		}
	}
	return m.Recordings, nil
}
