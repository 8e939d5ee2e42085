package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid", func(t *testing.T) {
		path := writeFile(t, dir, "ok.yaml", `
recordings:
  - id: rec-1
    sampling_rate: 250
  - id: rec-2
    source: /data/rec-2.csv
`)
		recs, err := LoadManifest(path)
		require.NoError(t, err)
		require.Len(t, recs, 2)
		assert.Equal(t, "rec-1", recs[0].ID)
		assert.Equal(t, 250.0, recs[0].SamplingRate)
		assert.Equal(t, "/data/rec-2.csv", recs[1].Source)
	})

	t.Run("missing id", func(t *testing.T) {
		path := writeFile(t, dir, "noid.yaml", "recordings:\n  - source: x\n")
		_, err := LoadManifest(path)
		assert.Error(t, err)
	})

	t.Run("duplicate id", func(t *testing.T) {
		path := writeFile(t, dir, "dup.yaml", "recordings:\n  - id: a\n  - id: a\n")
		_, err := LoadManifest(path)
		assert.ErrorContains(t, err, "duplicate")
	})

	t.Run("bad yaml", func(t *testing.T) {
		path := writeFile(t, dir, "bad.yaml", "recordings: [\n")
		_, err := LoadManifest(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadManifest(dir + "/nope.yaml")
		assert.Error(t, err)
	})
}
