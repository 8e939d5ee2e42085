package stream

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/ecgscope/internal/contract"
	"github.com/huangsam/ecgscope/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileOpenerOpen(t *testing.T) {
	dir := t.TempDir()
	opener := NewFileOpener(dir)
	ctx := context.Background()

	t.Run("plain values with header", func(t *testing.T) {
		writeFile(t, dir, "plain.csv", "voltage\n0.1\n0.2\n\n-0.3\n")
		s, err := opener.Open(ctx, schema.Recording{ID: "plain"})
		require.NoError(t, err)
		events := drain(t, s)
		assert.Equal(t, []float64{0.1, 0.2, -0.3}, samplesOf(events))
		assert.Equal(t, schema.CompleteEvent, events[len(events)-1].Kind)
	})

	t.Run("two columns use the last", func(t *testing.T) {
		writeFile(t, dir, "timed.csv", "time,voltage\n0.000,1.5\n0.002, 2.5\n")
		s, err := opener.Open(ctx, schema.Recording{ID: "timed"})
		require.NoError(t, err)
		assert.Equal(t, []float64{1.5, 2.5}, samplesOf(drain(t, s)))
	})

	t.Run("bad line fails after earlier samples", func(t *testing.T) {
		writeFile(t, dir, "broken.csv", "1\n2\nnope\n4\n")
		s, err := opener.Open(ctx, schema.Recording{ID: "broken"})
		require.NoError(t, err)
		events := drain(t, s)
		assert.Equal(t, []float64{1, 2}, samplesOf(events))
		last := events[len(events)-1]
		assert.Equal(t, schema.ErrorEvent, last.Kind)
		assert.Contains(t, last.Err.Error(), "line 3")
	})

	t.Run("explicit source path", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "elsewhere.csv", "9\n")
		s, err := opener.Open(ctx, schema.Recording{ID: "x", Source: path})
		require.NoError(t, err)
		assert.Equal(t, []float64{9}, samplesOf(drain(t, s)))
	})

	t.Run("missing recording", func(t *testing.T) {
		_, err := opener.Open(ctx, schema.Recording{ID: "ghost"})
		assert.ErrorIs(t, err, contract.ErrUnknownSource)
	})
}

func TestFileOpenerList(t *testing.T) {
	dir := t.TempDir()
	opener := NewFileOpener(dir)

	old := writeFile(t, dir, "old.csv", "1\n")
	recent := writeFile(t, dir, "recent.csv", "1\n")
	writeFile(t, dir, "notes.txt", "ignore me")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.csv"), 0o755))

	now := time.Now()
	require.NoError(t, os.Chtimes(old, now.Add(-time.Hour), now.Add(-time.Hour)))
	require.NoError(t, os.Chtimes(recent, now, now))

	recs, err := opener.List(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "recent", recs[0].ID)
	assert.Equal(t, "old", recs[1].ID)
	assert.Equal(t, old, recs[1].Source)
}

func TestFileOpenerWriteSeries(t *testing.T) {
	dir := t.TempDir()
	opener := NewFileOpener(dir)
	series := schema.VoltageSeries{0.25, -1, 3.125}

	require.NoError(t, opener.WriteSeries("round", series))

	s, err := opener.Open(context.Background(), schema.Recording{ID: "round"})
	require.NoError(t, err)
	assert.Equal(t, []float64(series), samplesOf(drain(t, s)))
}

func TestFileOpenerStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	content := ""
	for range 2000 {
		content += "1\n"
	}
	writeFile(t, dir, "long.csv", content)

	ctx, cancel := context.WithCancel(context.Background())
	s, err := NewFileOpener(dir).Open(ctx, schema.Recording{ID: "long"})
	require.NoError(t, err)
	<-s.Events()
	cancel()

	// The producer goroutine closes the channel once it notices cancellation.
	events := drain(t, s)
	assert.Less(t, len(events), 2000)
}

func TestFileOpenerRejectsPathIDs(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "data")
	require.NoError(t, os.Mkdir(dir, 0o755))
	writeFile(t, root, "secret.csv", "1\n2\n")
	opener := NewFileOpener(dir)

	for _, id := range []string{"../secret", "..", ".", "", "sub/rec", `sub\rec`, "/etc/passwd"} {
		t.Run(id, func(t *testing.T) {
			_, err := opener.Open(context.Background(), schema.Recording{ID: id})
			assert.ErrorIs(t, err, contract.ErrUnknownSource)
		})
	}
}
