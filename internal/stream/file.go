package stream

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/huangsam/ecgscope/internal/contract"
	"github.com/huangsam/ecgscope/schema"
)

// FileExt is the extension of recording files.
const FileExt = ".csv"

// FileOpener streams recordings stored as <dir>/<id>.csv files.
// Each line holds one voltage, or "time,voltage" where the last column wins.
// A non-numeric first line is treated as a header.
type FileOpener struct {
	Dir string
}

var _ contract.StreamOpener = &FileOpener{} // Compile-time check

// NewFileOpener creates a file-backed opener rooted at dir.
func NewFileOpener(dir string) *FileOpener {
	return &FileOpener{Dir: dir}
}

func (o *FileOpener) path(id string) string {
	return filepath.Join(o.Dir, id+FileExt)
}

// validFileID reports whether id names a file directly inside the data directory.
func validFileID(id string) bool {
	return id != "" && id != "." && id != ".." &&
		filepath.Base(id) == id && !strings.ContainsAny(id, `/\`)
}

// Open implements the StreamOpener interface.
func (o *FileOpener) Open(ctx context.Context, rec schema.Recording) (contract.Stream, error) {
	path := rec.Source
	if path == "" {
		if !validFileID(rec.ID) {
			return nil, fmt.Errorf("%w: %q", contract.ErrUnknownSource, rec.ID)
		}
		path = o.path(rec.ID)
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", contract.ErrUnknownSource, rec.ID)
	} else if err != nil {
		return nil, err
	}

	em := newEmitter(ctx, 256)
	go func() {
		defer em.close()
		defer func() { _ = f.Close() }()

		scanner := bufio.NewScanner(f)
		line := 0
		for scanner.Scan() {
			line++
			text := strings.TrimSpace(scanner.Text())
			if text == "" {
				continue
			}
			v, err := parseVoltage(text)
			if err != nil {
				if line == 1 {
					continue // header
				}
				em.send(schema.Failure(fmt.Errorf("%s line %d: %w", filepath.Base(path), line, err)))
				return
			}
			if !em.send(schema.Sample(v)) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			em.send(schema.Failure(err))
			return
		}
		em.send(schema.Complete())
	}()
	return em.stream(), nil
}

// List implements the StreamOpener interface. Recordings are ordered newest first.
func (o *FileOpener) List(_ context.Context) ([]schema.Recording, error) {
	entries, err := os.ReadDir(o.Dir)
	if err != nil {
		return nil, err
	}

	var recs []schema.Recording
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != FileExt {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		recs = append(recs, schema.Recording{
			ID:        strings.TrimSuffix(entry.Name(), FileExt),
			Source:    filepath.Join(o.Dir, entry.Name()),
			StartTime: info.ModTime(),
		})
	}
	slices.SortStableFunc(recs, func(a, b schema.Recording) int {
		return b.StartTime.Compare(a.StartTime)
	})
	return recs, nil
}

// WriteSeries stores a series as <dir>/<id>.csv with a "voltage" header.
func (o *FileOpener) WriteSeries(id string, series schema.VoltageSeries) error {
	f, err := os.Create(o.path(id))
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"voltage"}); err != nil {
		return err
	}
	for _, v := range series {
		if err := w.Write([]string{strconv.FormatFloat(v, 'f', -1, 64)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func parseVoltage(text string) (float64, error) {
	if i := strings.LastIndexByte(text, ','); i >= 0 {
		text = strings.TrimSpace(text[i+1:])
	}
	return strconv.ParseFloat(text, 64)
}
