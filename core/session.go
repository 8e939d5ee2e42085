package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/huangsam/ecgscope/internal/contract"
	"github.com/huangsam/ecgscope/internal/detector"
	"github.com/huangsam/ecgscope/internal/publish"
	"github.com/huangsam/ecgscope/internal/stream"
	"github.com/huangsam/ecgscope/schema"
	"github.com/nats-io/nats.go"
)

// defaultSimRecordings is how many recordings the simulator invents when none are named.
const defaultSimRecordings = 4

// ErrNoRecordings is returned when no recording could be resolved.
var ErrNoRecordings = errors.New("no recordings found")

// session holds the stream source and broker connection shared by one command.
type session struct {
	cfg      *contract.Config
	nc       *nats.Conn
	opener   contract.StreamOpener
	manifest []schema.Recording
}

// openSession loads the manifest and opens the configured stream source.
// The NATS connection is only dialed when the source or result publishing needs it.
func openSession(cfg *contract.Config) (*session, error) {
	s := &session{cfg: cfg}

	if cfg.Manifest != "" {
		recs, err := stream.LoadManifest(cfg.Manifest)
		if err != nil {
			return nil, err
		}
		s.manifest = recs
	}

	if cfg.Source == schema.NATSSource || cfg.PublishNATS {
		nc, err := stream.Connect(cfg.NATSURL, "ecgscope")
		if err != nil {
			return nil, fmt.Errorf("connect to NATS at %s: %w", cfg.NATSURL, err)
		}
		s.nc = nc
	}

	switch cfg.Source {
	case schema.NATSSource:
		s.opener = stream.NewNATSOpener(s.nc, cfg.NATSSubject, s.manifest)
	case schema.SimSource:
		sim := stream.NewSimOpener(cfg)
		if len(sim.IDs) == 0 {
			for _, rec := range s.manifest {
				sim.IDs = append(sim.IDs, rec.ID)
			}
		}
		if len(sim.IDs) == 0 {
			sim.IDs = stream.NewRecordingIDs(defaultSimRecordings)
		}
		s.opener = sim
	default:
		s.opener = stream.NewFileOpener(cfg.DataDir)
	}
	return s, nil
}

// Close releases the broker connection, if any.
func (s *session) Close() {
	if s.nc != nil {
		s.nc.Close()
	}
}

// recordings resolves what to run. IDs from the command line select from the
// manifest when one is loaded; otherwise the manifest, then the IDs, then
// everything the source lists.
func (s *session) recordings(ctx context.Context) ([]schema.Recording, error) {
	if len(s.cfg.RecordingIDs) > 0 {
		known := make(map[string]schema.Recording, len(s.manifest))
		for _, rec := range s.manifest {
			known[rec.ID] = rec
		}
		recs := make([]schema.Recording, len(s.cfg.RecordingIDs))
		for i, id := range s.cfg.RecordingIDs {
			rec, ok := known[id]
			if !ok {
				rec = s.cfg.RecordingFor(id)
			}
			recs[i] = rec
		}
		return recs, nil
	}
	if len(s.manifest) > 0 {
		return s.manifest, nil
	}
	recs, err := s.opener.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recordings: %w", err)
	}
	if len(recs) == 0 {
		return nil, ErrNoRecordings
	}
	return recs, nil
}

// publishers returns the shared publishers every run delivers to, in addition to extra.
func (s *session) publishers(mgr contract.StoreManager, extra ...contract.Publisher) publish.Multi {
	pubs := append(publish.Multi{}, extra...)
	if store := previewStore(mgr); store != nil {
		pubs = append(pubs, publish.NewStorePublisher(store))
	}
	if s.cfg.PublishNATS && s.nc != nil {
		pubs = append(pubs, publish.NewNATSPublisher(s.nc, s.cfg.ResultsSubject))
	}
	return pubs
}

// pipeline builds a pipeline wired to the configured detector, run tracking and publishers.
func (s *session) pipeline(mgr contract.StoreManager, obs Observer, pub contract.Publisher) (*Pipeline, error) {
	det, err := detector.New(s.cfg, contract.NewLocalCommandRunner())
	if err != nil {
		return nil, err
	}
	p, err := NewPipeline(s.cfg, det, pub)
	if err != nil {
		return nil, err
	}
	p.Observer = obs
	if s.cfg.RunBackend != schema.NoneBackend {
		p.Runs = runStore(mgr)
	}
	return p, nil
}

func previewStore(mgr contract.StoreManager) contract.PreviewStore {
	if mgr == nil {
		return nil
	}
	return mgr.GetPreviewStore()
}

func runStore(mgr contract.StoreManager) contract.RunStore {
	if mgr == nil {
		return nil
	}
	return mgr.GetRunStore()
}
