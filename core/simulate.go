package core

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/huangsam/ecgscope/internal/contract"
	"github.com/huangsam/ecgscope/internal/stream"
	"github.com/huangsam/ecgscope/schema"
	"golang.org/x/sync/errgroup"
)

// ExecuteSimulate publishes synthetic recordings onto NATS, paced at the
// sampling rate, so that 'trace' and 'preview' can consume them with --source nats.
func ExecuteSimulate(ctx context.Context, cfg *contract.Config, _ contract.StoreManager) error {
	nc, err := stream.Connect(cfg.NATSURL, "ecgscope-simulator")
	if err != nil {
		return fmt.Errorf("connect to NATS at %s: %w", cfg.NATSURL, err)
	}
	defer nc.Close()

	sim := stream.NewSimOpener(cfg)
	sim.Realtime = true
	if len(sim.IDs) == 0 {
		sim.IDs = stream.NewRecordingIDs(defaultSimRecordings)
	}
	recs, err := sim.List(ctx)
	if err != nil {
		return err
	}
	return simulateTo(ctx, sim, stream.NewProducer(nc, cfg.NATSSubject), recs)
}

// simulateTo streams every recording through the producer concurrently.
// All recordings run to the end; the first failure is returned.
func simulateTo(ctx context.Context, opener contract.StreamOpener, producer *stream.Producer, recs []schema.Recording) error {
	start := time.Now()
	for _, rec := range recs {
		_, _ = fmt.Fprintf(os.Stderr, "Streaming %s on %s\n", rec.ID, stream.Subject(producer.Subject, rec.ID))
	}

	var g errgroup.Group
	for _, rec := range recs {
		g.Go(func() error {
			runCtx, cancel := context.WithCancel(ctx)
			defer cancel()
			s, err := opener.Open(runCtx, rec)
			if err == nil {
				err = producer.PublishStream(runCtx, rec.ID, s)
			}
			if err != nil {
				return fmt.Errorf("%s: %w", rec.ID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(os.Stderr, "Streamed %d recordings in %v\n", len(recs), time.Since(start).Round(time.Millisecond))
	if err := producer.Conn.Flush(); err != nil {
		return fmt.Errorf("flush NATS: %w", err)
	}
	return nil
}
