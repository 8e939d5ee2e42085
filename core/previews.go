package core

import (
	"context"
	"sync"

	"github.com/huangsam/ecgscope/internal/contract"
	"github.com/huangsam/ecgscope/schema"
)

// RunPreviews runs the preview profile for every recording using a pool of
// workers. Runs are independent: a failed recording never blocks the others.
// Outcomes are returned in the order of recs.
func (p *Pipeline) RunPreviews(ctx context.Context, recs []schema.Recording, opener contract.StreamOpener, workers int) []schema.RunOutcome {
	outcomes := make([]schema.RunOutcome, len(recs))
	idxCh := make(chan int, len(recs))
	var wg sync.WaitGroup

	for range max(workers, 1) {
		wg.Go(func() {
			for idx := range idxCh {
				// Each worker writes to a unique index, which is safe
				outcomes[idx] = p.previewOne(ctx, recs[idx], opener)
			}
		})
	}

	for i := range recs {
		idxCh <- i
	}
	close(idxCh)
	wg.Wait()

	return outcomes
}

// previewOne opens the stream and runs one preview. The stream is released
// once the run is over, including when the sample cap stopped collection early.
func (p *Pipeline) previewOne(ctx context.Context, rec schema.Recording, opener contract.StreamOpener) schema.RunOutcome {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := opener.Open(runCtx, rec)
	if err != nil {
		return schema.RunOutcome{Recording: rec, Err: p.abort(rec, schema.PreviewProfile, err)}
	}
	result, err := p.RunPreview(runCtx, rec, stream)
	return schema.RunOutcome{Recording: rec, Result: result, Err: err}
}

// TraceOne opens the stream and runs the full-trace profile for one recording.
func (p *Pipeline) TraceOne(ctx context.Context, rec schema.Recording, opener contract.StreamOpener) (schema.PipelineResult, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := opener.Open(runCtx, rec)
	if err != nil {
		return schema.PipelineResult{}, p.abort(rec, schema.FullProfile, err)
	}
	return p.RunFull(runCtx, rec, stream)
}
