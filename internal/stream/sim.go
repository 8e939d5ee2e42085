package stream

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/ecgscope/internal/contract"
	"github.com/huangsam/ecgscope/schema"
	"golang.org/x/time/rate"
)

// realtimeBurst lets a paced simulator catch up by this many samples after a stall.
const realtimeBurst = 32

// ErrSimulatedFailure is the error injected by SimOpener.FailAfter.
var ErrSimulatedFailure = errors.New("simulated device disconnect")

// ECGSim generates a synthetic single-lead ECG shape (not clinical) at fs Hz:
// a slow baseline plus Gaussian P, QRS and T waves and a little noise.
type ECGSim struct {
	fs    float64
	phase float64
	hrBPM float64
	noise float64
	t     float64
}

// NewECGSim creates a simulator. Typical hrBPM is 60-120 and noise 0.0-0.05.
func NewECGSim(fs, hrBPM, noise, phase float64) *ECGSim {
	return &ECGSim{fs: fs, hrBPM: hrBPM, noise: noise, phase: phase}
}

// Next returns the next sample and advances time.
func (s *ECGSim) Next() float64 {
	cycleHz := s.hrBPM / 60.0
	s.phase += cycleHz / s.fs
	if s.phase >= 1.0 {
		s.phase -= 1.0
	}
	s.t += 1 / s.fs

	x := s.phase
	baseline := 0.05 * math.Sin(2*math.Pi*0.33*s.t)

	p := 0.08 * gauss(x, 0.18, 0.03)
	q := -0.12 * gauss(x, 0.30, 0.01)
	r := 1.00 * gauss(x, 0.32, 0.008)
	sv := -0.25 * gauss(x, 0.35, 0.012)
	tw := 0.25 * gauss(x, 0.60, 0.06)

	n := s.noise * (2*fract(math.Sin(12345.678*s.t)*9876.543) - 1)

	return baseline + p + q + r + sv + tw + n
}

// Series generates count samples.
func (s *ECGSim) Series(count int) schema.VoltageSeries {
	out := make(schema.VoltageSeries, count)
	for i := range out {
		out[i] = s.Next()
	}
	return out
}

func gauss(x, mu, sigma float64) float64 {
	z := (x - mu) / sigma
	return math.Exp(-0.5 * z * z)
}

func fract(x float64) float64 { return x - math.Floor(x) }

// SimOpener streams deterministic synthetic recordings. The same ID always
// yields the same samples.
type SimOpener struct {
	IDs          []string
	Duration     time.Duration
	HeartRate    float64
	Noise        float64
	SamplingRate float64
	FailAfter    int  // Emit a stream failure after this many samples (0 = never)
	Realtime     bool // Pace samples at the sampling rate
}

var _ contract.StreamOpener = &SimOpener{} // Compile-time check

// NewSimOpener creates a simulator opener from the validated config.
func NewSimOpener(cfg *contract.Config) *SimOpener {
	return &SimOpener{
		IDs:          cfg.RecordingIDs,
		Duration:     cfg.SimDuration,
		HeartRate:    cfg.SimHeartRate,
		Noise:        cfg.SimNoise,
		SamplingRate: cfg.SamplingRate,
		FailAfter:    cfg.SimFailAfter,
	}
}

// NewRecordingIDs returns n fresh random recording IDs.
func NewRecordingIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = uuid.NewString()
	}
	return ids
}

// Simulator returns the per-recording simulator. Heart rate and phase are
// jittered by a hash of the ID.
func (o *SimOpener) Simulator(rec schema.Recording) *ECGSim {
	h := fnv.New32a()
	_, _ = h.Write([]byte(rec.ID))
	seed := h.Sum32()

	fs := o.rate(rec)
	hr := o.HeartRate + float64(seed%11) - 5
	phase := float64(seed%1000) / 1000
	return NewECGSim(fs, hr, o.Noise, phase)
}

// SampleCount is the number of samples one simulated recording holds.
func (o *SimOpener) SampleCount(rec schema.Recording) int {
	return int(o.Duration.Seconds() * o.rate(rec))
}

func (o *SimOpener) rate(rec schema.Recording) float64 {
	switch {
	case rec.SamplingRate > 0:
		return rec.SamplingRate
	case o.SamplingRate > 0:
		return o.SamplingRate
	default:
		return schema.DefaultSamplingRate
	}
}

// Open implements the StreamOpener interface.
func (o *SimOpener) Open(ctx context.Context, rec schema.Recording) (contract.Stream, error) {
	if rec.ID == "" {
		return nil, fmt.Errorf("%w: empty recording id", contract.ErrUnknownSource)
	}
	sim := o.Simulator(rec)
	total := o.SampleCount(rec)

	em := newEmitter(ctx, 256)
	go func() {
		defer em.close()

		var limiter *rate.Limiter
		if o.Realtime {
			limiter = rate.NewLimiter(rate.Limit(o.rate(rec)), realtimeBurst)
		}

		for i := range total {
			if o.FailAfter > 0 && i == o.FailAfter {
				em.send(schema.Failure(ErrSimulatedFailure))
				return
			}
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					return
				}
			}
			if !em.send(schema.Sample(sim.Next())) {
				return
			}
		}
		em.send(schema.Complete())
	}()
	return em.stream(), nil
}

// List implements the StreamOpener interface.
// Start times are spaced one minute apart with the first ID newest.
func (o *SimOpener) List(_ context.Context) ([]schema.Recording, error) {
	now := time.Now().Truncate(time.Minute)
	recs := make([]schema.Recording, len(o.IDs))
	for i, id := range o.IDs {
		recs[i] = schema.Recording{
			ID:           id,
			Source:       string(schema.SimSource),
			SamplingRate: o.SamplingRate,
			StartTime:    now.Add(-time.Duration(i) * time.Minute),
		}
	}
	return recs, nil
}
