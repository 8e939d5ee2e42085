package stream

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/huangsam/ecgscope/internal/contract"
	"github.com/huangsam/ecgscope/schema"
	"github.com/nats-io/nats.go"
)

// ErrorHeader carries a device failure on an otherwise empty message.
const ErrorHeader = "Ecg-Error"

// DefaultBatchSize is the number of samples packed into one NATS message.
const DefaultBatchSize = 64

// Connect dials NATS with reconnect settings suited to long-lived device streams.
func Connect(url, name string) (*nats.Conn, error) {
	return nats.Connect(
		url,
		nats.Name(name),
		nats.Timeout(3*time.Second),
		nats.ReconnectWait(500*time.Millisecond),
		nats.MaxReconnects(-1),
	)
}

// Subject returns the per-recording subject under prefix.
func Subject(prefix, recordingID string) string {
	return prefix + "." + recordingID
}

// EncodeBatch packs samples as little-endian float32 values.
func EncodeBatch(samples []float64) []byte {
	out := make([]byte, 4*len(samples))
	for i, v := range samples {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(float32(v)))
	}
	return out
}

// DecodeBatch unpacks little-endian float32 values. Trailing bytes that do not
// form a whole sample are an error.
func DecodeBatch(data []byte) ([]float64, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("batch length %d is not a multiple of 4", len(data))
	}
	out := make([]float64, len(data)/4)
	for i := range out {
		out[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:])))
	}
	return out, nil
}

// NATSOpener streams recordings published on <subject>.<id>.
// An empty message marks completion; a message with the ErrorHeader marks failure.
type NATSOpener struct {
	Conn       *nats.Conn
	Subject    string
	Recordings []schema.Recording // Known recordings, usually from a manifest
}

var _ contract.StreamOpener = &NATSOpener{} // Compile-time check

// NewNATSOpener creates an opener on an established connection.
func NewNATSOpener(nc *nats.Conn, subject string, recs []schema.Recording) *NATSOpener {
	return &NATSOpener{Conn: nc, Subject: subject, Recordings: recs}
}

// Open implements the StreamOpener interface.
func (o *NATSOpener) Open(ctx context.Context, rec schema.Recording) (contract.Stream, error) {
	subject := rec.Source
	if subject == "" {
		subject = Subject(o.Subject, rec.ID)
	}
	msgs := make(chan *nats.Msg, 256)
	sub, err := o.Conn.ChanSubscribe(subject, msgs)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}

	em := newEmitter(ctx, 1024)
	go func() {
		defer em.close()
		defer func() { _ = sub.Unsubscribe() }()

		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-msgs:
				if reason := msg.Header.Get(ErrorHeader); reason != "" {
					em.send(schema.Failure(errors.New(reason)))
					return
				}
				if len(msg.Data) == 0 {
					em.send(schema.Complete())
					return
				}
				samples, err := DecodeBatch(msg.Data)
				if err != nil {
					em.send(schema.Failure(err))
					return
				}
				for _, v := range samples {
					if !em.send(schema.Sample(v)) {
						return
					}
				}
			}
		}
	}()
	return em.stream(), nil
}

// List implements the StreamOpener interface. Subjects cannot be enumerated,
// so only the known recordings are returned.
func (o *NATSOpener) List(_ context.Context) ([]schema.Recording, error) {
	return o.Recordings, nil
}

// Producer publishes recordings onto NATS in the format NATSOpener consumes.
type Producer struct {
	Conn      *nats.Conn
	Subject   string
	BatchSize int
}

// NewProducer creates a producer with the default batch size.
func NewProducer(nc *nats.Conn, subject string) *Producer {
	return &Producer{Conn: nc, Subject: subject, BatchSize: DefaultBatchSize}
}

// PublishStream forwards every sample of a stream in batches, then the
// terminal completion or failure message.
func (p *Producer) PublishStream(ctx context.Context, recordingID string, s contract.Stream) error {
	subject := Subject(p.Subject, recordingID)
	batchSize := max(p.BatchSize, 1)
	buffer := make([]float64, 0, batchSize)

	flush := func() error {
		if len(buffer) == 0 {
			return nil
		}
		err := p.Conn.Publish(subject, EncodeBatch(buffer))
		buffer = buffer[:0]
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-s.Events():
			if !ok {
				if err := flush(); err != nil {
					return err
				}
				return p.Conn.Publish(subject, nil)
			}
			switch ev.Kind {
			case schema.SampleEvent:
				buffer = append(buffer, ev.Value)
				if len(buffer) >= batchSize {
					if err := flush(); err != nil {
						return err
					}
				}
			case schema.CompleteEvent:
				if err := flush(); err != nil {
					return err
				}
				return p.Conn.Publish(subject, nil)
			case schema.ErrorEvent:
				if err := flush(); err != nil {
					return err
				}
				msg := nats.NewMsg(subject)
				msg.Header.Set(ErrorHeader, fmt.Sprint(ev.Err))
				return p.Conn.PublishMsg(msg)
			}
		}
	}
}
