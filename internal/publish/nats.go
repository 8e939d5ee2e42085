package publish

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/huangsam/ecgscope/internal/contract"
	"github.com/huangsam/ecgscope/schema"
	"github.com/nats-io/nats.go"
)

// NATSPublisher publishes results as JSON on <subject>.<profile>.<id>.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

var _ contract.Publisher = &NATSPublisher{} // Compile-time check

// NewNATSPublisher creates a publisher on an established connection.
func NewNATSPublisher(nc *nats.Conn, subject string) *NATSPublisher {
	return &NATSPublisher{conn: nc, subject: subject}
}

// ResultSubject returns the subject a result is published on.
func ResultSubject(prefix string, result schema.PipelineResult) string {
	return fmt.Sprintf("%s.%s.%s", prefix, result.Profile, result.RecordingID)
}

// Publish implements the Publisher interface.
func (p *NATSPublisher) Publish(_ context.Context, result schema.PipelineResult) error {
	b, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return p.conn.Publish(ResultSubject(p.subject, result), b)
}
