// Package publish has sinks that receive finished pipeline results.
package publish

import (
	"context"
	"errors"

	"github.com/huangsam/ecgscope/internal/contract"
	"github.com/huangsam/ecgscope/schema"
)

// Func adapts a function to contract.Publisher.
type Func func(ctx context.Context, result schema.PipelineResult) error

var _ contract.Publisher = Func(nil) // Compile-time check

// Publish implements the Publisher interface.
func (f Func) Publish(ctx context.Context, result schema.PipelineResult) error {
	return f(ctx, result)
}

// Multi fans a result out to several publishers. Every publisher is tried;
// the errors are joined.
type Multi []contract.Publisher

var _ contract.Publisher = Multi(nil) // Compile-time check

// Publish implements the Publisher interface.
func (m Multi) Publish(ctx context.Context, result schema.PipelineResult) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, result); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
