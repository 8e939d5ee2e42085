package agg

import "sync/atomic"

// Collector counts samples as they are accumulated.
// A nil Collector is valid and counts nothing.
type Collector struct {
	count atomic.Int64
}

func (c *Collector) observe() {
	if c == nil {
		return
	}
	c.count.Add(1)
}

// Count returns the number of samples observed so far.
func (c *Collector) Count() int64 {
	if c == nil {
		return 0
	}
	return c.count.Load()
}
