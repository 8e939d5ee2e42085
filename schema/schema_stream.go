package schema

// EventKind is the kind of event a device stream delivers.
type EventKind int

// Stream event kinds.
const (
	SampleEvent EventKind = iota
	CompleteEvent
	ErrorEvent
)

func (k EventKind) String() string {
	switch k {
	case SampleEvent:
		return "sample"
	case CompleteEvent:
		return "complete"
	case ErrorEvent:
		return "error"
	default:
		return "unknown"
	}
}

// StreamEvent is one push from a device stream: a sample, completion, or a failure.
type StreamEvent struct {
	Kind  EventKind
	Value float64 // Set for SampleEvent
	Err   error   // Set for ErrorEvent
}

// Sample builds a SampleEvent.
func Sample(v float64) StreamEvent { return StreamEvent{Kind: SampleEvent, Value: v} }

// Complete builds a CompleteEvent.
func Complete() StreamEvent { return StreamEvent{Kind: CompleteEvent} }

// Failure builds an ErrorEvent.
func Failure(err error) StreamEvent { return StreamEvent{Kind: ErrorEvent, Err: err} }
