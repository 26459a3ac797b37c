package driver

// EventKind identifies a progress event.
type EventKind uint8

const (
	EventDiscovered EventKind = iota + 1 // Total is known
	EventFileStarted
	EventFileDone
	EventFileFailed // fail-fast or cancellation; the run stops
	EventDone
)

func (k EventKind) String() string {
	switch k {
	case EventDiscovered:
		return "discovered"
	case EventFileStarted:
		return "started"
	case EventFileDone:
		return "done"
	case EventFileFailed:
		return "failed"
	case EventDone:
		return "finished"
	}
	return "unknown"
}

// Event reports progress of a run.
type Event struct {
	Kind        EventKind
	Path        string
	Index       int
	Total       int
	Diagnostics int
	Err         error
}
