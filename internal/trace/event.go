package trace

import "time"

// Kind represents the type of trace event.
type Kind uint8

const (
	// KindSpanBegin marks the start of an operation.
	KindSpanBegin Kind = iota + 1
	// KindSpanEnd marks the end of an operation.
	KindSpanEnd
	// KindPoint is an instant event.
	KindPoint
	// KindHeartbeat is a periodic liveness signal.
	KindHeartbeat
)

func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	case KindHeartbeat:
		return "heartbeat"
	default:
		return "unknown"
	}
}

// Scope is the granularity of an event; lower values are coarser.
type Scope uint8

const (
	// ScopeRequest covers one resolver request or a whole index run.
	ScopeRequest Scope = iota + 1
	// ScopeTier covers one resolution tier or completion layer.
	ScopeTier
	// ScopeSearch covers one project-wide text search.
	ScopeSearch
	// ScopeCache covers per-file cache work.
	ScopeCache
)

func (s Scope) String() string {
	switch s {
	case ScopeRequest:
		return "request"
	case ScopeTier:
		return "tier"
	case ScopeSearch:
		return "search"
	case ScopeCache:
		return "cache"
	default:
		return "unknown"
	}
}

// Event is a single trace record.
type Event struct {
	Time     time.Time
	Seq      uint64 // global, monotonic
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64 // 0 for roots
	GID      uint64 // goroutine that emitted the event
	Name     string // e.g. "definition", "search", "cache:update-all"
	Detail   string
	Extra    map[string]string
}
