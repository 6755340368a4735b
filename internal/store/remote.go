package store

// RemoteState tracks where a remotely-owned record is in its fetch
// lifecycle. NotRequested is the zero value and is distinct from
// NotFound: the first means "never asked", the second "asked, the
// server says it does not exist". Fetch gating depends on keeping the
// two apart.
type RemoteState int

const (
	NotRequested RemoteState = iota
	Loading
	Loaded
	NotFound
	Failed
)

func (s RemoteState) String() string {
	switch s {
	case NotRequested:
		return "not_requested"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case NotFound:
		return "not_found"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Remote wraps a record fetched from the API together with its fetch
// state. Value is non-nil only when State is Loaded.
type Remote[T any] struct {
	State RemoteState
	Value *T
	Err   error
}

func LoadedRemote[T any](v T) Remote[T] {
	return Remote[T]{State: Loaded, Value: &v}
}

func (r Remote[T]) Settled() bool {
	switch r.State {
	case Loaded, NotFound, Failed:
		return true
	default:
		return false
	}
}
