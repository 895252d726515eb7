package stream

// State is the session connection state. The session controller owns the
// value; the Manager mutates it through the pointer it is handed.
type State int

const (
	Idle State = iota
	Connecting
	Streaming
	Reconnecting
	Stopping
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case Streaming:
		return "streaming"
	case Reconnecting:
		return "reconnecting"
	case Stopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Active reports whether a connection is open or being opened.
func (s State) Active() bool {
	return s == Connecting || s == Streaming
}
