package session

// Event is a host lifecycle transition delivered to the session.
type Event int

const (
	Active Event = iota
	Inactive
	Background
	Suspend
)

func (e Event) String() string {
	switch e {
	case Active:
		return "active"
	case Inactive:
		return "inactive"
	case Background:
		return "background"
	case Suspend:
		return "suspend"
	default:
		return "unknown"
	}
}

// HandleLifecycle locks the vault on every transition away from the foreground.
// The host must deliver the event before it suspends; the lock completes
// before HandleLifecycle returns.
func (s *Session) HandleLifecycle(ev Event) {
	if ev == Active {
		return
	}
	s.Lock()
}
