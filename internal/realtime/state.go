package realtime

// State is the lifecycle stage of a realtime connection.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateOpen
	StateClosedRetrying
	StateClosedFinal
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateOpen:
		return "OPEN"
	case StateClosedRetrying:
		return "CLOSED_RETRYING"
	case StateClosedFinal:
		return "CLOSED_FINAL"
	default:
		return "UNKNOWN"
	}
}
