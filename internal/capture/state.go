package capture

// State is the lifecycle state of a Controller.
type State int

const (
	NotStarted State = iota
	Running
	Paused
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case Running:
		return "running"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}
