package recentlog

import "fmt"

// State describes the watcher lifecycle.
//
// STOPPED → SCANNING on start (cold-start scan), SCANNING → IDLE when a scan
// completes, IDLE → SCANNING on every poll tick, any state → ERROR when the
// log is unreadable (retried on the next tick), any state → STOPPED on
// shutdown. STOPPED is terminal.
type State uint8

const (
	// StateStopped means the watcher is not polling.
	StateStopped State = iota
	// StateScanning means a scan of the recent log is in progress.
	StateScanning
	// StateIdle means the last scan completed and the next tick is pending.
	StateIdle
	// StateErrored means the last scan could not read the log.
	StateErrored
)

// String returns a stable string representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "STOPPED"
	case StateScanning:
		return "SCANNING"
	case StateIdle:
		return "IDLE"
	case StateErrored:
		return "ERROR"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}
