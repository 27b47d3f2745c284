package channel

// State is the connection lifecycle state of a Manager.
type State string

const (
	// StateDisconnected means no transport is open and no reconnect is
	// pending. It is the initial state and the terminal state after an
	// explicit Disconnect or after reconnect attempts are exhausted.
	StateDisconnected State = "disconnected"
	// StateConnecting means a dial is in flight.
	StateConnecting State = "connecting"
	// StateConnected means the transport is open and healthy.
	StateConnected State = "connected"
	// StateReconnectWait means the transport dropped unexpectedly and a
	// backoff timer is running before the next dial.
	StateReconnectWait State = "reconnect_wait"
)

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}
