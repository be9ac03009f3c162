package ice

// ConnectionState is an enum showing the state of a ICE Connection
type ConnectionState int

// List of supported States
const (
	// ConnectionStateNew ICE agent is gathering addresses
	ConnectionStateNew ConnectionState = iota + 1

	// ConnectionStateChecking ICE agent has been given local and remote candidates, and is attempting to find a match
	ConnectionStateChecking

	// ConnectionStateConnected ICE agent has a pairing, but is still checking other pairs
	ConnectionStateConnected

	// ConnectionStateCompleted ICE agent has finished
	ConnectionStateCompleted

	// ConnectionStateFailed ICE agent never could successfully connect
	ConnectionStateFailed

	// ConnectionStateDisconnected ICE agent connected successfully, but has entered a failed state
	ConnectionStateDisconnected

	// ConnectionStateClosed ICE agent has finished and is no longer handling requests
	ConnectionStateClosed
)

func (c ConnectionState) String() string {
	switch c {
	case ConnectionStateNew:
		return "New"
	case ConnectionStateChecking:
		return "Checking"
	case ConnectionStateConnected:
		return "Connected"
	case ConnectionStateCompleted:
		return "Completed"
	case ConnectionStateFailed:
		return "Failed"
	case ConnectionStateDisconnected:
		return "Disconnected"
	case ConnectionStateClosed:
		return "Closed"
	default:
		return "Invalid"
	}
}

// nextConnectionState derives the state from the check list. Failed and
// Closed are only left for Closed.
func (a *Agent) nextConnectionState() ConnectionState {
	current := a.connectionState
	if current == ConnectionStateClosed || current == ConnectionStateFailed {
		return current
	}

	gatheringDone := a.localGatheringComplete && a.remoteGatheringComplete
	allFailed, allTerminal := true, true
	for _, p := range a.checklist {
		if p.state != CandidatePairStateFailed {
			allFailed = false
		}
		if !p.state.terminal() {
			allTerminal = false
		}
	}

	switch {
	case a.selectedPair != nil && a.consentLost:
		return ConnectionStateDisconnected
	case a.selectedPair != nil && (current == ConnectionStateCompleted || (gatheringDone && allTerminal)):
		return ConnectionStateCompleted
	case a.selectedPair != nil:
		return ConnectionStateConnected
	case gatheringDone && allFailed && current != ConnectionStateNew:
		return ConnectionStateFailed
	case current == ConnectionStateCompleted || current == ConnectionStateDisconnected:
		// The nominated pair of a completed agent went away. Completed never
		// moves back to Checking, so the agent reports Disconnected while the
		// remaining pairs are rechecked.
		return ConnectionStateDisconnected
	case current == ConnectionStateNew && len(a.checklist) == 0:
		return ConnectionStateNew
	}
	return ConnectionStateChecking
}

func (a *Agent) updateConnectionState() {
	newState := a.nextConnectionState()
	if a.connectionState == newState {
		return
	}

	a.log.Infof("Setting new connection state: %s", newState)
	a.connectionState = newState
	a.state.Store(newState)
	a.events = append(a.events, ConnectionStateChangeEvent{State: newState})
}
