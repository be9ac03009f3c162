package ice

import "net"

// Event is produced by the agent and drained with PollEvent.
type Event interface {
	iceEvent()
}

// TransmitEvent asks the caller to send Payload from the local transport
// address Source to Destination.
type TransmitEvent struct {
	Source      *net.UDPAddr
	Destination *net.UDPAddr
	Payload     []byte
}

// ConnectionStateChangeEvent reports a new ConnectionState.
type ConnectionStateChangeEvent struct {
	State ConnectionState
}

// NominatedPairEvent reports the pair media should flow over.
type NominatedPairEvent struct {
	Pair CandidatePair
}

func (TransmitEvent) iceEvent()              {}
func (ConnectionStateChangeEvent) iceEvent() {}
func (NominatedPairEvent) iceEvent()         {}
