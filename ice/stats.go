package ice

import "time"

// CandidatePairStats contains ICE candidate pair statistics
type CandidatePairStats struct {
	// Timestamp is the timestamp associated with this object.
	Timestamp time.Time

	// LocalCandidateID is the ID of the local candidate
	LocalCandidateID string

	// RemoteCandidateID is the ID of the remote candidate
	RemoteCandidateID string

	// State represents the state of the checklist for the local and remote
	// candidates in a pair.
	State CandidatePairState

	// Nominated is true when this valid pair that should be used for media
	// if it is the highest-priority one amongst those whose nominated flag is set
	Nominated bool

	// Priority of the pair on the check list
	Priority uint64

	// CurrentRoundTripTime represents the latest round trip time measured in seconds.
	CurrentRoundTripTime float64

	// RequestsReceived represents the total number of connectivity check requests
	// received (including retransmissions).
	RequestsReceived uint64

	// RequestsSent represents the total number of connectivity check requests
	// sent, retransmissions included.
	RequestsSent uint64

	// ResponsesReceived represents the total number of connectivity check responses received.
	ResponsesReceived uint64
}
