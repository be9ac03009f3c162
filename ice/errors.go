package ice

import "errors"

var (
	// ErrBadCandidate indicates a candidate could not be constructed from
	// the supplied address, port, component or related address.
	ErrBadCandidate = errors.New("bad candidate")

	// ErrLocalUfragInsufficientBits indicates local username fragment insufficient bits are provided.
	// Have to be at least 24 bits long
	ErrLocalUfragInsufficientBits = errors.New("local username fragment is less than 24 bits long")

	// ErrLocalPwdInsufficientBits indicates local passoword insufficient bits are provided.
	// Have to be at least 128 bits long
	ErrLocalPwdInsufficientBits = errors.New("local password is less than 128 bits long")

	// ErrClosed indicates the agent is closed
	ErrClosed = errors.New("the agent is closed")

	// ErrNoCandidatePairs indicates agent does not have a valid candidate pair
	ErrNoCandidatePairs = errors.New("no candidate pairs available")

	// ErrRemoteUfragEmpty indicates remote credentials were set with an empty ufrag
	ErrRemoteUfragEmpty = errors.New("remote ufrag is empty")

	// ErrRemotePwdEmpty indicates remote credentials were set with an empty pwd
	ErrRemotePwdEmpty = errors.New("remote pwd is empty")

	// ErrRoleChangeAfterStart indicates SetControlling was called once
	// connectivity checks had already been sent.
	ErrRoleChangeAfterStart = errors.New("role can not be changed after checks started")

	// ErrLocalPreferenceExhausted indicates the local preference band of a
	// candidate type has no free value left.
	ErrLocalPreferenceExhausted = errors.New("local preference band exhausted")

	// ErrNotSTUN indicates a received datagram is not a STUN message
	ErrNotSTUN = errors.New("datagram is not a STUN message")

	errRand = errors.New("failed to read random bytes")
)
