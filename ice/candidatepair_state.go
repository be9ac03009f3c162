package ice

// CandidatePairState represent the ICE candidate pair state
type CandidatePairState int

const (
	// CandidatePairStateFrozen means a check for this pair hasn't been
	// performed, and it can't yet be performed until some other check
	// succeeds, allowing this pair to unfreeze and move into the Waiting
	// state.
	CandidatePairStateFrozen CandidatePairState = iota + 1

	// CandidatePairStateWaiting means a check has not been performed for
	// this pair, and can be performed as soon as it is the highest-priority
	// Waiting pair on the check list.
	CandidatePairStateWaiting

	// CandidatePairStateInProgress means a check has been sent for this pair,
	// but the transaction is in progress.
	CandidatePairStateInProgress

	// CandidatePairStateFailed means a check for this pair was already done
	// and failed, either never producing any response or producing an
	// unrecoverable failure response.
	CandidatePairStateFailed

	// CandidatePairStateSucceeded means a check for this pair was already
	// done and produced a successful result.
	CandidatePairStateSucceeded
)

func (c CandidatePairState) String() string {
	switch c {
	case CandidatePairStateFrozen:
		return "frozen"
	case CandidatePairStateWaiting:
		return "waiting"
	case CandidatePairStateInProgress:
		return "in-progress"
	case CandidatePairStateFailed:
		return "failed"
	case CandidatePairStateSucceeded:
		return "succeeded"
	}
	return "Unknown candidate pair state"
}

func (c CandidatePairState) terminal() bool {
	return c == CandidatePairStateFailed || c == CandidatePairStateSucceeded
}

func (c CandidatePairState) active() bool {
	return c == CandidatePairStateWaiting || c == CandidatePairStateInProgress
}
