package ice

import (
	"fmt"
	"time"
)

type candidatePair struct {
	local  int
	remote int

	priority   uint64
	foundation string
	state      CandidatePairState

	nominated bool
	// nominating is set on the controlling side while a USE-CANDIDATE
	// check for this pair is being sent.
	nominating bool
	// nominateOnSuccess is set on the controlled side when USE-CANDIDATE
	// arrives before the pair's own check succeeded.
	nominateOnSuccess bool

	transaction *transaction
	authRetries int
	removed     bool

	requestsSent      uint64
	requestsReceived  uint64
	responsesReceived uint64
	rtt               time.Duration
	lastConsent       time.Time
	nextConsent       time.Time
}

func newCandidatePair(localIdx, remoteIdx int, local, remote *Candidate, controlling bool) *candidatePair {
	p := &candidatePair{
		local:      localIdx,
		remote:     remoteIdx,
		foundation: local.Foundation() + ":" + remote.Foundation(),
	}
	p.updatePriority(controlling, local, remote)
	return p
}

func (p *candidatePair) updatePriority(controlling bool, local, remote *Candidate) {
	if controlling {
		p.priority = pairPriority(local.Priority(), remote.Priority())
	} else {
		p.priority = pairPriority(remote.Priority(), local.Priority())
	}
}

// RFC 5245 - 5.7.2.  Computing Pair Priority and Ordering Pairs
// Let G be the priority for the candidate provided by the controlling
// agent.  Let D be the priority for the candidate provided by the
// controlled agent.
// pair priority = 2^32*MIN(G,D) + 2*MAX(G,D) + (G>D?1:0)
func pairPriority(g, d uint32) uint64 {
	localMin, localMax := g, d
	if d < g {
		localMin, localMax = d, g
	}
	var cmp uint64
	if g > d {
		cmp = 1
	}
	return (1<<32)*uint64(localMin) + 2*uint64(localMax) + cmp
}

// CandidatePair is a snapshot of a pair on the check list.
type CandidatePair struct {
	Local     Candidate
	Remote    Candidate
	Priority  uint64
	State     CandidatePairState
	Nominated bool
}

func (p CandidatePair) String() string {
	return fmt.Sprintf("prio %d (local, prio %d) %s <-> %s (remote, prio %d)",
		p.Priority, p.Local.Priority(), &p.Local, &p.Remote, p.Remote.Priority())
}
