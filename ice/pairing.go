package ice

import (
	"sort"
)

func (a *Agent) addLocalCandidate(c *Candidate) (bool, error) {
	if a.lite && c.Type() != CandidateTypeHost {
		a.log.Debugf("Lite agent ignores local candidate %s", c)
		return false, nil
	}

	pref, err := a.localCandidates.nextLocalPreference(c.Type(), c.isIPv6())
	if err != nil {
		return false, err
	}
	c.setLocalPreference(pref)

	if idx, other := a.localCandidates.findRedundant(c); other != nil {
		if c.Priority() <= other.Priority() {
			a.log.Tracef("Local candidate %s is redundant with %s", c, other)
			return false, nil
		}
		a.log.Debugf("Local candidate %s replaces %s", c, other)
		a.discardLocal(idx)
	}

	idx := a.localCandidates.push(c)
	a.log.Debugf("Added local candidate %s (local preference %d)", c, pref)
	for remoteIdx, remote := range a.remoteCandidates.candidates {
		if !remote.discarded {
			a.formPair(idx, remoteIdx)
		}
	}
	a.sortChecklist()
	return true, nil
}

func (a *Agent) addRemoteCandidate(c *Candidate) (int, bool) {
	// the base of a remote candidate is not ours to know
	c.base = copyAddr(c.addr)

	if idx, other := a.remoteCandidates.findRedundant(c); other != nil {
		if c.Priority() <= other.Priority() {
			a.log.Tracef("Remote candidate %s is redundant with %s", c, other)
			return idx, false
		}
		a.log.Debugf("Remote candidate %s replaces %s", c, other)
		a.discardRemote(idx)
	}

	idx := a.remoteCandidates.push(c)
	a.log.Debugf("Added remote candidate %s", c)
	for localIdx, local := range a.localCandidates.candidates {
		if !local.discarded {
			a.formPair(localIdx, idx)
		}
	}
	a.sortChecklist()
	return idx, true
}

func (a *Agent) discardLocal(idx int) {
	a.localCandidates.get(idx).discarded = true
	a.removePairs(func(p *candidatePair) bool {
		return p.local == idx
	})
}

func (a *Agent) discardRemote(idx int) {
	a.remoteCandidates.get(idx).discarded = true
	a.removePairs(func(p *candidatePair) bool {
		return p.remote == idx
	})
}

func canPair(local, remote *Candidate) bool {
	return local.component == remote.component && local.isIPv6() == remote.isIPv6()
}

func (a *Agent) formPair(localIdx, remoteIdx int) *candidatePair {
	local, remote := a.localCandidates.get(localIdx), a.remoteCandidates.get(remoteIdx)
	if !canPair(local, remote) {
		return nil
	}
	if p := a.findPair(localIdx, remoteIdx); p != nil {
		return p
	}

	// checks of a reflexive candidate are sent from its base, the host
	// candidate already covers them
	if local.Type() == CandidateTypeServerReflexive || local.Type() == CandidateTypePeerReflexive {
		if _, host := a.localCandidates.find(func(c *Candidate) bool {
			return c.Type() == CandidateTypeHost && addrEqual(c.addr, local.base)
		}); host != nil {
			return nil
		}
	}

	p := newCandidatePair(localIdx, remoteIdx, local, remote, a.isControlling)
	if a.selectedPair != nil && p.priority < a.selectedPair.priority {
		a.log.Tracef("Not pairing %s with %s below the nominated pair", local, remote)
		return nil
	}

	p.state = CandidatePairStateWaiting
	if a.foundationActive(p.foundation) {
		p.state = CandidatePairStateFrozen
	}

	a.log.Tracef("Formed pair %s <-> %s (%s)", local, remote, p.state)
	a.checklist = append(a.checklist, p)
	return p
}

func (a *Agent) findPair(localIdx, remoteIdx int) *candidatePair {
	for _, p := range a.checklist {
		if p.local == localIdx && p.remote == remoteIdx {
			return p
		}
	}
	return nil
}

func (a *Agent) sortChecklist() {
	sort.SliceStable(a.checklist, func(i, j int) bool {
		return a.checklist[i].priority > a.checklist[j].priority
	})
}

func (a *Agent) foundationActive(foundation string) bool {
	for _, p := range a.checklist {
		if p.foundation == foundation && p.state.active() {
			return true
		}
	}
	return false
}

// removePairs drops every matching pair with its outstanding transaction.
// Losing the nominated pair pairs all remaining candidates again.
func (a *Agent) removePairs(match func(*candidatePair) bool) {
	nominatedLost := false
	kept := a.checklist[:0]
	for _, p := range a.checklist {
		if !match(p) {
			kept = append(kept, p)
			continue
		}
		p.removed = true
		if p.transaction != nil {
			delete(a.transactions, p.transaction.id)
			p.transaction = nil
		}
		if p == a.selectedPair {
			nominatedLost = true
		}
	}
	for i := len(kept); i < len(a.checklist); i++ {
		a.checklist[i] = nil
	}
	a.checklist = kept

	queue := a.triggeredQueue[:0]
	for _, p := range a.triggeredQueue {
		if !p.removed {
			queue = append(queue, p)
		}
	}
	a.triggeredQueue = queue

	if nominatedLost {
		a.log.Warnf("Nominated pair removed, pairing all candidates again")
		a.setSelectedPair(nil)
		a.consentLost = false
		a.repairAll()
	}
	a.unfreezeOrphans()
}

func (a *Agent) repairAll() {
	for localIdx, local := range a.localCandidates.candidates {
		if local.discarded {
			continue
		}
		for remoteIdx, remote := range a.remoteCandidates.candidates {
			if !remote.discarded {
				a.formPair(localIdx, remoteIdx)
			}
		}
	}
	a.sortChecklist()
}

// pruneBelow removes pairs that were not checked yet and rank below p.
func (a *Agent) pruneBelow(p *candidatePair) {
	a.removePairs(func(other *candidatePair) bool {
		return other.priority < p.priority &&
			(other.state == CandidatePairStateWaiting || other.state == CandidatePairStateFrozen)
	})
}

// unfreezeFoundation moves every frozen pair of the foundation to Waiting.
func (a *Agent) unfreezeFoundation(foundation string) {
	for _, p := range a.checklist {
		if p.foundation == foundation && p.state == CandidatePairStateFrozen {
			p.state = CandidatePairStateWaiting
		}
	}
}

// unfreezeOrphans wakes the best frozen pair of every foundation that has
// no pair left in Waiting or InProgress.
func (a *Agent) unfreezeOrphans() {
	for _, p := range a.checklist {
		if p.state == CandidatePairStateFrozen && !a.foundationActive(p.foundation) {
			p.state = CandidatePairStateWaiting
		}
	}
}
