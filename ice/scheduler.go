package ice

import (
	"time"
)

// HandleTimeout advances the agent to now: retransmits or fails
// outstanding transactions, sends the next paced check, nominates and
// refreshes consent on the nominated pair.
func (a *Agent) HandleTimeout(now time.Time) {
	_ = a.run(func(a *Agent) {
		a.handleTransactionTimeouts(now)
		a.checkConsent(now)
		a.scheduleCheck(now)
		a.selectNomination(now)
		a.updateConnectionState()
	})
}

// PollTimeout returns when HandleTimeout should be called next. It
// reports false when the agent has nothing to wait for.
func (a *Agent) PollTimeout() (time.Time, bool) {
	var next time.Time
	have := false
	consider := func(t time.Time) {
		if !have || t.Before(next) {
			next, have = t, true
		}
	}

	_ = a.run(func(a *Agent) {
		for _, p := range a.checklist {
			if p.transaction != nil {
				consider(p.transaction.deadline)
			}
		}
		if a.hasPendingChecks() {
			consider(a.nextCheck)
		}
		if a.waitingForSelection() && a.nominationPending() == nil && a.bestSucceeded() != nil {
			consider(a.checksStartedAt.Add(a.candidateSelectionTimeout))
		}
		if p := a.selectedPair; p != nil {
			if !a.lite && p.transaction == nil {
				consider(p.nextConsent)
			}
			if !a.consentLost {
				consider(p.lastConsent.Add(a.disconnectedTimeout))
			}
		}
	})
	return next, have
}

func (a *Agent) canCheck() bool {
	return !a.lite && a.remoteUfrag != "" && a.remotePwd != ""
}

func (a *Agent) outstandingTransactions() int {
	return len(a.transactions)
}

func (a *Agent) hasPendingChecks() bool {
	if !a.canCheck() || a.outstandingTransactions() >= a.maxOutstandingChecks {
		return false
	}
	for _, p := range a.triggeredQueue {
		if !p.removed && p.transaction == nil && !p.state.terminal() {
			return true
		}
	}
	for _, p := range a.checklist {
		if p.transaction != nil {
			continue
		}
		if p.state == CandidatePairStateWaiting ||
			(p.state == CandidatePairStateFrozen && !a.foundationActive(p.foundation)) {
			return true
		}
	}
	return false
}

func (a *Agent) handleTransactionTimeouts(now time.Time) {
	for _, p := range a.checklist {
		tx := p.transaction
		if tx == nil || now.Before(tx.deadline) {
			continue
		}

		if tx.sends >= a.maxBindingRequests {
			a.log.Tracef("%s transaction timed out on pair %s", tx.kind, a.describePair(p))
			a.finishTransaction(tx)
			a.transactionTimedOut(tx)
			continue
		}

		tx.rto *= 2
		if tx.rto > a.maxRTO {
			tx.rto = a.maxRTO
		}
		tx.deadline = now.Add(tx.rto)
		tx.sends++
		p.requestsSent++
		local, remote := a.localCandidates.get(p.local), a.remoteCandidates.get(p.remote)
		a.transmit(local.base, remote.addr, tx.raw)
	}
}

func (a *Agent) transactionTimedOut(tx *transaction) {
	p := tx.pair
	switch tx.kind {
	case transactionConsent:
		// consent expiry is tracked by time since the last response
	case transactionNomination:
		p.nominating = false
		a.pairFailed(p)
	default:
		a.pairFailed(p)
	}
}

func (a *Agent) pairFailed(p *candidatePair) {
	a.log.Debugf("Pair %s failed", a.describePair(p))
	p.state = CandidatePairStateFailed
	a.unfreezeOrphans()
}

func (a *Agent) finishTransaction(tx *transaction) {
	delete(a.transactions, tx.id)
	if tx.pair.transaction == tx {
		tx.pair.transaction = nil
	}
}

func (a *Agent) scheduleCheck(now time.Time) {
	if !a.canCheck() || now.Before(a.nextCheck) {
		return
	}
	if a.outstandingTransactions() >= a.maxOutstandingChecks {
		return
	}

	p := a.nextPairToCheck()
	if p == nil {
		return
	}
	if a.sendRequest(p, transactionCheck, now) {
		a.nextCheck = now.Add(a.timingAdvance)
	}
}

// nextPairToCheck prefers triggered checks, then the best Waiting pair,
// then unfreezes the best Frozen pair.
func (a *Agent) nextPairToCheck() *candidatePair {
	for len(a.triggeredQueue) > 0 {
		p := a.triggeredQueue[0]
		a.triggeredQueue[0] = nil
		a.triggeredQueue = a.triggeredQueue[1:]
		if !p.removed && p.transaction == nil && !p.state.terminal() {
			return p
		}
	}

	for _, p := range a.checklist {
		if p.state == CandidatePairStateWaiting && p.transaction == nil {
			return p
		}
	}

	for _, p := range a.checklist {
		if p.state == CandidatePairStateFrozen && p.transaction == nil && !a.foundationActive(p.foundation) {
			p.state = CandidatePairStateWaiting
			return p
		}
	}
	return nil
}

func (a *Agent) enqueueTriggered(p *candidatePair) {
	for _, queued := range a.triggeredQueue {
		if queued == p {
			return
		}
	}
	a.triggeredQueue = append(a.triggeredQueue, p)
}

// sendRequest starts a transaction of the given kind on p.
func (a *Agent) sendRequest(p *candidatePair, kind transactionKind, now time.Time) bool {
	if p.transaction != nil {
		return false
	}

	id, err := randTransactionID(a.rand)
	if err != nil {
		a.log.Errorf("Failed to create transaction: %v", err)
		return false
	}

	local, remote := a.localCandidates.get(p.local), a.remoteCandidates.get(p.remote)
	useCandidate := a.isControlling && kind != transactionConsent &&
		(kind == transactionNomination || a.nominationMode == NominationAggressive)

	msg, err := bindingRequest{
		id:           id,
		username:     a.remoteUfrag + ":" + a.localUfrag,
		password:     a.remotePwd,
		priority:     local.peerReflexivePriority(),
		control:      AttrControl{Controlling: a.isControlling, Tiebreaker: a.tieBreaker},
		useCandidate: useCandidate,
	}.build()
	if err != nil {
		a.log.Warnf("Failed to build binding request: %v", err)
		return false
	}

	tx := &transaction{
		id:           id,
		kind:         kind,
		pair:         p,
		raw:          msg.Raw,
		controlling:  a.isControlling,
		useCandidate: useCandidate,
		sentAt:       now,
		deadline:     now.Add(a.initialRTO),
		rto:          a.initialRTO,
		sends:        1,
	}
	a.transactions[id] = tx
	p.transaction = tx
	p.requestsSent++
	if kind == transactionCheck {
		p.state = CandidatePairStateInProgress
	}
	if !a.started {
		a.started = true
		a.checksStartedAt = now
	}

	a.log.Tracef("Sending %s to %s (use-candidate %v)", kind, a.describePair(p), useCandidate)
	a.transmit(local.base, remote.addr, msg.Raw)
	return true
}

func (a *Agent) waitingForSelection() bool {
	return a.isControlling && !a.lite && a.nominationMode == NominationRegular &&
		a.selectedPair == nil && a.started
}

// selectNomination picks the pair the controlling agent nominates in
// regular mode: the best succeeded pair once no better pair is pending,
// or once the selection timeout passed.
func (a *Agent) selectNomination(now time.Time) {
	if !a.waitingForSelection() {
		return
	}

	if p := a.nominationPending(); p != nil {
		if p.transaction == nil {
			a.sendRequest(p, transactionNomination, now)
		}
		return
	}

	best := a.bestSucceeded()
	if best == nil {
		return
	}
	pending := false
	for _, p := range a.checklist {
		if p == best {
			break
		}
		if !p.state.terminal() {
			pending = true
		}
	}
	if pending && now.Sub(a.checksStartedAt) < a.candidateSelectionTimeout {
		return
	}
	if best.transaction != nil {
		return
	}

	a.log.Debugf("Nominating pair %s", a.describePair(best))
	best.nominating = true
	a.sendRequest(best, transactionNomination, now)
}

func (a *Agent) nominationPending() *candidatePair {
	for _, p := range a.checklist {
		if p.nominating {
			return p
		}
	}
	return nil
}

func (a *Agent) bestSucceeded() *candidatePair {
	for _, p := range a.checklist {
		if p.state == CandidatePairStateSucceeded {
			return p
		}
	}
	return nil
}

func (a *Agent) nominate(p *candidatePair, now time.Time) {
	if a.selectedPair == p {
		return
	}
	if a.selectedPair != nil {
		if p.priority <= a.selectedPair.priority {
			return
		}
		a.selectedPair.nominated = false
	}

	a.log.Infof("Nominated pair %s", a.describePair(p))
	p.nominated = true
	p.nominating = false
	p.nominateOnSuccess = false
	p.lastConsent = now
	p.nextConsent = now.Add(a.keepaliveInterval)
	a.consentLost = false
	a.setSelectedPair(p)
	a.pruneBelow(p)
}

func (a *Agent) setSelectedPair(p *candidatePair) {
	a.selectedPair = p
	if p == nil {
		a.selected.Store((*CandidatePair)(nil))
		return
	}

	snapshot := a.pairSnapshot(p)
	a.selected.Store(&snapshot)
	a.events = append(a.events, NominatedPairEvent{Pair: snapshot})
}

// checkConsent refreshes consent on the nominated pair and flags the
// agent disconnected when responses stop.
func (a *Agent) checkConsent(now time.Time) {
	p := a.selectedPair
	if p == nil {
		return
	}

	if !a.consentLost && now.Sub(p.lastConsent) >= a.disconnectedTimeout {
		a.log.Warnf("Consent expired on pair %s", a.describePair(p))
		a.consentLost = true
	}

	if a.lite || p.transaction != nil || now.Before(p.nextConsent) {
		return
	}
	if a.sendRequest(p, transactionConsent, now) {
		p.nextConsent = now.Add(a.keepaliveInterval)
	}
}

func (a *Agent) consentRefreshed(p *candidatePair, now time.Time) {
	p.lastConsent = now
	if a.consentLost && p == a.selectedPair {
		a.log.Infof("Consent restored on pair %s", a.describePair(p))
		a.consentLost = false
	}
}

func (a *Agent) describePair(p *candidatePair) string {
	snapshot := a.pairSnapshot(p)
	return snapshot.String()
}
