package ice

import (
	"errors"
	"net"
	"time"

	"github.com/pion/stun"
)

// HandleReceive processes a datagram that arrived on the local transport
// address local from source. It returns ErrNotSTUN for anything that is
// not a STUN message so the caller can route it elsewhere. Malformed or
// unauthenticated messages are dropped.
func (a *Agent) HandleReceive(now time.Time, local, source *net.UDPAddr, raw []byte) error {
	if !stun.IsMessage(raw) {
		return ErrNotSTUN
	}

	m := &stun.Message{Raw: append([]byte(nil), raw...)}
	if err := m.Decode(); err != nil {
		a.log.Warnf("Failed to decode STUN message from %s: %v", source, err)
		return nil
	}

	err := a.run(func(a *Agent) {
		a.handleInbound(now, m, local, source)
		a.selectNomination(now)
		a.updateConnectionState()
	})
	if errors.Is(err, ErrClosed) {
		return nil
	}
	return err
}

func (a *Agent) handleInbound(now time.Time, m *stun.Message, local, source *net.UDPAddr) {
	if m.Type.Method != stun.MethodBinding {
		a.log.Tracef("Unhandled STUN method %s from %s", m.Type.Method, source)
		return
	}

	switch m.Type.Class {
	case stun.ClassRequest:
		a.handleBindingRequest(now, m, local, source)
	case stun.ClassSuccessResponse, stun.ClassErrorResponse:
		a.handleBindingResponse(now, m, local, source)
	default:
		a.log.Tracef("Ignoring %s from %s", m.Type, source)
	}
}

func (a *Agent) sendBindingError(m *stun.Message, code stun.ErrorCode, local, source *net.UDPAddr) {
	out, err := buildBindingError(m, code, a.localPwd)
	if err != nil {
		a.log.Warnf("Failed to build binding error: %v", err)
		return
	}
	a.transmit(local, source, out.Raw)
}

func (a *Agent) handleBindingRequest(now time.Time, m *stun.Message, localAddr, source *net.UDPAddr) {
	localIdx, local := a.localCandidates.findByAddr(localAddr)
	if local == nil {
		localIdx, local = a.localCandidates.find(func(c *Candidate) bool {
			return addrEqual(c.base, localAddr)
		})
	}
	if local == nil {
		a.log.Warnf("Discarding request from %s to unknown local address %s", source, localAddr)
		return
	}

	if err := assertInboundUsername(m, a.localUfrag, a.remoteUfrag); err != nil {
		a.log.Warnf("Discard message from (%s), %v", source, err)
		return
	}
	if err := assertInboundFingerprint(m); err != nil {
		a.log.Warnf("Discard message from (%s), %v", source, err)
		return
	}
	if err := assertInboundMessageIntegrity(m, []byte(a.localPwd)); err != nil {
		a.log.Warnf("Discard message from (%s), %v", source, err)
		return
	}

	// 7.3.1.1.  Detecting and Repairing Role Conflicts
	var control AttrControl
	if err := control.GetFrom(m); err == nil && control.Controlling == a.isControlling {
		// the agent with the larger tie-breaker stays controlling
		weWin := a.tieBreaker >= control.Tiebreaker
		if weWin == a.isControlling {
			a.log.Debugf("Role conflict with %s, answering 487", source)
			a.sendBindingError(m, stun.CodeRoleConflict, localAddr, source)
			return
		}
		a.setRole(!a.isControlling)
	}

	remoteIdx, remote := a.remoteCandidates.findByAddr(source)
	if remote == nil {
		var priority PriorityAttr
		if err := priority.GetFrom(m); err != nil {
			a.log.Warnf("Discard request from (%s) without priority, %v", source, err)
			a.sendBindingError(m, stun.CodeBadRequest, localAddr, source)
			return
		}

		prflx, err := newCandidate(candidateConfig{
			candidateType: CandidateTypePeerReflexive,
			component:     local.component,
			addr:          copyAddr(source),
			priority:      uint32(priority),
		})
		if err != nil {
			a.log.Errorf("Failed to create peer reflexive candidate: %s %v", source, err)
			return
		}
		a.log.Debugf("Adding a new peer-reflexive candidate: %s ", source)
		remoteIdx, _ = a.addRemoteCandidate(prflx)
	}

	out, err := buildBindingSuccess(m, source, a.localPwd)
	if err != nil {
		a.log.Warnf("Failed to build binding success: %v", err)
		return
	}
	a.transmit(localAddr, source, out.Raw)

	p := a.formPair(localIdx, remoteIdx)
	if p == nil {
		a.sortChecklist()
		return
	}
	a.sortChecklist()
	p.requestsReceived++

	useCandidate := !a.isControlling && UseCandidateAttr{}.IsSet(m)
	if a.lite {
		p.state = CandidatePairStateSucceeded
		if p == a.selectedPair {
			a.consentRefreshed(p, now)
		}
		if useCandidate {
			a.nominate(p, now)
		}
		return
	}

	if useCandidate {
		if p.state == CandidatePairStateSucceeded {
			a.nominate(p, now)
		} else {
			p.nominateOnSuccess = true
		}
	}

	switch p.state {
	case CandidatePairStateFailed:
		// answered above, but a failed pair is never checked again
		a.log.Tracef("Request on failed pair %s", a.describePair(p))
	case CandidatePairStateWaiting, CandidatePairStateFrozen:
		p.state = CandidatePairStateWaiting
		a.enqueueTriggered(p)
	}
}

func (a *Agent) handleBindingResponse(now time.Time, m *stun.Message, localAddr, source *net.UDPAddr) {
	tx, ok := a.transactions[m.TransactionID]
	if !ok {
		a.log.Tracef("Discard response from (%s), unknown TransactionID 0x%x", source, m.TransactionID)
		return
	}

	if m.Contains(stun.AttrMessageIntegrity) {
		if err := assertInboundMessageIntegrity(m, []byte(a.remotePwd)); err != nil {
			a.log.Warnf("Discard message from (%s), %v", source, err)
			return
		}
	} else if m.Type.Class != stun.ClassErrorResponse {
		a.log.Warnf("Discard response from (%s) without integrity", source)
		return
	}

	p := tx.pair
	a.finishTransaction(tx)
	p.responsesReceived++
	p.rtt = now.Sub(tx.sentAt)

	local, remote := a.localCandidates.get(p.local), a.remoteCandidates.get(p.remote)
	if !addrEqual(source, remote.addr) || !addrEqual(localAddr, local.base) {
		a.log.Debugf("Asymmetric response for %s from %s to %s", a.describePair(p), source, localAddr)
		if tx.kind != transactionConsent {
			p.nominating = false
			a.pairFailed(p)
		}
		return
	}

	if m.Type.Class == stun.ClassErrorResponse {
		a.handleErrorResponse(now, m, tx)
		return
	}

	var mapped stun.XORMappedAddress
	if err := mapped.GetFrom(m); err == nil {
		a.learnLocalPeerReflexive(local, &net.UDPAddr{IP: mapped.IP, Port: mapped.Port})
	}

	switch tx.kind {
	case transactionConsent:
		a.consentRefreshed(p, now)
	case transactionNomination:
		a.nominate(p, now)
	default:
		p.state = CandidatePairStateSucceeded
		a.unfreezeFoundation(p.foundation)
		if (tx.useCandidate && a.isControlling) || (p.nominateOnSuccess && !a.isControlling) {
			a.nominate(p, now)
		}
	}
}

func (a *Agent) handleErrorResponse(now time.Time, m *stun.Message, tx *transaction) {
	p := tx.pair
	var code stun.ErrorCodeAttribute
	if err := code.GetFrom(m); err != nil {
		a.log.Warnf("Error response without error code on %s: %v", a.describePair(p), err)
	}
	if tx.kind == transactionConsent {
		a.log.Debugf("Consent error %d on %s", code.Code, a.describePair(p))
		return
	}

	switch code.Code {
	case stun.CodeRoleConflict:
		a.log.Debugf("Role conflict reported on %s", a.describePair(p))
		if a.isControlling == tx.controlling {
			a.setRole(!tx.controlling)
		}
		a.retryPair(p, tx, now)
	case stun.CodeUnauthorized:
		p.authRetries++
		if p.authRetries > a.maxAuthRetries {
			a.log.Debugf("Giving up on %s after %d unauthorized responses", a.describePair(p), p.authRetries-1)
			p.nominating = false
			a.pairFailed(p)
			return
		}
		a.retryPair(p, tx, now)
	default:
		a.log.Debugf("Binding error %d on %s", code.Code, a.describePair(p))
		p.nominating = false
		a.pairFailed(p)
	}
}

// retryPair schedules a check again after a recoverable error response.
func (a *Agent) retryPair(p *candidatePair, tx *transaction, now time.Time) {
	if tx.kind == transactionNomination {
		if !a.isControlling {
			p.nominating = false
			return
		}
		a.sendRequest(p, transactionNomination, now)
		return
	}
	p.state = CandidatePairStateWaiting
	a.enqueueTriggered(p)
}

// learnLocalPeerReflexive adds the mapped address as a local peer
// reflexive candidate when it matches no local candidate.
func (a *Agent) learnLocalPeerReflexive(local *Candidate, mapped *net.UDPAddr) {
	if _, known := a.localCandidates.findByAddr(mapped); known != nil {
		return
	}

	prflx, err := newCandidate(candidateConfig{
		candidateType: CandidateTypePeerReflexive,
		component:     local.component,
		addr:          mapped,
		base:          copyAddr(local.base),
		related: &CandidateRelatedAddress{
			Address: local.base.IP.String(),
			Port:    local.base.Port,
		},
	})
	if err != nil {
		a.log.Debugf("Not learning peer reflexive candidate %s: %v", mapped, err)
		return
	}
	if added, err := a.addLocalCandidate(prflx); err != nil {
		a.log.Warnf("Failed to add peer reflexive candidate %s: %v", mapped, err)
	} else if added {
		a.log.Debugf("Learned local peer-reflexive candidate %s", prflx)
	}
}
