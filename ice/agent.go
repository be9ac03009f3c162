// Package ice implements the Interactive Connectivity Establishment (ICE)
// protocol defined in rfc8445 as a sans-IO state machine. The agent never
// touches a socket or a clock: the caller feeds it datagrams and ticks and
// drains the events it produces.
package ice

import (
	"crypto/rand"
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/pion/logging"
	"github.com/pion/stun"
)

// Agent represents the ICE agent
type Agent struct {
	// Lock for transactional operations on Agent. Unlike a mutex
	// all queued lock attempts are canceled when .Close() is called
	muChan chan struct{}
	done   chan struct{}

	// state and selected are readable without taking the lock
	state    atomic.Value // ConnectionState
	selected atomic.Value // *CandidatePair

	lite           bool
	isControlling  bool
	tieBreaker     uint64
	nominationMode NominationMode

	// started is set once the first check was sent
	started         bool
	checksStartedAt time.Time

	localUfrag  string
	localPwd    string
	remoteUfrag string
	remotePwd   string

	localTimingAdvance        time.Duration
	timingAdvance             time.Duration
	maxBindingRequests        uint16
	maxAuthRetries            int
	maxOutstandingChecks      int
	initialRTO                time.Duration
	maxRTO                    time.Duration
	keepaliveInterval         time.Duration
	disconnectedTimeout       time.Duration
	candidateSelectionTimeout time.Duration

	localCandidates  candidateStore
	remoteCandidates candidateStore

	// checklist is kept sorted by descending pair priority
	checklist      []*candidatePair
	triggeredQueue []*candidatePair
	transactions   map[[stun.TransactionIDSize]byte]*transaction
	nextCheck      time.Time

	selectedPair *candidatePair
	consentLost  bool

	localGatheringComplete  bool
	remoteGatheringComplete bool

	connectionState ConnectionState
	events          []Event

	rand io.Reader
	log  logging.LeveledLogger
}

func (a *Agent) ok() error {
	select {
	case <-a.done:
		return ErrClosed
	default:
	}
	return nil
}

// Run an operation with the the lock taken
// If the agent is closed return an error
func (a *Agent) run(t func(*Agent)) error {
	if err := a.ok(); err != nil {
		return err
	}

	select {
	case <-a.done:
		return ErrClosed
	case a.muChan <- struct{}{}:
		var err error
		select {
		case <-a.done:
			// Ensure the agent is not closed
			err = ErrClosed
		default:
			t(a)
		}
		<-a.muChan
		return err
	}
}

// NewAgent creates a new Agent
func NewAgent(config *AgentConfig) (*Agent, error) {
	if config == nil {
		config = &AgentConfig{}
	}

	r := config.Rand
	if r == nil {
		r = rand.Reader
	}

	loggerFactory := config.LoggerFactory
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}

	a := &Agent{
		muChan:          make(chan struct{}, 1),
		done:            make(chan struct{}),
		lite:            config.Lite,
		isControlling:   config.Controlling,
		nominationMode:  config.NominationMode,
		transactions:    map[[stun.TransactionIDSize]byte]*transaction{},
		connectionState: ConnectionStateNew,
		rand:            r,
		log:             loggerFactory.NewLogger("ice"),
	}
	a.state.Store(ConnectionStateNew)
	a.selected.Store((*CandidatePair)(nil))
	a.initWithDefaults(config)

	var err error
	// local username fragment and password
	if a.localUfrag, err = randSeq(r, lenUFrag); err != nil {
		return nil, err
	}
	if a.localPwd, err = randSeq(r, lenPwd); err != nil {
		return nil, err
	}
	if a.tieBreaker, err = randUint64(r); err != nil {
		return nil, err
	}

	if config.LocalUfrag != "" {
		if len([]rune(config.LocalUfrag))*8 < 24 {
			return nil, ErrLocalUfragInsufficientBits
		}
		a.localUfrag = config.LocalUfrag
	}

	if config.LocalPwd != "" {
		if len([]rune(config.LocalPwd))*8 < 128 {
			return nil, ErrLocalPwdInsufficientBits
		}
		a.localPwd = config.LocalPwd
	}

	return a, nil
}

// Username returns the local username fragment
func (a *Agent) Username() string {
	return a.localUfrag
}

// Password returns the local password
func (a *Agent) Password() string {
	return a.localPwd
}

// GetLocalUserCredentials returns the local user credentials
func (a *Agent) GetLocalUserCredentials() (frag string, pwd string) {
	return a.localUfrag, a.localPwd
}

// Lite reports whether the agent runs as an ice-lite implementation
func (a *Agent) Lite() bool {
	return a.lite
}

// Controlling reports the current role
func (a *Agent) Controlling() bool {
	controlling := false
	_ = a.run(func(a *Agent) {
		controlling = a.isControlling
	})
	return controlling
}

// SetControlling sets the role. It fails once checks were sent.
func (a *Agent) SetControlling(controlling bool) error {
	var err error
	if runErr := a.run(func(a *Agent) {
		if a.isControlling == controlling {
			return
		}
		if a.started {
			err = ErrRoleChangeAfterStart
			return
		}
		a.setRole(controlling)
	}); runErr != nil {
		return runErr
	}
	return err
}

// SetRemoteCredentials sets the credentials of the remote agent
func (a *Agent) SetRemoteCredentials(remoteUfrag, remotePwd string) error {
	switch {
	case remoteUfrag == "":
		return ErrRemoteUfragEmpty
	case remotePwd == "":
		return ErrRemotePwdEmpty
	}

	return a.run(func(a *Agent) {
		a.remoteUfrag = remoteUfrag
		a.remotePwd = remotePwd
	})
}

// TimingAdvance returns the pacing interval currently in use
func (a *Agent) TimingAdvance() time.Duration {
	ta := a.localTimingAdvance
	_ = a.run(func(a *Agent) {
		ta = a.timingAdvance
	})
	return ta
}

// SetRemoteTimingAdvance takes the Ta proposed by the peer. The larger of
// both values wins.
func (a *Agent) SetRemoteTimingAdvance(ta time.Duration) error {
	return a.run(func(a *Agent) {
		if ta > a.localTimingAdvance {
			a.timingAdvance = ta
		} else {
			a.timingAdvance = a.localTimingAdvance
		}
	})
}

// AddLocalCandidate adds a gathered candidate. The agent assigns its local
// preference. It reports false when the candidate is redundant or not
// usable by this agent.
func (a *Agent) AddLocalCandidate(c *Candidate) (bool, error) {
	if c == nil {
		return false, ErrBadCandidate
	}

	var added bool
	var err error
	if runErr := a.run(func(a *Agent) {
		added, err = a.addLocalCandidate(c.clone())
		a.updateConnectionState()
	}); runErr != nil {
		return false, runErr
	}
	return added, err
}

// AddRemoteCandidate adds a candidate signaled by the peer.
func (a *Agent) AddRemoteCandidate(c *Candidate) (bool, error) {
	if c == nil {
		return false, ErrBadCandidate
	}

	var added bool
	if err := a.run(func(a *Agent) {
		_, added = a.addRemoteCandidate(c.clone())
		a.updateConnectionState()
	}); err != nil {
		return false, err
	}
	return added, nil
}

// InvalidateCandidate discards the local candidate with the same address,
// base and related address as c, together with its pairs.
// It reports false when no such candidate is present.
func (a *Agent) InvalidateCandidate(c *Candidate) bool {
	if c == nil {
		return false
	}

	invalidated := false
	_ = a.run(func(a *Agent) {
		idx, local := a.localCandidates.find(c.sameAddresses)
		if local == nil {
			return
		}
		a.log.Debugf("Invalidating local candidate %s", local)
		a.discardLocal(idx)
		a.updateConnectionState()
		invalidated = true
	})
	return invalidated
}

// SetLocalGatheringComplete marks the end of local candidate gathering
func (a *Agent) SetLocalGatheringComplete() error {
	return a.run(func(a *Agent) {
		a.localGatheringComplete = true
		a.updateConnectionState()
	})
}

// SetRemoteGatheringComplete marks that the peer signaled all of its candidates
func (a *Agent) SetRemoteGatheringComplete() error {
	return a.run(func(a *Agent) {
		a.remoteGatheringComplete = true
		a.updateConnectionState()
	})
}

// State returns the current ConnectionState
func (a *Agent) State() ConnectionState {
	return a.state.Load().(ConnectionState)
}

// NominatedPair returns the pair media should flow over
func (a *Agent) NominatedPair() (CandidatePair, bool) {
	p := a.selected.Load().(*CandidatePair)
	if p == nil {
		return CandidatePair{}, false
	}
	return *p, true
}

// LocalCandidates returns the active local candidates
func (a *Agent) LocalCandidates() []Candidate {
	var res []Candidate
	_ = a.run(func(a *Agent) {
		res = a.localCandidates.snapshot()
	})
	return res
}

// RemoteCandidates returns the active remote candidates
func (a *Agent) RemoteCandidates() []Candidate {
	var res []Candidate
	_ = a.run(func(a *Agent) {
		res = a.remoteCandidates.snapshot()
	})
	return res
}

// CandidatePairs returns the check list ordered by descending priority
func (a *Agent) CandidatePairs() []CandidatePair {
	var res []CandidatePair
	_ = a.run(func(a *Agent) {
		res = make([]CandidatePair, 0, len(a.checklist))
		for _, p := range a.checklist {
			res = append(res, a.pairSnapshot(p))
		}
	})
	return res
}

// GetCandidatePairsStats returns a list of candidate pair stats
func (a *Agent) GetCandidatePairsStats(now time.Time) []CandidatePairStats {
	result := []CandidatePairStats{}
	err := a.run(func(a *Agent) {
		for _, p := range a.checklist {
			result = append(result, CandidatePairStats{
				Timestamp:            now,
				LocalCandidateID:     a.localCandidates.get(p.local).ID(),
				RemoteCandidateID:    a.remoteCandidates.get(p.remote).ID(),
				State:                p.state,
				Nominated:            p.nominated,
				Priority:             p.priority,
				CurrentRoundTripTime: p.rtt.Seconds(),
				RequestsReceived:     p.requestsReceived,
				RequestsSent:         p.requestsSent,
				ResponsesReceived:    p.responsesReceived,
			})
		}
	})
	if err != nil {
		a.log.Errorf("error getting candidate pairs stats %v", err)
	}
	return result
}

// PollEvent returns the next queued event. Events queued before Close,
// including the final Closed state change, can still be drained.
func (a *Agent) PollEvent() (Event, bool) {
	a.muChan <- struct{}{}
	defer func() { <-a.muChan }()

	if len(a.events) == 0 {
		return nil, false
	}
	ev := a.events[0]
	a.events[0] = nil
	a.events = a.events[1:]
	return ev, true
}

// Close cleans up the Agent. Every further mutating call reports ErrClosed.
func (a *Agent) Close() error {
	return a.run(func(a *Agent) {
		close(a.done)
		for _, p := range a.checklist {
			p.transaction = nil
		}
		a.transactions = map[[stun.TransactionIDSize]byte]*transaction{}
		a.triggeredQueue = nil

		a.log.Infof("Setting new connection state: %s", ConnectionStateClosed)
		a.connectionState = ConnectionStateClosed
		a.state.Store(ConnectionStateClosed)
		a.events = append(a.events, ConnectionStateChangeEvent{State: ConnectionStateClosed})
	})
}

func (a *Agent) transmit(source, destination *net.UDPAddr, payload []byte) {
	a.events = append(a.events, TransmitEvent{
		Source:      copyAddr(source),
		Destination: copyAddr(destination),
		Payload:     append([]byte(nil), payload...),
	})
}

func (a *Agent) pairSnapshot(p *candidatePair) CandidatePair {
	return CandidatePair{
		Local:     *a.localCandidates.get(p.local).clone(),
		Remote:    *a.remoteCandidates.get(p.remote).clone(),
		Priority:  p.priority,
		State:     p.state,
		Nominated: p.nominated,
	}
}

func (a *Agent) setRole(controlling bool) {
	a.log.Debugf("Switching role, controlling: %v", controlling)
	a.isControlling = controlling
	for _, p := range a.checklist {
		p.updatePriority(controlling, a.localCandidates.get(p.local), a.remoteCandidates.get(p.remote))
	}
	a.sortChecklist()
}
