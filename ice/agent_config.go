package ice

import (
	"io"
	"time"

	"github.com/pion/logging"
)

const (
	// defaultTimingAdvance is the pacing interval between two checks
	defaultTimingAdvance = 50 * time.Millisecond

	// max binding request before considering a pair failed
	defaultMaxBindingRequests = 7

	// max 401 responses on a pair before giving up on it
	defaultMaxAuthRetries = 3

	defaultMaxOutstandingChecks = 5

	// retransmission timeout of the first request in a transaction
	defaultInitialRTO = 250 * time.Millisecond

	// upper bound of the doubled retransmission timeout
	defaultMaxRTO = 3 * time.Second

	// keepaliveInterval used to refresh consent on the nominated pair
	defaultKeepaliveInterval = 2 * time.Second

	// without a consent response for this long the agent is disconnected
	defaultDisconnectedTimeout = 5 * time.Second

	// timeout for candidate selection, after this time, the best candidate is used
	defaultCandidateSelectionTimeout = 10 * time.Second
)

// NominationMode is how the controlling agent nominates a pair
type NominationMode int

const (
	// NominationRegular checks pairs first and then repeats the check of
	// the chosen pair with USE-CANDIDATE.
	NominationRegular NominationMode = iota
	// NominationAggressive sets USE-CANDIDATE on every check.
	NominationAggressive
)

func (m NominationMode) String() string {
	if m == NominationAggressive {
		return "aggressive"
	}
	return "regular"
}

// AgentConfig collects the arguments to ice.Agent construction into
// a single structure, for future-proofness of the interface
type AgentConfig struct {
	// LocalUfrag and LocalPwd values used to perform connectivity
	// checks.  The values MUST be unguessable, with at least 128 bits of
	// random number generator output used to generate the password, and
	// at least 24 bits of output to generate the username fragment.
	LocalUfrag string
	LocalPwd   string

	// Controlling sets the initial role. It may be changed with
	// SetControlling until the first check is sent.
	Controlling bool

	// Lite agents do not perform connectivity check and only provide host candidates.
	Lite bool

	NominationMode NominationMode

	// TimingAdvance (Ta) paces new checks. Defaults to 50ms.
	TimingAdvance *time.Duration

	// MaxBindingRequests is the max amount of binding requests the agent will send
	// over a candidate pair for validation or nomination, if after MaxBindingRequests
	// the candidate is yet to answer a binding request or a nomination we set the pair as failed
	MaxBindingRequests *uint16

	// MaxAuthRetries bounds how often a check is repeated after a 401 response.
	MaxAuthRetries *uint16

	// MaxOutstandingChecks bounds the transactions in flight at once.
	MaxOutstandingChecks *uint16

	InitialRTO *time.Duration
	MaxRTO     *time.Duration

	// KeepaliveInterval determines how often consent is refreshed on the
	// nominated pair. Defaults to 2 seconds.
	KeepaliveInterval *time.Duration

	// DisconnectedTimeout is how long the nominated pair may go without a
	// consent response. Defaults to 5 seconds.
	DisconnectedTimeout *time.Duration

	// CandidatesSelectionTimeout specify a timeout for selecting candidates, if no nomination has happen
	// before this timeout, once hit we will nominate the best valid candidate available
	CandidateSelectionTimeout *time.Duration

	// Rand is the source for credentials, tie-breaker and transaction
	// IDs. Defaults to crypto/rand.
	Rand io.Reader

	LoggerFactory logging.LoggerFactory
}

// a separate init routine called by NewAgent() to keep it readable
func (a *Agent) initWithDefaults(config *AgentConfig) {
	if config.TimingAdvance == nil || *config.TimingAdvance <= 0 {
		a.localTimingAdvance = defaultTimingAdvance
	} else {
		a.localTimingAdvance = *config.TimingAdvance
	}
	a.timingAdvance = a.localTimingAdvance

	if config.MaxBindingRequests == nil {
		a.maxBindingRequests = defaultMaxBindingRequests
	} else {
		a.maxBindingRequests = *config.MaxBindingRequests
	}

	if config.MaxAuthRetries == nil {
		a.maxAuthRetries = defaultMaxAuthRetries
	} else {
		a.maxAuthRetries = int(*config.MaxAuthRetries)
	}

	if config.MaxOutstandingChecks == nil || *config.MaxOutstandingChecks == 0 {
		a.maxOutstandingChecks = defaultMaxOutstandingChecks
	} else {
		a.maxOutstandingChecks = int(*config.MaxOutstandingChecks)
	}

	if config.InitialRTO == nil {
		a.initialRTO = defaultInitialRTO
	} else {
		a.initialRTO = *config.InitialRTO
	}

	if config.MaxRTO == nil {
		a.maxRTO = defaultMaxRTO
	} else {
		a.maxRTO = *config.MaxRTO
	}

	if config.KeepaliveInterval == nil {
		a.keepaliveInterval = defaultKeepaliveInterval
	} else {
		a.keepaliveInterval = *config.KeepaliveInterval
	}

	if config.DisconnectedTimeout == nil {
		a.disconnectedTimeout = defaultDisconnectedTimeout
	} else {
		a.disconnectedTimeout = *config.DisconnectedTimeout
	}

	if config.CandidateSelectionTimeout == nil {
		a.candidateSelectionTimeout = defaultCandidateSelectionTimeout
	} else {
		a.candidateSelectionTimeout = *config.CandidateSelectionTimeout
	}
}
