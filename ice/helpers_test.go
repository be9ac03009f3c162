package ice

import (
	"net"
	"testing"
	"time"

	"github.com/pion/logging"
	"github.com/stretchr/testify/require"
)

func mustHost(t *testing.T, address string, port int) *Candidate {
	t.Helper()
	c, err := NewCandidateHost(&CandidateHostConfig{
		Address: address,
		Port:    port,
	})
	require.NoError(t, err)
	return c
}

func mustPeerReflexive(t *testing.T, address string, port int, relAddr string, relPort int) *Candidate {
	t.Helper()
	c, err := NewCandidatePeerReflexive(&CandidatePeerReflexiveConfig{
		Address: address,
		Port:    port,
		RelAddr: relAddr,
		RelPort: relPort,
	})
	require.NoError(t, err)
	return c
}

func mustServerReflexive(t *testing.T, address string, port int, relAddr string, relPort int) *Candidate {
	t.Helper()
	c, err := NewCandidateServerReflexive(&CandidateServerReflexiveConfig{
		Address: address,
		Port:    port,
		RelAddr: relAddr,
		RelPort: relPort,
	})
	require.NoError(t, err)
	return c
}

func testLoggerFactory() logging.LoggerFactory {
	lf := logging.NewDefaultLoggerFactory()
	lf.DefaultLogLevel = logging.LogLevelWarn
	return lf
}

func newTestAgent(t *testing.T, config *AgentConfig) *Agent {
	t.Helper()
	if config == nil {
		config = &AgentConfig{}
	}
	if config.LoggerFactory == nil {
		config.LoggerFactory = testLoggerFactory()
	}
	a, err := NewAgent(config)
	require.NoError(t, err)
	return a
}

// testPeer is one side of an in-memory network: an agent bound to a
// single host address.
type testPeer struct {
	agent *Agent
	addr  *net.UDPAddr
	host  *Candidate
}

func newTestPeer(t *testing.T, address string, port int, config *AgentConfig) *testPeer {
	t.Helper()
	a := newTestAgent(t, config)
	host := mustHost(t, address, port)
	added, err := a.AddLocalCandidate(host)
	require.NoError(t, err)
	require.True(t, added)
	return &testPeer{
		agent: a,
		addr:  &net.UDPAddr{IP: net.ParseIP(address), Port: port},
		host:  host,
	}
}

// exchange signals credentials and host candidates in both directions.
func exchange(t *testing.T, a, b *testPeer) {
	t.Helper()
	require.NoError(t, a.agent.SetRemoteCredentials(b.agent.Username(), b.agent.Password()))
	require.NoError(t, b.agent.SetRemoteCredentials(a.agent.Username(), a.agent.Password()))

	signal := func(from, to *testPeer) {
		for _, c := range from.agent.LocalCandidates() {
			c := c
			_, err := to.agent.AddRemoteCandidate(&c)
			require.NoError(t, err)
		}
	}
	signal(a, b)
	signal(b, a)
}

func completeGathering(t *testing.T, peers ...*testPeer) {
	t.Helper()
	for _, p := range peers {
		require.NoError(t, p.agent.SetLocalGatheringComplete())
		require.NoError(t, p.agent.SetRemoteGatheringComplete())
	}
}

// network routes TransmitEvents between test peers on a fake clock.
type network struct {
	t     *testing.T
	now   time.Time
	peers []*testPeer
	// drop filters datagrams out when it returns true
	drop func(from *testPeer, ev TransmitEvent) bool
	// intercept sees every delivered datagram before the receiver
	intercept func(from *testPeer, ev TransmitEvent)
	// events keeps every non transmit event per peer
	events map[*testPeer][]Event
	// public puts a peer behind a NAT with the given mapped address
	public map[*testPeer]*net.UDPAddr
}

func newNetwork(t *testing.T, peers ...*testPeer) *network {
	return &network{
		t:      t,
		now:    time.Unix(1600000000, 0),
		peers:  peers,
		events: map[*testPeer][]Event{},
		public: map[*testPeer]*net.UDPAddr{},
	}
}

func (n *network) peerAt(addr *net.UDPAddr) *testPeer {
	for _, p := range n.peers {
		if pub := n.public[p]; pub != nil {
			if addrEqual(pub, addr) {
				return p
			}
			continue
		}
		if addrEqual(p.addr, addr) {
			return p
		}
	}
	return nil
}

// deliver drains every agent until no datagram is left in flight.
func (n *network) deliver() {
	for {
		moved := false
		for _, from := range n.peers {
			for {
				ev, ok := from.agent.PollEvent()
				if !ok {
					break
				}
				tx, isTransmit := ev.(TransmitEvent)
				if !isTransmit {
					n.events[from] = append(n.events[from], ev)
					continue
				}
				moved = true
				if n.drop != nil && n.drop(from, tx) {
					continue
				}
				if n.intercept != nil {
					n.intercept(from, tx)
				}
				to := n.peerAt(tx.Destination)
				if to == nil {
					continue
				}
				source, destination := tx.Source, tx.Destination
				if pub := n.public[from]; pub != nil {
					source = pub
				}
				if n.public[to] != nil {
					destination = to.addr
				}
				require.NoError(n.t, to.agent.HandleReceive(n.now, destination, source, tx.Payload))
			}
		}
		if !moved {
			return
		}
	}
}

// step advances the clock by d and ticks every agent.
func (n *network) step(d time.Duration) {
	n.now = n.now.Add(d)
	for _, p := range n.peers {
		p.agent.HandleTimeout(n.now)
	}
	n.deliver()
}

// runUntil steps in 10ms increments until cond holds or limit passed.
func (n *network) runUntil(limit time.Duration, cond func() bool) bool {
	deadline := n.now.Add(limit)
	for !n.now.After(deadline) {
		if cond() {
			return true
		}
		n.step(10 * time.Millisecond)
	}
	return cond()
}

func stateIs(p *testPeer, states ...ConnectionState) func() bool {
	return func() bool {
		s := p.agent.State()
		for _, want := range states {
			if s == want {
				return true
			}
		}
		return false
	}
}

func both(conds ...func() bool) func() bool {
	return func() bool {
		for _, c := range conds {
			if !c() {
				return false
			}
		}
		return true
	}
}
