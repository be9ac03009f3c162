package transport

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chuckpreslar/emission"
	"github.com/pion/ion-ice/ice"
	"github.com/pion/ion-ice/pkg/log"
	"github.com/pion/transport/v2/packetio"
)

const (
	receiveMTU    = 1500
	maxBufferSize = 1000 * 1000 // 1MB
	maxInbound    = 128
	idleInterval  = time.Second

	// EventState is emitted with the new ice.ConnectionState
	EventState = "state"
	// EventNominated is emitted with the nominated ice.CandidatePair
	EventNominated = "nominated"
)

var (
	errInvalidAddr     = errors.New("transport address must be a unicast ip")
	errNoNominatedPair = errors.New("no nominated pair")
)

type datagram struct {
	source *net.UDPAddr
	data   []byte
}

// ICETransport drives an ice.Agent over a single UDP socket. STUN traffic
// is fed to the agent; everything else received from the nominated remote
// address is readable through Read.
type ICETransport struct {
	emission.Emitter
	agent     *ice.Agent
	conn      *net.UDPConn
	local     *net.UDPAddr
	buffer    *packetio.Buffer
	inbound   chan datagram
	wake      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
	remote    atomic.Value // *net.UDPAddr
}

// NewICETransport listens on addr and gathers it as the only host candidate
func NewICETransport(addr string, config *ice.AgentConfig) (*ICETransport, error) {
	laddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	if laddr.IP == nil || laddr.IP.IsUnspecified() || laddr.IP.IsMulticast() {
		return nil, errInvalidAddr
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, err
	}
	local := conn.LocalAddr().(*net.UDPAddr)

	agent, err := ice.NewAgent(config)
	if err != nil {
		conn.Close()
		return nil, err
	}
	host, err := ice.NewCandidateHost(&ice.CandidateHostConfig{
		Address:   local.IP.String(),
		Port:      local.Port,
		Component: ice.ComponentRTP,
	})
	if err == nil {
		_, err = agent.AddLocalCandidate(host)
	}
	if err == nil {
		err = agent.SetLocalGatheringComplete()
	}
	if err != nil {
		agent.Close()
		conn.Close()
		return nil, err
	}

	buffer := packetio.NewBuffer()
	buffer.SetLimitSize(maxBufferSize)

	t := &ICETransport{
		Emitter: *emission.NewEmitter(),
		agent:   agent,
		conn:    conn,
		local:   local,
		buffer:  buffer,
		inbound: make(chan datagram, maxInbound),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	t.remote.Store((*net.UDPAddr)(nil))

	t.wg.Add(2)
	go t.readLoop()
	go t.eventLoop()
	log.Infof("NewICETransport listening on %s", local)
	return t, nil
}

// Agent returns the underlying agent
func (t *ICETransport) Agent() *ice.Agent {
	return t.agent
}

// LocalAddr returns the bound socket address
func (t *ICETransport) LocalAddr() *net.UDPAddr {
	return t.local
}

// LocalCandidates returns what should be signaled to the peer
func (t *ICETransport) LocalCandidates() []ice.Candidate {
	return t.agent.LocalCandidates()
}

// LocalCredentials returns the local ufrag and pwd
func (t *ICETransport) LocalCredentials() (string, string) {
	return t.agent.GetLocalUserCredentials()
}

// SetRemoteCredentials sets the peer ufrag and pwd
func (t *ICETransport) SetRemoteCredentials(ufrag, pwd string) error {
	if err := t.agent.SetRemoteCredentials(ufrag, pwd); err != nil {
		return err
	}
	t.poke()
	return nil
}

// AddRemoteCandidate adds a signaled peer candidate
func (t *ICETransport) AddRemoteCandidate(c *ice.Candidate) error {
	if _, err := t.agent.AddRemoteCandidate(c); err != nil {
		return err
	}
	t.poke()
	return nil
}

// SetRemoteGatheringComplete marks the end of the peer candidates
func (t *ICETransport) SetRemoteGatheringComplete() error {
	if err := t.agent.SetRemoteGatheringComplete(); err != nil {
		return err
	}
	t.poke()
	return nil
}

// OnStateChange registers f for connection state changes
func (t *ICETransport) OnStateChange(f func(ice.ConnectionState)) {
	t.On(EventState, f)
}

// OnNominated registers f for pair nomination
func (t *ICETransport) OnNominated(f func(ice.CandidatePair)) {
	t.On(EventNominated, f)
}

// Write sends p to the remote address of the nominated pair
func (t *ICETransport) Write(p []byte) (int, error) {
	select {
	case <-t.done:
		return 0, ice.ErrClosed
	default:
	}
	remote := t.remote.Load().(*net.UDPAddr)
	if remote == nil {
		return 0, errNoNominatedPair
	}
	return t.conn.WriteToUDP(p, remote)
}

// Read reads application data received on the nominated pair
func (t *ICETransport) Read(p []byte) (int, error) {
	return t.buffer.Read(p)
}

// SetReadDeadline sets the deadline for Read
func (t *ICETransport) SetReadDeadline(deadline time.Time) error {
	return t.buffer.SetReadDeadline(deadline)
}

// Close stops the loops, closes the agent and releases the socket
func (t *ICETransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.done)
		err = t.conn.Close()
		t.buffer.Close()
		t.wg.Wait()

		if cerr := t.agent.Close(); cerr != nil && err == nil {
			err = cerr
		}
		t.drainEvents()
		log.Infof("ICETransport %s closed", t.local)
	})
	return err
}

func (t *ICETransport) poke() {
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

func (t *ICETransport) readLoop() {
	defer t.wg.Done()
	buf := make([]byte, receiveMTU)
	for {
		n, source, err := t.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-t.done:
			default:
				log.Errorf("ICETransport.readLoop err=%v", err)
			}
			return
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		select {
		case t.inbound <- datagram{source: source, data: data}:
		case <-t.done:
			return
		}
	}
}

func (t *ICETransport) eventLoop() {
	defer t.wg.Done()
	timer := time.NewTimer(idleInterval)
	defer timer.Stop()

	for {
		t.drainEvents()

		wait := idleInterval
		if deadline, ok := t.agent.PollTimeout(); ok {
			wait = time.Until(deadline)
			if wait < 0 {
				wait = 0
			}
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-t.done:
			return
		case d := <-t.inbound:
			t.handleDatagram(d)
		case <-t.wake:
		case <-timer.C:
			t.agent.HandleTimeout(time.Now())
		}
	}
}

func (t *ICETransport) handleDatagram(d datagram) {
	err := t.agent.HandleReceive(time.Now(), t.local, d.source, d.data)
	if err == nil {
		return
	}
	if !errors.Is(err, ice.ErrNotSTUN) {
		log.Warnf("ICETransport.handleDatagram from %s err=%v", d.source, err)
		return
	}

	remote := t.remote.Load().(*net.UDPAddr)
	if remote == nil || !remote.IP.Equal(d.source.IP) || remote.Port != d.source.Port {
		log.Debugf("ICETransport dropping %d bytes from %s", len(d.data), d.source)
		return
	}
	if _, err := t.buffer.Write(d.data); err != nil {
		log.Warnf("ICETransport buffer write err=%v", err)
	}
}

func (t *ICETransport) drainEvents() {
	for {
		ev, ok := t.agent.PollEvent()
		if !ok {
			return
		}
		switch e := ev.(type) {
		case ice.TransmitEvent:
			if _, err := t.conn.WriteToUDP(e.Payload, e.Destination); err != nil {
				log.Debugf("ICETransport write to %s err=%v", e.Destination, err)
			}
		case ice.ConnectionStateChangeEvent:
			log.Infof("ICETransport %s state %s", t.local, e.State)
			t.Emit(EventState, e.State)
		case ice.NominatedPairEvent:
			log.Infof("ICETransport %s nominated %s", t.local, e.Pair)
			t.remote.Store(e.Pair.Remote.Addr())
			t.Emit(EventNominated, e.Pair)
		}
	}
}

// Exchange signals credentials and candidates between two local transports
func Exchange(a, b *ICETransport) error {
	signal := func(from, to *ICETransport) error {
		ufrag, pwd := from.LocalCredentials()
		if err := to.SetRemoteCredentials(ufrag, pwd); err != nil {
			return err
		}
		candidates := from.LocalCandidates()
		for i := range candidates {
			if err := to.AddRemoteCandidate(&candidates[i]); err != nil {
				return err
			}
		}
		return to.SetRemoteGatheringComplete()
	}
	if err := signal(a, b); err != nil {
		return err
	}
	return signal(b, a)
}
