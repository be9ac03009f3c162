package main

import (
	"errors"
	"os"
	"sync"
	"time"

	"github.com/pion/ion-ice/ice"
	"github.com/pion/ion-ice/pkg/conf"
	"github.com/pion/ion-ice/pkg/log"
	"github.com/pion/ion-ice/pkg/transport"
)

var errTimeout = errors.New("timed out waiting for connection")

// connected is closed the first time t reaches Connected or Completed
func connected(t *transport.ICETransport) chan struct{} {
	ch := make(chan struct{})
	var once sync.Once
	t.OnStateChange(func(s ice.ConnectionState) {
		if s == ice.ConnectionStateConnected || s == ice.ConnectionStateCompleted {
			once.Do(func() { close(ch) })
		}
	})
	return ch
}

func wait(ch chan struct{}, timeout time.Duration) error {
	select {
	case <-ch:
		return nil
	case <-time.After(timeout):
		return errTimeout
	}
}

func run(c *conf.Config) error {
	factory := log.NewLoggerFactory(c.Log.Level)

	offer, err := transport.NewICETransport(c.Transport.Addr, c.ICE.AgentConfig(true, factory))
	if err != nil {
		return err
	}
	defer offer.Close()

	answer, err := transport.NewICETransport(c.Transport.Peer, c.ICE.AgentConfig(false, factory))
	if err != nil {
		return err
	}
	defer answer.Close()

	offerUp, answerUp := connected(offer), connected(answer)
	if err := transport.Exchange(offer, answer); err != nil {
		return err
	}
	if err := wait(offerUp, c.Transport.Timeout); err != nil {
		return err
	}
	if err := wait(answerUp, c.Transport.Timeout); err != nil {
		return err
	}

	if _, err := offer.Write([]byte("ping")); err != nil {
		return err
	}
	if err := answer.SetReadDeadline(time.Now().Add(c.Transport.Timeout)); err != nil {
		return err
	}
	buf := make([]byte, 1500)
	n, err := answer.Read(buf)
	if err != nil {
		return err
	}
	log.Infof("answer received %q", buf[:n])

	for _, s := range offer.Agent().GetCandidatePairsStats(time.Now()) {
		log.Infof("pair %s <-> %s state=%s nominated=%v rtt=%v sent=%d recv=%d",
			s.LocalCandidateID, s.RemoteCandidateID, s.State, s.Nominated,
			s.CurrentRoundTripTime, s.RequestsSent, s.ResponsesReceived)
	}
	return nil
}

func main() {
	c, ok := conf.Parse()
	if !ok {
		os.Exit(-1)
	}
	log.Init(c.Log.Level)
	log.Infof("--- Starting ICE loopback ---")

	if err := run(c); err != nil {
		log.Errorf("ion-ice err=%v", err)
		os.Exit(1)
	}
}
