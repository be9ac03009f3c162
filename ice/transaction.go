package ice

import (
	"time"

	"github.com/pion/stun"
)

type transactionKind int

const (
	transactionCheck transactionKind = iota
	transactionNomination
	transactionConsent
)

func (k transactionKind) String() string {
	switch k {
	case transactionNomination:
		return "nomination"
	case transactionConsent:
		return "consent"
	default:
		return "check"
	}
}

// transaction is an outstanding binding request. A pair carries at most
// one of them.
type transaction struct {
	id   [stun.TransactionIDSize]byte
	kind transactionKind
	pair *candidatePair

	raw          []byte
	controlling  bool
	useCandidate bool

	sentAt   time.Time
	deadline time.Time
	rto      time.Duration
	sends    uint16
}
