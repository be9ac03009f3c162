package ice

import (
	"fmt"
	"hash/crc32"
	"net"

	"github.com/google/uuid"
)

const (
	defaultLocalPreference = 65535

	// ComponentRTP indicates that the candidate is used for RTP
	ComponentRTP uint16 = 1
)

// Candidate is an ICE candidate. Local candidates are gathered by the
// caller, remote candidates are signaled by the peer or learned from
// inbound checks.
type Candidate struct {
	id            string
	candidateType CandidateType
	component     uint16

	addr           *net.UDPAddr
	base           *net.UDPAddr
	relatedAddress *CandidateRelatedAddress

	foundation      string
	localPreference uint16
	priority        uint32

	discarded bool
}

type candidateConfig struct {
	id            string
	candidateType CandidateType
	component     uint16
	addr          *net.UDPAddr
	base          *net.UDPAddr
	related       *CandidateRelatedAddress
	priority      uint32
	foundation    string
}

func newCandidate(config candidateConfig) (*Candidate, error) {
	if !config.candidateType.isValid() {
		return nil, fmt.Errorf("%w: unknown type", ErrBadCandidate)
	}

	component := config.component
	if component == 0 {
		component = ComponentRTP
	}
	if component > 256 {
		return nil, fmt.Errorf("%w: component %d", ErrBadCandidate, component)
	}

	if config.base != nil && isIPv6(config.base.IP) != isIPv6(config.addr.IP) {
		return nil, fmt.Errorf("%w: %s and base %s are of different families", ErrBadCandidate, config.addr, config.base)
	}

	id := config.id
	if id == "" {
		id = "candidate:" + uuid.New().String()
	}

	c := &Candidate{
		id:             id,
		candidateType:  config.candidateType,
		component:      component,
		addr:           config.addr,
		base:           config.base,
		relatedAddress: config.related,
		foundation:     config.foundation,
	}
	if c.base == nil {
		c.base = copyAddr(c.addr)
	}

	if config.priority != 0 {
		c.priority = config.priority
	} else {
		c.setLocalPreference(defaultLocalPreference)
	}
	return c, nil
}

// ID returns Candidate ID
func (c *Candidate) ID() string {
	return c.id
}

// Type returns candidate type
func (c *Candidate) Type() CandidateType {
	return c.candidateType
}

// Component returns candidate component
func (c *Candidate) Component() uint16 {
	return c.component
}

// Address returns Candidate Address
func (c *Candidate) Address() string {
	return c.addr.IP.String()
}

// Port returns Candidate Port
func (c *Candidate) Port() int {
	return c.addr.Port
}

// Addr returns the transport address of the candidate
func (c *Candidate) Addr() *net.UDPAddr {
	return copyAddr(c.addr)
}

// Base returns the transport address checks for this candidate are sent from
func (c *Candidate) Base() *net.UDPAddr {
	return copyAddr(c.base)
}

// RelatedAddress returns *CandidateRelatedAddress
func (c *Candidate) RelatedAddress() *CandidateRelatedAddress {
	if c.relatedAddress == nil {
		return nil
	}
	related := *c.relatedAddress
	return &related
}

// LocalPreference returns the local preference for this candidate
func (c *Candidate) LocalPreference() uint16 {
	return c.localPreference
}

// Priority computes the priority for this ICE Candidate
func (c *Candidate) Priority() uint32 {
	return c.priority
}

// Discarded reports whether the candidate was replaced or invalidated.
func (c *Candidate) Discarded() bool {
	return c.discarded
}

// Foundation is an arbitrary string used in the freezing algorithm to
// group similar candidates. It is the same for two candidates that
// have the same type, base IP address, protocol (UDP, TCP, etc.), and
// STUN or TURN server.
func (c *Candidate) Foundation() string {
	if c.foundation != "" {
		return c.foundation
	}

	return fmt.Sprintf("%d", crc32.ChecksumIEEE([]byte(c.candidateType.String()+c.base.IP.String()+"udp")))
}

// String makes the Candidate printable
func (c *Candidate) String() string {
	return fmt.Sprintf("%s %s:%d%s", c.candidateType, c.Address(), c.Port(), c.relatedAddress)
}

// Equal is used to compare two candidates
func (c *Candidate) Equal(other *Candidate) bool {
	return c.candidateType == other.candidateType &&
		c.component == other.component &&
		addrEqual(c.addr, other.addr) &&
		c.relatedAddress.Equal(other.relatedAddress)
}

func (c *Candidate) isIPv6() bool {
	return isIPv6(c.addr.IP)
}

// 4.1.2.1.  Recommended Formula
// priority = (2^24)*(type preference) +
//            (2^8)*(local preference) +
//            (2^0)*(256 - component ID)
func computePriority(t CandidateType, localPreference, component uint16) uint32 {
	return (1<<24)*uint32(t.Preference()) +
		(1<<8)*uint32(localPreference) +
		uint32(256-component)
}

func (c *Candidate) setLocalPreference(localPreference uint16) {
	c.localPreference = localPreference
	c.priority = computePriority(c.candidateType, localPreference, c.component)
}

// peerReflexivePriority is the priority a peer reflexive candidate learned
// from a check sent by c would get. It goes into the PRIORITY attribute.
func (c *Candidate) peerReflexivePriority() uint32 {
	return computePriority(CandidateTypePeerReflexive, c.localPreference, c.component)
}

// sameAddresses compares transport, base and related addresses.
func (c *Candidate) sameAddresses(other *Candidate) bool {
	return addrEqual(c.addr, other.addr) &&
		addrEqual(c.base, other.base) &&
		c.relatedAddress.Equal(other.relatedAddress)
}

// redundantWith reports whether both candidates share transport address and base.
func (c *Candidate) redundantWith(other *Candidate) bool {
	return c.component == other.component &&
		addrEqual(c.addr, other.addr) &&
		addrEqual(c.base, other.base)
}

func (c *Candidate) clone() *Candidate {
	cp := *c
	cp.addr = copyAddr(c.addr)
	cp.base = copyAddr(c.base)
	cp.relatedAddress = c.RelatedAddress()
	return &cp
}
