package ice

import "net"

// CandidatePeerReflexiveConfig is the config required to create a new
// peer reflexive candidate. A local one needs RelAddr and RelPort set to
// its base, a remote one may leave them empty.
type CandidatePeerReflexiveConfig struct {
	CandidateID string
	Address     string
	Port        int
	Component   uint16
	Priority    uint32
	Foundation  string
	RelAddr     string
	RelPort     int
}

// NewCandidatePeerReflexive creates a new peer reflective candidate
func NewCandidatePeerReflexive(config *CandidatePeerReflexiveConfig) (*Candidate, error) {
	addr, err := parseTransportAddr(config.Address, config.Port)
	if err != nil {
		return nil, err
	}

	var base *net.UDPAddr
	var related *CandidateRelatedAddress
	if config.RelAddr != "" {
		if base, err = parseTransportAddr(config.RelAddr, config.RelPort); err != nil {
			return nil, err
		}
		related = &CandidateRelatedAddress{
			Address: config.RelAddr,
			Port:    config.RelPort,
		}
	}

	return newCandidate(candidateConfig{
		id:            config.CandidateID,
		candidateType: CandidateTypePeerReflexive,
		component:     config.Component,
		addr:          addr,
		base:          base,
		related:       related,
		priority:      config.Priority,
		foundation:    config.Foundation,
	})
}
