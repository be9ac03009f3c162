package ice

import "fmt"

// CandidateRelayConfig is the config required to create a new relayed
// candidate. RelAddr and RelPort carry the mapped address the relay saw.
type CandidateRelayConfig struct {
	CandidateID string
	Address     string
	Port        int
	Component   uint16
	Priority    uint32
	Foundation  string
	RelAddr     string
	RelPort     int
}

// NewCandidateRelay creates a new relay candidate
func NewCandidateRelay(config *CandidateRelayConfig) (*Candidate, error) {
	addr, err := parseTransportAddr(config.Address, config.Port)
	if err != nil {
		return nil, err
	}
	if config.RelAddr == "" {
		return nil, fmt.Errorf("%w: relay without related address", ErrBadCandidate)
	}
	if _, err = parseTransportAddr(config.RelAddr, config.RelPort); err != nil {
		return nil, err
	}

	return newCandidate(candidateConfig{
		id:            config.CandidateID,
		candidateType: CandidateTypeRelay,
		component:     config.Component,
		addr:          addr,
		related: &CandidateRelatedAddress{
			Address: config.RelAddr,
			Port:    config.RelPort,
		},
		priority:   config.Priority,
		foundation: config.Foundation,
	})
}
