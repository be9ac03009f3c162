package ice

import "fmt"

// CandidateServerReflexiveConfig is the config required to create a new
// server reflexive candidate. RelAddr and RelPort carry the base.
type CandidateServerReflexiveConfig struct {
	CandidateID string
	Address     string
	Port        int
	Component   uint16
	Priority    uint32
	Foundation  string
	RelAddr     string
	RelPort     int
}

// NewCandidateServerReflexive creates a new server reflective candidate
func NewCandidateServerReflexive(config *CandidateServerReflexiveConfig) (*Candidate, error) {
	addr, err := parseTransportAddr(config.Address, config.Port)
	if err != nil {
		return nil, err
	}
	if config.RelAddr == "" {
		return nil, fmt.Errorf("%w: srflx without related address", ErrBadCandidate)
	}
	base, err := parseTransportAddr(config.RelAddr, config.RelPort)
	if err != nil {
		return nil, err
	}

	return newCandidate(candidateConfig{
		id:            config.CandidateID,
		candidateType: CandidateTypeServerReflexive,
		component:     config.Component,
		addr:          addr,
		base:          base,
		related: &CandidateRelatedAddress{
			Address: config.RelAddr,
			Port:    config.RelPort,
		},
		priority:   config.Priority,
		foundation: config.Foundation,
	})
}
