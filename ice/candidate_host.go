package ice

// CandidateHostConfig is the config required to create a new host candidate
type CandidateHostConfig struct {
	CandidateID string
	Address     string
	Port        int
	Component   uint16
	Priority    uint32
	Foundation  string
}

// NewCandidateHost creates a new host candidate
func NewCandidateHost(config *CandidateHostConfig) (*Candidate, error) {
	addr, err := parseTransportAddr(config.Address, config.Port)
	if err != nil {
		return nil, err
	}

	return newCandidate(candidateConfig{
		id:            config.CandidateID,
		candidateType: CandidateTypeHost,
		component:     config.Component,
		addr:          addr,
		priority:      config.Priority,
		foundation:    config.Foundation,
	})
}
