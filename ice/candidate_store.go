package ice

import (
	"fmt"
	"net"
)

// candidateStore is an append only arena of candidates. Pairs refer to
// candidates by index so a discarded candidate keeps its slot.
type candidateStore struct {
	candidates []*Candidate
}

func (s *candidateStore) get(idx int) *Candidate {
	return s.candidates[idx]
}

func (s *candidateStore) push(c *Candidate) int {
	s.candidates = append(s.candidates, c)
	return len(s.candidates) - 1
}

func (s *candidateStore) find(match func(*Candidate) bool) (int, *Candidate) {
	for i, c := range s.candidates {
		if !c.discarded && match(c) {
			return i, c
		}
	}
	return -1, nil
}

func (s *candidateStore) findRedundant(c *Candidate) (int, *Candidate) {
	return s.find(c.redundantWith)
}

func (s *candidateStore) findByAddr(addr *net.UDPAddr) (int, *Candidate) {
	return s.find(func(c *Candidate) bool {
		return addrEqual(c.addr, addr)
	})
}

// nextLocalPreference picks the local preference for a new candidate of the
// given type and family. It starts from the band top, steps down by two for
// every active candidate of the same kind and skips values still in use.
func (s *candidateStore) nextLocalPreference(t CandidateType, ipv6 bool) (uint16, error) {
	top, floor := t.localPreferenceBand()
	if !ipv6 {
		top--
	}

	inUse := map[uint16]bool{}
	count := 0
	for _, c := range s.candidates {
		if c.discarded || c.candidateType != t || c.isIPv6() != ipv6 {
			continue
		}
		inUse[c.localPreference] = true
		count++
	}

	pref := top - 2*count
	for pref >= floor && inUse[uint16(pref)] {
		pref -= 2
	}
	if pref < floor {
		return 0, fmt.Errorf("%w: %s", ErrLocalPreferenceExhausted, t)
	}
	return uint16(pref), nil
}

func (s *candidateStore) snapshot() []Candidate {
	out := make([]Candidate, 0, len(s.candidates))
	for _, c := range s.candidates {
		if c.discarded {
			continue
		}
		out = append(out, *c.clone())
	}
	return out
}
