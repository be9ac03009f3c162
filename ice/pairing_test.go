package ice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addLocal(t *testing.T, a *Agent, c *Candidate) {
	t.Helper()
	added, err := a.AddLocalCandidate(c)
	require.NoError(t, err)
	require.True(t, added)
}

func addRemote(t *testing.T, a *Agent, c *Candidate) {
	t.Helper()
	added, err := a.AddRemoteCandidate(c)
	require.NoError(t, err)
	require.True(t, added)
}

func TestPairingSameFamilyOnly(t *testing.T) {
	a := newTestAgent(t, &AgentConfig{Controlling: true})
	addLocal(t, a, mustHost(t, "10.0.0.1", 5000))
	addLocal(t, a, mustHost(t, "1001::1", 5000))

	addRemote(t, a, mustHost(t, "10.0.0.2", 6000))
	pairs := a.CandidatePairs()
	require.Len(t, pairs, 1)
	assert.Equal(t, "10.0.0.1", pairs[0].Local.Address())

	addRemote(t, a, mustHost(t, "1002::1", 6000))
	pairs = a.CandidatePairs()
	require.Len(t, pairs, 2)
	for i := 1; i < len(pairs); i++ {
		assert.GreaterOrEqual(t, pairs[i-1].Priority, pairs[i].Priority)
	}
	// IPv6 hosts carry the odd, higher local preference
	assert.Equal(t, "1001::1", pairs[0].Local.Address())
}

func TestPairingFrozenByFoundation(t *testing.T) {
	a := newTestAgent(t, &AgentConfig{Controlling: true})
	addLocal(t, a, mustHost(t, "10.0.0.1", 5000))
	addLocal(t, a, mustHost(t, "10.0.0.1", 5001))
	addRemote(t, a, mustHost(t, "10.0.0.2", 6000))

	pairs := a.CandidatePairs()
	require.Len(t, pairs, 2)
	assert.Equal(t, CandidatePairStateWaiting, pairs[0].State)
	assert.Equal(t, CandidatePairStateFrozen, pairs[1].State)
}

func TestPairingDiscardCascade(t *testing.T) {
	a := newTestAgent(t, &AgentConfig{Controlling: true})
	first := mustHost(t, "10.0.0.1", 5000)
	addLocal(t, a, first)
	addLocal(t, a, mustHost(t, "10.0.0.3", 5000))
	addRemote(t, a, mustHost(t, "10.0.0.2", 6000))
	addRemote(t, a, mustHost(t, "10.0.0.4", 6000))
	require.Len(t, a.CandidatePairs(), 4)

	require.True(t, a.InvalidateCandidate(first))
	pairs := a.CandidatePairs()
	require.Len(t, pairs, 2)
	for _, p := range pairs {
		assert.Equal(t, "10.0.0.3", p.Local.Address())
	}
}

func TestPairingRemoteReplacementCascade(t *testing.T) {
	a := newTestAgent(t, &AgentConfig{Controlling: true})
	addLocal(t, a, mustHost(t, "10.0.0.1", 5000))

	low, err := NewCandidateHost(&CandidateHostConfig{Address: "10.0.0.2", Port: 6000, Priority: 100})
	require.NoError(t, err)
	high, err := NewCandidateHost(&CandidateHostConfig{Address: "10.0.0.2", Port: 6000, Priority: 200})
	require.NoError(t, err)

	addRemote(t, a, low)
	addRemote(t, a, high)

	pairs := a.CandidatePairs()
	require.Len(t, pairs, 1)
	assert.Equal(t, uint32(200), pairs[0].Remote.Priority())
}

func TestPairingServerReflexiveUsesBase(t *testing.T) {
	a := newTestAgent(t, &AgentConfig{Controlling: true})
	host := mustHost(t, "10.0.0.1", 5000)
	addLocal(t, a, host)
	addLocal(t, a, mustServerReflexive(t, "1.2.3.4", 5000, "10.0.0.1", 5000))
	addRemote(t, a, mustHost(t, "5.6.7.8", 6000))

	pairs := a.CandidatePairs()
	require.Len(t, pairs, 1)
	assert.Equal(t, CandidateTypeHost, pairs[0].Local.Type())

	standalone := newTestAgent(t, &AgentConfig{Controlling: true})
	addLocal(t, standalone, mustServerReflexive(t, "1.2.3.4", 5000, "10.0.0.1", 5000))
	addRemote(t, standalone, mustHost(t, "5.6.7.8", 6000))
	require.Len(t, standalone.CandidatePairs(), 1)
}

func TestPairingFirstPairMovesToChecking(t *testing.T) {
	a := newTestAgent(t, nil)
	addLocal(t, a, mustHost(t, "10.0.0.1", 5000))
	assert.Equal(t, ConnectionStateNew, a.State())

	addRemote(t, a, mustHost(t, "10.0.0.2", 6000))
	assert.Equal(t, ConnectionStateChecking, a.State())
}
