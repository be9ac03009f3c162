package ice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidatePriority(t *testing.T) {
	for _, test := range []struct {
		Candidate    *Candidate
		WantPriority uint32
	}{
		{
			Candidate:    mustHost(t, "10.0.0.1", 5000),
			WantPriority: 2130706431,
		},
		{
			Candidate: func() *Candidate {
				c, err := NewCandidatePeerReflexive(&CandidatePeerReflexiveConfig{
					Address: "10.0.0.1",
					Port:    5000,
				})
				require.NoError(t, err)
				return c
			}(),
			WantPriority: 1862270975,
		},
		{
			Candidate: func() *Candidate {
				c, err := NewCandidateServerReflexive(&CandidateServerReflexiveConfig{
					Address: "1.2.3.4",
					Port:    5000,
					RelAddr: "10.0.0.1",
					RelPort: 5000,
				})
				require.NoError(t, err)
				return c
			}(),
			WantPriority: 1694498815,
		},
		{
			Candidate: func() *Candidate {
				c, err := NewCandidateRelay(&CandidateRelayConfig{
					Address: "3.3.3.3",
					Port:    5000,
					RelAddr: "1.2.3.4",
					RelPort: 5000,
				})
				require.NoError(t, err)
				return c
			}(),
			WantPriority: 16777215,
		},
	} {
		assert.Equal(t, test.WantPriority, test.Candidate.Priority(), "%s", test.Candidate)
	}
}

func TestCandidateSuppliedPriority(t *testing.T) {
	c, err := NewCandidateHost(&CandidateHostConfig{
		Address:  "10.0.0.1",
		Port:     5000,
		Priority: 1234,
	})
	require.NoError(t, err)
	assert.Equal(t, uint32(1234), c.Priority())
}

func TestBadCandidate(t *testing.T) {
	_, err := NewCandidateHost(&CandidateHostConfig{Address: "not-an-ip", Port: 5000})
	assert.ErrorIs(t, err, ErrBadCandidate)

	_, err = NewCandidateHost(&CandidateHostConfig{Address: "10.0.0.1", Port: 0})
	assert.ErrorIs(t, err, ErrBadCandidate)

	_, err = NewCandidateHost(&CandidateHostConfig{Address: "10.0.0.1", Port: 70000})
	assert.ErrorIs(t, err, ErrBadCandidate)

	_, err = NewCandidateHost(&CandidateHostConfig{Address: "0.0.0.0", Port: 5000})
	assert.ErrorIs(t, err, ErrBadCandidate)

	_, err = NewCandidateHost(&CandidateHostConfig{Address: "10.0.0.1", Port: 5000, Component: 300})
	assert.ErrorIs(t, err, ErrBadCandidate)

	_, err = NewCandidateServerReflexive(&CandidateServerReflexiveConfig{Address: "1.2.3.4", Port: 5000})
	assert.ErrorIs(t, err, ErrBadCandidate)

	_, err = NewCandidateServerReflexive(&CandidateServerReflexiveConfig{
		Address: "1.2.3.4",
		Port:    5000,
		RelAddr: "1001::",
		RelPort: 5000,
	})
	assert.ErrorIs(t, err, ErrBadCandidate)

	_, err = NewCandidateRelay(&CandidateRelayConfig{Address: "3.3.3.3", Port: 5000})
	assert.ErrorIs(t, err, ErrBadCandidate)
}

func TestCandidateFoundation(t *testing.T) {
	a := mustHost(t, "10.0.0.1", 5000)
	b := mustHost(t, "10.0.0.1", 5001)
	c := mustHost(t, "10.0.0.2", 5000)

	assert.Equal(t, a.Foundation(), b.Foundation())
	assert.NotEqual(t, a.Foundation(), c.Foundation())

	srflx, err := NewCandidateServerReflexive(&CandidateServerReflexiveConfig{
		Address: "1.2.3.4",
		Port:    5000,
		RelAddr: "10.0.0.1",
		RelPort: 5000,
	})
	require.NoError(t, err)
	assert.NotEqual(t, a.Foundation(), srflx.Foundation())

	signaled, err := NewCandidateHost(&CandidateHostConfig{
		Address:    "10.0.0.9",
		Port:       5000,
		Foundation: "42",
	})
	require.NoError(t, err)
	assert.Equal(t, "42", signaled.Foundation())
}

func TestCandidateEqual(t *testing.T) {
	a := mustHost(t, "10.0.0.1", 5000)
	b := mustHost(t, "10.0.0.1", 5000)
	assert.NotEqual(t, a.ID(), b.ID())
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(mustHost(t, "10.0.0.1", 5001)))
	assert.Equal(t, "host 10.0.0.1:5000", a.String())
	assert.Equal(t, ComponentRTP, a.Component())
}

func TestCandidateTypeString(t *testing.T) {
	assert.Equal(t, "host", CandidateTypeHost.String())
	assert.Equal(t, "srflx", CandidateTypeServerReflexive.String())
	assert.Equal(t, "prflx", CandidateTypePeerReflexive.String())
	assert.Equal(t, "relay", CandidateTypeRelay.String())
	assert.Equal(t, "Unknown candidate type", CandidateTypeUnspecified.String())
}
