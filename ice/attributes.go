package ice

import (
	"github.com/pion/stun"
)

const (
	prioritySize   = 4
	tiebreakerSize = 8
)

// PriorityAttr represents PRIORITY attribute.
type PriorityAttr uint32

// AddTo adds PRIORITY attribute to message.
func (p PriorityAttr) AddTo(m *stun.Message) error {
	v := make([]byte, prioritySize)
	bin.PutUint32(v, uint32(p))
	m.Add(stun.AttrPriority, v)
	return nil
}

// GetFrom decodes PRIORITY attribute from message.
func (p *PriorityAttr) GetFrom(m *stun.Message) error {
	v, err := m.Get(stun.AttrPriority)
	if err != nil {
		return err
	}
	if err = stun.CheckSize(stun.AttrPriority, len(v), prioritySize); err != nil {
		return err
	}
	*p = PriorityAttr(bin.Uint32(v))
	return nil
}

// UseCandidateAttr represents USE-CANDIDATE attribute.
type UseCandidateAttr struct{}

// AddTo adds USE-CANDIDATE attribute to message.
func (UseCandidateAttr) AddTo(m *stun.Message) error {
	m.Add(stun.AttrUseCandidate, nil)
	return nil
}

// IsSet returns true if USE-CANDIDATE attribute is set.
func (UseCandidateAttr) IsSet(m *stun.Message) bool {
	return m.Contains(stun.AttrUseCandidate)
}

// AttrControl wraps ICE-CONTROLLING and ICE-CONTROLLED. Only one of them
// is present in a check, carrying the sender's tie-breaker.
type AttrControl struct {
	Controlling bool
	Tiebreaker  uint64
}

func (c AttrControl) attrType() stun.AttrType {
	if c.Controlling {
		return stun.AttrICEControlling
	}
	return stun.AttrICEControlled
}

// AddTo adds ICE-CONTROLLING or ICE-CONTROLLED depending on the role.
func (c AttrControl) AddTo(m *stun.Message) error {
	v := make([]byte, tiebreakerSize)
	bin.PutUint64(v, c.Tiebreaker)
	m.Add(c.attrType(), v)
	return nil
}

// GetFrom decodes role and tie-breaker from message.
func (c *AttrControl) GetFrom(m *stun.Message) error {
	switch {
	case m.Contains(stun.AttrICEControlling):
		c.Controlling = true
	case m.Contains(stun.AttrICEControlled):
		c.Controlling = false
	default:
		return stun.ErrAttributeNotFound
	}

	t := c.attrType()
	v, err := m.Get(t)
	if err != nil {
		return err
	}
	if err = stun.CheckSize(t, len(v), tiebreakerSize); err != nil {
		return err
	}
	c.Tiebreaker = bin.Uint64(v)
	return nil
}
