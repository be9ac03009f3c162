package ice

import (
	"encoding/binary"
	"fmt"
	"net"
	"strings"

	"github.com/pion/stun"
)

// bin is shorthand for BigEndian.
var bin = binary.BigEndian

func assertInboundUsername(m *stun.Message, localUfrag, remoteUfrag string) error {
	var username stun.Username
	if err := username.GetFrom(m); err != nil {
		return err
	}
	if remoteUfrag != "" {
		if expected := localUfrag + ":" + remoteUfrag; string(username) != expected {
			return fmt.Errorf("username mismatch expected(%x) actual(%x)", expected, string(username))
		}
		return nil
	}
	if !strings.HasPrefix(string(username), localUfrag+":") {
		return fmt.Errorf("username mismatch expected prefix(%x) actual(%x)", localUfrag+":", string(username))
	}
	return nil
}

func assertInboundMessageIntegrity(m *stun.Message, key []byte) error {
	messageIntegrityAttr := stun.MessageIntegrity(key)
	return messageIntegrityAttr.Check(m)
}

func assertInboundFingerprint(m *stun.Message) error {
	if !m.Contains(stun.AttrFingerprint) {
		return nil
	}
	return stun.Fingerprint.Check(m)
}

type bindingRequest struct {
	id           [stun.TransactionIDSize]byte
	username     string
	password     string
	priority     uint32
	control      AttrControl
	useCandidate bool
}

func (r bindingRequest) build() (*stun.Message, error) {
	setters := []stun.Setter{
		stun.NewTransactionIDSetter(r.id),
		stun.BindingRequest,
		stun.NewUsername(r.username),
		PriorityAttr(r.priority),
		r.control,
	}
	if r.useCandidate {
		setters = append(setters, UseCandidateAttr{})
	}
	setters = append(setters, stun.NewShortTermIntegrity(r.password), stun.Fingerprint)
	return stun.Build(setters...)
}

func buildBindingSuccess(request *stun.Message, mapped *net.UDPAddr, password string) (*stun.Message, error) {
	return stun.Build(request, stun.BindingSuccess,
		&stun.XORMappedAddress{
			IP:   mapped.IP,
			Port: mapped.Port,
		},
		stun.NewShortTermIntegrity(password),
		stun.Fingerprint,
	)
}

func buildBindingError(request *stun.Message, code stun.ErrorCode, password string) (*stun.Message, error) {
	return stun.Build(request, stun.BindingError,
		code,
		stun.NewShortTermIntegrity(password),
		stun.Fingerprint,
	)
}
