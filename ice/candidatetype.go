package ice

// CandidateType represents the type of candidate
type CandidateType byte

// CandidateType enum
const (
	CandidateTypeUnspecified CandidateType = iota
	CandidateTypeHost
	CandidateTypeServerReflexive
	CandidateTypePeerReflexive
	CandidateTypeRelay
)

// String makes CandidateType printable
func (c CandidateType) String() string {
	switch c {
	case CandidateTypeHost:
		return "host"
	case CandidateTypeServerReflexive:
		return "srflx"
	case CandidateTypePeerReflexive:
		return "prflx"
	case CandidateTypeRelay:
		return "relay"
	case CandidateTypeUnspecified:
		return "Unknown candidate type"
	}
	return "Unknown candidate type"
}

// Preference returns the preference weight of a CandidateType
//
// 4.1.2.2.  Guidelines for Choosing Type and Local Preferences
// The RECOMMENDED values are 126 for host candidates, 100
// for server reflexive candidates, 110 for peer reflexive candidates,
// and 0 for relayed candidates.
func (c CandidateType) Preference() uint16 {
	switch c {
	case CandidateTypeHost:
		return 126
	case CandidateTypePeerReflexive:
		return 110
	case CandidateTypeServerReflexive:
		return 100
	case CandidateTypeRelay, CandidateTypeUnspecified:
		return 0
	}
	return 0
}

// Local preferences are handed out while candidates trickle in, so every
// type owns a fixed band of the 16 bit space:
//
//	49152 - 65535 host
//	32768 - 49151 prflx
//	16384 - 32767 srflx
//	0     - 16383 relay
//
// Odd values go to IPv6 and even values to IPv4, which keeps both families
// interleaved inside the band.
func (c CandidateType) localPreferenceBand() (top, floor int) {
	switch c {
	case CandidateTypeHost:
		return 65535, 49152
	case CandidateTypePeerReflexive:
		return 49151, 32768
	case CandidateTypeServerReflexive:
		return 32767, 16384
	default:
		return 16383, 0
	}
}

func (c CandidateType) isValid() bool {
	return c >= CandidateTypeHost && c <= CandidateTypeRelay
}
