package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrMalformed   = errors.New("malformed message")
	ErrUnknownType = errors.New("unknown message type")
	// ErrUnexpectedType marks a known variant that only the server may send.
	ErrUnexpectedType = errors.New("invalid message type")
)

type envelope struct {
	Type Type `json:"type"`
}

// Decode parses one client frame into its concrete variant.
func Decode(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var m Message
	switch env.Type {
	case TypeRegister:
		m = &Register{}
	case TypeRegistered:
		m = &Registered{}
	case TypeOffer:
		m = &Offer{}
	case TypeAnswer:
		m = &Answer{}
	case TypeIceCandidate:
		m = &IceCandidate{}
	case TypeError:
		m = &Error{}
	case TypeHouseHintUpdated:
		m = &HouseHintUpdated{}
	case TypePresenceHello:
		m = &PresenceHello{}
	case TypePresenceActive:
		m = &PresenceActive{}
	case TypePresenceSnapshot:
		m = &PresenceSnapshot{}
	case TypePresenceUpdate:
		m = &PresenceUpdate{}
	case TypeProfileAnnounce:
		m = &ProfileAnnounce{}
	case TypeProfileHello:
		m = &ProfileHello{}
	case TypeProfileSnapshot:
		m = &ProfileSnapshot{}
	case TypeProfileUpdate:
		m = &ProfileUpdate{}
	case "":
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}

	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := validate(m); err != nil {
		return nil, err
	}
	return deref(m), nil
}

// Encode serializes m with its "type" tag first.
func Encode(m Message) ([]byte, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	tag, err := json.Marshal(m.Type())
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(len(body) + len(tag) + 10)
	buf.WriteString(`{"type":`)
	buf.Write(tag)
	if inner := bytes.TrimSpace(body[1 : len(body)-1]); len(inner) > 0 {
		buf.WriteByte(',')
		buf.Write(inner)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func validate(m Message) error {
	missing := func(field string) error {
		return fmt.Errorf("%w: %s is required", ErrMalformed, field)
	}
	switch v := m.(type) {
	case *Register:
		if v.HouseID == "" {
			return missing("house_id")
		}
		if v.PeerID == "" {
			return missing("peer_id")
		}
	case *Offer:
		if v.FromPeer == "" || v.ToPeer == "" {
			return missing("from_peer/to_peer")
		}
	case *Answer:
		if v.FromPeer == "" || v.ToPeer == "" {
			return missing("from_peer/to_peer")
		}
	case *IceCandidate:
		if v.FromPeer == "" || v.ToPeer == "" {
			return missing("from_peer/to_peer")
		}
	case *PresenceHello:
		if v.UserID == "" {
			return missing("user_id")
		}
	case *PresenceActive:
		if v.UserID == "" {
			return missing("user_id")
		}
	case *ProfileAnnounce:
		if v.UserID == "" {
			return missing("user_id")
		}
	case *ProfileHello:
		if v.SigningPubkey == "" {
			return missing("signing_pubkey")
		}
	}
	return nil
}

// deref hands out value variants so callers switch on plain types.
func deref(m Message) Message {
	switch v := m.(type) {
	case *Register:
		return *v
	case *Registered:
		return *v
	case *Offer:
		return *v
	case *Answer:
		return *v
	case *IceCandidate:
		return *v
	case *Error:
		return *v
	case *HouseHintUpdated:
		return *v
	case *PresenceHello:
		return *v
	case *PresenceActive:
		return *v
	case *PresenceSnapshot:
		return *v
	case *PresenceUpdate:
		return *v
	case *ProfileAnnounce:
		return *v
	case *ProfileHello:
		return *v
	case *ProfileSnapshot:
		return *v
	case *ProfileUpdate:
		return *v
	}
	return m
}
