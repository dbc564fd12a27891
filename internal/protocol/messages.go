// Package protocol defines the WebSocket envelope exchanged with clients.
// Every frame is a JSON object discriminated by its "type" field.
package protocol

import (
	"time"

	"github.com/dkeye/Relay/internal/domain"
)

type Type string

const (
	TypeRegister         Type = "Register"
	TypeRegistered       Type = "Registered"
	TypeOffer            Type = "Offer"
	TypeAnswer           Type = "Answer"
	TypeIceCandidate     Type = "IceCandidate"
	TypeError            Type = "Error"
	TypeHouseHintUpdated Type = "HouseHintUpdated"
	TypePresenceHello    Type = "PresenceHello"
	TypePresenceActive   Type = "PresenceActive"
	TypePresenceSnapshot Type = "PresenceSnapshot"
	TypePresenceUpdate   Type = "PresenceUpdate"
	TypeProfileAnnounce  Type = "ProfileAnnounce"
	TypeProfileHello     Type = "ProfileHello"
	TypeProfileSnapshot  Type = "ProfileSnapshot"
	TypeProfileUpdate    Type = "ProfileUpdate"
)

// Message is one variant of the envelope.
type Message interface {
	Type() Type
}

// Register joins peer_id to house_id; signing_pubkey subscribes it to house broadcasts.
type Register struct {
	HouseID       domain.HouseID   `json:"house_id"`
	PeerID        domain.PeerID    `json:"peer_id"`
	SigningPubkey *domain.HouseKey `json:"signing_pubkey,omitempty"`
}

type Registered struct {
	PeerID domain.PeerID   `json:"peer_id"`
	Peers  []domain.PeerID `json:"peers"`
}

type Offer struct {
	FromPeer domain.PeerID `json:"from_peer"`
	ToPeer   domain.PeerID `json:"to_peer"`
	SDP      string        `json:"sdp"`
}

type Answer struct {
	FromPeer domain.PeerID `json:"from_peer"`
	ToPeer   domain.PeerID `json:"to_peer"`
	SDP      string        `json:"sdp"`
}

type IceCandidate struct {
	FromPeer  domain.PeerID `json:"from_peer"`
	ToPeer    domain.PeerID `json:"to_peer"`
	Candidate string        `json:"candidate"`
}

type Error struct {
	Message string `json:"message"`
}

type HouseHintUpdated struct {
	SigningPubkey  domain.HouseKey `json:"signing_pubkey"`
	EncryptedState string          `json:"encrypted_state"`
	Signature      string          `json:"signature"`
	LastUpdated    time.Time       `json:"last_updated"`
}

type PresenceHello struct {
	UserID              domain.UserID     `json:"user_id"`
	SigningPubkeys      []domain.HouseKey `json:"signing_pubkeys"`
	ActiveSigningPubkey *domain.HouseKey  `json:"active_signing_pubkey"`
}

type PresenceActive struct {
	UserID              domain.UserID    `json:"user_id"`
	ActiveSigningPubkey *domain.HouseKey `json:"active_signing_pubkey"`
}

type PresenceUserStatus struct {
	UserID              domain.UserID    `json:"user_id"`
	ActiveSigningPubkey *domain.HouseKey `json:"active_signing_pubkey"`
}

type PresenceSnapshot struct {
	SigningPubkey domain.HouseKey      `json:"signing_pubkey"`
	Users         []PresenceUserStatus `json:"users"`
}

type PresenceUpdate struct {
	SigningPubkey       domain.HouseKey  `json:"signing_pubkey"`
	UserID              domain.UserID    `json:"user_id"`
	Online              bool             `json:"online"`
	ActiveSigningPubkey *domain.HouseKey `json:"active_signing_pubkey"`
}

type ProfileAnnounce struct {
	UserID         domain.UserID     `json:"user_id"`
	DisplayName    string            `json:"display_name"`
	RealName       *string           `json:"real_name"`
	ShowRealName   bool              `json:"show_real_name"`
	Rev            int64             `json:"rev"`
	SigningPubkeys []domain.HouseKey `json:"signing_pubkeys"`
}

// ProfileHello asks for profiles of user_ids; house membership is opaque to
// the server so clients name the users they care about.
type ProfileHello struct {
	SigningPubkey domain.HouseKey `json:"signing_pubkey"`
	UserIDs       []domain.UserID `json:"user_ids"`
}

type ProfileSnapshot struct {
	SigningPubkey domain.HouseKey          `json:"signing_pubkey"`
	Profiles      []domain.ProfileSnapshot `json:"profiles"`
}

type ProfileUpdate struct {
	SigningPubkey domain.HouseKey `json:"signing_pubkey"`
	UserID        domain.UserID   `json:"user_id"`
	DisplayName   string          `json:"display_name"`
	RealName      *string         `json:"real_name"`
	ShowRealName  bool            `json:"show_real_name"`
	Rev           int64           `json:"rev"`
}

func (Register) Type() Type         { return TypeRegister }
func (Registered) Type() Type       { return TypeRegistered }
func (Offer) Type() Type            { return TypeOffer }
func (Answer) Type() Type           { return TypeAnswer }
func (IceCandidate) Type() Type     { return TypeIceCandidate }
func (Error) Type() Type            { return TypeError }
func (HouseHintUpdated) Type() Type { return TypeHouseHintUpdated }
func (PresenceHello) Type() Type    { return TypePresenceHello }
func (PresenceActive) Type() Type   { return TypePresenceActive }
func (PresenceSnapshot) Type() Type { return TypePresenceSnapshot }
func (PresenceUpdate) Type() Type   { return TypePresenceUpdate }
func (ProfileAnnounce) Type() Type  { return TypeProfileAnnounce }
func (ProfileHello) Type() Type     { return TypeProfileHello }
func (ProfileSnapshot) Type() Type  { return TypeProfileSnapshot }
func (ProfileUpdate) Type() Type    { return TypeProfileUpdate }
