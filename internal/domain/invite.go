package domain

import (
	"errors"
	"strings"
	"time"
)

const (
	MinInviteCodeLen = 10
	MaxInviteCodeLen = 64
	DefaultInviteTTL = 30 * 24 * time.Hour
)

var ErrInvalidInviteCode = errors.New("invalid invite code length")

// InviteCreateRequest carries a client-encrypted join payload.
type InviteCreateRequest struct {
	Code             string `json:"code"`
	MaxUses          uint32 `json:"max_uses"`
	EncryptedPayload string `json:"encrypted_payload" binding:"required"`
	Signature        string `json:"signature" binding:"required"`
}

// InviteToken is a temporary, use-limited invitation. MaxUses == 0 means unlimited.
type InviteToken struct {
	Code             string    `json:"code"`
	SigningPubkey    HouseKey  `json:"signing_pubkey"`
	EncryptedPayload string    `json:"encrypted_payload"`
	Signature        string    `json:"signature"`
	CreatedAt        time.Time `json:"created_at"`
	ExpiresAt        time.Time `json:"expires_at"`
	MaxUses          uint32    `json:"max_uses"`
	RemainingUses    uint32    `json:"remaining_uses"`
}

// NormalizeInviteCode trims the code and checks its length.
func NormalizeInviteCode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if len(code) < MinInviteCodeLen || len(code) > MaxInviteCodeLen {
		return "", ErrInvalidInviteCode
	}
	return code, nil
}

// NewInviteToken builds a fresh token for key. The code is validated first.
func NewInviteToken(key HouseKey, req InviteCreateRequest, now time.Time, ttl time.Duration) (InviteToken, error) {
	code, err := NormalizeInviteCode(req.Code)
	if err != nil {
		return InviteToken{}, err
	}
	if ttl <= 0 {
		ttl = DefaultInviteTTL
	}
	return InviteToken{
		Code:             code,
		SigningPubkey:    key,
		EncryptedPayload: req.EncryptedPayload,
		Signature:        req.Signature,
		CreatedAt:        now,
		ExpiresAt:        now.Add(ttl),
		MaxUses:          req.MaxUses,
		RemainingUses:    req.MaxUses,
	}, nil
}

func (t InviteToken) Unlimited() bool { return t.MaxUses == 0 }

func (t InviteToken) Expired(now time.Time) bool { return !t.ExpiresAt.After(now) }
