// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"time"
)

type (
	PeerID   string
	HouseID  string
	HouseKey string
	UserID   string
)

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidMessage = errors.New("invalid message")
)

// HouseHint is a recovery aid only. Any member may overwrite it.
type HouseHint struct {
	SigningPubkey  HouseKey  `json:"signing_pubkey"`
	EncryptedState string    `json:"encrypted_state" binding:"required"`
	Signature      string    `json:"signature" binding:"required"`
	LastUpdated    time.Time `json:"last_updated"`
}
