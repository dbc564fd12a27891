package app

import (
	"strings"
	"time"

	"github.com/dkeye/Relay/internal/domain"
	"github.com/rs/zerolog/log"
)

// CreateInvite validates and stores a new token for key, replacing any
// token with the same code.
func (l *Ledger) CreateInvite(key domain.HouseKey, req domain.InviteCreateRequest) (domain.InviteToken, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now().UTC()
	l.gcInvitesLocked(now)

	tok, err := domain.NewInviteToken(key, req, now, l.inviteTTL)
	if err != nil {
		return domain.InviteToken{}, err
	}
	l.invites[tok.Code] = tok
	log.Info().Str("module", "app.invites").Str("key", string(key)).Uint32("max_uses", tok.MaxUses).Msg("invite created")
	return tok, nil
}

// Invite looks a token up without touching it.
func (l *Ledger) Invite(code string) (domain.InviteToken, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gcInvitesLocked(l.now())
	tok, ok := l.invites[strings.TrimSpace(code)]
	if !ok {
		return domain.InviteToken{}, domain.ErrNotFound
	}
	return tok, nil
}

// Redeem consumes one use. Unlimited tokens are returned unchanged;
// exhausted ones are reported as not found.
func (l *Ledger) Redeem(code string) (domain.InviteToken, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gcInvitesLocked(l.now())
	code = strings.TrimSpace(code)
	tok, ok := l.invites[code]
	if !ok {
		return domain.InviteToken{}, domain.ErrNotFound
	}
	if tok.Unlimited() {
		return tok, nil
	}
	if tok.RemainingUses == 0 {
		return domain.InviteToken{}, domain.ErrNotFound
	}
	tok.RemainingUses--
	l.invites[code] = tok
	log.Info().Str("module", "app.invites").Str("key", string(tok.SigningPubkey)).Uint32("remaining", tok.RemainingUses).Msg("invite redeemed")
	return tok, nil
}

// Revoke deletes the token and reports whether it existed.
func (l *Ledger) Revoke(code string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gcInvitesLocked(l.now())
	code = strings.TrimSpace(code)
	if _, ok := l.invites[code]; !ok {
		return false
	}
	delete(l.invites, code)
	return true
}

// GCExpiredInvites removes every token with expires_at <= now.
func (l *Ledger) GCExpiredInvites(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gcInvitesLocked(now)
}

func (l *Ledger) gcInvitesLocked(now time.Time) int {
	n := 0
	for code, tok := range l.invites {
		if tok.Expired(now) {
			delete(l.invites, code)
			n++
		}
	}
	if n > 0 {
		log.Info().Str("module", "app.invites").Int("removed", n).Msg("expired invites removed")
	}
	return n
}
