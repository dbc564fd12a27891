package http

import (
	"errors"
	"net/http"

	"github.com/dkeye/Relay/internal/app/orch"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// API serves the REST surface backed by the ledger.
type API struct {
	Orch *orch.Orchestrator
}

func houseKey(c *gin.Context) domain.HouseKey {
	return domain.HouseKey(c.Param("key"))
}

func badRequest(c *gin.Context, err error) {
	c.String(http.StatusBadRequest, "Invalid request body: %s", err.Error())
}

func (a *API) getInvite(c *gin.Context) {
	tok, err := a.Orch.Ledger.Invite(c.Param("code"))
	if err != nil {
		c.String(http.StatusNotFound, "Invite not found")
		return
	}
	c.JSON(http.StatusOK, tok)
}

func (a *API) redeemInvite(c *gin.Context) {
	tok, err := a.Orch.Ledger.Redeem(c.Param("code"))
	if err != nil {
		c.String(http.StatusNotFound, "Invite expired or fully redeemed")
		return
	}
	c.JSON(http.StatusOK, tok)
}

func (a *API) revokeInvite(c *gin.Context) {
	if !a.Orch.Ledger.Revoke(c.Param("code")) {
		c.String(http.StatusNotFound, "Invite not found")
		return
	}
	log.Info().Str("module", "adapters.http").Msg("invite revoked")
	c.JSON(http.StatusOK, gin.H{"status": "revoked"})
}

func (a *API) createInvite(c *gin.Context) {
	var req domain.InviteCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	tok, err := a.Orch.Ledger.CreateInvite(houseKey(c), req)
	if errors.Is(err, domain.ErrInvalidInviteCode) {
		c.String(http.StatusBadRequest, "Invalid invite code length")
		return
	}
	if err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, tok)
}

func (a *API) putHint(c *gin.Context) {
	var hint domain.HouseHint
	if err := c.ShouldBindJSON(&hint); err != nil {
		badRequest(c, err)
		return
	}
	key := houseKey(c)
	a.Orch.PutHint(key, hint)
	log.Info().Str("module", "adapters.http").Str("key", string(key)).Msg("house hint registered")
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (a *API) getHint(c *gin.Context) {
	hint, ok := a.Orch.Ledger.Hint(houseKey(c))
	if !ok {
		c.String(http.StatusNotFound, "House hint not found")
		return
	}
	c.JSON(http.StatusOK, hint)
}

func (a *API) postEvent(c *gin.Context) {
	var ev domain.HouseEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		badRequest(c, err)
		return
	}
	a.Orch.Ledger.Post(houseKey(c), ev)
	c.JSON(http.StatusCreated, gin.H{"status": "created"})
}

// listEvents honours ?since= exactly: a present cursor that matches nothing
// yields an empty list.
func (a *API) listEvents(c *gin.Context) {
	key := houseKey(c)
	if since, ok := c.GetQuery("since"); ok {
		c.JSON(http.StatusOK, a.Orch.Ledger.EventsSince(key, since))
		return
	}
	c.JSON(http.StatusOK, a.Orch.Ledger.Events(key))
}

func (a *API) ack(c *gin.Context) {
	var req domain.AckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	a.Orch.Ledger.Ack(houseKey(c), req.UserID, req.LastEventID)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
