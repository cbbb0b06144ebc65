package api

import (
	"errors"
	"net/http"

	"monad_community_portal/internal/chain"
	"monad_community_portal/internal/service"
	"monad_community_portal/pkg/auth"
	"monad_community_portal/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type sessionRoutes struct {
	sm *service.SessionManager
}

func NewSessionRoutes(handler *gin.RouterGroup, sm *service.SessionManager) {
	r := &sessionRoutes{sm: sm}
	h := handler.Group("/session")
	{
		h.POST("/connect", r.Connect)
		h.POST("/disconnect", r.Disconnect)
		h.GET("/", r.Status)
	}
}

type ConnectRequest struct {
	Wallet  string `json:"wallet" binding:"required"`
	RefCode string `json:"ref_code"`
}

func (r *sessionRoutes) Connect(c *gin.Context) {
	log := logger.Logger()

	var req ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	session, err := r.sm.Connect(c.Request.Context(), req.Wallet, req.RefCode)
	if err != nil {
		log.Info("wallet connect failed",
			zap.String("wallet", req.Wallet),
			zap.Error(err))

		switch {
		case errors.Is(err, chain.ErrUnknownWallet):
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown wallet"})
		case errors.Is(err, service.ErrUserCancelled):
			c.JSON(http.StatusBadRequest, gin.H{"error": "connection cancelled"})
		case errors.Is(err, service.ErrConnectionTimeout):
			c.JSON(http.StatusRequestTimeout, gin.H{"error": "connection timed out"})
		case errors.Is(err, chain.ErrNetworkMismatch):
			c.JSON(http.StatusConflict, gin.H{"error": "wrong network"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to connect wallet"})
		}
		return
	}

	c.SetCookie(auth.SessionCookie, session.ID.String(), 0, "/", "", false, true)
	c.SetCookie(auth.AccountCookie, session.Address, 0, "/", "", false, false)

	c.JSON(http.StatusOK, gin.H{
		"session_id": session.ID,
		"address":    session.Address,
		"wallet":     session.Wallet,
		"status":     session.Status,
	})
}

func (r *sessionRoutes) Disconnect(c *gin.Context) {
	id, ok := sessionIDParam(c)
	if !ok {
		return
	}

	r.sm.Disconnect(id)

	c.SetCookie(auth.AccountCookie, "", -1, "/", "", false, false)
	c.JSON(http.StatusOK, gin.H{"status": service.StatusDisconnected})
}

func (r *sessionRoutes) Status(c *gin.Context) {
	id, ok := sessionIDParam(c)
	if !ok {
		return
	}

	session, found := r.sm.Get(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": session.ID,
		"address":    session.Address,
		"wallet":     session.Wallet,
		"status":     session.Status,
		"redirect":   r.sm.ShouldRedirect(id),
	})
}

func sessionIDParam(c *gin.Context) (uuid.UUID, bool) {
	raw, err := c.Cookie(auth.SessionCookie)
	if err != nil || raw == "" {
		raw = c.GetHeader("X-Session-ID")
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return uuid.Nil, false
	}
	return id, true
}
