package api

import (
	"errors"
	"net/http"

	"monad_community_portal/internal/service"
	"monad_community_portal/pkg/auth"
	"monad_community_portal/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type checkInRoutes struct {
	cs *service.CheckInService
}

func NewCheckInRoutes(handler *gin.RouterGroup, cs *service.CheckInService, a *auth.WalletAuth) {
	r := &checkInRoutes{cs: cs}
	h := handler.Group("/checkin")
	h.Use(a.WalletAuthMiddleware())
	{
		h.GET("/status", r.Status)
		h.POST("/", r.CheckIn)
	}
}

func (r *checkInRoutes) Status(c *gin.Context) {
	log := logger.Logger()

	address, ok := callerAddress(c)
	if !ok {
		return
	}

	status, err := r.cs.Status(c.Request.Context(), address)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		log.Error("failed to get check-in status", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get check-in status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"last_check_in":  status.LastCheckIn,
		"is_available":   status.IsAvailable,
		"next_available": status.NextAvailable,
	})
}

type CheckInRequest struct {
	Wallet string `json:"wallet" binding:"required"`
}

func (r *checkInRoutes) CheckIn(c *gin.Context) {
	log := logger.Logger()

	address, ok := callerAddress(c)
	if !ok {
		return
	}

	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	result, err := r.cs.CheckIn(c.Request.Context(), req.Wallet, address)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCheckInNotAvailable):
			c.JSON(http.StatusConflict, gin.H{"error": "check-in not available yet"})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		case errors.Is(err, service.ErrTransactionFailed):
			c.JSON(http.StatusBadGateway, gin.H{"error": "transaction failed"})
		default:
			log.Error("failed to check in", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check in"})
		}
		return
	}

	if result.Cancelled {
		c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
		return
	}

	if result.Err != nil {
		transactionError(c, result.Err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  result.State,
		"tx_hash": result.TxHash.Hex(),
	})
}
