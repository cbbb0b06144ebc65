package api

import (
	"errors"
	"net/http"
	"strconv"

	"monad_community_portal/internal/service"
	"monad_community_portal/pkg/auth"
	"monad_community_portal/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type badgeRoutes struct {
	bs *service.BadgeService
}

func NewBadgeRoutes(handler *gin.RouterGroup, bs *service.BadgeService, a *auth.WalletAuth) {
	r := &badgeRoutes{bs: bs}
	h := handler.Group("/badges")
	h.Use(a.WalletAuthMiddleware())
	{
		h.GET("/", r.ListBadges)
		h.POST("/:badge_id/claim", r.Claim)
	}
}

func (r *badgeRoutes) ListBadges(c *gin.Context) {
	log := logger.Logger()

	address, ok := callerAddress(c)
	if !ok {
		return
	}

	badges, err := r.bs.ListBadges(c.Request.Context(), address)
	if err != nil {
		log.Error("failed to list badges", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list badges"})
		return
	}

	out := make([]gin.H, len(badges))
	for i, b := range badges {
		entry := gin.H{
			"id":        b.ID,
			"name":      b.Name,
			"milestone": b.Milestone,
			"earned":    b.Earned,
			"claimed":   b.Claimed,
		}
		if b.Claimed {
			entry["tx_hash"] = b.TxHash
		}
		out[i] = entry
	}

	c.JSON(http.StatusOK, out)
}

type ClaimBadgeRequest struct {
	Wallet string `json:"wallet" binding:"required"`
}

func (r *badgeRoutes) Claim(c *gin.Context) {
	log := logger.Logger()

	address, ok := callerAddress(c)
	if !ok {
		return
	}

	badgeID, err := strconv.Atoi(c.Param("badge_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid badge_id"})
		return
	}

	var req ClaimBadgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	result, err := r.bs.Claim(c.Request.Context(), req.Wallet, address, badgeID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBadgeNotEarned):
			c.JSON(http.StatusConflict, gin.H{"error": "badge milestone not reached"})
		case errors.Is(err, service.ErrBadgeAlreadyClaimed):
			c.JSON(http.StatusConflict, gin.H{"error": "badge already claimed"})
		default:
			log.Error("failed to claim badge",
				zap.Int("badge_id", badgeID),
				zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to claim badge"})
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
