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

type userRoutes struct {
	us      *service.UserService
	baseURL string
}

func NewUserRoutes(handler *gin.RouterGroup, us *service.UserService, a *auth.WalletAuth, baseURL string) {
	r := &userRoutes{us: us, baseURL: baseURL}
	h := handler.Group("/users")
	h.Use(a.WalletAuthMiddleware())
	{
		h.GET("/me", r.GetProfile)
		h.GET("/me/points", r.GetPoints)
		h.GET("/me/referrals", r.GetReferrals)
		h.GET("/leaderboard", r.GetLeaderboard)
	}
}

func callerAddress(c *gin.Context) (string, bool) {
	address := c.GetString(auth.AddressKey)
	if address == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return "", false
	}
	return address, true
}

func (r *userRoutes) GetProfile(c *gin.Context) {
	log := logger.Logger()

	address, ok := callerAddress(c)
	if !ok {
		return
	}

	profile, err := r.us.GetProfile(c.Request.Context(), address)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		log.Error("failed to get profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"wallet_address":  profile.WalletAddress,
		"quest_points":    profile.QuestPoints,
		"proposal_points": profile.ProposalPoints,
		"game_points":     profile.GamePoints,
		"referral_points": profile.ReferralPoints,
		"total_points":    profile.TotalPoints(),
		"referred_by":     profile.ReferredBy,
		"referrals":       profile.Referrals,
		"twitter_handle":  profile.TwitterHandle,
		"discord_handle":  profile.DiscordHandle,
		"best_game_score": profile.BestGameScore,
		"last_check_in":   profile.LastCheckIn,
		"created_at":      profile.CreatedAt,
		"referral_link":   r.us.ReferralLink(r.baseURL, profile.WalletAddress),
	})
}

func (r *userRoutes) GetPoints(c *gin.Context) {
	log := logger.Logger()

	address, ok := callerAddress(c)
	if !ok {
		return
	}

	totals, err := r.us.GetPoints(c.Request.Context(), address)
	if err != nil {
		log.Error("failed to get points", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get points"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"quest_points":    totals.QuestPoints,
		"proposal_points": totals.ProposalPoints,
		"game_points":     totals.GamePoints,
		"referral_points": totals.ReferralPoints,
		"total_points":    totals.Total(),
	})
}

func (r *userRoutes) GetReferrals(c *gin.Context) {
	log := logger.Logger()

	address, ok := callerAddress(c)
	if !ok {
		return
	}

	referrals, err := r.us.GetReferrals(c.Request.Context(), address)
	if err != nil {
		log.Error("failed to get referrals", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get referrals"})
		return
	}

	out := make([]gin.H, len(referrals))
	for i, ref := range referrals {
		out[i] = gin.H{
			"wallet_address": ref.WalletAddress,
			"points":         ref.Points,
			"joined_at":      ref.JoinedAt,
		}
	}

	c.JSON(http.StatusOK, out)
}

func (r *userRoutes) GetLeaderboard(c *gin.Context) {
	log := logger.Logger()

	entries, err := r.us.GetLeaderboard(c.Request.Context())
	if err != nil {
		log.Error("failed to get leaderboard", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get leaderboard"})
		return
	}

	out := make([]gin.H, len(entries))
	for i, entry := range entries {
		out[i] = gin.H{
			"rank":           i + 1,
			"wallet_address": entry.WalletAddress,
			"total_points":   entry.TotalPoints,
			"referrals":      entry.Referrals,
		}
	}

	c.JSON(http.StatusOK, out)
}
