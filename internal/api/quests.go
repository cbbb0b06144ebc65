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

type questRoutes struct {
	qs *service.QuestService
}

func NewQuestRoutes(handler *gin.RouterGroup, qs *service.QuestService, a *auth.WalletAuth) {
	r := &questRoutes{qs: qs}
	h := handler.Group("/quests")
	h.Use(a.WalletAuthMiddleware())
	{
		h.GET("/", r.ListQuests)
		h.POST("/:quest_id/complete", r.CompleteQuest)
	}
}

func (r *questRoutes) ListQuests(c *gin.Context) {
	log := logger.Logger()

	address, ok := callerAddress(c)
	if !ok {
		return
	}

	quests, done, err := r.qs.ListQuests(c.Request.Context(), address)
	if err != nil {
		log.Error("failed to list quests", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list quests"})
		return
	}

	out := make([]gin.H, len(quests))
	for i, q := range quests {
		entry := gin.H{
			"id":           q.ID,
			"title":        q.Title,
			"description":  q.Description,
			"point_reward": q.PointReward,
			"task_url":     q.TaskURL,
			"completed":    false,
		}
		if uq, found := done[q.ID]; found && uq.Completed {
			entry["completed"] = true
			entry["completed_at"] = uq.CompletedAt
		}
		out[i] = entry
	}

	c.JSON(http.StatusOK, out)
}

func (r *questRoutes) CompleteQuest(c *gin.Context) {
	log := logger.Logger()

	address, ok := callerAddress(c)
	if !ok {
		return
	}

	questID := c.Param("quest_id")

	quest, err := r.qs.CompleteQuest(c.Request.Context(), address, questID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownQuest):
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown quest"})
		case errors.Is(err, service.ErrQuestAlreadyClaimed):
			c.JSON(http.StatusConflict, gin.H{"error": "quest already claimed"})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		default:
			log.Error("failed to complete quest",
				zap.String("quest_id", questID),
				zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to complete quest"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"quest_id":       quest.ID,
		"points_awarded": quest.PointReward,
	})
}
