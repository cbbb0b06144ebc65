package api

import (
	"errors"
	"net/http"

	"monad_community_portal/internal/model"
	"monad_community_portal/internal/service"
	"monad_community_portal/pkg/auth"
	"monad_community_portal/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type proposalRoutes struct {
	ps *service.ProposalService
}

func NewProposalRoutes(handler *gin.RouterGroup, ps *service.ProposalService, a *auth.WalletAuth) {
	r := &proposalRoutes{ps: ps}
	h := handler.Group("/proposals")
	h.Use(a.WalletAuthMiddleware())
	{
		h.GET("/", r.ListProposals)
		h.POST("/", r.CreateProposal)
		h.DELETE("/:proposal_id", r.DeleteProposal)
		h.POST("/:proposal_id/like", r.LikeProposal)
		h.POST("/:proposal_id/vote", r.Vote)
	}
}

func (r *proposalRoutes) ListProposals(c *gin.Context) {
	log := logger.Logger()

	address, ok := callerAddress(c)
	if !ok {
		return
	}

	proposals, err := r.ps.ListProposals(c.Request.Context(), address)
	if err != nil {
		log.Error("failed to list proposals", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list proposals"})
		return
	}

	out := make([]gin.H, len(proposals))
	for i, p := range proposals {
		entry := gin.H{
			"id":             p.ID,
			"author":         p.Author,
			"title":          p.Title,
			"content":        p.Content,
			"image_url":      p.ImageURL,
			"yes_votes":      p.YesVotes,
			"no_votes":       p.NoVotes,
			"likes":          p.Likes,
			"on_chain_index": p.OnChainIndex,
			"created_at":     p.CreatedAt,
			"liked_by_user":  p.LikedByUser,
		}
		if p.UserVote != nil {
			entry["user_vote"] = *p.UserVote
		}
		out[i] = entry
	}

	c.JSON(http.StatusOK, out)
}

type CreateProposalRequest struct {
	Title    string  `json:"title" binding:"required"`
	Content  string  `json:"content" binding:"required"`
	ImageURL *string `json:"image_url"`
}

func (r *proposalRoutes) CreateProposal(c *gin.Context) {
	log := logger.Logger()

	address, ok := callerAddress(c)
	if !ok {
		return
	}

	var req CreateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	proposal := &model.Proposal{
		Title:    req.Title,
		Content:  req.Content,
		ImageURL: req.ImageURL,
	}

	err := r.ps.CreateProposal(c.Request.Context(), address, proposal)
	if err != nil {
		if errors.Is(err, service.ErrNotAdmin) {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin wallet required"})
			return
		}
		log.Error("failed to create proposal", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create proposal"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":             proposal.ID,
		"on_chain_index": proposal.OnChainIndex,
	})
}

func (r *proposalRoutes) DeleteProposal(c *gin.Context) {
	log := logger.Logger()

	address, ok := callerAddress(c)
	if !ok {
		return
	}

	id, ok := proposalIDParam(c)
	if !ok {
		return
	}

	err := r.ps.DeleteProposal(c.Request.Context(), address, id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotAdmin):
			c.JSON(http.StatusForbidden, gin.H{"error": "admin wallet required"})
		case errors.Is(err, service.ErrProposalNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "proposal not found"})
		default:
			log.Error("failed to delete proposal", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete proposal"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func (r *proposalRoutes) LikeProposal(c *gin.Context) {
	log := logger.Logger()

	address, ok := callerAddress(c)
	if !ok {
		return
	}

	id, ok := proposalIDParam(c)
	if !ok {
		return
	}

	if err := r.ps.LikeProposal(c.Request.Context(), address, id); err != nil {
		log.Error("failed to like proposal", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to like proposal"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"liked": id})
}

type VoteRequest struct {
	Wallet string `json:"wallet" binding:"required"`
	Choice string `json:"choice" binding:"required,oneof=yes no"`
}

func (r *proposalRoutes) Vote(c *gin.Context) {
	log := logger.Logger()

	address, ok := callerAddress(c)
	if !ok {
		return
	}

	id, ok := proposalIDParam(c)
	if !ok {
		return
	}

	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	result, err := r.ps.Vote(c.Request.Context(), req.Wallet, address, id, model.VoteChoice(req.Choice))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAlreadyVoted):
			c.JSON(http.StatusConflict, gin.H{"error": "already voted on this proposal"})
		case errors.Is(err, service.ErrProposalNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "proposal not found"})
		default:
			log.Error("failed to vote", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to vote"})
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

func proposalIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("proposal_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid proposal_id"})
		return uuid.Nil, false
	}
	return id, true
}
