package api

import (
	"errors"
	"net/http"

	"monad_community_portal/internal/chain"
	"monad_community_portal/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const faucetURL = "https://faucet.monad.xyz"

// transactionError writes the cause of a terminal transaction failure.
// Insufficient funds carries the faucet link, reverts carry the decoded
// reason when the node returned one, and timeouts are flagged retryable.
func transactionError(c *gin.Context, err error) {
	var revert *chain.RevertError
	switch {
	case errors.Is(err, chain.ErrInsufficientFunds):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":  "insufficient funds",
			"faucet": faucetURL,
		})
	case errors.As(err, &revert):
		payload := gin.H{"error": "execution reverted"}
		if revert.Reason != "" {
			payload["reason"] = revert.Reason
		}
		c.JSON(http.StatusBadGateway, payload)
	case errors.Is(err, chain.ErrConnectionTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{
			"error":     "transaction not confirmed in time",
			"retryable": true,
		})
	default:
		logger.Logger().Info("transaction failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "transaction failed"})
	}
}
