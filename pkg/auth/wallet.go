package auth

import (
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"monad_community_portal/pkg/logger"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	// AddressKey is the gin context key holding the verified caller address.
	AddressKey = "wallet_address"

	// SessionCookie carries the session id; AccountCookie mirrors the
	// connected address for the frontend.
	SessionCookie = "session_id"
	AccountCookie = "account"

	authScheme = "Wallet "
)

var (
	ErrBadSignature = errors.New("signature does not match address")
	ErrBadAuthData  = errors.New("malformed wallet auth data")
)

// Session state values as reported by the session source.
const (
	StateResolving    = "resolving"
	StateConnected    = "connected"
	StateDisconnected = "disconnected"
)

type SessionState struct {
	Address string
	Status  string
}

// SessionSource is the session lookup the middleware gates on. ShouldRedirect
// fires at most once per session, so a flapping state cannot loop the client.
type SessionSource interface {
	SessionState(id uuid.UUID) (SessionState, bool)
	ShouldRedirect(id uuid.UUID) bool
}

type WalletAuth struct {
	sessions SessionSource
}

func NewWalletAuth(sessions SessionSource) *WalletAuth {
	return &WalletAuth{sessions: sessions}
}

// LoginMessage is the exact text a wallet signs to authenticate the address.
func LoginMessage(address string) string {
	return fmt.Sprintf("Catcents portal login for %s", strings.ToLower(address))
}

// VerifySignature checks a personal-sign signature over message against the
// claimed address. The signature is 65 bytes hex, 0x prefix optional.
func VerifySignature(address, message, sigHex string) error {
	sig, err := decodeSignature(sigHex)
	if err != nil {
		return err
	}

	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)
	hash := crypto.Keccak256([]byte(prefixed))

	pub, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return errors.Wrap(ErrBadSignature, err.Error())
	}

	recovered := crypto.PubkeyToAddress(*pub)
	if !strings.EqualFold(recovered.Hex(), address) {
		return ErrBadSignature
	}
	return nil
}

func decodeSignature(sigHex string) ([]byte, error) {
	sig, err := hex.DecodeString(strings.TrimPrefix(sigHex, "0x"))
	if err != nil {
		return nil, errors.Wrap(ErrBadAuthData, "signature is not hex")
	}
	if len(sig) != 65 {
		return nil, errors.Wrap(ErrBadAuthData, "signature must be 65 bytes")
	}
	// Wallets report the recovery id as 27/28; go-ethereum wants 0/1.
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	return sig, nil
}

// WalletAuthMiddleware gates routes on a connected session plus a valid
// personal-sign signature over the login message. A resolving session gets
// 202 so the client retains its route; a disconnected one gets a single
// redirect to the landing page, then plain 401s.
func (a *WalletAuth) WalletAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.Logger()

		sessionID, err := sessionIDFrom(c)
		if err != nil {
			log.Info("missing session id", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session required"})
			return
		}

		state, ok := a.sessions.SessionState(sessionID)
		if !ok || state.Status == StateDisconnected {
			if a.sessions.ShouldRedirect(sessionID) {
				c.Redirect(http.StatusFound, "/")
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "wallet not connected"})
			return
		}

		if state.Status == StateResolving {
			c.AbortWithStatusJSON(http.StatusAccepted, gin.H{"status": StateResolving})
			return
		}

		address, sig, err := parseAuthHeader(c.GetHeader("Authorization"))
		if err != nil {
			log.Info("invalid wallet auth header", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid wallet auth"})
			return
		}

		if !strings.EqualFold(address, state.Address) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "address does not match session"})
			return
		}

		if err := VerifySignature(address, LoginMessage(address), sig); err != nil {
			log.Info("wallet signature rejected",
				zap.String("address", address),
				zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}

		c.SetCookie(AccountCookie, state.Address, 0, "/", "", false, false)
		c.Set(AddressKey, state.Address)
		c.Next()
	}
}

func sessionIDFrom(c *gin.Context) (uuid.UUID, error) {
	raw, err := c.Cookie(SessionCookie)
	if err != nil || raw == "" {
		raw = c.GetHeader("X-Session-ID")
	}
	if raw == "" {
		return uuid.Nil, errors.New("no session id")
	}
	return uuid.Parse(raw)
}

func parseAuthHeader(header string) (address, sig string, err error) {
	if !strings.HasPrefix(header, authScheme) {
		return "", "", errors.New("missing Wallet scheme")
	}
	payload := strings.TrimPrefix(header, authScheme)
	parts := strings.SplitN(payload, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", errors.New("expected address:signature")
	}
	return parts[0], parts[1], nil
}
