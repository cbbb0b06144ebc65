package api

import (
	"net/http"

	json "github.com/goccy/go-json"

	"monad_community_portal/internal/cache"
	"monad_community_portal/internal/service"
	"monad_community_portal/pkg/logger"

	"github.com/dghubble/oauth1"
	twitterauth "github.com/dghubble/oauth1/twitter"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TwitterConfig carries the app credentials for the account link flow.
type TwitterConfig struct {
	ConsumerKey    string
	ConsumerSecret string
	CallbackURL    string
	FrontendURL    string
}

type socialRoutes struct {
	ss    *service.SocialService
	cache *cache.Cache
	oauth *oauth1.Config
	cfg   TwitterConfig
}

// NewSocialRoutes wires the Twitter OAuth 1.0a callback. The route is
// unauthenticated: phase one carries the wallet address as a query param and
// phase two is Twitter redirecting back.
func NewSocialRoutes(handler *gin.RouterGroup, ss *service.SocialService, c *cache.Cache, cfg TwitterConfig) {
	oauth := &oauth1.Config{
		ConsumerKey:    cfg.ConsumerKey,
		ConsumerSecret: cfg.ConsumerSecret,
		CallbackURL:    cfg.CallbackURL,
		Endpoint:       twitterauth.AuthorizeEndpoint,
	}

	r := &socialRoutes{ss: ss, cache: c, oauth: oauth, cfg: cfg}
	h := handler.Group("/social")
	{
		h.GET("/twitter/callback", r.TwitterCallback)
	}
}

func (r *socialRoutes) TwitterCallback(c *gin.Context) {
	requestToken := c.Query("oauth_token")
	verifier := c.Query("oauth_verifier")

	if requestToken == "" || verifier == "" {
		r.startTwitterLink(c)
		return
	}
	r.finishTwitterLink(c, requestToken, verifier)
}

func (r *socialRoutes) startTwitterLink(c *gin.Context) {
	log := logger.Logger()

	address := c.Query("walletAddress")
	if address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "walletAddress is required"})
		return
	}

	requestToken, _, err := r.oauth.RequestToken()
	if err != nil {
		log.Error("failed to get twitter request token", zap.Error(err))
		r.redirectWithError(c)
		return
	}

	if err := r.cache.StoreOAuthToken(c.Request.Context(), requestToken, address); err != nil {
		log.Error("failed to stash oauth token", zap.Error(err))
		r.redirectWithError(c)
		return
	}

	authorizeURL, err := r.oauth.AuthorizationURL(requestToken)
	if err != nil {
		log.Error("failed to build authorize url", zap.Error(err))
		r.redirectWithError(c)
		return
	}

	c.Redirect(http.StatusFound, authorizeURL.String())
}

func (r *socialRoutes) finishTwitterLink(c *gin.Context, requestToken, verifier string) {
	log := logger.Logger()

	address, err := r.cache.TakeOAuthToken(c.Request.Context(), requestToken)
	if err != nil {
		log.Info("oauth token unknown or expired", zap.Error(err))
		r.redirectWithError(c)
		return
	}

	accessToken, accessSecret, err := r.oauth.AccessToken(requestToken, "", verifier)
	if err != nil {
		log.Error("failed to exchange twitter token", zap.Error(err))
		r.redirectWithError(c)
		return
	}

	handle, err := r.twitterHandle(accessToken, accessSecret)
	if err != nil {
		log.Error("failed to fetch twitter handle", zap.Error(err))
		r.redirectWithError(c)
		return
	}

	if err := r.ss.LinkAccount(c.Request.Context(), address, "twitter", handle); err != nil {
		log.Error("failed to link twitter account",
			zap.String("address", address),
			zap.Error(err))
		r.redirectWithError(c)
		return
	}

	c.Redirect(http.StatusFound, r.cfg.FrontendURL+"/dashboard?twitter=connected")
}

// twitterHandle resolves the authenticated user's screen name with the
// freshly issued access credentials.
func (r *socialRoutes) twitterHandle(accessToken, accessSecret string) (string, error) {
	token := oauth1.NewToken(accessToken, accessSecret)
	httpClient := r.oauth.Client(oauth1.NoContext, token)

	resp, err := httpClient.Get("https://api.twitter.com/1.1/account/verify_credentials.json")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var payload struct {
		ScreenName string `json:"screen_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	return payload.ScreenName, nil
}

func (r *socialRoutes) redirectWithError(c *gin.Context) {
	c.Redirect(http.StatusFound, r.cfg.FrontendURL+"/dashboard?error=twitter_failed")
}
