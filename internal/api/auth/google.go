package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"time"

	"membership-app/config"
	"membership-app/database"
	"membership-app/internal/domain/users"
	"membership-app/internal/infra/logging"
	"membership-app/internal/infra/tokens"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"
)

const (
	googleIssuer     = "https://accounts.google.com"
	oauthStateCookie = "oauth_state"
	referralCookie   = "oauth_ref"
)

func googleOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     config.GOOGLE_CLIENT_ID,
		ClientSecret: config.GOOGLE_CLIENT_SECRET,
		RedirectURL:  config.GOOGLE_REDIRECT_URL,
		Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		Endpoint:     google.Endpoint,
	}
}

var (
	providerOnce sync.Once
	provider     *oidc.Provider
	providerErr  error
)

// googleProvider fetches the discovery document once per process.
func googleProvider(ctx context.Context) (*oidc.Provider, error) {
	providerOnce.Do(func() {
		provider, providerErr = oidc.NewProvider(ctx, googleIssuer)
	})
	return provider, providerErr
}

func randomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GET /auth/google?ref=<affiliate code>
func (h *Handler) GoogleStart(c *gin.Context) {
	state, err := randomState()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate state"})
		return
	}

	secure := config.IsProduction()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, 300, "/", "", secure, true)
	if ref := c.Query("ref"); ref != "" {
		c.SetCookie(referralCookie, ref, 300, "/", "", secure, true)
	}

	c.Redirect(http.StatusFound, googleOAuthConfig().AuthCodeURL(state, oauth2.AccessTypeOnline))
}

// GET /auth/google/callback
func (h *Handler) GoogleCallback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")
	if code == "" || state == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code/state"})
		return
	}

	cookieState, err := c.Cookie(oauthStateCookie)
	if err != nil || cookieState != state {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid oauth state"})
		return
	}

	ctx := c.Request.Context()
	tok, err := googleOAuthConfig().Exchange(ctx, code)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "failed to exchange code"})
		return
	}

	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing id_token"})
		return
	}

	claims, err := verifyGoogleIDToken(ctx, rawIDToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	ref, _ := c.Cookie(referralCookie)
	user, err := findOrCreateGoogleUser(database.DB, claims, ref, time.Now())
	if err != nil {
		logging.Log.Error().Err(err).Str("email", claims.Email).Msg("google user upsert failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}

	h.syncRole(ctx, user)

	tokenString, _, err := tokens.Issue([]byte(config.JWT_SECRET), user.ID, user.Email, user.Role, time.Now(), tokens.DefaultTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create token"})
		return
	}

	redirect := config.GOOGLE_FRONTEND_REDIRECT
	if redirect == "" {
		c.JSON(http.StatusOK, gin.H{"token": tokenString})
		return
	}
	c.Redirect(http.StatusFound, redirect+"?token="+url.QueryEscape(tokenString))
}

type googleIDClaims struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
}

func verifyGoogleIDToken(ctx context.Context, rawIDToken string) (*googleIDClaims, error) {
	p, err := googleProvider(ctx)
	if err != nil {
		return nil, errors.New("failed to init google oidc provider")
	}

	idToken, err := p.Verifier(&oidc.Config{ClientID: config.GOOGLE_CLIENT_ID}).Verify(ctx, rawIDToken)
	if err != nil {
		return nil, errors.New("invalid id_token")
	}

	var claims googleIDClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, errors.New("failed to decode token claims")
	}
	if claims.Email == "" {
		return nil, errNoEmail
	}
	if claims.Sub == "" || !claims.EmailVerified {
		return nil, errors.New("token missing required claims")
	}
	return &claims, nil
}

func findOrCreateGoogleUser(db *gorm.DB, gc *googleIDClaims, ref string, now time.Time) (users.User, error) {
	var user users.User

	if err := db.Preload("Plan").Where("google_sub = ?", gc.Sub).First(&user).Error; err == nil {
		return user, nil
	}

	// link an existing local account by email
	if err := db.Preload("Plan").Where("email = ?", gc.Email).First(&user).Error; err == nil {
		if user.GoogleSub == nil {
			sub := gc.Sub
			user.GoogleSub = &sub
			if err := db.Model(&user).Update("google_sub", sub).Error; err != nil {
				return users.User{}, err
			}
		}
		return user, nil
	}

	sub := gc.Sub
	user = newTrialUser(now)
	user.Name = firstNonEmpty(gc.GivenName, gc.Name)
	user.Lastname = gc.FamilyName
	user.Email = gc.Email
	user.AuthProvider = "google"
	user.GoogleSub = &sub
	user.ReferredBy = referrerCode(db, ref)

	if err := db.Create(&user).Error; err != nil {
		return users.User{}, err
	}
	return user, nil
}

func firstNonEmpty(s ...string) string {
	for _, v := range s {
		if v != "" {
			return v
		}
	}
	return ""
}
