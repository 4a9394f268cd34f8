package auth

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"membership-app/config"
	"membership-app/database"
	"membership-app/internal/app/http/middleware"
	"membership-app/internal/domain/access"
	"membership-app/internal/domain/affiliate"
	"membership-app/internal/domain/roles"
	"membership-app/internal/domain/users"
	"membership-app/internal/infra/logging"
	"membership-app/internal/infra/tokens"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const TrialDays = 14

type RoleSetter interface {
	SetUntil(ctx context.Context, subject string, role roles.UserRole, until time.Time) error
}

type Handler struct {
	Roles       RoleSetter
	Revocations tokens.Revocations
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func isPasswordStrong(password string) bool {
	if len(password) < 8 {
		return false
	}
	hasLetter := false
	hasDigit := false
	for _, c := range password {
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
			hasLetter = true
		case '0' <= c && c <= '9':
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}

func isEmailValid(email string) bool {
	return emailPattern.MatchString(email)
}

// newTrialUser fills the fields shared by every signup path.
func newTrialUser(now time.Time) users.User {
	trialEnd := now.AddDate(0, 0, TrialDays)
	return users.User{
		Role:          users.AccountMember,
		AffiliateCode: affiliate.NewCode(),
		TrialStartAt:  &now,
		TrialEndAt:    &trialEnd,
	}
}

// referrerCode returns the normalized code when it belongs to an account.
func referrerCode(db *gorm.DB, raw string) *string {
	code := affiliate.NormalizeCode(raw)
	if code == "" {
		return nil
	}
	var n int64
	if err := db.Model(&users.User{}).Where("affiliate_code = ?", code).Count(&n).Error; err != nil || n == 0 {
		return nil
	}
	return &code
}

func (h *Handler) Register(c *gin.Context) {
	var input struct {
		Name          string `json:"name" binding:"required"`
		Lastname      string `json:"lastname" binding:"required"`
		Email         string `json:"email" binding:"required,email"`
		Password      string `json:"password" binding:"required"`
		AffiliateCode string `json:"affiliate_code"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if !isPasswordStrong(input.Password) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 8 characters long and contain both letters and numbers"})
		return
	}
	if !isEmailValid(email) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email format"})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}
	hashed := string(hashedPassword)

	user := newTrialUser(time.Now())
	user.Name = input.Name
	user.Lastname = input.Lastname
	user.Email = email
	user.Password = &hashed
	user.AuthProvider = "local"
	user.ReferredBy = referrerCode(database.DB, input.AffiliateCode)

	if err := database.DB.Create(&user).Error; err != nil {
		logging.Log.Warn().Err(err).Str("email", email).Msg("register insert failed")
		c.JSON(http.StatusConflict, gin.H{"error": "Email may already exist"})
		return
	}

	role := h.syncRole(c.Request.Context(), user)
	tokenString, _, err := tokens.Issue([]byte(config.JWT_SECRET), user.ID, user.Email, user.Role, time.Now(), tokens.DefaultTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create token"})
		return
	}

	logging.Log.Info().Uint("user_id", user.ID).Bool("referred", user.ReferredBy != nil).Msg("user registered")
	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully. Your free trial has started.",
		"token":   tokenString,
		"role":    role,
	})
}

func (h *Handler) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user users.User
	err := database.DB.Preload("Plan").
		Where("email = ?", strings.ToLower(strings.TrimSpace(input.Email))).
		First(&user).Error
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if user.Password == nil || *user.Password == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "This account uses Google sign-in"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.Password), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	tokenString, _, err := tokens.Issue([]byte(config.JWT_SECRET), user.ID, user.Email, user.Role, time.Now(), tokens.DefaultTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create token"})
		return
	}

	role := h.syncRole(c.Request.Context(), user)
	c.JSON(http.StatusOK, gin.H{"token": tokenString, "role": role})
}

// POST /auth/logout revokes the presented token until it expires.
func (h *Handler) Logout(c *gin.Context) {
	jti := c.GetString(middleware.KeyTokenID)
	exp, ok := middleware.TokenExpiry(c)
	if jti == "" || !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if h.Revocations != nil {
		if err := h.Revocations.Revoke(c.Request.Context(), jti, time.Until(exp)); err != nil {
			logging.Log.Error().Err(err).Msg("token revoke failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Could not log out, try again"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *Handler) ChangePassword(c *gin.Context) {
	userID := c.GetUint(middleware.KeyUserID)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var body struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if !isPasswordStrong(body.NewPassword) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "New password must be at least 8 characters with letters and numbers"})
		return
	}

	var user users.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}

	if user.Password == nil || *user.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "This account does not have a password. Sign in with Google or set a password first.",
		})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.Password), []byte(body.OldPassword)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Old password is incorrect"})
		return
	}

	hashedNew, err := bcrypt.GenerateFromPassword([]byte(body.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}
	if err := database.DB.Model(&user).Update("password", string(hashedNew)).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

// syncRole refreshes the stored membership role from billing state.
func (h *Handler) syncRole(ctx context.Context, user users.User) roles.UserRole {
	now := time.Now()
	role := access.ComputeEffectiveRole(now, user)
	if h.Roles == nil {
		return role
	}
	if err := h.Roles.SetUntil(ctx, user.Subject(), role, access.RoleValidUntil(now, user)); err != nil {
		logging.Log.Error().Err(err).Uint("user_id", user.ID).Msg("role sync failed")
	}
	return role
}

var errNoEmail = errors.New("google account has no email")
