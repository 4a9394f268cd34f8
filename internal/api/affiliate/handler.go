package affiliateapi

import (
	"context"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"membership-app/internal/app/http/middleware"
	"membership-app/internal/domain/affiliate"
	"membership-app/internal/infra/logging"

	"github.com/gin-gonic/gin"
)

type Reporter interface {
	CodeFor(ctx context.Context, userID uint) (string, error)
	Stats(ctx context.Context, userID uint, now time.Time) (affiliate.Stats, error)
	Recent(ctx context.Context, userID uint, limit int) ([]affiliate.Commission, error)
}

type Handler struct {
	Reports Reporter
	Rate    float64
}

type CommissionDTO struct {
	ID         string    `json:"id"`
	AmountEUR  float64   `json:"amount_eur"`
	Status     string    `json:"status"`
	PlanRole   string    `json:"plan_role,omitempty"`
	SaleEUR    float64   `json:"sale_eur,omitempty"`
	BuyerEmail string    `json:"buyer_email,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// GET /stats/affiliate
func (h *Handler) Stats(c *gin.Context) {
	userID := c.GetUint(middleware.KeyUserID)
	ctx := c.Request.Context()

	code, err := h.Reports.CodeFor(ctx, userID)
	if err != nil {
		logging.Log.Error().Err(err).Uint("user_id", userID).Msg("affiliate code lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load affiliate stats"})
		return
	}

	stats, err := h.Reports.Stats(ctx, userID, time.Now())
	if err != nil {
		logging.Log.Error().Err(err).Uint("user_id", userID).Msg("affiliate stats failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load affiliate stats"})
		return
	}

	recent, err := h.Reports.Recent(ctx, userID, 20)
	if err != nil {
		logging.Log.Error().Err(err).Uint("user_id", userID).Msg("affiliate commissions failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load affiliate stats"})
		return
	}

	out := make([]CommissionDTO, 0, len(recent))
	for _, cm := range recent {
		dto := CommissionDTO{
			ID:        cm.ID,
			AmountEUR: cm.AmountEUR,
			Status:    cm.Status,
			CreatedAt: cm.CreatedAt,
		}
		if cm.Sale != nil {
			dto.PlanRole = cm.Sale.PlanRole
			dto.SaleEUR = cm.Sale.AmountEUR
			dto.BuyerEmail = maskEmail(cm.Sale.BuyerEmail)
		}
		out = append(out, dto)
	}

	c.JSON(http.StatusOK, gin.H{
		"affiliate_code":  code,
		"commission_rate": h.Rate,
		"stats":           stats,
		"recent":          out,
	})
}

// maskEmail keeps the first letter of the local part and the domain.
func maskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return ""
	}
	first, _ := utf8.DecodeRuneInString(local)
	return string(first) + "***@" + domain
}
