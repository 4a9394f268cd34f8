package billing

import (
	"net/http"
	"time"

	"membership-app/database"
	"membership-app/internal/domain/billing"
	"membership-app/internal/infra/logging"

	"github.com/gin-gonic/gin"
)

type PaymentDTO struct {
	ID            uint      `json:"id"`
	PlanName      string    `json:"plan_name,omitempty"`
	PlanRole      string    `json:"plan_role,omitempty"`
	AmountEUR     float64   `json:"amount_eur"`
	Status        string    `json:"status"`
	AffiliateCode string    `json:"affiliate_code,omitempty"`
	ReceiptURL    string    `json:"receipt_url,omitempty"`
	InvoiceID     string    `json:"invoice_id,omitempty"`
	PaidAt        time.Time `json:"paid_at"`
}

type PaymentHistoryDTO struct {
	Payments     []PaymentDTO `json:"payments"`
	TotalPaidEUR float64      `json:"total_paid_eur"`
	// Referred counts payments credited to an affiliate.
	Referred int `json:"referred"`
}

func paymentHistory(payments []billing.Payment) PaymentHistoryDTO {
	out := PaymentHistoryDTO{Payments: make([]PaymentDTO, 0, len(payments))}
	var paidCents int64
	for _, p := range payments {
		dto := PaymentDTO{
			ID:        p.ID,
			AmountEUR: p.AmountEUR,
			Status:    p.Status,
			PaidAt:    p.CreatedAt,
		}
		if p.Plan != nil {
			dto.PlanName = p.Plan.Name
			dto.PlanRole = p.Plan.Role
		}
		if p.AffiliateCode != nil && *p.AffiliateCode != "" {
			dto.AffiliateCode = *p.AffiliateCode
			out.Referred++
		}
		if p.ReceiptURL != nil {
			dto.ReceiptURL = *p.ReceiptURL
		}
		if p.InvoiceID != nil {
			dto.InvoiceID = *p.InvoiceID
		}
		if p.Status == billing.PaymentPaid {
			paidCents += int64(p.AmountEUR*100 + 0.5)
		}
		out.Payments = append(out.Payments, dto)
	}
	out.TotalPaidEUR = float64(paidCents) / 100
	return out
}

// GetPaymentHistory lists the caller's payments, newest first.
func (h *Handler) GetPaymentHistory(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var payments []billing.Payment
	if err := database.DB.WithContext(c.Request.Context()).
		Preload("Plan").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&payments).Error; err != nil {
		logging.Log.Error().Err(err).Uint("user_id", userID).Msg("load payments failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load payments"})
		return
	}

	c.JSON(http.StatusOK, paymentHistory(payments))
}
