package admin

import (
	"net/http"
	"time"

	"membership-app/database"
	"membership-app/internal/domain/access"
	"membership-app/internal/domain/affiliate"
	"membership-app/internal/domain/billing"
	"membership-app/internal/domain/booking"
	"membership-app/internal/domain/roles"
	"membership-app/internal/domain/users"

	"github.com/gin-gonic/gin"
)

type AdminUser struct {
	ID                uint           `json:"id"`
	Name              string         `json:"name"`
	Lastname          string         `json:"lastname"`
	Email             string         `json:"email"`
	AccountRole       string         `json:"account_role"`
	Role              roles.UserRole `json:"role"`
	AuthProvider      string         `json:"auth_provider"`
	AffiliateCode     string         `json:"affiliate_code"`
	ReferredBy        *string        `json:"referred_by,omitempty"`
	PlanName          *string        `json:"plan_name,omitempty"`
	StripeCustomerID  *string        `json:"stripe_customer_id,omitempty"`
	StripeSubID       *string        `json:"stripe_subscription_id,omitempty"`
	SubscriptionStart *time.Time     `json:"subscription_start,omitempty"`
	SubscriptionEnd   *time.Time     `json:"subscription_end,omitempty"`
	TrialEndAt        *time.Time     `json:"trial_end_at,omitempty"`
}

type AdminPayment struct {
	ID            uint    `json:"id"`
	Email         string  `json:"email"`
	PlanName      *string `json:"plan_name,omitempty"`
	AmountEUR     float64 `json:"amount_eur"`
	Status        string  `json:"status"`
	AffiliateCode *string `json:"affiliate_code,omitempty"`
	InvoiceID     *string `json:"invoice_id,omitempty"`
	ReceiptURL    *string `json:"receipt_url,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

type AdminStats struct {
	TotalUsers       int                    `json:"total_users"`
	TotalRevenue     float64                `json:"total_revenue"`
	RecentRevenue    float64                `json:"recent_revenue"`
	UsersPerPlan     map[string]int         `json:"users_per_plan"`
	UsersPerRole     map[roles.UserRole]int `json:"users_per_role"`
	AffiliateSales   int                    `json:"affiliate_sales"`
	CommissionsOwed  float64                `json:"commissions_owed"`
	BookedSessions   int                    `json:"booked_sessions"`
	UpcomingSessions int                    `json:"upcoming_sessions"`
}

func toAdminUser(now time.Time, u users.User) AdminUser {
	var planName *string
	if u.Plan != nil {
		planName = &u.Plan.Name
	}
	return AdminUser{
		ID:                u.ID,
		Name:              u.Name,
		Lastname:          u.Lastname,
		Email:             u.Email,
		AccountRole:       u.Role,
		Role:              access.ComputeEffectiveRole(now, u),
		AuthProvider:      u.AuthProvider,
		AffiliateCode:     u.AffiliateCode,
		ReferredBy:        u.ReferredBy,
		PlanName:          planName,
		StripeCustomerID:  u.StripeCustomerID,
		StripeSubID:       u.SubscriptionId,
		SubscriptionStart: u.SubscriptionStart,
		SubscriptionEnd:   u.SubscriptionEnd,
		TrialEndAt:        u.TrialEndAt,
	}
}

func ListAllUsers(c *gin.Context) {
	var list []users.User
	if err := database.DB.Preload("Plan").Order("id ASC").Find(&list).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load users"})
		return
	}

	now := time.Now()
	adminUsers := make([]AdminUser, 0, len(list))
	for _, u := range list {
		adminUsers = append(adminUsers, toAdminUser(now, u))
	}

	c.JSON(http.StatusOK, adminUsers)
}

func ListAllPayments(c *gin.Context) {
	var payments []billing.Payment
	err := database.DB.Preload("User").Preload("Plan").Order("created_at DESC").Find(&payments).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load payments"})
		return
	}

	result := make([]AdminPayment, 0, len(payments))
	for _, p := range payments {
		var planName *string
		if p.Plan != nil {
			planName = &p.Plan.Name
		}
		result = append(result, AdminPayment{
			ID:            p.ID,
			Email:         p.User.Email,
			PlanName:      planName,
			AmountEUR:     p.AmountEUR,
			Status:        p.Status,
			AffiliateCode: p.AffiliateCode,
			InvoiceID:     p.InvoiceID,
			ReceiptURL:    p.ReceiptURL,
			CreatedAt:     p.CreatedAt.Format("2006-01-02 15:04"),
		})
	}

	c.JSON(http.StatusOK, result)
}

// countByRole buckets users by the membership role billing grants them.
func countByRole(now time.Time, list []users.User) map[roles.UserRole]int {
	out := make(map[roles.UserRole]int)
	for _, u := range list {
		out[access.ComputeEffectiveRole(now, u)]++
	}
	return out
}

func GetAdminStats(c *gin.Context) {
	var stats AdminStats
	now := time.Now()
	db := database.DB.WithContext(c.Request.Context())

	var totalRevenue float64
	var recentRevenue float64

	db.Model(&billing.Payment{}).Where("status = ?", billing.PaymentPaid).Select("COALESCE(SUM(amount_eur), 0)").Scan(&totalRevenue)

	thirtyDaysAgo := now.AddDate(0, 0, -30)
	db.Model(&billing.Payment{}).
		Where("status = ? AND created_at >= ?", billing.PaymentPaid, thirtyDaysAgo).
		Select("COALESCE(SUM(amount_eur), 0)").Scan(&recentRevenue)

	stats.TotalRevenue = totalRevenue
	stats.RecentRevenue = recentRevenue

	var list []users.User
	if err := db.Preload("Plan").Find(&list).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load users"})
		return
	}
	stats.TotalUsers = len(list)
	stats.UsersPerRole = countByRole(now, list)
	stats.UsersPerPlan = map[string]int{}
	for _, u := range list {
		name := "No Plan"
		if u.Plan != nil {
			name = u.Plan.Name
		}
		stats.UsersPerPlan[name]++
	}

	var sales, booked, upcoming int64
	var owed float64
	db.Model(&affiliate.Sale{}).Count(&sales)
	db.Model(&affiliate.Commission{}).
		Where("status IN ?", []string{affiliate.CommissionPending, affiliate.CommissionApproved}).
		Select("COALESCE(SUM(amount_eur), 0)").Scan(&owed)
	db.Model(&booking.ExpertSlot{}).Where("booked_by_user_id IS NOT NULL").Count(&booked)
	db.Model(&booking.ExpertSlot{}).Where("booked_by_user_id IS NOT NULL AND starts_at > ?", now).Count(&upcoming)

	stats.AffiliateSales = int(sales)
	stats.CommissionsOwed = owed
	stats.BookedSessions = int(booked)
	stats.UpcomingSessions = int(upcoming)

	c.JSON(http.StatusOK, stats)
}

func GetUserDetails(c *gin.Context) {
	userID := c.Param("id")

	var user users.User
	if err := database.DB.Preload("Plan").First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var payments []billing.Payment
	if err := database.DB.Preload("Plan").Where("user_id = ?", user.ID).Order("created_at DESC").Find(&payments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch payments"})
		return
	}

	var commissions []affiliate.Commission
	if err := database.DB.Preload("Sale").Where("affiliate_user_id = ?", user.ID).Order("created_at DESC").Find(&commissions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch commissions"})
		return
	}

	var sessions []booking.ExpertSlot
	if err := database.DB.Where("booked_by_user_id = ?", user.ID).Order("starts_at ASC").Find(&sessions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sessions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":        toAdminUser(time.Now(), user),
		"payments":    payments,
		"commissions": commissions,
		"sessions":    sessions,
	})
}
