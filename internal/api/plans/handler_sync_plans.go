package plansapi

import (
	"net/http"
	"strings"

	"membership-app/config"
	"membership-app/database"
	"membership-app/internal/domain/plans"
	"membership-app/internal/domain/roles"
	"membership-app/internal/infra/logging"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/price"
)

func SyncPlansFromStripe(c *gin.Context) {
	if stripe.Key == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Stripe key not configured"})
		return
	}

	params := &stripe.PriceListParams{}
	params.Active = stripe.Bool(true)
	params.Type = stripe.String("recurring")
	params.AddExpand("data.product")

	it := price.List(params)

	synced := 0
	created := 0
	updated := 0
	skipped := 0

	for it.Next() {
		incoming, ok := planFromPrice(it.Price(), config.STRIPE_PRODUCT_ID)
		if !ok {
			skipped++
			continue
		}

		var existing plans.Plan
		err := database.DB.Where("stripe_price_id = ?", incoming.StripePriceID).First(&existing).Error

		if err != nil {
			if err := database.DB.Create(&incoming).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create plan", "details": err.Error()})
				return
			}
			created++
		} else {
			existing.Name = incoming.Name
			existing.PriceEUR = incoming.PriceEUR
			existing.Interval = incoming.Interval
			existing.StripeProductID = incoming.StripeProductID
			if incoming.Role != "" {
				existing.Role = incoming.Role
			}

			if err := database.DB.Save(&existing).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update plan", "details": err.Error()})
				return
			}
			updated++
		}

		synced++
	}

	if err := it.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch Stripe prices", "details": err.Error()})
		return
	}

	logging.Log.Info().Int("synced", synced).Int("skipped", skipped).Msg("plans synced from stripe")
	c.JSON(http.StatusOK, gin.H{
		"synced":  synced,
		"created": created,
		"updated": updated,
		"skipped": skipped,
	})
}

// planFromPrice maps an active recurring EUR price to a plan row.
// Prices outside productID (when set) or marked visible=false are skipped.
func planFromPrice(p *stripe.Price, productID string) (plans.Plan, bool) {
	if p == nil || !p.Active || p.Recurring == nil || p.Product == nil || !p.Product.Active {
		return plans.Plan{}, false
	}
	if productID != "" && p.Product.ID != productID {
		return plans.Plan{}, false
	}
	if string(p.Currency) != "eur" {
		return plans.Plan{}, false
	}
	if p.Metadata["visible"] == "false" {
		return plans.Plan{}, false
	}

	plan := plans.Plan{
		Name:            p.Product.Name,
		PriceEUR:        float64(p.UnitAmount) / 100.0,
		StripePriceID:   p.ID,
		StripeProductID: p.Product.ID,
		Interval:        string(p.Recurring.Interval),
	}
	if v := strings.TrimSpace(p.Metadata["plan"]); v != "" {
		plan.Name = v
	}
	// only paid membership roles may be granted by a price
	if r, ok := roles.Parse(p.Metadata["role"]); ok && r.IsPaid() {
		plan.Role = string(r)
	}
	return plan, true
}

type PlanDTO struct {
	ID       uint              `json:"id"`
	Name     string            `json:"name"`
	PriceEUR float64           `json:"price_eur"`
	Interval string            `json:"interval"`
	Role     roles.UserRole    `json:"role"`
	Details  roles.RoleDetails `json:"details"`
}

func ListPlans(c *gin.Context) {
	var plansList []plans.Plan
	q := database.DB.Model(&plans.Plan{})

	if config.STRIPE_PRODUCT_ID != "" {
		q = q.Where("stripe_product_id = ?", config.STRIPE_PRODUCT_ID)
	}

	if err := q.Order("price_eur ASC").Find(&plansList).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load plans"})
		return
	}

	out := make([]PlanDTO, 0, len(plansList))
	for i := range plansList {
		out = append(out, planDTO(&plansList[i]))
	}
	c.JSON(http.StatusOK, out)
}

func planDTO(p *plans.Plan) PlanDTO {
	role := plans.PlanRole(p)
	return PlanDTO{
		ID:       p.ID,
		Name:     p.Name,
		PriceEUR: p.PriceEUR,
		Interval: p.Interval,
		Role:     role,
		Details:  roles.DetailsFor(role),
	}
}
