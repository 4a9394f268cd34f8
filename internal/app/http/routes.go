package routes

import (
	"net/http"

	adminapi "membership-app/internal/api/admin"
	affiliateapi "membership-app/internal/api/affiliate"
	authapi "membership-app/internal/api/auth"
	"membership-app/internal/api/billing"
	coursesapi "membership-app/internal/api/courses"
	notificationsapi "membership-app/internal/api/notifications"
	plansapi "membership-app/internal/api/plans"
	rolesapi "membership-app/internal/api/roles"
	sessionsapi "membership-app/internal/api/sessions"
	stripewebhooks "membership-app/internal/api/stripewebhook"
	usersapi "membership-app/internal/api/users"
	"membership-app/internal/app/http/middleware"
	"membership-app/internal/domain/roles"
	"membership-app/internal/domain/users"
	"membership-app/internal/infra/tokens"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis_rate/v10"
)

type Deps struct {
	Revocations tokens.Revocations
	RoleStore   middleware.RoleStore
	LoadUser    middleware.UserLoader

	Limiter    middleware.Allower
	LoginLimit redis_rate.Limit

	Auth          *authapi.Handler
	Billing       *billing.Handler
	Webhook       *stripewebhooks.Handler
	Courses       *coursesapi.Handler
	Roles         *rolesapi.Handler
	Affiliate     *affiliateapi.Handler
	Sessions      *sessionsapi.Handler
	Notifications *notificationsapi.Handler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	currentRole := middleware.CurrentRole(d.RoleStore, d.LoadUser)

	r.POST("/webhook", d.Webhook.StripeWebhook)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/roles", d.Roles.ListRoles)

	// Sanitized public routes
	public := r.Group("/")
	public.Use(middleware.SanitizeAndCleanInputMiddleware())

	public.POST("/register", middleware.RateLimit(d.Limiter, "register", d.LoginLimit), d.Auth.Register)
	public.POST("/login", middleware.RateLimit(d.Limiter, "login", d.LoginLimit), d.Auth.Login)
	public.GET("/plans", plansapi.ListPlans)

	public.GET("/auth/google", d.Auth.GoogleStart)
	public.GET("/auth/google/callback", d.Auth.GoogleCallback)

	// Guests see the catalog with guest access
	browse := r.Group("/")
	browse.Use(middleware.OptionalAuth(d.Revocations), currentRole)
	browse.GET("/courses", d.Courses.List)
	browse.GET("/courses/:id/access", d.Courses.Access)

	// Authenticated
	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware(d.Revocations), currentRole)
	auth.GET("/me", usersapi.GetCurrentUser)
	auth.GET("/me/role", d.Roles.GetMyRole)
	auth.PUT("/me/role", middleware.SanitizeAndCleanInputMiddleware(), d.Roles.SetMyRole)
	auth.GET("/me/role/events", d.Roles.RoleEvents)
	auth.GET("/me/permissions", d.Roles.GetMyPermissions)
	auth.POST("/auth/logout", d.Auth.Logout)
	auth.POST("/change-password", middleware.SanitizeAndCleanInputMiddleware(), d.Auth.ChangePassword)

	auth.GET("/payments", d.Billing.GetPaymentHistory)
	auth.POST("/create-checkout-session", middleware.SanitizeAndCleanInputMiddleware(), d.Billing.CreateCheckoutSession)
	auth.POST("/billing-portal", d.Billing.CreateBillingPortal)
	auth.POST("/change-plan", middleware.SanitizeAndCleanInputMiddleware(), d.Billing.ChangePlan)
	auth.POST("/cancel-subscription", d.Billing.CancelSubscription)
	auth.POST("/resume-subscription", d.Billing.ResumeSubscription)

	auth.GET("/notifications", d.Notifications.List)
	auth.POST("/notifications/:id/read", d.Notifications.MarkRead)
	auth.POST("/notifications/read-all", d.Notifications.MarkAllRead)
	auth.DELETE("/notifications", d.Notifications.Clear)

	auth.GET("/stats/affiliate", middleware.RequirePermission(roles.PermAffiliate), d.Affiliate.Stats)

	sessions := auth.Group("/sessions")
	sessions.Use(middleware.RequirePermission(roles.PermExpertSessions))
	sessions.GET("/slots", d.Sessions.ListSlots)
	sessions.GET("/mine", d.Sessions.MySessions)
	sessions.POST("/slots/:id/book", middleware.RequirePermission(roles.PermBookSessions), d.Sessions.Book)
	sessions.DELETE("/slots/:id/book", middleware.RequirePermission(roles.PermBookSessions), d.Sessions.Cancel)

	// Admin routes
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(d.Revocations), middleware.RequireRole(users.AccountAdmin))
	admin.GET("/users", adminapi.ListAllUsers)
	admin.GET("/user/:id", adminapi.GetUserDetails)
	admin.GET("/payments", adminapi.ListAllPayments)
	admin.GET("/stats", adminapi.GetAdminStats)
	admin.POST("/sync-plans", plansapi.SyncPlansFromStripe)
	admin.GET("/courses", d.Courses.AdminList)
	admin.PUT("/courses/:id/override", d.Courses.SetOverride)
	admin.DELETE("/courses/:id/override", d.Courses.ClearOverride)
}
