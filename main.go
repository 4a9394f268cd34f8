package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"membership-app/config"
	"membership-app/database"
	affiliateapi "membership-app/internal/api/affiliate"
	authapi "membership-app/internal/api/auth"
	"membership-app/internal/api/billing"
	coursesapi "membership-app/internal/api/courses"
	notificationsapi "membership-app/internal/api/notifications"
	rolesapi "membership-app/internal/api/roles"
	sessionsapi "membership-app/internal/api/sessions"
	stripewebhooks "membership-app/internal/api/stripewebhook"
	"membership-app/internal/app/events"
	routes "membership-app/internal/app/http"
	"membership-app/internal/app/http/middleware"
	"membership-app/internal/domain/affiliate"
	"membership-app/internal/domain/booking"
	"membership-app/internal/domain/courses"
	"membership-app/internal/domain/notifications"
	"membership-app/internal/domain/users"
	"membership-app/internal/infra/cache"
	"membership-app/internal/infra/logging"
	"membership-app/internal/infra/queue"
	"membership-app/internal/infra/rolestore"
	"membership-app/internal/infra/tokens"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis_rate/v10"
	"github.com/stripe/stripe-go/v75"
)

func main() {
	config.LoadEnv()
	logging.Init(config.APP_ENV, config.LOG_LEVEL)
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stripe.Key = config.STRIPE_SECRET_KEY
	database.InitDB(config.DB_URL)
	db := database.DB

	// Redis backs roles, token revocation and rate limits. Without it a
	// single instance still works from memory.
	var (
		roleBackend rolestore.Backend
		revocations tokens.Revocations
		limiter     middleware.Allower
	)
	rdb, err := cache.NewRedisClient(config.REDIS_ADDR, config.REDIS_PASSWORD, config.REDIS_DB)
	if err != nil {
		if config.IsProduction() {
			logging.Log.Fatal().Err(err).Msg("redis unavailable")
		}
		logging.Log.Warn().Err(err).Msg("redis unavailable, using in-memory role store")
		roleBackend = rolestore.NewMemoryBackend()
		revocations = tokens.NewMemoryRevocations()
	} else {
		defer rdb.Close()
		roleBackend = rolestore.NewRedisBackend(rdb)
		revocations = tokens.NewRedisRevocations(rdb)
		limiter = redis_rate.NewLimiter(rdb)
	}

	roleStore := rolestore.New(roleBackend)
	go func() {
		if err := roleStore.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logging.Log.Error().Err(err).Msg("role event relay stopped")
		}
	}()

	catalog := courses.NewCatalog(db, courses.ParseMissingConfigPolicy(config.COURSE_MISSING_POLICY))
	if err := catalog.Seed(ctx, courses.DefaultCatalog()); err != nil {
		logging.Log.Fatal().Err(err).Msg("course catalog seed failed")
	}

	slots := booking.NewService(db)
	seed := booking.SeedSlots(time.Now(), booking.DefaultExperts(), config.SLOT_SEED_DAYS, booking.DefaultHours)
	if err := slots.Seed(ctx, seed); err != nil {
		logging.Log.Error().Err(err).Msg("expert slot seed failed")
	}

	inbox := notifications.NewStore(db)
	publisher := queue.NewPublisher(config.RABBITMQ_URL)

	consumer := queue.NewConsumer(config.RABBITMQ_URL)
	(&events.Handlers{
		Sales:  affiliate.NewRecorder(db, config.AFFILIATE_COMMISSION_RATE),
		Notify: inbox,
	}).Register(consumer)
	go func() {
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logging.Log.Error().Err(err).Msg("queue consumer stopped")
		}
	}()
	go events.WatchRoleChanges(roleStore, inbox)(ctx)

	loadUser := func(ctx context.Context, id uint) (users.User, error) {
		var u users.User
		err := db.WithContext(ctx).Preload("Plan").First(&u, id).Error
		return u, err
	}

	r := gin.New()
	r.Use(gin.Recovery(), logging.Middleware())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{config.CORS_ORIGIN},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, routes.Deps{
		Revocations: revocations,
		RoleStore:   roleStore,
		LoadUser:    loadUser,
		Limiter:     limiter,
		LoginLimit:  redis_rate.PerMinute(config.LOGIN_RATE_PER_MINUTE),

		Auth:          &authapi.Handler{Roles: roleStore, Revocations: revocations},
		Billing:       &billing.Handler{Roles: roleStore},
		Webhook:       &stripewebhooks.Handler{Roles: roleStore, Events: publisher},
		Courses:       &coursesapi.Handler{Catalog: catalog},
		Roles:         &rolesapi.Handler{Store: roleStore, DevSwitcher: config.DEV_ROLE_SWITCHER, Heartbeat: 25 * time.Second},
		Affiliate:     &affiliateapi.Handler{Reports: affiliate.NewReporter(db), Rate: config.AFFILIATE_COMMISSION_RATE},
		Sessions:      &sessionsapi.Handler{Slots: slots, Events: publisher},
		Notifications: &notificationsapi.Handler{Store: inbox},
	})

	srv := &http.Server{
		Addr:              ":" + config.PORT,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logging.Log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
