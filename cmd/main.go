package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/random"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"clinicore/internal/caching"
	"clinicore/internal/config"
	"clinicore/internal/handlers"
	"clinicore/internal/jobs"
	"clinicore/internal/metrics"
	appMiddleware "clinicore/internal/middleware"
	"clinicore/internal/models"
	"clinicore/internal/repositories"
	"clinicore/internal/services"
	"clinicore/pkg/database"
	"clinicore/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(cfg.Server.Env, cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	metrics.Init("clinicore")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	redisClient := caching.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer redisClient.Close()

	cacheSvc := caching.NewRedisCacheService(redisClient)
	feed := caching.NewFeed(redisClient, zlog)

	jwtSecret := cfg.JWT.Secret
	if jwtSecret == "" {
		jwtSecret = random.String(32)
		zlog.Warn("JWT_SECRET not set; using a generated secret, tokens will not survive restarts")
	}

	// Repositories
	userRepo := repositories.NewUserRepo(pool)
	clinicRepo := repositories.NewClinicRepo(pool)
	invitationRepo := repositories.NewInvitationRepo(pool)
	patientRepo := repositories.NewPatientRepo(pool)
	appointmentRepo := repositories.NewAppointmentRepo(pool)
	paymentRepo := repositories.NewPaymentRepo(pool)
	auditLogsRepo := repositories.NewAuditLogsRepo(pool)

	// Services
	authSvc := services.NewAuthService(cacheSvc, jwtSecret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL, zlog)
	notifierSvc := services.NewNotifierService(cacheSvc, services.NotifierConfig{
		WebhookSecret: cfg.Notifier.WebhookSecret,
		DirectAPIURL:  cfg.Notifier.DirectAPIURL,
		DirectAPIKey:  cfg.Notifier.DirectAPIKey,
		Timeout:       cfg.Notifier.Timeout,
	}, zlog)
	provisionerSvc := services.NewProvisionerService(pool, userRepo, clinicRepo, invitationRepo, zlog)
	invitationSvc := services.NewInvitationService(invitationRepo, clinicRepo, userRepo, notifierSvc, cfg.Invitations.TTL, zlog)
	patientSvc := services.NewPatientService(patientRepo)
	appointmentSvc := services.NewAppointmentService(appointmentRepo, feed)
	cryptoPaySvc := services.NewCryptoPayService(cfg.Payments.APIKey, cfg.Payments.WebhookSecret, cfg.Payments.BaseURL)
	paymentSvc := services.NewPaymentService(paymentRepo, cryptoPaySvc, notifierSvc, feed, zlog)
	auditSvc := services.NewAuditLogsService(auditLogsRepo)

	documentSvc, err := services.NewDocumentService(
		cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.UseSSL, cfg.Minio.Bucket)
	if err != nil {
		zlog.Fatal("failed to initialize object storage", zap.Error(err))
	}
	if err := documentSvc.EnsureBucket(ctx); err != nil {
		zlog.Warn("could not ensure document bucket", zap.Error(err))
	}

	// Handlers
	authHandlers := handlers.NewAuthHandlers(authSvc, provisionerSvc, userRepo, cacheSvc)
	invitationHandlers := handlers.NewInvitationHandlers(invitationSvc)
	clinicHandlers := handlers.NewClinicHandlers(clinicRepo, cacheSvc)
	userHandlers := handlers.NewUserHandlers(userRepo, cacheSvc)
	patientHandlers := handlers.NewPatientHandlers(patientSvc)
	appointmentHandlers := handlers.NewAppointmentHandlers(appointmentSvc)
	paymentHandlers := handlers.NewPaymentHandlers(paymentSvc, cryptoPaySvc, zlog)
	notificationHandlers := handlers.NewNotificationHandlers(notifierSvc)
	documentHandlers := handlers.NewDocumentHandlers(documentSvc)
	auditHandlers := handlers.NewAuditLogsHandlers(auditSvc)
	feedHandlers := handlers.NewFeedHandlers(feed)
	healthHandlers := handlers.NewHealthHandlers(pool, redisClient)

	// Background jobs
	scheduler, err := jobs.NewScheduler(invitationRepo, clinicRepo, paymentSvc, notifierSvc, zlog)
	if err != nil {
		zlog.Fatal("failed to create job scheduler", zap.Error(err))
	}
	scheduler.Start()
	defer scheduler.Stop()

	// HTTP server
	e := echo.New()
	e.HideBanner = true
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())
	e.Use(appMiddleware.MetricsMiddleware)

	versionMiddleware := appMiddleware.NewVersionMiddleware()
	auditMiddleware := appMiddleware.NewAuditMiddleware(auditSvc, zlog)

	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)
	e.GET("/health/live", healthHandlers.LivenessCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := versionMiddleware.VersionRoute(e, "v1")

	// Public auth routes
	v1.POST("/auth/signup", authHandlers.Signup)
	v1.POST("/auth/login", authHandlers.Login)
	v1.POST("/auth/refresh", authHandlers.Refresh)
	v1.POST("/auth/logout", authHandlers.Logout)

	// Payment provider webhook; authenticated by its HMAC signature.
	v1.POST("/webhooks/payments", paymentHandlers.Webhook)

	// When the hosted identity provider is configured, tokens it mints can
	// also drive signup.
	if cfg.JWT.JWKSURL != "" {
		jwks, err := keyfunc.Get(cfg.JWT.JWKSURL, keyfunc.Options{
			RefreshInterval:   time.Hour,
			RefreshRateLimit:  time.Minute,
			RefreshUnknownKID: true,
		})
		if err != nil {
			zlog.Fatal("failed to load identity provider JWKS", zap.Error(err))
		}
		idp := v1.Group("/idp")
		idp.Use(appMiddleware.IdentityTokenMiddleware(jwks))
		idp.POST("/signup", authHandlers.Signup)
	}

	jwtConfig := echojwt.Config{
		SigningKey: []byte(jwtSecret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(services.TokenClaims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
		},
	}

	protected := v1.Group("")
	protected.Use(echojwt.WithConfig(jwtConfig))
	protected.Use(appMiddleware.TenantContext())

	protected.GET("/me", authHandlers.Me)

	protected.GET("/clinic", clinicHandlers.Get)
	protected.PUT("/clinic", clinicHandlers.Update, appMiddleware.RequireRole(models.RoleOwner))

	staffAdmin := appMiddleware.RequireRole(models.RoleOwner, models.RoleManager)
	protected.GET("/users", userHandlers.List)
	protected.GET("/users/:id", userHandlers.Get)
	protected.PUT("/users/:id/role", userHandlers.UpdateRole, staffAdmin, auditMiddleware.AuditRequest("user"))
	protected.DELETE("/users/:id", userHandlers.Remove, staffAdmin, auditMiddleware.AuditRequest("user"))

	protected.POST("/invitations", invitationHandlers.Create, staffAdmin, auditMiddleware.AuditRequest("invitation"))
	protected.GET("/invitations", invitationHandlers.List, staffAdmin)
	protected.DELETE("/invitations/:id", invitationHandlers.Cancel, staffAdmin, auditMiddleware.AuditRequest("invitation"))

	protected.POST("/patients", patientHandlers.Create, auditMiddleware.AuditRequest("patient"))
	protected.GET("/patients", patientHandlers.List)
	protected.GET("/patients/:id", patientHandlers.Get)
	protected.PUT("/patients/:id", patientHandlers.Update, auditMiddleware.AuditRequest("patient"))
	protected.DELETE("/patients/:id", patientHandlers.Delete, staffAdmin, auditMiddleware.AuditRequest("patient"))

	protected.POST("/patients/:patientId/documents", documentHandlers.Upload, auditMiddleware.AuditRequest("document"))
	protected.GET("/documents/url", documentHandlers.DownloadURL)
	protected.DELETE("/documents", documentHandlers.Delete, staffAdmin, auditMiddleware.AuditRequest("document"))

	protected.POST("/appointments", appointmentHandlers.Schedule, auditMiddleware.AuditRequest("appointment"))
	protected.GET("/appointments", appointmentHandlers.List)
	protected.GET("/appointments/:id", appointmentHandlers.Get)
	protected.PUT("/appointments/:id/status", appointmentHandlers.UpdateStatus, auditMiddleware.AuditRequest("appointment"))
	protected.DELETE("/appointments/:id", appointmentHandlers.Cancel, auditMiddleware.AuditRequest("appointment"))

	billing := appMiddleware.RequireRole(models.RoleOwner, models.RoleManager, models.RoleCashier)
	protected.POST("/payments", paymentHandlers.CreateCharge, billing, auditMiddleware.AuditRequest("payment"))
	protected.GET("/payments", paymentHandlers.List, billing)
	protected.GET("/payments/:id", paymentHandlers.Get, billing)

	protected.PUT("/notifications/webhooks/:type", notificationHandlers.SetWebhookConfig, staffAdmin)
	protected.GET("/notifications/webhooks/:type", notificationHandlers.GetWebhookConfig, staffAdmin)
	protected.DELETE("/notifications/webhooks/:type", notificationHandlers.DeleteWebhookConfig, staffAdmin)

	protected.GET("/feed", feedHandlers.Stream)

	protected.GET("/audit-logs", auditHandlers.List, staffAdmin)

	go func() {
		if err := e.Start(":" + cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zlog.Error("server shutdown failed", zap.Error(err))
	}
}
