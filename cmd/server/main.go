// @title           Freelance Portal API
// @version         1.0
// @description     Client portal for a freelance studio: projects, deliveries, invoices, payments, messages and notifications, plus the studio admin.
// @contact.name    Aldo Rifki Putra
// @contact.email   aldoetobex@gmail.com
// @BasePath        /api
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
// @description     Format: Bearer <token>
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aldoetobex/freelance-portal/internal/admin"
	"github.com/aldoetobex/freelance-portal/internal/auth"
	"github.com/aldoetobex/freelance-portal/internal/billing"
	"github.com/aldoetobex/freelance-portal/internal/clients"
	"github.com/aldoetobex/freelance-portal/internal/config"
	"github.com/aldoetobex/freelance-portal/internal/dashboard"
	"github.com/aldoetobex/freelance-portal/internal/deliveries"
	"github.com/aldoetobex/freelance-portal/internal/logging"
	"github.com/aldoetobex/freelance-portal/internal/messages"
	"github.com/aldoetobex/freelance-portal/internal/notifications"
	"github.com/aldoetobex/freelance-portal/internal/payments"
	"github.com/aldoetobex/freelance-portal/internal/projects"
	"github.com/aldoetobex/freelance-portal/internal/realtime"
	"github.com/aldoetobex/freelance-portal/internal/site"
	"github.com/aldoetobex/freelance-portal/internal/storage"
	"github.com/aldoetobex/freelance-portal/internal/store"
	"github.com/aldoetobex/freelance-portal/pkg/database"
	"github.com/aldoetobex/freelance-portal/pkg/dedup"
	"github.com/aldoetobex/freelance-portal/pkg/models"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logging.New(cfg.IsDev())
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Fatal("refusing to start", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DatabaseURL, cfg.IsDev())
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}
	st := store.New(db)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	defer rdb.Close()

	tokens := auth.NewTokens(cfg.JWTSecret, 0)
	gate, err := admin.NewGate(admin.NewRedisStore(rdb), cfg.AdminPassword, cfg.AdminSessionTTL)
	if err != nil {
		log.Fatal("admin gate", zap.Error(err))
	}

	hub := realtime.NewHub(log.Named("realtime"))
	files := storage.NewSupabase(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.SupabaseBucket)
	if !files.Configured() {
		log.Warn("supabase storage not configured; delivery uploads and downloads are disabled")
	}

	// Services
	notifySvc := notifications.NewService(st, hub, log.Named("notifications"))
	msgSvc := messages.NewService(st, dedup.NewRedis(rdb, 10*time.Minute), notifySvc, hub, log.Named("messages"))
	deliverySvc := deliveries.NewService(st, files, notifySvc, log.Named("deliveries"))
	billingSvc := billing.NewService(st, notifySvc, log.Named("billing"))
	dashSvc := dashboard.NewService(st, log.Named("dashboard"))
	paySvc := payments.NewService(billingSvc, st, log.Named("payments"), paymentProviders(cfg)...)

	go billingSvc.RunOverdueSweeper(ctx, time.Hour)

	app := fiber.New(fiber.Config{
		ErrorHandler: auth.ErrorHandler,
		BodyLimit:    deliveries.MaxUploadBytes + 1<<20,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"status": "ok"}) })
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	// Public
	siteH := site.NewHandler(st, log.Named("site"))
	api.Get("/testimonials", siteH.Testimonials)
	api.Post("/contact", siteH.Contact)

	authH := auth.NewHandler(st, tokens, log.Named("auth"))
	api.Post("/login", authH.Login)
	api.Post("/magic-link/verify", authH.VerifyMagicLink)
	api.Get("/me", tokens.RequireAuth(), authH.Me)
	api.Post("/me/password", tokens.RequireAuth(), authH.SetPassword)

	// Client portal
	client := []fiber.Handler{tokens.RequireAuth(), auth.RequireRole(models.RoleClient)}
	portal := api.Group("/portal", client...)

	dashH := dashboard.NewHandler(dashSvc, log.Named("dashboard"))
	projH := projects.NewHandler(st, log.Named("projects"))
	billH := billing.NewHandler(billingSvc, log.Named("billing"))
	delH := deliveries.NewHandler(deliverySvc, log.Named("deliveries"))
	msgH := messages.NewHandler(msgSvc, hub, log.Named("messages")).StopStreamsOn(ctx)
	notH := notifications.NewHandler(notifySvc, hub, log.Named("notifications")).StopStreamsOn(ctx)

	portal.Get("/dashboard", dashH.Client)
	portal.Get("/projects", projH.List)
	portal.Get("/projects/:id", projH.Get)
	portal.Get("/invoices", billH.List)
	portal.Get("/projects/:id/deliveries", delH.List)
	portal.Post("/deliveries/:id/review", delH.Review)
	portal.Get("/deliveries/:id/download", delH.Download)
	portal.Get("/projects/:id/messages", msgH.List)
	portal.Post("/projects/:id/messages", msgH.Send)
	portal.Post("/messages/:id/read", msgH.MarkRead)
	portal.Get("/notifications", notH.List)
	portal.Post("/notifications/read-all", notH.MarkAllRead)
	portal.Post("/notifications/:id/read", notH.MarkRead)
	portal.Get("/stream/messages/:projectID", msgH.Stream)
	portal.Get("/stream/notifications", notH.Stream)

	// Payments
	payH := payments.NewHandler(paySvc, cfg.PaymentProviderMock, cfg.DevPaymentSecret, log.Named("payments"))
	pay := api.Group("/payments")
	pay.Post("/stripe/create-session", append(client, payH.StripeSession)...)
	pay.Post("/mercadopago/create-preference", append(client, payH.MercadoPagoPreference)...)
	pay.Post("/pix/generate", append(client, payH.PixGenerate)...)
	pay.Get("/status/:transactionId", append(client, payH.Status)...)
	if cfg.PaymentProviderMock {
		pay.Post("/mock/complete", payH.MockComplete) // protected by X-Dev-Secret
	}

	// Admin
	adminH := admin.NewHandler(gate, tokens, log.Named("admin"))
	api.Post("/admin/login", adminH.Login)
	api.Post("/admin/logout", tokens.RequireAuth(), adminH.Logout)
	api.Get("/admin/session", tokens.RequireAuth(), adminH.Session)

	adm := api.Group("/admin", tokens.RequireAuth(), adminH.RequireSession())
	clientH := clients.NewHandler(st, cfg.PublicBaseURL, cfg.MagicLinkTTL, log.Named("clients"))
	adm.Post("/clients", clientH.Create)
	adm.Get("/clients", clientH.List)
	adm.Get("/clients/:id", clientH.Get)
	adm.Patch("/clients/:id", clientH.Update)
	adm.Post("/clients/:id/magic-link", clientH.MagicLink)
	adm.Get("/clients/:id/dashboard", dashH.Admin)
	adm.Post("/projects", projH.Create)
	adm.Patch("/projects/:id", projH.Update)
	adm.Post("/projects/:id/milestones", projH.AddMilestone)
	adm.Post("/projects/:id/tasks", projH.AddTask)
	adm.Patch("/tasks/:id", projH.UpdateTask)
	adm.Post("/projects/:id/deliveries", delH.Create)
	adm.Get("/projects/:id/messages", msgH.AdminList)
	adm.Post("/projects/:id/messages", msgH.AdminSend)
	adm.Post("/invoices", billH.Create)
	adm.Get("/invoices/export", billH.Export)
	adm.Post("/invoices/:id/payments", billH.RecordPayment)
	adm.Post("/notifications", notH.Create)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Warn("shutdown", zap.Error(err))
		}
	}()

	log.Info("server running", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal("listen", zap.Error(err))
	}
}

// paymentProviders returns the real providers, or mocks of all three when
// PAYMENT_PROVIDER_MOCK is set.
func paymentProviders(cfg *config.Config) []payments.Provider {
	if cfg.PaymentProviderMock {
		return []payments.Provider{
			payments.NewMock(payments.ProviderStripe, "card", cfg.PublicBaseURL),
			payments.NewMock(payments.ProviderMercadoPago, "mercadopago", cfg.PublicBaseURL),
			payments.NewMock(payments.ProviderPix, "pix", cfg.PublicBaseURL),
		}
	}
	return []payments.Provider{
		payments.NewStripe(cfg.StripeSecretKey, cfg.PublicBaseURL),
		payments.NewMercadoPago(cfg.MercadoPagoBaseURL, cfg.MercadoPagoAccessToken, cfg.PublicBaseURL),
		payments.NewPix(cfg.PixBaseURL, cfg.PixAPIKey),
	}
}
