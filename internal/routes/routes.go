package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"gorm.io/gorm"

	"github.com/Cionyh/T2MS-mvp-sub000/internal/config"
	"github.com/Cionyh/T2MS-mvp-sub000/internal/handlers"
	"github.com/Cionyh/T2MS-mvp-sub000/internal/middleware"
	"github.com/Cionyh/T2MS-mvp-sub000/internal/repository"
	"github.com/Cionyh/T2MS-mvp-sub000/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	gateway := services.NewTwilioService(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, cfg.TwilioVerifySID)

	phones := repository.NewPhoneRepository(db)
	sites := repository.NewSiteRepository(db)
	messages := repository.NewMessageRepository(db)
	subscriptions := repository.NewSubscriptionRepository(db)

	notifier := services.NewNotifier(gateway)
	quota := services.NewQuotaService(subscriptions)
	verification := services.NewVerificationService(phones, gateway)
	inbound := services.NewInboundService(phones, sites, quota, messages, notifier)

	webhookHandler := handlers.NewWebhookHandler(inbound)
	verificationHandler := handlers.NewVerificationHandler(verification, cfg)
	widgetHandler := handlers.NewWidgetHandler(sites, messages)
	healthHandler := handlers.NewHealthHandler(db)

	api := app.Group("/api")

	api.Get("/health", healthHandler.Check)

	// Gateway webhook; the signature check runs before the handler.
	webhooks := api.Group("/webhooks")
	webhooks.Post("/sms",
		middleware.GatewaySignature(cfg.TwilioAuthToken, cfg.PublicBaseURL, cfg.ValidateSignature),
		webhookHandler.Receive)

	// Verification flows. Initiation and invite generation are dashboard
	// actions; confirmation and redemption come from the phone holder.
	verifications := api.Group("/verifications")
	verifications.Post("/", middleware.AuthMiddleware(cfg), verificationHandler.Initiate)
	verifications.Post("/confirm", verificationHandler.Confirm)

	invites := api.Group("/invites")
	invites.Post("/", middleware.AuthMiddleware(cfg), verificationHandler.GenerateInvite)
	invites.Post("/redeem", verificationHandler.RedeemInvite)

	// Widget polling, embedded cross-origin.
	widget := api.Group("/widget", cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET",
	}))
	widget.Get("/:siteID", widgetHandler.Current)
}
