package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/Cionyh/T2MS-mvp-sub000/internal/config"
	"github.com/Cionyh/T2MS-mvp-sub000/internal/database"
	"github.com/Cionyh/T2MS-mvp-sub000/internal/routes"
)

func main() {
	cfg := config.Load()
	db := database.Connect(cfg.DatabaseURL)

	app := fiber.New(fiber.Config{
		AppName: "Text-to-Site Backend",
	})

	app.Use(recover.New())
	app.Use(logger.New())

	routes.Register(app, db, cfg)

	if cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" {
		log.Println("warning: Twilio credentials not configured; outbound SMS and OTP verification are disabled")
	}
	if !cfg.ValidateSignature {
		log.Println("warning: gateway signature validation is OFF; never run this way in production")
	}

	log.Printf("Starting server on :%s", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatalf("fiber.Listen error: %v", err)
	}
}
