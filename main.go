package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/skillforge/referral_backend/config"
	"github.com/skillforge/referral_backend/controllers"
	"github.com/skillforge/referral_backend/middleware"
	"github.com/skillforge/referral_backend/repositories"
	"github.com/skillforge/referral_backend/routes"
	"github.com/skillforge/referral_backend/services"
)

// CustomValidator is a custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func main() {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found")
	}

	// Connect to Redis (optional, backs the overview cache)
	redisClient := config.ConnectRedis()

	// Connect to database
	client := config.ConnectDB()
	db := client.Database(config.DatabaseName())

	// Create a new Echo instance
	e := echo.New()

	// Initialize custom validator
	e.Validator = &CustomValidator{validator: validator.New()}

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter()

	// Middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.Secure())
	e.Use(rateLimiter.RateLimit())

	e.Match([]string{"GET", "HEAD"}, "/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":  "OK",
			"message": "Referral backend is running",
			"version": "1.0",
		})
	})

	e.Match([]string{"GET", "HEAD"}, "/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":   "healthy",
			"database": "connected",
		})
	})

	e.Use(httpsRedirect())

	// Initialize repositories
	linkRepo := repositories.NewLinkRepository(db)
	referralRepo := repositories.NewReferralRepository(db)
	settingsRepo := repositories.NewSettingsRepository(db)
	earningRepo := repositories.NewEarningRepository(db)
	payoutRepo := repositories.NewPayoutRepository(db)

	// Initialize services
	settingsService := services.NewSettingsService(settingsRepo)
	linkService := services.NewLinkService(linkRepo, referralRepo, settingsService)
	earningService := services.NewEarningService(earningRepo, settingsRepo, referralRepo, maturationWindow())
	payoutService := services.NewPayoutService(payoutRepo, earningRepo)
	statsService := services.NewStatsService(linkRepo, referralRepo, settingsRepo, earningRepo, payoutRepo, redisClient)

	// Initialize controllers
	referralController := controllers.NewReferralController(linkService, earningService, payoutService, statsService)
	transactionController := controllers.NewTransactionController(earningService, linkService)
	adminController := controllers.NewAdminReferralController(payoutService, statsService, settingsService)

	// Register routes
	routes.RegisterReferralRoutes(e, referralController)
	routes.RegisterTransactionRoutes(e, transactionController)
	routes.RegisterAdminRoutes(e, adminController)

	// Keep the admin overview cache warm so dashboards rarely pay the
	// aggregation cost.
	if redisClient != nil {
		go func() {
			for {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				if _, err := statsService.RefreshOverview(ctx); err != nil {
					log.Printf("Failed to refresh referral overview: %v", err)
				}
				cancel()
				time.Sleep(1 * time.Minute)
			}
		}()
	}

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	e.Logger.Fatal(e.Start(":" + port))
}

// maturationWindow reads the earning maturation window from the environment,
// in days. Earnings stay unreservable for this long to absorb chargebacks.
func maturationWindow() time.Duration {
	if daysStr := os.Getenv("MATURATION_DAYS"); daysStr != "" {
		if days, err := strconv.Atoi(daysStr); err == nil && days > 0 {
			return time.Duration(days) * 24 * time.Hour
		}
	}
	return services.DefaultMaturationWindow
}

func httpsRedirect() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("X-Forwarded-Proto") == "http" {
				return c.Redirect(301, "https://"+c.Request().Host+c.Request().RequestURI)
			}
			return next(c)
		}
	}
}
