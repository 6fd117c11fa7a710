package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/natpethunai/marketplace_backend/config"
	"github.com/natpethunai/marketplace_backend/controllers"
	"github.com/natpethunai/marketplace_backend/middleware"
	"github.com/natpethunai/marketplace_backend/repositories"
	"github.com/natpethunai/marketplace_backend/routes"
	"github.com/natpethunai/marketplace_backend/services"
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

	// Connect to Redis (optional; settlement dedup locks only)
	redisClient := config.ConnectRedis()

	// Connect to database
	client := config.ConnectDB()

	// Create a new Echo instance
	e := echo.New()

	// Initialize custom validator
	customValidator := &CustomValidator{validator: validator.New()}
	e.Validator = customValidator

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter()

	// Middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.Secure())
	e.Use(rateLimiter.RateLimit())
	e.Use(middleware.SecurityHeadersWithConfig(middleware.SecurityConfig{
		AllowedDomains: []string{"*"},
	}))

	e.Match([]string{"GET", "HEAD"}, "/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":  "OK",
			"message": "Natpe Thunai settlement backend is running",
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
	transactionRepo := repositories.NewTransactionRepository(client)
	productRepo := repositories.NewProductRepository(client)
	profileRepo := repositories.NewProfileRepository(client)

	var locker services.IdempotencyLocker
	if redisClient != nil {
		locker = repositories.NewRedisSettlementLock(redisClient)
	}

	// Initialize services
	commissionConfig := services.DefaultCommissionConfig()
	settlementService := services.NewSettlementService(commissionConfig, transactionRepo, productRepo, profileRepo, locker)
	gatewayService := services.NewGatewayService()

	// Initialize controllers
	settlementController := controllers.NewSettlementController(settlementService)
	transactionController := controllers.NewTransactionController(transactionRepo, settlementService, commissionConfig)
	paymentController := controllers.NewPaymentController(gatewayService)

	// Register settlement and transaction routes
	routes.RegisterSettlementRoutes(e, settlementController, transactionController, paymentController)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	e.Logger.Fatal(e.Start(":" + port))
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
