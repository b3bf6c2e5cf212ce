package handler

import (
	"tappay/internal/adapter/http/middleware"
	"tappay/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	LedgerSvc      ports.LedgerService
	CardSvc        ports.CardService
	MerchantSvc    ports.MerchantService
	ReportingSvc   ports.ReportingService
	TokenSvc       ports.TokenService
	Sessions       ports.SessionStore
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep, verifies PostgreSQL and Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	// --- JWT-authenticated routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Sessions, deps.Logger)

	authed := v1.Group("/auth", jwtAuth)
	{
		authed.POST("/logout", authHandler.Logout)
	}
	users := v1.Group("/users", jwtAuth)
	{
		users.DELETE("/me", authHandler.Deactivate)
	}

	walletHandler := NewWalletHandler(deps.LedgerSvc, deps.ReportingSvc)
	wallet := v1.Group("/wallet", jwtAuth)
	{
		wallet.GET("/balance", walletHandler.GetBalance)
		wallet.GET("/daily-spend", walletHandler.GetDailySpend)
		wallet.POST("/deposit", walletHandler.Deposit)
		wallet.POST("/withdraw", walletHandler.Withdraw)
		wallet.POST("/transfer", walletHandler.Transfer)
	}

	paymentHandler := NewPaymentHandler(deps.LedgerSvc)
	payments := v1.Group("/payments", jwtAuth)
	{
		payments.POST("", paymentHandler.ProcessPayment)
		payments.POST("/:id/refund", paymentHandler.Refund)
	}

	transactionHandler := NewTransactionHandler(deps.ReportingSvc)
	transactions := v1.Group("/transactions", jwtAuth)
	{
		transactions.GET("", transactionHandler.List)
		transactions.GET("/:id", transactionHandler.Get)
		transactions.POST("/:id/cancel", paymentHandler.Cancel)
	}

	cardHandler := NewCardHandler(deps.CardSvc)
	cards := v1.Group("/cards", jwtAuth)
	{
		cards.POST("", cardHandler.AddCard)
		cards.GET("", cardHandler.ListCards)
		cards.POST("/:id/deactivate", cardHandler.DeactivateCard)
		cards.DELETE("/:id", cardHandler.RemoveCard)
	}

	merchantHandler := NewMerchantHandler(deps.MerchantSvc)
	merchants := v1.Group("/merchants", jwtAuth)
	{
		merchants.POST("", merchantHandler.Register)
		merchants.GET("", merchantHandler.List)
		merchants.PUT("/:id/active", merchantHandler.SetActive)
	}

	return r
}
