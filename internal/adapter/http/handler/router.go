package handler

import (
	"remit-backoffice/internal/adapter/http/middleware"
	"remit-backoffice/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	TransferSvc    ports.TransferService
	LedgerSvc      ports.LedgerService
	WalletSvc      ports.WalletService
	JWTSecret      string
	JWTIssuer      string
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

	// Health check (deep, verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	jwtAuth := middleware.JWTAuth(deps.JWTSecret, deps.JWTIssuer, deps.Logger)

	transferHandler := NewTransferHandler(deps.TransferSvc)
	accountHandler := NewAccountHandler(deps.LedgerSvc)
	walletHandler := NewWalletHandler(deps.WalletSvc)

	v1 := r.Group("/api/v1", jwtAuth)

	transfers := v1.Group("/transfers")
	{
		transfers.POST("", transferHandler.Create)
		transfers.GET("", transferHandler.List)
		transfers.GET("/:id", transferHandler.Get)
		transfers.POST("/:id/receive", transferHandler.Receive)
		transfers.POST("/:id/cancel", transferHandler.Cancel)
	}

	accounts := v1.Group("/accounts")
	{
		accounts.GET("/:code/ledger", accountHandler.Ledger)
		accounts.GET("/:code/balances", accountHandler.Balances)
	}

	wallets := v1.Group("/wallets")
	{
		wallets.GET("/:user_id", walletHandler.Get)
		wallets.POST("/:user_id/reconcile", walletHandler.Reconcile)
	}

	return r
}
