package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"coinvault/internal/asset"
	"coinvault/internal/auth"
	"coinvault/internal/config"
	"coinvault/internal/idempotency"
	"coinvault/internal/item"
	"coinvault/internal/ledger"
	"coinvault/internal/task"
	"coinvault/internal/user"
	"coinvault/internal/wallet"
)

type Server struct {
	router *gin.Engine
	db     *sqlx.DB
	config *config.Config
	http   *http.Server
}

func New(db *sqlx.DB, cfg *config.Config, registry *asset.Registry, cache *idempotency.Cache) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())

	journal := ledger.NewRepository(db)
	engine := ledger.NewEngine(db)

	walletRepo := wallet.NewRepository(db)
	itemRepo := item.NewRepository(db)
	taskRepo := task.NewRepository(db)
	userRepo := user.NewRepository(db)

	walletService := wallet.NewService(walletRepo, engine, itemRepo, registry)
	taskService := task.NewService(db, taskRepo, engine, registry)
	userService := user.NewService(db, userRepo, walletRepo, cfg.JWTSecret)

	walletHandler := wallet.NewHandler(walletService, journal)
	taskHandler := task.NewHandler(taskRepo, taskService)
	itemHandler := item.NewHandler(itemRepo)
	userHandler := user.NewHandler(userService)

	// every balance-mutating route carries the idempotency guard and the
	// rate limiter; reads carry neither
	idempotent := idempotency.Middleware(cache, journal)
	limited := RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst)

	public := router.Group("/auth")
	public.Use(limited)
	{
		public.POST("/register", userHandler.Register)
		public.POST("/login", userHandler.Login)
	}

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", userHandler.GetMe)

		protected.GET("/tasks", taskHandler.ListTasks)
		protected.POST("/tasks/complete", limited, idempotent, taskHandler.CompleteTask)

		protected.GET("/items", itemHandler.ListItems)

		protected.GET("/wallet/:userID/balance", walletHandler.GetBalances)
		protected.GET("/wallet/:userID/balance/:assetID", walletHandler.GetAssetBalance)
		protected.GET("/wallet/transactions", walletHandler.ListTransactions)
		protected.POST("/wallet/spend/:itemID", limited, idempotent, walletHandler.Spend)
		protected.POST("/wallet/convert/silver-gold", limited, idempotent, walletHandler.ConvertSilverToGold)
		protected.POST("/wallet/convert/gold-diamond", limited, idempotent, walletHandler.ConvertGoldToDiamond)
	}

	admin := router.Group("/admin")
	admin.Use(authMiddleware, auth.RequireRole(auth.RoleAdmin))
	{
		admin.POST("/wallet/:userID/topup/:assetID", idempotent, walletHandler.TopUp)
		admin.POST("/wallet/:userID/bonus/:assetID", idempotent, walletHandler.Bonus)

		admin.POST("/tasks", taskHandler.CreateTask)
		admin.POST("/tasks/bulk", taskHandler.CreateBulkTasks)
		admin.DELETE("/tasks/:taskID", taskHandler.DeleteTask)

		admin.POST("/items", itemHandler.CreateItem)
		admin.POST("/items/bulk", itemHandler.CreateBulkItems)
	}

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())
	SetupSwagger(router)

	return &Server{
		router: router,
		db:     db,
		config: cfg,
	}
}

func (s *Server) Start(port string) error {
	s.http = &http.Server{
		Addr:              ":" + port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests before returning.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, X-Idempotency-Key, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
