package router

import (
	"time"

	"eventpay/internal/config"
	"eventpay/internal/handler"
	"eventpay/internal/infra"
	"eventpay/internal/middleware"
	"eventpay/internal/repository"
	"eventpay/internal/service"
	"eventpay/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, mailerCB *infra.CircuitBreaker) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	storage := infra.NewStorage(cfg.StorageBaseURL)

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	inscriptionRepo := repository.NewInscriptionRepository(db)
	eventRepo := repository.NewEventRepository(db)
	cashRepo := repository.NewCashRepository(db)
	ticketRepo := repository.NewTicketRepository(db)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	paymentSvc := service.NewPaymentService(paymentRepo, inscriptionRepo, eventRepo, cashRepo, storage, dispatcher)
	webhookSvc := service.NewWebhookService(paymentRepo, inscriptionRepo, eventRepo, cashRepo, dispatcher)
	cashSvc := service.NewCashService(cashRepo, eventRepo, paymentRepo)
	ticketSvc := service.NewTicketService(ticketRepo, eventRepo, cashRepo)
	reconSvc := service.NewReconciliationService(paymentRepo, eventRepo, cashRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	paymentsH := handler.NewPaymentsHandler(paymentSvc)
	webhooksH := handler.NewWebhooksHandler(webhookSvc, cfg.WebhookSecret)
	cashH := handler.NewCashHandler(cashSvc)
	ticketsH := handler.NewTicketsHandler(ticketSvc)
	reconH := handler.NewReconciliationHandler(reconSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, mailerCB))
	r.Static("/storage", cfg.ReceiptStoragePath)

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
	}

	// Gateway webhook — outside the JWT group, authenticated by shared secret
	r.POST("/v1/webhooks/gateway", webhooksH.Gateway)

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: operator, auditor, admin — declared per-endpoint
		payments := v1.Group("/payments")
		{
			payments.POST("", middleware.RequireRole("operator", "admin"), paymentsH.Register)
			payments.GET("/:id", middleware.RequireRole("operator", "auditor", "admin"), paymentsH.Get)
			payments.POST("/:id/approve", middleware.RequireRole("operator", "admin"), paymentsH.Approve)
			payments.POST("/:id/reject", middleware.RequireRole("operator", "admin"), paymentsH.Reject)
			payments.DELETE("/:id", middleware.RequireRole("operator", "admin"), paymentsH.Cancel)
			payments.POST("/:id/reverse", middleware.RequireRole("admin"), paymentsH.Reverse)
		}

		cash := v1.Group("/cash")
		{
			cash.POST("/registers", middleware.RequireRole("operator", "admin"), cashH.OpenRegister)
			cash.GET("/registers", middleware.RequireRole("operator", "auditor", "admin"), cashH.ListRegisters)
			cash.POST("/registers/:id/close", middleware.RequireRole("operator", "admin"), cashH.CloseRegister)
			cash.GET("/registers/:id/movements", middleware.RequireRole("operator", "auditor", "admin"), cashH.Movements)
			cash.POST("/entries", middleware.RequireRole("operator", "admin"), cashH.RecordEntry)
			cash.POST("/transfers", middleware.RequireRole("operator", "admin"), cashH.Transfer)
			cash.POST("/expenses", middleware.RequireRole("operator", "admin"), cashH.RecordExpense)
		}

		tickets := v1.Group("/tickets")
		{
			tickets.POST("/sales", middleware.RequireRole("operator", "admin"), ticketsH.CreateSale)
			tickets.GET("/sales/:id", middleware.RequireRole("operator", "auditor", "admin"), ticketsH.GetSale)
			tickets.POST("/redeem", middleware.RequireRole("operator", "admin"), ticketsH.Redeem)
		}

		recon := v1.Group("/reconciliation", middleware.RequireRole("auditor", "admin"))
		{
			recon.GET("/events/:id", reconH.CheckEvent)
			recon.GET("/registers/:id", reconH.CheckRegister)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
