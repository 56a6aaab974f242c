package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"newsdesk/portal/internal/api/handlers"
	"newsdesk/portal/internal/api/middleware"
	"newsdesk/portal/internal/config"
	"newsdesk/portal/internal/db"
	"newsdesk/portal/internal/email"
	"newsdesk/portal/internal/logger"
	"newsdesk/portal/internal/models"
	"newsdesk/portal/internal/services"
	"newsdesk/portal/internal/storage"
)

// SetupRouter configures and returns the main Gin engine. ctx bounds background
// work owned by the router, such as rate limiter cleanup.
func SetupRouter(ctx context.Context, cfg *config.Config, svc *services.Registry, s3 storage.IS3Storage, images handlers.ImageQueue) (*gin.Engine, error) {
	if err := middleware.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	authHandler := handlers.NewAuthHandler(cfg, svc.Admins, svc.Agents, svc.Customers, svc.Hokers)
	adminHandler := handlers.NewAdminHandler(svc.Admins, svc.Agents, svc.Customers, svc.EmailTemplates)
	catalogHandler := handlers.NewCatalogHandler(svc.Catalog, s3, images)
	exportHandler := handlers.NewExportHandler(svc.Exports)
	agentHandler := handlers.NewAgentHandler(handlers.AgentDeps{
		Agents:     svc.Agents,
		Customers:  svc.Customers,
		Allotments: svc.Allotments,
		Hokers:     svc.Hokers,
		Deliveries: svc.Deliveries,
		Billing:    svc.Billing,
		Payments:   svc.Payments,
		Storage:    s3,
		Images:     images,
	})
	customerHandler := handlers.NewCustomerHandler(handlers.CustomerDeps{
		Customers:     svc.Customers,
		Allotments:    svc.Allotments,
		Subscriptions: svc.Subscriptions,
		Deliveries:    svc.Deliveries,
		Billing:       svc.Billing,
		Payments:      svc.Payments,
	})
	hokerHandler := handlers.NewHokerHandler(svc.Hokers, svc.Deliveries)
	pageHandler := handlers.NewPageHandler(cfg.AppName)

	secret := cfg.JwtSecret

	r := gin.New()
	// RoleGate is engine-wide so unknown pages under a role tree redirect too.
	r.Use(middleware.RequestLogger(), gin.Recovery(), middleware.CORSMiddleware(cfg.CorsAllowOrigin), middleware.RoleGate(secret))
	r.SetHTMLTemplate(handlers.PageTemplates())

	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	rateLimiter := middleware.NewRateLimiterMiddleware(ctx, cfg)

	api := r.Group("/api")
	{
		// Credential endpoints are rate limited per client IP.
		creds := api.Group("", rateLimiter.Limit())
		creds.POST("/admin/signup", authHandler.AdminSignup)
		creds.POST("/admin/login", authHandler.AdminLogin)
		creds.POST("/agent/signup", authHandler.AgentSignup)
		creds.POST("/agent/login", authHandler.AgentLogin)
		creds.POST("/customers/signup", authHandler.CustomerSignup)
		creds.POST("/customers/login", authHandler.CustomerLogin)
		creds.POST("/hoker/login", authHandler.HokerLogin)
		api.POST("/logout", authHandler.Logout)

		catalog := api.Group("/catalog", middleware.RequireRole(secret, models.Roles...))
		catalog.GET("/:kind", catalogHandler.List)
		catalog.GET("/:kind/:id", catalogHandler.Get)

		admin := api.Group("/admin", middleware.RequireRole(secret, models.RoleAdmin))
		admin.GET("/profile", adminHandler.Profile)
		admin.GET("/agents", adminHandler.ListAgents)
		admin.PATCH("/agents/:id", adminHandler.ReviewAgent)
		admin.GET("/customers", adminHandler.ListCustomers)
		admin.GET("/email-templates", adminHandler.ListEmailTemplates)
		admin.PUT("/email-templates/:templateId/:locale", adminHandler.SaveEmailTemplate)
		admin.DELETE("/email-templates/:templateId/:locale", adminHandler.DeleteEmailTemplate)
		admin.POST("/catalog/:kind", catalogHandler.Create)
		admin.PATCH("/catalog/:kind/:id", catalogHandler.Update)
		admin.DELETE("/catalog/:kind/:id", catalogHandler.Delete)
		admin.POST("/catalog/:kind/:id/image/upload-url", catalogHandler.ImageUploadURL)
		admin.POST("/catalog/:kind/:id/image", catalogHandler.ConfirmImage)
		admin.GET("/export/dump", exportHandler.DumpDatabase)
		admin.GET("/export/:collection", exportHandler.CollectionSpreadsheet)

		agent := api.Group("/agent", middleware.RequireRole(secret, models.RoleAgent))
		agent.GET("/profile", agentHandler.Profile)
		agent.PATCH("/profile", agentHandler.UpdateProfile)
		agent.POST("/profile/image/upload-url", agentHandler.ImageUploadURL)
		agent.POST("/profile/image", agentHandler.ConfirmImage)
		agent.GET("/customers", agentHandler.ListCustomers)
		agent.POST("/customers", agentHandler.AllotCustomer)
		agent.PUT("/customers/:id/hoker", agentHandler.AssignHoker)
		agent.PATCH("/allotments/:id", agentHandler.UpdateEntitlements)
		agent.DELETE("/allotments/:id", agentHandler.DeactivateAllotment)
		agent.GET("/hokers", agentHandler.ListHokers)
		agent.POST("/hokers", agentHandler.CreateHoker)
		agent.POST("/hokers/:id/reset", agentHandler.ResetHoker)
		agent.GET("/deliveries", agentHandler.ListDeliveries)
		agent.POST("/bills/generate", agentHandler.GenerateBills)
		agent.GET("/bills", agentHandler.ListBills)
		agent.POST("/bills/:id/paid", agentHandler.MarkBillPaid)
		agent.GET("/pay-requests", agentHandler.ListPayRequests)
		agent.GET("/pay-requests/history", agentHandler.PayRequestHistory)
		agent.POST("/pay-requests/:id", agentHandler.ResolvePayRequest)

		customer := api.Group("/customers", middleware.RequireRole(secret, models.RoleCustomer))
		customer.GET("/profile", customerHandler.Profile)
		customer.PATCH("/profile", customerHandler.UpdateProfile)
		customer.GET("/subscription", customerHandler.GetSubscription)
		customer.PUT("/subscription", customerHandler.SaveSubscription)
		customer.GET("/bills", customerHandler.ListBills)
		customer.POST("/pay-requests", customerHandler.CreatePayRequest)
		customer.GET("/pay-requests/history", customerHandler.PayRequestHistory)
		customer.GET("/pay-requests/:id", customerHandler.GetPayRequest)
		customer.GET("/deliveries", customerHandler.ListDeliveries)

		hoker := api.Group("/hoker", middleware.RequireRole(secret, models.RoleHoker))
		hoker.POST("/password", authHandler.HokerSetPassword)
		hoker.GET("/profile", hokerHandler.Profile)
		hoker.GET("/customers", hokerHandler.ListCustomers)
		hoker.GET("/deliveries", hokerHandler.ListDeliveries)
		hoker.POST("/deliveries", hokerHandler.RecordDelivery)
	}

	for _, role := range models.Roles {
		r.GET(middleware.LoginPath(role), pageHandler.Login(role))
		r.GET("/"+string(role), pageHandler.Dashboard(role))
	}

	return r, nil
}

// SetupServiceRouter configures the internal service API, served on a separate
// port. mongoClient and rdb are used by the health check; rdb also backs
// latestEmail when outgoing mail is captured in Redis.
func SetupServiceRouter(mongoClient *mongo.Client, rdb redis.Cmdable, shutdownChan chan<- struct{}) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	r.POST("/api", func(c *gin.Context) {
		var req struct {
			Method    string          `json:"method"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request format"})
			return
		}

		switch req.Method {
		case "health":
			ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
			defer cancel()
			checks := gin.H{"mongo": "ok", "redis": "ok"}
			healthy := true
			if err := db.Ping(ctx, mongoClient); err != nil {
				checks["mongo"] = err.Error()
				healthy = false
			}
			if err := rdb.Ping(ctx).Err(); err != nil {
				checks["redis"] = err.Error()
				healthy = false
			}
			status := http.StatusOK
			if !healthy {
				status = http.StatusServiceUnavailable
			}
			c.JSON(status, gin.H{"success": healthy, "checks": checks})

		case "shutdown":
			logger.L().Info("Received shutdown command via service API")
			c.JSON(http.StatusOK, gin.H{"success": true, "result": "Shutdown initiated"})
			select {
			case shutdownChan <- struct{}{}:
			default:
				logger.L().Warn("Shutdown already signaled")
			}

		case "latestEmail":
			var args []string // [recipient]
			if err := json.Unmarshal(req.Arguments, &args); err != nil || len(args) != 1 {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid arguments: expected [email]"})
				return
			}
			captured, err := email.LatestCaptured(c.Request.Context(), rdb, services.NormalizeEmail(args[0]))
			if err != nil {
				c.JSON(http.StatusNotFound, gin.H{"success": false, "message": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"success": true, "data": captured})

		default:
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": fmt.Sprintf("Unknown service method: %s", req.Method)})
		}
	})
	return r
}
