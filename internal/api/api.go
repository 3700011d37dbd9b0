package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/stockwatch/internal/api/handlers"
	"github.com/andresuchdata/stockwatch/internal/api/middleware"
	"github.com/andresuchdata/stockwatch/internal/service"
)

type Services struct {
	InventoryService *service.InventoryService
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(cors.New(corsConfig(allowedOrigins)))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil && services.InventoryService != nil {
		h := handlers.NewInventoryHandler(services.InventoryService)

		itemsGroup := apiGroup.Group("/items")
		{
			itemsGroup.GET("", h.ListItems)
			itemsGroup.POST("", h.CreateItem)
			itemsGroup.GET("/:id", h.GetItem)
			itemsGroup.PUT("/:id", h.UpdateItem)
			itemsGroup.DELETE("/:id", h.DeleteItem)
		}

		apiGroup.GET("/alerts", h.GetAlerts)
		apiGroup.GET("/dashboard", h.GetDashboard)

		txGroup := apiGroup.Group("/transactions")
		{
			txGroup.GET("", h.ListTransactions)
			txGroup.GET("/summary", h.GetTransactionSummary)
		}
	}

	return router
}

func corsConfig(allowedOrigins []string) cors.Config {
	cfg := cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	if len(allowedOrigins) > 0 {
		normalized, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			cfg.AllowOrigins = nil
			cfg.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalized) > 0 {
			cfg.AllowOrigins = normalized
		}
	}
	return cfg
}

// normalizeAllowedOrigins flattens comma-separated entries and reports
// whether "*" was present.
func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		for _, part := range strings.Split(origin, ",") {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
