package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// HealthFunc reports whether the service dependencies are reachable.
type HealthFunc func(ctx context.Context) error

func NewRouter(handler *Handler, authMiddleware gin.HandlerFunc, env string, health HealthFunc) *gin.Engine {
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"*"},
		ExposeHeaders:   []string{"Content-Type"},
		MaxAge:          12 * time.Hour,
	}))

	router.GET("/healthz", func(c *gin.Context) {
		if health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := health(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	protected := router.Group("/api/v1")
	protected.Use(authMiddleware)
	{
		protected.POST("/vehicles", handler.registerVehicle)
		protected.GET("/vehicles", handler.listVehicles)
		protected.GET("/vehicles/:id", handler.getVehicle)
		protected.PUT("/vehicles/:id/odometer", handler.updateOdometer)
		protected.DELETE("/vehicles/:id", handler.archiveVehicle)

		protected.PUT("/vehicles/:id/plan", handler.setPlan)
		protected.GET("/vehicles/:id/plan", handler.getPlan)
		protected.DELETE("/vehicles/:id/plan", handler.deactivatePlan)
		protected.DELETE("/vehicles/:id/alerts", handler.attendVehicleAlerts)

		protected.POST("/parts", handler.createPart)
		protected.GET("/parts", handler.listParts)
		protected.GET("/parts/:id", handler.getPart)
		protected.POST("/parts/:id/restock", handler.restockPart)
		protected.DELETE("/parts/:id", handler.archivePart)

		protected.POST("/work-orders", handler.createWorkOrder)
		protected.GET("/work-orders", handler.listWorkOrders)
		protected.GET("/work-orders/:id", handler.getWorkOrder)
		protected.POST("/work-orders/:id/assign", handler.assignWorkOrder)
		protected.POST("/work-orders/:id/tasks", handler.addTask)
		protected.POST("/work-orders/:id/work", handler.recordWork)
		protected.POST("/work-orders/:id/tasks/:taskId/complete", handler.completeTask)
		protected.POST("/work-orders/:id/close", handler.closeWorkOrder)

		protected.GET("/alerts", handler.listAlerts)
		protected.POST("/alerts/scan", handler.scanAlerts)
	}

	return router
}
