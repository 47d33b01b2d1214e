package api

import (
	"go-prod-dashboard/internal/api/handler"
	"go-prod-dashboard/pkg/router"

	httpSwagger "github.com/swaggo/http-swagger"
)

func RegisterRoutes(r *router.Router, h *handler.DashboardHandler) {
	r.GET("/", h.Index)
	r.GET("/healthz", h.Health)

	r.GET("/api/v1/dashboards", h.ListDashboards)
	r.POST("/api/v1/cache/clear", h.ClearCache)
	// More specific routes first
	r.GET("/api/v1/dashboards/*/filters", h.GetFilters)
	r.GET("/api/v1/dashboards/*/rows", h.GetRows)
	r.GET("/api/v1/dashboards/*/export", h.Export)
	r.GET("/api/v1/dashboards/*/history", h.GetHistory)
	r.POST("/api/v1/dashboards/*/reload", h.Reload)
	// Generic dashboard route last
	r.GET("/api/v1/dashboards/*", h.GetDashboard)

	r.GET("/dashboards/*/charts", h.Charts)
	r.POST("/dashboards/*/reload", h.ReloadPage)
	r.GET("/dashboards/*", h.Page)

	r.GET("/swagger/*", router.HandlerFunc(httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json"))))
}
