package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"linker-backend/pkg/auth"
	"linker-backend/pkg/config"
	"linker-backend/pkg/database"
	"linker-backend/pkg/logger"
	customMiddleware "linker-backend/pkg/middleware"
	"linker-backend/pkg/utils"
)

// NewRouter 创建Chi路由器（单体路由模式，所有端点集中在一个路由器中）
func NewRouter(cfg *config.Config, store database.Store, resolver *auth.Resolver, log logger.Logger) *chi.Mux {
	router := chi.NewRouter()

	setupMiddleware(router, cfg, log)
	setupRoutes(router, cfg, store, resolver, log)

	return router
}

// setupMiddleware 设置全局中间件
func setupMiddleware(router *chi.Mux, cfg *config.Config, log logger.Logger) {
	// 基础中间件
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	// Normalize path and restore scheme/host before logging and routing
	router.Use(customMiddleware.Normalize())
	router.Use(customMiddleware.RequestLogger(log))
	router.Use(customMiddleware.Recovery(cfg, log))

	// CORS中间件
	router.Use(customMiddleware.CORS(cfg))

	// 超时中间件（Vercel函数有时间限制）
	if cfg.RequestTimeout > 0 {
		router.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	// IP限流（RATE_LIMIT_RPM=0 时关闭）
	router.Use(customMiddleware.RateLimitByIP(cfg.RateLimitRPM))

	// 压缩中间件
	router.Use(middleware.Compress(5))

	// 开发环境额外中间件
	if cfg.IsDevelopment() {
		router.Use(middleware.Heartbeat("/ping"))
	}
}

// setupRoutes 设置所有路由
func setupRoutes(router *chi.Mux, cfg *config.Config, store database.Store, resolver *auth.Resolver, log logger.Logger) {
	healthHandler := NewHealthHandler(cfg, store, log)
	linksHandler := NewLinksHandler(store, log)
	categoriesHandler := NewCategoriesHandler(store, log)

	// 公开路由
	router.Get("/", healthHandler.Hello)
	router.Get("/healthz", healthHandler.HealthCheck)
	if cfg.MetricsEnabled {
		router.Handle("/metrics", promhttp.Handler())
	}

	// 需要认证的路由
	router.Group(func(r chi.Router) {
		r.Use(customMiddleware.Authenticate(resolver, log))
		r.Use(customMiddleware.MaxBodySize(cfg.MaxBodyBytes))
		r.Use(customMiddleware.ContentTypeJSON)

		r.Route("/links", func(r chi.Router) {
			r.Post("/add-new-link", linksHandler.AddLink)
			r.Get("/get-all-links", linksHandler.GetAllLinks)
			r.Put("/{link_id}/edit-link", linksHandler.EditLink)
			r.Delete("/{link_id}/delete-link", linksHandler.DeleteLink)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Post("/add-new-category", categoriesHandler.AddCategory)
			r.Get("/get-all-categories", categoriesHandler.GetAllCategories)
			r.Put("/{category_id}/edit-category", categoriesHandler.EditCategory)
			r.Delete("/{category_id}/delete-category", categoriesHandler.DeleteCategory)
		})
	})

	// 404处理
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteNotFoundResponse(w, fmt.Sprintf("Route not found: %s %s", r.Method, r.URL.Path))
	})

	// 405处理
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteMethodNotAllowedResponse(w, fmt.Sprintf("Method %s not allowed for %s", r.Method, r.URL.Path))
	})
}
