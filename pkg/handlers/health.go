package handlers

import (
	"context"
	"net/http"
	"time"

	"linker-backend/pkg/config"
	"linker-backend/pkg/database"
	"linker-backend/pkg/logger"
	"linker-backend/pkg/utils"
)

// HealthHandler 根路径与健康检查
type HealthHandler struct {
	config *config.Config
	store  database.Store
	log    logger.Logger
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(cfg *config.Config, store database.Store, log logger.Logger) *HealthHandler {
	return &HealthHandler{config: cfg, store: store, log: log}
}

// Hello GET /
func (h *HealthHandler) Hello(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "Hello World"})
}

// HealthCheck GET /healthz
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	body := map[string]interface{}{
		"service":     "linker-backend",
		"environment": h.config.Environment,
		"store":       h.store.Name(),
		"auth_mode":   h.config.AuthMode,
		"timestamp":   time.Now().Unix(),
	}

	if err := h.store.HealthCheck(ctx); err != nil {
		h.log.Warn("health check failed", logger.Error(err))
		body["status"] = "unhealthy"
		body["store_status"] = "unhealthy: " + err.Error()
		utils.WriteJSON(w, http.StatusServiceUnavailable, body)
		return
	}

	body["status"] = "healthy"
	body["store_status"] = "healthy"
	utils.WriteJSON(w, http.StatusOK, body)
}
