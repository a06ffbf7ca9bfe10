package handler

import (
	"net/http"
	"sync"

	"linker-backend/pkg/auth"
	"linker-backend/pkg/config"
	"linker-backend/pkg/database"
	"linker-backend/pkg/handlers"
	"linker-backend/pkg/logger"
	"linker-backend/pkg/utils"
)

// 冷启动时初始化一次，热请求复用
var (
	appLogger  logger.Logger
	loggerOnce sync.Once

	routerMu    sync.Mutex
	routerStore database.Store
	router      http.Handler
)

func getLogger(cfg *config.Config) logger.Logger {
	loggerOnce.Do(func() {
		appLogger = logger.New(cfg.LogLevel, cfg.PrettyLog)
		for _, warning := range cfg.Warnings() {
			appLogger.Warn(warning)
		}
	})
	return appLogger
}

// Handler 是Vercel函数的入口点
// 这个函数实现了"单体路由模式"，将所有API端点集中在一个Chi路由器中管理
func Handler(w http.ResponseWriter, r *http.Request) {
	// 加载配置
	cfg := config.GetCached()
	log := getLogger(cfg)

	// 验证配置
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", logger.Error(err))
		utils.WriteInternalServerErrorResponse(w, "Configuration error: "+err.Error())
		return
	}

	// 获取存储实例（连接由存储池管理，无需手动关闭）
	store, err := database.GetStore(r.Context(), cfg, log)
	if err != nil {
		log.Error("document store unavailable", logger.Error(err))
		utils.WriteServiceUnavailableResponse(w, "Document store unavailable")
		return
	}

	h, err := routerFor(cfg, store, log)
	if err != nil {
		log.Error("failed to build router", logger.Error(err))
		utils.WriteInternalServerErrorResponse(w, "Configuration error: "+err.Error())
		return
	}

	h.ServeHTTP(w, r)
}

// routerFor 存储实例不变时复用同一个路由器（保留限流器等状态）
func routerFor(cfg *config.Config, store database.Store, log logger.Logger) (http.Handler, error) {
	routerMu.Lock()
	defer routerMu.Unlock()

	if router != nil && routerStore == store {
		return router, nil
	}

	resolver, err := auth.NewResolverFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	router = handlers.NewRouter(cfg, store, resolver, log)
	routerStore = store
	return router, nil
}
