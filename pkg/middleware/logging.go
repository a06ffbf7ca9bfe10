package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"linker-backend/pkg/logger"
)

// RequestLogger 请求日志中间件，每个请求输出一行结构化日志
func RequestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// 创建响应写入器包装器来捕获状态码
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			// 认证中间件在内层，通过可变的 holder 取回调用者ID
			holder := &callerHolder{}
			next.ServeHTTP(ww, r.WithContext(withCallerHolder(r.Context(), holder)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			caller := holder.id
			if caller == "" {
				caller = "anonymous"
			}

			fields := []logger.Field{
				logger.String("method", r.Method),
				logger.String("path", r.URL.Path),
				logger.Int("status", status),
				logger.Int("bytes", ww.BytesWritten()),
				logger.Duration("duration", time.Since(start)),
				logger.String("caller", caller),
				logger.String("ip", getClientIP(r)),
				logger.String("request_id", middleware.GetReqID(r.Context())),
			}

			switch {
			case status >= 500:
				log.Error("request", fields...)
			case status >= 400:
				log.Warn("request", fields...)
			default:
				log.Info("request", fields...)
			}
		})
	}
}

// getClientIP 获取客户端IP地址
// 代理头只由 RealIP 中间件解析并写入 RemoteAddr，这里不再读取请求头
func getClientIP(r *http.Request) string {
	return r.RemoteAddr
}
