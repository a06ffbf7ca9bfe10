package middleware

import (
	"context"
	"net/http"
	"strings"

	"linker-backend/pkg/auth"
	"linker-backend/pkg/logger"
	"linker-backend/pkg/utils"
)

// ContextKey 用于在context中存储用户信息的键
type ContextKey string

const (
	CallerContextKey ContextKey = "caller"
	callerHolderKey  ContextKey = "caller_holder"
)

// callerHolder 供外层中间件（请求日志）读取内层解析出的调用者ID
type callerHolder struct {
	id string
}

func withCallerHolder(ctx context.Context, h *callerHolder) context.Context {
	return context.WithValue(ctx, callerHolderKey, h)
}

// Authenticate bearer token 认证中间件
// 任何身份解析失败都返回 401，请求不会进入业务逻辑
func Authenticate(resolver *auth.Resolver, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			callerID, err := resolver.Resolve(bearerToken(r))
			if err != nil {
				log.Debug("authentication rejected",
					logger.String("path", r.URL.Path),
					logger.Error(err))
				utils.WriteUnauthorizedResponse(w, err.Error())
				return
			}

			if h, ok := r.Context().Value(callerHolderKey).(*callerHolder); ok {
				h.id = callerID
			}
			next.ServeHTTP(w, r.WithContext(WithCallerID(r.Context(), callerID)))
		})
	}
}

// bearerToken 从Authorization头获取token；格式不正确时返回空串
func bearerToken(r *http.Request) string {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// WithCallerID 把调用者ID放入context
func WithCallerID(ctx context.Context, callerID string) context.Context {
	return context.WithValue(ctx, CallerContextKey, callerID)
}

// CallerID 从context中获取调用者ID
func CallerID(ctx context.Context) (string, bool) {
	callerID, ok := ctx.Value(CallerContextKey).(string)
	return callerID, ok && callerID != ""
}
