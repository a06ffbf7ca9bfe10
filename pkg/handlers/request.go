package handlers

import (
	"errors"
	"net/http"
	"strings"

	"linker-backend/pkg/logger"
	"linker-backend/pkg/middleware"
	"linker-backend/pkg/models"
	"linker-backend/pkg/utils"
)

// validatable 请求体结构的必填字段校验
type validatable interface {
	Validate() error
}

// requireCaller 读取认证中间件写入的调用者ID
func requireCaller(w http.ResponseWriter, r *http.Request) (string, bool) {
	callerID, ok := middleware.CallerID(r.Context())
	if !ok {
		utils.WriteUnauthorizedResponse(w, "Not authenticated")
		return "", false
	}
	return callerID, true
}

// decodeRequest 解析并校验请求体；失败时已写入 4xx 响应
func decodeRequest(w http.ResponseWriter, r *http.Request, req validatable) bool {
	if err := utils.ParseJSONBody(r, req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.WriteRequestTooLargeResponse(w, "Request body too large")
			return false
		}
		utils.WriteBadRequestResponse(w, "Invalid JSON body: "+err.Error())
		return false
	}

	if err := req.Validate(); err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			utils.WriteValidationErrorResponse(w, "Validation failed", strings.Join(verr.Fields, ","))
			return false
		}
		utils.WriteValidationErrorResponse(w, "Validation failed", err.Error())
		return false
	}
	return true
}

// writeInternalError 记录存储等内部错误并返回500
func writeInternalError(w http.ResponseWriter, r *http.Request, log logger.Logger, op string, err error) {
	log.Error("request failed",
		logger.String("op", op),
		logger.String("path", r.URL.Path),
		logger.Error(err))
	utils.WriteInternalServerErrorResponse(w, "Internal server error")
}
