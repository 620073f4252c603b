package router

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/google/uuid"
	"github.com/hertz-contrib/keyauth"

	"github.com/codesandtags/linkedin-pdf-reader/internal/api/handler"
	"github.com/codesandtags/linkedin-pdf-reader/internal/config"
	"github.com/codesandtags/linkedin-pdf-reader/internal/constants"
	"github.com/codesandtags/linkedin-pdf-reader/internal/logger"
	"github.com/codesandtags/linkedin-pdf-reader/pkg/ratelimit"
)

// HeaderRequestID 请求ID头
const HeaderRequestID = "X-Request-ID"

// RegisterRoutes 注册 API 路由。未配置 API Key 时不启用鉴权，未配置上传速率时不限流
func RegisterRoutes(h *server.Hertz, profileHandler *handler.ProfileHandler, cfg config.ServerConfig) {
	h.Use(RequestID())

	// 健康检查不需要鉴权
	h.GET("/api/v1/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok", "parser_version": constants.ParserVersion})
	})

	api := h.Group("/api/v1")
	if len(cfg.APIKeys) > 0 {
		api.Use(APIKeyAuth(cfg.APIKeys))
	}

	uploadHandlers := []app.HandlerFunc{profileHandler.Upload}
	if cfg.UploadRatePerMinute > 0 {
		limiter := ratelimit.NewTokenBucket(cfg.UploadRatePerMinute, cfg.UploadBurst)
		uploadHandlers = append([]app.HandlerFunc{ratelimit.Middleware(limiter)}, uploadHandlers...)
	}

	profiles := api.Group("/profiles")
	profiles.POST("/upload", uploadHandlers...)
	profiles.POST("/parse", profileHandler.Parse)
	profiles.GET("/:uuid", profileHandler.Get)
}

// RequestID 透传或生成请求ID，并把带请求ID的日志记录器放进上下文
func RequestID() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		requestID := string(ctx.GetHeader(HeaderRequestID))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx.Response.Header.Set(HeaderRequestID, requestID)

		l := logger.Logger.With().Str("request_id", requestID).Logger()
		ctx.Next(l.WithContext(c))
	}
}

// APIKeyAuth 校验 Authorization: Bearer <key>
func APIKeyAuth(apiKeys []string) app.HandlerFunc {
	allowed := make(map[string]struct{}, len(apiKeys))
	for _, k := range apiKeys {
		allowed[k] = struct{}{}
	}
	return keyauth.New(
		keyauth.WithKeyLookUp("header:Authorization", "Bearer"),
		keyauth.WithValidator(func(c context.Context, ctx *app.RequestContext, key string) (bool, error) {
			_, ok := allowed[key]
			return ok, nil
		}),
		keyauth.WithErrorHandler(func(c context.Context, ctx *app.RequestContext, err error) {
			ctx.AbortWithStatusJSON(consts.StatusUnauthorized, utils.H{"error": "无效或缺失的API Key"})
		}),
	)
}
