package ratelimit

import (
	"context"
	"math"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// Middleware 令牌用尽时返回 429 并带上 Retry-After
func Middleware(tb *TokenBucket) app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		if tb.Allow() {
			ctx.Next(c)
			return
		}
		seconds := int(math.Ceil(tb.RetryAfter().Seconds()))
		if seconds < 1 {
			seconds = 1
		}
		ctx.Response.Header.Set("Retry-After", strconv.Itoa(seconds))
		ctx.AbortWithStatusJSON(consts.StatusTooManyRequests, utils.H{"error": "请求过于频繁，请稍后再试"})
	}
}
