package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/localhq/localservices/pkg/errors"
	"github.com/localhq/localservices/pkg/logger"
	"github.com/localhq/localservices/pkg/response"
)

// Recovery converts panics into structured 500 responses instead of killing
// the connection.
func Recovery() gin.HandlerFunc {
	log := logger.WithModule("middleware.recovery")

	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered",
					zap.Any("panic", r),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
					zap.Stack("stack"),
				)
				response.Error(c, errors.ErrInternalServer)
				c.Abort()
			}
		}()
		c.Next()
	}
}
