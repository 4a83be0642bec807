package handler

import (
	"log"
	"strings"
	"time"

	"investpro/internal/model"
	"investpro/internal/service"
	"investpro/pkg/response"

	"github.com/gin-gonic/gin"
)

// 认证通过后用户对象放进 gin.Context 的键
const ContextUserKey = "currentUser"

// LoggerMiddleware 日志中间件
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		// 处理请求
		c.Next()

		// 记录日志
		latency := time.Since(start)
		status := c.Writer.Status()

		if query != "" {
			path = path + "?" + query
		}

		log.Printf("[HTTP] %d | %13v | %15s | %-7s %s",
			status,
			latency,
			c.ClientIP(),
			c.Request.Method,
			path,
		)
	}
}

// RecoveryMiddleware 恢复中间件，防止 panic 导致服务崩溃
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("[PANIC] %v", err)
				c.AbortWithStatusJSON(500, gin.H{
					"code":    500,
					"message": "服务器内部错误",
				})
			}
		}()
		c.Next()
	}
}

// JWTAuthMiddleware 认证中间件
// 从 Authorization: Bearer <token> 解出用户并放入上下文，
// token 无效/过期/用户已不存在统一返回 401
func JWTAuthMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "缺少认证信息")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			response.Unauthorized(c, "认证信息格式错误")
			return
		}

		user, err := authService.ResolveToken(c.Request.Context(), tokenString)
		if err != nil {
			response.Unauthorized(c, "认证失败，请重新登录")
			return
		}

		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// RequireAdminMiddleware 管理员权限检查，必须挂在 JWTAuthMiddleware 之后
func RequireAdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !user.IsAdmin() {
			response.Forbidden(c, "需要管理员权限")
			return
		}
		c.Next()
	}
}

// CurrentUser 取出认证中间件放入的当前用户，未认证返回 nil
func CurrentUser(c *gin.Context) *model.User {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	user, ok := value.(*model.User)
	if !ok {
		return nil
	}
	return user
}

// CORSMiddleware 跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
