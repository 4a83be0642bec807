package handler

import (
	"investpro/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// SetupRouter 配置路由
func SetupRouter(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *gin.Engine {
	// 设置 gin 为发布模式（减少日志输出）
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// 注册中间件
	r.Use(RecoveryMiddleware())
	r.Use(LoggerMiddleware())
	r.Use(CORSMiddleware())

	// 创建处理器
	h := NewHandler(db, rdb, cfg)

	api := r.Group("/api")
	{
		// 认证相关（无需登录）
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/signup", h.Signup)
			authGroup.POST("/signin", h.Signin)
		}

		// 用户侧接口（需要登录）
		authed := api.Group("")
		authed.Use(JWTAuthMiddleware(h.authService))
		{
			authed.GET("/auth/me", h.Me)

			authed.GET("/users/profile", h.GetProfile)
			authed.PUT("/users/profile", h.UpdateProfile)
			authed.GET("/transactions", h.ListTransactions)

			authed.GET("/investments/plans", h.ListPlans)
			authed.GET("/investments", h.ListInvestments)
			authed.POST("/investments", h.CreateInvestment)

			authed.GET("/deposits", h.ListDeposits)
			authed.POST("/deposits/request", h.RequestDeposit)

			authed.GET("/withdrawals", h.ListWithdrawals)
			authed.POST("/withdrawals/request", h.RequestWithdrawal)
		}

		// 管理端接口（需要管理员角色）
		admin := api.Group("/admin")
		admin.Use(JWTAuthMiddleware(h.authService), RequireAdminMiddleware())
		{
			admin.GET("/users", h.AdminListUsers)
			admin.GET("/stats", h.AdminGetStats)
			admin.GET("/investments", h.AdminListInvestments)

			admin.GET("/deposits/pending", h.AdminListPendingDeposits)
			admin.POST("/deposits/:id/confirm", h.AdminConfirmDeposit)
			admin.POST("/deposits/:id/reject", h.AdminRejectDeposit)

			admin.GET("/withdrawals/pending", h.AdminListPendingWithdrawals)
			admin.POST("/withdrawals/:id/approve", h.AdminApproveWithdrawal)
			admin.POST("/withdrawals/:id/complete", h.AdminCompleteWithdrawal)
			admin.POST("/withdrawals/:id/reject", h.AdminRejectWithdrawal)

			admin.POST("/plans", h.AdminCreatePlan)
			admin.PUT("/plans/:id", h.AdminReplacePlan)

			admin.GET("/settings", h.AdminGetSettings)
			admin.POST("/settings", h.AdminUpdateSettings)
			admin.POST("/platform-status", h.AdminUpdatePlatformStatus)
			admin.POST("/wallet-addresses", h.AdminUpdateWalletAddresses)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
