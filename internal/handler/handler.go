package handler

import (
	"errors"
	"strconv"

	"investpro/internal/config"
	"investpro/internal/ledger"
	"investpro/internal/repository"
	"investpro/internal/service"
	"investpro/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// Handler 统一处理器，包含所有服务依赖
type Handler struct {
	authService       *service.AuthService
	userService       *service.UserService
	planService       *service.PlanService
	investmentService *service.InvestmentService
	depositService    *service.DepositService
	withdrawalService *service.WithdrawalService
	adminService      *service.AdminService
}

// NewHandler 创建处理器实例
func NewHandler(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *Handler {
	return &Handler{
		authService:       service.NewAuthService(db, cfg),
		userService:       service.NewUserService(db),
		planService:       service.NewPlanService(db),
		investmentService: service.NewInvestmentService(db, rdb, cfg),
		depositService:    service.NewDepositService(db, cfg),
		withdrawalService: service.NewWithdrawalService(db, rdb, cfg),
		adminService:      service.NewAdminService(db),
	}
}

// writeError 把下层错误翻译成统一的业务码
// 未识别的错误一律按服务器内部错误处理，不向外透传细节
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, repository.ErrBalanceNotEnough):
		response.BusinessError(c, response.CodeBalanceNotEnough, err.Error())
	case errors.Is(err, ledger.ErrIdempotencyConflict):
		response.BusinessError(c, response.CodeIdempotencyConflict, err.Error())
	case errors.Is(err, ledger.ErrConcurrentModification):
		response.BusinessError(c, response.CodeBusinessError, err.Error())
	case errors.Is(err, repository.ErrInvestmentStatusInvalid),
		errors.Is(err, repository.ErrDepositStatusInvalid),
		errors.Is(err, repository.ErrWithdrawalStatusInvalid):
		response.BusinessError(c, response.CodeInvalidStateTransition, err.Error())
	case errors.Is(err, service.ErrAmountOutOfRange),
		errors.Is(err, service.ErrBelowMinWithdrawal):
		response.BusinessError(c, response.CodeAmountOutOfRange, err.Error())
	case errors.Is(err, service.ErrFeatureDisabled),
		errors.Is(err, service.ErrPlanNotInvestable):
		response.BusinessError(c, response.CodeFeatureDisabled, err.Error())
	case errors.Is(err, repository.ErrEmailExists):
		response.BusinessError(c, response.CodeEmailExists, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		response.BusinessError(c, response.CodeInvalidCredentials, err.Error())
	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrPlanNotFound),
		errors.Is(err, repository.ErrInvestmentNotFound),
		errors.Is(err, repository.ErrDepositNotFound),
		errors.Is(err, repository.ErrWithdrawalNotFound):
		response.NotFound(c, err.Error())
	default:
		response.ServerError(c, "服务器内部错误")
	}
}

// ============================================================
// 认证相关接口
// ============================================================

// Signup 用户注册
// POST /api/auth/signup
func (h *Handler) Signup(c *gin.Context) {
	var req service.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	result, err := h.authService.Signup(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, result)
}

// Signin 用户登录
// POST /api/auth/signin
func (h *Handler) Signin(c *gin.Context) {
	var req service.SigninRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	result, err := h.authService.Signin(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, result)
}

// Me 返回当前登录用户
// GET /api/auth/me
func (h *Handler) Me(c *gin.Context) {
	response.Success(c, CurrentUser(c))
}

// ============================================================
// 用户相关接口
// ============================================================

// GetProfile 查询个人资料（含当前余额）
// GET /api/users/profile
func (h *Handler) GetProfile(c *gin.Context) {
	user := CurrentUser(c)

	profile, err := h.userService.GetProfile(c.Request.Context(), user.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, profile)
}

// UpdateProfile 更新个人资料（昵称和收款钱包地址）
// PUT /api/users/profile
func (h *Handler) UpdateProfile(c *gin.Context) {
	user := CurrentUser(c)

	var req service.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	profile, err := h.userService.UpdateProfile(c.Request.Context(), user.ID, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, profile)
}

// ListTransactions 查询个人资金流水
// GET /api/transactions?limit=50
func (h *Handler) ListTransactions(c *gin.Context) {
	user := CurrentUser(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	transactions, err := h.userService.ListTransactions(c.Request.Context(), user.ID, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"list":  transactions,
		"total": len(transactions),
	})
}

// ============================================================
// 投资相关接口
// ============================================================

// ListPlans 查询所有可投的投资计划
// GET /api/investments/plans
func (h *Handler) ListPlans(c *gin.Context) {
	plans, err := h.planService.ListActive(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"list": plans})
}

// CreateInvestment 创建投资
// POST /api/investments
//
// 【关键点】投资是扣款操作：
// 1. 金额必须落在计划区间内
// 2. 余额不足则整个投资失败，不会出现投资落库但没扣款
// 3. 复投走独立的功能开关和流水类型
func (h *Handler) CreateInvestment(c *gin.Context) {
	user := CurrentUser(c)

	var req service.CreateInvestmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	investment, err := h.investmentService.Create(c.Request.Context(), user.ID, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, investment)
}

// ListInvestments 查询个人投资列表
// GET /api/investments
func (h *Handler) ListInvestments(c *gin.Context) {
	user := CurrentUser(c)

	investments, err := h.investmentService.ListByUser(c.Request.Context(), user.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"list": investments})
}

// ============================================================
// 充值相关接口
// ============================================================

// RequestDeposit 提交充值申请
// POST /api/deposits/request
func (h *Handler) RequestDeposit(c *gin.Context) {
	user := CurrentUser(c)

	var req service.CreateDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	deposit, err := h.depositService.Request(c.Request.Context(), user.ID, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, deposit)
}

// ListDeposits 查询个人充值记录
// GET /api/deposits
func (h *Handler) ListDeposits(c *gin.Context) {
	user := CurrentUser(c)

	deposits, err := h.depositService.ListByUser(c.Request.Context(), user.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"list": deposits})
}

// ============================================================
// 提现相关接口
// ============================================================

// RequestWithdrawal 提交提现申请
// POST /api/withdrawals/request
func (h *Handler) RequestWithdrawal(c *gin.Context) {
	user := CurrentUser(c)

	var req service.CreateWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	withdrawal, err := h.withdrawalService.Request(c.Request.Context(), user.ID, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, withdrawal)
}

// ListWithdrawals 查询个人提现记录
// GET /api/withdrawals
func (h *Handler) ListWithdrawals(c *gin.Context) {
	user := CurrentUser(c)

	withdrawals, err := h.withdrawalService.ListByUser(c.Request.Context(), user.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"list": withdrawals})
}
