package handler

import (
	"strconv"

	"investpro/internal/service"
	"investpro/pkg/response"

	"github.com/gin-gonic/gin"
)

// ============================================================
// 管理端接口（全部挂在 RequireAdminMiddleware 之后）
// ============================================================

// AdminListUsers 查询全部用户
// GET /api/admin/users
func (h *Handler) AdminListUsers(c *gin.Context) {
	users, err := h.adminService.ListUsers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"list": users})
}

// AdminGetStats 平台总览统计
// GET /api/admin/stats
func (h *Handler) AdminGetStats(c *gin.Context) {
	stats, err := h.adminService.GetStats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, stats)
}

// AdminListInvestments 查询全平台投资记录
// GET /api/admin/investments?limit=50
func (h *Handler) AdminListInvestments(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	investments, err := h.adminService.ListInvestments(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"list": investments})
}

// ============================================================
// 充值审核
// ============================================================

// AdminListPendingDeposits 查询待审核充值（带用户信息）
// GET /api/admin/deposits/pending
func (h *Handler) AdminListPendingDeposits(c *gin.Context) {
	deposits, err := h.depositService.ListPending(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"list": deposits})
}

// AdminConfirmDeposit 确认充值到账
// POST /api/admin/deposits/:id/confirm
func (h *Handler) AdminConfirmDeposit(c *gin.Context) {
	admin := CurrentUser(c)
	depositID := c.Param("id")

	if err := h.depositService.Confirm(c.Request.Context(), depositID, admin.ID); err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "充值已确认"})
}

// AdminRejectDeposit 驳回充值申请
// POST /api/admin/deposits/:id/reject
func (h *Handler) AdminRejectDeposit(c *gin.Context) {
	admin := CurrentUser(c)
	depositID := c.Param("id")

	if err := h.depositService.Reject(c.Request.Context(), depositID, admin.ID); err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "充值已驳回"})
}

// ============================================================
// 提现审核
// ============================================================

// AdminListPendingWithdrawals 查询待审核提现（带用户信息）
// GET /api/admin/withdrawals/pending
func (h *Handler) AdminListPendingWithdrawals(c *gin.Context) {
	withdrawals, err := h.withdrawalService.ListPending(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"list": withdrawals})
}

// AdminApproveWithdrawal 审批通过提现（此时扣款）
// POST /api/admin/withdrawals/:id/approve
func (h *Handler) AdminApproveWithdrawal(c *gin.Context) {
	admin := CurrentUser(c)
	withdrawalID := c.Param("id")

	if err := h.withdrawalService.Approve(c.Request.Context(), withdrawalID, admin.ID); err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "提现已审批通过"})
}

// AdminCompleteWithdrawal 标记提现打款完成
// POST /api/admin/withdrawals/:id/complete
func (h *Handler) AdminCompleteWithdrawal(c *gin.Context) {
	admin := CurrentUser(c)
	withdrawalID := c.Param("id")

	if err := h.withdrawalService.Complete(c.Request.Context(), withdrawalID, admin.ID); err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "提现已完成打款"})
}

// AdminRejectWithdrawal 驳回提现申请
// POST /api/admin/withdrawals/:id/reject
func (h *Handler) AdminRejectWithdrawal(c *gin.Context) {
	admin := CurrentUser(c)
	withdrawalID := c.Param("id")

	if err := h.withdrawalService.Reject(c.Request.Context(), withdrawalID, admin.ID); err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "提现已驳回"})
}

// ============================================================
// 投资计划管理
// ============================================================

// AdminCreatePlan 新增投资计划
// POST /api/admin/plans
func (h *Handler) AdminCreatePlan(c *gin.Context) {
	var input service.PlanInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	plan, err := h.planService.Create(c.Request.Context(), &input)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, plan)
}

// AdminReplacePlan 修改投资计划（停用旧行 + 插入新行）
// PUT /api/admin/plans/:id
func (h *Handler) AdminReplacePlan(c *gin.Context) {
	oldID := c.Param("id")

	var input service.PlanInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	plan, err := h.planService.Replace(c.Request.Context(), oldID, &input)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, plan)
}

// ============================================================
// 平台配置
// ============================================================

// AdminGetSettings 查询全部平台配置
// GET /api/admin/settings
func (h *Handler) AdminGetSettings(c *gin.Context) {
	settings, err := h.adminService.GetSettings(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, settings)
}

// AdminUpdateSettings 批量更新平台配置
// POST /api/admin/settings
func (h *Handler) AdminUpdateSettings(c *gin.Context) {
	var settings map[string]string
	if err := c.ShouldBindJSON(&settings); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}
	if len(settings) == 0 {
		response.ParamError(c, "配置不能为空")
		return
	}

	if err := h.adminService.UpdateSettings(c.Request.Context(), settings); err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "配置已更新"})
}

// AdminUpdatePlatformStatusRequest 功能开关请求
// 用指针区分"不改"和"显式关闭"
type AdminUpdatePlatformStatusRequest struct {
	DepositsEnabled      *bool `json:"deposits_enabled"`
	InvestmentsEnabled   *bool `json:"investments_enabled"`
	ReinvestmentsEnabled *bool `json:"reinvestments_enabled"`
}

// AdminUpdatePlatformStatus 更新充值/投资/复投功能开关
// POST /api/admin/platform-status
func (h *Handler) AdminUpdatePlatformStatus(c *gin.Context) {
	var req AdminUpdatePlatformStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}

	if err := h.adminService.UpdatePlatformStatus(c.Request.Context(),
		req.DepositsEnabled, req.InvestmentsEnabled, req.ReinvestmentsEnabled); err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "平台状态已更新"})
}

// AdminUpdateWalletAddressesRequest 平台收款地址请求
type AdminUpdateWalletAddressesRequest struct {
	BTCWalletAddress  string `json:"btc_wallet_address"`
	USDTWalletAddress string `json:"usdt_wallet_address"`
}

// AdminUpdateWalletAddresses 更新平台收款钱包地址
// POST /api/admin/wallet-addresses
func (h *Handler) AdminUpdateWalletAddresses(c *gin.Context) {
	var req AdminUpdateWalletAddressesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "参数错误: "+err.Error())
		return
	}
	if req.BTCWalletAddress == "" && req.USDTWalletAddress == "" {
		response.ParamError(c, "至少提供一个钱包地址")
		return
	}

	if err := h.adminService.UpdateWalletAddresses(c.Request.Context(),
		req.BTCWalletAddress, req.USDTWalletAddress); err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"message": "收款地址已更新"})
}
