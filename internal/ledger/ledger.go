package ledger

import (
	"context"
	"errors"
	"fmt"

	"investpro/internal/model"
	"investpro/internal/repository"
	"investpro/pkg/idgen"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ============================================================================
// 账本引擎
// ============================================================================
//
// 【为什么所有余额变动都要走这里？】
//
// 如果各个业务各自写 balance = balance ± x：
//   - 并发请求互相覆盖，产生丢失更新
//   - 重试/重复请求造成重复入账
//   - 余额和流水对不上，无法审计
//
// 账本引擎把「读余额 -> 条件更新余额 -> 追加一条流水」收敛成一个原子单元：
//   1. 幂等键唯一索引保证同一业务动作至多入账一次
//   2. 版本号条件更新保证并发下等价于某个串行顺序
//   3. 出账附带 balance >= x 条件，数据库兜底防超扣
//   4. 整个单元跑在同一个数据库事务里，要么全部生效要么全部回滚
//
// ============================================================================

var (
	ErrInsufficientFunds      = errors.New("余额不足")
	ErrIdempotencyConflict    = errors.New("幂等键冲突：相同幂等键携带了不同的参数")
	ErrInvalidEntry           = errors.New("流水参数不合法")
	ErrConcurrentModification = errors.New("账户并发修改冲突，请重试")
)

// EntryInput 一笔待入账的流水
type EntryInput struct {
	UserID         string
	Amount         decimal.Decimal // 正数入账，负数出账
	Type           string
	Description    string
	IdempotencyKey string // 调用方提供的稳定幂等键，如 deposit:<id>、roi:<id>
	InvestmentID   string
	DepositID      string
	WithdrawalID   string
}

// Ledger 账户余额的唯一变更入口
type Ledger struct {
	db              *gorm.DB
	userRepo        *repository.UserRepository
	transactionRepo *repository.TransactionRepository
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{
		db:              db,
		userRepo:        repository.NewUserRepository(db),
		transactionRepo: repository.NewTransactionRepository(db),
	}
}

// Apply 入账一笔流水并同步更新余额
//
// tx 不为空时在调用方的事务里执行，由调用方把状态流转和入账捆绑成一个原子单元；
// tx 为空时自行开启事务。
//
// 幂等语义：
//   - 幂等键已存在且参数一致 -> 返回已有流水，不产生任何变更
//   - 幂等键已存在但参数不一致 -> ErrIdempotencyConflict，拒绝而不是静默吞掉
func (l *Ledger) Apply(ctx context.Context, tx *gorm.DB, in *EntryInput) (*model.Transaction, error) {
	if err := l.validate(in); err != nil {
		return nil, err
	}

	if tx != nil {
		return l.applyInTx(ctx, tx, in)
	}

	var applied *model.Transaction
	err := l.db.Transaction(func(dbTx *gorm.DB) error {
		var txErr error
		applied, txErr = l.applyInTx(ctx, dbTx, in)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return applied, nil
}

func (l *Ledger) validate(in *EntryInput) error {
	if in.UserID == "" || in.IdempotencyKey == "" {
		return ErrInvalidEntry
	}
	if in.Amount.IsZero() {
		return ErrInvalidEntry
	}
	switch in.Type {
	case model.TransactionTypeDeposit, model.TransactionTypeRoiReturn:
		// 入账类型金额必须为正
		if in.Amount.IsNegative() {
			return ErrInvalidEntry
		}
	case model.TransactionTypeInvestment, model.TransactionTypeReinvestment, model.TransactionTypeWithdrawal:
		// 出账类型金额必须为负
		if in.Amount.IsPositive() {
			return ErrInvalidEntry
		}
	default:
		return ErrInvalidEntry
	}
	return nil
}

func (l *Ledger) applyInTx(ctx context.Context, tx *gorm.DB, in *EntryInput) (*model.Transaction, error) {
	// 幂等检查：已入账的直接返回原流水
	existing, err := l.transactionRepo.GetByIdempotencyKey(ctx, tx, in.IdempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("查询幂等流水失败: %w", err)
	}
	if existing != nil {
		if !l.matches(existing, in) {
			return nil, ErrIdempotencyConflict
		}
		return existing, nil
	}

	user, err := l.userRepo.GetByIDTx(ctx, tx, in.UserID)
	if err != nil {
		return nil, err
	}

	// 条件更新余额：版本号 + 余额下限都在 WHERE 里，并发下天然串行化
	if err := l.userRepo.ApplyBalanceDelta(ctx, tx, in.UserID, in.Amount, user.Version); err != nil {
		if errors.Is(err, repository.ErrBalanceNotEnough) {
			return nil, ErrInsufficientFunds
		}
		if errors.Is(err, repository.ErrOptimisticLock) {
			return nil, ErrConcurrentModification
		}
		return nil, fmt.Errorf("更新余额失败: %w", err)
	}

	trans := &model.Transaction{
		ID:             uuid.NewString(),
		TransactionNo:  idgen.GenerateTransactionNo(),
		UserID:         in.UserID,
		Type:           in.Type,
		Amount:         in.Amount,
		BalanceBefore:  user.Balance,
		BalanceAfter:   user.Balance.Add(in.Amount),
		Description:    in.Description,
		IdempotencyKey: in.IdempotencyKey,
		InvestmentID:   in.InvestmentID,
		DepositID:      in.DepositID,
		WithdrawalID:   in.WithdrawalID,
	}
	if err := l.transactionRepo.Create(ctx, tx, trans); err != nil {
		return nil, fmt.Errorf("记录流水失败: %w", err)
	}

	return trans, nil
}

// matches 幂等重放时校验关键参数是否一致
func (l *Ledger) matches(existing *model.Transaction, in *EntryInput) bool {
	return existing.UserID == in.UserID &&
		existing.Type == in.Type &&
		existing.Amount.Equal(in.Amount)
}
