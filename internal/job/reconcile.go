package job

import (
	"context"
	"log"
	"time"

	"investpro/internal/config"
	"investpro/internal/repository"

	"gorm.io/gorm"
)

// ReconcileJob 对账任务
//
// 核心不变式：任意账户的余额 == 该账户全部流水之和。
// 账本引擎保证写入路径满足这一点，对账任务是运行期的第二道防线：
// 周期性全量比对，发现偏差立刻告警日志，便于人工介入
type ReconcileJob struct {
	db              *gorm.DB
	userRepo        *repository.UserRepository
	transactionRepo *repository.TransactionRepository
	cfg             *config.Config
	stopCh          chan struct{}
	interval        time.Duration
}

func NewReconcileJob(db *gorm.DB, cfg *config.Config) *ReconcileJob {
	interval := time.Duration(cfg.Business.ReconcileIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	return &ReconcileJob{
		db:              db,
		userRepo:        repository.NewUserRepository(db),
		transactionRepo: repository.NewTransactionRepository(db),
		cfg:             cfg,
		stopCh:          make(chan struct{}),
		interval:        interval,
	}
}

func (j *ReconcileJob) Start(ctx context.Context) {
	log.Println("[ReconcileJob] 对账任务启动")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[ReconcileJob] 收到停止信号，任务退出")
			return
		case <-j.stopCh:
			log.Println("[ReconcileJob] 任务停止")
			return
		case <-ticker.C:
			j.ReconcileOnce(ctx)
		}
	}
}

func (j *ReconcileJob) Stop() {
	close(j.stopCh)
}

// ReconcileOnce 全量比对一轮，返回偏差账户数
func (j *ReconcileJob) ReconcileOnce(ctx context.Context) int {
	users, err := j.userRepo.ListAll(ctx)
	if err != nil {
		log.Printf("[ReconcileJob] 查询用户失败: %v", err)
		return 0
	}

	mismatchCount := 0
	for _, user := range users {
		sum, err := j.transactionRepo.SumByUserID(ctx, user.ID)
		if err != nil {
			log.Printf("[ReconcileJob] 汇总流水失败: userID=%s, err=%v", user.ID, err)
			continue
		}

		if !user.Balance.Equal(sum) {
			mismatchCount++
			log.Printf("[ReconcileJob] 【对账偏差】userID=%s, balance=%s, 流水合计=%s",
				user.ID, user.Balance.String(), sum.String())
		}
	}

	if mismatchCount > 0 {
		log.Printf("[ReconcileJob] 本轮发现 %d 个偏差账户", mismatchCount)
	}
	return mismatchCount
}
