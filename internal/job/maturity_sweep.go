package job

import (
	"context"
	"log"
	"time"

	"investpro/internal/config"
	"investpro/internal/repository"
	"investpro/internal/service"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// MaturitySweepJob 投资到期清算任务
//
// 周期性扫描 status = active 且 end_date <= now 的投资，
// 逐笔结转为 completed 并回款本金+收益。
//
// 任务允许和自身并发（比如两个实例同时在跑）：
//   - 状态条件更新保证同一笔投资只会被一个执行者结转
//   - 回款幂等键保证即使状态更新和入账之间崩溃重放，也不会重复入账
// 所以重复扫描已结转的投资是廉价的空操作，无需额外协调
type MaturitySweepJob struct {
	db                *gorm.DB
	investmentRepo    *repository.InvestmentRepository
	investmentService *service.InvestmentService
	cfg               *config.Config
	stopCh            chan struct{}
	interval          time.Duration
	batchSize         int
}

func NewMaturitySweepJob(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *MaturitySweepJob {
	interval := time.Duration(cfg.Business.SweepIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	batchSize := cfg.Business.SweepBatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	return &MaturitySweepJob{
		db:                db,
		investmentRepo:    repository.NewInvestmentRepository(db),
		investmentService: service.NewInvestmentService(db, redisClient, cfg),
		cfg:               cfg,
		stopCh:            make(chan struct{}),
		interval:          interval,
		batchSize:         batchSize,
	}
}

func (j *MaturitySweepJob) Start(ctx context.Context) {
	log.Println("[MaturitySweepJob] 投资到期清算任务启动")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[MaturitySweepJob] 收到停止信号，任务退出")
			return
		case <-j.stopCh:
			log.Println("[MaturitySweepJob] 任务停止")
			return
		case <-ticker.C:
			j.SweepOnce(ctx)
		}
	}
}

func (j *MaturitySweepJob) Stop() {
	close(j.stopCh)
}

// SweepOnce 执行一轮到期清算
func (j *MaturitySweepJob) SweepOnce(ctx context.Context) {
	investments, err := j.investmentRepo.GetMatured(ctx, time.Now(), j.batchSize)
	if err != nil {
		log.Printf("[MaturitySweepJob] 查询到期投资失败: %v", err)
		return
	}

	if len(investments) == 0 {
		return
	}

	log.Printf("[MaturitySweepJob] 发现 %d 笔到期投资", len(investments))

	completedCount := 0
	for _, investment := range investments {
		if err := j.investmentService.CompleteMatured(ctx, investment); err != nil {
			// 状态冲突说明已被并发结转，不算失败
			log.Printf("[MaturitySweepJob] 结转失败: investmentNo=%s, err=%v",
				investment.InvestmentNo, err)
			continue
		}
		completedCount++
		log.Printf("[MaturitySweepJob] 投资已到期结转: investmentNo=%s, userID=%s, payout=%s",
			investment.InvestmentNo, investment.UserID,
			investment.Amount.Add(investment.RoiAmount).String())
	}

	log.Printf("[MaturitySweepJob] 本轮结转 %d 笔到期投资", completedCount)
}
