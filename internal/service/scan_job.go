package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dushixiang/augur/internal/config"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Notifier 推送扫描结果
type Notifier interface {
	Notify(chatId, msg string) error
}

// ScanJob 定时扫描自选列表并推送评分最高的标的
type ScanJob struct {
	logger   *zap.Logger
	conf     config.ScanJobConf
	chatID   string
	analysis *AnalysisService
	notifier Notifier

	cron    *cron.Cron
	running sync.Mutex
}

// NewScanJob 创建定时扫描任务，notifier 为空时只记录日志
func NewScanJob(logger *zap.Logger, conf *config.Config, analysis *AnalysisService, notifier Notifier) *ScanJob {
	return &ScanJob{
		logger:   logger,
		conf:     conf.ScanJob,
		chatID:   conf.Telegram.ChatID,
		analysis: analysis,
		notifier: notifier,
		cron:     cron.New(),
	}
}

// Start 注册并启动定时任务
func (j *ScanJob) Start(ctx context.Context) error {
	if !j.conf.Enabled {
		return nil
	}
	if _, err := j.cron.AddFunc(j.conf.Cron, func() { j.Run(ctx) }); err != nil {
		return fmt.Errorf("register scan job: %w", err)
	}
	j.cron.Start()
	j.logger.Info("scan job started", zap.String("cron", j.conf.Cron), zap.Strings("markets", j.conf.Markets))
	return nil
}

// Stop 停止定时任务并等待正在执行的扫描结束
func (j *ScanJob) Stop() {
	<-j.cron.Stop().Done()
}

// Run 立即执行一次扫描，上一次未结束时跳过
func (j *ScanJob) Run(ctx context.Context) {
	if !j.running.TryLock() {
		j.logger.Warn("previous scan still running, skipping")
		return
	}
	defer j.running.Unlock()

	for _, market := range j.conf.Markets {
		if ctx.Err() != nil {
			return
		}
		reports, err := j.analysis.Scan(ctx, nil, market, j.conf.ScoreThreshold())
		if err != nil {
			j.logger.Error("scheduled scan failed", zap.String("market", market), zap.Error(err))
			continue
		}
		j.logger.Info("scheduled scan finished", zap.String("market", market), zap.Int("matched", len(reports)))

		if len(reports) > j.conf.TopN {
			reports = reports[:j.conf.TopN]
		}
		j.notify(FormatScanResult(market, j.conf.ScoreThreshold(), reports))
	}
}

func (j *ScanJob) notify(msg string) {
	if j.notifier == nil || j.chatID == "" {
		return
	}
	if err := j.notifier.Notify(j.chatID, msg); err != nil {
		j.logger.Error("failed to send scan notification", zap.Error(err))
	}
}

// FormatScanResult 扫描结果摘要
func FormatScanResult(market string, minScore int, reports []*Report) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s 市场扫描结果 (评分 >= %d)\n", strings.ToUpper(market), minScore)
	if len(reports) == 0 {
		sb.WriteString("没有符合条件的标的")
		return sb.String()
	}
	for i, r := range reports {
		fmt.Fprintf(&sb, "\n%d. %s %s\n   评分 %d | %s | 价格 %s (%s%%)",
			i+1, r.Code, r.Name, r.Score, r.Recommendation, fixed(r.Price), fixed(r.PriceChange))
	}
	return sb.String()
}
