package repo

import (
	"context"

	"github.com/dushixiang/augur/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewLLMLogRepo(db *gorm.DB) *LLMLogRepo {
	return &LLMLogRepo{
		Repository: orz.NewRepository[models.LLMLog, string](db),
	}
}

type LLMLogRepo struct {
	orz.Repository[models.LLMLog, string]
}

// FindByAnalysisID 根据分析ID查询日志
func (r LLMLogRepo) FindByAnalysisID(ctx context.Context, analysisID string) ([]models.LLMLog, error) {
	var logs []models.LLMLog
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("analysis_id = ?", analysisID).
		Order("executed_at ASC").
		Find(&logs).Error
	return logs, err
}

// FindRecentLogs 获取最近的日志记录
func (r LLMLogRepo) FindRecentLogs(ctx context.Context, limit int) ([]models.LLMLog, error) {
	var logs []models.LLMLog
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Order("executed_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
