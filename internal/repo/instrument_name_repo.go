package repo

import (
	"context"

	"github.com/dushixiang/augur/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func NewInstrumentNameRepo(db *gorm.DB) *InstrumentNameRepo {
	return &InstrumentNameRepo{
		Repository: orz.NewRepository[models.InstrumentName, string](db),
	}
}

type InstrumentNameRepo struct {
	orz.Repository[models.InstrumentName, string]
}

// Upsert 写入名称，已存在时覆盖
func (r InstrumentNameRepo) Upsert(ctx context.Context, m *models.InstrumentName) error {
	db := r.GetDB(ctx)
	return db.Table(r.GetTableName()).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
		}).
		Create(m).Error
}
