package namecache

import (
	"context"
	"errors"

	"github.com/dushixiang/augur/internal/models"
	"github.com/dushixiang/augur/internal/repo"
	"gorm.io/gorm"
)

// Database 数据库实现
type Database struct {
	repo *repo.InstrumentNameRepo
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{repo: repo.NewInstrumentNameRepo(db)}
}

func (d *Database) Get(ctx context.Context, market, code string) (string, bool, error) {
	item, err := d.repo.FindById(ctx, models.InstrumentNameID(market, code))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return item.Name, true, nil
}

func (d *Database) Put(ctx context.Context, market, code, name string) error {
	return d.repo.Upsert(ctx, &models.InstrumentName{
		ID:     models.InstrumentNameID(market, code),
		Market: market,
		Code:   code,
		Name:   name,
	})
}
