package models

import "time"

// InstrumentName 标的名称缓存
type InstrumentName struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"` // market:code
	Market    string    `gorm:"type:varchar(16);not null;index" json:"market"`
	Code      string    `gorm:"type:varchar(32);not null" json:"code"`
	Name      string    `gorm:"type:varchar(128);not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定表名
func (InstrumentName) TableName() string {
	return "instrument_names"
}

// InstrumentNameID 主键
func InstrumentNameID(market, code string) string {
	return market + ":" + code
}
