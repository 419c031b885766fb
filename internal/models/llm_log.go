package models

import (
	"time"

	"gorm.io/datatypes"
)

// LLMLog 分析文本生成调用日志
type LLMLog struct {
	ID               string         `gorm:"primaryKey;type:varchar(26)" json:"id"`
	AnalysisID       string         `gorm:"type:varchar(26);index" json:"analysis_id"` // 关联的分析ID
	Code             string         `gorm:"type:varchar(32);index" json:"code"`
	Market           string         `gorm:"type:varchar(16)" json:"market"`
	Provider         string         `gorm:"type:varchar(16)" json:"provider"` // openai/azure/custom/gemini
	Model            string         `json:"model"`
	Prompt           string         `json:"prompt"`
	Summary          datatypes.JSON `gorm:"type:json" json:"summary"` // 技术指标概要
	Content          string         `json:"content"`                  // 返回的内容
	PromptTokens     int            `json:"prompt_tokens"`
	CompletionTokens int            `json:"completion_tokens"`
	TotalTokens      int            `json:"total_tokens"`
	FinishReason     string         `json:"finish_reason"`
	Duration         int64          `json:"duration"` // 请求耗时(毫秒)
	Error            string         `json:"error"`
	ExecutedAt       time.Time      `gorm:"not null;index" json:"executed_at"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 指定表名
func (LLMLog) TableName() string {
	return "llm_logs"
}
