package ohlcv

import "fmt"

// InvalidColumnError 缺少必需的 OHLCV 列
type InvalidColumnError struct {
	Column string
}

func (e *InvalidColumnError) Error() string {
	return fmt.Sprintf("missing required column %q", e.Column)
}

// InsufficientDataError 数据行数不足以计算所需窗口
type InsufficientDataError struct {
	Need int
	Got  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: need at least %d rows, got %d", e.Need, e.Got)
}

// RequireRows 行数不足时返回 InsufficientDataError
func RequireRows(got, need int) error {
	if got < need {
		return &InsufficientDataError{Need: need, Got: got}
	}
	return nil
}
