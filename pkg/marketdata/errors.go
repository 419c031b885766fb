package marketdata

import "fmt"

// RetrievalError 数据源请求失败
type RetrievalError struct {
	Provider string
	Code     string
	Err      error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("%s: fetch %s: %v", e.Provider, e.Code, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// UnsupportedMarketError 不支持的市场标识
type UnsupportedMarketError struct {
	Market string
}

func (e *UnsupportedMarketError) Error() string {
	return fmt.Sprintf("unsupported market %q", e.Market)
}

func retrievalError(provider, code string, err error) error {
	if err == nil {
		return nil
	}
	return &RetrievalError{Provider: provider, Code: code, Err: err}
}
