package internal

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/dushixiang/augur/internal/service"
	"github.com/dushixiang/augur/internal/xe"
	"github.com/dushixiang/augur/pkg/marketdata"
	"github.com/dushixiang/augur/pkg/ohlcv"
)

func TestCodedError(t *testing.T) {
	wrap := func(err error) error {
		return &service.AnalysisError{Code: "X", Market: "A", Err: err}
	}
	tests := []struct {
		name       string
		err        error
		wantCode   int
		wantStatus int
	}{
		{"unsupported market", wrap(&marketdata.UnsupportedMarketError{Market: "MARS"}), 10411, http.StatusBadRequest},
		{"insufficient data", wrap(&ohlcv.InsufficientDataError{Need: 62, Got: 10}), 10412, http.StatusUnprocessableEntity},
		{"retrieval", wrap(&marketdata.RetrievalError{Provider: "yahoo", Code: "X", Err: errors.New("timeout")}), 10413, http.StatusBadGateway},
		{"columns", wrap(&ohlcv.InvalidColumnError{Column: "close"}), 10415, http.StatusBadGateway},
		{"token", fmt.Errorf("auth: %w", xe.ErrInvalidToken), 10403, http.StatusUnauthorized},
		{"unknown", errors.New("boom"), 0, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, status := codedError(tt.err)
			if code != tt.wantCode || status != tt.wantStatus {
				t.Fatalf("codedError = (%d, %d), want (%d, %d)", code, status, tt.wantCode, tt.wantStatus)
			}
		})
	}
}
