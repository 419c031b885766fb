package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dushixiang/augur/internal/xe"
	"github.com/dushixiang/augur/pkg/nostd"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func TestTokenAuth(t *testing.T) {
	hash, err := nostd.BcryptEncode([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}

	e := echo.New()
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	tests := []struct {
		name    string
		hash    string
		token   string
		wantErr bool
	}{
		{"disabled", "", "", false},
		{"missing token", string(hash), "", true},
		{"wrong token", string(hash), "nope", true},
		{"valid token", string(hash), "secret", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/stock/market-stocks", nil)
			if tt.token != "" {
				req.Header.Set(nostd.Token, tt.token)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			h := TokenAuth(TokenAuthConfig{TokenHash: tt.hash, Logger: zap.NewNop()})(ok)
			err := h(c)
			if tt.wantErr {
				if !errors.Is(err, xe.ErrInvalidToken) {
					t.Fatalf("expected ErrInvalidToken, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
		})
	}
}
