package marketdata

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

type catalogEntry struct {
	Codes []string          `yaml:"codes"`
	Names map[string]string `yaml:"names"`
}

// Catalog 内置的标的目录，提供默认代码列表与名称
type Catalog struct {
	entries map[Market]catalogEntry
}

// NewCatalog 加载内置目录
func NewCatalog() (*Catalog, error) {
	var raw map[string]catalogEntry
	if err := yaml.Unmarshal(catalogYAML, &raw); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	entries := make(map[Market]catalogEntry, len(raw))
	for k, v := range raw {
		m, err := ParseMarket(k)
		if err != nil {
			return nil, err
		}
		entries[m] = v
	}
	return &Catalog{entries: entries}, nil
}

// MustCatalog 加载内置目录，失败时 panic
func MustCatalog() *Catalog {
	c, err := NewCatalog()
	if err != nil {
		panic(err)
	}
	return c
}

// List 默认代码列表
func (c *Catalog) List(_ context.Context, market Market) ([]string, error) {
	entry, ok := c.entries[market]
	if !ok {
		return nil, &UnsupportedMarketError{Market: string(market)}
	}
	out := make([]string, len(entry.Codes))
	copy(out, entry.Codes)
	return out, nil
}

// LookupName 查询名称
// 国内期货去掉合约月份后按品种查找，海外期货取代码前两位作为品种。
func (c *Catalog) LookupName(_ context.Context, code string, market Market) (string, error) {
	entry, ok := c.entries[market]
	if !ok {
		return "", &UnsupportedMarketError{Market: string(market)}
	}
	return entry.Names[catalogKey(code, market)], nil
}

func catalogKey(code string, market Market) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	switch market {
	case MarketCN:
		return strings.TrimRight(code, "0123456789")
	case MarketGlobal:
		if len(code) >= 2 {
			return code[:2]
		}
	}
	return code
}
