package ohlcv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"github.com/spf13/cast"
)

var dateLayouts = []string{"2006-01-02", "20060102", "2006/01/02", "2006-01-02 15:04:05"}

// FromMaps 将数据源返回的键值行转换为表
// rename 将数据源字段名映射为规范列名，未出现在 rename 中的字段按原名处理。
// 无法解析的数值视为缺失。
func FromMaps(items []map[string]any, rename map[string]string) (*Table, error) {
	seen := make(map[string]bool)
	columns := make([]string, 0, 8)
	records := make([]Record, 0, len(items))

	for _, item := range items {
		var r Record
		for key, raw := range item {
			col := canonical(key, rename)
			if !seen[col] {
				seen[col] = true
				columns = append(columns, col)
			}
			switch col {
			case ColumnDate:
				r.Date = parseDate(raw)
			case ColumnOpen:
				r.Open = parseFloat(raw)
			case ColumnHigh:
				r.High = parseFloat(raw)
			case ColumnLow:
				r.Low = parseFloat(raw)
			case ColumnClose:
				r.Close = parseFloat(raw)
			case ColumnVolume:
				r.Volume = parseFloat(raw)
			case ColumnOpenInterest:
				r.OpenInterest = parseFloat(raw)
			}
		}
		records = append(records, r)
	}

	return NewTable(columns, records)
}

// FromCSV 读取带表头的 CSV
func FromCSV(r io.Reader, rename map[string]string) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &InvalidColumnError{Column: ColumnDate}
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	var items []map[string]any
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		item := make(map[string]any, len(header))
		for i, name := range header {
			if i < len(row) {
				item[name] = row[i]
			}
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		// 仅有表头时依然校验列
		item := make(map[string]any, len(header))
		for _, name := range header {
			item[name] = nil
		}
		items = append(items, item)
	}
	return FromMaps(items, rename)
}

func canonical(key string, rename map[string]string) string {
	if mapped, ok := rename[key]; ok {
		return mapped
	}
	return strings.ToLower(strings.TrimSpace(key))
}

func parseFloat(raw any) null.Float {
	if raw == nil {
		return null.Float{}
	}
	if s, ok := raw.(string); ok && strings.TrimSpace(s) == "" {
		return null.Float{}
	}
	f, err := cast.ToFloat64E(raw)
	if err != nil {
		return null.Float{}
	}
	return null.FloatFrom(f)
}

func parseDate(raw any) time.Time {
	switch v := raw.(type) {
	case nil:
		return time.Time{}
	case time.Time:
		return TruncateDay(v)
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range dateLayouts {
			if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
				return t
			}
		}
	}
	t, err := cast.ToTimeInDefaultLocationE(raw, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return TruncateDay(t)
}
