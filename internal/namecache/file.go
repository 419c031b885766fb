package namecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dushixiang/augur/pkg/nostd"
)

// File 文件实现，每个市场一个 JSON 文件，读取与写入均为整体进行
type File struct {
	dir string
	mu  sync.RWMutex
}

func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &File{dir: dir}, nil
}

func (f *File) path(market string) (string, error) {
	return nostd.SafePathJoin(f.dir, fmt.Sprintf("names_%s.json", market))
}

func (f *File) load(market string) (map[string]string, error) {
	p, err := f.path(market)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	names := map[string]string{}
	if len(data) == 0 {
		return names, nil
	}
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(p), err)
	}
	return names, nil
}

func (f *File) Get(_ context.Context, market, code string) (string, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	names, err := f.load(market)
	if err != nil {
		return "", false, err
	}
	name, ok := names[code]
	return name, ok, nil
}

func (f *File) Put(_ context.Context, market, code, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	names, err := f.load(market)
	if err != nil {
		// 损坏的缓存文件直接重建
		names = map[string]string{}
	}
	names[code] = name

	p, err := f.path(market)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(names, "", "  ")
	if err != nil {
		return err
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}
