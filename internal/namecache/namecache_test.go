package namecache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func testStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "A", "600519"); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := s.Put(ctx, "A", "600519", "贵州茅台"); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "US", "600519", "other"); err != nil {
		t.Fatal(err)
	}
	name, ok, err := s.Get(ctx, "A", "600519")
	if err != nil || !ok || name != "贵州茅台" {
		t.Fatalf("unexpected %q %v %v", name, ok, err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			code := fmt.Sprintf("%06d", i)
			if err := s.Put(ctx, "HK", code, "name-"+code); err != nil {
				t.Error(err)
			}
			_, _, _ = s.Get(ctx, "HK", code)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 20; i++ {
		code := fmt.Sprintf("%06d", i)
		if name, ok, _ := s.Get(ctx, "HK", code); !ok || name != "name-"+code {
			t.Errorf("lost write for %s: %q", code, name)
		}
	}
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	testStore(t, m)
	if m.Len() != 22 {
		t.Errorf("expected 22 entries, got %d", m.Len())
	}
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFile(dir)
	if err != nil {
		t.Fatal(err)
	}
	testStore(t, f)

	if _, err := os.Stat(filepath.Join(dir, "names_A.json")); err != nil {
		t.Fatalf("expected per-market cache file: %v", err)
	}

	// 重新打开后数据仍在
	reopened, _ := NewFile(dir)
	if name, ok, _ := reopened.Get(context.Background(), "A", "600519"); !ok || name != "贵州茅台" {
		t.Errorf("unexpected %q %v", name, ok)
	}
}

func TestFile_CorruptFileIsRebuilt(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "names_CN.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	f, _ := NewFile(dir)
	if _, _, err := f.Get(context.Background(), "CN", "RB0"); err == nil {
		t.Error("expected decode error")
	}
	if err := f.Put(context.Background(), "CN", "RB0", "螺纹钢"); err != nil {
		t.Fatal(err)
	}
	if name, ok, err := f.Get(context.Background(), "CN", "RB0"); err != nil || !ok || name != "螺纹钢" {
		t.Errorf("unexpected %q %v %v", name, ok, err)
	}
}
