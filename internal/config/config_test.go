package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	conf, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if conf.Analysis.HistoryDays != 365 || conf.Analysis.MinRows != 62 || conf.Analysis.ScoreThreshold() != 60 {
		t.Errorf("unexpected analysis defaults %+v", conf.Analysis)
	}
	if conf.LLM.Temperature != 0.7 || conf.LLM.MaxTokens != 1000 || conf.LLM.Timeout != 30 {
		t.Errorf("unexpected llm defaults %+v", conf.LLM)
	}
	if conf.NameCache.Backend != "file" {
		t.Errorf("unexpected name cache backend %s", conf.NameCache.Backend)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
server:
  addr: ":8080"
app:
  analysis:
    clamp_stock_score: true
    indicators:
      ma_short: 3
  llm:
    provider: Azure
    model: deploy-1
  markets:
    US: [AAPL, MSFT]
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LLM_API_KEY", "sk-test")

	conf, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !conf.Analysis.ClampStockScore || conf.Analysis.Indicators.MAShort != 3 || conf.Analysis.Indicators.MALong != 60 {
		t.Errorf("unexpected analysis %+v", conf.Analysis)
	}
	if conf.LLM.Provider != "azure" || conf.LLM.Model != "deploy-1" || conf.LLM.APIKey != "sk-test" {
		t.Errorf("unexpected llm %+v", conf.LLM)
	}
	if len(conf.Markets["US"]) != 2 {
		t.Errorf("unexpected markets %+v", conf.Markets)
	}
}

func TestLoad_ExplicitZeroMinScore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
app:
  analysis:
    default_min_score: 0
  scan_job:
    min_score: 70
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	conf, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if conf.Analysis.ScoreThreshold() != 0 {
		t.Errorf("explicit zero overwritten: %d", conf.Analysis.ScoreThreshold())
	}
	if conf.ScanJob.ScoreThreshold() != 70 {
		t.Errorf("scan job min score = %d, want 70", conf.ScanJob.ScoreThreshold())
	}

	inherit := &Config{}
	zero := 0
	inherit.Analysis.DefaultMinScore = &zero
	inherit.ApplyDefaults()
	if inherit.ScanJob.ScoreThreshold() != 0 {
		t.Errorf("scan job should inherit zero, got %d", inherit.ScanJob.ScoreThreshold())
	}
}
