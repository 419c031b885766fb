package internal

import (
	"context"
	"net/http"
	"time"

	"github.com/dushixiang/augur/internal/config"
	"github.com/dushixiang/augur/internal/handler"
	"github.com/dushixiang/augur/internal/metrics"
	"github.com/dushixiang/augur/internal/namecache"
	"github.com/dushixiang/augur/internal/repo"
	"github.com/dushixiang/augur/internal/service"
	"github.com/dushixiang/augur/internal/telegram"
	"github.com/dushixiang/augur/pkg/marketdata"
	"github.com/go-redis/redis/v8"
	"github.com/google/wire"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	telegramHTTPTimeout = 10 * time.Second
	redisPingTimeout    = 3 * time.Second
)

var (
	handlerSet = wire.NewSet(
		handler.NewAnalysisHandler,
	)

	marketSet = wire.NewSet(
		provideYahoo,
		provideSina,
		provideBinance,
		marketdata.NewCatalog,
	)

	analysisSet = wire.NewSet(
		provideMetrics,
		provideNameStore,
		provideLLMLogRepo,
		provideGenerator,
		service.NewMarketService,
		service.NewNameService,
		service.NewNarrativeService,
		service.NewAnalysisService,
		service.NewScanJob,
	)
)

func provideMetrics() *metrics.Metrics {
	return metrics.NewMetrics()
}

// provideTelegram provides telegram instance
func provideTelegram(logger *zap.Logger, conf *config.Config) *telegram.Telegram {
	if !conf.Telegram.Enabled || conf.Telegram.Token == "" {
		return nil
	}

	httpClient := &http.Client{Timeout: telegramHTTPTimeout}

	tg, err := telegram.NewTelegram(logger, telegram.Settings{
		Token:  conf.Telegram.Token,
		Client: httpClient,
	})
	if err != nil {
		logger.Error("failed to init telegram", zap.Error(err))
		return nil
	}

	return tg
}

// provideNotifier 未启用 telegram 时返回空接口
func provideNotifier(tg *telegram.Telegram) service.Notifier {
	if tg == nil {
		return nil
	}
	return tg
}

func provideYahoo(conf *config.Config) *marketdata.Yahoo {
	return marketdata.NewYahoo(marketdata.HTTPOptions{
		BaseURL: conf.Yahoo.BaseURL,
		Proxy:   conf.Yahoo.ProxyURL,
		Timeout: conf.Yahoo.TimeoutDuration(),
	})
}

func provideSina(conf *config.Config) *marketdata.Sina {
	return marketdata.NewSina(marketdata.HTTPOptions{
		BaseURL: conf.Sina.BaseURL,
		Proxy:   conf.Sina.ProxyURL,
		Timeout: conf.Sina.TimeoutDuration(),
	})
}

// provideBinance provides Binance market data source
func provideBinance(conf *config.Config, logger *zap.Logger) *marketdata.Binance {
	b := marketdata.NewBinance(marketdata.BinanceOptions{
		Proxy:   conf.Binance.ProxyURL,
		Testnet: conf.Binance.Testnet,
		OnOpenInterestError: func(code string, err error) {
			logger.Warn("open interest unavailable, continuing without it", zap.String("code", code), zap.Error(err))
		},
	})
	logger.Info("Binance market data initialized", zap.Bool("testnet", conf.Binance.Testnet))
	return b
}

// provideNameStore 按配置选择名称缓存后端，数据库不可用时退回内存
func provideNameStore(logger *zap.Logger, db *gorm.DB, conf *config.Config) (namecache.Store, error) {
	backend := namecache.Backend(conf.NameCache.Backend)
	switch backend {
	case namecache.BackendMemory:
		return namecache.NewMemory(), nil
	case namecache.BackendFile:
		return namecache.NewFile(conf.NameCache.Dir)
	case namecache.BackendDatabase:
		if db == nil {
			logger.Warn("database name cache requested without a database, using memory")
			return namecache.NewMemory(), nil
		}
		return namecache.NewDatabase(db), nil
	case namecache.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr: conf.NameCache.RedisAddr,
			DB:   conf.NameCache.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("redis name cache unreachable", zap.String("addr", conf.NameCache.RedisAddr), zap.Error(err))
		}
		return namecache.NewRedis(client, conf.NameCache.RedisPrefix), nil
	default:
		return nil, &namecache.ErrUnknownBackend{Backend: conf.NameCache.Backend}
	}
}

func provideLLMLogRepo(db *gorm.DB, conf *config.Config) *repo.LLMLogRepo {
	if db == nil || !conf.LLM.LogCalls {
		return nil
	}
	return repo.NewLLMLogRepo(db)
}

// provideGenerator 创建失败时只记录日志，分析文本使用本地模板
func provideGenerator(logger *zap.Logger, conf *config.Config) service.Generator {
	gen, err := service.NewGenerator(context.Background(), conf.LLM)
	if err != nil {
		logger.Error("failed to init narrative generator", zap.Error(err))
		return nil
	}
	if gen == nil {
		logger.Info("narrative generator disabled, using local analysis")
		return nil
	}
	logger.Info("narrative generator initialized",
		zap.String("provider", gen.Name()),
		zap.String("model", conf.LLM.Model),
	)
	return gen
}
