package internal

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dushixiang/augur/internal/config"
	"github.com/dushixiang/augur/internal/handler"
	"github.com/dushixiang/augur/internal/metrics"
	"github.com/dushixiang/augur/internal/middleware"
	"github.com/dushixiang/augur/internal/models"
	"github.com/dushixiang/augur/internal/service"
	"github.com/dushixiang/augur/internal/telegram"
	"github.com/dushixiang/augur/internal/tracing"
	"github.com/dushixiang/augur/pkg/nostd"
	"github.com/go-orz/orz"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func Run(configPath string) error {
	app := NewAugurApp()

	framework, err := orz.NewFramework(
		orz.WithConfig(configPath),
		orz.WithLoggerFromConfig(),
		orz.WithDatabase(),
		orz.WithHTTP(),
		orz.WithApplication(app),
	)
	if err != nil {
		return err
	}

	defer app.Shutdown(context.Background())
	return framework.Run()
}

func NewAugurApp() *AugurApp {
	return &AugurApp{}
}

var _ orz.Application = (*AugurApp)(nil)

type AppComponents struct {
	AnalysisHandler *handler.AnalysisHandler

	AnalysisService *service.AnalysisService
	MarketService   *service.MarketService
	ScanJob         *service.ScanJob
	Metrics         *metrics.Metrics

	tg *telegram.Telegram
}

type AugurApp struct {
	components *AppComponents
	conf       *config.Config
	cancel     context.CancelFunc
}

// GetComponents 获取应用组件
func (r *AugurApp) GetComponents() *AppComponents {
	return r.components
}

func (r *AugurApp) Configure(app *orz.App) error {
	logger := app.Logger()
	e := app.GetEcho()
	db := app.GetDatabase()

	var conf config.Config
	err := app.GetConfig().App.Unmarshal(&conf)
	if err != nil {
		return fmt.Errorf("failed to unmarshal config: %v", err)
	}
	conf.ApplyEnv()
	conf.ApplyDefaults()

	if err := tracing.Init(conf.Tracing.Enabled, nil); err != nil {
		return fmt.Errorf("failed to init tracing: %v", err)
	}

	components, err := InitializeApp(logger, db, &conf)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %v", err)
	}
	r.components = components
	r.conf = &conf

	if err := db.AutoMigrate(
		models.InstrumentName{}, models.LLMLog{},
	); err != nil {
		logger.Fatal("database auto migrate failed", zap.Error(err))
	}

	if err := r.Init(logger); err != nil {
		logger.Fatal("app init failed", zap.Error(err))
	}

	e.HidePort = true
	e.HideBanner = true

	allowOrigins := conf.Server.CORSOrigins
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"*"}
	}

	e.Use(echomw.Gzip())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		Skipper:      echomw.DefaultSkipper,
		AllowOrigins: allowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost},
	}))
	e.Use(echomw.RecoverWithConfig(echomw.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			sugar := logger.Sugar()
			sugar.Error(fmt.Sprintf("[PANIC RECOVER] %v %s\n", err, stack))
			return err
		},
	}))
	e.Use(WithErrorHandler(logger))
	customValidator := nostd.CustomValidator{Validator: validator.New()}
	if err := customValidator.TransInit(); err != nil {
		logger.Sugar().Fatal("failed to init custom validator", zap.Error(err))
	}
	e.Validator = &customValidator

	r.components.AnalysisHandler.RegisterSystemRoutes(e)

	api := e.Group("/api", middleware.TokenAuth(middleware.TokenAuthConfig{
		TokenHash: conf.Server.TokenHash,
		Logger:    logger,
	}))
	{
		r.components.AnalysisHandler.RegisterRoutes(api)
	}

	return nil
}

func (r *AugurApp) Init(logger *zap.Logger) error {
	logger.Info("=================================================")
	logger.Info("Augur Market Analysis Starting...")
	logger.Info("=================================================")

	components := r.GetComponents()
	if components == nil {
		return fmt.Errorf("components not initialized")
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	if components.tg != nil {
		components.tg.Start()
	}
	if err := components.ScanJob.Start(ctx); err != nil {
		return err
	}
	return nil
}

// Shutdown 停止定时任务并刷新链路追踪
func (r *AugurApp) Shutdown(ctx context.Context) {
	if r.cancel != nil {
		r.cancel()
	}
	if r.components != nil {
		r.components.ScanJob.Stop()
		if r.components.tg != nil {
			r.components.tg.Stop()
		}
	}
	_ = tracing.Shutdown(ctx)
}
