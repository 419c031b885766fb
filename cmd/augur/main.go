package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dushixiang/augur/internal"
	"github.com/dushixiang/augur/internal/config"
	"github.com/dushixiang/augur/internal/tracing"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configFile string
	market     string
	minScore   int
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "augur",
	Short: "Augur - 股票与期货技术分析服务",
	Long:  ``,
	RunE: func(cmd *cobra.Command, args []string) error {
		return internal.Run(configFile)
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <code>",
	Short: "分析单个标的并输出 JSON 报告",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withComponents(cmd.Context(), func(ctx context.Context, c *internal.AppComponents, _ *config.Config) error {
			report, err := c.AnalysisService.Analyze(ctx, args[0], market)
			if err != nil {
				return err
			}
			return printJSON(report)
		})
	},
}

var scanCmd = &cobra.Command{
	Use:   "scan [codes...]",
	Short: "批量分析，未指定代码时扫描整个市场",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withComponents(cmd.Context(), func(ctx context.Context, c *internal.AppComponents, conf *config.Config) error {
			score := minScore
			if !cmd.Flags().Changed("min-score") {
				score = conf.Analysis.ScoreThreshold()
			}
			reports, err := c.AnalysisService.Scan(ctx, args, market, score)
			if err != nil {
				return err
			}
			return printJSON(reports)
		})
	},
}

func newLogger() (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func withComponents(parent context.Context, fn func(ctx context.Context, c *internal.AppComponents, conf *config.Config) error) error {
	conf, err := config.Load(configFile)
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := tracing.Init(conf.Tracing.Enabled, os.Stderr); err != nil {
		return err
	}
	defer tracing.Shutdown(context.Background())

	components, err := internal.InitializeApp(logger, nil, conf)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return fn(ctx, components, conf)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func init() {
	// 全局配置文件标志
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.yaml", "配置文件路径")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "输出调试日志")

	for _, cmd := range []*cobra.Command{analyzeCmd, scanCmd} {
		cmd.Flags().StringVarP(&market, "market", "m", "A", "市场: A, US, HK, CN, GLOBAL, CRYPTO")
	}
	scanCmd.Flags().IntVar(&minScore, "min-score", 60, "最低评分")

	rootCmd.AddCommand(analyzeCmd, scanCmd)
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
