package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/config"
	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/engine"
	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/logger"
	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/model"
	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/search/factory"
)

var flagconf string

func init() {
	flag.StringVar(&flagconf, "conf", "configs/config.yaml", "config path, eg: -conf config.yaml")
}

func main() {
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.LoadConfig(flagconf)
	if err != nil {
		log.Fatalf("无法加载配置文件: %v", err)
	}
	if len(cfg.Research.Queries) == 0 {
		log.Fatal("配置错误: 未设置调研关键词 (research.queries)")
	}

	// 2. 初始化日志，stdout 只输出结果 JSON
	if err = logger.InitLoggerTo(os.Stderr, cfg.Log.Level, cfg.Log.File); err != nil {
		log.Fatalf("无法初始化日志: %v", err)
	}
	logger.Log.Info("启动细分市场雷达...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. 初始化数据源与引擎
	sources, err := factory.NewSources(ctx, cfg)
	if err != nil {
		logger.Log.Fatalf("数据源初始化失败: %v", err)
	}
	for name, reason := range sources.Missing {
		logger.Log.Warnf("数据源 [%s] 未配置: %s", name, reason)
	}

	eng, err := engine.NewEngine(sources, engine.Options{
		MaxIterations:   cfg.Sources.Tavily.MaxIterations,
		RequiredSources: cfg.Research.RequiredSources,
	})
	if err != nil {
		logger.Log.Fatalf("引擎初始化失败: %v", err)
	}

	// 4. 逐个关键词调研
	results := make([]*model.ResearchResult, 0, len(cfg.Research.Queries))
	for _, q := range cfg.Research.Queries {
		res, err := eng.ResearchNiche(ctx, cfg.AnalysisConfig(q))
		if err != nil {
			logger.Log.Errorf("调研失败 [%s]: %v", q, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		for i, opp := range res.Opportunities {
			logger.Log.Infof("[%s] 机会 #%d: %s (reach=%d, confidence=%.2f)",
				q, i+1, opp.Description, opp.PotentialReach, opp.ConfidenceScore)
		}
		results = append(results, res)
	}

	// 5. 输出 JSON
	if err := writeResults(os.Stdout, results); err != nil {
		logger.Log.Fatalf("输出结果失败: %v", err)
	}
	logger.Log.Infof("✅ 细分市场调研完成: %d/%d", len(results), len(cfg.Research.Queries))
}

// writeResults 以缩进 JSON 写出全部调研结果
func writeResults(w io.Writer, results []*model.ResearchResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
