package server

import (
	"context"
	"errors"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/config"
	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/engine"
	nrLogger "github.com/iWorld-y/niche_radar/app/niche_radar/pkg/logger"
	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/search/factory"
)

// NewNicheEngine 初始化 niche_radar 引擎
func NewNicheEngine(ctx context.Context, c *config.Config, logger log.Logger) (*engine.Engine, error) {
	if c == nil {
		return nil, errors.New("niche config is missing")
	}
	c.ApplyDefaults()

	// 初始化日志
	if err := nrLogger.InitLogger(c.Log.Level, c.Log.File); err != nil {
		log.NewHelper(logger).Errorf("Failed to init niche_radar logger: %v", err)
		_ = nrLogger.InitLogger("info", "") // 降级处理
	}

	sources, err := factory.NewSources(ctx, c)
	if err != nil {
		log.NewHelper(logger).Errorf("Failed to init sources: %v", err)
		return nil, err
	}
	for name, reason := range sources.Missing {
		log.NewHelper(logger).Warnf("source %s not configured: %s", name, reason)
	}

	// 初始化核心引擎
	eng, err := engine.NewEngine(sources, engine.Options{
		MaxIterations:   c.Sources.Tavily.MaxIterations,
		RequiredSources: c.Research.RequiredSources,
	})
	if err != nil {
		log.NewHelper(logger).Errorf("Failed to init engine: %v", err)
		return nil, err
	}
	return eng, nil
}
