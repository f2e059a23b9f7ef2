package factory

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/config"
	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/reddit"
	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/search"
	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/searxng"
	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/tavily"
)

// 未配置数据源的原因
const (
	ReasonNoCredentials = "No credentials"
	ReasonNoAPIKey      = "No API key"
)

// NewSources 根据配置创建所有具备凭据的数据源
// 缺少凭据的数据源记录在 Sources.Missing 中，不视为错误
func NewSources(ctx context.Context, cfg *config.Config) (search.Sources, error) {
	sources := search.Sources{Missing: make(map[string]string)}

	// 所有数据源共享一个限流器
	limit := rate.Limit(float64(cfg.Concurrency.RPM) / 60.0)
	limiter := rate.NewLimiter(limit, max(cfg.Concurrency.QPS, 1))

	rc := cfg.Sources.Reddit
	if rc.ClientID != "" && rc.ClientSecret != "" {
		sources.Community = reddit.NewClient(rc, limiter)
	} else {
		sources.Missing[search.SourceReddit] = ReasonNoCredentials
	}

	if cfg.Sources.SearXNG.BaseURL != "" {
		sources.Web = searxng.NewClient(cfg.Sources.SearXNG.BaseURL, cfg.Sources.SearXNG.Timeout, limiter)
	} else {
		sources.Missing[search.SourceSearXNG] = ReasonNoCredentials
	}

	if cfg.Sources.Tavily.APIKey != "" {
		chatModel, err := newChatModel(ctx, cfg.LLM)
		if err != nil {
			return search.Sources{}, err
		}
		sources.Deep = tavily.NewClient(cfg.Sources.Tavily, chatModel, limiter)
	} else {
		sources.Missing[search.SourceTavily] = ReasonNoAPIKey
	}

	return sources, nil
}

// newChatModel 初始化深度调研追问所用的 LLM，未配置时返回 nil
func newChatModel(ctx context.Context, cfg config.LLMConfig) (model.BaseChatModel, error) {
	if cfg.APIKey == "" || cfg.Model == "" {
		return nil, nil
	}
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM 初始化失败: %w", err)
	}
	return chatModel, nil
}
