package engine

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/logger"
	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/model"
	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/search"
)

// AgentName 健康检查中报告的名称
const AgentName = "niche_radar"

// Options 引擎选项
type Options struct {
	// MaxIterations 深度调研的最大轮数
	MaxIterations int
	// RequiredSources 必须配置的数据源，缺失时 NewEngine 返回 ConfigurationError
	RequiredSources []string
}

// Engine 细分市场调研引擎
type Engine struct {
	sources     search.Sources
	coordinator *Coordinator
}

// NewEngine 创建引擎实例
func NewEngine(sources search.Sources, opts Options) (*Engine, error) {
	configured := make(map[string]bool)
	for _, name := range sources.Configured() {
		configured[name] = true
	}
	var missing []string
	for _, name := range opts.RequiredSources {
		if !configured[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &ConfigurationError{Reason: "required sources are not configured", Missing: missing}
	}

	return &Engine{
		sources:     sources,
		coordinator: NewCoordinator(sources, opts.MaxIterations),
	}, nil
}

// validate 在任何网络请求之前检查调研参数
func validate(cfg model.AnalysisConfig) error {
	switch {
	case strings.TrimSpace(cfg.Query) == "":
		return &ConfigurationError{Reason: "query must not be empty"}
	case cfg.MaxCommunities <= 0:
		return &ConfigurationError{Reason: fmt.Sprintf("max_communities must be positive, got %d", cfg.MaxCommunities)}
	case cfg.PostsPerCommunity < 0:
		return &ConfigurationError{Reason: fmt.Sprintf("posts_per_community must not be negative, got %d", cfg.PostsPerCommunity)}
	case !validWeight(cfg.EngagementWeight) || !validWeight(cfg.RelevanceWeight):
		return &ConfigurationError{Reason: "weights must be finite non-negative numbers"}
	}
	return nil
}

// validWeight 权重必须是有限的非负数
func validWeight(w float64) bool {
	return w >= 0 && !math.IsInf(w, 0) && !math.IsNaN(w)
}

// stage 执行扇出之后的一个处理阶段，panic 转换为 PipelineError
func stage(name string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PipelineError{Stage: name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	fn()
	return nil
}

// ResearchNiche 对一个细分市场执行完整调研
func (e *Engine) ResearchNiche(ctx context.Context, cfg model.AnalysisConfig) (*model.ResearchResult, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}
	cfg.Query = strings.TrimSpace(cfg.Query)

	start := time.Now()
	runID := uuid.NewString()
	log := logger.Log.WithField("run_id", runID)
	log.Infof("开始调研细分市场 [%s]，数据源: %v", cfg.Query, e.sources.Configured())

	raw := e.coordinator.Research(ctx, cfg)
	if err := ctx.Err(); err != nil {
		return nil, &PipelineError{Stage: "fan-out", Err: err}
	}
	for _, se := range raw.Errors {
		log.Warnf("数据源失败 [%s]: %s", se.Source, se.Message)
	}

	var (
		agg           Aggregated
		scored        []model.ScoredCommunity
		painPoints    []model.PainPoint
		opportunities []model.Opportunity
	)
	stages := []struct {
		name string
		fn   func()
	}{
		{"aggregate", func() { agg = Aggregate(raw) }},
		{"score", func() { scored = ScoreCommunities(agg.Communities, agg.TrendKeywords, cfg) }},
		{"extract", func() { painPoints = ExtractPainPoints(agg.Posts, scored) }},
		{"rank", func() { opportunities = RankOpportunities(painPoints, scored) }},
	}
	for _, s := range stages {
		if err := stage(s.name, s.fn); err != nil {
			log.Errorf("调研失败: %v", err)
			return nil, err
		}
	}

	result := &model.ResearchResult{
		Query:         cfg.Query,
		Communities:   scored,
		PainPoints:    painPoints,
		Opportunities: opportunities,
		Metadata: model.Metadata{
			RunID:             runID,
			CommunitiesFound:  len(agg.Communities),
			CommunitiesScored: len(scored),
			PostsAnalyzed:     len(agg.Posts),
			WebResults:        len(agg.WebResults),
			ResearchResults:   len(agg.ResearchResults),
			TrendKeywords:     agg.TrendKeywords,
			Errors:            append([]model.SourceError(nil), raw.Errors...),
			GeneratedAt:       time.Now().UTC(),
			Elapsed:           time.Since(start),
		},
		Raw: *raw,
	}
	for _, c := range scored {
		result.TotalSubscribers += c.SubscriberCount
		result.TotalActiveUsers += c.ActiveUserCount
	}

	log.Infof("调研完成 [%s]: %d 个社区, %d 个痛点, %d 个机会, 耗时 %s",
		cfg.Query, len(scored), len(painPoints), len(opportunities), result.Metadata.Elapsed)
	return result, nil
}
