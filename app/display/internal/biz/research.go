package biz

import (
	"context"
	"errors"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/model"
)

// ErrReportNotFound 归档中没有该报告
var ErrReportNotFound = errors.New("report not found")

// ErrArchiveDisabled 未配置归档库
var ErrArchiveDisabled = errors.New("report archive is not configured")

// Researcher 调研引擎
type Researcher interface {
	ResearchNiche(ctx context.Context, cfg model.AnalysisConfig) (*model.ResearchResult, error)
	HealthCheck(ctx context.Context) model.HealthReport
}

// ReportSummary 报告摘要
type ReportSummary struct {
	ID               int64     `json:"id"`
	RunID            string    `json:"run_id"`
	Query            string    `json:"query"`
	Opportunities    int       `json:"opportunities"`
	TotalSubscribers int       `json:"total_subscribers"`
	CreatedAt        time.Time `json:"created_at"`
}

// Report 报告详情
type Report struct {
	ReportSummary
	Result *model.ResearchResult `json:"result"`
}

// ReportRepo 报告仓库接口
type ReportRepo interface {
	// SaveReport 保存一次调研结果，返回报告 ID
	SaveReport(ctx context.Context, res *model.ResearchResult) (int64, error)
	// ListReports 分页获取报告摘要列表，按创建时间倒序
	ListReports(ctx context.Context, page, pageSize int) ([]*ReportSummary, int, error)
	// GetReportByID 根据 ID 获取报告详情
	GetReportByID(ctx context.Context, id int64) (*Report, error)
}

// ResearchUseCase 调研业务逻辑
type ResearchUseCase struct {
	engine   Researcher
	repo     ReportRepo
	defaults func(query string) model.AnalysisConfig
	log      *log.Helper
}

// NewResearchUseCase 创建调研业务逻辑实例，repo 为 nil 时不归档
func NewResearchUseCase(engine Researcher, repo ReportRepo, defaults func(string) model.AnalysisConfig, logger log.Logger) *ResearchUseCase {
	if defaults == nil {
		defaults = model.DefaultAnalysisConfig
	}
	return &ResearchUseCase{engine: engine, repo: repo, defaults: defaults, log: log.NewHelper(logger)}
}

// Defaults 返回某个关键词的默认调研参数
func (uc *ResearchUseCase) Defaults(query string) model.AnalysisConfig {
	return uc.defaults(query)
}

// Research 执行调研并归档，归档失败只记录日志，不影响调研结果
func (uc *ResearchUseCase) Research(ctx context.Context, cfg model.AnalysisConfig) (*model.ResearchResult, int64, error) {
	res, err := uc.engine.ResearchNiche(ctx, cfg)
	if err != nil {
		return nil, 0, err
	}
	if uc.repo == nil {
		return res, 0, nil
	}
	id, err := uc.repo.SaveReport(ctx, res)
	if err != nil {
		uc.log.WithContext(ctx).Errorf("archive report %s: %v", res.Metadata.RunID, err)
		return res, 0, nil
	}
	return res, id, nil
}

// Health 探测所有数据源
func (uc *ResearchUseCase) Health(ctx context.Context) model.HealthReport {
	return uc.engine.HealthCheck(ctx)
}

// List 分页列出报告摘要
func (uc *ResearchUseCase) List(ctx context.Context, page, pageSize int) ([]*ReportSummary, int, error) {
	if uc.repo == nil {
		return nil, 0, ErrArchiveDisabled
	}
	return uc.repo.ListReports(ctx, page, pageSize)
}

// Get 根据 ID 获取报告详情
func (uc *ResearchUseCase) Get(ctx context.Context, id int64) (*Report, error) {
	if uc.repo == nil {
		return nil, ErrArchiveDisabled
	}
	return uc.repo.GetReportByID(ctx, id)
}
