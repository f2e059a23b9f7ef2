package service

import (
	"context"
	stderrors "errors"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/iWorld-y/niche_radar/app/display/internal/biz"
	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/engine"
	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/model"
)

// ResearchRequest 调研请求，未填写的字段使用配置中的默认值
type ResearchRequest struct {
	Query             string   `json:"query"`
	MaxCommunities    *int     `json:"max_communities,omitempty"`
	PostsPerCommunity *int     `json:"posts_per_community,omitempty"`
	MinSubscribers    *int     `json:"min_subscribers,omitempty"`
	IncludeNSFW       *bool    `json:"include_nsfw,omitempty"`
	EngagementWeight  *float64 `json:"engagement_weight,omitempty"`
	RelevanceWeight   *float64 `json:"relevance_weight,omitempty"`
}

type ResearchReply struct {
	ReportID int64                 `json:"report_id,omitempty"`
	Result   *model.ResearchResult `json:"result"`
}

type ListReportsRequest struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

type ListReportsReply struct {
	Reports []*biz.ReportSummary `json:"reports"`
	Total   int                  `json:"total"`
}

// 分页上限，保证 (page-1)*pageSize 不溢出
const (
	defaultPageSize = 10
	maxPageSize     = 100
	maxPage         = 1_000_000
)

type NicheService struct {
	uc     *biz.ResearchUseCase
	health *health.Server
	log    *log.Helper
}

// NewNicheService hs 可为 nil，此时不同步 gRPC 健康状态
func NewNicheService(uc *biz.ResearchUseCase, hs *health.Server, logger log.Logger) *NicheService {
	return &NicheService{
		uc:     uc,
		health: hs,
		log:    log.NewHelper(logger),
	}
}

func (s *NicheService) Research(ctx context.Context, req *ResearchRequest) (*ResearchReply, error) {
	cfg := s.uc.Defaults(req.Query)
	if req.MaxCommunities != nil {
		cfg.MaxCommunities = *req.MaxCommunities
	}
	if req.PostsPerCommunity != nil {
		cfg.PostsPerCommunity = *req.PostsPerCommunity
	}
	if req.MinSubscribers != nil {
		cfg.MinSubscribers = *req.MinSubscribers
	}
	if req.IncludeNSFW != nil {
		cfg.IncludeNSFW = *req.IncludeNSFW
	}
	if req.EngagementWeight != nil {
		cfg.EngagementWeight = *req.EngagementWeight
	}
	if req.RelevanceWeight != nil {
		cfg.RelevanceWeight = *req.RelevanceWeight
	}

	res, id, err := s.uc.Research(ctx, cfg)
	if err != nil {
		return nil, s.mapError(err)
	}
	return &ResearchReply{ReportID: id, Result: res}, nil
}

// Health 探测数据源并刷新 gRPC 健康状态
func (s *NicheService) Health(ctx context.Context) (*model.HealthReport, error) {
	report := s.uc.Health(ctx)
	s.SyncHealth(report)
	return &report, nil
}

// SyncHealth 把健康报告写入 gRPC 健康服务，整体状态对应空服务名
func (s *NicheService) SyncHealth(report model.HealthReport) {
	if s.health == nil {
		return
	}
	for name, svc := range report.Services {
		s.health.SetServingStatus(name, servingStatus(svc.Healthy))
	}
	s.health.SetServingStatus("", servingStatus(report.Healthy))
}

func (s *NicheService) ListReports(ctx context.Context, req *ListReportsRequest) (*ListReportsReply, error) {
	page := min(max(req.Page, 1), maxPage)
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	pageSize = min(pageSize, maxPageSize)

	reports, total, err := s.uc.List(ctx, page, pageSize)
	if err != nil {
		return nil, s.mapError(err)
	}
	if reports == nil {
		reports = []*biz.ReportSummary{}
	}
	return &ListReportsReply{Reports: reports, Total: total}, nil
}

func (s *NicheService) GetReport(ctx context.Context, id int64) (*biz.Report, error) {
	r, err := s.uc.Get(ctx, id)
	if err != nil {
		return nil, s.mapError(err)
	}
	return r, nil
}

func servingStatus(ok bool) healthpb.HealthCheckResponse_ServingStatus {
	if ok {
		return healthpb.HealthCheckResponse_SERVING
	}
	return healthpb.HealthCheckResponse_NOT_SERVING
}

// mapError 把领域错误转换为 kratos 错误
func (s *NicheService) mapError(err error) error {
	var (
		cfgErr  *engine.ConfigurationError
		pipeErr *engine.PipelineError
	)
	switch {
	case stderrors.As(err, &cfgErr):
		return errors.BadRequest("INVALID_CONFIGURATION", cfgErr.Error()).WithCause(err)
	case stderrors.As(err, &pipeErr):
		s.log.Errorf("pipeline failed at %s: %v", pipeErr.Stage, pipeErr.Err)
		return errors.InternalServer("PIPELINE_FAILED", pipeErr.Error()).WithCause(err)
	case stderrors.Is(err, biz.ErrReportNotFound):
		return errors.NotFound("REPORT_NOT_FOUND", err.Error())
	case stderrors.Is(err, biz.ErrArchiveDisabled):
		return errors.ServiceUnavailable("ARCHIVE_DISABLED", err.Error())
	default:
		s.log.Errorf("unexpected error: %v", err)
		return errors.InternalServer("INTERNAL", err.Error()).WithCause(err)
	}
}
