package search

import (
	"context"

	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/model"
)

// 数据源名称
const (
	SourceReddit  = "reddit"
	SourceSearXNG = "searxng"
	SourceTavily  = "tavily"
)

// Provider 以作用域资源的方式提供数据源会话
// Open 获取的会话必须由调用方在所有退出路径上 Close
type Provider[S Session] interface {
	Name() string
	Open(ctx context.Context) (S, error)
}

// Session 数据源会话
type Session interface {
	// Ping 探测连通性
	Ping(ctx context.Context) error
	Close() error
}

// CommunitySession 社区讨论源
type CommunitySession interface {
	Session
	SearchCommunities(ctx context.Context, query string, limit int, includeNSFW bool) ([]model.Community, error)
	ListPosts(ctx context.Context, community, sort, timeWindow string, limit int) ([]model.Post, error)
}

// WebSession 通用网页搜索源
type WebSession interface {
	Session
	WebSearch(ctx context.Context, query string, count int, freshness string) ([]model.WebResult, error)
}

// DeepSession 深度调研源
type DeepSession interface {
	Session
	DeepResearch(ctx context.Context, query string, maxIterations int) ([]model.ResearchDoc, error)
}

// Sources 已配置的数据源集合，未配置的为 nil
type Sources struct {
	Community Provider[CommunitySession]
	Web       Provider[WebSession]
	Deep      Provider[DeepSession]

	// Missing 未配置数据源 -> 原因
	Missing map[string]string
}

// Configured 返回已配置数据源的名称
func (s Sources) Configured() []string {
	var names []string
	if s.Community != nil {
		names = append(names, s.Community.Name())
	}
	if s.Web != nil {
		names = append(names, s.Web.Name())
	}
	if s.Deep != nil {
		names = append(names, s.Deep.Name())
	}
	return names
}
