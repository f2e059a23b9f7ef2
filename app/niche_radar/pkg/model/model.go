package model

import (
	"encoding/json"
	"time"
)

// AnalysisConfig 单次细分市场调研的参数
// 权重不做归一化，调用方可以传入任意非负数
type AnalysisConfig struct {
	Query             string  `json:"query"`
	MaxCommunities    int     `json:"max_communities"`
	PostsPerCommunity int     `json:"posts_per_community"`
	MinSubscribers    int     `json:"min_subscribers"`
	IncludeNSFW       bool    `json:"include_nsfw"`
	EngagementWeight  float64 `json:"engagement_weight"`
	RelevanceWeight   float64 `json:"relevance_weight"`
}

// DefaultAnalysisConfig 返回带默认参数的调研配置
func DefaultAnalysisConfig(query string) AnalysisConfig {
	return AnalysisConfig{
		Query:             query,
		MaxCommunities:    10,
		PostsPerCommunity: 25,
		MinSubscribers:    1000,
		IncludeNSFW:       false,
		EngagementWeight:  0.5,
		RelevanceWeight:   0.5,
	}
}

// Community 社区讨论源中发现的社区
type Community struct {
	Name            string          `json:"name"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	SubscriberCount int             `json:"subscriber_count"`
	ActiveUserCount int             `json:"active_user_count"`
	URL             string          `json:"url"`
	CreatedAt       time.Time       `json:"created_at"`
	NSFW            bool            `json:"nsfw"`
	Raw             json.RawMessage `json:"raw,omitempty"` // 数据源原始载荷
}

// Post 社区中的帖子
type Post struct {
	Title     string `json:"title"`
	Permalink string `json:"permalink"`
	Community string `json:"community"`
}

// WebResult 通用网页搜索结果
type WebResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// ResearchDoc 深度调研返回的文档
type ResearchDoc struct {
	Title   string `json:"title"`
	URL     string `json:"url,omitempty"`
	Content string `json:"content"`
}

// ScoredCommunity 打分后的社区
type ScoredCommunity struct {
	Community
	EngagementScore float64 `json:"engagement_score"` // 0-10
	RelevanceScore  float64 `json:"relevance_score"`  // 0-10
	RankScore       float64 `json:"rank_score"`       // 加权得分
}

// Severity 痛点严重程度
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// PainPoint 从帖子标题中挖掘出的痛点
type PainPoint struct {
	Description       string   `json:"description"`
	Severity          Severity `json:"severity"`
	Frequency         int      `json:"frequency"`
	SourcePosts       []string `json:"source_posts"`       // 最多 3 个 permalink
	SourceCommunities []string `json:"source_communities"` // 最多 3 个社区名
}

// Opportunity 由痛点推导出的商业机会
type Opportunity struct {
	Description        string   `json:"description"`
	PainPoint          string   `json:"pain_point"`
	TargetAudience     string   `json:"target_audience"`
	PotentialReach     int      `json:"potential_reach"`
	ConfidenceScore    float64  `json:"confidence_score"`
	SupportingEvidence []string `json:"supporting_evidence"` // 最多 2 个 permalink
}

// SourceError 单个数据源的失败记录
type SourceError struct {
	Source  string `json:"source"`
	Message string `json:"message"`
}

// RawFindings 协调器汇总的各数据源原始结果
type RawFindings struct {
	Communities     []Community   `json:"communities"`
	Posts           []Post        `json:"posts"`
	WebResults      []WebResult   `json:"web_results"`
	ResearchResults []ResearchDoc `json:"research_results"`
	Errors          []SourceError `json:"errors"`
}

// Metadata 调研结果的统计信息
type Metadata struct {
	RunID             string        `json:"run_id"`
	CommunitiesFound  int           `json:"communities_found"`
	CommunitiesScored int           `json:"communities_scored"`
	PostsAnalyzed     int           `json:"posts_analyzed"`
	WebResults        int           `json:"web_results"`
	ResearchResults   int           `json:"research_results"`
	TrendKeywords     []string      `json:"trend_keywords"`
	Errors            []SourceError `json:"errors"`
	GeneratedAt       time.Time     `json:"generated_at"`
	Elapsed           time.Duration `json:"elapsed"`
}

// ResearchResult 一次调研的最终结果，返回后不再修改
type ResearchResult struct {
	Query            string            `json:"query"`
	Communities      []ScoredCommunity `json:"communities"`
	PainPoints       []PainPoint       `json:"pain_points"`
	Opportunities    []Opportunity     `json:"opportunities"`
	TotalSubscribers int               `json:"total_subscribers"`
	TotalActiveUsers int               `json:"total_active_users"`
	Metadata         Metadata          `json:"metadata"`
	Raw              RawFindings       `json:"raw"`
}

// ServiceHealth 单个数据源的健康状态
type ServiceHealth struct {
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// HealthReport 健康检查结果
type HealthReport struct {
	Agent    string                   `json:"agent"`
	Services map[string]ServiceHealth `json:"services"`
	Healthy  bool                     `json:"healthy"`
}
