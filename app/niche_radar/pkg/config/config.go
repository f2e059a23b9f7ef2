package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/model"
)

// Config 项目配置结构体
// 同时带 json tag，方便 kratos 配置加载器直接 Scan
type Config struct {
	Sources     SourcesConfig     `yaml:"sources" json:"sources"`
	LLM         LLMConfig         `yaml:"llm" json:"llm"`
	Research    ResearchConfig    `yaml:"research" json:"research"`
	Log         LogConfig         `yaml:"log" json:"log"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" json:"concurrency"`
}

// SourcesConfig 各数据源的凭据与参数
type SourcesConfig struct {
	Reddit  RedditConfig  `yaml:"reddit" json:"reddit"`
	SearXNG SearXNGConfig `yaml:"searxng" json:"searxng"`
	Tavily  TavilyConfig  `yaml:"tavily" json:"tavily"`
}

// RedditConfig Reddit 配置
type RedditConfig struct {
	ClientID     string `yaml:"client_id" json:"client_id"`
	ClientSecret string `yaml:"client_secret" json:"client_secret"`
	UserAgent    string `yaml:"user_agent" json:"user_agent"`
	AuthURL      string `yaml:"auth_url" json:"auth_url"`
	BaseURL      string `yaml:"base_url" json:"base_url"`
	Timeout      int    `yaml:"timeout" json:"timeout"` // 秒
}

// SearXNGConfig SearXNG 配置
type SearXNGConfig struct {
	BaseURL string `yaml:"base_url" json:"base_url"`
	Timeout int    `yaml:"timeout" json:"timeout"`
}

// TavilyConfig Tavily 配置
type TavilyConfig struct {
	APIKey        string `yaml:"api_key" json:"api_key"`
	BaseURL       string `yaml:"base_url" json:"base_url"`
	SearchDepth   string `yaml:"search_depth" json:"search_depth"`
	MaxIterations int    `yaml:"max_iterations" json:"max_iterations"`
	Timeout       int    `yaml:"timeout" json:"timeout"`
}

// LLMConfig LLM 相关配置，可选，用于深度调研的追问
type LLMConfig struct {
	BaseURL string `yaml:"base_url" json:"base_url"`
	APIKey  string `yaml:"api_key" json:"api_key"`
	Model   string `yaml:"model" json:"model"`
}

// ResearchConfig 调研默认参数
type ResearchConfig struct {
	MaxCommunities    int      `yaml:"max_communities" json:"max_communities"`
	PostsPerCommunity int      `yaml:"posts_per_community" json:"posts_per_community"`
	MinSubscribers    *int     `yaml:"min_subscribers" json:"min_subscribers"`
	IncludeNSFW       bool     `yaml:"include_nsfw" json:"include_nsfw"`
	EngagementWeight  *float64 `yaml:"engagement_weight" json:"engagement_weight"`
	RelevanceWeight   *float64 `yaml:"relevance_weight" json:"relevance_weight"`
	RequiredSources   []string `yaml:"required_sources" json:"required_sources"`
	Queries           []string `yaml:"queries" json:"queries"`
}

// LogConfig 日志相关配置
type LogConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// ConcurrencyConfig 并发控制配置
type ConcurrencyConfig struct {
	QPS int `yaml:"qps" json:"qps"`
	RPM int `yaml:"rpm" json:"rpm"`
}

// LoadConfig 从指定路径加载配置
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()

	return &cfg, nil
}

// ApplyDefaults 填充未设置的配置项
func (c *Config) ApplyDefaults() {
	if c.Sources.Reddit.UserAgent == "" {
		c.Sources.Reddit.UserAgent = "niche_radar/1.0"
	}
	if c.Sources.Reddit.AuthURL == "" {
		c.Sources.Reddit.AuthURL = "https://www.reddit.com/api/v1/access_token"
	}
	if c.Sources.Reddit.BaseURL == "" {
		c.Sources.Reddit.BaseURL = "https://oauth.reddit.com"
	}
	if c.Sources.Reddit.Timeout <= 0 {
		c.Sources.Reddit.Timeout = 30
	}
	if c.Sources.SearXNG.Timeout <= 0 {
		c.Sources.SearXNG.Timeout = 30
	}
	if c.Sources.Tavily.BaseURL == "" {
		c.Sources.Tavily.BaseURL = "https://api.tavily.com"
	}
	if c.Sources.Tavily.SearchDepth == "" {
		c.Sources.Tavily.SearchDepth = "advanced"
	}
	if c.Sources.Tavily.MaxIterations <= 0 {
		c.Sources.Tavily.MaxIterations = 3
	}
	if c.Sources.Tavily.Timeout <= 0 {
		c.Sources.Tavily.Timeout = 60
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Concurrency.QPS <= 0 {
		c.Concurrency.QPS = 2
	}
	if c.Concurrency.RPM <= 0 {
		c.Concurrency.RPM = 60
	}
}

// AnalysisConfig 以配置中的默认参数构造一次调研配置
func (c *Config) AnalysisConfig(query string) model.AnalysisConfig {
	ac := model.DefaultAnalysisConfig(query)
	r := c.Research
	if r.MaxCommunities > 0 {
		ac.MaxCommunities = r.MaxCommunities
	}
	if r.PostsPerCommunity > 0 {
		ac.PostsPerCommunity = r.PostsPerCommunity
	}
	if r.MinSubscribers != nil {
		ac.MinSubscribers = *r.MinSubscribers
	}
	ac.IncludeNSFW = r.IncludeNSFW
	if r.EngagementWeight != nil {
		ac.EngagementWeight = *r.EngagementWeight
	}
	if r.RelevanceWeight != nil {
		ac.RelevanceWeight = *r.RelevanceWeight
	}
	return ac
}
