package searxng

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/model"
	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/search"
)

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Client SearXNG 客户端，作为通用网页搜索源
type Client struct {
	baseURL string
	timeout time.Duration
	limiter *rate.Limiter
}

// NewClient 创建一个新的 SearXNG 客户端
func NewClient(baseURL string, timeout int, limiter *rate.Limiter) *Client {
	t := time.Duration(timeout) * time.Second
	if t == 0 {
		t = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		timeout: t,
		limiter: limiter,
	}
}

var _ search.Provider[search.WebSession] = (*Client)(nil)

// Name 数据源名称
func (c *Client) Name() string { return search.SourceSearXNG }

// Open 创建持有独立连接池的会话
func (c *Client) Open(ctx context.Context) (search.WebSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	return &Session{
		base:      u,
		limiter:   c.limiter,
		transport: transport,
		client: &http.Client{
			Timeout:   c.timeout,
			Transport: transport,
		},
	}, nil
}

// Session 一次调研期间使用的 SearXNG 会话
type Session struct {
	base      *url.URL
	limiter   *rate.Limiter
	transport *http.Transport
	client    *http.Client
}

var _ search.WebSession = (*Session)(nil)

// SearchResponse SearXNG 响应结构
type SearchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}

// SearchResult SearXNG 单条结果
type SearchResult struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	PublishedDate string  `json:"publishedDate"`
	Score         float64 `json:"score"`
}

// timeRange 将 freshness 映射为 SearXNG 的 time_range
func timeRange(freshness string) string {
	switch freshness {
	case "day", "pd":
		return "day"
	case "week", "pw":
		return "week"
	case "month", "pm":
		return "month"
	case "year", "py":
		return "year"
	default:
		return ""
	}
}

// WebSearch 执行网页搜索，SearXNG 不支持数量参数，结果在本地截断
func (s *Session) WebSearch(ctx context.Context, query string, count int, freshness string) ([]model.WebResult, error) {
	u := *s.base
	u.Path = "/search"

	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("categories", "general")
	if tr := timeRange(freshness); tr != "" {
		q.Set("time_range", tr)
	}
	u.RawQuery = q.Encode()

	res, err := s.get(ctx, u.String())
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("searxng api error (status %d): %s", res.StatusCode, string(body))
	}

	var searchResp SearchResponse
	if err := json.NewDecoder(res.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decode response failed: %w", err)
	}

	results := make([]model.WebResult, 0, len(searchResp.Results))
	for _, r := range searchResp.Results {
		if count > 0 && len(results) >= count {
			break
		}
		results = append(results, model.WebResult{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: r.Content,
		})
	}
	return results, nil
}

// Ping 访问 /healthz
func (s *Session) Ping(ctx context.Context) error {
	u := *s.base
	u.Path = "/healthz"
	u.RawQuery = ""

	res, err := s.get(ctx, u.String())
	if err != nil {
		return err
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("searxng health check failed (status %d)", res.StatusCode)
	}
	return nil
}

// Close 释放会话的空闲连接
func (s *Session) Close() error {
	s.transport.CloseIdleConnections()
	return nil
}

func (s *Session) get(ctx context.Context, target string) (*http.Response, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	// 添加 User-Agent 避免被简单的反爬虫策略拦截
	httpReq.Header.Set("User-Agent", userAgent)
	httpReq.Header.Set("Accept", "application/json")

	res, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return res, nil
}
