package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/go-shiori/go-readability"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/config"
	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/logger"
	dm "github.com/iWorld-y/niche_radar/app/niche_radar/pkg/model"
	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/search"
)

const (
	defaultBaseURL = "https://api.tavily.com"

	minContentLen = 500
	maxContentLen = 5000
	perIteration  = 5
)

// Client Tavily 客户端，作为深度调研源
type Client struct {
	apiKey      string
	baseURL     string
	searchDepth string
	timeout     time.Duration
	chatModel   model.BaseChatModel
	limiter     *rate.Limiter
}

// NewClient 创建一个新的 Tavily 客户端
// chatModel 为 nil 时每次调研只做一轮搜索
func NewClient(cfg config.TavilyConfig, chatModel model.BaseChatModel, limiter *rate.Limiter) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	t := time.Duration(cfg.Timeout) * time.Second
	if t == 0 {
		t = 60 * time.Second
	}
	depth := cfg.SearchDepth
	if depth == "" {
		depth = "advanced"
	}
	return &Client{
		apiKey:      cfg.APIKey,
		baseURL:     base,
		searchDepth: depth,
		timeout:     t,
		chatModel:   chatModel,
		limiter:     limiter,
	}
}

var _ search.Provider[search.DeepSession] = (*Client)(nil)

// Name 数据源名称
func (c *Client) Name() string { return search.SourceTavily }

// Open 创建持有独立连接池的会话
func (c *Client) Open(ctx context.Context) (search.DeepSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	return &Session{
		c:         c,
		transport: transport,
		client:    &http.Client{Timeout: c.timeout, Transport: transport},
	}, nil
}

// Session 一次调研期间使用的 Tavily 会话
type Session struct {
	c         *Client
	transport *http.Transport
	client    *http.Client
}

var _ search.DeepSession = (*Session)(nil)

// SearchRequest Tavily 搜索请求参数
type SearchRequest struct {
	Query             string   `json:"query"`
	SearchDepth       string   `json:"search_depth,omitempty"` // basic or advanced
	Topic             string   `json:"topic,omitempty"`        // general or news
	MaxResults        int      `json:"max_results,omitempty"`
	IncludeRawContent bool     `json:"include_raw_content,omitempty"`
	IncludeAnswer     bool     `json:"include_answer,omitempty"`
	IncludeDomains    []string `json:"include_domains,omitempty"`
	ExcludeDomains    []string `json:"exclude_domains,omitempty"`
}

// SearchResponse Tavily 搜索响应
type SearchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
	Answer  string         `json:"answer"`
}

// SearchResult 单个搜索结果
type SearchResult struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	RawContent    string  `json:"raw_content"`
	Score         float64 `json:"score"`
	PublishedDate string  `json:"published_date"`
}

// DeepResearch 多轮搜索，每轮之后由 LLM 给出追问
// 中途失败时返回已收集的文档和错误
func (s *Session) DeepResearch(ctx context.Context, query string, maxIterations int) ([]dm.ResearchDoc, error) {
	if maxIterations <= 0 {
		maxIterations = 1
	}

	var docs []dm.ResearchDoc
	seen := make(map[string]bool)
	q := query

	for i := 0; i < maxIterations; i++ {
		resp, err := s.doSearch(ctx, SearchRequest{
			Query:         q,
			SearchDepth:   s.c.searchDepth,
			Topic:         "general",
			MaxResults:    perIteration,
			IncludeAnswer: true,
		})
		if err != nil {
			return docs, fmt.Errorf("iteration %d: %w", i+1, err)
		}

		for _, r := range resp.Results {
			key := r.URL
			if key == "" {
				key = r.Title
			}
			if seen[key] {
				continue
			}
			seen[key] = true

			content := r.Content
			if utf8.RuneCountInString(content) < minContentLen && r.URL != "" {
				fetched, err := s.fetchAndCleanContent(ctx, r.URL)
				if err != nil {
					logger.Log.Debugf("正文抓取失败 [%s]: %v", r.URL, err)
				} else if utf8.RuneCountInString(fetched) > utf8.RuneCountInString(content) {
					content = fetched
				}
			}
			docs = append(docs, dm.ResearchDoc{
				Title:   r.Title,
				URL:     r.URL,
				Content: truncate(content, maxContentLen),
			})
		}
		logger.Log.Debugf("tavily 第 %d 轮 [%s] 返回 %d 条结果", i+1, q, len(resp.Results))

		if i == maxIterations-1 || s.c.chatModel == nil {
			break
		}
		next, err := s.followUp(ctx, query, resp)
		if err != nil {
			return docs, fmt.Errorf("follow-up query: %w", err)
		}
		if next == "" || next == q {
			break
		}
		q = next
	}
	return docs, nil
}

// Ping 查询账户用量以确认 API key 有效
func (s *Session) Ping(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, s.c.baseURL+"/usage", nil)
	if err != nil {
		return fmt.Errorf("create request failed: %w", err)
	}
	httpReq.Header.Add("Authorization", "Bearer "+s.c.apiKey)

	res, err := s.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("tavily api error (status %d): %s", res.StatusCode, string(body))
	}
	return nil
}

// Close 释放会话的空闲连接
func (s *Session) Close() error {
	s.transport.CloseIdleConnections()
	return nil
}

func (s *Session) wait(ctx context.Context) error {
	if s.c.limiter == nil {
		return nil
	}
	return s.c.limiter.Wait(ctx)
}

// doSearch 执行一次 Tavily 搜索
func (s *Session) doSearch(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request failed: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.c.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	httpReq.Header.Add("Authorization", "Bearer "+s.c.apiKey)
	httpReq.Header.Add("Content-Type", "application/json")

	res, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily api error (status %d): %s", res.StatusCode, string(body))
	}

	var searchResp SearchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("unmarshal response failed: %w", err)
	}
	return &searchResp, nil
}

// fetchAndCleanContent 抓取 URL 并提取正文
func (s *Session) fetchAndCleanContent(ctx context.Context, pageURL string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	res, err := s.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: status %d", pageURL, res.StatusCode)
	}

	article, err := readability.FromReader(res.Body, u)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(article.TextContent), nil
}

const followUpPrompt = `You are a market researcher digging into the niche "%s".
The last search returned these findings:
%s
Reply with ONE follow-up web search query that would uncover unmet needs or complaints
in this niche that the findings do not cover yet. Reply with the query only.
If nothing useful remains to search, reply with an empty line.`

// followUp 让 LLM 根据本轮结果给出下一轮查询
func (s *Session) followUp(ctx context.Context, topic string, resp *SearchResponse) (string, error) {
	if err := s.wait(ctx); err != nil {
		return "", err
	}

	var sb strings.Builder
	if resp.Answer != "" {
		fmt.Fprintf(&sb, "Summary: %s\n", resp.Answer)
	}
	for _, r := range resp.Results {
		fmt.Fprintf(&sb, "- %s\n", r.Title)
	}

	messages := []*schema.Message{
		{Role: schema.System, Content: "You only output a search query."},
		{Role: schema.User, Content: fmt.Sprintf(followUpPrompt, topic, sb.String())},
	}
	out, err := s.c.chatModel.Generate(ctx, messages)
	if err != nil {
		return "", err
	}

	next := strings.TrimSpace(out.Content)
	next = strings.Trim(next, "\"`")
	if i := strings.IndexByte(next, '\n'); i >= 0 {
		next = strings.TrimSpace(next[:i])
	}
	return next, nil
}

// truncate 按字符数截断
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
