package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/config"
	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/model"
	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/search"
)

const permalinkHost = "https://www.reddit.com"

// Client Reddit 客户端，作为社区讨论源
type Client struct {
	cfg     config.RedditConfig
	timeout time.Duration
	limiter *rate.Limiter
}

// NewClient 创建 Reddit 客户端
func NewClient(cfg config.RedditConfig, limiter *rate.Limiter) *Client {
	t := time.Duration(cfg.Timeout) * time.Second
	if t == 0 {
		t = 30 * time.Second
	}
	return &Client{cfg: cfg, timeout: t, limiter: limiter}
}

var _ search.Provider[search.CommunitySession] = (*Client)(nil)

// Name 数据源名称
func (c *Client) Name() string { return search.SourceReddit }

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Error       string `json:"error"`
}

// Open 以 client_credentials 获取应用令牌，返回持有该令牌的会话
func (c *Client) Open(ctx context.Context) (search.CommunitySession, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	auth := resty.New().
		SetTimeout(c.timeout).
		SetHeader("User-Agent", c.cfg.UserAgent)
	defer auth.GetClient().CloseIdleConnections()

	var tok tokenResponse
	resp, err := auth.R().
		SetContext(ctx).
		SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret).
		SetFormData(map[string]string{"grant_type": "client_credentials"}).
		SetResult(&tok).
		Post(c.cfg.AuthURL)
	if err != nil {
		return nil, fmt.Errorf("reddit token request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("reddit token request failed (status %d): %s", resp.StatusCode(), resp.String())
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("reddit token request returned no token: %s", tok.Error)
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(c.cfg.BaseURL, "/")).
		SetTimeout(c.timeout).
		SetHeader("User-Agent", c.cfg.UserAgent).
		SetAuthToken(tok.AccessToken)

	return &Session{client: client, limiter: c.limiter}, nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// Session 一次调研期间使用的 Reddit 会话
type Session struct {
	client  *resty.Client
	limiter *rate.Limiter
}

var _ search.CommunitySession = (*Session)(nil)

// Listing Reddit listing 响应
type Listing struct {
	Kind string `json:"kind"`
	Data struct {
		After    string  `json:"after"`
		Children []Child `json:"children"`
	} `json:"data"`
}

// Child listing 中的单个元素，Data 按 Kind 延迟解析
type Child struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// SubredditData t5 数据
type SubredditData struct {
	DisplayName       string  `json:"display_name"`
	Title             string  `json:"title"`
	PublicDescription string  `json:"public_description"`
	Subscribers       int     `json:"subscribers"`
	ActiveUserCount   int     `json:"active_user_count"`
	AccountsActive    int     `json:"accounts_active"`
	URL               string  `json:"url"`
	CreatedUTC        float64 `json:"created_utc"`
	Over18            bool    `json:"over18"`
}

// PostData t3 数据
type PostData struct {
	Title     string `json:"title"`
	Permalink string `json:"permalink"`
	Subreddit string `json:"subreddit"`
	Stickied  bool   `json:"stickied"`
}

// SearchCommunities 搜索社区
func (s *Session) SearchCommunities(ctx context.Context, query string, limit int, includeNSFW bool) ([]model.Community, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	nsfw := "off"
	if includeNSFW {
		nsfw = "on"
	}

	listing, err := s.listing(ctx, "/subreddits/search", map[string]string{
		"q":               query,
		"limit":           strconv.Itoa(limit),
		"include_over_18": nsfw,
		"raw_json":        "1",
	})
	if err != nil {
		return nil, err
	}

	communities := make([]model.Community, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		if child.Kind != "t5" {
			continue
		}
		var d SubredditData
		if err := json.Unmarshal(child.Data, &d); err != nil {
			return nil, fmt.Errorf("failed to parse subreddit: %w", err)
		}
		active := d.ActiveUserCount
		if active == 0 {
			active = d.AccountsActive
		}
		communities = append(communities, model.Community{
			Name:            d.DisplayName,
			Title:           d.Title,
			Description:     d.PublicDescription,
			SubscriberCount: max(d.Subscribers, 0),
			ActiveUserCount: max(active, 0),
			URL:             permalinkHost + d.URL,
			CreatedAt:       time.Unix(int64(d.CreatedUTC), 0).UTC(),
			NSFW:            d.Over18,
			Raw:             child.Data,
		})
	}
	return communities, nil
}

// ListPosts 获取社区帖子
func (s *Session) ListPosts(ctx context.Context, community, sort, timeWindow string, limit int) ([]model.Post, error) {
	if strings.TrimSpace(community) == "" {
		return nil, fmt.Errorf("subreddit cannot be empty")
	}
	if sort == "" {
		sort = "hot"
	}
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	params := map[string]string{
		"limit":    strconv.Itoa(limit),
		"raw_json": "1",
	}
	if timeWindow != "" {
		params["t"] = timeWindow
	}

	listing, err := s.listing(ctx, fmt.Sprintf("/r/%s/%s", url.PathEscape(community), sort), params)
	if err != nil {
		return nil, err
	}

	posts := make([]model.Post, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		if child.Kind != "t3" {
			continue
		}
		var d PostData
		if err := json.Unmarshal(child.Data, &d); err != nil {
			return nil, fmt.Errorf("failed to parse post: %w", err)
		}
		if d.Stickied {
			continue
		}
		name := d.Subreddit
		if name == "" {
			name = community
		}
		posts = append(posts, model.Post{
			Title:     d.Title,
			Permalink: permalinkHost + d.Permalink,
			Community: name,
		})
	}
	return posts, nil
}

// Ping 请求一个热门社区以验证令牌和连通性
func (s *Session) Ping(ctx context.Context) error {
	_, err := s.listing(ctx, "/subreddits/popular", map[string]string{"limit": "1"})
	return err
}

// Close 释放会话的空闲连接
func (s *Session) Close() error {
	s.client.GetClient().CloseIdleConnections()
	return nil
}

func (s *Session) listing(ctx context.Context, path string, params map[string]string) (*Listing, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var listing Listing
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&listing).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("reddit request %s failed: %w", path, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("reddit api error %s (status %d): %s", path, resp.StatusCode(), resp.String())
	}
	return &listing, nil
}
