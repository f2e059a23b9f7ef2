package engine

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/model"
	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/search"
)

var errNetwork = errors.New("dial tcp: connection refused")

// counters 统计 fake 数据源的调用次数
type counters struct {
	opens  atomic.Int32
	closes atomic.Int32
	calls  atomic.Int32
}

type fakeCommunity struct {
	counters
	communities []model.Community
	posts       map[string][]model.Post
	openErr     error
	searchErr   error
	postErr     map[string]error
	pingErr     error
	block       bool // 阻塞直到 ctx 结束
}

func (f *fakeCommunity) Name() string { return search.SourceReddit }

func (f *fakeCommunity) Open(ctx context.Context) (search.CommunitySession, error) {
	f.opens.Add(1)
	if f.openErr != nil {
		return nil, f.openErr
	}
	return &fakeCommunitySession{f: f}, nil
}

type fakeCommunitySession struct{ f *fakeCommunity }

func (s *fakeCommunitySession) SearchCommunities(ctx context.Context, query string, limit int, includeNSFW bool) ([]model.Community, error) {
	s.f.calls.Add(1)
	if s.f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	// 失败时仍返回数据，验证协调器丢弃失败调用的结果
	if s.f.searchErr != nil {
		return s.f.communities, s.f.searchErr
	}
	return s.f.communities, nil
}

func (s *fakeCommunitySession) ListPosts(ctx context.Context, community, sort, timeWindow string, limit int) ([]model.Post, error) {
	s.f.calls.Add(1)
	if err := s.f.postErr[community]; err != nil {
		return s.f.posts[community], err
	}
	return s.f.posts[community], nil
}

func (s *fakeCommunitySession) Ping(ctx context.Context) error { return s.f.pingErr }

func (s *fakeCommunitySession) Close() error {
	s.f.closes.Add(1)
	return nil
}

type fakeWeb struct {
	counters
	results []model.WebResult
	err     error
	pingErr error
	panics  bool
}

func (f *fakeWeb) Name() string { return search.SourceSearXNG }

func (f *fakeWeb) Open(ctx context.Context) (search.WebSession, error) {
	f.opens.Add(1)
	return &fakeWebSession{f: f}, nil
}

type fakeWebSession struct{ f *fakeWeb }

func (s *fakeWebSession) WebSearch(ctx context.Context, query string, count int, freshness string) ([]model.WebResult, error) {
	s.f.calls.Add(1)
	if s.f.panics {
		panic("boom")
	}
	return s.f.results, s.f.err
}

func (s *fakeWebSession) Ping(ctx context.Context) error { return s.f.pingErr }

func (s *fakeWebSession) Close() error {
	s.f.closes.Add(1)
	return nil
}

type fakeDeep struct {
	counters
	docs    []model.ResearchDoc
	err     error
	pingErr error
}

func (f *fakeDeep) Name() string { return search.SourceTavily }

func (f *fakeDeep) Open(ctx context.Context) (search.DeepSession, error) {
	f.opens.Add(1)
	return &fakeDeepSession{f: f}, nil
}

type fakeDeepSession struct{ f *fakeDeep }

func (s *fakeDeepSession) DeepResearch(ctx context.Context, query string, maxIterations int) ([]model.ResearchDoc, error) {
	s.f.calls.Add(1)
	return s.f.docs, s.f.err
}

func (s *fakeDeepSession) Ping(ctx context.Context) error { return s.f.pingErr }

func (s *fakeDeepSession) Close() error {
	s.f.closes.Add(1)
	return nil
}

func community(name string, subs, active int, title, desc string) model.Community {
	return model.Community{
		Name:            name,
		Title:           title,
		Description:     desc,
		SubscriberCount: subs,
		ActiveUserCount: active,
		URL:             "https://www.reddit.com/r/" + name + "/",
	}
}

func post(community, title, permalink string) model.Post {
	return model.Post{Title: title, Permalink: permalink, Community: community}
}

// sampleSources 三个数据源都可用的 fixture
func sampleSources() (*fakeCommunity, *fakeWeb, *fakeDeep, search.Sources) {
	fc := &fakeCommunity{
		communities: []model.Community{
			community("homebrewing", 120000, 2400, "Homebrewing", "Brewing beer at home"),
			community("beer", 900000, 3000, "Beer", "All about beer"),
			community("tiny", 50, 10, "Tiny", "too small"),
		},
		posts: map[string][]model.Post{
			"homebrewing": {
				post("homebrewing", "How to keep fermentation temperature stable?", "https://www.reddit.com/r/homebrewing/1"),
				post("homebrewing", "Looking for a cheap kegerator", "https://www.reddit.com/r/homebrewing/2"),
			},
			"beer": {
				post("beer", "Best IPA this year", "https://www.reddit.com/r/beer/3"),
			},
		},
	}
	fw := &fakeWeb{results: []model.WebResult{
		{Title: "Homebrewing fermentation guide", URL: "https://example.com/a"},
		{Title: "Fermentation chambers for homebrewing", URL: "https://example.com/b"},
	}}
	fd := &fakeDeep{docs: []model.ResearchDoc{{Title: "Homebrew market", Content: "growing"}}}
	return fc, fw, fd, search.Sources{Community: fc, Web: fw, Deep: fd, Missing: map[string]string{}}
}
