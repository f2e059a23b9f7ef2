package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/logger"
	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/model"
	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/search"
)

const (
	maxCommunitySearch = 100
	postSort           = "top"
	postTimeWindow     = "month"
	webResultCount     = 20
	webFreshness       = "month"
)

// Coordinator 将一次查询并发分发给所有已配置的数据源
// 单个数据源的失败只记录在结果的 Errors 中，不会中断其他数据源
type Coordinator struct {
	sources       search.Sources
	maxIterations int
}

// NewCoordinator 创建协调器
func NewCoordinator(sources search.Sources, maxIterations int) *Coordinator {
	if maxIterations <= 0 {
		maxIterations = 1
	}
	return &Coordinator{sources: sources, maxIterations: maxIterations}
}

// slot 每个任务独占的结果槽位，全部任务结束后才合并
type slot struct {
	communities []model.Community
	posts       []model.Post
	web         []model.WebResult
	docs        []model.ResearchDoc
	errs        []model.SourceError
}

func (s *slot) fail(source string, err error) {
	s.errs = append(s.errs, model.SourceError{Source: source, Message: err.Error()})
}

// recoverInto 把任务内的 panic 记为该数据源的失败
func recoverInto(source string, s *slot) {
	if r := recover(); r != nil {
		logger.Log.Errorf("数据源 [%s] panic: %v", source, r)
		s.fail(source, fmt.Errorf("panic: %v", r))
	}
}

func closeSession(source string, sess search.Session) {
	if err := sess.Close(); err != nil {
		logger.Log.Warnf("关闭数据源会话失败 [%s]: %v", source, err)
	}
}

// Research 并发调用所有数据源，等待全部结束后按启动顺序合并
func (c *Coordinator) Research(ctx context.Context, cfg model.AnalysisConfig) *model.RawFindings {
	var slots [3]slot
	// 不使用 errgroup.WithContext：任何任务都不返回错误，也不互相取消
	var g errgroup.Group

	if c.sources.Community != nil {
		g.Go(func() error {
			slots[0] = c.researchCommunities(ctx, cfg)
			return nil
		})
	}
	if c.sources.Web != nil {
		g.Go(func() error {
			slots[1] = c.researchWeb(ctx, cfg)
			return nil
		})
	}
	if c.sources.Deep != nil {
		g.Go(func() error {
			slots[2] = c.researchDeep(ctx, cfg)
			return nil
		})
	}
	_ = g.Wait()

	raw := &model.RawFindings{}
	for _, s := range slots {
		raw.Communities = append(raw.Communities, s.communities...)
		raw.Posts = append(raw.Posts, s.posts...)
		raw.WebResults = append(raw.WebResults, s.web...)
		raw.ResearchResults = append(raw.ResearchResults, s.docs...)
		raw.Errors = append(raw.Errors, s.errs...)
	}
	return raw
}

func (c *Coordinator) researchCommunities(ctx context.Context, cfg model.AnalysisConfig) (s slot) {
	p := c.sources.Community
	name := p.Name()
	defer recoverInto(name, &s)

	sess, err := p.Open(ctx)
	if err != nil {
		s.fail(name, err)
		return s
	}
	defer closeSession(name, sess)

	limit := min(cfg.MaxCommunities*2, maxCommunitySearch)
	communities, err := sess.SearchCommunities(ctx, cfg.Query, limit, cfg.IncludeNSFW)
	if err != nil {
		s.fail(name, err)
		return s
	}
	s.communities = communities
	logger.Log.Infof("数据源 [%s] 发现 %d 个社区", name, len(communities))

	// 只为会进入打分的社区拉取帖子
	seen := make(map[string]bool)
	for _, cm := range communities {
		if len(seen) >= cfg.MaxCommunities {
			break
		}
		if seen[cm.Name] || !eligible(cm, cfg) {
			continue
		}
		seen[cm.Name] = true

		posts, err := sess.ListPosts(ctx, cm.Name, postSort, postTimeWindow, cfg.PostsPerCommunity)
		if err != nil {
			s.fail(name, fmt.Errorf("list posts %s: %w", cm.Name, err))
			if ctx.Err() != nil {
				return s
			}
			continue
		}
		s.posts = append(s.posts, posts...)
	}
	logger.Log.Infof("数据源 [%s] 获取 %d 篇帖子", name, len(s.posts))
	return s
}

func (c *Coordinator) researchWeb(ctx context.Context, cfg model.AnalysisConfig) (s slot) {
	p := c.sources.Web
	name := p.Name()
	defer recoverInto(name, &s)

	sess, err := p.Open(ctx)
	if err != nil {
		s.fail(name, err)
		return s
	}
	defer closeSession(name, sess)

	results, err := sess.WebSearch(ctx, cfg.Query, webResultCount, webFreshness)
	if err != nil {
		s.fail(name, err)
		return s
	}
	s.web = results
	logger.Log.Infof("数据源 [%s] 返回 %d 条网页结果", name, len(results))
	return s
}

func (c *Coordinator) researchDeep(ctx context.Context, cfg model.AnalysisConfig) (s slot) {
	p := c.sources.Deep
	name := p.Name()
	defer recoverInto(name, &s)

	sess, err := p.Open(ctx)
	if err != nil {
		s.fail(name, err)
		return s
	}
	defer closeSession(name, sess)

	// 只有深度调研在中途失败时保留已返回的文档，其他数据源失败时丢弃结果
	docs, err := sess.DeepResearch(ctx, cfg.Query, c.maxIterations)
	s.docs = docs
	if err != nil {
		s.fail(name, err)
		return s
	}
	logger.Log.Infof("数据源 [%s] 返回 %d 篇调研文档", name, len(docs))
	return s
}
