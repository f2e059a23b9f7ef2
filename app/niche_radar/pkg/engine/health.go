package engine

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/model"
	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/search"
)

const probeTimeout = 15 * time.Second

// probe 打开会话、Ping、关闭
func probe[S search.Session](ctx context.Context, p search.Provider[S]) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	sess, err := p.Open(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()
	return sess.Ping(ctx)
}

// HealthCheck 独立探测每个数据源
// 只有至少配置了一个数据源且所有已配置数据源都探测成功时整体才健康
func (e *Engine) HealthCheck(ctx context.Context) model.HealthReport {
	var (
		g                       errgroup.Group
		community, web, deepErr error
	)
	if e.sources.Community != nil {
		g.Go(func() error {
			community = probe(ctx, e.sources.Community)
			return nil
		})
	}
	if e.sources.Web != nil {
		g.Go(func() error {
			web = probe(ctx, e.sources.Web)
			return nil
		})
	}
	if e.sources.Deep != nil {
		g.Go(func() error {
			deepErr = probe(ctx, e.sources.Deep)
			return nil
		})
	}
	_ = g.Wait()

	report := model.HealthReport{
		Agent:    AgentName,
		Services: make(map[string]model.ServiceHealth),
	}
	configured := 0
	allHealthy := true
	record := func(name string, err error) {
		configured++
		if err != nil {
			allHealthy = false
			report.Services[name] = model.ServiceHealth{Healthy: false, Error: err.Error()}
			return
		}
		report.Services[name] = model.ServiceHealth{Healthy: true}
	}
	if e.sources.Community != nil {
		record(e.sources.Community.Name(), community)
	}
	if e.sources.Web != nil {
		record(e.sources.Web.Name(), web)
	}
	if e.sources.Deep != nil {
		record(e.sources.Deep.Name(), deepErr)
	}
	for name, reason := range e.sources.Missing {
		report.Services[name] = model.ServiceHealth{Healthy: false, Error: reason}
	}

	report.Healthy = configured > 0 && allHealthy
	return report
}
