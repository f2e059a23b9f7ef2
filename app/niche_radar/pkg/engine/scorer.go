package engine

import (
	"math"
	"sort"
	"strings"

	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/model"
)

const (
	maxComponentScore = 5.0
	maxRelevanceScore = 10.0
	activeRatioFactor = 20.0
)

// eligible 社区是否满足订阅数下限和 NSFW 设置
func eligible(c model.Community, cfg model.AnalysisConfig) bool {
	if c.SubscriberCount < cfg.MinSubscribers {
		return false
	}
	return cfg.IncludeNSFW || !c.NSFW
}

// EngagementScore 活跃度得分，范围 [0, 10]
// 活跃比例部分与订阅规模部分各占最多 5 分
func EngagementScore(c model.Community) float64 {
	if c.SubscriberCount <= 0 {
		return 0.0
	}
	activeRatio := float64(c.ActiveUserCount) / float64(c.SubscriberCount)
	active := math.Min(activeRatio*activeRatioFactor, maxComponentScore)
	size := math.Min(math.Log10(float64(c.SubscriberCount))/2, maxComponentScore)
	return active + size
}

// RelevanceScore 趋势关键词在标题和简介中出现的个数，最多 10 分
func RelevanceScore(c model.Community, keywords []string) float64 {
	text := strings.ToLower(c.Title + " " + c.Description)
	var hits float64
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			hits++
		}
	}
	return math.Min(hits, maxRelevanceScore)
}

// ScoreCommunities 去重、过滤、截断后为社区打分，按加权得分降序排列
// 得分相同的社区保持发现顺序
func ScoreCommunities(communities []model.Community, keywords []string, cfg model.AnalysisConfig) []model.ScoredCommunity {
	seen := make(map[string]bool, len(communities))
	scored := make([]model.ScoredCommunity, 0, min(len(communities), max(cfg.MaxCommunities, 0)))

	for _, c := range communities {
		if len(scored) >= cfg.MaxCommunities {
			break
		}
		if seen[c.Name] {
			continue
		}
		seen[c.Name] = true
		if !eligible(c, cfg) {
			continue
		}

		engagement := EngagementScore(c)
		relevance := RelevanceScore(c, keywords)
		scored = append(scored, model.ScoredCommunity{
			Community:       c,
			EngagementScore: engagement,
			RelevanceScore:  relevance,
			RankScore:       engagement*cfg.EngagementWeight + relevance*cfg.RelevanceWeight,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].RankScore > scored[j].RankScore
	})
	return scored
}
