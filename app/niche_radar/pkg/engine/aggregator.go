package engine

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/model"
)

const (
	maxTrendKeywords = 20
	minKeywordLen    = 5
)

// Aggregated 合并后的调研数据
type Aggregated struct {
	Communities     []model.Community
	Posts           []model.Post
	WebResults      []model.WebResult
	ResearchResults []model.ResearchDoc
	TrendKeywords   []string
}

// Aggregate 合并各数据源结果并从网页标题中提取趋势关键词
func Aggregate(raw *model.RawFindings) Aggregated {
	agg := Aggregated{
		Communities:     append([]model.Community(nil), raw.Communities...),
		Posts:           append([]model.Post(nil), raw.Posts...),
		WebResults:      append([]model.WebResult(nil), raw.WebResults...),
		ResearchResults: append([]model.ResearchDoc(nil), raw.ResearchResults...),
	}

	titles := make([]string, 0, len(raw.WebResults))
	for _, r := range raw.WebResults {
		titles = append(titles, r.Title)
	}
	agg.TrendKeywords = ExtractTrendKeywords(titles, maxTrendKeywords)
	return agg
}

// ExtractTrendKeywords 统计小写化标题中长度大于 4 的词频，返回最多 limit 个高频词
// 词频相同时先出现的词排在前面
func ExtractTrendKeywords(titles []string, limit int) []string {
	counts := make(map[string]int)
	var order []string
	for _, title := range titles {
		for _, tok := range strings.Fields(strings.ToLower(title)) {
			if utf8.RuneCountInString(tok) < minKeywordLen {
				continue
			}
			if _, ok := counts[tok]; !ok {
				order = append(order, tok)
			}
			counts[tok]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if limit >= 0 && len(order) > limit {
		order = order[:limit]
	}
	return order
}
