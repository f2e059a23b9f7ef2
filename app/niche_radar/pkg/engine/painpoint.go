package engine

import (
	"slices"
	"sort"
	"strings"

	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/model"
)

const (
	maxPainPoints        = 10
	maxSourcePosts       = 3
	maxSourceCommunities = 3
)

// painIndicators 标题中提示痛点的短语，匹配时不区分大小写
var painIndicators = []string{
	"problem",
	"issue",
	"struggle",
	"struggling",
	"difficult",
	"hard to",
	"can't",
	"cannot",
	"how to",
	"help",
	"need",
	"looking for",
	"frustrated",
	"annoying",
	"wish",
	"workaround",
	"alternative to",
}

// SeverityFor 按出现频次确定严重程度
func SeverityFor(frequency int) model.Severity {
	switch {
	case frequency >= 5:
		return model.SeverityHigh
	case frequency >= 3:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

// ExtractPainPoints 从帖子标题中挖掘重复出现的痛点，按频次降序返回最多 10 个
//
// 标题每命中一个指示短语频次加一，同时命中多个短语的标题会被多次计数。
// 来源社区取全局排名前 3 的社区，而不是帖子所在社区。
func ExtractPainPoints(posts []model.Post, scored []model.ScoredCommunity) []model.PainPoint {
	counts := make(map[string]int)
	permalinks := make(map[string][]string)
	var order []string

	for _, p := range posts {
		title := strings.TrimSpace(p.Title)
		if title == "" {
			continue
		}
		lower := strings.ToLower(title)

		matched := 0
		for _, ind := range painIndicators {
			if strings.Contains(lower, ind) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}

		if _, ok := counts[title]; !ok {
			order = append(order, title)
		}
		counts[title] += matched

		links := permalinks[title]
		if p.Permalink != "" && len(links) < maxSourcePosts && !slices.Contains(links, p.Permalink) {
			permalinks[title] = append(links, p.Permalink)
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > maxPainPoints {
		order = order[:maxPainPoints]
	}

	communities := topCommunityNames(scored, maxSourceCommunities)
	painPoints := make([]model.PainPoint, 0, len(order))
	for _, title := range order {
		freq := counts[title]
		painPoints = append(painPoints, model.PainPoint{
			Description:       title,
			Severity:          SeverityFor(freq),
			Frequency:         freq,
			SourcePosts:       append([]string(nil), permalinks[title]...),
			SourceCommunities: append([]string(nil), communities...),
		})
	}
	return painPoints
}

func topCommunityNames(scored []model.ScoredCommunity, n int) []string {
	names := make([]string, 0, n)
	for _, c := range scored {
		if len(names) >= n {
			break
		}
		names = append(names, c.Name)
	}
	return names
}
