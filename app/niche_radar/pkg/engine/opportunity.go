package engine

import (
	"math"
	"sort"
	"strings"

	"github.com/iWorld-y/niche_radar/app/niche_radar/pkg/model"
)

const (
	maxOpportunities    = 5
	maxEvidence         = 2
	reachPerOccurrence  = 1000
	confidenceFrequency = 10.0
)

var severityWeight = map[model.Severity]float64{
	model.SeverityHigh:   0.9,
	model.SeverityMedium: 0.6,
	model.SeverityLow:    0.3,
}

// RankOpportunities 将频次最高的 5 个痛点转化为商业机会
func RankOpportunities(painPoints []model.PainPoint, scored []model.ScoredCommunity) []model.Opportunity {
	top := append([]model.PainPoint(nil), painPoints...)
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Frequency > top[j].Frequency
	})
	if len(top) > maxOpportunities {
		top = top[:maxOpportunities]
	}

	totalSubscribers := 0
	for _, c := range scored {
		totalSubscribers += c.SubscriberCount
	}
	audience := strings.Join(topCommunityNames(scored, maxSourceCommunities), ", ")

	opportunities := make([]model.Opportunity, 0, len(top))
	for _, pp := range top {
		evidence := pp.SourcePosts
		if len(evidence) > maxEvidence {
			evidence = evidence[:maxEvidence]
		}
		opportunities = append(opportunities, model.Opportunity{
			Description:        "Solve " + strings.ToLower(pp.Description),
			PainPoint:          pp.Description,
			TargetAudience:     audience,
			PotentialReach:     min(totalSubscribers, pp.Frequency*reachPerOccurrence),
			ConfidenceScore:    Confidence(pp),
			SupportingEvidence: append([]string(nil), evidence...),
		})
	}
	return opportunities
}

// Confidence 严重程度权重乘以频次因子，范围 [0, 0.9]
func Confidence(pp model.PainPoint) float64 {
	return severityWeight[pp.Severity] * math.Min(float64(pp.Frequency)/confidenceFrequency, 1.0)
}
