package scan

import (
	"github.com/sells-group/rankgrid/internal/model"
)

// Summarize reduces the per-point outcomes of one scan into coverage
// statistics. Errored points count toward TotalPoints but never toward the
// found counts, so partial scans report honest coverage. An empty input
// yields an all-zero summary.
func Summarize(outcomes []model.PointOutcome) model.CoverageSummary {
	s := model.CoverageSummary{TotalPoints: len(outcomes)}

	var rankSum int
	for _, o := range outcomes {
		if !o.Found() {
			continue
		}
		s.FoundCount++
		rankSum += o.TargetRank
		if o.TargetRank <= 3 {
			s.Top3Count++
		}
		if o.TargetRank <= 10 {
			s.Top10Count++
		}
	}

	if s.FoundCount > 0 {
		avg := float64(rankSum) / float64(s.FoundCount)
		s.AverageRankWhereFound = &avg
	}
	return s
}
