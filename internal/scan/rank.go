package scan

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/sells-group/rankgrid/internal/model"
)

// topCompetitorCount is how many leading competitors each outcome reports.
const topCompetitorCount = 3

// Rank orders candidates by rating descending, review count descending,
// then raw name ascending. The name tie-break makes the order total, so
// the same records always rank identically, including all-zero entries.
func Rank(records []model.PlaceResult) []model.PlaceResult {
	ranked := make([]model.PlaceResult, len(records))
	copy(ranked, records)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		if a.ReviewCount != b.ReviewCount {
			return a.ReviewCount > b.ReviewCount
		}
		return a.Name < b.Name
	})
	return ranked
}

// RankAndLocate ranks candidates and resolves the target business within
// the ranking. The target is the first record in sorted order whose name
// contains target as a case-insensitive substring; provider names carry
// branch suffixes the caller's term won't, so substring match is
// deliberate. If several branches match, only the best-ranked one is
// reported. rank is 1-based over the full ranked list and 0 when the
// target is absent; top is the leading prefix of the ranking.
func RankAndLocate(records []model.PlaceResult, target string) (rank int, top []model.PlaceResult, targetRec *model.PlaceResult) {
	ranked := Rank(records)

	top = ranked
	if len(top) > topCompetitorCount {
		top = top[:topCompetitorCount]
	}

	fold := cases.Fold()
	needle := fold.String(target)
	for i := range ranked {
		if strings.Contains(fold.String(ranked[i].Name), needle) {
			rec := ranked[i]
			return i + 1, top, &rec
		}
	}
	return 0, top, nil
}
