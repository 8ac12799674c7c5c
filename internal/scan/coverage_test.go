package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rankgrid/internal/model"
)

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0, s.TotalPoints)
	assert.Equal(t, 0, s.FoundCount)
	assert.Nil(t, s.AverageRankWhereFound)
}

func TestSummarize_AllNotFound(t *testing.T) {
	outcomes := []model.PointOutcome{
		{},
		{Error: model.ErrorTransport},
		{},
	}

	s := Summarize(outcomes)
	assert.Equal(t, 3, s.TotalPoints)
	assert.Equal(t, 0, s.FoundCount)
	assert.Equal(t, 0, s.Top3Count)
	assert.Equal(t, 0, s.Top10Count)
	assert.Nil(t, s.AverageRankWhereFound)
}

func TestSummarize_Mixed(t *testing.T) {
	outcomes := []model.PointOutcome{
		{TargetRank: 1},
		{TargetRank: 4},
		{TargetRank: 11},
		{}, // not found
		{Error: model.ErrorRateLimited}, // errored points count only toward total
	}

	s := Summarize(outcomes)
	assert.Equal(t, 5, s.TotalPoints)
	assert.Equal(t, 3, s.FoundCount)
	assert.Equal(t, 1, s.Top3Count)
	assert.Equal(t, 2, s.Top10Count)
	require.NotNil(t, s.AverageRankWhereFound)
	assert.InDelta(t, 16.0/3.0, *s.AverageRankWhereFound, 1e-9)
}

func TestSummarize_Invariants(t *testing.T) {
	outcomes := []model.PointOutcome{
		{TargetRank: 2},
		{TargetRank: 3},
		{TargetRank: 7},
		{TargetRank: 15},
	}

	s := Summarize(outcomes)
	assert.LessOrEqual(t, s.FoundCount, s.TotalPoints)
	assert.LessOrEqual(t, s.Top3Count, s.Top10Count)
	assert.LessOrEqual(t, s.Top10Count, s.FoundCount)
}
