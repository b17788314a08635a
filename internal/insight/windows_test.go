package insight

import (
	"testing"
	"time"

	"ptpal/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func daysAgo(d float64) time.Time {
	return testNow.Add(-time.Duration(d * 24 * float64(time.Hour)))
}

func TestWindowContainsHalfOpen(t *testing.T) {
	recent := Window{Name: WindowRecent, StartDays: 0, EndDays: 14}
	previous := Window{Name: WindowPrevious, StartDays: 14, EndDays: 28}

	// A record exactly on the 14-day seam belongs to the previous window,
	// not the recent one.
	seam := daysAgo(14)
	assert.False(t, recent.Contains(testNow, seam))
	assert.True(t, previous.Contains(testNow, seam))

	// The evaluation instant itself is inside the recent window.
	assert.True(t, recent.Contains(testNow, testNow))

	// Exactly 28 days old falls off the previous window.
	assert.False(t, previous.Contains(testNow, daysAgo(28)))

	// Future records are outside every window.
	assert.False(t, recent.Contains(testNow, testNow.Add(time.Hour)))
}

func TestAggregateBucketsEvents(t *testing.T) {
	events := EventSet{
		Sessions: []model.SessionRecord{
			{MemberID: "m1", ScheduledAt: daysAgo(3), Status: model.SessionCompleted},
			{MemberID: "m1", ScheduledAt: daysAgo(5), Status: model.SessionNoShow},
			{MemberID: "m1", ScheduledAt: daysAgo(20), Status: model.SessionCompleted},
			{MemberID: "m1", ScheduledAt: daysAgo(21), Status: model.SessionCancelled},
			{MemberID: "m1", ScheduledAt: daysAgo(60), Status: model.SessionCompleted}, // outside all
		},
		Messages: []model.MessageRecord{
			{MemberID: "m1", Sender: model.SenderTrainer, SentAt: daysAgo(2)},
			{MemberID: "m1", Sender: model.SenderTrainer, SentAt: daysAgo(4)},
			{MemberID: "m1", Sender: model.SenderMember, SentAt: daysAgo(2)},
			{MemberID: "m1", Sender: model.SenderMember, SentAt: daysAgo(16)},
		},
		BodyRecords: []model.BodyRecord{
			{MemberID: "m1", RecordedAt: daysAgo(1), Weight: 80.4},
			{MemberID: "m1", RecordedAt: daysAgo(10), Weight: 80.1},
			{MemberID: "m1", RecordedAt: daysAgo(25), Weight: 79.8},
			{MemberID: "m1", RecordedAt: daysAgo(6), Weight: 0}, // invalid, skipped
		},
	}

	agg := Aggregate(testNow, StandardWindows(), events)

	recent := agg[WindowRecent]
	assert.Equal(t, 1, recent.CompletedSessions)
	assert.Equal(t, 1, recent.NoShowSessions)
	assert.Equal(t, 2, recent.TrainerMessages)
	assert.Equal(t, 1, recent.MemberMessages)
	require.Len(t, recent.Weights, 2)

	previous := agg[WindowPrevious]
	assert.Equal(t, 1, previous.CompletedSessions)
	assert.Equal(t, 1, previous.CancelledSessions)
	assert.Equal(t, 1, previous.MemberMessages)

	fourWeek := agg[WindowFourWeek]
	require.Len(t, fourWeek.Weights, 3)
	// Sorted ascending by time: oldest sample first.
	assert.Equal(t, 79.8, fourWeek.Weights[0].Weight)
	assert.Equal(t, 80.4, fourWeek.Weights[2].Weight)

	first, ok := fourWeek.FirstWeight()
	require.True(t, ok)
	assert.Equal(t, 79.8, first.Weight)
	last, ok := fourWeek.LastWeight()
	require.True(t, ok)
	assert.Equal(t, 80.4, last.Weight)

	history := agg[WindowHistory]
	assert.Equal(t, 2, history.CompletedSessions) // 60-day-old one still excluded
}

func TestAggregateEmptyInput(t *testing.T) {
	agg := Aggregate(testNow, StandardWindows(), EventSet{})

	for _, w := range StandardWindows() {
		stats := agg[w.Name]
		require.NotNil(t, stats)
		assert.Zero(t, stats.CompletedSessions)
		assert.Empty(t, stats.Weights)
		_, ok := stats.FirstWeight()
		assert.False(t, ok)
	}
}
