package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"ptpal/internal/insight"
	"ptpal/internal/model"
	"ptpal/internal/notify"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func daysAgo(d float64) time.Time {
	return testNow.Add(-time.Duration(d * 24 * float64(time.Hour)))
}

// Fakes

type fakeMemberRepo struct {
	members map[string]*model.Member
	err     error
}

func (f *fakeMemberRepo) GetByID(_ context.Context, id string) (*model.Member, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.members[id], nil
}

func (f *fakeMemberRepo) ListActiveByTrainer(_ context.Context, trainerID string) ([]model.Member, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.Member
	for _, m := range f.members {
		if m.TrainerID == trainerID {
			out = append(out, *m)
		}
	}
	return out, nil
}

type fakeTrainerRepo struct {
	ids   []string
	token string
}

func (f *fakeTrainerRepo) GetByID(_ context.Context, id string) (*model.Trainer, error) {
	return &model.Trainer{ID: id, FCMToken: f.token}, nil
}

func (f *fakeTrainerRepo) ListActiveIDs(context.Context) ([]string, error) { return f.ids, nil }

func (f *fakeTrainerRepo) FCMToken(context.Context, string) (string, error) { return f.token, nil }

type fakeEventRepo struct {
	sessions []model.SessionRecord
	records  []model.BodyRecord
	messages []model.MessageRecord
	err      error

	inserted []*model.BodyRecord
}

func (f *fakeEventRepo) SessionsSince(_ context.Context, _ string, _ []string, _ time.Time) ([]model.SessionRecord, error) {
	return f.sessions, f.err
}

func (f *fakeEventRepo) BodyRecordsSince(_ context.Context, _ []string, _ time.Time) ([]model.BodyRecord, error) {
	return f.records, f.err
}

func (f *fakeEventRepo) MessagesSince(_ context.Context, _ string, _ []string, _ time.Time) ([]model.MessageRecord, error) {
	return f.messages, f.err
}

func (f *fakeEventRepo) InsertBodyRecord(_ context.Context, record *model.BodyRecord) error {
	f.inserted = append(f.inserted, record)
	f.records = append(f.records, *record)
	return nil
}

type fakeInsightRepo struct {
	saved []*model.Insight

	existsErr  error
	keysErr    error
	saveErrFor map[model.InsightType]error
}

func (f *fakeInsightRepo) Save(_ context.Context, ins *model.Insight) error {
	if err := f.saveErrFor[ins.Type]; err != nil {
		return err
	}
	f.saved = append(f.saved, ins)
	return nil
}

func (f *fakeInsightRepo) ExistsSince(_ context.Context, trainerID, memberID string, t model.InsightType, cutoff time.Time) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	for _, ins := range f.saved {
		if ins.TrainerID == trainerID && ins.MemberID == memberID && ins.Type == t && !ins.CreatedAt.Before(cutoff) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeInsightRepo) KeysSince(_ context.Context, trainerID string, cutoff time.Time) (map[string]bool, error) {
	if f.keysErr != nil {
		return nil, f.keysErr
	}
	keys := make(map[string]bool)
	for _, ins := range f.saved {
		if ins.TrainerID == trainerID && !ins.CreatedAt.Before(cutoff) {
			keys[ins.DedupKey()] = true
		}
	}
	return keys, nil
}

func (f *fakeInsightRepo) ListUnexpired(_ context.Context, trainerID string, now time.Time) ([]model.Insight, error) {
	var out []model.Insight
	for _, ins := range f.saved {
		if ins.TrainerID == trainerID && ins.ExpiresAt.After(now) {
			out = append(out, *ins)
		}
	}
	return out, nil
}

func (f *fakeInsightRepo) MarkRead(_ context.Context, id string) error {
	for _, ins := range f.saved {
		if ins.ID == id {
			ins.IsRead = true
		}
	}
	return nil
}

func (f *fakeInsightRepo) MarkActionTaken(_ context.Context, id string) error {
	for _, ins := range f.saved {
		if ins.ID == id {
			ins.IsActionTaken = true
		}
	}
	return nil
}

type fakeCooldown struct {
	active bool
	err    error
	marked int
}

func (f *fakeCooldown) Active(context.Context, string) (bool, error) { return f.active, f.err }

func (f *fakeCooldown) Mark(context.Context, string) error {
	f.marked++
	return nil
}

type fakeNotifier struct {
	sent []*notify.Notification
	err  error
}

func (f *fakeNotifier) Dispatch(_ context.Context, n *notify.Notification) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, n)
	return nil
}

// atRiskFixture wires a service around one member whose churn evaluation
// lands in the CRITICAL tier.
type atRiskFixture struct {
	svc      *InsightService
	members  *fakeMemberRepo
	events   *fakeEventRepo
	insights *fakeInsightRepo
	cooldown *fakeCooldown
	notifier *fakeNotifier
}

func newAtRiskFixture() *atRiskFixture {
	member := &model.Member{
		ID: "m1", TrainerID: "t1", Name: "Kim", Status: "active",
		Goal: model.GoalReduceWeight, TargetWeight: 70, RemainingSessions: 3,
	}

	events := &fakeEventRepo{}
	for i := 0; i < 10; i++ {
		events.sessions = append(events.sessions, model.SessionRecord{
			MemberID: "m1", TrainerID: "t1",
			ScheduledAt: daysAgo(float64(15 + i)), Status: model.SessionCompleted,
		})
	}
	events.sessions = append(events.sessions,
		model.SessionRecord{MemberID: "m1", TrainerID: "t1", ScheduledAt: daysAgo(5), Status: model.SessionCompleted},
		model.SessionRecord{MemberID: "m1", TrainerID: "t1", ScheduledAt: daysAgo(3), Status: model.SessionCompleted},
	)
	for i := 0; i < 4; i++ {
		events.messages = append(events.messages, model.MessageRecord{
			MemberID: "m1", TrainerID: "t1",
			Sender: model.SenderTrainer, SentAt: daysAgo(float64(2 + i)),
		})
	}
	events.records = []model.BodyRecord{
		{MemberID: "m1", RecordedAt: daysAgo(50), Weight: 80.0},
		{MemberID: "m1", RecordedAt: daysAgo(25), Weight: 80.0},
		{MemberID: "m1", RecordedAt: daysAgo(10), Weight: 80.1},
		{MemberID: "m1", RecordedAt: daysAgo(1), Weight: 80.2},
	}

	f := &atRiskFixture{
		members:  &fakeMemberRepo{members: map[string]*model.Member{"m1": member}},
		events:   events,
		insights: &fakeInsightRepo{},
		cooldown: &fakeCooldown{},
		notifier: &fakeNotifier{},
	}
	f.svc = NewInsightService(f.members, &fakeTrainerRepo{}, f.events, f.insights, f.cooldown, f.notifier, zerolog.Nop())
	return f
}

func TestEvaluateAndEmitPersistsAndNotifies(t *testing.T) {
	f := newAtRiskFixture()

	result, err := f.svc.EvaluateAndEmit(context.Background(), "m1", "t1", testNow)
	require.NoError(t, err)
	assert.True(t, result.Emitted)
	assert.Equal(t, insight.TierCritical, result.Tier)
	assert.NotEmpty(t, result.InsightID)

	require.Len(t, f.insights.saved, 1)
	ins := f.insights.saved[0]
	assert.Equal(t, model.InsightChurnRisk, ins.Type)
	assert.Equal(t, model.PriorityHigh, ins.Priority)
	assert.Equal(t, "m1", ins.MemberID)
	assert.Equal(t, testNow.Add(7*24*time.Hour), ins.ExpiresAt)

	// CRITICAL insights trigger a push.
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "t1", f.notifier.sent[0].RecipientID)
}

func TestEvaluateMemberDedupWindow(t *testing.T) {
	f := newAtRiskFixture()

	// An identical insight from one hour ago suppresses re-emission.
	f.insights.saved = append(f.insights.saved, &model.Insight{
		TrainerID: "t1", MemberID: "m1", Type: model.InsightChurnRisk,
		CreatedAt: testNow.Add(-time.Hour),
	})
	result, err := f.svc.EvaluateMember(context.Background(), "m1", testNow)
	require.NoError(t, err)
	assert.Nil(t, result)

	// Once the prior insight ages past 24 hours the member is fair game.
	f.insights.saved[0].CreatedAt = testNow.Add(-25 * time.Hour)
	result, err = f.svc.EvaluateMember(context.Background(), "m1", testNow)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, insight.TierCritical, result.Tier)
}

func TestEvaluateMemberDedupFailsOpen(t *testing.T) {
	f := newAtRiskFixture()
	f.insights.existsErr = errors.New("mongo down")

	result, err := f.svc.EvaluateMember(context.Background(), "m1", testNow)
	require.NoError(t, err)
	require.NotNil(t, result)
}

func TestEvaluateAndEmitSuppressesLowTier(t *testing.T) {
	f := newAtRiskFixture()
	f.members.members["m2"] = &model.Member{
		ID: "m2", TrainerID: "t1", Name: "Lee", Status: "active", RemainingSessions: 20,
	}
	// m2 shares no events with m1, so every factor is quiet.
	f.events.sessions = nil
	f.events.messages = nil
	f.events.records = nil

	result, err := f.svc.EvaluateAndEmit(context.Background(), "m2", "t1", testNow)
	require.NoError(t, err)
	assert.False(t, result.Emitted)
	assert.Equal(t, insight.TierLow, result.Tier)
	assert.Empty(t, f.insights.saved)
	assert.Empty(t, f.notifier.sent)
}

func TestEvaluateAndEmitRejectsForeignMember(t *testing.T) {
	f := newAtRiskFixture()

	_, err := f.svc.EvaluateAndEmit(context.Background(), "m1", "someone-else", testNow)
	assert.ErrorIs(t, err, ErrTrainerMismatch)

	_, err = f.svc.EvaluateAndEmit(context.Background(), "missing", "t1", testNow)
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestNotificationFailureDoesNotRollBack(t *testing.T) {
	f := newAtRiskFixture()
	f.notifier.err = errors.New("fcm unreachable")

	result, err := f.svc.EvaluateAndEmit(context.Background(), "m1", "t1", testNow)
	require.NoError(t, err)
	assert.True(t, result.Emitted)
	assert.Len(t, f.insights.saved, 1)
}

func TestGenerateForTrainerSweep(t *testing.T) {
	f := newAtRiskFixture()

	stats, err := f.svc.GenerateForTrainer(context.Background(), "t1", testNow, false)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalMembers)
	assert.Equal(t, stats.TotalGenerated, stats.NewSaved)
	assert.Zero(t, stats.SkippedDuplicates)
	assert.GreaterOrEqual(t, stats.NewSaved, 1)
	assert.Equal(t, 1, f.cooldown.marked)

	// A second sweep inside the dedup window saves nothing new.
	again, err := f.svc.GenerateForTrainer(context.Background(), "t1", testNow.Add(time.Hour), false)
	require.NoError(t, err)
	assert.Zero(t, again.NewSaved)
	assert.Equal(t, again.TotalGenerated, again.SkippedDuplicates)
}

func TestGenerateForTrainerIsolatesSaveFailures(t *testing.T) {
	f := newAtRiskFixture()
	f.insights.saveErrFor = map[model.InsightType]error{
		model.InsightChurnRisk: errors.New("write failed"),
	}
	// Give the member an expiring enrollment so a second insight type is in
	// play alongside the failing churn write.
	f.members.members["m1"].EndDate = testNow.Add(5 * 24 * time.Hour)

	stats, err := f.svc.GenerateForTrainer(context.Background(), "t1", testNow, false)
	require.NoError(t, err)
	assert.Greater(t, stats.TotalGenerated, stats.NewSaved)
	assert.GreaterOrEqual(t, stats.NewSaved, 1)
	for _, ins := range f.insights.saved {
		assert.NotEqual(t, model.InsightChurnRisk, ins.Type)
	}
}

func TestGenerateForTrainerExtendedRunsNoshow(t *testing.T) {
	f := newAtRiskFixture()
	// Turn the session history into a no-show pattern: ten decided, four
	// no-shows all in the same weekday slot.
	for i := 0; i < 4; i++ {
		f.events.sessions[i].Status = model.SessionNoShow
	}

	stats, err := f.svc.GenerateForTrainer(context.Background(), "t1", testNow, true)
	require.NoError(t, err)
	require.GreaterOrEqual(t, stats.NewSaved, 1)

	var sawPattern bool
	for _, ins := range f.insights.saved {
		if ins.Type == model.InsightNoshowPattern {
			sawPattern = true
			assert.Empty(t, ins.MemberID)
		}
	}
	assert.True(t, sawPattern)
}

func TestOnBodyRecordCreatedRespectsCooldown(t *testing.T) {
	f := newAtRiskFixture()
	f.cooldown.active = true

	record := &model.BodyRecord{MemberID: "m1", RecordedAt: testNow, Weight: 80.3}
	err := f.svc.OnBodyRecordCreated(context.Background(), record, testNow)
	require.NoError(t, err)

	// The record lands either way, the evaluation is skipped.
	assert.Len(t, f.events.inserted, 1)
	assert.Empty(t, f.insights.saved)
	assert.Zero(t, f.cooldown.marked)
}

func TestOnBodyRecordCreatedTriggersEvaluation(t *testing.T) {
	f := newAtRiskFixture()

	record := &model.BodyRecord{MemberID: "m1", RecordedAt: testNow, Weight: 80.3}
	err := f.svc.OnBodyRecordCreated(context.Background(), record, testNow)
	require.NoError(t, err)

	assert.Len(t, f.events.inserted, 1)
	require.Len(t, f.insights.saved, 1)
	assert.Equal(t, model.InsightChurnRisk, f.insights.saved[0].Type)
	assert.Equal(t, 1, f.cooldown.marked)
}

func TestOnBodyRecordCreatedCooldownCheckFailsOpen(t *testing.T) {
	f := newAtRiskFixture()
	f.cooldown.err = errors.New("redis down")

	record := &model.BodyRecord{MemberID: "m1", RecordedAt: testNow, Weight: 80.3}
	err := f.svc.OnBodyRecordCreated(context.Background(), record, testNow)
	require.NoError(t, err)
	assert.Len(t, f.insights.saved, 1)
}

func TestListForTrainerSortsFeed(t *testing.T) {
	f := newAtRiskFixture()
	expiry := testNow.Add(24 * time.Hour)
	f.insights.saved = []*model.Insight{
		{ID: "a", TrainerID: "t1", Type: model.InsightRenewalLikelihood, Priority: model.PriorityMedium, ExpiresAt: expiry},
		{ID: "b", TrainerID: "t1", Type: model.InsightChurnRisk, Priority: model.PriorityHigh, ExpiresAt: expiry},
		{ID: "stale", TrainerID: "t1", Type: model.InsightChurnRisk, Priority: model.PriorityHigh, ExpiresAt: testNow.Add(-time.Hour)},
	}

	out, err := f.svc.ListForTrainer(context.Background(), "t1", testNow)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "b", out[0].ID)
	assert.Equal(t, "a", out[1].ID)
}
